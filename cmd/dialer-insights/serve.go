package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"dialer-insights-go/internal/logger"
	"dialer-insights-go/internal/server"
)

var (
	servePort  int
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		log := logger.New()

		env, err := initEnv(ctx, "")
		if err != nil {
			return err
		}
		defer env.Close()

		if serveWatch {
			if err := startWatcher(ctx, env); err != nil {
				return err
			}
		}

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		srv := server.New(server.Options{
			Pipeline:    env.Pipeline,
			Store:       env.Store,
			Catalog:     env.Catalog,
			MaxUploadMB: cfg.Server.MaxUploadMB,
			UploadRate:  cfg.Server.UploadRate,
			UploadBurst: cfg.Server.UploadBurst,
			CORSOrigins: cfg.Server.CORSOrigins,
		}).NewHTTPServer(cfg.Addr())

		go func() {
			<-ctx.Done()
			log.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		log.WithField("addr", srv.Addr).WithField("version", version).Info("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "also ingest exports dropped into watch.dir")
	rootCmd.AddCommand(serveCmd)
}
