// Package server exposes analyses over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"dialer-insights-go/internal/logger"
	"dialer-insights-go/internal/pipeline"
	"dialer-insights-go/internal/prefix"
	"dialer-insights-go/internal/store"
	"dialer-insights-go/internal/types"
)

type Options struct {
	Pipeline    *pipeline.Pipeline
	Store       store.Store
	Catalog     *prefix.Catalog
	MaxUploadMB int
	// UploadRate is the sustained number of uploads per second; <= 0 disables the limit.
	UploadRate  float64
	UploadBurst int
	CORSOrigins []string
}

type Server struct {
	pipeline  *pipeline.Pipeline
	store     store.Store
	catalog   *prefix.Catalog
	maxUpload int64
	limiter   *rate.Limiter
	origins   []string
}

func New(opts Options) *Server {
	limit := rate.Inf
	if opts.UploadRate > 0 {
		limit = rate.Limit(opts.UploadRate)
	}
	burst := opts.UploadBurst
	if burst <= 0 {
		burst = 1
	}
	maxMB := opts.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 64
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = prefix.Default()
	}
	return &Server{
		pipeline:  opts.Pipeline,
		store:     opts.Store,
		catalog:   catalog,
		maxUpload: int64(maxMB) << 20,
		limiter:   rate.NewLimiter(limit, burst),
		origins:   origins,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Get("/prefixes", s.prefixes)
		r.With(s.rateLimit).Post("/upload", s.upload)
		r.Get("/analyses", s.listAnalyses)
		r.Route("/analysis/{id}", func(r chi.Router) {
			r.Get("/", s.getAnalysis)
			r.Delete("/", s.deleteAnalysis)
			r.Get("/meta", s.meta)
			r.Post("/records/query", s.queryRecords)
			r.Get("/actions", s.actions)
			r.Post("/simulate-cut", s.simulateCut)
			r.Get("/thresholds", s.thresholds)
		})
		r.Route("/export", func(r chi.Router) {
			r.Post("/records", s.exportRecords)
			r.Post("/summary", s.exportSummary)
			r.Post("/filtered", s.exportFiltered)
		})
	})
	return r
}

// NewHTTPServer wraps the handler with the timeouts used in production.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.New().WithRequest(r).
			WithField("status", ww.Status()).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			Info("request served")
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "too many uploads, retry shortly")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.New().WithError(err).Error("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// loadAnalysis fetches the analysis named by the {id} URL parameter, or by id
// when non-empty, and writes the error response when it cannot.
func (s *Server) loadAnalysis(w http.ResponseWriter, r *http.Request, id string) (*types.AnalysisResult, bool) {
	if id == "" {
		id = chi.URLParam(r, "id")
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, "analysis id is required")
		return nil, false
	}
	res, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "analysis not found")
		return nil, false
	}
	if err != nil {
		logger.New().WithRequest(r).WithField("error", err.Error()).Error("store lookup failed")
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return nil, false
	}
	return res, true
}
