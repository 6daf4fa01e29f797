package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"dialer-insights-go/internal/actionable"
	"dialer-insights-go/internal/dataset"
	"dialer-insights-go/internal/dates"
	"dialer-insights-go/internal/export"
	"dialer-insights-go/internal/store"
)

var (
	analyzeOut        string
	analyzeSummaryCSV string
	analyzeInspect    bool
	analyzeSave       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <files...>",
	Short: "Analyze dialer exports and print the summary",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sources := make([]dataset.Source, 0, len(args))
		for _, a := range args {
			sources = append(sources, dataset.FileSource(a))
		}

		driver := store.DriverMemory
		if analyzeSave {
			driver = ""
		}
		env, err := initEnv(ctx, driver)
		if err != nil {
			return err
		}
		defer env.Close()

		if analyzeInspect {
			rows, err := dataset.LoadAll(ctx, sources)
			if err != nil {
				return eris.Wrap(err, "load files")
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			norm := dataset.NewNormalizer(rows, dates.New(loc))
			return writeJSON(cmd.OutOrStdout(), dataset.Describe(rows, norm))
		}

		res, err := env.Pipeline.Ingest(ctx, sources)
		if err != nil {
			return err
		}

		if analyzeSummaryCSV != "" {
			f, err := os.Create(analyzeSummaryCSV)
			if err != nil {
				return eris.Wrap(err, "create summary csv")
			}
			if err := export.WriteSummaries(f, res.ANISummaries, export.FormatCSV); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return eris.Wrap(err, "close summary csv")
			}
		}

		if analyzeOut != "" {
			f, err := os.Create(analyzeOut)
			if err != nil {
				return eris.Wrap(err, "create output")
			}
			if err := writeJSON(f, res); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return eris.Wrap(err, "close output")
			}
		}

		return writeJSON(cmd.OutOrStdout(), struct {
			Summary any `json:"summary"`
			Actions any `json:"actions"`
		}{res.Summary(), actionable.Generate(res.Summary())})
	},
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "write json")
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "write the full result, records included, as JSON")
	analyzeCmd.Flags().StringVar(&analyzeSummaryCSV, "summary-csv", "", "write per-ANI summaries as CSV")
	analyzeCmd.Flags().BoolVar(&analyzeInspect, "inspect", false, "only profile column detection, skip the analysis")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "persist the result in the configured store")
	rootCmd.AddCommand(analyzeCmd)
}
