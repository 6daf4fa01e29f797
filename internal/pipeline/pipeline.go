// Package pipeline runs an upload end to end: files to rows, rows to an
// analysis, analysis to the store.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"dialer-insights-go/internal/dataset"
	"dialer-insights-go/internal/logger"
	"dialer-insights-go/internal/processor"
	"dialer-insights-go/internal/store"
	"dialer-insights-go/internal/types"
)

type Pipeline struct {
	Store   store.Store
	Options processor.Options
}

func New(s store.Store, opts processor.Options) *Pipeline {
	return &Pipeline{Store: s, Options: opts}
}

// Ingest loads sources, analyzes their combined rows and stores the result.
// A batch with no rows fails with processor.ErrNoUsableData.
func (p *Pipeline) Ingest(ctx context.Context, sources []dataset.Source) (*types.AnalysisResult, error) {
	log := logger.New().WithField("component", "pipeline")
	start := time.Now()

	rows, err := dataset.LoadAll(ctx, sources)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load files")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := p.Options
	if opts.FileName == "" {
		opts.FileName = FileName(sources)
	}
	res, err := processor.Analyze(rows, opts)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: analyze")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.Store != nil {
		if err := p.Store.Put(ctx, res); err != nil {
			return nil, eris.Wrap(err, "pipeline: store")
		}
	}

	log.WithField("id", res.ID).
		WithField("files", len(sources)).
		WithField("rows", len(rows)).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("upload ingested")
	return res, nil
}

// FileName joins the source names, or returns "" when none are named.
func FileName(sources []dataset.Source) string {
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		if s.Name != "" {
			names = append(names, s.Name)
		}
	}
	return strings.Join(names, ", ")
}
