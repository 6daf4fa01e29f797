// Package processor assembles an AnalysisResult from raw dialer rows.
package processor

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"dialer-insights-go/internal/aggregator"
	"dialer-insights-go/internal/dataset"
	"dialer-insights-go/internal/dates"
	"dialer-insights-go/internal/logger"
	"dialer-insights-go/internal/prefix"
	"dialer-insights-go/internal/types"
)

// ErrNoUsableData is returned when a batch carries no rows at all.
var ErrNoUsableData = errors.New("no usable data")

// DefaultFileName labels results whose source files are not named.
const DefaultFileName = "uploaded_files"

// Options tune one Analyze call. Zero values are usable.
type Options struct {
	Location *time.Location
	Catalog  *prefix.Catalog
	FileName string
	NewID    func() string
	Now      func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Catalog == nil {
		o.Catalog = prefix.Default()
	}
	if o.FileName == "" {
		o.FileName = DefaultFileName
	}
	if o.NewID == nil {
		o.NewID = func() string { return uuid.New().String() }
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Analyze runs the full pipeline over rows. Malformed fields degrade to
// missing values; only an empty batch is an error.
func Analyze(rows []types.RawRow, opts Options) (*types.AnalysisResult, error) {
	if len(rows) == 0 {
		return nil, ErrNoUsableData
	}
	opts = opts.withDefaults()
	log := logger.New().WithField("component", "processor")
	start := time.Now()

	norm := dataset.NewNormalizer(rows, dates.New(opts.Location))
	log.WithField("timestamp_column", norm.Mapping.Timestamp).
		WithField("state_column", norm.Mapping.State).
		WithField("ani_column", norm.Mapping.ANI).
		Debug("columns resolved")

	records := norm.NormalizeAll(rows)
	groups := aggregator.GroupByANI(records)
	summaries := aggregator.SummarizeAll(groups)

	res := &types.AnalysisResult{
		AnalysisSummary: types.AnalysisSummary{
			ID:                 opts.NewID(),
			FileName:           opts.FileName,
			UploadedAt:         opts.Now().UTC(),
			TotalRecords:       len(records),
			TotalANIs:          len(summaries),
			StateDistribution:  aggregator.StateDistribution(records),
			TagDistribution:    aggregator.TagDistribution(summaries),
			ShiftDistribution:  aggregator.ShiftDistribution(records),
			RangeDistribution:  aggregator.TimeRangeDistribution(records),
			PrefixDistribution: aggregator.PrefixDistribution(records, opts.Catalog),
			AnsweredPrefixes:   aggregator.AnsweredPrefixDistribution(records, opts.Catalog),
			PrefixByHour:       aggregator.PrefixByHour(records),
			ContactCurve:       aggregator.ContactCurve(groups),
			AttemptsHistogram:  aggregator.AttemptsHistogram(summaries),
			ANISummaries:       summaries,
			Meta:               ComputeMeta(records),
		},
		Records: records,
	}

	for _, s := range summaries {
		if s.AnswerAgent > 0 {
			res.ContactedANIs++
		}
		if s.Tag != types.TagKeepTrying {
			res.ToBeCleanedANIs++
		}
	}

	answered, unanswered := 0, 0
	for _, r := range records {
		switch {
		case aggregator.IsAnswer(r.State):
			answered++
		case aggregator.IsNoAnswer(r.State):
			unanswered++
		}
	}
	res.PctAnswer = aggregator.Pct(answered, len(records))
	res.PctNoAnswer = aggregator.Pct(unanswered, len(records))

	log.WithField("id", res.ID).
		WithField("records", res.TotalRecords).
		WithField("anis", res.TotalANIs).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("analysis complete")
	return res, nil
}
