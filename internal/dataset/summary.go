package dataset

import (
	"sort"

	"dialer-insights-go/internal/columns"
	"dialer-insights-go/internal/logger"
	"dialer-insights-go/internal/types"
)

// Profile is a compact description of a loaded batch, used to diagnose column
// detection before running the full analysis.
type Profile struct {
	Rows             int             `json:"rows"`
	Columns          []string        `json:"columns"`
	Mapping          columns.Mapping `json:"mapping"`
	MissingColumns   []string        `json:"missing_columns,omitempty"`
	ParsedTimestamps int             `json:"parsed_timestamps"`
	TimestampRate    float64         `json:"timestamp_rate"`
	WithDuration     int             `json:"with_duration"`
	EmptyANIs        int             `json:"empty_anis"`
	TopStates        []StateCount    `json:"top_states"`
	Samples          []types.RawRow  `json:"samples,omitempty"`
}

// StateCount is one raw state value and its frequency.
type StateCount struct {
	State string `json:"state"`
	Count int    `json:"count"`
}

const (
	profileTopStates = 10
	profileSamples   = 3
)

// Describe profiles rows with the mapping the normalizer resolved for them.
func Describe(rows []types.RawRow, n Normalizer) Profile {
	log := logger.New().WithField("component", "dataset.summary")

	p := Profile{Rows: len(rows), Mapping: n.Mapping}
	if len(rows) == 0 {
		log.Warn("no rows to describe")
		return p
	}
	p.Columns = Columns(rows[0])

	present := make(map[string]bool, len(p.Columns))
	for _, c := range p.Columns {
		present[c] = true
	}
	for _, col := range []string{n.Mapping.State, n.Mapping.SubState, n.Mapping.ANI, n.Mapping.Base, n.Mapping.Duration, n.Mapping.Timestamp} {
		if !present[col] {
			p.MissingColumns = append(p.MissingColumns, col)
		}
	}

	byState := map[string]int{}
	for _, row := range rows {
		rec := n.Normalize(row)
		if rec.Timestamp != nil {
			p.ParsedTimestamps++
		}
		if rec.DurationSeconds != nil {
			p.WithDuration++
		}
		if rec.ANI == "" {
			p.EmptyANIs++
		}
		byState[rec.State]++
	}
	p.TimestampRate = float64(p.ParsedTimestamps) * 100 / float64(len(rows))

	for s, c := range byState {
		p.TopStates = append(p.TopStates, StateCount{State: s, Count: c})
	}
	sort.Slice(p.TopStates, func(i, j int) bool {
		if p.TopStates[i].Count != p.TopStates[j].Count {
			return p.TopStates[i].Count > p.TopStates[j].Count
		}
		return p.TopStates[i].State < p.TopStates[j].State
	})
	if len(p.TopStates) > profileTopStates {
		p.TopStates = p.TopStates[:profileTopStates]
	}

	end := profileSamples
	if len(rows) < end {
		end = len(rows)
	}
	p.Samples = rows[:end]

	log.WithField("rows", p.Rows).
		WithField("timestamp_column", n.Mapping.Timestamp).
		WithField("timestamp_rate", p.TimestampRate).
		Debug("dataset described")
	return p
}
