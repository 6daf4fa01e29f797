package processor

import (
	"math"
	"sort"
	"strings"

	"dialer-insights-go/internal/aggregator"
	"dialer-insights-go/internal/types"
)

const (
	// DefaultMaxDuration is reported when no record has a positive duration.
	DefaultMaxDuration = 3600

	DefaultQueryLimit = 500
	MaxQueryLimit     = 2000
)

// ComputeMeta collects the values that populate filter controls.
func ComputeMeta(records []types.CanonicalRecord) types.AnalysisMeta {
	states := map[string]struct{}{}
	subStates := map[string]struct{}{}
	bases := map[string]struct{}{}
	maxDur := 0.0

	for _, r := range records {
		if r.State != "" {
			states[strings.ToUpper(r.State)] = struct{}{}
		}
		if r.SubState != "" {
			subStates[strings.ToUpper(r.SubState)] = struct{}{}
		}
		if r.Base != "" {
			bases[r.Base] = struct{}{}
		}
		if d := r.Duration(); d > maxDur {
			maxDur = d
		}
	}
	if maxDur <= 0 {
		maxDur = DefaultMaxDuration
	}

	return types.AnalysisMeta{
		DistinctStates:    sortedKeys(states),
		DistinctSubStates: sortedKeys(subStates),
		DistinctBases:     sortedKeys(bases),
		MaxDuration:       maxDur,
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type compiledFilter struct {
	states    map[string]bool
	subStates map[string]bool
	bases     map[string]bool
	ani       string
	min, max  float64
}

func compile(f types.RecordsFilter) compiledFilter {
	upper := func(vals []string) map[string]bool {
		if len(vals) == 0 {
			return nil
		}
		m := make(map[string]bool, len(vals))
		for _, v := range vals {
			m[strings.ToUpper(v)] = true
		}
		return m
	}

	c := compiledFilter{
		states:    upper(f.States),
		subStates: upper(f.SubStates),
		ani:       strings.TrimSpace(f.ANIContains),
		max:       math.Inf(1),
	}
	if len(f.Bases) > 0 {
		c.bases = make(map[string]bool, len(f.Bases))
		for _, b := range f.Bases {
			c.bases[b] = true
		}
	}
	if f.DurationMin != nil {
		c.min = *f.DurationMin
	}
	if f.DurationMax != nil {
		c.max = *f.DurationMax
	}
	return c
}

func (c compiledFilter) match(r types.CanonicalRecord) bool {
	if c.states != nil && !c.states[strings.ToUpper(r.State)] {
		return false
	}
	if c.subStates != nil && !c.subStates[strings.ToUpper(r.SubState)] {
		return false
	}
	if c.bases != nil && !c.bases[r.Base] {
		return false
	}
	if c.ani != "" && !strings.Contains(r.ANI, c.ani) {
		return false
	}
	d := r.Duration()
	return d >= c.min && d <= c.max
}

// ApplyFilter returns the records matching every present condition of f.
// A missing duration counts as 0.
func ApplyFilter(records []types.CanonicalRecord, f types.RecordsFilter) []types.CanonicalRecord {
	c := compile(f)
	out := make([]types.CanonicalRecord, 0, len(records))
	for _, r := range records {
		if c.match(r) {
			out = append(out, r)
		}
	}
	return out
}

// RecordsPage is one page of filtered records plus totals over the whole match.
type RecordsPage struct {
	Total    int                     `json:"total"`
	Answer   int                     `json:"answer"`
	NoAnswer int                     `json:"no_answer"`
	Offset   int                     `json:"offset"`
	Limit    int                     `json:"limit"`
	Records  []types.CanonicalRecord `json:"records"`
}

// QueryRecords filters records and returns the requested page. limit defaults
// to DefaultQueryLimit and is capped at MaxQueryLimit.
func QueryRecords(records []types.CanonicalRecord, f types.RecordsFilter, offset, limit int) RecordsPage {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}

	filtered := ApplyFilter(records, f)
	page := RecordsPage{Total: len(filtered), Offset: offset, Limit: limit}
	for _, r := range filtered {
		switch {
		case aggregator.IsAnswer(r.State):
			page.Answer++
		case aggregator.IsNoAnswer(r.State):
			page.NoAnswer++
		}
	}

	start := min(offset, len(filtered))
	end := min(start+limit, len(filtered))
	page.Records = filtered[start:end]
	return page
}
