package actionable

import (
	"sort"

	"dialer-insights-go/internal/aggregator"
	"dialer-insights-go/internal/types"
)

// Thresholds are the cut-off values evaluated by the threshold tables.
var Thresholds = []int{1, 2, 3, 4, 5, 6, 8, 10}

// Partition splits summaries into the ANIs worth dialing again (KEEP_TRYING)
// and the ones to remove from the base.
func Partition(summaries []types.ANISummary) (keep, discard []types.ANISummary) {
	for _, s := range summaries {
		if s.Tag == types.TagKeepTrying {
			keep = append(keep, s)
		} else {
			discard = append(discard, s)
		}
	}
	return keep, discard
}

// RecordsForTags returns the records of every ANI whose tag is in tags.
func RecordsForTags(res *types.AnalysisResult, tags []types.Tag) []types.CanonicalRecord {
	want := make(map[types.Tag]bool, len(tags))
	for _, t := range tags {
		want[t] = true
	}
	anis := map[string]bool{}
	for _, s := range res.ANISummaries {
		if want[s.Tag] {
			anis[s.ANI] = true
		}
	}
	out := []types.CanonicalRecord{}
	for _, r := range res.Records {
		if anis[r.ANI] {
			out = append(out, r)
		}
	}
	return out
}

// CutSimulation reports the effect of capping attempts for ANIs never reached by an agent.
type CutSimulation struct {
	Base           string             `json:"base,omitempty"`
	MaxAttempts    int                `json:"max_attempts"`
	ScopeANIs      int                `json:"scope_anis"`
	NoContactANIs  int                `json:"no_contact_anis"`
	CutANIs        int                `json:"cut_anis"`
	KeptANIs       int                `json:"kept_anis"`
	PctOfNoContact float64            `json:"pct_of_no_contact"`
	PctKept        float64            `json:"pct_kept"`
	Cut            []types.ANISummary `json:"cut,omitempty"`
}

// SimulateCut cuts every ANI without agent contact whose total attempts exceed
// maxAttempts. A non-empty base restricts the scope to ANIs dialed from that base.
func SimulateCut(res *types.AnalysisResult, base string, maxAttempts int) CutSimulation {
	sim := CutSimulation{Base: base, MaxAttempts: maxAttempts}

	scope := res.ANISummaries
	if base != "" {
		inBase := map[string]bool{}
		for _, r := range res.Records {
			if r.Base == base {
				inBase[r.ANI] = true
			}
		}
		scope = nil
		for _, s := range res.ANISummaries {
			if inBase[s.ANI] {
				scope = append(scope, s)
			}
		}
	}

	sim.ScopeANIs = len(scope)
	for _, s := range scope {
		if s.AnswerAgent != 0 {
			continue
		}
		sim.NoContactANIs++
		if s.TotalAttempts > maxAttempts {
			sim.Cut = append(sim.Cut, s)
		}
	}
	sim.CutANIs = len(sim.Cut)
	sim.KeptANIs = sim.ScopeANIs - sim.CutANIs
	sim.PctOfNoContact = aggregator.Pct(sim.CutANIs, sim.NoContactANIs)
	sim.PctKept = 100
	if sim.ScopeANIs > 0 {
		sim.PctKept = aggregator.Pct(sim.KeptANIs, sim.ScopeANIs)
	}
	return sim
}

// ValueCount is how many ANIs have exactly Value attempts of a category.
type ValueCount struct {
	Value int `json:"value"`
	Count int `json:"count"`
}

// ThresholdRow is how many ANIs reach a threshold.
type ThresholdRow struct {
	Threshold int     `json:"threshold"`
	Count     int     `json:"count"`
	Pct       float64 `json:"pct"`
}

// CategoryThresholds describes how one category's attempts spread across ANIs.
type CategoryThresholds struct {
	Category     string         `json:"category"`
	TotalANIs    int            `json:"total_anis"`
	Distribution []ValueCount   `json:"distribution"`
	AtLeast      []ThresholdRow `json:"at_least"`
}

// ThresholdTable counts, for each threshold t, the ANIs with at least t attempts of cat.
func ThresholdTable(summaries []types.ANISummary, cat types.Category) CategoryThresholds {
	ct := CategoryThresholds{Category: cat.String(), TotalANIs: len(summaries)}

	byValue := map[int]int{}
	for _, s := range summaries {
		byValue[s.Get(cat)]++
	}
	for v, n := range byValue {
		ct.Distribution = append(ct.Distribution, ValueCount{Value: v, Count: n})
	}
	sort.Slice(ct.Distribution, func(i, j int) bool { return ct.Distribution[i].Value < ct.Distribution[j].Value })

	for _, t := range Thresholds {
		n := 0
		for _, s := range summaries {
			if s.Get(cat) >= t {
				n++
			}
		}
		ct.AtLeast = append(ct.AtLeast, ThresholdRow{Threshold: t, Count: n, Pct: aggregator.Pct(n, len(summaries))})
	}
	return ct
}

// ThresholdCategories are the categories reported by ThresholdTables.
var ThresholdCategories = []types.Category{
	types.CategoryUnallocated,
	types.CategoryAnsweringMachine,
	types.CategoryNoAnswer,
	types.CategoryRejected,
	types.CategoryBusy,
	types.CategoryAnswerAgent,
}

// ThresholdTables builds a ThresholdTable for every category.
func ThresholdTables(summaries []types.ANISummary) []CategoryThresholds {
	out := make([]CategoryThresholds, 0, len(ThresholdCategories))
	for _, c := range ThresholdCategories {
		out = append(out, ThresholdTable(summaries, c))
	}
	return out
}

// ContactThresholds turns the contact curve into a cumulative table: the ANIs
// first reached by an agent on attempt t or earlier, as a share of all reached ANIs.
func ContactThresholds(curve []types.ContactPoint) []ThresholdRow {
	total := 0
	for _, p := range curve {
		total += p.Count
	}
	out := make([]ThresholdRow, 0, len(Thresholds))
	for _, t := range Thresholds {
		n := 0
		for _, p := range curve {
			if p.Attempt <= t {
				n += p.Count
			}
		}
		out = append(out, ThresholdRow{Threshold: t, Count: n, Pct: aggregator.Pct(n, total)})
	}
	return out
}
