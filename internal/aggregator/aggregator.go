package aggregator

import (
	"sort"
	"strings"
	"unicode"

	"dialer-insights-go/internal/types"
)

// NormalizeState lower-cases s and removes every whitespace rune, so
// "No Answer" and "NOANSWER" compare equal.
func NormalizeState(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

// IsAnswer reports whether state is an ANSWER outcome.
func IsAnswer(state string) bool { return NormalizeState(state) == "answer" }

// IsNoAnswer reports whether state is a NOANSWER outcome.
func IsNoAnswer(state string) bool { return NormalizeState(state) == "noanswer" }

type categoryRule struct {
	category types.Category
	match    func(state, subState string) bool
}

// categoryRules is evaluated in order; the first match wins.
var categoryRules = []categoryRule{
	{types.CategoryAnswerAgent, func(st, sub string) bool {
		return st == "answer" && strings.Contains(sub, "agent")
	}},
	{types.CategoryAnsweringMachine, func(st, sub string) bool {
		return st == "answer" && (strings.Contains(sub, "machine") || strings.Contains(sub, "buzon"))
	}},
	{types.CategoryNoAnswer, func(st, _ string) bool { return st == "noanswer" }},
	{types.CategoryBusy, func(st, _ string) bool { return st == "busy" }},
	{types.CategoryUnallocated, func(st, _ string) bool { return st == "unallocated" }},
	{types.CategoryRejected, func(st, _ string) bool { return st == "rejected" }},
}

// Classify places one attempt in at most one category.
func Classify(state, subState string) types.Category {
	st := NormalizeState(state)
	sub := strings.ToLower(subState)
	for _, r := range categoryRules {
		if r.match(st, sub) {
			return r.category
		}
	}
	return types.CategoryNone
}

// Group is every attempt made to one ANI, in chronological order.
type Group struct {
	ANI     string
	Records []types.CanonicalRecord
}

// GroupByANI groups records by ANI in first-appearance order. Records without
// an ANI are left out. Each group is sorted chronologically.
func GroupByANI(records []types.CanonicalRecord) []Group {
	index := map[string]int{}
	var groups []Group
	for _, r := range records {
		if r.ANI == "" {
			continue
		}
		i, ok := index[r.ANI]
		if !ok {
			i = len(groups)
			index[r.ANI] = i
			groups = append(groups, Group{ANI: r.ANI})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	for i := range groups {
		SortChronologically(groups[i].Records)
	}
	return groups
}

// SortChronologically orders records by timestamp. A record without a
// timestamp compares equal to everything, keeping its relative position.
func SortChronologically(recs []types.CanonicalRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i].Timestamp, recs[j].Timestamp
		if a == nil || b == nil {
			return false
		}
		return a.Before(*b)
	})
}

// Summarize counts the attempts of g and tags the result.
func Summarize(g Group) types.ANISummary {
	s := types.ANISummary{ANI: g.ANI, TotalAttempts: len(g.Records)}
	for _, r := range g.Records {
		s.Add(Classify(r.State, r.SubState))
	}
	if n := len(g.Records); n > 0 {
		s.FirstCallAt = g.Records[0].Timestamp
		s.LastCallAt = g.Records[n-1].Timestamp
	}
	s.Tag = AssignTag(s.Counts)
	return s
}

// SummarizeAll summarizes every group, preserving group order.
func SummarizeAll(groups []Group) []types.ANISummary {
	out := make([]types.ANISummary, len(groups))
	for i, g := range groups {
		out[i] = Summarize(g)
	}
	return out
}

// FirstContactAttempt returns the 1-based index of the first agent contact in g, or 0.
func FirstContactAttempt(g Group) int {
	for i, r := range g.Records {
		if Classify(r.State, r.SubState) == types.CategoryAnswerAgent {
			return i + 1
		}
	}
	return 0
}
