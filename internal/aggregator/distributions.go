package aggregator

import (
	"sort"
	"strings"

	"dialer-insights-go/internal/prefix"
	"dialer-insights-go/internal/types"
)

const (
	NoState = "NO_STATE"

	ShiftMorning   = "Morning"
	ShiftAfternoon = "Afternoon"
	// afternoonFrom is the first hour of the afternoon shift.
	afternoonFrom = 14

	RangeMorning    = "09:00-12:00"
	RangeMidday     = "12:00-15:00"
	RangeAfternoon  = "15:00-18:00"
	RangeOutOfRange = "Out of range"
	RangeNoTime     = "No time"

	PrefixTopN   = 20
	AttemptsTopN = 10
)

// Pct returns part as a percentage of total, 0 when total is 0.
func Pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}

// StateDistribution counts records per uppercased state.
func StateDistribution(records []types.CanonicalRecord) map[string]int {
	out := map[string]int{}
	for _, r := range records {
		st := strings.ToUpper(r.State)
		if st == "" {
			st = NoState
		}
		out[st]++
	}
	return out
}

// TagDistribution counts ANIs per tag.
func TagDistribution(summaries []types.ANISummary) map[types.Tag]int {
	out := map[types.Tag]int{}
	for _, s := range summaries {
		out[s.Tag]++
	}
	return out
}

type outcomeCounter struct {
	m map[string]types.OutcomeBucket
}

func (b *outcomeCounter) add(bucket, state string) {
	ob := b.m[bucket]
	ob.Total++
	switch NormalizeState(state) {
	case "answer":
		ob.Answer++
	case "noanswer":
		ob.NoAnswer++
	}
	b.m[bucket] = ob
}

// Shift returns the shift of a record. Records without a timestamp fall in the morning.
func Shift(r types.CanonicalRecord) string {
	if r.Timestamp == nil || r.Timestamp.Hour() < afternoonFrom {
		return ShiftMorning
	}
	return ShiftAfternoon
}

// ShiftDistribution splits records into morning and afternoon. Both buckets
// are always present.
func ShiftDistribution(records []types.CanonicalRecord) map[string]types.OutcomeBucket {
	c := outcomeCounter{m: map[string]types.OutcomeBucket{
		ShiftMorning:   {},
		ShiftAfternoon: {},
	}}
	for _, r := range records {
		c.add(Shift(r), r.State)
	}
	return c.m
}

// TimeRange returns the three-hour calling window of a record.
func TimeRange(r types.CanonicalRecord) string {
	if r.Timestamp == nil {
		return RangeNoTime
	}
	switch h := r.Timestamp.Hour(); {
	case h >= 9 && h < 12:
		return RangeMorning
	case h >= 12 && h < 15:
		return RangeMidday
	case h >= 15 && h < 18:
		return RangeAfternoon
	default:
		return RangeOutOfRange
	}
}

// TimeRangeDistribution buckets records by calling window. Only observed
// windows appear in the result.
func TimeRangeDistribution(records []types.CanonicalRecord) map[string]types.OutcomeBucket {
	c := outcomeCounter{m: map[string]types.OutcomeBucket{}}
	for _, r := range records {
		c.add(TimeRange(r), r.State)
	}
	return c.m
}

func rankPrefixes(counts map[string]int, total int, catalog *prefix.Catalog) []types.PrefixCount {
	out := make([]types.PrefixCount, 0, len(counts))
	for p, n := range counts {
		area, _ := catalog.Lookup(p)
		out = append(out, types.PrefixCount{Prefix: p, Area: area, Total: n, Pct: Pct(n, total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Prefix < out[j].Prefix
	})
	if len(out) > PrefixTopN {
		out = out[:PrefixTopN]
	}
	return out
}

// PrefixDistribution ranks area codes over all records. Percentages are of
// the record count. catalog may be nil.
func PrefixDistribution(records []types.CanonicalRecord, catalog *prefix.Catalog) []types.PrefixCount {
	counts := map[string]int{}
	for _, r := range records {
		counts[prefix.Extract(r.ANI)]++
	}
	return rankPrefixes(counts, len(records), catalog)
}

// AnsweredPrefixDistribution ranks area codes over answered records only.
func AnsweredPrefixDistribution(records []types.CanonicalRecord, catalog *prefix.Catalog) []types.PrefixCount {
	counts := map[string]int{}
	answered := 0
	for _, r := range records {
		if !IsAnswer(r.State) {
			continue
		}
		answered++
		counts[prefix.Extract(r.ANI)]++
	}
	return rankPrefixes(counts, answered, catalog)
}

// PrefixByHour returns the dominant area code of every hour that has timed
// records, ascending by hour. Ties go to the smallest code.
func PrefixByHour(records []types.CanonicalRecord) []types.PrefixHour {
	byHour := map[int]map[string]int{}
	for _, r := range records {
		if r.Timestamp == nil {
			continue
		}
		h := r.Timestamp.Hour()
		if byHour[h] == nil {
			byHour[h] = map[string]int{}
		}
		byHour[h][prefix.Extract(r.ANI)]++
	}

	out := make([]types.PrefixHour, 0, len(byHour))
	for h, counts := range byHour {
		top := types.PrefixHour{Hour: h}
		for p, n := range counts {
			if n > top.Total || (n == top.Total && p < top.Prefix) {
				top.Prefix, top.Total = p, n
			}
		}
		out = append(out, top)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out
}

// ContactCurve counts ANIs by the attempt on which an agent first answered.
func ContactCurve(groups []Group) []types.ContactPoint {
	counts := map[int]int{}
	for _, g := range groups {
		if n := FirstContactAttempt(g); n > 0 {
			counts[n]++
		}
	}
	out := make([]types.ContactPoint, 0, len(counts))
	for attempt, n := range counts {
		out = append(out, types.ContactPoint{Attempt: attempt, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Attempt < out[j].Attempt })
	return out
}

// AttemptsHistogram counts ANIs per total attempts, keeping the ten lowest values.
func AttemptsHistogram(summaries []types.ANISummary) []types.AttemptsBucket {
	counts := map[int]int{}
	for _, s := range summaries {
		counts[s.TotalAttempts]++
	}
	out := make([]types.AttemptsBucket, 0, len(counts))
	for attempts, n := range counts {
		out = append(out, types.AttemptsBucket{Attempts: attempts, Count: n, Pct: Pct(n, len(summaries))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Attempts < out[j].Attempts })
	if len(out) > AttemptsTopN {
		out = out[:AttemptsTopN]
	}
	return out
}
