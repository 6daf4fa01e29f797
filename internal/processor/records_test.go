package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dialer-insights-go/internal/types"
)

func ptr(f float64) *float64 { return &f }

func filterRecords() []types.CanonicalRecord {
	return []types.CanonicalRecord{
		{ANI: "5491123456789", State: "Answer", SubState: "Agent", Base: "Base A", DurationSeconds: ptr(120)},
		{ANI: "5491123456789", State: "NoAnswer", Base: "Base A"},
		{ANI: "3511234567", State: "No Answer", Base: "Base B"},
		{ANI: "3511234567", State: "Busy", Base: "Base B", DurationSeconds: ptr(5)},
		{ANI: "2231234567", State: "answer", SubState: "machine", Base: "Base C", DurationSeconds: ptr(30)},
	}
}

func TestApplyFilter_Empty(t *testing.T) {
	assert.Len(t, ApplyFilter(filterRecords(), types.RecordsFilter{}), 5)
}

func TestApplyFilter_StatesCaseInsensitive(t *testing.T) {
	got := ApplyFilter(filterRecords(), types.RecordsFilter{States: []string{"answer"}})
	require.Len(t, got, 2)
	assert.Equal(t, "Answer", got[0].State)
	assert.Equal(t, "answer", got[1].State)
}

func TestApplyFilter_SubStatesAndBases(t *testing.T) {
	got := ApplyFilter(filterRecords(), types.RecordsFilter{SubStates: []string{"AGENT"}})
	require.Len(t, got, 1)

	got = ApplyFilter(filterRecords(), types.RecordsFilter{Bases: []string{"Base B", "Base C"}})
	assert.Len(t, got, 3)

	// bases compare exactly
	got = ApplyFilter(filterRecords(), types.RecordsFilter{Bases: []string{"base b"}})
	assert.Empty(t, got)
}

func TestApplyFilter_ANIContains(t *testing.T) {
	got := ApplyFilter(filterRecords(), types.RecordsFilter{ANIContains: " 351 "})
	assert.Len(t, got, 2)
}

func TestApplyFilter_Duration(t *testing.T) {
	got := ApplyFilter(filterRecords(), types.RecordsFilter{DurationMin: ptr(10)})
	assert.Len(t, got, 2)

	// missing durations count as zero
	got = ApplyFilter(filterRecords(), types.RecordsFilter{DurationMax: ptr(0)})
	assert.Len(t, got, 2)

	got = ApplyFilter(filterRecords(), types.RecordsFilter{DurationMin: ptr(5), DurationMax: ptr(30)})
	assert.Len(t, got, 2)
}

func TestApplyFilter_AND(t *testing.T) {
	got := ApplyFilter(filterRecords(), types.RecordsFilter{
		States:      []string{"ANSWER", "BUSY"},
		Bases:       []string{"Base A", "Base B"},
		DurationMin: ptr(1),
	})
	assert.Len(t, got, 2)
}

func TestQueryRecords(t *testing.T) {
	page := QueryRecords(filterRecords(), types.RecordsFilter{}, 1, 2)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Answer)
	assert.Equal(t, 2, page.NoAnswer)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "NoAnswer", page.Records[0].State)
}

func TestQueryRecords_Limits(t *testing.T) {
	page := QueryRecords(filterRecords(), types.RecordsFilter{}, 0, 0)
	assert.Equal(t, DefaultQueryLimit, page.Limit)

	page = QueryRecords(filterRecords(), types.RecordsFilter{}, 0, 1_000_000)
	assert.Equal(t, MaxQueryLimit, page.Limit)

	page = QueryRecords(filterRecords(), types.RecordsFilter{}, 10, 5)
	assert.Empty(t, page.Records)
	assert.Equal(t, 5, page.Total)

	page = QueryRecords(filterRecords(), types.RecordsFilter{}, -3, 5)
	assert.Equal(t, 0, page.Offset)
	assert.Len(t, page.Records, 5)
}

func TestComputeMeta(t *testing.T) {
	meta := ComputeMeta(filterRecords())
	assert.Equal(t, []string{"ANSWER", "BUSY", "NO ANSWER", "NOANSWER"}, meta.DistinctStates)
	assert.Equal(t, []string{"AGENT", "MACHINE"}, meta.DistinctSubStates)
	assert.Equal(t, []string{"Base A", "Base B", "Base C"}, meta.DistinctBases)
	assert.Equal(t, 120.0, meta.MaxDuration)

	empty := ComputeMeta(nil)
	assert.Equal(t, float64(DefaultMaxDuration), empty.MaxDuration)
	assert.Empty(t, empty.DistinctStates)
}
