package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Serial(t *testing.T) {
	p := New(nil)

	got, ok := p.Parse(46066.5)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC), got)

	got, ok = p.Parse(25569)
	require.True(t, ok)
	assert.Equal(t, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), got)

	got, ok = p.Parse(25570)
	require.True(t, ok)
	assert.Equal(t, time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC), got)
}

func TestParse_SerialBounds(t *testing.T) {
	p := New(nil)

	for _, v := range []any{20000.0, 15000, 2, 0, -1.5, 2958466.0, "20000", "123"} {
		_, ok := p.Parse(v)
		assert.False(t, ok, "%v", v)
	}
}

func TestParse_NumericString(t *testing.T) {
	p := New(nil)

	got, ok := p.Parse(" 46066.5 ")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC), got)
	assert.Equal(t, "numeric-string", p.Rule("46066.5"))
}

func TestParse_SerialRoundsToMillisecond(t *testing.T) {
	p := New(nil)

	// 15:30 is not exactly representable as a day fraction.
	got, ok := p.Parse(46066.0 + (15.5 / 24))
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 13, 15, 30, 0, 0, time.UTC), got)
}

func TestParse_CompactDate(t *testing.T) {
	p := New(nil)

	got, ok := p.Parse("20260213")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, "yyyymmdd", p.Rule("20260213"))
}

func TestParse_ISO(t *testing.T) {
	p := New(nil)

	tests := map[string]time.Time{
		"2026-02-13T15:30:00Z":   time.Date(2026, 2, 13, 15, 30, 0, 0, time.UTC),
		"2026-02-13T15:30:00":    time.Date(2026, 2, 13, 15, 30, 0, 0, time.UTC),
		"2026-02-13 15:30:00":    time.Date(2026, 2, 13, 15, 30, 0, 0, time.UTC),
		"2026-02-13":             time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC),
		"2026/02/13 08:05:01":    time.Date(2026, 2, 13, 8, 5, 1, 0, time.UTC),
		"2026-02-13T15:30:00.5Z": time.Date(2026, 2, 13, 15, 30, 0, 500000000, time.UTC),
	}
	for in, want := range tests {
		got, ok := p.Parse(in)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), "%s: got %s", in, got)
		assert.Equal(t, "iso", p.Rule(in), in)
	}
}

func TestParse_DayMonthYear(t *testing.T) {
	p := New(nil)

	dash, ok := p.Parse("13-02-2026 15:30:00")
	require.True(t, ok)
	slash, ok := p.Parse("13/02/2026 15:30:00")
	require.True(t, ok)
	assert.Equal(t, dash, slash)
	assert.Equal(t, time.Date(2026, 2, 13, 15, 30, 0, 0, time.UTC), dash)

	got, ok := p.Parse("13/02/2026")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC), got)

	got, ok = p.Parse("13/02/2026 15:30")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 13, 15, 30, 0, 0, time.UTC), got)

	got, ok = p.Parse("13/02/2026 15:")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 13, 15, 0, 0, 0, time.UTC), got)

	// Day first, never month first.
	got, ok = p.Parse("01/02/2026")
	require.True(t, ok)
	assert.Equal(t, time.February, got.Month())
	assert.Equal(t, 1, got.Day())
	assert.Equal(t, "day-month-year", p.Rule("01/02/2026"))
}

func TestParse_Rejects(t *testing.T) {
	p := New(nil)

	for _, v := range []any{nil, "", "   ", "hello", "aa-bb-cc", "13-02", "13/xx/2026", "13/02/2026 ab:10", "13//2026 15:00", true} {
		_, ok := p.Parse(v)
		assert.False(t, ok, "%v", v)
	}
	assert.Equal(t, "", p.Rule("hello"))
}

func TestParse_Location(t *testing.T) {
	art := time.FixedZone("ART", -3*3600)
	p := New(art)

	got, ok := p.Parse(46066.5)
	require.True(t, ok)
	assert.Equal(t, 12, got.Hour())
	assert.Equal(t, art, got.Location())

	got, ok = p.Parse("13/02/2026 09:15:00")
	require.True(t, ok)
	assert.Equal(t, 9, got.Hour())
	assert.Equal(t, time.Date(2026, 2, 13, 12, 15, 0, 0, time.UTC), got.UTC())

	for _, in := range []string{"2026-02-13T15:30:00Z", "2026-02-13T15:30:00+00:00"} {
		got, ok = p.Parse(in)
		require.True(t, ok, in)
		assert.Equal(t, art, got.Location(), in)
		assert.Equal(t, 12, got.Hour(), in)
	}
}
