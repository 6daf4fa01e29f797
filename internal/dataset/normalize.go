package dataset

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"dialer-insights-go/internal/columns"
	"dialer-insights-go/internal/dates"
	"dialer-insights-go/internal/types"
)

// leadingFloat matches the numeric prefix of a cell such as "35 seg".
var leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// Normalizer turns raw rows into canonical records using one column mapping.
type Normalizer struct {
	Mapping columns.Mapping
	Parser  dates.Parser
}

// NewNormalizer resolves the column mapping from the first row's columns, taken
// in sorted order. Of two headers that normalize to the same key, the one that
// sorts first wins.
func NewNormalizer(rows []types.RawRow, parser dates.Parser) Normalizer {
	var cols []string
	if len(rows) > 0 {
		cols = Columns(rows[0])
	}
	return Normalizer{Mapping: columns.Resolve(cols), Parser: parser}
}

// Columns returns the row's column names sorted.
func Columns(row types.RawRow) []string {
	cols := make([]string, 0, len(row))
	for k := range row {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Normalize converts one row. Missing or malformed fields never fail the row.
func (n Normalizer) Normalize(row types.RawRow) types.CanonicalRecord {
	rec := types.CanonicalRecord{
		State:      Text(row[n.Mapping.State]),
		SubState:   Text(row[n.Mapping.SubState]),
		ANI:        strings.TrimSpace(Text(row[n.Mapping.ANI])),
		Base:       Text(row[n.Mapping.Base]),
		Direction:  firstText(row, columns.DirectionColumns),
		Connection: firstText(row, columns.ConnectionColumns),
		End:        firstText(row, columns.EndColumns),
	}

	rawTime := row[n.Mapping.Timestamp]
	if t, ok := n.Parser.Parse(rawTime); ok {
		rec.Timestamp = &t
	} else {
		rec.TimestampRaw = Text(rawTime)
	}

	if d, ok := Duration(row[n.Mapping.Duration]); ok {
		rec.DurationSeconds = &d
	}
	return rec
}

// NormalizeAll converts every row, preserving order.
func (n Normalizer) NormalizeAll(rows []types.RawRow) []types.CanonicalRecord {
	out := make([]types.CanonicalRecord, len(rows))
	for i, row := range rows {
		out[i] = n.Normalize(row)
	}
	return out
}

// Text renders a cell as a string; nil becomes "".
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	}
	return ""
}

// Duration reads the leading number of a cell. Zero, negative and
// non-numeric values are treated as missing.
func Duration(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		m := leadingFloat.FindString(strings.TrimSpace(x))
		if m == "" {
			return 0, false
		}
		var err error
		if f, err = strconv.ParseFloat(m, 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	return f, true
}

func firstText(row types.RawRow, cols []string) string {
	for _, c := range cols {
		if s := Text(row[c]); s != "" {
			return s
		}
	}
	return ""
}
