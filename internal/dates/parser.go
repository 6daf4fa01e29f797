// Package dates turns the heterogeneous timestamp cells of dialer exports into instants.
package dates

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// serialFloor rejects small numbers that are not date-like (≈ 1954-10-03).
	serialFloor = 20000
	// serialCeil is 9999-12-31; larger numbers such as YYYYMMDD strings are not serials.
	serialCeil = 2958466
	// unixEpochSerial is the spreadsheet serial of 1970-01-01.
	unixEpochSerial = 25569
)

var (
	decimalRe   = regexp.MustCompile(`^\d+(\.\d+)?$`)
	eightDigits = regexp.MustCompile(`^\d{8}$`)
)

// isoLayouts are year-first layouts only, so day/month order is never guessed.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// Parser converts scalar cell values into instants in Location.
type Parser struct {
	Location *time.Location
}

// New returns a Parser for loc; nil means UTC.
func New(loc *time.Location) Parser {
	if loc == nil {
		loc = time.UTC
	}
	return Parser{Location: loc}
}

func (p Parser) loc() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

type rule struct {
	name  string
	parse func(p Parser, v any) (time.Time, bool)
}

// rules is evaluated in order; the first rule that yields an instant wins.
var rules = []rule{
	{"serial", parseSerialValue},
	{"numeric-string", parseNumericString},
	{"yyyymmdd", parseCompactDate},
	{"iso", parseISO},
	{"day-month-year", parseDayMonthYear},
}

// Parse returns the instant for v, or false when v is not a recognizable date.
// It never fails loudly: unparseable input is a normal outcome.
func (p Parser) Parse(v any) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	for _, r := range rules {
		if t, ok := r.parse(p, v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// Rule reports which rule recognizes v, or "" when none does.
func (p Parser) Rule(v any) string {
	if v == nil {
		return ""
	}
	for _, r := range rules {
		if _, ok := r.parse(p, v); ok {
			return r.name
		}
	}
	return ""
}

// FromSerial converts a spreadsheet day serial to a wall-clock time in the parser location.
func (p Parser) FromSerial(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial <= serialFloor || serial >= serialCeil {
		return time.Time{}, false
	}
	ms := math.Round((serial - unixEpochSerial) * 86400 * 1000)
	u := time.UnixMilli(int64(ms)).UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), p.loc()), true
}

func parseSerialValue(p Parser, v any) (time.Time, bool) {
	f, ok := toFloat(v)
	if !ok {
		return time.Time{}, false
	}
	return p.FromSerial(f)
}

func parseNumericString(p Parser, v any) (time.Time, bool) {
	s, ok := trimmed(v)
	if !ok || !decimalRe.MatchString(s) {
		return time.Time{}, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, false
	}
	return p.FromSerial(f)
}

func parseCompactDate(p Parser, v any) (time.Time, bool) {
	s, ok := trimmed(v)
	if !ok || !eightDigits.MatchString(s) {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(s[0:4])
	month, _ := strconv.Atoi(s[4:6])
	day, _ := strconv.Atoi(s[6:8])
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, p.loc()), true
}

func parseISO(p Parser, v any) (time.Time, bool) {
	s, ok := trimmed(v)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, p.loc()); err == nil {
			return t.In(p.loc()), true
		}
	}
	return time.Time{}, false
}

// parseDayMonthYear handles "DD-MM-YYYY HH:mm:ss" and "DD/MM/YYYY HH:mm:ss".
func parseDayMonthYear(p Parser, v any) (time.Time, bool) {
	s, ok := trimmed(v)
	if !ok {
		return time.Time{}, false
	}
	parts := strings.Split(s, " ")
	datePart := parts[0]
	timePart := ""
	if len(parts) > 1 {
		timePart = parts[1]
	}

	var sep string
	switch {
	case strings.Contains(datePart, "-"):
		sep = "-"
	case strings.Contains(datePart, "/"):
		sep = "/"
	default:
		return time.Time{}, false
	}
	dmy := strings.Split(datePart, sep)
	if len(dmy) < 3 {
		return time.Time{}, false
	}

	comps := make([]float64, 6)
	for i := 0; i < 3; i++ {
		f, ok := finite(dmy[i])
		if !ok {
			return time.Time{}, false
		}
		comps[i] = f
	}
	if timePart != "" {
		hms := strings.Split(timePart, ":")
		for i := 0; i < 3 && i < len(hms); i++ {
			// an empty time component reads as zero
			if strings.TrimSpace(hms[i]) == "" {
				continue
			}
			f, ok := finite(hms[i])
			if !ok {
				return time.Time{}, false
			}
			comps[3+i] = f
		}
	}

	day, month, year := int(comps[0]), int(comps[1]), int(comps[2])
	hour, minute, sec := int(comps[3]), int(comps[4]), int(comps[5])
	return time.Date(year, time.Month(month), day, hour, minute, sec, 0, p.loc()), true
}

func finite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func trimmed(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
