// Package export writes records and ANI summaries as csv, txt or xlsx.
package export

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"dialer-insights-go/internal/types"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTXT  Format = "txt"
	FormatXLSX Format = "xlsx"
)

// ErrUnknownFormat is returned by ParseFormat for anything but csv, txt or xlsx.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat accepts csv, txt and xlsx in any case; empty means csv.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatTXT, FormatXLSX:
		return f, nil
	}
	return "", eris.Wrapf(ErrUnknownFormat, "export: %q", s)
}

// ContentType is the HTTP media type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatTXT:
		return "text/plain; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}

// FileName appends the format extension to base.
func (f Format) FileName(base string) string {
	return base + "." + string(f)
}

// timestampLayout is re-parseable by the importer as a wall clock.
const timestampLayout = "2006-01-02 15:04:05"

// RecordRow is the export shape of a record. Headers match the import
// aliases so an exported file can be uploaded again.
type RecordRow struct {
	Timestamp  string   `csv:"Inicio"`
	State      string   `csv:"Estado"`
	SubState   string   `csv:"Sub-Estado"`
	ANI        string   `csv:"ANI"`
	Base       string   `csv:"Base"`
	Duration   *float64 `csv:"Duración"`
	Direction  string   `csv:"Dirección"`
	Connection string   `csv:"Conexión"`
	End        string   `csv:"Fin"`
}

func (r RecordRow) cells() []any {
	var dur any
	if r.Duration != nil {
		dur = *r.Duration
	}
	return []any{r.Timestamp, r.State, r.SubState, r.ANI, r.Base, dur, r.Direction, r.Connection, r.End}
}

// RecordRows converts records to their export shape.
func RecordRows(recs []types.CanonicalRecord) []RecordRow {
	out := make([]RecordRow, len(recs))
	for i, r := range recs {
		out[i] = RecordRow{
			Timestamp:  formatTime(r.Timestamp, r.TimestampRaw),
			State:      r.State,
			SubState:   r.SubState,
			ANI:        r.ANI,
			Base:       r.Base,
			Duration:   r.DurationSeconds,
			Direction:  r.Direction,
			Connection: r.Connection,
			End:        r.End,
		}
	}
	return out
}

// SummaryRow is the export shape of an ANI summary.
type SummaryRow struct {
	ANI              string `csv:"ANI"`
	TotalAttempts    int    `csv:"TotalAttempts"`
	AnswerAgent      int    `csv:"AnswerAgent"`
	AnsweringMachine int    `csv:"AnsweringMachine"`
	NoAnswer         int    `csv:"NoAnswer"`
	Busy             int    `csv:"Busy"`
	Unallocated      int    `csv:"Unallocated"`
	Rejected         int    `csv:"Rejected"`
	FirstCallAt      string `csv:"FirstCallAt"`
	LastCallAt       string `csv:"LastCallAt"`
	Tag              string `csv:"Tag"`
}

func (r SummaryRow) cells() []any {
	return []any{r.ANI, r.TotalAttempts, r.AnswerAgent, r.AnsweringMachine, r.NoAnswer,
		r.Busy, r.Unallocated, r.Rejected, r.FirstCallAt, r.LastCallAt, r.Tag}
}

// SummaryRows converts summaries to their export shape.
func SummaryRows(summaries []types.ANISummary) []SummaryRow {
	out := make([]SummaryRow, len(summaries))
	for i, s := range summaries {
		out[i] = SummaryRow{
			ANI:              s.ANI,
			TotalAttempts:    s.TotalAttempts,
			AnswerAgent:      s.AnswerAgent,
			AnsweringMachine: s.AnsweringMachine,
			NoAnswer:         s.NoAnswer,
			Busy:             s.Busy,
			Unallocated:      s.Unallocated,
			Rejected:         s.Rejected,
			FirstCallAt:      formatTime(s.FirstCallAt, ""),
			LastCallAt:       formatTime(s.LastCallAt, ""),
			Tag:              string(s.Tag),
		}
	}
	return out
}

func formatTime(t *time.Time, raw string) string {
	if t == nil {
		return raw
	}
	return t.Format(timestampLayout)
}

// WriteRecords writes recs to w in format f.
func WriteRecords(w io.Writer, recs []types.CanonicalRecord, f Format) error {
	rows := RecordRows(recs)
	if f == FormatXLSX {
		return writeXLSX(w, "Records", RecordRow{}, rows)
	}
	return writeCSV(w, RecordRow{}, rows)
}

// WriteSummaries writes summaries to w in format f.
func WriteSummaries(w io.Writer, summaries []types.ANISummary, f Format) error {
	rows := SummaryRows(summaries)
	if f == FormatXLSX {
		return writeXLSX(w, "ANISummary", SummaryRow{}, rows)
	}
	return writeCSV(w, SummaryRow{}, rows)
}

func writeCSV[T any](w io.Writer, header T, rows []T) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(header); err != nil {
		return eris.Wrap(err, "export: csv header")
	}
	if len(rows) > 0 {
		if err := enc.Encode(rows); err != nil {
			return eris.Wrap(err, "export: csv rows")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

type sheetRow interface {
	cells() []any
}

func writeXLSX[T sheetRow](w io.Writer, sheet string, header T, rows []T) error {
	cols, err := csvutil.Header(header, "csv")
	if err != nil {
		return eris.Wrap(err, "export: header")
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return eris.Wrap(err, "export: rename sheet")
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return eris.Wrap(err, "export: stream writer")
	}

	headerCells := make([]any, len(cols))
	for i, c := range cols {
		headerCells[i] = c
	}
	if err := sw.SetRow("A1", headerCells); err != nil {
		return eris.Wrap(err, "export: header row")
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return eris.Wrap(err, "export: cell name")
		}
		if err := sw.SetRow(cell, r.cells()); err != nil {
			return eris.Wrapf(err, "export: row %d", i+2)
		}
	}
	if err := sw.Flush(); err != nil {
		return eris.Wrap(err, "export: flush sheet")
	}
	if _, err := f.WriteTo(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}
