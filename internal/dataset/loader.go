package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"

	"dialer-insights-go/internal/logger"
	"dialer-insights-go/internal/types"
)

// ErrUnsupportedFormat is returned for files that are neither delimited text nor xlsx.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrMalformed is returned when a supported file cannot be parsed.
var ErrMalformed = errors.New("malformed file")

// Format is the on-disk encoding of a dialer export.
type Format int

const (
	FormatUnknown Format = iota
	FormatDelimited
	FormatXLSX
)

// DetectFormat picks the loader from the file extension.
func DetectFormat(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatDelimited
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatUnknown
	}
}

// Source is one named export to load.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileSource reads path from disk.
func FileSource(path string) Source {
	return Source{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// BytesSource serves an in-memory upload.
func BytesSource(name string, data []byte) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// Load reads every row of src.
func Load(src Source) ([]types.RawRow, error) {
	format := DetectFormat(src.Name)
	if format == FormatUnknown {
		return nil, eris.Wrapf(ErrUnsupportedFormat, "dataset: %s", src.Name)
	}

	rc, err := src.Open()
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", src.Name)
	}
	defer rc.Close()

	switch format {
	case FormatXLSX:
		return LoadXLSX(rc)
	default:
		return LoadDelimited(rc)
	}
}

// LoadAll reads sources concurrently and concatenates their rows in argument order.
// Unsupported files are skipped with a warning; any other failure aborts the batch.
func LoadAll(ctx context.Context, sources []Source) ([]types.RawRow, error) {
	log := logger.New().WithField("component", "dataset.loader")

	parts := make([][]types.RawRow, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows, err := Load(src)
			if errors.Is(err, ErrUnsupportedFormat) {
				log.WithField("file", src.Name).Warn("skipping unsupported file")
				return nil
			}
			if err != nil {
				return err
			}
			log.WithField("file", src.Name).WithField("rows", len(rows)).Debug("file loaded")
			parts[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]types.RawRow, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

// LoadDelimited parses a delimited export with a header row. Input that is not
// valid UTF-8 is decoded as ISO-8859-1, the encoding dialers export with.
// Blank lines are skipped and every cell is kept as a string; empty cells become nil.
func LoadDelimited(r io.Reader) ([]types.RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read delimited")
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		data, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, eris.Wrap(err, "dataset: decode latin1")
		}
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(ErrMalformed, "dataset: parse delimited: %v", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return rowsFromTable(records[0], records[1:]), nil
}

// sniffDelimiter picks the most frequent candidate on the header line.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', 0
	for _, c := range []rune{',', ';', '\t', '|'} {
		if n := bytes.Count(line, []byte(string(c))); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

// LoadXLSX reads the first sheet of a workbook. Cells are read raw so date cells
// arrive as day serials.
func LoadXLSX(r io.Reader) ([]types.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, eris.Wrapf(ErrMalformed, "dataset: open xlsx: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, eris.Wrap(ErrMalformed, "dataset: workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, eris.Wrapf(ErrMalformed, "dataset: read rows: %v", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowsFromTable(rows[0], rows[1:]), nil
}

func rowsFromTable(header []string, body [][]string) []types.RawRow {
	cols := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		// blank and repeated headers are dropped
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		cols[i] = h
	}

	out := make([]types.RawRow, 0, len(body))
	for _, rec := range body {
		if blank(rec) {
			continue
		}
		row := make(types.RawRow, len(cols))
		for i, col := range cols {
			if col == "" {
				continue
			}
			if i >= len(rec) || strings.TrimSpace(rec[i]) == "" {
				row[col] = nil
				continue
			}
			row[col] = rec[i]
		}
		out = append(out, row)
	}
	return out
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
