// Package table loads CSV signal logs into an in-memory, column-oriented
// Table. Column names come verbatim from the header row and rows keep file
// order, so a row's position doubles as its time-step index.
package table

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"time"

	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/imports"

	"github.com/ekf-soc/socview/src/logging"
)

// ErrColumnNotFound is returned by Column when the header has no such name.
var ErrColumnNotFound = errors.New("column not found")

// Table is a loaded CSV file. It is never modified after Load returns.
type Table struct {
	df *dataframe.DataFrame
}

// Load reads the CSV file at path. The file must have a header row.
func Load(path string) (*Table, error) {
	defer logging.TimeTrack(time.Now(), "load "+path)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := LoadReader(context.Background(), f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	logging.Debugf("loaded %s: %d rows, columns %v", path, t.Len(), t.Columns())
	return t, nil
}

// LoadReader reads CSV from r. Column types are inferred per column:
// integers, then floats, then text. Leading spaces in a cell are ignored.
// A repeated header name is renamed name.1, name.2, ... so every column
// stays addressable.
func LoadReader(ctx context.Context, r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	body, err := uniqueHeader(raw)
	if err != nil {
		return nil, err
	}
	df, err := imports.LoadFromCSV(ctx, bytes.NewReader(body), imports.CSVLoadOptions{
		InferDataTypes:   true,
		TrimLeadingSpace: true,
		NilValue:         &emptyCell,
	})
	if err != nil {
		return nil, err
	}
	return &Table{df: df}, nil
}

var emptyCell = ""

// uniqueHeader rewrites the header row of raw with duplicate names made
// unique. The row is re-encoded so names with leading spaces survive the
// cell trimming applied to data rows.
func uniqueHeader(raw []byte) ([]byte, error) {
	cr := csv.NewReader(bytes.NewReader(raw))
	header, err := cr.Read()
	if err == io.EOF {
		return nil, dataframe.ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	names := dedupe(header)
	if !slices.Equal(names, header) {
		logging.Debugf("renamed duplicate header names: %v -> %v", header, names)
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(names); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	buf.Write(raw[cr.InputOffset():])
	return buf.Bytes(), nil
}

// dedupe suffixes repeated names with .1, .2, ... A suffixed name that is
// itself taken gets suffixed again (a, a.1, a -> a, a.1, a.1.1).
func dedupe(names []string) []string {
	out := make([]string, len(names))
	next := make(map[string]int, len(names))
	for i, name := range names {
		n := next[name]
		for n > 0 {
			next[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
			n = next[name]
		}
		out[i] = name
		next[name] = n + 1
	}
	return out
}

// Len returns the number of data rows.
func (t *Table) Len() int { return t.df.NRows() }

// Columns returns the header names in file order.
func (t *Table) Columns() []string { return t.df.Names() }

// Column selects the named column as a Series.
func (t *Table) Column(name string) (Series, error) {
	idx, err := t.df.NameToColumn(name)
	if err != nil {
		return Series{}, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return Series{name: name, s: t.df.Series[idx]}, nil
}

// Series is one column of a Table, aligned to row index.
type Series struct {
	name string
	s    dataframe.Series
}

func (s Series) Name() string { return s.name }

func (s Series) Len() int {
	if s.s == nil {
		return 0
	}
	return s.s.NRows()
}

// Type reports the inferred element type ("float64", "int64", "string", "time").
func (s Series) Type() string {
	if s.s == nil {
		return ""
	}
	return s.s.Type()
}

// Value returns the raw cell at row; nil for an empty cell.
func (s Series) Value(row int) interface{} { return s.s.Value(row) }

// Floats returns the column as numbers. Empty cells become NaN. A column
// holding text fails, since nothing coerces it.
func (s Series) Floats() ([]float64, error) {
	out := make([]float64, s.Len())
	for i := range out {
		switch v := s.s.Value(i).(type) {
		case nil:
			out[i] = math.NaN()
		case float64:
			out[i] = v
		case int64:
			out[i] = float64(v)
		default:
			return nil, fmt.Errorf("column %q row %d: non-numeric value %v (%s)", s.name, i, v, s.Type())
		}
	}
	return out, nil
}
