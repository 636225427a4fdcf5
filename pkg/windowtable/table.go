// Package windowtable reads isolation windows from delimited text, such as
// a block of cells copied from a spreadsheet.
//
// Columns are positional: start, end, then target when targets are used,
// then the start margin and end margin when the margin mode calls for them.
// Blank cells are missing values. After reading, rows are sorted by start, a
// missing end is taken from the next row's start, and a trailing row with
// no end is dropped. Missing targets become the window center.
package windowtable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/iwvelando/isolation-scheme/pkg/isolation"
	"github.com/iwvelando/isolation-scheme/pkg/mathutil"
)

// Layout describes which columns the text contains.
type Layout struct {
	RequireTarget bool
	MarginMode    isolation.MarginMode
	// Delimiter separates cells. Zero means tab.
	Delimiter rune
}

// ParseError reports a cell that could not be read.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("line %d: an invalid number (%q) was specified for %s", e.Line, truncate(e.Value, 20), e.Column)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type column struct {
	field isolation.Field
	set   func(r *isolation.Row, v float64)
}

func (l Layout) columns() []column {
	cols := []column{
		{isolation.FieldStart, func(r *isolation.Row, v float64) { r.Start = isolation.Float(v) }},
		{isolation.FieldEnd, func(r *isolation.Row, v float64) { r.End = isolation.Float(v) }},
	}
	if l.RequireTarget {
		cols = append(cols, column{isolation.FieldTarget, func(r *isolation.Row, v float64) { r.Target = isolation.Float(v) }})
	}
	if l.MarginMode != isolation.MarginNone {
		cols = append(cols, column{isolation.FieldStartMargin, func(r *isolation.Row, v float64) { r.StartMargin = isolation.Float(v) }})
	}
	if l.MarginMode == isolation.MarginAsymmetric {
		cols = append(cols, column{isolation.FieldEndMargin, func(r *isolation.Row, v float64) { r.EndMargin = isolation.Float(v) }})
	}
	return cols
}

// Parse reads window rows from r.
func Parse(r io.Reader, layout Layout) ([]isolation.Row, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	if layout.Delimiter != 0 {
		reader.Comma = layout.Delimiter
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	cols := layout.columns()
	var rows []isolation.Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read window table: %w", err)
		}
		line, _ := reader.FieldPos(0)

		row, err := parseRecord(record, cols, layout.MarginMode, line)
		if err != nil {
			return nil, err
		}
		if row != (isolation.Row{}) {
			rows = append(rows, row)
		}
	}

	return Complete(rows, layout.RequireTarget), nil
}

func parseRecord(record []string, cols []column, mode isolation.MarginMode, line int) (isolation.Row, error) {
	var row isolation.Row
	for i, col := range cols {
		if i >= len(record) {
			break
		}
		cell := strings.TrimSpace(record[i])
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return row, &ParseError{Line: line, Column: col.field.Header(mode), Value: cell, Err: err}
		}
		col.set(&row, v)
	}

	if err := checkRange(row.Start, "start"); err != nil {
		return row, &ParseError{Line: line, Column: isolation.FieldStart.Header(mode), Err: err}
	}
	if err := checkRange(row.End, "end"); err != nil {
		return row, &ParseError{Line: line, Column: isolation.FieldEnd.Header(mode), Err: err}
	}
	if row.StartMargin != nil && *row.StartMargin < 0 {
		return row, &ParseError{Line: line, Column: isolation.FieldStartMargin.Header(mode),
			Err: fmt.Errorf("margin must be non-negative")}
	}
	if row.EndMargin != nil && *row.EndMargin < 0 {
		return row, &ParseError{Line: line, Column: isolation.FieldEndMargin.Header(mode),
			Err: fmt.Errorf("margin must be non-negative")}
	}
	return row, nil
}

func checkRange(v *float64, name string) error {
	if v == nil {
		return nil
	}
	if *v < isolation.MinMeasurableMz || *v > isolation.MaxMeasurableMz {
		return fmt.Errorf("isolation window %s must be between %v and %v",
			name, isolation.MinMeasurableMz, isolation.MaxMeasurableMz)
	}
	return nil
}

// Complete sorts rows by start and fills the gaps a pasted block of starts
// leaves: each missing end takes the next row's start and a final row
// without an end is dropped. When targets are required, missing targets are
// set to the window center rounded to four decimals. rows is not modified.
func Complete(rows []isolation.Row, requireTarget bool) []isolation.Row {
	out := append([]isolation.Row(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start == nil || out[j].Start == nil {
			return out[j].Start == nil && out[i].Start != nil
		}
		return *out[i].Start < *out[j].Start
	})

	for i := 0; i < len(out)-1; i++ {
		if out[i].End == nil && out[i+1].Start != nil {
			out[i].End = isolation.Float(*out[i+1].Start)
		}
	}

	if len(out) > 1 && out[len(out)-1].End == nil {
		out = out[:len(out)-1]
	}

	if requireTarget {
		for i := range out {
			if out[i].Target == nil && out[i].Start != nil && out[i].End != nil {
				out[i].Target = isolation.Float(mathutil.Midpoint(*out[i].Start, *out[i].End))
			}
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
