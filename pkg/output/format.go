// Package output provides utilities for formatting and displaying isolation
// schemes.
package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/iwvelando/isolation-scheme/internal/config"
	"github.com/iwvelando/isolation-scheme/internal/scheme"
	"github.com/iwvelando/isolation-scheme/pkg/format"
	"github.com/iwvelando/isolation-scheme/pkg/isolation"
	"github.com/iwvelando/isolation-scheme/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5A50A"))
)

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(results []scheme.Result) {
	fmt.Print(PrettyString(results))
}

// PrettyString renders each scheme as a table of its windows.
func PrettyString(results []scheme.Result) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder
	for i, result := range results {
		b.WriteString(titleStyle.Render(fmt.Sprintf("--- Isolation scheme %s ---", result.Name)))
		b.WriteString("\n")
		b.WriteString(summary(p, result))
		b.WriteString("\n")

		if !result.Scheme.FromResults() {
			b.WriteString(windowTable(result))
			b.WriteString("\n")
		}
		for _, warning := range result.Warnings {
			b.WriteString(warnStyle.Render("Warning: " + warning))
			b.WriteString("\n")
		}
		if len(results) > 1 && i < len(results)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func summary(p *message.Printer, result scheme.Result) string {
	s := result.Scheme
	parts := []string{
		"Source: " + result.Source,
		"Special handling: " + s.SpecialHandling.Deconvolution(),
	}
	if s.WindowsPerScan != nil {
		parts = append(parts, p.Sprintf("Windows per scan: %d", *s.WindowsPerScan))
	}

	if s.FromResults() {
		if s.PrecursorRightFilter != nil {
			parts = append(parts, fmt.Sprintf("Precursor filter: %s left, %s right m/z (%s total)",
				format.Compact(*s.PrecursorFilter), format.Compact(*s.PrecursorRightFilter),
				format.Compact(isolation.JoinFilter(*s.PrecursorFilter, s.PrecursorRightFilter))))
		} else {
			parts = append(parts, fmt.Sprintf("Precursor filter: %s m/z", format.Compact(*s.PrecursorFilter)))
		}
		return strings.Join(parts, " | ")
	}

	var covered float64
	for _, w := range s.Windows {
		covered += w.Width()
	}
	parts = append(parts,
		p.Sprintf("Windows: %d", len(s.Windows)),
		p.Sprintf("Width covered: %.2f m/z", covered),
	)
	return strings.Join(parts, " | ")
}

// columns returns the grid headers and the values of each column for a
// result, in grid order.
func columns(result scheme.Result) ([]string, [][]*float64) {
	vis := result.Visibility()
	windows := result.Scheme.Windows

	headers := []string{
		isolation.FieldStart.Header(result.MarginMode),
		isolation.FieldEnd.Header(result.MarginMode),
	}
	starts := make([]*float64, len(windows))
	ends := make([]*float64, len(windows))
	for i := range windows {
		starts[i] = isolation.Float(windows[i].Start)
		ends[i] = isolation.Float(windows[i].End)
	}
	values := [][]*float64{starts, ends}

	optional := func(header string, get func(w isolation.Window) *float64) {
		col := make([]*float64, len(windows))
		for i := range windows {
			col[i] = get(windows[i])
		}
		headers = append(headers, header)
		values = append(values, col)
	}
	if vis.Target {
		optional(isolation.FieldTarget.Header(result.MarginMode), func(w isolation.Window) *float64 { return w.Target })
	}
	if vis.StartMargin {
		optional(vis.StartHeader, func(w isolation.Window) *float64 { return w.StartMargin })
	}
	if vis.EndMargin {
		optional(isolation.FieldEndMargin.Header(result.MarginMode), func(w isolation.Window) *float64 { return w.EndMargin })
	}
	return headers, values
}

// formatColumns formats every column with the decimals its values need.
func formatColumns(values [][]*float64, rows int) [][]string {
	out := make([][]string, rows)
	for i := range out {
		out[i] = make([]string, len(values))
	}
	for c, col := range values {
		var present []float64
		for _, v := range col {
			if v != nil {
				present = append(present, *v)
			}
		}
		places := format.DecimalPlaces(present)
		for r, v := range col {
			out[r][c] = format.OptionalMz(v, places)
		}
	}
	return out
}

func windowTable(result scheme.Result) string {
	headers, values := columns(result)
	rows := formatColumns(values, len(result.Scheme.Windows))

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(results []scheme.Result) error {
	return WriteCSV(os.Stdout, results)
}

// CsvString returns one row per window of every scheme. Schemes that take
// their widths from results have a single row with the precursor filters
// and no bounds.
func CsvString(results []scheme.Result) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, results); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteCSV writes the CsvString rows to out.
func WriteCSV(out io.Writer, results []scheme.Result) error {
	w := csv.NewWriter(out)
	// csv.Writer keeps the first write error and reports it from Error.
	_ = w.Write([]string{"scheme", "special handling", "windows per scan", "start", "end", "target",
		"start margin", "end margin", "precursor filter", "precursor right filter"})

	for _, result := range results {
		s := result.Scheme
		perScan := ""
		if s.WindowsPerScan != nil {
			perScan = strconv.Itoa(*s.WindowsPerScan)
		}
		lead := []string{result.Name, s.SpecialHandling.String(), perScan}

		if s.FromResults() {
			_ = w.Write(append(lead, "", "", "", "", "",
				compactOptional(s.PrecursorFilter), compactOptional(s.PrecursorRightFilter)))
			continue
		}

		rows := formatColumns(fullColumns(result), len(s.Windows))
		for _, row := range rows {
			_ = w.Write(append(append(lead[:3:3], row...), "", ""))
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// fullColumns returns start, end, target and both margins, including the
// symmetric end margin so every CSV row has the same columns.
func fullColumns(result scheme.Result) [][]*float64 {
	windows := result.Scheme.Windows
	values := make([][]*float64, 5)
	for i := range values {
		values[i] = make([]*float64, len(windows))
	}
	for i, w := range windows {
		values[0][i] = isolation.Float(w.Start)
		values[1][i] = isolation.Float(w.End)
		values[2][i] = w.Target
		if result.MarginMode != isolation.MarginNone {
			start, end := w.Margins(result.MarginMode)
			values[3][i] = isolation.Float(start)
			values[4][i] = isolation.Float(end)
		}
	}
	return values
}

func compactOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return format.Compact(*v)
}

// YAMLFormat outputs the schemes in configuration form.
func YAMLFormat(results []scheme.Result) error {
	out, err := YAMLString(results)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// YAMLString renders the schemes as a configuration document that can be
// loaded again. Values are rounded to display precision.
func YAMLString(results []scheme.Result) (string, error) {
	doc := struct {
		Schemes []config.Scheme `yaml:"schemes"`
	}{}
	for _, result := range results {
		doc.Schemes = append(doc.Schemes, config.FromScheme(rounded(result.Scheme)))
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal schemes: %w", err)
	}
	return string(out), nil
}

func rounded(s isolation.Scheme) isolation.Scheme {
	round := func(v *float64) *float64 {
		if v == nil {
			return nil
		}
		return isolation.Float(mathutil.RoundMz(*v))
	}
	out := s
	out.Windows = make([]isolation.Window, len(s.Windows))
	for i, w := range s.Windows {
		out.Windows[i] = isolation.Window{
			Start:       mathutil.RoundMz(w.Start),
			End:         mathutil.RoundMz(w.End),
			Target:      round(w.Target),
			StartMargin: round(w.StartMargin),
			EndMargin:   round(w.EndMargin),
		}
	}
	return out
}
