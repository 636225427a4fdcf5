// Package scheme builds isolation schemes from configuration by running the
// generator and validator over each entry.
package scheme

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iwvelando/isolation-scheme/internal/config"
	"github.com/iwvelando/isolation-scheme/pkg/constants"
	"github.com/iwvelando/isolation-scheme/pkg/isolation"
	"github.com/iwvelando/isolation-scheme/pkg/windowtable"
	"go.uber.org/zap"
)

// Result holds a built scheme along with the grid layout it uses.
type Result struct {
	Name          string
	Source        string
	Scheme        isolation.Scheme
	MarginMode    isolation.MarginMode
	RequireTarget bool
	Warnings      []string
}

// Visibility returns the grid columns that apply to the result.
func (r Result) Visibility() isolation.Visibility {
	return isolation.ColumnVisibility(r.MarginMode, r.RequireTarget, r.Scheme.SpecialHandling)
}

// RowError reports an incomplete window row.
type RowError struct {
	Scheme string
	Row    int
	Field  isolation.Field
	Header string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("scheme '%s' window %d: specify %s for isolation window", e.Scheme, e.Row+1, e.Header)
}

// BuildSchemes builds every generation and hand-entered scheme in conf.
// Scheme names must be unique across both lists.
func BuildSchemes(logger *zap.Logger, conf config.Configuration) ([]Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var results []Result
	for i, gen := range conf.Generations {
		result, err := BuildGeneration(logger, gen, i)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}

	for i, entry := range conf.Schemes {
		result, err := BuildScheme(logger, entry, i, conf.ResolvePath)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}

	names := make([]string, len(results))
	for i, result := range results {
		names[i] = result.Name
	}
	if err := isolation.ValidateSchemeNames(names); err != nil {
		return results, err
	}

	logger.Debug(fmt.Sprintf("built %d isolation schemes", len(results)),
		zap.String("op", "scheme.BuildSchemes"),
	)
	return results, nil
}

// BuildGeneration validates the generation parameters and generates the
// scheme's windows.
func BuildGeneration(logger *zap.Logger, gen config.Generation, index int) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	name := gen.DisplayName(index)

	params, err := gen.ToGenerationParameters()
	if err != nil {
		return Result{}, fmt.Errorf("generation '%s': %w", name, err)
	}
	if err := params.Validate(); err != nil {
		return Result{}, fmt.Errorf("generation '%s': %w", name, err)
	}
	handling, err := gen.Handling()
	if err != nil {
		return Result{}, fmt.Errorf("generation '%s': %w", name, err)
	}

	windows := isolation.Generate(params)
	s := isolation.Scheme{
		Name:            name,
		Windows:         windows,
		SpecialHandling: handling,
	}
	if handling.IsMultiplexed() {
		s.WindowsPerScan = isolation.Int(params.WindowsPerScan)
	}

	mode, requireTarget := isolation.InferLayout(windows)
	if len(windows) == 0 {
		mode, requireTarget = params.MarginMode, params.GenerateTarget
	}
	if err := isolation.ValidateScheme(s, isolation.ValidationOptions{RequireTarget: requireTarget}); err != nil {
		return Result{}, fmt.Errorf("generation '%s': %w", name, err)
	}

	logger.Debug(fmt.Sprintf("generated %d windows for %s", len(windows), name),
		zap.String("op", "scheme.BuildGeneration"),
		zap.Float64("start", params.Start),
		zap.Float64("end", params.End),
		zap.Float64("windowWidth", params.WindowWidth),
	)

	return Result{
		Name:          name,
		Source:        constants.SourceGenerated,
		Scheme:        s,
		MarginMode:    mode,
		RequireTarget: requireTarget,
		Warnings:      params.Warnings(),
	}, nil
}

// Entry is a hand-entered scheme with its rows collected.
type Entry struct {
	Name                 string
	Layout               config.Layout
	Rows                 []isolation.Row
	WindowsPerScan       *int
	PrecursorFilter      *float64
	PrecursorRightFilter *float64
}

// BuildScheme collects the inline and file rows of a hand-entered scheme
// and validates it with BuildEntry. resolve maps window file paths and may
// be nil.
func BuildScheme(logger *zap.Logger, entry config.Scheme, index int, resolve func(string) string) (Result, error) {
	name := entry.DisplayName(index)

	layout, err := entry.Layout()
	if err != nil {
		return Result{}, fmt.Errorf("scheme '%s': %w", name, err)
	}

	rows := entry.ToRows()
	if entry.WindowsFile != "" {
		path := entry.WindowsFile
		if resolve != nil {
			path = resolve(path)
		}
		fileRows, err := LoadWindowFile(path, layout)
		if err != nil {
			return Result{}, fmt.Errorf("scheme '%s': %w", name, err)
		}
		rows = append(rows, fileRows...)
	}

	return BuildEntry(logger, Entry{
		Name:                 name,
		Layout:               layout,
		Rows:                 rows,
		WindowsPerScan:       entry.WindowsPerScan,
		PrecursorFilter:      entry.PrecursorFilter,
		PrecursorRightFilter: entry.PrecursorRightFilter,
	})
}

// BuildEntry validates a hand-entered scheme. Windows entered in isolation
// view are converted to extraction view. A scheme without rows but with a
// precursor filter takes its isolation widths from results.
func BuildEntry(logger *zap.Logger, e Entry) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	layout := e.Layout

	s := isolation.Scheme{
		Name:            e.Name,
		SpecialHandling: layout.SpecialHandling,
	}
	if len(e.Rows) == 0 && e.PrecursorFilter != nil {
		s = isolation.NewResultsScheme(e.Name, layout.SpecialHandling, *e.PrecursorFilter, e.PrecursorRightFilter)
	}
	if layout.SpecialHandling.IsMultiplexed() {
		s.WindowsPerScan = e.WindowsPerScan
	}

	if s.FromResults() {
		if err := isolation.ValidateScheme(s, isolation.ValidationOptions{}); err != nil {
			return Result{}, fmt.Errorf("scheme '%s': %w", e.Name, err)
		}
		logger.Debug(fmt.Sprintf("scheme %s uses isolation widths from results", e.Name),
			zap.String("op", "scheme.BuildEntry"),
		)
		return Result{
			Name:   e.Name,
			Source: constants.SourceResults,
			Scheme: s,
		}, nil
	}

	windows, err := WindowsFromRows(e.Name, e.Rows, layout)
	if err != nil {
		return Result{}, err
	}
	s.Windows = windows

	if err := isolation.CheckWindows(windows); err != nil {
		return Result{}, fmt.Errorf("scheme '%s': %w", e.Name, err)
	}
	if err := isolation.ValidateScheme(s, isolation.ValidationOptions{RequireTarget: layout.RequireTarget}); err != nil {
		return Result{}, fmt.Errorf("scheme '%s': %w", e.Name, err)
	}

	logger.Debug(fmt.Sprintf("validated %d windows for %s", len(windows), e.Name),
		zap.String("op", "scheme.BuildEntry"),
		zap.String("margins", layout.MarginMode.String()),
		zap.String("windowType", layout.ViewMode.String()),
	)

	return Result{
		Name:          e.Name,
		Source:        constants.SourceManual,
		Scheme:        s,
		MarginMode:    layout.MarginMode,
		RequireTarget: layout.RequireTarget,
	}, nil
}

// WindowsFromRows checks that every row is complete and converts the rows
// into extraction-view windows.
func WindowsFromRows(name string, rows []isolation.Row, layout config.Layout) ([]isolation.Window, error) {
	windows := make([]isolation.Window, 0, len(rows))
	for i, row := range rows {
		w, ok := row.Window(layout.RequireTarget, layout.MarginMode)
		if !ok {
			field := isolation.ValidateRow(row, layout.RequireTarget, layout.MarginMode)
			return nil, &RowError{Scheme: name, Row: i, Field: field, Header: field.Header(layout.MarginMode)}
		}
		windows = append(windows, w)
	}
	return isolation.NormalizeViewMode(windows, layout.ViewMode, isolation.ViewExtraction, layout.MarginMode), nil
}

// LoadWindowFile reads window rows from a tab or comma separated file. Files
// ending in .csv are comma separated.
func LoadWindowFile(path string, layout config.Layout) ([]isolation.Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open windows file %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	tableLayout := windowtable.Layout{
		RequireTarget: layout.RequireTarget,
		MarginMode:    layout.MarginMode,
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		tableLayout.Delimiter = ','
	}

	rows, err := windowtable.Parse(file, tableLayout)
	if err != nil {
		return nil, fmt.Errorf("windows file %s: %w", path, err)
	}
	return rows, nil
}
