package scheme_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/iwvelando/isolation-scheme/internal/config"
	"github.com/iwvelando/isolation-scheme/internal/scheme"
	"github.com/iwvelando/isolation-scheme/pkg/constants"
	"github.com/iwvelando/isolation-scheme/pkg/isolation"
	"github.com/iwvelando/isolation-scheme/pkg/testutil"
	"github.com/iwvelando/isolation-scheme/pkg/windowtable"
	"go.uber.org/zap"
)

func f(v float64) *float64 { return &v }

func entry(start, end float64) config.WindowEntry {
	return config.WindowEntry{Start: f(start), End: f(end)}
}

func testdata(path string) string {
	return "testdata/" + path
}

func TestBuildGeneration(t *testing.T) {
	tests := []struct {
		name          string
		gen           config.Generation
		expectCount   int
		expectFirst   isolation.Window
		expectMode    isolation.MarginMode
		expectTarget  bool
		expectPerScan int
	}{
		{
			name:        "Plain tiling",
			gen:         config.Generation{Name: "plain", Start: 100, End: 200, WindowWidth: 25},
			expectCount: 4,
			expectFirst: isolation.Window{Start: 100, End: 125},
		},
		{
			name: "Symmetric margins with targets",
			gen: config.Generation{Name: "targets", Start: 100, End: 200, WindowWidth: 50,
				Margins: "symmetric", MarginLeft: 1, GenerateTarget: true},
			expectCount:  2,
			expectFirst:  isolation.Window{Start: 100, End: 150, Target: f(125), StartMargin: f(1)},
			expectMode:   isolation.MarginSymmetric,
			expectTarget: true,
		},
		{
			name: "Multiplexed",
			gen: config.Generation{Name: "msx", Start: 100, End: 200, WindowWidth: 25,
				Multiplexed: true, WindowsPerScan: 2},
			expectCount:   4,
			expectFirst:   isolation.Window{Start: 100, End: 125},
			expectPerScan: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := scheme.BuildGeneration(zap.NewNop(), tt.gen, 0)
			if err != nil {
				t.Fatalf("BuildGeneration() error = %v", err)
			}
			if result.Source != constants.SourceGenerated {
				t.Errorf("Source = %s, expected %s", result.Source, constants.SourceGenerated)
			}
			if len(result.Scheme.Windows) != tt.expectCount {
				t.Fatalf("got %d windows, expected %d", len(result.Scheme.Windows), tt.expectCount)
			}
			if err := testutil.WindowsMatch(result.Scheme.Windows[:1], []isolation.Window{tt.expectFirst}, constants.DisplayTolerance); err != nil {
				t.Error(err)
			}
			if result.MarginMode != tt.expectMode || result.RequireTarget != tt.expectTarget {
				t.Errorf("layout = %v/%v, expected %v/%v",
					result.MarginMode, result.RequireTarget, tt.expectMode, tt.expectTarget)
			}
			if tt.expectPerScan == 0 {
				if result.Scheme.WindowsPerScan != nil {
					t.Errorf("WindowsPerScan = %d, expected none", *result.Scheme.WindowsPerScan)
				}
			} else {
				if result.Scheme.WindowsPerScan == nil || *result.Scheme.WindowsPerScan != tt.expectPerScan {
					t.Errorf("WindowsPerScan = %v, expected %d", result.Scheme.WindowsPerScan, tt.expectPerScan)
				}
				if result.Scheme.SpecialHandling != isolation.HandlingMsx {
					t.Errorf("SpecialHandling = %v, expected msx", result.Scheme.SpecialHandling)
				}
			}
		})
	}
}

func TestBuildGenerationErrors(t *testing.T) {
	tests := []struct {
		name        string
		gen         config.Generation
		expectParam string
		expectKind  isolation.SchemeErrorKind
	}{
		{
			name:        "Start below instrument range",
			gen:         config.Generation{Start: 10, End: 200, WindowWidth: 25},
			expectParam: "start",
		},
		{
			name:        "Window wider than range",
			gen:         config.Generation{Start: 100, End: 120, WindowWidth: 25},
			expectParam: "windowWidth",
		},
		{
			name:        "Windows per scan out of range",
			gen:         config.Generation{Start: 100, End: 200, WindowWidth: 25, Multiplexed: true, WindowsPerScan: 1},
			expectParam: "windowsPerScan",
		},
		{
			name:       "Overlap without targets covers windows",
			gen:        config.Generation{Start: 100, End: 200, WindowWidth: 20, Overlap: 50},
			expectKind: isolation.ErrCovered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scheme.BuildGeneration(nil, tt.gen, 2)
			if err == nil {
				t.Fatal("BuildGeneration() expected error")
			}
			if !strings.Contains(err.Error(), "generation 3") {
				t.Errorf("error %q does not name the generation", err)
			}
			if tt.expectParam != "" {
				var paramErr *isolation.ParameterError
				if !errors.As(err, &paramErr) || paramErr.Param != tt.expectParam {
					t.Errorf("error = %v, expected parameter error for %s", err, tt.expectParam)
				}
			}
			if tt.expectKind != 0 {
				var schemeErr *isolation.SchemeError
				if !errors.As(err, &schemeErr) || schemeErr.Kind != tt.expectKind {
					t.Errorf("error = %v, expected %v", err, tt.expectKind)
				}
			}
		})
	}
}

func TestBuildGenerationOverlapWithTargets(t *testing.T) {
	gen := config.Generation{Name: "overlap", Start: 100, End: 200, WindowWidth: 20, Overlap: 50,
		GenerateTarget: true, SpecialHandling: "overlap", OptimizePlacement: true}
	result, err := scheme.BuildGeneration(nil, gen, 0)
	if err != nil {
		t.Fatalf("BuildGeneration() error = %v", err)
	}
	if result.Scheme.SpecialHandling != isolation.HandlingOverlap {
		t.Errorf("SpecialHandling = %v, expected overlap", result.Scheme.SpecialHandling)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "overlapping") {
		t.Errorf("Warnings = %v, expected optimization warning", result.Warnings)
	}
}

func TestBuildScheme(t *testing.T) {
	two := 2
	tests := []struct {
		name     string
		entry    config.Scheme
		expected []isolation.Window
	}{
		{
			name: "Inline windows",
			entry: config.Scheme{Name: "inline", Windows: []config.WindowEntry{
				entry(100, 120), entry(120, 140),
			}},
			expected: []isolation.Window{{Start: 100, End: 120}, {Start: 120, End: 140}},
		},
		{
			name: "Isolation view converted to extraction",
			entry: config.Scheme{Name: "isolation", Margins: "asymmetric", WindowType: "isolation", Windows: []config.WindowEntry{
				{Start: f(99), End: f(122), StartMargin: f(1), EndMargin: f(2)},
			}},
			expected: []isolation.Window{{Start: 100, End: 120, StartMargin: f(1), EndMargin: f(2)}},
		},
		{
			name:  "Windows file",
			entry: config.Scheme{Name: "file", WindowsFile: testdata("windows.tsv")},
			expected: []isolation.Window{
				{Start: 500, End: 525}, {Start: 525, End: 550}, {Start: 550, End: 575}, {Start: 575, End: 600},
			},
		},
		{
			name: "Comma separated isolation windows",
			entry: config.Scheme{Name: "csv", Margins: "symmetric", WindowType: "isolation",
				WindowsFile: testdata("isolation.csv")},
			expected: []isolation.Window{
				{Start: 400, End: 425, StartMargin: f(1)},
				{Start: 425, End: 450, StartMargin: f(1)},
				{Start: 450, End: 475, StartMargin: f(1)},
			},
		},
		{
			name: "Multiplexed targets",
			entry: config.Scheme{Name: "msx", SpecialHandling: "msx", WindowsPerScan: &two, SpecifyTarget: true,
				Windows: []config.WindowEntry{
					{Start: f(100), End: f(110), Target: f(105)},
					{Start: f(100), End: f(110), Target: f(106)},
				}},
			expected: []isolation.Window{
				{Start: 100, End: 110, Target: f(105)},
				{Start: 100, End: 110, Target: f(106)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := scheme.BuildScheme(zap.NewNop(), tt.entry, 0, nil)
			if err != nil {
				t.Fatalf("BuildScheme() error = %v", err)
			}
			if result.Source != constants.SourceManual {
				t.Errorf("Source = %s, expected %s", result.Source, constants.SourceManual)
			}
			if err := testutil.WindowsMatch(result.Scheme.Windows, tt.expected, constants.MzTolerance); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestBuildSchemeResults(t *testing.T) {
	result, err := scheme.BuildScheme(nil, config.Scheme{Name: "results", PrecursorFilter: f(2)}, 0, nil)
	if err != nil {
		t.Fatalf("BuildScheme() error = %v", err)
	}
	if result.Source != constants.SourceResults || !result.Scheme.FromResults() {
		t.Errorf("result = %+v, expected a results scheme", result)
	}

	_, err = scheme.BuildScheme(nil, config.Scheme{Name: "results", PrecursorFilter: f(20000)}, 0, nil)
	var schemeErr *isolation.SchemeError
	if !errors.As(err, &schemeErr) || schemeErr.Kind != isolation.ErrPrecursorFilter {
		t.Errorf("error = %v, expected precursor filter error", err)
	}
}

func TestBuildSchemeErrors(t *testing.T) {
	tests := []struct {
		name         string
		entry        config.Scheme
		expectErr    string
		expectTarget error
	}{
		{
			name:      "No windows",
			entry:     config.Scheme{Name: "empty"},
			expectErr: "at least one window",
		},
		{
			name:      "Missing end",
			entry:     config.Scheme{Name: "partial", Windows: []config.WindowEntry{entry(100, 110), {Start: f(110)}}},
			expectErr: "window 2: specify End",
		},
		{
			name: "Missing margin",
			entry: config.Scheme{Name: "margin", Margins: "symmetric",
				Windows: []config.WindowEntry{entry(100, 110)}},
			expectErr: "specify Margin",
		},
		{
			name: "Contained window",
			entry: config.Scheme{Name: "contained", Windows: []config.WindowEntry{
				entry(100, 130), entry(110, 120),
			}},
			expectErr: "contained by the previous window",
		},
		{
			name: "Duplicate target",
			entry: config.Scheme{Name: "dup", SpecifyTarget: true, Windows: []config.WindowEntry{
				{Start: f(100), End: f(110), Target: f(105)},
				{Start: f(110), End: f(120), Target: f(105)},
			}},
			expectErr: "not unique",
		},
		{
			name:      "Unknown margins",
			entry:     config.Scheme{Name: "bad", Margins: "sideways", Windows: []config.WindowEntry{entry(100, 110)}},
			expectErr: "sideways",
		},
		{
			name: "Multiplexed without windows per scan",
			entry: config.Scheme{Name: "msx", SpecialHandling: "msx", Windows: []config.WindowEntry{
				entry(100, 110), entry(110, 120),
			}},
			expectErr: "windows per scan is required",
		},
		{
			name:      "Missing windows file",
			entry:     config.Scheme{Name: "missing", WindowsFile: testdata("missing.tsv")},
			expectErr: "failed to open windows file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scheme.BuildScheme(nil, tt.entry, 0, nil)
			if err == nil {
				t.Fatal("BuildScheme() expected error")
			}
			if !strings.Contains(err.Error(), tt.expectErr) {
				t.Errorf("error = %q, expected it to contain %q", err, tt.expectErr)
			}
		})
	}
}

func TestBuildSchemeRowError(t *testing.T) {
	_, err := scheme.BuildScheme(nil, config.Scheme{Name: "rows", SpecifyTarget: true, Windows: []config.WindowEntry{
		{Start: f(100), End: f(110)},
	}}, 0, nil)
	var rowErr *scheme.RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("error = %v, expected *RowError", err)
	}
	if rowErr.Row != 0 || rowErr.Field != isolation.FieldTarget || rowErr.Header != "Target" {
		t.Errorf("RowError = %+v", rowErr)
	}
}

func TestBuildSchemeFileParseError(t *testing.T) {
	_, err := scheme.BuildScheme(nil, config.Scheme{Name: "bad", WindowsFile: testdata("bad.tsv")}, 0, nil)
	var parseErr *windowtable.ParseError
	if !errors.As(err, &parseErr) || parseErr.Line != 1 || parseErr.Column != "End" {
		t.Errorf("error = %v, expected parse error at line 1 End", err)
	}
}

func TestBuildSchemes(t *testing.T) {
	conf := config.Configuration{
		Generations: []config.Generation{
			{Name: "wide", Start: 400, End: 1000, WindowWidth: 25},
		},
		Schemes: []config.Scheme{
			{Name: "manual", Windows: []config.WindowEntry{entry(100, 120)}},
			{Name: "results", PrecursorFilter: f(1)},
		},
	}

	results, err := scheme.BuildSchemes(zap.NewNop(), conf)
	if err != nil {
		t.Fatalf("BuildSchemes() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, expected 3", len(results))
	}
	wide := testutil.FindResult(results, "wide")
	if wide == nil || len(wide.Scheme.Windows) != 24 {
		t.Errorf("wide = %+v, expected 24 windows", wide)
	}
	if manual := testutil.FindResult(results, "manual"); manual == nil || manual.Visibility().Target {
		t.Errorf("manual = %+v, expected no target column", manual)
	}
}

func TestBuildSchemesDuplicateNames(t *testing.T) {
	conf := config.Configuration{
		Generations: []config.Generation{{Name: "same", Start: 400, End: 500, WindowWidth: 25}},
		Schemes:     []config.Scheme{{Name: "same", Windows: []config.WindowEntry{entry(100, 120)}}},
	}

	_, err := scheme.BuildSchemes(nil, conf)
	var schemeErr *isolation.SchemeError
	if !errors.As(err, &schemeErr) || schemeErr.Kind != isolation.ErrName || schemeErr.Index != 1 {
		t.Errorf("error = %v, expected name error at index 1", err)
	}
}

func TestBuildSchemesPositionalNames(t *testing.T) {
	conf := config.Configuration{
		Generations: []config.Generation{{Start: 400, End: 500, WindowWidth: 25}},
		Schemes:     []config.Scheme{{Windows: []config.WindowEntry{entry(100, 120)}}},
	}

	results, err := scheme.BuildSchemes(nil, conf)
	if err != nil {
		t.Fatalf("BuildSchemes() error = %v", err)
	}
	if results[0].Name != "generation 1" || results[1].Name != "scheme 1" {
		t.Errorf("names = %s, %s", results[0].Name, results[1].Name)
	}
}
