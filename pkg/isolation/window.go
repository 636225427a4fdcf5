package isolation

import (
	"fmt"
	"math"
	"strings"
)

// Instrument limits used by generation.
const (
	// MinMz is the lowest m/z a generated window may reach.
	MinMz = 50.0
	// MaxMz is the highest m/z a generated window may reach.
	MaxMz = 2000.0
	// MaxGeneratedWindows caps the number of windows a single generation emits.
	MaxGeneratedWindows = 1000
	// OptimizedWidthMultiple scales window widths and starts when placement
	// is optimized.
	OptimizedWidthMultiple = 1.00045475
	// OptimizedOffset is added to the optimized start.
	OptimizedOffset = 0.25
)

// Limits for hand-entered windows and scheme settings.
const (
	MinMeasurableMz = 10.0
	MaxMeasurableMz = 10000.0

	MinMultiplexedWindows = 2
	MaxMultiplexedWindows = 20

	// MinMarginTolerance is the smallest margin accepted for generation.
	MinMarginTolerance = 0.0001

	MaxOverlapPercent = 99.0

	MinPrecursorFilter = 1.0
	MaxPrecursorFilter = 10000.0
)

// MarginMode says which margin fields a scheme uses.
type MarginMode int

const (
	MarginNone MarginMode = iota
	MarginSymmetric
	MarginAsymmetric
)

var marginModeNames = [...]string{"none", "symmetric", "asymmetric"}

func (m MarginMode) String() string {
	if m < MarginNone || m > MarginAsymmetric {
		return fmt.Sprintf("MarginMode(%d)", int(m))
	}
	return marginModeNames[m]
}

// ParseMarginMode parses a margin mode name. An empty string means none.
func ParseMarginMode(s string) (MarginMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return MarginNone, nil
	}
	for i, name := range marginModeNames {
		if s == name {
			return MarginMode(i), nil
		}
	}
	return MarginNone, paramErr("margins", "unknown margin mode %q", s)
}

func (m MarginMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MarginMode) UnmarshalText(b []byte) error {
	parsed, err := ParseMarginMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ViewMode selects whether window bounds include the margins.
type ViewMode int

const (
	// ViewExtraction shows the extraction window, margins excluded.
	ViewExtraction ViewMode = iota
	// ViewIsolation shows the isolation window, margins included.
	ViewIsolation
)

func (v ViewMode) String() string {
	switch v {
	case ViewExtraction:
		return "extraction"
	case ViewIsolation:
		return "isolation"
	}
	return fmt.Sprintf("ViewMode(%d)", int(v))
}

// ParseViewMode parses a view mode name. An empty string means extraction.
func ParseViewMode(s string) (ViewMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "extraction":
		return ViewExtraction, nil
	case "isolation":
		return ViewIsolation, nil
	}
	return ViewExtraction, paramErr("windowType", "unknown view mode %q", s)
}

func (v ViewMode) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *ViewMode) UnmarshalText(b []byte) error {
	parsed, err := ParseViewMode(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Window is one isolation window. Start and End are always set and
// Start < End. When StartMargin is set and EndMargin is not, the window has
// a symmetric margin.
type Window struct {
	Start       float64  `json:"start" yaml:"start"`
	End         float64  `json:"end" yaml:"end"`
	Target      *float64 `json:"target,omitempty" yaml:"target,omitempty"`
	StartMargin *float64 `json:"startMargin,omitempty" yaml:"startMargin,omitempty"`
	EndMargin   *float64 `json:"endMargin,omitempty" yaml:"endMargin,omitempty"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}

// Width returns End - Start.
func (w Window) Width() float64 {
	return w.End - w.Start
}

// Margins returns the margins applied to each edge under mode. Missing
// values count as zero.
func (w Window) Margins(mode MarginMode) (start, end float64) {
	switch mode {
	case MarginSymmetric:
		start = value(w.StartMargin)
		end = start
	case MarginAsymmetric:
		start = value(w.StartMargin)
		end = value(w.EndMargin)
	}
	return start, end
}

// Validate checks the window against the measurable m/z range.
func (w Window) Validate() error {
	if !inRange(w.Start, MinMeasurableMz, MaxMeasurableMz) {
		return fmt.Errorf("isolation window start must be between %v and %v, got %v",
			MinMeasurableMz, MaxMeasurableMz, w.Start)
	}
	if !inRange(w.End, MinMeasurableMz, MaxMeasurableMz) {
		return fmt.Errorf("isolation window end must be between %v and %v, got %v",
			MinMeasurableMz, MaxMeasurableMz, w.End)
	}
	if w.Start >= w.End {
		return fmt.Errorf("isolation window start %v must be less than end %v", w.Start, w.End)
	}
	if w.Target != nil && (*w.Target < w.Start || *w.Target > w.End) {
		return fmt.Errorf("target %v is not within the isolation window %v-%v", *w.Target, w.Start, w.End)
	}
	if w.StartMargin != nil && *w.StartMargin < 0 {
		return fmt.Errorf("isolation window margin must be non-negative, got %v", *w.StartMargin)
	}
	if w.EndMargin != nil && *w.EndMargin < 0 {
		return fmt.Errorf("isolation window end margin must be non-negative, got %v", *w.EndMargin)
	}
	return nil
}

// Row is a grid row that has not been validated yet. Any field may be
// missing.
type Row struct {
	Start       *float64 `json:"start,omitempty" yaml:"start,omitempty"`
	End         *float64 `json:"end,omitempty" yaml:"end,omitempty"`
	Target      *float64 `json:"target,omitempty" yaml:"target,omitempty"`
	StartMargin *float64 `json:"startMargin,omitempty" yaml:"startMargin,omitempty"`
	EndMargin   *float64 `json:"endMargin,omitempty" yaml:"endMargin,omitempty"`
}

// RowFromWindow returns the row a grid would show for w.
func RowFromWindow(w Window) Row {
	return Row{
		Start:       Float(w.Start),
		End:         Float(w.End),
		Target:      copyFloat(w.Target),
		StartMargin: copyFloat(w.StartMargin),
		EndMargin:   copyFloat(w.EndMargin),
	}
}

// Window converts the row. Only the fields used by requireTarget and mode
// are carried over. ok is false when ValidateRow would report a field.
func (r Row) Window(requireTarget bool, mode MarginMode) (w Window, ok bool) {
	if ValidateRow(r, requireTarget, mode) != FieldNone {
		return Window{}, false
	}
	w = Window{Start: *r.Start, End: *r.End}
	if requireTarget {
		w.Target = copyFloat(r.Target)
	}
	if mode != MarginNone {
		w.StartMargin = copyFloat(r.StartMargin)
	}
	if mode == MarginAsymmetric {
		w.EndMargin = copyFloat(r.EndMargin)
	}
	return w, true
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return Float(*p)
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
