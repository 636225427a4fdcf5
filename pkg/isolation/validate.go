package isolation

import (
	"fmt"
	"sort"
	"strings"
)

// Field identifies a column of a window grid.
type Field int

const (
	// FieldNone means no field is in error.
	FieldNone Field = iota
	FieldStart
	FieldEnd
	FieldTarget
	FieldStartMargin
	FieldEndMargin
)

// Header returns the column header shown for f under mode.
func (f Field) Header(mode MarginMode) string {
	switch f {
	case FieldStart:
		return "Start"
	case FieldEnd:
		return "End"
	case FieldTarget:
		return "Target"
	case FieldStartMargin:
		if mode == MarginSymmetric {
			return "Margin"
		}
		return "Start margin"
	case FieldEndMargin:
		return "End margin"
	}
	return ""
}

func (f Field) String() string {
	switch f {
	case FieldNone:
		return "none"
	case FieldStart:
		return "start"
	case FieldEnd:
		return "end"
	case FieldTarget:
		return "target"
	case FieldStartMargin:
		return "startMargin"
	case FieldEndMargin:
		return "endMargin"
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

func (f Field) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// ValidateRow returns the first required field that is missing from row,
// checked in column order, or FieldNone when the row is complete.
func ValidateRow(row Row, requireTarget bool, mode MarginMode) Field {
	switch {
	case row.Start == nil:
		return FieldStart
	case row.End == nil:
		return FieldEnd
	case requireTarget && row.Target == nil:
		return FieldTarget
	case mode != MarginNone && row.StartMargin == nil:
		return FieldStartMargin
	case mode == MarginAsymmetric && row.EndMargin == nil:
		return FieldEndMargin
	}
	return FieldNone
}

// SchemeErrorKind classifies a scheme validation failure.
type SchemeErrorKind int

const (
	ErrEmpty SchemeErrorKind = iota + 1
	ErrDuplicateTarget
	ErrContained
	ErrCovered
	ErrWindowsPerScanMissing
	ErrWindowsPerScanRange
	ErrWindowCount
	ErrInvalidWindow
	ErrPrecursorFilter
	ErrName
)

var schemeErrorKindNames = map[SchemeErrorKind]string{
	ErrEmpty:                 "empty",
	ErrDuplicateTarget:       "duplicate_target",
	ErrContained:             "contained",
	ErrCovered:               "covered",
	ErrWindowsPerScanMissing: "windows_per_scan_missing",
	ErrWindowsPerScanRange:   "windows_per_scan_range",
	ErrWindowCount:           "window_count",
	ErrInvalidWindow:         "invalid_window",
	ErrPrecursorFilter:       "precursor_filter",
	ErrName:                  "name",
}

func (k SchemeErrorKind) String() string {
	if name, ok := schemeErrorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("SchemeErrorKind(%d)", int(k))
}

func (k SchemeErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// SchemeError describes why a scheme was rejected.
type SchemeError struct {
	Kind SchemeErrorKind
	// Index is the offending window. For ordering problems it indexes
	// Sorted, otherwise the windows as given. -1 when no single window is
	// at fault.
	Index int
	// Sorted is the window order the check was made in, offered as a
	// correction for ordering problems.
	Sorted []Window
	// Name is the scheme name for ErrName.
	Name string
	Err  error
}

func (e *SchemeError) Error() string {
	var msg string
	switch e.Kind {
	case ErrEmpty:
		msg = "isolation scheme must contain at least one window"
	case ErrDuplicateTarget:
		msg = fmt.Sprintf("window %d: the target is not unique", e.Index+1)
	case ErrContained:
		msg = fmt.Sprintf("window %d is contained by the previous window", e.Index+1)
	case ErrCovered:
		msg = fmt.Sprintf("window %d is covered by the previous and next windows", e.Index+1)
	case ErrWindowsPerScanMissing:
		msg = "windows per scan is required for multiplexed schemes"
	case ErrWindowsPerScanRange:
		msg = fmt.Sprintf("windows per scan must be between %d and %d",
			MinMultiplexedWindows, MaxMultiplexedWindows)
	case ErrWindowCount:
		msg = "the number of windows must be a multiple of the windows per scan"
	case ErrInvalidWindow:
		msg = fmt.Sprintf("window %d is invalid", e.Index+1)
	case ErrPrecursorFilter:
		msg = "invalid precursor filter"
	case ErrName:
		msg = fmt.Sprintf("invalid scheme name %q", e.Name)
	default:
		msg = "invalid isolation scheme"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemeError) Unwrap() error {
	return e.Err
}

// ValidationOptions carry the grid layout a scheme was entered with.
type ValidationOptions struct {
	RequireTarget bool
}

// ValidateScheme checks a complete scheme. Windows are not modified; when
// the failure concerns ordering the returned *SchemeError carries the
// sorted list the check was made against.
//
// With targets the windows are sorted by (target, start) and equal adjacent
// targets are rejected. Without targets they are sorted by start and a
// window is rejected when the previous window reaches past its end
// (contained) or reaches the next window's start (covered).
//
// Schemes that take their widths from results are checked on their
// precursor filters instead.
func ValidateScheme(s Scheme, opts ValidationOptions) error {
	if s.FromResults() {
		return validateFilters(s)
	}
	if len(s.Windows) == 0 {
		return &SchemeError{Kind: ErrEmpty, Index: -1}
	}

	if opts.RequireTarget {
		if err := checkTargets(s.Windows); err != nil {
			return err
		}
	} else if err := checkCoverage(s.Windows); err != nil {
		return err
	}

	if s.SpecialHandling.IsMultiplexed() {
		if s.WindowsPerScan == nil {
			return &SchemeError{Kind: ErrWindowsPerScanMissing, Index: -1}
		}
		perScan := *s.WindowsPerScan
		if perScan < MinMultiplexedWindows || perScan > MaxMultiplexedWindows {
			return &SchemeError{Kind: ErrWindowsPerScanRange, Index: -1}
		}
		if len(s.Windows)%perScan != 0 {
			return &SchemeError{Kind: ErrWindowCount, Index: -1}
		}
	}
	return nil
}

func checkTargets(windows []Window) error {
	for i, w := range windows {
		if w.Target == nil {
			return &SchemeError{Kind: ErrInvalidWindow, Index: i, Err: fmt.Errorf("missing target")}
		}
	}
	sorted := SortByTarget(windows)
	for i := 1; i < len(sorted); i++ {
		if *sorted[i-1].Target == *sorted[i].Target {
			return &SchemeError{Kind: ErrDuplicateTarget, Index: i, Sorted: sorted}
		}
	}
	return nil
}

func checkCoverage(windows []Window) error {
	sorted := SortByStart(windows)
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.End >= cur.End {
			return &SchemeError{Kind: ErrContained, Index: i, Sorted: sorted}
		}
		if i+1 < len(sorted) && prev.End >= sorted[i+1].Start {
			return &SchemeError{Kind: ErrCovered, Index: i, Sorted: sorted}
		}
	}
	return nil
}

func validateFilters(s Scheme) error {
	factor := 1.0
	if s.PrecursorRightFilter != nil {
		factor = 0.5
	}
	lo, hi := MinPrecursorFilter*factor, MaxPrecursorFilter*factor
	if !inRange(*s.PrecursorFilter, lo, hi) {
		return &SchemeError{Kind: ErrPrecursorFilter, Index: -1,
			Err: fmt.Errorf("precursor filter must be between %v and %v", lo, hi)}
	}
	if s.PrecursorRightFilter != nil && !inRange(*s.PrecursorRightFilter, lo, hi) {
		return &SchemeError{Kind: ErrPrecursorFilter, Index: -1,
			Err: fmt.Errorf("right precursor filter must be between %v and %v", lo, hi)}
	}
	if s.SpecialHandling.IsMultiplexed() && s.WindowsPerScan != nil {
		perScan := *s.WindowsPerScan
		if perScan < MinMultiplexedWindows || perScan > MaxMultiplexedWindows {
			return &SchemeError{Kind: ErrWindowsPerScanRange, Index: -1}
		}
	}
	return nil
}

// CheckWindows validates every window against the measurable m/z range.
func CheckWindows(windows []Window) error {
	for i, w := range windows {
		if err := w.Validate(); err != nil {
			return &SchemeError{Kind: ErrInvalidWindow, Index: i, Err: err}
		}
	}
	return nil
}

// ValidateSchemeNames rejects empty and repeated scheme names.
func ValidateSchemeNames(names []string) error {
	seen := make(map[string]bool, len(names))
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return &SchemeError{Kind: ErrName, Index: i, Name: name,
				Err: fmt.Errorf("name is required")}
		}
		if seen[name] {
			return &SchemeError{Kind: ErrName, Index: i, Name: name,
				Err: fmt.Errorf("the isolation scheme named %q already exists", name)}
		}
		seen[name] = true
	}
	return nil
}

// SortByStart returns a copy of windows ordered by start. Equal starts keep
// their relative order.
func SortByStart(windows []Window) []Window {
	sorted := append([]Window(nil), windows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})
	return sorted
}

// SortByTarget returns a copy of windows ordered by target, then start.
// A missing target sorts as zero.
func SortByTarget(windows []Window) []Window {
	sorted := append([]Window(nil), windows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := value(sorted[i].Target), value(sorted[j].Target)
		if ti != tj {
			return ti < tj
		}
		return sorted[i].Start < sorted[j].Start
	})
	return sorted
}
