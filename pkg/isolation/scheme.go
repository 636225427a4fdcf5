package isolation

import (
	"fmt"
	"strings"
)

// SpecialHandling describes how a scheme's windows are acquired.
type SpecialHandling int

const (
	HandlingNone SpecialHandling = iota
	// HandlingMsx acquires several windows per scan.
	HandlingMsx
	// HandlingOverlap acquires overlapping windows for later demultiplexing.
	HandlingOverlap
	// HandlingOverlapMsx combines overlap and multiplexing.
	HandlingOverlapMsx
)

var handlingNames = [...]string{"none", "msx", "overlap", "overlap_msx"}

// Deconvolution method labels, in SpecialHandling order.
var deconvolutionNames = [...]string{"None", "MSX", "Overlap", "Overlap and MSX"}

func (h SpecialHandling) String() string {
	if h < HandlingNone || h > HandlingOverlapMsx {
		return fmt.Sprintf("SpecialHandling(%d)", int(h))
	}
	return handlingNames[h]
}

// IsMultiplexed reports whether the scheme needs a windows-per-scan count.
func (h SpecialHandling) IsMultiplexed() bool {
	return h == HandlingMsx || h == HandlingOverlapMsx
}

// Deconvolution returns the deconvolution method label for h.
func (h SpecialHandling) Deconvolution() string {
	if h < HandlingNone || h > HandlingOverlapMsx {
		return deconvolutionNames[HandlingNone]
	}
	return deconvolutionNames[h]
}

// ParseSpecialHandling accepts either a handling name ("overlap_msx") or a
// deconvolution label ("Overlap and MSX"). An empty string means none.
func ParseSpecialHandling(s string) (SpecialHandling, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return HandlingNone, nil
	}
	for i := range handlingNames {
		if strings.EqualFold(s, handlingNames[i]) || strings.EqualFold(s, deconvolutionNames[i]) {
			return SpecialHandling(i), nil
		}
	}
	if strings.EqualFold(s, "multiplexed") {
		return HandlingMsx, nil
	}
	return HandlingNone, paramErr("specialHandling", "unknown special handling %q", s)
}

func (h SpecialHandling) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *SpecialHandling) UnmarshalText(b []byte) error {
	parsed, err := ParseSpecialHandling(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Scheme is a named isolation scheme. Windows are stored in extraction view.
// A scheme without windows takes its isolation widths from acquired results
// through PrecursorFilter and, when asymmetric, PrecursorRightFilter.
type Scheme struct {
	Name                 string          `json:"name" yaml:"name"`
	Windows              []Window        `json:"windows,omitempty" yaml:"windows,omitempty"`
	SpecialHandling      SpecialHandling `json:"specialHandling" yaml:"specialHandling"`
	WindowsPerScan       *int            `json:"windowsPerScan,omitempty" yaml:"windowsPerScan,omitempty"`
	PrecursorFilter      *float64        `json:"precursorFilter,omitempty" yaml:"precursorFilter,omitempty"`
	PrecursorRightFilter *float64        `json:"precursorRightFilter,omitempty" yaml:"precursorRightFilter,omitempty"`
}

// FromResults reports whether the scheme uses isolation widths from
// acquired results instead of prespecified windows.
func (s Scheme) FromResults() bool {
	return len(s.Windows) == 0 && s.PrecursorFilter != nil
}

// NewResultsScheme builds a scheme that reads isolation widths from results.
// With a nil right filter the filter is the total width.
func NewResultsScheme(name string, handling SpecialHandling, filter float64, rightFilter *float64) Scheme {
	return Scheme{
		Name:                 name,
		SpecialHandling:      handling,
		PrecursorFilter:      Float(filter),
		PrecursorRightFilter: copyFloat(rightFilter),
	}
}

// JoinFilter turns left and right widths into a total width. A missing right
// width mirrors the left one.
func JoinFilter(left float64, right *float64) float64 {
	if right == nil {
		return left * 2
	}
	return left + *right
}

// InferLayout derives the margin mode and whether targets are in use from a
// list of windows. Any window with an end margin makes the layout
// asymmetric.
func InferLayout(windows []Window) (mode MarginMode, requireTarget bool) {
	var startMargin, endMargin bool
	for _, w := range windows {
		if w.Target != nil {
			requireTarget = true
		}
		if w.StartMargin != nil {
			startMargin = true
		}
		if w.EndMargin != nil {
			endMargin = true
		}
	}
	switch {
	case startMargin && endMargin:
		mode = MarginAsymmetric
	case startMargin:
		mode = MarginSymmetric
	}
	return mode, requireTarget
}
