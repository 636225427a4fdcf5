package isolation_test

import (
	"math"
	"testing"

	"github.com/iwvelando/isolation-scheme/pkg/constants"
	"github.com/iwvelando/isolation-scheme/pkg/isolation"
	"github.com/iwvelando/isolation-scheme/pkg/testutil"
)

func symmetricRows(n int, margin float64) []isolation.Window {
	out := make([]isolation.Window, n)
	for r := 0; r < n; r++ {
		out[r] = isolation.Window{
			Start:       100 + 100*float64(r),
			End:         120 + 100*float64(r),
			StartMargin: f(margin),
		}
	}
	return out
}

func TestNormalizeViewMode(t *testing.T) {
	tests := []struct {
		name     string
		windows  []isolation.Window
		from, to isolation.ViewMode
		mode     isolation.MarginMode
		expected []isolation.Window
	}{
		{
			name:     "Symmetric to isolation",
			windows:  symmetricRows(2, 5),
			from:     isolation.ViewExtraction,
			to:       isolation.ViewIsolation,
			mode:     isolation.MarginSymmetric,
			expected: []isolation.Window{{Start: 95, End: 125, StartMargin: f(5)}, {Start: 195, End: 225, StartMargin: f(5)}},
		},
		{
			name:     "Symmetric to extraction",
			windows:  []isolation.Window{{Start: 95, End: 125, StartMargin: f(5)}},
			from:     isolation.ViewIsolation,
			to:       isolation.ViewExtraction,
			mode:     isolation.MarginSymmetric,
			expected: []isolation.Window{{Start: 100, End: 120, StartMargin: f(5)}},
		},
		{
			name:     "Asymmetric to isolation",
			windows:  []isolation.Window{{Start: 100, End: 125, StartMargin: f(1), EndMargin: f(2)}},
			from:     isolation.ViewExtraction,
			to:       isolation.ViewIsolation,
			mode:     isolation.MarginAsymmetric,
			expected: []isolation.Window{{Start: 99, End: 127, StartMargin: f(1), EndMargin: f(2)}},
		},
		{
			name:     "No margins is a no-op",
			windows:  []isolation.Window{{Start: 100, End: 125, StartMargin: f(1)}},
			from:     isolation.ViewExtraction,
			to:       isolation.ViewIsolation,
			mode:     isolation.MarginNone,
			expected: []isolation.Window{{Start: 100, End: 125, StartMargin: f(1)}},
		},
		{
			name:     "Same view is a no-op",
			windows:  symmetricRows(1, 5),
			from:     isolation.ViewIsolation,
			to:       isolation.ViewIsolation,
			mode:     isolation.MarginSymmetric,
			expected: symmetricRows(1, 5),
		},
		{
			name:     "Missing margin counts as zero",
			windows:  []isolation.Window{{Start: 100, End: 125, Target: f(110)}},
			from:     isolation.ViewExtraction,
			to:       isolation.ViewIsolation,
			mode:     isolation.MarginAsymmetric,
			expected: []isolation.Window{{Start: 100, End: 125, Target: f(110)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isolation.NormalizeViewMode(tt.windows, tt.from, tt.to, tt.mode)
			if err := testutil.WindowsMatch(got, tt.expected, constants.MzTolerance); err != nil {
				t.Errorf("NormalizeViewMode() %v", err)
			}
		})
	}
}

func TestNormalizeViewModeRoundTrip(t *testing.T) {
	modes := []isolation.MarginMode{isolation.MarginNone, isolation.MarginSymmetric, isolation.MarginAsymmetric}
	original := []isolation.Window{
		{Start: 100.1, End: 120.3, StartMargin: f(0.7), EndMargin: f(1.3)},
		{Start: 333.3333, End: 366.6667, StartMargin: f(5), EndMargin: f(0.0001)},
	}

	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			isolated := isolation.NormalizeViewMode(original, isolation.ViewExtraction, isolation.ViewIsolation, mode)
			back := isolation.NormalizeViewMode(isolated, isolation.ViewIsolation, isolation.ViewExtraction, mode)
			for i := range original {
				if math.Abs(back[i].Start-original[i].Start) > 1e-9 || math.Abs(back[i].End-original[i].End) > 1e-9 {
					t.Errorf("window %d = %v-%v, expected %v-%v", i, back[i].Start, back[i].End, original[i].Start, original[i].End)
				}
			}
		})
	}
}

func TestNormalizeViewModeKeepsInput(t *testing.T) {
	in := symmetricRows(3, 5)
	_ = isolation.NormalizeViewMode(in, isolation.ViewExtraction, isolation.ViewIsolation, isolation.MarginSymmetric)
	if in[0].Start != 100 || in[2].End != 320 {
		t.Errorf("input modified: %+v", in)
	}
}

func TestNormalizeRows(t *testing.T) {
	rows := []isolation.Row{
		{Start: f(100), End: f(120), StartMargin: f(5)},
		{Start: f(200), StartMargin: f(5)},
		{},
	}
	got := isolation.NormalizeRows(rows, isolation.ViewIsolation, isolation.ViewExtraction, isolation.MarginSymmetric)

	if *got[0].Start != 105 || *got[0].End != 115 {
		t.Errorf("row 0 = %v-%v, expected 105-115", *got[0].Start, *got[0].End)
	}
	if *got[1].Start != 205 || got[1].End != nil {
		t.Errorf("row 1 = %+v", got[1])
	}
	if got[2].Start != nil || got[2].End != nil {
		t.Errorf("row 2 = %+v", got[2])
	}
	if *rows[0].Start != 100 {
		t.Errorf("input row modified")
	}
}
