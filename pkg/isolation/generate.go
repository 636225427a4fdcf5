package isolation

import "math"

// GenerationParameters describe a regular tiling of an m/z range.
type GenerationParameters struct {
	Start          float64    `json:"start" yaml:"start"`
	End            float64    `json:"end" yaml:"end"`
	WindowWidth    float64    `json:"windowWidth" yaml:"windowWidth"`
	OverlapPercent float64    `json:"overlap" yaml:"overlap"`
	MarginMode     MarginMode `json:"margins" yaml:"margins"`
	// MarginLeft is used for both edges in symmetric mode.
	MarginLeft  float64 `json:"marginLeft" yaml:"marginLeft"`
	MarginRight float64 `json:"marginRight" yaml:"marginRight"`
	Multiplexed bool    `json:"multiplexed" yaml:"multiplexed"`
	// WindowsPerScan is required when Multiplexed. Zero means unset.
	WindowsPerScan    int  `json:"windowsPerScan,omitempty" yaml:"windowsPerScan,omitempty"`
	OptimizePlacement bool `json:"optimizePlacement" yaml:"optimizePlacement"`
	GenerateTarget    bool `json:"generateTarget" yaml:"generateTarget"`
}

// margins returns the margins applied to the left and right edge.
func (p GenerationParameters) margins() (left, right float64) {
	switch p.MarginMode {
	case MarginSymmetric:
		return p.MarginLeft, p.MarginLeft
	case MarginAsymmetric:
		return p.MarginLeft, p.MarginRight
	}
	return 0, 0
}

// usable reports whether the parameters can produce any windows at all.
func (p GenerationParameters) usable() bool {
	left, right := p.margins()
	if !finite(p.Start, p.End, p.WindowWidth, p.OverlapPercent, left, right) {
		return false
	}
	if p.Multiplexed && p.WindowsPerScan <= 0 {
		return false
	}
	return p.Start < p.End && p.WindowWidth > 0 && p.OverlapPercent < 100
}

// plan computes the first window position, the window width, the step
// between windows and the number of windows to lay out.
func (p GenerationParameters) plan() (start, width, step float64, count int) {
	start, width = p.Start, p.WindowWidth
	step = width * (100 - p.OverlapPercent) / 100
	needed := math.Ceil((p.End - start) / step)
	if needed > math.MaxInt32 {
		needed = math.MaxInt32
	}
	count = int(needed)
	if p.Multiplexed && count%p.WindowsPerScan != 0 {
		count = (count/p.WindowsPerScan + 1) * p.WindowsPerScan
	}

	if p.OptimizePlacement {
		width = math.Ceil(width) * OptimizedWidthMultiple
		step = width * (100 - p.OverlapPercent) / 100
		start = math.Ceil(start/OptimizedWidthMultiple)*OptimizedWidthMultiple + OptimizedOffset
	}

	decrement := 1
	if p.Multiplexed {
		decrement = p.WindowsPerScan
	}
	if count > MaxGeneratedWindows {
		count -= (count - MaxGeneratedWindows + decrement - 1) / decrement * decrement
	}
	for count > 0 && (start+float64(count-1)*step+width > MaxMz || count > MaxGeneratedWindows) {
		count -= decrement
	}
	if count < 0 {
		count = 0
	}
	return start, width, step, count
}

// Generate lays out windows of WindowWidth from Start, stepping by the
// width less the overlap, until End is covered. Windows are clamped to
// [MinMz, MaxMz] and the count is limited so the last window fits below
// MaxMz and no more than MaxGeneratedWindows are produced. When multiplexed
// the count is kept a multiple of WindowsPerScan.
//
// Windows are returned in extraction view: the margins lie outside
// Start and End. Generate returns nil when the parameters cannot produce
// windows.
func Generate(p GenerationParameters) []Window {
	if !p.usable() {
		return nil
	}

	cursor, width, step, count := p.plan()
	left, right := p.margins()
	withStartMargin := p.MarginMode != MarginNone
	withEndMargin := p.MarginMode == MarginAsymmetric

	windows := make([]Window, 0, count)
	for i := 0; i < count; i, cursor = i+1, cursor+step {
		methodStart := math.Max(cursor-left, MinMz)
		methodEnd := math.Min(cursor+width+right, MaxMz)

		// Instrument limits can leave nothing between the margins.
		if methodStart+left >= methodEnd-right {
			continue
		}

		w := Window{
			Start: methodStart + left,
			End:   methodEnd - right,
		}
		if p.GenerateTarget {
			w.Target = Float((methodStart + methodEnd) / 2)
		}
		if withStartMargin {
			w.StartMargin = Float(left)
		}
		if withEndMargin {
			w.EndMargin = Float(right)
		}
		windows = append(windows, w)
	}
	return windows
}

// WindowCount returns the number of windows Generate would produce.
func WindowCount(p GenerationParameters) int {
	return len(Generate(p))
}
