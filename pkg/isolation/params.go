package isolation

import (
	"fmt"
	"math"
)

// ParameterError reports a generation parameter the instrument cannot accept.
type ParameterError struct {
	Param  string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: %s", e.Param, e.Reason)
}

func paramErr(param, format string, args ...interface{}) error {
	return &ParameterError{Param: param, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks that the parameters describe a scheme the instrument can
// acquire. Generate itself accepts anything; Validate is the gate before a
// generated scheme is used.
func (p GenerationParameters) Validate() error {
	if !inRange(p.Start, MinMz, MaxMz) {
		return paramErr("start", "must be between %v and %v", MinMz, MaxMz)
	}
	if !inRange(p.End, MinMz, MaxMz) {
		return paramErr("end", "must be between %v and %v", MinMz, MaxMz)
	}
	if p.Start >= p.End {
		return paramErr("start", "must be less than end")
	}

	if !inRange(p.WindowWidth, 1, MaxMz-MinMz) {
		return paramErr("windowWidth", "must be between %v and %v", 1, MaxMz-MinMz)
	}
	if p.WindowWidth > p.End-p.Start {
		return paramErr("windowWidth", "must be less than or equal to the isolation range")
	}

	if !inRange(p.OverlapPercent, 0, MaxOverlapPercent) {
		return paramErr("overlap", "must be between %v and %v", 0, MaxOverlapPercent)
	}

	if p.MarginMode != MarginNone && !inRange(p.MarginLeft, MinMarginTolerance, MaxMz-MinMz) {
		return paramErr("marginLeft", "must be between %v and %v", MinMarginTolerance, MaxMz-MinMz)
	}
	if p.MarginMode == MarginAsymmetric && !inRange(p.MarginRight, MinMarginTolerance, MaxMz-MinMz) {
		return paramErr("marginRight", "must be between %v and %v", MinMarginTolerance, MaxMz-MinMz)
	}

	if p.Multiplexed {
		if p.WindowsPerScan < MinMultiplexedWindows || p.WindowsPerScan > MaxMultiplexedWindows {
			return paramErr("windowsPerScan", "must be between %d and %d",
				MinMultiplexedWindows, MaxMultiplexedWindows)
		}
		if count := WindowCount(p); count == 0 || count%p.WindowsPerScan != 0 {
			return paramErr("windowsPerScan",
				"the number of generated windows could not be adjusted to be a multiple of the windows per scan")
		}
	}

	left, right := p.margins()
	if MinMz+left >= p.End || MaxMz-right <= p.Start {
		return paramErr("margins",
			"isolation window margins cover the entire isolation window at the extremes of the instrument range")
	}
	if !p.Multiplexed && WindowCount(p) == 0 {
		return paramErr("windowWidth", "no isolation windows fit below the instrument maximum of %v", MaxMz)
	}
	return nil
}

// Warnings lists settings that are accepted but probably not intended.
func (p GenerationParameters) Warnings() []string {
	var warnings []string
	if p.OptimizePlacement && p.OverlapPercent != 0 {
		warnings = append(warnings,
			"window optimization cannot be applied to overlapping isolation windows")
	}
	if p.usable() {
		step := p.WindowWidth * (100 - p.OverlapPercent) / 100
		if math.Ceil((p.End-p.Start)/step) > MaxGeneratedWindows {
			warnings = append(warnings,
				fmt.Sprintf("window count limited to %d", MaxGeneratedWindows))
		}
	}
	return warnings
}
