// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/isolation-scheme/pkg/constants"
)

// Round rounds a value to the given number of decimal places.
func Round(val float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(val*scale) / scale
}

// RoundMz rounds an m/z value to the display precision.
func RoundMz(val float64) float64 {
	return Round(val, constants.MaxDecimalPlaces)
}

// Midpoint returns the center of [start, end] rounded to the display
// precision.
func Midpoint(start, end float64) float64 {
	return RoundMz((start + end) / 2)
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// DecimalPlaces returns the number of decimals needed to show val exactly,
// up to max.
func DecimalPlaces(val float64, max int) int {
	for places := 0; places < max; places++ {
		if WithinTolerance(Round(val, places), val, constants.MzTolerance) {
			return places
		}
	}
	return max
}
