// Package format renders m/z values for people.
package format

import (
	"strconv"

	"github.com/iwvelando/isolation-scheme/pkg/constants"
	"github.com/iwvelando/isolation-scheme/pkg/mathutil"
)

// DecimalPlaces returns the number of decimals a column needs so that every
// value is shown exactly, capped at constants.MaxDecimalPlaces.
func DecimalPlaces(values []float64) int {
	places := 0
	for _, v := range values {
		if p := mathutil.DecimalPlaces(v, constants.MaxDecimalPlaces); p > places {
			places = p
		}
	}
	return places
}

// Mz formats an m/z value with a fixed number of decimals.
func Mz(value float64, places int) string {
	return strconv.FormatFloat(mathutil.Round(value, places), 'f', places, 64)
}

// OptionalMz formats an optional m/z value, returning "" when it is missing.
func OptionalMz(value *float64, places int) string {
	if value == nil {
		return ""
	}
	return Mz(*value, places)
}

// Compact formats an m/z value with only the decimals it needs.
func Compact(value float64) string {
	return Mz(value, mathutil.DecimalPlaces(value, constants.MaxDecimalPlaces))
}
