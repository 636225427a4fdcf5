// Package testutil provides common utility functions for testing.
package testutil

import (
	"fmt"

	"github.com/iwvelando/isolation-scheme/internal/scheme"
	"github.com/iwvelando/isolation-scheme/pkg/isolation"
	"github.com/iwvelando/isolation-scheme/pkg/mathutil"
)

// FindResult finds a built scheme by name in the results slice.
// Returns a pointer to the result if found, nil otherwise.
func FindResult(results []scheme.Result, name string) *scheme.Result {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// WindowsMatch compares two window lists field by field. Bounds and the
// optional fields must agree within tol, and an optional field must be set
// in got exactly when it is set in want.
func WindowsMatch(got, want []isolation.Window, tol float64) error {
	if len(got) != len(want) {
		return fmt.Errorf("got %d windows, expected %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if !mathutil.WithinTolerance(g.Start, w.Start, tol) {
			return fmt.Errorf("window %d start = %v, expected %v", i, g.Start, w.Start)
		}
		if !mathutil.WithinTolerance(g.End, w.End, tol) {
			return fmt.Errorf("window %d end = %v, expected %v", i, g.End, w.End)
		}
		if err := optionalMatch(g.Target, w.Target, tol); err != nil {
			return fmt.Errorf("window %d target: %w", i, err)
		}
		if err := optionalMatch(g.StartMargin, w.StartMargin, tol); err != nil {
			return fmt.Errorf("window %d start margin: %w", i, err)
		}
		if err := optionalMatch(g.EndMargin, w.EndMargin, tol); err != nil {
			return fmt.Errorf("window %d end margin: %w", i, err)
		}
	}
	return nil
}

func optionalMatch(got, want *float64, tol float64) error {
	switch {
	case got == nil && want == nil:
		return nil
	case got == nil:
		return fmt.Errorf("missing, expected %v", *want)
	case want == nil:
		return fmt.Errorf("got %v, expected none", *got)
	case !mathutil.WithinTolerance(*got, *want, tol):
		return fmt.Errorf("got %v, expected %v", *got, *want)
	}
	return nil
}
