// Package isolation generates and validates the precursor isolation window
// schemes used to configure data-independent acquisition (DIA) methods.
//
// A scheme is an ordered list of m/z windows. Each window has a start and an
// end, and may carry a target m/z and margins. Margins are the part of the
// isolation window that lies outside the extraction window. A scheme also
// records how it is acquired: plain, multiplexed (several windows per scan),
// overlapping, or overlapping and multiplexed.
//
// The package is pure and stateless. Every function can be called
// concurrently and never mutates its inputs.
//
// # Generation
//
// Generate tiles an m/z range with fixed-width windows:
//
//	windows := isolation.Generate(isolation.GenerationParameters{
//	    Start: 400, End: 1000, WindowWidth: 25,
//	})
//	// 24 windows: 400-425, 425-450, ... 975-1000
//
// Generate never fails. Parameters that make no sense produce no windows.
// Call GenerationParameters.Validate before accepting a generated scheme
// for an instrument.
//
// # Validation
//
// Windows entered by hand are checked in three layers:
//
//   - ValidateRow reports the first missing field of a row
//   - CheckWindows checks each window against the measurable m/z range
//   - ValidateScheme checks the scheme as a whole: duplicate targets,
//     contained or covered windows, and the multiplexed window count
//
// Failures are returned as *SchemeError values. When ordering matters the
// error carries the sorted window list, which callers may offer as a fix.
//
// # View modes
//
// A grid of windows can be shown as isolation windows (margins included)
// or as extraction windows (margins removed). NormalizeViewMode converts
// between the two.
package isolation
