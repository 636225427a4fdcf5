package config

import (
	"fmt"

	"github.com/iwvelando/isolation-scheme/pkg/isolation"
)

// DisplayName returns the generation's name, or a positional name when it
// has none.
func (g Generation) DisplayName(index int) string {
	if g.Name != "" {
		return g.Name
	}
	return fmt.Sprintf("generation %d", index+1)
}

// Handling returns the special handling of the generated scheme. A
// multiplexed generation without explicit handling is acquired as MSX.
func (g Generation) Handling() (isolation.SpecialHandling, error) {
	handling, err := isolation.ParseSpecialHandling(g.SpecialHandling)
	if err != nil {
		return isolation.HandlingNone, err
	}
	if g.Multiplexed && !handling.IsMultiplexed() {
		return isolation.HandlingMsx, nil
	}
	return handling, nil
}

// ToGenerationParameters converts the entry into generation parameters.
func (g Generation) ToGenerationParameters() (isolation.GenerationParameters, error) {
	mode, err := isolation.ParseMarginMode(g.Margins)
	if err != nil {
		return isolation.GenerationParameters{}, err
	}
	handling, err := g.Handling()
	if err != nil {
		return isolation.GenerationParameters{}, err
	}

	return isolation.GenerationParameters{
		Start:             g.Start,
		End:               g.End,
		WindowWidth:       g.WindowWidth,
		OverlapPercent:    g.Overlap,
		MarginMode:        mode,
		MarginLeft:        g.MarginLeft,
		MarginRight:       g.MarginRight,
		Multiplexed:       g.Multiplexed || handling.IsMultiplexed(),
		WindowsPerScan:    g.WindowsPerScan,
		OptimizePlacement: g.OptimizePlacement,
		GenerateTarget:    g.GenerateTarget,
	}, nil
}

// DisplayName returns the scheme's name, or a positional name when it has
// none.
func (s Scheme) DisplayName(index int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("scheme %d", index+1)
}

// Layout holds the parsed grid settings of a scheme.
type Layout struct {
	MarginMode      isolation.MarginMode
	ViewMode        isolation.ViewMode
	SpecialHandling isolation.SpecialHandling
	RequireTarget   bool
}

// Layout parses the scheme's margin mode, window type and special handling.
func (s Scheme) Layout() (Layout, error) {
	mode, err := isolation.ParseMarginMode(s.Margins)
	if err != nil {
		return Layout{}, err
	}
	view, err := isolation.ParseViewMode(s.WindowType)
	if err != nil {
		return Layout{}, err
	}
	handling, err := isolation.ParseSpecialHandling(s.SpecialHandling)
	if err != nil {
		return Layout{}, err
	}
	return Layout{
		MarginMode:      mode,
		ViewMode:        view,
		SpecialHandling: handling,
		RequireTarget:   s.SpecifyTarget,
	}, nil
}

// ToRows converts the inline windows into grid rows.
func (s Scheme) ToRows() []isolation.Row {
	rows := make([]isolation.Row, 0, len(s.Windows))
	for _, w := range s.Windows {
		rows = append(rows, isolation.Row{
			Start:       w.Start,
			End:         w.End,
			Target:      w.Target,
			StartMargin: w.StartMargin,
			EndMargin:   w.EndMargin,
		})
	}
	return rows
}

// FromScheme converts a built scheme back into configuration form, in
// extraction view.
func FromScheme(s isolation.Scheme) Scheme {
	mode, requireTarget := isolation.InferLayout(s.Windows)
	entry := Scheme{
		Name:                 s.Name,
		WindowsPerScan:       s.WindowsPerScan,
		SpecifyTarget:        requireTarget,
		PrecursorFilter:      s.PrecursorFilter,
		PrecursorRightFilter: s.PrecursorRightFilter,
	}
	if s.SpecialHandling != isolation.HandlingNone {
		entry.SpecialHandling = s.SpecialHandling.String()
	}
	if mode != isolation.MarginNone {
		entry.Margins = mode.String()
		entry.WindowType = isolation.ViewExtraction.String()
	}
	for _, w := range s.Windows {
		entry.Windows = append(entry.Windows, WindowEntry(isolation.RowFromWindow(w)))
	}
	return entry
}
