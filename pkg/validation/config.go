// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/isolation-scheme/pkg/isolation"
)

// ConfigValidator collects warnings for settings that are accepted but
// probably not what the author meant.
type ConfigValidator struct {
	Generations []GenerationConfig
	Schemes     []SchemeConfig
}

type GenerationConfig struct {
	Name            string
	Multiplexed     bool
	WindowsPerScan  int
	SpecialHandling string
	// Parameters is nil when the entry could not be parsed.
	Parameters *isolation.GenerationParameters
}

type SchemeConfig struct {
	Name            string
	SpecialHandling string
	WindowsPerScan  *int
	Margins         string
	WindowType      string
	WindowCount     int
	WindowsFile     string
	HasFilter       bool
}

// ValidateGeneration returns warnings for a single generation entry.
func ValidateGeneration(gen GenerationConfig) []string {
	var warnings []string

	handling, err := isolation.ParseSpecialHandling(gen.SpecialHandling)
	if err == nil {
		if gen.Multiplexed && handling != isolation.HandlingNone && !handling.IsMultiplexed() {
			warnings = append(warnings, fmt.Sprintf("Generation '%s' is multiplexed but special handling is '%s' - using msx",
				gen.Name, handling))
		}
		if !gen.Multiplexed && !handling.IsMultiplexed() && gen.WindowsPerScan != 0 {
			warnings = append(warnings, fmt.Sprintf("Generation '%s' sets windowsPerScan without multiplexing - ignored",
				gen.Name))
		}
	}

	if gen.Parameters != nil {
		for _, w := range gen.Parameters.Warnings() {
			warnings = append(warnings, fmt.Sprintf("Generation '%s': %s", gen.Name, w))
		}
	}

	return warnings
}

// ValidateScheme returns warnings for a single hand-entered scheme.
func ValidateScheme(scheme SchemeConfig) []string {
	var warnings []string

	handling, err := isolation.ParseSpecialHandling(scheme.SpecialHandling)
	if err == nil && !handling.IsMultiplexed() && scheme.WindowsPerScan != nil {
		warnings = append(warnings, fmt.Sprintf("Scheme '%s' sets windowsPerScan but special handling is '%s' - ignored",
			scheme.Name, handling))
	}

	mode, err := isolation.ParseMarginMode(scheme.Margins)
	if err == nil && mode == isolation.MarginNone && strings.TrimSpace(scheme.WindowType) != "" {
		warnings = append(warnings, fmt.Sprintf("Scheme '%s' sets windowType without margins - no effect",
			scheme.Name))
	}

	hasWindows := scheme.WindowCount > 0 || scheme.WindowsFile != ""
	if scheme.WindowCount > 0 && scheme.WindowsFile != "" {
		warnings = append(warnings, fmt.Sprintf("Scheme '%s' has inline windows and a windows file - both are used",
			scheme.Name))
	}
	if hasWindows && scheme.HasFilter {
		warnings = append(warnings, fmt.Sprintf("Scheme '%s' has windows and a precursor filter - filter ignored",
			scheme.Name))
	}

	return warnings
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	for _, gen := range cv.Generations {
		warnings = append(warnings, ValidateGeneration(gen)...)
	}

	for _, scheme := range cv.Schemes {
		warnings = append(warnings, ValidateScheme(scheme)...)
	}

	return warnings
}
