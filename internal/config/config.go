// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/iwvelando/isolation-scheme/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for isolation-scheme.
type Configuration struct {
	Logging     LoggingConfig `yaml:"logging,omitempty"`
	Output      OutputConfig  `yaml:"output,omitempty"`
	Generations []Generation  `yaml:"generations,omitempty"`
	Schemes     []Scheme      `yaml:"schemes,omitempty"`

	// baseDir resolves relative window file paths.
	baseDir string
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, yaml
}

// Generation describes a scheme calculated from a regular tiling of an m/z
// range.
type Generation struct {
	Name              string  `yaml:"name"`
	Start             float64 `yaml:"start"`
	End               float64 `yaml:"end"`
	WindowWidth       float64 `yaml:"windowWidth"`
	Overlap           float64 `yaml:"overlap,omitempty"` // percent
	Margins           string  `yaml:"margins,omitempty"` // none, symmetric, asymmetric
	MarginLeft        float64 `yaml:"marginLeft,omitempty"`
	MarginRight       float64 `yaml:"marginRight,omitempty"`
	Multiplexed       bool    `yaml:"multiplexed,omitempty"`
	WindowsPerScan    int     `yaml:"windowsPerScan,omitempty"`
	OptimizePlacement bool    `yaml:"optimizePlacement,omitempty"`
	GenerateTarget    bool    `yaml:"generateTarget,omitempty"`
	SpecialHandling   string  `yaml:"specialHandling,omitempty"`
}

// Scheme describes a scheme entered window by window, or one that takes
// its isolation widths from results when only precursor filters are set.
type Scheme struct {
	Name            string `yaml:"name"`
	SpecialHandling string `yaml:"specialHandling,omitempty"`
	WindowsPerScan  *int   `yaml:"windowsPerScan,omitempty"`
	SpecifyTarget   bool   `yaml:"specifyTarget,omitempty"`
	Margins         string `yaml:"margins,omitempty"`
	// WindowType says whether window bounds include the margins
	// (isolation) or not (extraction).
	WindowType           string        `yaml:"windowType,omitempty"`
	Windows              []WindowEntry `yaml:"windows,omitempty"`
	WindowsFile          string        `yaml:"windowsFile,omitempty"`
	PrecursorFilter      *float64      `yaml:"precursorFilter,omitempty"`
	PrecursorRightFilter *float64      `yaml:"precursorRightFilter,omitempty"`
}

// WindowEntry is one row of a hand-entered scheme. Missing fields are
// reported when the scheme is built.
type WindowEntry struct {
	Start       *float64 `yaml:"start,omitempty"`
	End         *float64 `yaml:"end,omitempty"`
	Target      *float64 `yaml:"target,omitempty"`
	StartMargin *float64 `yaml:"startMargin,omitempty"`
	EndMargin   *float64 `yaml:"endMargin,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	configuration, err := decode(v)
	if err != nil {
		return nil, err
	}
	configuration.baseDir = filepath.Dir(configPath)

	return configuration, nil
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
// Relative window file paths resolve against the working directory.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	err := v.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// ResolvePath returns path relative to the configuration file's directory.
func (c *Configuration) ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) || c.baseDir == "" {
		return path
	}
	return filepath.Join(c.baseDir, path)
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	validator := validation.ConfigValidator{}

	for i, generation := range c.Generations {
		info := validation.GenerationConfig{
			Name:            generation.DisplayName(i),
			Multiplexed:     generation.Multiplexed,
			WindowsPerScan:  generation.WindowsPerScan,
			SpecialHandling: generation.SpecialHandling,
		}
		if params, err := generation.ToGenerationParameters(); err == nil {
			info.Parameters = &params
		}
		validator.Generations = append(validator.Generations, info)
	}

	for i, scheme := range c.Schemes {
		validator.Schemes = append(validator.Schemes, validation.SchemeConfig{
			Name:            scheme.DisplayName(i),
			SpecialHandling: scheme.SpecialHandling,
			WindowsPerScan:  scheme.WindowsPerScan,
			Margins:         scheme.Margins,
			WindowType:      scheme.WindowType,
			WindowCount:     len(scheme.Windows),
			WindowsFile:     scheme.WindowsFile,
			HasFilter:       scheme.PrecursorFilter != nil,
		})
	}

	return validator.ValidateAll()
}
