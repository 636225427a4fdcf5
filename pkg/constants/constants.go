// Package constants provides shared constants for the isolation-scheme application.
package constants

// Precision constants
const (
	// MaxDecimalPlaces is the most decimal places shown for an m/z value
	MaxDecimalPlaces = 4

	// MzTolerance is the tolerance for comparing m/z values after arithmetic
	MzTolerance = 1e-9

	// DisplayTolerance is the tolerance for comparing m/z values that were
	// rounded for display
	DisplayTolerance = 1e-4
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatYAML writes schemes in configuration form
	OutputFormatYAML = "yaml"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// ServiceName identifies the API in its logs
	ServiceName = "isolation-scheme"
)

// Scheme sources
const (
	// SourceGenerated marks a scheme produced by window generation
	SourceGenerated = "generated"

	// SourceManual marks a scheme entered window by window
	SourceManual = "manual"

	// SourceResults marks a scheme that takes its widths from results
	SourceResults = "results"
)
