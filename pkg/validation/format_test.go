package validation

import (
	"strings"
	"testing"

	"github.com/iwvelando/isolation-scheme/pkg/constants"
)

func TestValidateOutputFormat(t *testing.T) {
	for _, format := range []string{constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatYAML} {
		if err := ValidateOutputFormat(format); err != nil {
			t.Errorf("ValidateOutputFormat(%s) unexpected error = %v", format, err)
		}
	}
}

func TestValidateOutputFormatRejects(t *testing.T) {
	tests := []struct {
		name   string
		format string
	}{
		{"Unsupported json", "json"},
		{"Unsupported tsv", "tsv"},
		{"Empty", ""},
		{"Uppercase", "CSV"},
		{"Mixed case", "Yaml"},
		{"Padded", " pretty "},
		{"Prefix of a format", "yam"},
		{"Format with suffix", "pretty-table"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)
			if err == nil {
				t.Fatalf("ValidateOutputFormat(%q) expected error but got none", tt.format)
			}
			msg := err.Error()
			if !strings.Contains(msg, "pretty, csv or yaml") || !strings.HasSuffix(msg, "got "+tt.format) {
				t.Errorf("ValidateOutputFormat(%q) error = %q", tt.format, msg)
			}
		})
	}
}
