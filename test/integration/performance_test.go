package integration

import (
	"os"
	"testing"
	"time"

	"github.com/iwvelando/isolation-scheme/internal/config"
	"github.com/iwvelando/isolation-scheme/internal/scheme"
	"github.com/iwvelando/isolation-scheme/pkg/constants"
	"github.com/iwvelando/isolation-scheme/pkg/isolation"
	"github.com/iwvelando/isolation-scheme/pkg/testutil"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

// TestPerformance tests performance characteristics
func TestPerformance(t *testing.T) {
	logger := zap.NewNop()

	start := time.Now()
	conf, err := config.LoadConfiguration("../test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration failed: %v", err)
	}
	loadTime := time.Since(start)

	start = time.Now()
	results, err := scheme.BuildSchemes(logger, *conf)
	if err != nil {
		t.Fatalf("BuildSchemes failed: %v", err)
	}
	buildTime := time.Since(start)

	totalTime := loadTime + buildTime
	t.Logf("Performance metrics:")
	t.Logf("  Load config: %v", loadTime)
	t.Logf("  Build schemes: %v", buildTime)
	t.Logf("  Total time: %v", totalTime)

	if totalTime > 5*time.Second {
		t.Errorf("Total processing time %v exceeds 5 second threshold", totalTime)
	}
	if len(results) != 6 {
		t.Errorf("Expected 6 results, got %d", len(results))
	}
}

// TestGenerationLimit generates the largest scheme the instrument range
// allows and validates it
func TestGenerationLimit(t *testing.T) {
	params := isolation.GenerationParameters{
		Start:          isolation.MinMz,
		End:            isolation.MaxMz,
		WindowWidth:    1,
		MarginMode:     isolation.MarginAsymmetric,
		MarginLeft:     0.25,
		MarginRight:    0.5,
		GenerateTarget: true,
	}

	start := time.Now()
	windows := isolation.Generate(params)
	err := isolation.ValidateScheme(isolation.Scheme{Name: "limit", Windows: windows},
		isolation.ValidationOptions{RequireTarget: true})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("ValidateScheme() error = %v", err)
	}
	if len(windows) != isolation.MaxGeneratedWindows {
		t.Errorf("generated %d windows, expected %d", len(windows), isolation.MaxGeneratedWindows)
	}
	if warnings := params.Warnings(); len(warnings) != 1 {
		t.Errorf("expected a window limit warning, got %v", warnings)
	}
	t.Logf("Generated and validated %d windows in %v", len(windows), elapsed)
	if elapsed > time.Second {
		t.Errorf("generation took %v, expected under a second", elapsed)
	}
}

// TestMemoryUsage runs repeated builds to check for leaks
func TestMemoryUsage(t *testing.T) {
	logger := zap.NewNop()

	for i := 0; i < 10; i++ {
		conf, err := config.LoadConfiguration("../test_config.yaml")
		if err != nil {
			t.Fatalf("LoadConfiguration failed on iteration %d: %v", i, err)
		}

		if _, err := scheme.BuildSchemes(logger, *conf); err != nil {
			t.Fatalf("BuildSchemes failed on iteration %d: %v", i, err)
		}
	}

	t.Log("Successfully completed 10 iterations without memory issues")
}

// TestDataConsistency validates that multiple runs produce identical results
func TestDataConsistency(t *testing.T) {
	logger := zap.NewNop()

	var runs [2][]scheme.Result
	for i := range runs {
		conf, err := config.LoadConfiguration("../test_config.yaml")
		if err != nil {
			t.Fatalf("LoadConfiguration failed on run %d: %v", i, err)
		}
		runs[i], err = scheme.BuildSchemes(logger, *conf)
		if err != nil {
			t.Fatalf("BuildSchemes failed on run %d: %v", i, err)
		}
	}

	if len(runs[0]) != len(runs[1]) {
		t.Fatalf("runs produced %d and %d schemes", len(runs[0]), len(runs[1]))
	}
	for i := range runs[0] {
		first, second := runs[0][i], runs[1][i]
		if first.Name != second.Name {
			t.Errorf("scheme %d named %s then %s", i, first.Name, second.Name)
			continue
		}
		if err := testutil.WindowsMatch(second.Scheme.Windows, first.Scheme.Windows, constants.MzTolerance); err != nil {
			t.Errorf("scheme %s differs between runs: %v", first.Name, err)
		}
	}
}

// TestConfigurationVariations builds generations across overlap, margin
// and multiplexing settings
func TestConfigurationVariations(t *testing.T) {
	tests := []struct {
		name   string
		gen    config.Generation
		expect int
	}{
		{
			name:   "Plain",
			gen:    config.Generation{Name: "plain", Start: 400, End: 1000, WindowWidth: 20},
			expect: 30,
		},
		{
			name: "Overlap with targets",
			gen: config.Generation{Name: "overlap", Start: 400, End: 1000, WindowWidth: 20,
				Overlap: 50, GenerateTarget: true, SpecialHandling: "overlap"},
			expect: 60,
		},
		{
			name: "Asymmetric margins",
			gen: config.Generation{Name: "asym", Start: 400, End: 1000, WindowWidth: 20,
				Margins: "asymmetric", MarginLeft: 1, MarginRight: 2},
			expect: 30,
		},
		{
			name: "Multiplexed rounded up",
			gen: config.Generation{Name: "msx", Start: 400, End: 1000, WindowWidth: 7,
				Multiplexed: true, WindowsPerScan: 4},
			expect: 88,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := scheme.BuildGeneration(zap.NewNop(), tt.gen, 0)
			if err != nil {
				t.Fatalf("BuildGeneration() error = %v", err)
			}
			if got := len(result.Scheme.Windows); got != tt.expect {
				t.Errorf("generated %d windows, expected %d", got, tt.expect)
			}
		})
	}
}
