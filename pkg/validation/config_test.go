package validation

import (
	"strings"
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"pretty", false},
		{"csv", false},
		{"json", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateOutputFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateOutputFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func validValidator() ConfigValidator {
	return ConfigValidator{
		Assets: []AssetConfig{
			{
				Name:           "A1",
				MinRelExposure: 0.5,
				MaxRelExposure: 1.5,
				Segments:       []SegmentConfig{{Name: "s1", Exposure: 100}},
			},
		},
		Scenarios: []ScenarioConfig{
			{Name: "baseline", Priority: 1, Stdev: map[string]float64{"A1": 0.1}},
		},
		Tolerance: 5,
	}
}

func TestValidateAll(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ConfigValidator)
		warning string
	}{
		{
			name:   "valid config has no warnings",
			mutate: func(cv *ConfigValidator) {},
		},
		{
			name: "frozen asset",
			mutate: func(cv *ConfigValidator) {
				cv.Assets[0].MinRelExposure = 1
				cv.Assets[0].MaxRelExposure = 1
			},
			warning: "frozen",
		},
		{
			name: "zero exposure segment",
			mutate: func(cv *ConfigValidator) {
				cv.Assets[0].Segments[0].Exposure = 0
			},
			warning: "zero exposure",
		},
		{
			name: "missing stdev",
			mutate: func(cv *ConfigValidator) {
				cv.Scenarios[0].Stdev = map[string]float64{}
			},
			warning: "no profitability stdev",
		},
		{
			name: "zero tolerance with multiple scenarios",
			mutate: func(cv *ConfigValidator) {
				cv.Tolerance = 0
				cv.Scenarios = append(cv.Scenarios, ScenarioConfig{
					Name: "second", Priority: 2, Stdev: map[string]float64{"A1": 0.2},
				})
			},
			warning: "tolerance is zero",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := validValidator()
			tt.mutate(&cv)
			warnings := cv.ValidateAll()

			if tt.warning == "" {
				if len(warnings) != 0 {
					t.Errorf("unexpected warnings: %v", warnings)
				}
				return
			}

			found := false
			for _, warning := range warnings {
				if strings.Contains(strings.ToLower(warning), tt.warning) {
					found = true
				}
			}
			if !found {
				t.Errorf("warnings %v do not mention %q", warnings, tt.warning)
			}
		})
	}
}
