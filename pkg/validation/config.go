// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/quantfolio/rebalance/pkg/constants"
)

// ValidateOutputFormat checks that the requested output format is supported.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV:
		return nil
	}
	return fmt.Errorf("invalid output format %q (expected %q or %q)",
		format, constants.OutputFormatPretty, constants.OutputFormatCSV)
}

// ConfigValidator performs non-fatal configuration checks and collects
// warnings. Hard structural errors are rejected later by the domain problem's
// own validation.
type ConfigValidator struct {
	Assets    []AssetConfig
	Scenarios []ScenarioConfig
	Tolerance float64
}

// AssetConfig is the slice of asset data needed for warning checks.
type AssetConfig struct {
	Name           string
	MinRelExposure float64
	MaxRelExposure float64
	Segments       []SegmentConfig
}

// SegmentConfig is the slice of segment data needed for warning checks.
type SegmentConfig struct {
	Name     string
	Exposure float64
}

// ScenarioConfig is the slice of scenario data needed for warning checks.
type ScenarioConfig struct {
	Name     string
	Priority int
	Stdev    map[string]float64
}

// ValidateAll validates the entire configuration and returns warnings.
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	for _, asset := range cv.Assets {
		if asset.MinRelExposure == 1 && asset.MaxRelExposure == 1 {
			warnings = append(warnings, fmt.Sprintf(
				"Asset '%s' has both exposure bounds at 1.0 - its book is frozen and cannot be rebalanced",
				asset.Name))
		}
		for _, segment := range asset.Segments {
			if segment.Exposure == 0 {
				warnings = append(warnings, fmt.Sprintf(
					"Segment '%s/%s' has zero exposure - it cannot contribute to the rebalanced book",
					asset.Name, segment.Name))
			}
		}
	}

	for _, scenario := range cv.Scenarios {
		for _, asset := range cv.Assets {
			if _, ok := scenario.Stdev[asset.Name]; !ok {
				warnings = append(warnings, fmt.Sprintf(
					"Scenario '%s' (priority %d) has no profitability stdev for asset '%s' - treating it as riskless",
					scenario.Name, scenario.Priority, asset.Name))
			}
		}
	}

	if cv.Tolerance == 0 && len(cv.Scenarios) > 1 {
		warnings = append(warnings,
			"Objective tolerance is zero with multiple scenarios - later scenarios have no room to trade profit for risk")
	}

	return warnings
}
