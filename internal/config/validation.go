package config

import (
	"github.com/quantfolio/rebalance/pkg/constants"
	"github.com/quantfolio/rebalance/pkg/validation"
)

// ValidateConfiguration runs the non-fatal checks and returns warnings for
// display. Hard input errors surface later from the domain validation, before
// any solver call.
func (conf *Configuration) ValidateConfiguration() []string {
	cv := validation.ConfigValidator{Tolerance: conf.Portfolio.ObjectiveTolerance}

	for _, asset := range conf.Portfolio.Assets {
		minRel := constants.DefaultMinRelExposure
		maxRel := constants.DefaultMaxRelExposure
		if asset.MaxExposureDecrease != nil {
			minRel = 1 - *asset.MaxExposureDecrease
		}
		if asset.MaxExposureIncrease != nil {
			maxRel = 1 + *asset.MaxExposureIncrease
		}
		assetConfig := validation.AssetConfig{
			Name:           asset.Name,
			MinRelExposure: minRel,
			MaxRelExposure: maxRel,
		}
		for _, segment := range asset.Segments {
			assetConfig.Segments = append(assetConfig.Segments, validation.SegmentConfig{
				Name:     segment.Name,
				Exposure: segment.Exposure,
			})
		}
		cv.Assets = append(cv.Assets, assetConfig)
	}

	for _, scenario := range conf.Scenarios {
		scenarioConfig := validation.ScenarioConfig{
			Name:     scenario.Name,
			Priority: scenario.Priority,
			Stdev:    make(map[string]float64),
		}
		for _, asset := range scenario.Assets {
			scenarioConfig.Stdev[asset.Name] = asset.StdevProfitability
		}
		cv.Scenarios = append(cv.Scenarios, scenarioConfig)
	}

	return cv.ValidateAll()
}
