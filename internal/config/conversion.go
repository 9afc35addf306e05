package config

import (
	"fmt"

	"github.com/quantfolio/rebalance/internal/portfolio"
	"github.com/quantfolio/rebalance/pkg/constants"
	"github.com/quantfolio/rebalance/pkg/mathutil"
)

// ToProblem converts the loaded configuration into the immutable domain
// problem. Structural invariants are checked afterwards by Problem.Validate;
// this only rejects what cannot be represented at all.
func (conf *Configuration) ToProblem() (*portfolio.Problem, error) {
	assets := make([]portfolio.Asset, 0, len(conf.Portfolio.Assets))
	for _, assetConf := range conf.Portfolio.Assets {
		asset := portfolio.Asset{
			Name:           assetConf.Name,
			MinRelExposure: constants.DefaultMinRelExposure,
			MaxRelExposure: constants.DefaultMaxRelExposure,
		}
		if assetConf.MaxExposureDecrease != nil {
			asset.MinRelExposure = 1 - *assetConf.MaxExposureDecrease
		}
		if assetConf.MaxExposureIncrease != nil {
			asset.MaxRelExposure = 1 + *assetConf.MaxExposureIncrease
		}
		for _, segmentConf := range assetConf.Segments {
			asset.AddSegment(portfolio.Segment{
				Name:            segmentConf.Name,
				Exposure:        segmentConf.Exposure,
				Profitability:   segmentConf.Profitability,
				RiskWeight:      segmentConf.RiskWeight,
				SellCost:        segmentConf.SellCost,
				OriginationCost: segmentConf.OriginationCost,
			})
		}
		assets = append(assets, asset)
	}

	name := conf.Portfolio.Name
	if name == "" {
		name = "portfolio"
	}

	zScore, err := conf.resolveZScore()
	if err != nil {
		return nil, err
	}

	scenarios := make([]portfolio.Scenario, 0, len(conf.Scenarios))
	for _, scenarioConf := range conf.Scenarios {
		scenario := portfolio.Scenario{
			Name:         scenarioConf.Name,
			Priority:     scenarioConf.Priority,
			Stdev:        make(map[string]float64),
			Correlations: make(map[string]map[string]float64),
		}
		for _, scenarioAsset := range scenarioConf.Assets {
			scenario.Stdev[scenarioAsset.Name] = scenarioAsset.StdevProfitability
			if len(scenarioAsset.Correlations) > 0 {
				row := make(map[string]float64, len(scenarioAsset.Correlations))
				for other, value := range scenarioAsset.Correlations {
					row[other] = value
				}
				scenario.Correlations[scenarioAsset.Name] = row
			}
		}
		scenarios = append(scenarios, scenario)
	}

	return &portfolio.Problem{
		Portfolio:     portfolio.NewPortfolio(name, assets),
		RiskWeightCap: conf.Portfolio.RiskWeightCap,
		ZScore:        zScore,
		Scenarios:     scenarios,
		Tolerance:     conf.Portfolio.ObjectiveTolerance,
	}, nil
}

// resolveZScore derives the z-score from the configured confidence level
// unless an explicit z-score override is given.
func (conf *Configuration) resolveZScore() (float64, error) {
	if conf.Portfolio.ZScore > 0 {
		return conf.Portfolio.ZScore, nil
	}
	confidence := conf.Portfolio.ConfidenceLevel
	if confidence == 0 {
		confidence = constants.DefaultConfidenceLevel
	}
	if confidence <= 0 || confidence >= 1 {
		return 0, fmt.Errorf("confidence level %v must be strictly between 0 and 1", confidence)
	}
	return mathutil.ZScore(confidence), nil
}
