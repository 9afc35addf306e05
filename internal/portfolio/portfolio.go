// Package portfolio defines the domain model for portfolio rebalancing: assets
// partitioned into segments, the aggregate metrics derived from them, and the
// scenario definitions that drive the robust optimization sequence.
package portfolio

import (
	"github.com/quantfolio/rebalance/pkg/mathutil"
)

// Segment is a sub-partition of an asset with its own risk/return profile.
type Segment struct {
	Name            string
	Asset           string
	Exposure        float64
	Profitability   float64
	RiskWeight      float64
	SellCost        float64
	OriginationCost float64
}

// Asset groups the segments of one asset class and carries the aggregate
// metrics derived from them.
type Asset struct {
	Name              string
	Segments          []Segment
	MinRelExposure    float64
	MaxRelExposure    float64
	TotalExposure     float64
	TotalProfit       float64
	TotalRiskWeighted float64
	AverageRiskWeight float64
}

// AddSegment appends a segment to the asset and updates the aggregate metrics.
func (a *Asset) AddSegment(segment Segment) {
	segment.Asset = a.Name
	a.Segments = append(a.Segments, segment)
	a.TotalExposure += segment.Exposure
	a.TotalProfit += segment.Profitability * segment.Exposure
	a.TotalRiskWeighted += segment.Exposure * segment.RiskWeight
	if a.TotalExposure > 0 {
		a.AverageRiskWeight = a.TotalRiskWeighted / a.TotalExposure
	} else {
		a.AverageRiskWeight = 0
	}
}

// SegmentKey identifies a segment within a portfolio.
type SegmentKey struct {
	Asset   string
	Segment string
}

// Portfolio holds the assets under management and portfolio-level aggregates.
type Portfolio struct {
	Name              string
	Assets            []Asset
	TotalExposure     float64
	TotalProfit       float64
	TotalRiskWeighted float64
	AverageRiskWeight float64
}

// NewPortfolio builds a portfolio from the given assets and derives the
// portfolio-level aggregates.
func NewPortfolio(name string, assets []Asset) *Portfolio {
	p := &Portfolio{Name: name, Assets: assets}
	for _, asset := range assets {
		p.TotalExposure += asset.TotalExposure
		p.TotalProfit += asset.TotalProfit
		p.TotalRiskWeighted += asset.TotalRiskWeighted
	}
	if p.TotalExposure > 0 {
		p.AverageRiskWeight = p.TotalRiskWeighted / p.TotalExposure
	}
	return p
}

// Asset returns the named asset, or nil if the portfolio does not contain it.
func (p *Portfolio) Asset(name string) *Asset {
	for i := range p.Assets {
		if p.Assets[i].Name == name {
			return &p.Assets[i]
		}
	}
	return nil
}

// AssetNames returns the asset names in portfolio order.
func (p *Portfolio) AssetNames() []string {
	names := make([]string, len(p.Assets))
	for i := range p.Assets {
		names[i] = p.Assets[i].Name
	}
	return names
}

// SegmentKeys returns the keys of every segment in portfolio order.
func (p *Portfolio) SegmentKeys() []SegmentKey {
	var keys []SegmentKey
	for _, asset := range p.Assets {
		for _, segment := range asset.Segments {
			keys = append(keys, SegmentKey{Asset: asset.Name, Segment: segment.Name})
		}
	}
	return keys
}

// ExposureWeights returns each asset's share of total portfolio exposure in
// portfolio order.
func (p *Portfolio) ExposureWeights() []float64 {
	weights := make([]float64, len(p.Assets))
	if p.TotalExposure == 0 {
		return weights
	}
	for i := range p.Assets {
		weights[i] = p.Assets[i].TotalExposure / p.TotalExposure
	}
	return weights
}

// ApplyMultipliers rebuilds the portfolio with each segment's exposure scaled
// by the solved multiplier and rounded to a whole currency unit. Aggregates
// are re-derived from the new exposures.
func (p *Portfolio) ApplyMultipliers(name string, multipliers map[SegmentKey]float64) *Portfolio {
	assets := make([]Asset, 0, len(p.Assets))
	for _, asset := range p.Assets {
		rebuilt := Asset{
			Name:           asset.Name,
			MinRelExposure: asset.MinRelExposure,
			MaxRelExposure: asset.MaxRelExposure,
		}
		for _, segment := range asset.Segments {
			scaled := segment
			multiplier, ok := multipliers[SegmentKey{Asset: asset.Name, Segment: segment.Name}]
			if ok {
				scaled.Exposure = mathutil.RoundExposure(segment.Exposure * multiplier)
			}
			rebuilt.AddSegment(scaled)
		}
		assets = append(assets, rebuilt)
	}
	return NewPortfolio(name, assets)
}
