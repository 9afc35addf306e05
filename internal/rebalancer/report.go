package rebalancer

import (
	"github.com/quantfolio/rebalance/internal/portfolio"
	"github.com/quantfolio/rebalance/pkg/constants"
	"github.com/quantfolio/rebalance/pkg/mathutil"
)

// SegmentDecision is the recommended action for one segment.
type SegmentDecision struct {
	Asset             string  `json:"asset"`
	Segment           string  `json:"segment"`
	Multiplier        float64 `json:"multiplier"`
	InitialExposure   float64 `json:"initialExposure"`
	OptimizedExposure float64 `json:"optimizedExposure"`
	ExposureChange    float64 `json:"exposureChange"`
}

// AssetSummary aggregates the decisions for one asset.
type AssetSummary struct {
	Name              string  `json:"name"`
	InitialExposure   float64 `json:"initialExposure"`
	OptimizedExposure float64 `json:"optimizedExposure"`
	AverageRiskWeight float64 `json:"averageRiskWeight"`
	SharePercent      float64 `json:"sharePercent"`
}

// ScenarioOutcome is the realized result at one priority level.
type ScenarioOutcome struct {
	Scenario  string  `json:"scenario"`
	Priority  int     `json:"priority"`
	Downside  float64 `json:"downside"`
	NetProfit float64 `json:"netProfit"`
}

// Report is the authoritative result of the full scenario sequence. The
// recommended multipliers come from the final iteration's solution; the
// scenario outcomes preserve each priority level's realized downside and net
// profit in processing order.
type Report struct {
	Decisions         []SegmentDecision `json:"decisions"`
	Assets            []AssetSummary    `json:"assets"`
	Scenarios         []ScenarioOutcome `json:"scenarios"`
	InitialExposure   float64           `json:"initialExposure"`
	OptimizedExposure float64           `json:"optimizedExposure"`
	ExpectedProfit    float64           `json:"expectedProfit"`
	TransactionCost   float64           `json:"transactionCost"`
	NetProfit         float64           `json:"netProfit"`
	AverageRiskWeight float64           `json:"averageRiskWeight"`
	TotalDownside     float64           `json:"totalDownside"`
	SolverCalls       int               `json:"solverCalls"`
	Partial           bool              `json:"partial,omitempty"`
}

// realizedDownside evaluates the exact downside term for a scenario at the
// given multipliers: z * profit * sqrt of the correlation-weighted quadratic
// form over the realized exposure weights.
func realizedDownside(problem *portfolio.Problem, scenario portfolio.Scenario, multipliers map[portfolio.SegmentKey]float64, grossProfit float64) float64 {
	p := problem.Portfolio
	assetNames := p.AssetNames()

	weights := make([]float64, len(assetNames))
	var total float64
	for i, asset := range p.Assets {
		for _, segment := range asset.Segments {
			weights[i] += segment.Exposure * pointMultiplier(multipliers, asset.Name, segment.Name)
		}
		total += weights[i]
	}
	if total <= 0 {
		return 0
	}
	for i := range weights {
		weights[i] /= total
	}

	return mathutil.Downside(problem.ZScore, grossProfit,
		scenario.StdevVector(assetNames), weights, scenario.CorrelationMatrix(assetNames))
}

// buildReport derives the final report from the iteration state. KPIs are
// computed from the rebalanced portfolio with exposures rounded to whole
// currency units, matching how the recommended book would actually be held.
func buildReport(problem *portfolio.Problem, state *IterationState, calls int, partial bool) *Report {
	report := &Report{SolverCalls: calls, Partial: partial}
	if len(state.Records) == 0 {
		return report
	}

	final := state.Records[len(state.Records)-1]
	p := problem.Portfolio
	optimized := p.ApplyMultipliers(p.Name+"_optimized", final.Multipliers)

	shares := optimized.ExposureWeights()
	for assetIndex, asset := range p.Assets {
		rebalanced := optimized.Asset(asset.Name)
		for i, segment := range asset.Segments {
			newExposure := rebalanced.Segments[i].Exposure
			report.Decisions = append(report.Decisions, SegmentDecision{
				Asset:             asset.Name,
				Segment:           segment.Name,
				Multiplier:        pointMultiplier(final.Multipliers, asset.Name, segment.Name),
				InitialExposure:   segment.Exposure,
				OptimizedExposure: newExposure,
				ExposureChange:    newExposure - segment.Exposure,
			})
		}
		report.Assets = append(report.Assets, AssetSummary{
			Name:              asset.Name,
			InitialExposure:   asset.TotalExposure,
			OptimizedExposure: rebalanced.TotalExposure,
			AverageRiskWeight: rebalanced.AverageRiskWeight,
			SharePercent:      mathutil.Round(shares[assetIndex] * constants.PercentageMultiplier),
		})
	}

	for _, record := range state.Records {
		report.Scenarios = append(report.Scenarios, ScenarioOutcome{
			Scenario:  record.Scenario,
			Priority:  record.Priority,
			Downside:  record.Downside,
			NetProfit: record.NetProfit,
		})
	}

	report.InitialExposure = p.TotalExposure
	report.OptimizedExposure = optimized.TotalExposure
	report.ExpectedProfit = optimized.TotalProfit
	report.AverageRiskWeight = optimized.AverageRiskWeight
	for _, decision := range report.Decisions {
		segment := findSegment(p, decision.Asset, decision.Segment)
		if segment == nil {
			continue
		}
		if decision.ExposureChange > 0 {
			report.TransactionCost += decision.ExposureChange * segment.OriginationCost
		} else if decision.ExposureChange < 0 {
			report.TransactionCost += -decision.ExposureChange * segment.SellCost
		}
	}
	report.ExpectedProfit = mathutil.Round(report.ExpectedProfit)
	report.TransactionCost = mathutil.Round(report.TransactionCost)
	report.NetProfit = mathutil.Round(report.ExpectedProfit - report.TransactionCost)

	// Aggregate downside: each completed scenario's exact downside term
	// evaluated at the final multipliers.
	for _, record := range state.Records {
		scenario := findScenario(problem, record.Priority)
		if scenario == nil {
			continue
		}
		report.TotalDownside += realizedDownside(problem, *scenario, final.Multipliers, grossProfitAt(p, final.Multipliers))
	}
	report.TotalDownside = mathutil.Round(report.TotalDownside)

	return report
}

func findSegment(p *portfolio.Portfolio, assetName, segmentName string) *portfolio.Segment {
	asset := p.Asset(assetName)
	if asset == nil {
		return nil
	}
	for i := range asset.Segments {
		if asset.Segments[i].Name == segmentName {
			return &asset.Segments[i]
		}
	}
	return nil
}

func findScenario(problem *portfolio.Problem, priority int) *portfolio.Scenario {
	for i := range problem.Scenarios {
		if problem.Scenarios[i].Priority == priority {
			return &problem.Scenarios[i]
		}
	}
	return nil
}

func grossProfitAt(p *portfolio.Portfolio, multipliers map[portfolio.SegmentKey]float64) float64 {
	var profit float64
	for _, asset := range p.Assets {
		for _, segment := range asset.Segments {
			profit += segment.Profitability * segment.Exposure *
				pointMultiplier(multipliers, asset.Name, segment.Name)
		}
	}
	return profit
}
