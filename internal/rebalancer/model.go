package rebalancer

import (
	"fmt"
	"math"

	"github.com/quantfolio/rebalance/internal/portfolio"
	"github.com/quantfolio/rebalance/internal/solver"
)

// Variable naming scheme for the per-iteration sub-problems.
const totalExposureVar = "total_exposure"

func segmentVar(key portfolio.SegmentKey) string {
	return fmt.Sprintf("x[%s/%s]", key.Asset, key.Segment)
}

func increaseVar(key portfolio.SegmentKey) string {
	return fmt.Sprintf("increase[%s/%s]", key.Asset, key.Segment)
}

func decreaseVar(key portfolio.SegmentKey) string {
	return fmt.Sprintf("decrease[%s/%s]", key.Asset, key.Segment)
}

func assetVar(name string) string {
	return fmt.Sprintf("exposure[%s]", name)
}

func gammaVar(priority int) string {
	return fmt.Sprintf("gamma[%d]", priority)
}

// netProfitCoefficients returns the coefficients of the net-profit expression
// (expected profit minus transaction costs) over the model variables.
func netProfitCoefficients(p *portfolio.Portfolio) map[string]float64 {
	coefficients := make(map[string]float64)
	for _, asset := range p.Assets {
		for _, segment := range asset.Segments {
			key := portfolio.SegmentKey{Asset: asset.Name, Segment: segment.Name}
			coefficients[segmentVar(key)] = segment.Profitability * segment.Exposure
			coefficients[increaseVar(key)] = -segment.OriginationCost * segment.Exposure
			coefficients[decreaseVar(key)] = -segment.SellCost * segment.Exposure
		}
	}
	return coefficients
}

// buildScenarioModel assembles the sub-problem for one scenario iteration: the
// base rebalancing constraints, every constraint carried over from prior
// iterations, and this scenario's linearized downside constraint. The
// objectives run lexicographically: net profit is maximized first, then the
// scenario's gamma is minimized with the profit allowed to regress by at most
// the configured tolerance. The model is built fresh each pass; nothing is
// shared across iterations.
func buildScenarioModel(problem *portfolio.Problem, scenario portfolio.Scenario, carried []solver.Constraint, point map[portfolio.SegmentKey]float64) (*solver.Model, error) {
	p := problem.Portfolio
	model := solver.NewModel(fmt.Sprintf("rebalance[%s]", scenario.Name))

	for _, key := range p.SegmentKeys() {
		for _, name := range []string{segmentVar(key), increaseVar(key), decreaseVar(key)} {
			if err := model.AddVariable(name); err != nil {
				return nil, err
			}
		}
	}
	if err := model.AddVariable(totalExposureVar); err != nil {
		return nil, err
	}
	for _, asset := range p.Assets {
		if err := model.AddVariable(assetVar(asset.Name)); err != nil {
			return nil, err
		}
	}
	gamma := gammaVar(scenario.Priority)
	if err := model.AddVariable(gamma); err != nil {
		return nil, err
	}

	// x = 1 + increase - decrease per segment.
	for _, key := range p.SegmentKeys() {
		err := model.AddConstraint(solver.Constraint{
			Name: fmt.Sprintf("segment_balance[%s/%s]", key.Asset, key.Segment),
			Coefficients: map[string]float64{
				segmentVar(key):  1,
				increaseVar(key): -1,
				decreaseVar(key): 1,
			},
			Sense: solver.Equal,
			RHS:   1,
		})
		if err != nil {
			return nil, err
		}
	}

	// Total exposure definition: sum(exposure_s * x_s) = E.
	totalRow := map[string]float64{totalExposureVar: -1}
	for _, asset := range p.Assets {
		for _, segment := range asset.Segments {
			key := portfolio.SegmentKey{Asset: asset.Name, Segment: segment.Name}
			totalRow[segmentVar(key)] = segment.Exposure
		}
	}
	err := model.AddConstraint(solver.Constraint{
		Name:         "total_exposure_balance",
		Coefficients: totalRow,
		Sense:        solver.Equal,
		RHS:          0,
	})
	if err != nil {
		return nil, err
	}

	// Portfolio risk-weight cap: sum(exposure_s * rw_s * x_s) <= cap * E.
	riskRow := map[string]float64{totalExposureVar: -problem.RiskWeightCap}
	for _, asset := range p.Assets {
		for _, segment := range asset.Segments {
			key := portfolio.SegmentKey{Asset: asset.Name, Segment: segment.Name}
			riskRow[segmentVar(key)] = segment.Exposure * segment.RiskWeight
		}
	}
	err = model.AddConstraint(solver.Constraint{
		Name:         "risk_weight_cap",
		Coefficients: riskRow,
		Sense:        solver.LessEq,
		RHS:          0,
	})
	if err != nil {
		return nil, err
	}

	// Per-asset exposure definition and bounds.
	for _, asset := range p.Assets {
		assetRow := map[string]float64{assetVar(asset.Name): -1}
		for _, segment := range asset.Segments {
			key := portfolio.SegmentKey{Asset: asset.Name, Segment: segment.Name}
			assetRow[segmentVar(key)] = segment.Exposure
		}
		err = model.AddConstraint(solver.Constraint{
			Name:         fmt.Sprintf("asset_exposure[%s]", asset.Name),
			Coefficients: assetRow,
			Sense:        solver.Equal,
			RHS:          0,
		})
		if err != nil {
			return nil, err
		}

		err = model.AddConstraint(solver.Constraint{
			Name:         fmt.Sprintf("asset_lower[%s]", asset.Name),
			Coefficients: map[string]float64{assetVar(asset.Name): 1},
			Sense:        solver.GreaterEq,
			RHS:          asset.MinRelExposure * asset.TotalExposure,
		})
		if err != nil {
			return nil, err
		}
		err = model.AddConstraint(solver.Constraint{
			Name:         fmt.Sprintf("asset_upper[%s]", asset.Name),
			Coefficients: map[string]float64{assetVar(asset.Name): 1},
			Sense:        solver.LessEq,
			RHS:          asset.MaxRelExposure * asset.TotalExposure,
		})
		if err != nil {
			return nil, err
		}
	}

	// Constraints accumulated from prior iterations.
	for _, row := range carried {
		if err := model.AddConstraint(row); err != nil {
			return nil, err
		}
	}

	// This scenario's downside constraint: gamma >= linearized risk term.
	gradient, rhs := linearizeDownside(problem, scenario, point)
	riskConstraint := map[string]float64{gamma: 1}
	for name, coefficient := range gradient {
		riskConstraint[name] = -coefficient
	}
	err = model.AddConstraint(solver.Constraint{
		Name:         fmt.Sprintf("downside[%d]", scenario.Priority),
		Coefficients: riskConstraint,
		Sense:        solver.GreaterEq,
		RHS:          rhs,
	})
	if err != nil {
		return nil, err
	}

	err = model.AddObjective(solver.Objective{
		Name:         "net_profit",
		Coefficients: netProfitCoefficients(p),
		Maximize:     true,
		AbsTol:       problem.Tolerance,
	})
	if err != nil {
		return nil, err
	}
	err = model.AddObjective(solver.Objective{
		Name:         "downside",
		Coefficients: map[string]float64{gamma: 1},
	})
	if err != nil {
		return nil, err
	}

	return model, nil
}

// linearizeDownside builds the first-order expansion of the downside term
//
//	g(x) = z * P(x) * sqrt(sum_ij sigma_i sigma_j rho_ij e_i(x) e_j(x)) / E(x)
//
// around the given multiplier point. g is positively homogeneous of degree one
// in x, so the expansion g(x0) + grad.(x - x0) collapses to grad.x; the
// returned right-hand side carries the residual for numerical safety. A zero
// gradient (no variance at the point) degenerates the constraint to gamma >= 0.
func linearizeDownside(problem *portfolio.Problem, scenario portfolio.Scenario, point map[portfolio.SegmentKey]float64) (map[string]float64, float64) {
	p := problem.Portfolio
	assetNames := p.AssetNames()
	stdevs := scenario.StdevVector(assetNames)
	corr := scenario.CorrelationMatrix(assetNames)

	assetIndex := make(map[string]int, len(assetNames))
	for i, name := range assetNames {
		assetIndex[name] = i
	}

	// Exposures and gross profit at the linearization point.
	exposures := make([]float64, len(assetNames))
	var totalExposure, grossProfit float64
	for _, asset := range p.Assets {
		i := assetIndex[asset.Name]
		for _, segment := range asset.Segments {
			multiplier := pointMultiplier(point, asset.Name, segment.Name)
			exposures[i] += segment.Exposure * multiplier
			grossProfit += segment.Profitability * segment.Exposure * multiplier
		}
		totalExposure += exposures[i]
	}
	if totalExposure <= 0 {
		return nil, 0
	}

	// Dollar-scale quadratic form and its per-asset partials.
	var quadratic float64
	partials := make([]float64, len(assetNames))
	for i := range assetNames {
		for j := range assetNames {
			term := stdevs[i] * stdevs[j] * corr.At(i, j) * exposures[j]
			quadratic += term * exposures[i]
			partials[i] += 2 * term
		}
	}
	if quadratic <= 0 {
		return nil, 0
	}

	stdev := math.Sqrt(quadratic) / totalExposure
	z := problem.ZScore

	gradient := make(map[string]float64)
	var taken float64
	for _, asset := range p.Assets {
		i := assetIndex[asset.Name]
		for _, segment := range asset.Segments {
			key := portfolio.SegmentKey{Asset: asset.Name, Segment: segment.Name}
			dVariance := segment.Exposure * (partials[i] - 2*quadratic/totalExposure) /
				(totalExposure * totalExposure)
			grad := z * (segment.Profitability*segment.Exposure*stdev +
				grossProfit*dVariance/(2*stdev))
			gradient[segmentVar(key)] = grad
			taken += grad * pointMultiplier(point, asset.Name, segment.Name)
		}
	}

	value := z * grossProfit * stdev
	return gradient, value - taken
}

// pointMultiplier reads a multiplier from the linearization point, defaulting
// to the current book (multiplier of one).
func pointMultiplier(point map[portfolio.SegmentKey]float64, asset, segment string) float64 {
	if point == nil {
		return 1
	}
	if value, ok := point[portfolio.SegmentKey{Asset: asset, Segment: segment}]; ok {
		return value
	}
	return 1
}
