// Package rebalancer implements the scenario-sequenced robust rebalancing
// procedure: for each scenario in priority order it augments the base
// rebalancing problem with that scenario's downside constraint, re-optimizes,
// and freezes the achieved objective as a constraint for all later iterations.
package rebalancer

import (
	"context"
	"errors"
	"fmt"

	"github.com/quantfolio/rebalance/internal/portfolio"
	"github.com/quantfolio/rebalance/internal/solver"
	"go.uber.org/zap"
)

// Options control run behavior.
type Options struct {
	// AllowPartial reports the completed iterations as a best-effort partial
	// result when the sequence is cancelled or times out mid-run, instead of
	// failing the whole run.
	AllowPartial bool
}

// Rebalancer runs the scenario sequence against a solver backend.
type Rebalancer struct {
	logger  *zap.Logger
	backend solver.Solver
	options Options
}

// New constructs a Rebalancer.
func New(logger *zap.Logger, backend solver.Solver, options Options) (*Rebalancer, error) {
	if backend == nil {
		return nil, fmt.Errorf("solver backend cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rebalancer{logger: logger, backend: backend, options: options}, nil
}

// IterationRecord captures the outcome of one scenario iteration.
type IterationRecord struct {
	Scenario       string
	Priority       int
	Downside       float64
	NetProfit      float64
	ExpectedProfit float64
	Multipliers    map[portfolio.SegmentKey]float64
}

// IterationState accumulates the constraints and per-iteration outcomes
// across the scenario sequence. It is owned solely by the orchestrator and is
// returned as an audit trail inside the final report.
type IterationState struct {
	Carried []solver.Constraint
	Records []IterationRecord
}

// Rebalance validates the problem and runs the full scenario sequence. Each
// scenario costs exactly one solver call. Any non-optimal solver status aborts
// the sequence with a ScenarioError naming the offending scenario, unless the
// partial-results policy applies.
func (r *Rebalancer) Rebalance(ctx context.Context, problem *portfolio.Problem) (*Report, error) {
	if err := problem.Validate(); err != nil {
		return nil, err
	}

	scenarios := problem.SortedScenarios()
	state := &IterationState{}
	point := map[portfolio.SegmentKey]float64{}
	calls := 0

	for _, scenario := range scenarios {
		// No new iteration starts after cancellation is observed.
		if err := ctx.Err(); err != nil {
			return r.finishEarly(problem, state, calls, err)
		}

		model, err := buildScenarioModel(problem, scenario, state.Carried, point)
		if err != nil {
			return nil, fmt.Errorf("failed to build sub-problem for scenario %q: %w", scenario.Name, err)
		}

		r.logger.Debug("solving scenario sub-problem",
			zap.String("op", "rebalancer.Rebalance"),
			zap.String("scenario", scenario.Name),
			zap.Int("priority", scenario.Priority),
			zap.Int("constraints", model.NumConstraints()),
		)

		calls++
		result, err := r.backend.Solve(ctx, model)
		if err != nil && result == nil {
			return nil, &ScenarioError{
				Scenario: scenario.Name,
				Priority: scenario.Priority,
				Status:   solver.StatusError,
				Err:      err,
			}
		}
		if result.Status != solver.StatusOptimal {
			interrupted := result.Status == solver.StatusTimeout ||
				errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
			if interrupted && r.options.AllowPartial {
				return r.finishEarly(problem, state, calls, err)
			}
			return nil, &ScenarioError{
				Scenario: scenario.Name,
				Priority: scenario.Priority,
				Status:   result.Status,
				Err:      err,
			}
		}

		record := r.recordIteration(problem, scenario, result)
		state.Records = append(state.Records, record)

		// Freeze this iteration's outcome for all later iterations: the
		// downside may not regrow past the value realized at this solution,
		// and the net profit may not regress below it by more than the
		// configured tolerance. The cap re-linearizes around the solved point,
		// where the linear expression equals the exact downside, so the point
		// itself always satisfies the cap.
		gradient, rhs := linearizeDownside(problem, scenario, record.Multipliers)
		if len(gradient) > 0 {
			state.Carried = append(state.Carried, solver.Constraint{
				Name:         fmt.Sprintf("downside_cap[%d]", scenario.Priority),
				Coefficients: gradient,
				Sense:        solver.LessEq,
				RHS:          record.Downside - rhs,
			})
		}
		state.Carried = append(state.Carried, solver.Constraint{
			Name:         fmt.Sprintf("net_profit_floor[%d]", scenario.Priority),
			Coefficients: netProfitCoefficients(problem.Portfolio),
			Sense:        solver.GreaterEq,
			RHS:          record.NetProfit - problem.Tolerance,
		})

		r.logger.Info("scenario iteration complete",
			zap.String("op", "rebalancer.Rebalance"),
			zap.String("scenario", scenario.Name),
			zap.Int("priority", scenario.Priority),
			zap.Float64("downside", record.Downside),
			zap.Float64("netProfit", record.NetProfit),
		)

		point = record.Multipliers
	}

	return buildReport(problem, state, calls, false), nil
}

// recordIteration extracts the solved multipliers and evaluates the realized
// net profit and the exact (non-linearized) downside term at the solution.
func (r *Rebalancer) recordIteration(problem *portfolio.Problem, scenario portfolio.Scenario, result *solver.Result) IterationRecord {
	p := problem.Portfolio

	multipliers := make(map[portfolio.SegmentKey]float64)
	var netProfit, grossProfit float64
	for _, asset := range p.Assets {
		for _, segment := range asset.Segments {
			key := portfolio.SegmentKey{Asset: asset.Name, Segment: segment.Name}
			multipliers[key] = result.Value(segmentVar(key))
			grossProfit += segment.Profitability * segment.Exposure * multipliers[key]
			netProfit += segment.Profitability*segment.Exposure*multipliers[key] -
				segment.OriginationCost*segment.Exposure*result.Value(increaseVar(key)) -
				segment.SellCost*segment.Exposure*result.Value(decreaseVar(key))
		}
	}

	return IterationRecord{
		Scenario:       scenario.Name,
		Priority:       scenario.Priority,
		Downside:       realizedDownside(problem, scenario, multipliers, grossProfit),
		NetProfit:      netProfit,
		ExpectedProfit: grossProfit,
		Multipliers:    multipliers,
	}
}

// finishEarly applies the partial-results policy after a cancellation or
// timeout: completed iterations are reported when the caller opted in and at
// least one scenario finished, otherwise the interruption is terminal.
func (r *Rebalancer) finishEarly(problem *portfolio.Problem, state *IterationState, calls int, cause error) (*Report, error) {
	if r.options.AllowPartial && len(state.Records) > 0 {
		r.logger.Warn("scenario sequence interrupted, reporting partial results",
			zap.String("op", "rebalancer.Rebalance"),
			zap.Int("completedScenarios", len(state.Records)),
			zap.Error(cause),
		)
		return buildReport(problem, state, calls, true), nil
	}
	if cause == nil {
		cause = context.Canceled
	}
	return nil, fmt.Errorf("scenario sequence interrupted after %d completed scenarios: %w",
		len(state.Records), cause)
}
