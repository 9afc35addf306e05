package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// SimplexSolver solves models with gonum's dense simplex method. It is the
// default backend; an external commercial solver can replace it behind the
// Solver interface.
type SimplexSolver struct {
	logger    *zap.Logger
	tolerance float64
	timeout   time.Duration
}

// NewSimplexSolver constructs a SimplexSolver. tolerance is the pivot
// tolerance handed to the simplex routine; timeout bounds a single solve and
// is disabled when zero.
func NewSimplexSolver(logger *zap.Logger, tolerance float64, timeout time.Duration) *SimplexSolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimplexSolver{logger: logger, tolerance: tolerance, timeout: timeout}
}

type simplexOutcome struct {
	objective float64
	values    map[string]float64
	err       error
}

// Solve runs the model's objective stages in priority order. Each stage is a
// standard-form simplex solve; between stages the achieved value is locked in
// as a constraint, relaxed by the stage's tolerance. The reported objective is
// the final stage's value.
func (s *SimplexSolver) Solve(ctx context.Context, model *Model) (*Result, error) {
	if model.NumVariables() == 0 || model.NumConstraints() == 0 {
		return nil, fmt.Errorf("model %q has no variables or no constraints", model.Name)
	}
	if len(model.Objectives()) == 0 {
		return nil, fmt.Errorf("model %q has no objective", model.Name)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	outcome := make(chan simplexOutcome, 1)
	go func() {
		outcome <- s.runStages(model)
	}()

	select {
	case <-ctx.Done():
		status := StatusError
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			status = StatusTimeout
		}
		s.logger.Warn("solve interrupted",
			zap.String("op", "solver.Solve"),
			zap.String("model", model.Name),
			zap.Error(ctx.Err()),
		)
		return &Result{Status: status}, ctx.Err()
	case out := <-outcome:
		if out.err != nil {
			status := StatusError
			switch {
			case errors.Is(out.err, lp.ErrInfeasible):
				status = StatusInfeasible
			case errors.Is(out.err, lp.ErrUnbounded):
				status = StatusUnbounded
			}
			s.logger.Debug("solve finished without optimum",
				zap.String("op", "solver.Solve"),
				zap.String("model", model.Name),
				zap.String("status", status.String()),
				zap.Error(out.err),
			)
			return &Result{Status: status}, nil
		}

		s.logger.Debug("solve finished",
			zap.String("op", "solver.Solve"),
			zap.String("model", model.Name),
			zap.Float64("objective", out.objective),
		)
		return &Result{Status: StatusOptimal, Objective: out.objective, Values: out.values}, nil
	}
}

// runStages executes the lexicographic objective sequence. The lock added
// after each stage is loosened by the pivot tolerance (scaled to the achieved
// value) so that the stage's own vertex stays feasible in the next stage.
func (s *SimplexSolver) runStages(model *Model) simplexOutcome {
	names := model.Variables()
	rows := append([]Constraint(nil), model.Constraints()...)

	var achieved float64
	var solution []float64
	stages := model.Objectives()
	for k, stage := range stages {
		c, a, b := toStandardForm(names, rows, stage)
		objective, values, err := lp.Simplex(c, a, b, s.tolerance, nil)
		if err != nil {
			return simplexOutcome{err: err}
		}
		if stage.Maximize {
			objective = -objective
		}
		achieved, solution = objective, values

		if k == len(stages)-1 {
			break
		}
		slack := stage.AbsTol + s.tolerance*math.Max(1, math.Abs(achieved))
		lock := Constraint{
			Name:         fmt.Sprintf("stage_lock[%s]", stage.Name),
			Coefficients: stage.Coefficients,
		}
		if stage.Maximize {
			lock.Sense = GreaterEq
			lock.RHS = achieved - slack
		} else {
			lock.Sense = LessEq
			lock.RHS = achieved + slack
		}
		rows = append(rows, lock)
	}

	values := make(map[string]float64, len(names))
	for i, name := range names {
		values[name] = solution[i]
	}
	return simplexOutcome{objective: achieved, values: values}
}

// toStandardForm builds the standard-form data (minimize c.x s.t. Ax = b,
// x >= 0) for one objective stage. Inequality rows get a slack column; rows
// are scaled so the right-hand side is non-negative.
func toStandardForm(names []string, rows []Constraint, objective Objective) (c []float64, a *mat.Dense, b []float64) {
	slacks := 0
	for _, row := range rows {
		if row.Sense != Equal {
			slacks++
		}
	}

	n := len(names) + slacks
	m := len(rows)

	position := make(map[string]int, len(names))
	for i, name := range names {
		position[name] = i
	}

	c = make([]float64, n)
	for name, coefficient := range objective.Coefficients {
		if objective.Maximize {
			coefficient = -coefficient
		}
		c[position[name]] = coefficient
	}

	a = mat.NewDense(m, n, nil)
	b = make([]float64, m)

	slack := len(names)
	for i, row := range rows {
		scale := 1.0
		if row.RHS < 0 {
			scale = -1.0
		}
		for name, coefficient := range row.Coefficients {
			a.Set(i, position[name], scale*coefficient)
		}
		switch row.Sense {
		case LessEq:
			a.Set(i, slack, scale)
			slack++
		case GreaterEq:
			a.Set(i, slack, -scale)
			slack++
		}
		b[i] = scale * row.RHS
	}

	return c, a, b
}
