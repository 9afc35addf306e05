package solver

import (
	"context"
	"math"
	"testing"
)

func buildModel(t *testing.T, objectives []Objective, rows []Constraint) *Model {
	t.Helper()
	model := NewModel("test")
	seen := map[string]bool{}
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			if err := model.AddVariable(name); err != nil {
				t.Fatal(err)
			}
		}
	}
	for _, objective := range objectives {
		for name := range objective.Coefficients {
			add(name)
		}
	}
	for _, row := range rows {
		for name := range row.Coefficients {
			add(name)
		}
	}
	for _, row := range rows {
		if err := model.AddConstraint(row); err != nil {
			t.Fatal(err)
		}
	}
	for _, objective := range objectives {
		if err := model.AddObjective(objective); err != nil {
			t.Fatal(err)
		}
	}
	return model
}

func singleObjective(maximize bool, coefficients map[string]float64) []Objective {
	return []Objective{{Name: "main", Coefficients: coefficients, Maximize: maximize}}
}

func TestSimplexSolve(t *testing.T) {
	tests := []struct {
		name       string
		objectives []Objective
		rows       []Constraint
		wantStatus Status
		wantObj    float64
		wantValues map[string]float64
	}{
		{
			name:       "maximize with two constraints",
			objectives: singleObjective(true, map[string]float64{"x": 3, "y": 2}),
			rows: []Constraint{
				{Name: "cap", Coefficients: map[string]float64{"x": 1, "y": 1}, Sense: LessEq, RHS: 4},
				{Name: "xcap", Coefficients: map[string]float64{"x": 1}, Sense: LessEq, RHS: 2},
			},
			wantStatus: StatusOptimal,
			wantObj:    10,
			wantValues: map[string]float64{"x": 2, "y": 2},
		},
		{
			name:       "minimize with lower bound",
			objectives: singleObjective(false, map[string]float64{"x": 1}),
			rows: []Constraint{
				{Name: "floor", Coefficients: map[string]float64{"x": 1}, Sense: GreaterEq, RHS: 3},
			},
			wantStatus: StatusOptimal,
			wantObj:    3,
			wantValues: map[string]float64{"x": 3},
		},
		{
			name:       "equality constraint",
			objectives: singleObjective(true, map[string]float64{"x": 1, "y": 1}),
			rows: []Constraint{
				{Name: "split", Coefficients: map[string]float64{"x": 1, "y": 2}, Sense: Equal, RHS: 6},
				{Name: "xcap", Coefficients: map[string]float64{"x": 1}, Sense: LessEq, RHS: 4},
			},
			wantStatus: StatusOptimal,
			wantObj:    5,
			wantValues: map[string]float64{"x": 4, "y": 1},
		},
		{
			name:       "negative right-hand side is rescaled",
			objectives: singleObjective(false, map[string]float64{"x": 1}),
			rows: []Constraint{
				{Name: "floor", Coefficients: map[string]float64{"x": -1}, Sense: LessEq, RHS: -3},
			},
			wantStatus: StatusOptimal,
			wantObj:    3,
			wantValues: map[string]float64{"x": 3},
		},
		{
			name:       "infeasible",
			objectives: singleObjective(false, map[string]float64{"x": 1}),
			rows: []Constraint{
				{Name: "cap", Coefficients: map[string]float64{"x": 1}, Sense: LessEq, RHS: 1},
				{Name: "floor", Coefficients: map[string]float64{"x": 1}, Sense: GreaterEq, RHS: 2},
			},
			wantStatus: StatusInfeasible,
		},
		{
			name:       "unbounded",
			objectives: singleObjective(true, map[string]float64{"x": 1}),
			rows: []Constraint{
				{Name: "floor", Coefficients: map[string]float64{"x": 1}, Sense: GreaterEq, RHS: 1},
			},
			wantStatus: StatusUnbounded,
		},
	}

	backend := NewSimplexSolver(nil, 1e-10, 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := buildModel(t, tt.objectives, tt.rows)

			result, err := backend.Solve(context.Background(), model)
			if err != nil {
				t.Fatalf("Solve() error = %v", err)
			}
			if result.Status != tt.wantStatus {
				t.Fatalf("Solve() status = %s, want %s", result.Status, tt.wantStatus)
			}
			if tt.wantStatus != StatusOptimal {
				return
			}
			if math.Abs(result.Objective-tt.wantObj) > 1e-6 {
				t.Errorf("Solve() objective = %v, want %v", result.Objective, tt.wantObj)
			}
			for name, want := range tt.wantValues {
				if got := result.Value(name); math.Abs(got-want) > 1e-6 {
					t.Errorf("Solve() %s = %v, want %v", name, got, want)
				}
			}
		})
	}
}

func TestSimplexLexicographicStages(t *testing.T) {
	// Stage one maximizes x+y to 5 (x=2, y=3); stage two minimizes x inside
	// the stage-one lock x+y >= 4, forcing x down to 1.
	objectives := []Objective{
		{Name: "total", Coefficients: map[string]float64{"x": 1, "y": 1}, Maximize: true, AbsTol: 1},
		{Name: "first", Coefficients: map[string]float64{"x": 1}},
	}
	rows := []Constraint{
		{Name: "xcap", Coefficients: map[string]float64{"x": 1}, Sense: LessEq, RHS: 2},
		{Name: "ycap", Coefficients: map[string]float64{"y": 1}, Sense: LessEq, RHS: 3},
	}
	model := buildModel(t, objectives, rows)

	backend := NewSimplexSolver(nil, 1e-10, 0)
	result, err := backend.Solve(context.Background(), model)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if result.Status != StatusOptimal {
		t.Fatalf("Solve() status = %s, want optimal", result.Status)
	}
	if math.Abs(result.Objective-1) > 1e-6 {
		t.Errorf("final stage objective = %v, want 1", result.Objective)
	}
	if got := result.Value("x"); math.Abs(got-1) > 1e-6 {
		t.Errorf("x = %v, want 1", got)
	}
	if got := result.Value("y"); math.Abs(got-3) > 1e-6 {
		t.Errorf("y = %v, want 3", got)
	}
}

func TestSimplexStageLockKeepsOwnOptimum(t *testing.T) {
	// With zero stage tolerance the second stage is pinned to the first
	// stage's optimum; the lock must not cut off the optimal vertex itself.
	objectives := []Objective{
		{Name: "total", Coefficients: map[string]float64{"x": 1, "y": 1}, Maximize: true},
		{Name: "first", Coefficients: map[string]float64{"x": 1}},
	}
	rows := []Constraint{
		{Name: "cap", Coefficients: map[string]float64{"x": 1, "y": 1}, Sense: LessEq, RHS: 4},
	}
	model := buildModel(t, objectives, rows)

	backend := NewSimplexSolver(nil, 1e-10, 0)
	result, err := backend.Solve(context.Background(), model)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if result.Status != StatusOptimal {
		t.Fatalf("Solve() status = %s, want optimal", result.Status)
	}
	if got := result.Value("x") + result.Value("y"); math.Abs(got-4) > 1e-6 {
		t.Errorf("x+y = %v, want 4 preserved from stage one", got)
	}
	if got := result.Value("x"); math.Abs(got) > 1e-6 {
		t.Errorf("x = %v, want 0", got)
	}
}

func TestSimplexRejectsEmptyModel(t *testing.T) {
	backend := NewSimplexSolver(nil, 1e-10, 0)
	if _, err := backend.Solve(context.Background(), NewModel("empty")); err == nil {
		t.Error("Solve() accepted a model with no variables")
	}

	// Variables and constraints but no objective stage.
	model := NewModel("no_objective")
	if err := model.AddVariable("x"); err != nil {
		t.Fatal(err)
	}
	err := model.AddConstraint(Constraint{
		Name:         "cap",
		Coefficients: map[string]float64{"x": 1},
		Sense:        LessEq,
		RHS:          1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := backend.Solve(context.Background(), model); err == nil {
		t.Error("Solve() accepted a model with no objective")
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusOptimal, "optimal"},
		{StatusInfeasible, "infeasible"},
		{StatusUnbounded, "unbounded"},
		{StatusTimeout, "timeout"},
		{StatusError, "error"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}