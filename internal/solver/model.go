// Package solver provides a small linear-programming model abstraction and the
// solver backends that run it. The Solver interface is the seam for plugging
// in an external solver; the default backend is a dense simplex.
package solver

import (
	"fmt"
)

// Sense is the direction of a linear constraint row.
type Sense int

const (
	// LessEq constrains the row to be at most the right-hand side.
	LessEq Sense = iota
	// Equal constrains the row to equal the right-hand side.
	Equal
	// GreaterEq constrains the row to be at least the right-hand side.
	GreaterEq
)

// Constraint is a single linear constraint over named variables.
type Constraint struct {
	Name         string
	Coefficients map[string]float64
	Sense        Sense
	RHS          float64
}

// Objective is one stage of a lexicographic objective sequence. Stages are
// optimized in order; after each stage the achieved value is locked in,
// relaxed by AbsTol, before the next stage runs. A model with a single stage
// is an ordinary LP.
type Objective struct {
	Name         string
	Coefficients map[string]float64
	Maximize     bool
	AbsTol       float64
}

// Model is a linear program over named non-negative variables with one or
// more prioritized objective stages.
type Model struct {
	Name       string
	variables  []string
	index      map[string]int
	objectives []Objective
	rows       []Constraint
}

// NewModel creates an empty model.
func NewModel(name string) *Model {
	return &Model{
		Name:  name,
		index: make(map[string]int),
	}
}

// AddVariable registers a non-negative decision variable.
func (m *Model) AddVariable(name string) error {
	if _, exists := m.index[name]; exists {
		return fmt.Errorf("variable %q already defined", name)
	}
	m.index[name] = len(m.variables)
	m.variables = append(m.variables, name)
	return nil
}

// HasVariable reports whether the named variable is defined.
func (m *Model) HasVariable(name string) bool {
	_, ok := m.index[name]
	return ok
}

// AddObjective appends an objective stage. Every referenced variable must
// already be defined.
func (m *Model) AddObjective(o Objective) error {
	for name := range o.Coefficients {
		if _, ok := m.index[name]; !ok {
			return fmt.Errorf("objective %q references unknown variable %q", o.Name, name)
		}
	}
	if o.AbsTol < 0 {
		return fmt.Errorf("objective %q has negative tolerance %v", o.Name, o.AbsTol)
	}
	m.objectives = append(m.objectives, o)
	return nil
}

// AddConstraint appends a constraint row. Every referenced variable must
// already be defined.
func (m *Model) AddConstraint(c Constraint) error {
	for name := range c.Coefficients {
		if _, ok := m.index[name]; !ok {
			return fmt.Errorf("constraint %q references unknown variable %q", c.Name, name)
		}
	}
	m.rows = append(m.rows, c)
	return nil
}

// Variables returns the variable names in definition order.
func (m *Model) Variables() []string {
	return m.variables
}

// Constraints returns the constraint rows in insertion order.
func (m *Model) Constraints() []Constraint {
	return m.rows
}

// Constraint returns the named constraint row, or false if absent.
func (m *Model) Constraint(name string) (Constraint, bool) {
	for _, row := range m.rows {
		if row.Name == name {
			return row, true
		}
	}
	return Constraint{}, false
}

// NumVariables returns the number of decision variables.
func (m *Model) NumVariables() int {
	return len(m.variables)
}

// NumConstraints returns the number of constraint rows.
func (m *Model) NumConstraints() int {
	return len(m.rows)
}

// Objectives returns the objective stages in priority order.
func (m *Model) Objectives() []Objective {
	return m.objectives
}
