package rebalancer

import (
	"fmt"

	"github.com/quantfolio/rebalance/internal/solver"
)

// ScenarioError reports the scenario at which the sequence broke. Later
// scenarios depend on the failed iteration's result, so the whole run aborts.
type ScenarioError struct {
	Scenario string
	Priority int
	Status   solver.Status
	Err      error
}

func (e *ScenarioError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scenario %q (priority %d) failed with status %s: %v",
			e.Scenario, e.Priority, e.Status, e.Err)
	}
	return fmt.Sprintf("scenario %q (priority %d) failed with status %s",
		e.Scenario, e.Priority, e.Status)
}

func (e *ScenarioError) Unwrap() error {
	return e.Err
}
