package portfolio

import (
	"fmt"
	"math"

	"github.com/quantfolio/rebalance/pkg/constants"
	"github.com/quantfolio/rebalance/pkg/mathutil"
)

// Validation error categories. Callers use these to decide which input to
// relax before retrying.
const (
	CategoryPriority    = "priority"
	CategoryReference   = "reference"
	CategoryBounds      = "bounds"
	CategoryCorrelation = "correlation"
	CategoryParameter   = "parameter"
)

// ValidationError describes malformed input detected before any solver call.
type ValidationError struct {
	Category string
	Detail   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input (%s): %s", e.Category, e.Detail)
}

func validationErrorf(category, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Category: category, Detail: fmt.Sprintf(format, args...)}
}

// Validate checks every structural invariant of the problem. It is called
// before the first solver invocation; any error aborts the whole run.
func (p *Problem) Validate() error {
	if p.Portfolio == nil || len(p.Portfolio.Assets) == 0 {
		return validationErrorf(CategoryParameter, "portfolio has no assets")
	}
	if len(p.Scenarios) == 0 {
		return validationErrorf(CategoryParameter, "no scenarios defined")
	}
	if p.RiskWeightCap < 0 {
		return validationErrorf(CategoryParameter, "risk weight cap %v is negative", p.RiskWeightCap)
	}
	if p.ZScore < 0 {
		return validationErrorf(CategoryParameter, "z-score %v is negative", p.ZScore)
	}
	if p.Tolerance < 0 {
		return validationErrorf(CategoryParameter, "objective tolerance %v is negative", p.Tolerance)
	}

	for _, asset := range p.Portfolio.Assets {
		if err := validateAsset(asset); err != nil {
			return err
		}
	}

	seen := make(map[int]string)
	for _, scenario := range p.Scenarios {
		if previous, ok := seen[scenario.Priority]; ok {
			return validationErrorf(CategoryPriority,
				"scenarios %q and %q share priority %d; priorities must be distinct",
				previous, scenario.Name, scenario.Priority)
		}
		seen[scenario.Priority] = scenario.Name
		if err := p.validateScenario(scenario); err != nil {
			return err
		}
	}

	return nil
}

func validateAsset(asset Asset) error {
	if len(asset.Segments) == 0 {
		return validationErrorf(CategoryParameter, "asset %q has no segments", asset.Name)
	}
	if asset.MinRelExposure < 0 {
		return validationErrorf(CategoryBounds,
			"asset %q has negative lower exposure bound %v", asset.Name, asset.MinRelExposure)
	}
	if asset.MinRelExposure > asset.MaxRelExposure {
		return validationErrorf(CategoryBounds,
			"asset %q has lower exposure bound %v above upper bound %v",
			asset.Name, asset.MinRelExposure, asset.MaxRelExposure)
	}
	for _, segment := range asset.Segments {
		if segment.Exposure < 0 {
			return validationErrorf(CategoryParameter,
				"segment %s/%s has negative exposure %v", asset.Name, segment.Name, segment.Exposure)
		}
		if segment.RiskWeight < 0 {
			return validationErrorf(CategoryParameter,
				"segment %s/%s has negative risk weight %v", asset.Name, segment.Name, segment.RiskWeight)
		}
		if segment.SellCost < 0 || segment.OriginationCost < 0 {
			return validationErrorf(CategoryParameter,
				"segment %s/%s has negative transaction cost", asset.Name, segment.Name)
		}
	}
	return nil
}

func (p *Problem) validateScenario(scenario Scenario) error {
	for name, stdev := range scenario.Stdev {
		if p.Portfolio.Asset(name) == nil {
			return validationErrorf(CategoryReference,
				"scenario %q (priority %d) references unknown asset %q in stdev data",
				scenario.Name, scenario.Priority, name)
		}
		if stdev < 0 {
			return validationErrorf(CategoryParameter,
				"scenario %q (priority %d) has negative stdev %v for asset %q",
				scenario.Name, scenario.Priority, stdev, name)
		}
	}

	for from, row := range scenario.Correlations {
		if p.Portfolio.Asset(from) == nil {
			return validationErrorf(CategoryReference,
				"scenario %q (priority %d) references unknown asset %q in correlation data",
				scenario.Name, scenario.Priority, from)
		}
		for to, value := range row {
			if p.Portfolio.Asset(to) == nil {
				return validationErrorf(CategoryReference,
					"scenario %q (priority %d) references unknown asset %q in correlation data",
					scenario.Name, scenario.Priority, to)
			}
			if math.Abs(value) > 1+constants.CorrelationTolerance {
				return validationErrorf(CategoryCorrelation,
					"scenario %q (priority %d) correlation %q-%q is %v, outside [-1, 1]",
					scenario.Name, scenario.Priority, from, to, value)
			}
			if from == to && math.Abs(value-1) > constants.CorrelationTolerance {
				return validationErrorf(CategoryCorrelation,
					"scenario %q (priority %d) has non-unit diagonal entry %v for asset %q",
					scenario.Name, scenario.Priority, value, from)
			}
			if mirror, ok := scenario.Correlations[to]; ok {
				if mirrored, ok := mirror[from]; ok && !withinSymmetry(value, mirrored) {
					return validationErrorf(CategoryCorrelation,
						"scenario %q (priority %d) correlation matrix is asymmetric: %q-%q is %v but %q-%q is %v",
						scenario.Name, scenario.Priority, from, to, value, to, from, mirrored)
				}
			}
		}
	}

	return nil
}

func withinSymmetry(a, b float64) bool {
	return mathutil.WithinTolerance(a, b, constants.CorrelationTolerance)
}
