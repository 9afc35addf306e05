package portfolio

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Scenario is a hypothesized profit-variability regime with an assigned
// priority. Lower priority values are more important and are optimized first.
// Scenarios are immutable once defined.
type Scenario struct {
	Name         string
	Priority     int
	Stdev        map[string]float64
	Correlations map[string]map[string]float64
}

// Correlation returns the correlation between two assets under this scenario.
// The diagonal is 1; missing off-diagonal pairs are treated as uncorrelated.
func (s Scenario) Correlation(a, b string) float64 {
	if a == b {
		return 1
	}
	if row, ok := s.Correlations[a]; ok {
		if value, ok := row[b]; ok {
			return value
		}
	}
	if row, ok := s.Correlations[b]; ok {
		if value, ok := row[a]; ok {
			return value
		}
	}
	return 0
}

// CorrelationMatrix assembles the symmetric correlation matrix over the given
// asset order.
func (s Scenario) CorrelationMatrix(assetOrder []string) *mat.SymDense {
	n := len(assetOrder)
	corr := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			corr.SetSym(i, j, s.Correlation(assetOrder[i], assetOrder[j]))
		}
	}
	return corr
}

// StdevVector returns the per-asset profit standard deviations over the given
// asset order. Assets without an entry get zero.
func (s Scenario) StdevVector(assetOrder []string) []float64 {
	stdevs := make([]float64, len(assetOrder))
	for i, name := range assetOrder {
		stdevs[i] = s.Stdev[name]
	}
	return stdevs
}

// Problem is the full static input to the rebalancing sequence. It is
// constructed once and never mutated afterwards.
type Problem struct {
	Portfolio     *Portfolio
	RiskWeightCap float64
	ZScore        float64
	Scenarios     []Scenario
	Tolerance     float64
}

// SortedScenarios returns the scenarios ordered by ascending priority without
// modifying the problem.
func (p *Problem) SortedScenarios() []Scenario {
	sorted := make([]Scenario, len(p.Scenarios))
	copy(sorted, p.Scenarios)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return sorted
}
