package mathutil

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ZScore returns the standard-normal quantile for the given one-sided
// confidence level, e.g. 0.95 -> 1.6449, 0.975 -> 1.96.
func ZScore(confidenceLevel float64) float64 {
	return distuv.UnitNormal.Quantile(confidenceLevel)
}

// PortfolioStdev computes sqrt(w' C w) where C_ij = stdev_i * stdev_j * corr_ij
// and w holds the exposure weights of each asset. corr is indexed the same way
// as stdevs and weights.
func PortfolioStdev(stdevs, weights []float64, corr mat.Symmetric) float64 {
	n := len(stdevs)
	if n == 0 {
		return 0
	}
	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov.SetSym(i, j, stdevs[i]*stdevs[j]*corr.At(i, j))
		}
	}
	w := mat.NewVecDense(n, weights)
	variance := mat.Inner(w, cov, w)
	if variance < 0 {
		// Rounding noise on a near-zero quadratic form.
		return 0
	}
	return math.Sqrt(variance)
}

// Downside computes the dollar-denominated profit shortfall bound at the given
// z-score: z * expectedProfit * sqrt(w' C w).
func Downside(zScore, expectedProfit float64, stdevs, weights []float64, corr mat.Symmetric) float64 {
	return zScore * expectedProfit * PortfolioStdev(stdevs, weights, corr)
}
