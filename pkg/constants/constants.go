// Package constants provides shared constants for the rebalance application.
package constants

// Financial constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// DefaultConfidenceLevel is the confidence level used to derive the z-score
	// when the configuration does not specify one
	DefaultConfidenceLevel = 0.95

	// DefaultMinRelExposure is the default lower bound on an asset's exposure
	// relative to its current exposure
	DefaultMinRelExposure = 0.5

	// DefaultMaxRelExposure is the default upper bound on an asset's exposure
	// relative to its current exposure
	DefaultMaxRelExposure = 1.5
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// Solver defaults
const (
	// DefaultSolverTolerance is the pivot tolerance handed to the simplex backend
	DefaultSolverTolerance = 1e-10

	// DefaultSolverTimeout is the per-iteration solver timeout
	DefaultSolverTimeout = "60s"
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// CorrelationTolerance is the tolerance used when checking correlation
	// matrix symmetry and the unit diagonal
	CorrelationTolerance = 1e-9

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)
