// Package config defines the data structures related to configuration and
// includes functions for loading, validating, and converting the config into
// the domain model.
package config

import (
	"fmt"
	"io"
	"time"

	"github.com/quantfolio/rebalance/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for a rebalancing run.
type Configuration struct {
	Portfolio PortfolioConfig
	Scenarios []ScenarioConfig
	Solver    SolverConfig  `yaml:"solver,omitempty"`
	Logging   LoggingConfig `yaml:"logging,omitempty"`
	Output    OutputConfig  `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// SolverConfig holds solver backend configuration options.
type SolverConfig struct {
	Tolerance    float64 `yaml:"tolerance,omitempty"`
	Timeout      string  `yaml:"timeout,omitempty"`
	AllowPartial bool    `yaml:"allowPartial,omitempty"`
}

// PortfolioConfig describes the book under management and the portfolio-level
// optimization parameters.
type PortfolioConfig struct {
	Name               string
	RiskWeightCap      float64
	ConfidenceLevel    float64
	ZScore             float64
	ObjectiveTolerance float64
	Assets             []AssetConfig
}

// AssetConfig describes one asset class and its segments. The exposure bounds
// are expressed as maximum relative decrease/increase from the current book.
type AssetConfig struct {
	Name                string
	MaxExposureDecrease *float64
	MaxExposureIncrease *float64
	Segments            []SegmentConfig
}

// SegmentConfig describes one segment of an asset.
type SegmentConfig struct {
	Name            string
	Exposure        float64
	Profitability   float64
	RiskWeight      float64
	SellCost        float64
	OriginationCost float64
}

// ScenarioConfig describes one profit-variability scenario. Priority is the
// integer rank; lower values are more important and are processed first.
type ScenarioConfig struct {
	Name     string
	Priority int
	Assets   []ScenarioAssetConfig
}

// ScenarioAssetConfig carries the per-asset variability inputs of a scenario.
type ScenarioAssetConfig struct {
	Name               string
	StdevProfitability float64
	Correlations       map[string]float64
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return unmarshalConfiguration(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from the
// given reader. Used by the HTTP server for uploaded configs.
func LoadConfigurationFromReader(reader io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(reader); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	return unmarshalConfiguration(v)
}

func unmarshalConfiguration(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	err := v.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// SolverTimeout parses the configured solver timeout, falling back to the
// default when unset.
func (conf *Configuration) SolverTimeout() (time.Duration, error) {
	value := conf.Solver.Timeout
	if value == "" {
		value = constants.DefaultSolverTimeout
	}
	timeout, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid solver timeout %q: %w", conf.Solver.Timeout, err)
	}
	if timeout < 0 {
		return 0, fmt.Errorf("solver timeout %q is negative", conf.Solver.Timeout)
	}
	return timeout, nil
}

// SolverTolerance returns the configured pivot tolerance, falling back to the
// default when unset.
func (conf *Configuration) SolverTolerance() float64 {
	if conf.Solver.Tolerance > 0 {
		return conf.Solver.Tolerance
	}
	return constants.DefaultSolverTolerance
}
