// Package config holds the tunable parameters of the analysis pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/MohaMazouz/latewatch/internal/common"
)

// Delay holds the rule-engine day thresholds. An invoice up to OnTimeMaxDays
// past due is still within terms; between OnTimeMaxDays+1 and LateMaxDays it
// is late; beyond LateMaxDays it is excessively late.
type Delay struct {
	OnTimeMaxDays int
	LateMaxDays   int
}

// Risk holds the client risk scoring points and thresholds.
type Risk struct {
	SevereDelayPoints   int // average days late above LateMaxDays
	ModerateDelayPoints int // average days late above OnTimeMaxDays
	OverrunPoints       int // outstanding above a nonzero caution
	NoCautionPoints     int // outstanding with no caution on file
	BlockThreshold      int
	HighRiskThreshold   int
	WatchThreshold      int
	WatchWindowMinDays  int // lower bound of the pre-escalation watch band
	MaxActionsPerBucket int
}

// Training holds the model adapter hyperparameters.
type Training struct {
	Rounds       int
	LearningRate float64
	MaxDepth     int
	MinLeafSize  int
	TestFraction float64
	OversampleK  int
	Seed         int64
	ShowProgress bool
}

// Pipeline is the full configuration for one analysis run. The zero AsOf
// means "resolve to wall clock once at startup"; the core never reads the
// clock implicitly.
type Pipeline struct {
	AsOf              time.Time
	RiskFactors       map[int]float64
	Delay             Delay
	Risk              Risk
	Training          Training
	RollingWindow     int
	TopN              int
	PaymentRegularity float64
	ClientRiskTrend   float64
}

// Default returns the production defaults.
func Default() Pipeline {
	return Pipeline{
		Delay: Delay{
			OnTimeMaxDays: 30,
			LateMaxDays:   60,
		},
		Risk: Risk{
			SevereDelayPoints:   5,
			ModerateDelayPoints: 3,
			OverrunPoints:       4,
			NoCautionPoints:     2,
			BlockThreshold:      7,
			HighRiskThreshold:   5,
			WatchThreshold:      3,
			WatchWindowMinDays:  45,
			MaxActionsPerBucket: 10,
		},
		Training: Training{
			Rounds:       60,
			LearningRate: 0.1,
			MaxDepth:     3,
			MinLeafSize:  5,
			TestFraction: 0.2,
			OversampleK:  5,
			Seed:         42,
			ShowProgress: true,
		},
		RiskFactors: map[int]float64{
			0: 0.05,
			1: 0.20,
			2: 0.50,
		},
		RollingWindow:     5,
		TopN:              10,
		PaymentRegularity: 0.8,
		ClientRiskTrend:   0.2,
	}
}

// FromViper builds a Pipeline from the bound viper state, applying defaults
// for anything unset.
func FromViper() (Pipeline, error) {
	cfg := Default()

	if v := viper.GetString("pipeline.as_of"); v != "" {
		ts, err := time.Parse("2006-01-02", v)
		if err != nil {
			return cfg, fmt.Errorf("%w: pipeline.as_of %q: %v", common.ErrInvalidConfig, v, err)
		}
		cfg.AsOf = ts
	}
	if v := viper.GetInt("pipeline.rolling_window"); v > 0 {
		cfg.RollingWindow = v
	}
	if v := viper.GetInt("pipeline.top_n"); v > 0 {
		cfg.TopN = v
	}
	if v := viper.GetInt("delay.on_time_max_days"); v > 0 {
		cfg.Delay.OnTimeMaxDays = v
	}
	if v := viper.GetInt("delay.late_max_days"); v > 0 {
		cfg.Delay.LateMaxDays = v
	}
	if v := viper.GetInt("risk.block_threshold"); v > 0 {
		cfg.Risk.BlockThreshold = v
	}
	if v := viper.GetInt("risk.high_risk_threshold"); v > 0 {
		cfg.Risk.HighRiskThreshold = v
	}
	if v := viper.GetInt("risk.watch_threshold"); v > 0 {
		cfg.Risk.WatchThreshold = v
	}
	if v := viper.GetInt("training.rounds"); v > 0 {
		cfg.Training.Rounds = v
	}
	if v := viper.GetFloat64("training.learning_rate"); v > 0 {
		cfg.Training.LearningRate = v
	}
	if v := viper.GetInt("training.max_depth"); v > 0 {
		cfg.Training.MaxDepth = v
	}
	if viper.GetBool("training.no_progress") {
		cfg.Training.ShowProgress = false
	}
	if viper.IsSet("risk_factors") {
		factors := viper.GetStringMap("risk_factors")
		for k := range factors {
			var class int
			if _, err := fmt.Sscanf(k, "%d", &class); err != nil {
				return cfg, fmt.Errorf("%w: risk_factors key %q", common.ErrInvalidConfig, k)
			}
			cfg.RiskFactors[class] = viper.GetFloat64("risk_factors." + k)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field consistency.
func (p Pipeline) Validate() error {
	if p.Delay.OnTimeMaxDays >= p.Delay.LateMaxDays {
		return fmt.Errorf("%w: on-time threshold %d must be below late threshold %d",
			common.ErrInvalidConfig, p.Delay.OnTimeMaxDays, p.Delay.LateMaxDays)
	}
	if p.RollingWindow < 1 {
		return fmt.Errorf("%w: rolling window must be at least 1", common.ErrInvalidConfig)
	}
	if p.Training.TestFraction <= 0 || p.Training.TestFraction >= 1 {
		return fmt.Errorf("%w: test fraction must be in (0, 1)", common.ErrInvalidConfig)
	}
	for class, factor := range p.RiskFactors {
		if factor < 0 || factor > 1 {
			return fmt.Errorf("%w: risk factor for class %d out of [0, 1]", common.ErrInvalidConfig, class)
		}
	}
	return nil
}

// Now returns the evaluation timestamp, resolving the zero value to the
// current wall clock exactly once at the call site.
func (p Pipeline) Now() time.Time {
	if p.AsOf.IsZero() {
		return time.Now()
	}
	return p.AsOf
}

// DatabasePath returns the sqlite database location, creating the parent
// directory if necessary.
func DatabasePath() (string, error) {
	if path := viper.GetString("database.path"); path != "" {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	dir := filepath.Join(home, ".local", "share", "latewatch")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return filepath.Join(dir, "latewatch.db"), nil
}
