package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*SimulationOptions)(nil)

// SimulationOptions holds the reconciliation cadence and perturbation constants.
// Every field except RandomSeed can be hot-reloaded from the config file.
type SimulationOptions struct {
	// TickInterval is the cadence of reconciliation.
	TickInterval time.Duration `json:"tick-interval" mapstructure:"tick-interval"`

	// PositionJitterDeg bounds the per-tick movement in degrees.
	PositionJitterDeg float64 `json:"position-jitter-deg" mapstructure:"position-jitter-deg"`

	SpeedJitterStep         float64 `json:"speed-jitter-step" mapstructure:"speed-jitter-step"`
	SpeedChangeProbability  float64 `json:"speed-change-probability" mapstructure:"speed-change-probability"`
	BatteryDrainProbability float64 `json:"battery-drain-probability" mapstructure:"battery-drain-probability"`
	TransitionProbability   float64 `json:"transition-probability" mapstructure:"transition-probability"`

	// RandomSeed makes a run reproducible. Zero seeds from the wall clock.
	RandomSeed uint64 `json:"random-seed" mapstructure:"random-seed"`
}

// NewSimulationOptions returns the defaults the dashboard was tuned for.
func NewSimulationOptions() *SimulationOptions {
	return &SimulationOptions{
		TickInterval:            3 * time.Second,
		PositionJitterDeg:       0.0025,
		SpeedJitterStep:         2.5,
		SpeedChangeProbability:  0.3,
		BatteryDrainProbability: 0.2,
		TransitionProbability:   0.1,
	}
}

// Validate checks intervals are positive, magnitudes non-negative and
// probabilities within [0, 1].
func (o *SimulationOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.TickInterval <= 0 {
		errors = append(errors, fmt.Errorf("--sim.tick-interval must be > 0, got %v", o.TickInterval))
	}
	if o.PositionJitterDeg < 0 {
		errors = append(errors, fmt.Errorf("--sim.position-jitter-deg must be >= 0, got %v", o.PositionJitterDeg))
	}
	if o.SpeedJitterStep < 0 {
		errors = append(errors, fmt.Errorf("--sim.speed-jitter-step must be >= 0, got %v", o.SpeedJitterStep))
	}
	for name, p := range map[string]float64{
		"speed-change-probability":  o.SpeedChangeProbability,
		"battery-drain-probability": o.BatteryDrainProbability,
		"transition-probability":    o.TransitionProbability,
	} {
		if !(p >= 0 && p <= 1) {
			errors = append(errors, fmt.Errorf("--sim.%s must be in [0,1], got %v", name, p))
		}
	}

	return errors
}

// AddFlags adds flags for SimulationOptions to the specified FlagSet.
func (o *SimulationOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.DurationVar(&o.TickInterval, "sim.tick-interval", o.TickInterval, "Cadence of the reconciliation tick.")
	fs.Float64Var(&o.PositionJitterDeg, "sim.position-jitter-deg", o.PositionJitterDeg, "Half-width in degrees of the per-tick lat/lng step.")
	fs.Float64Var(&o.SpeedJitterStep, "sim.speed-jitter-step", o.SpeedJitterStep, "Half-width in km/h of a speed step.")
	fs.Float64Var(&o.SpeedChangeProbability, "sim.speed-change-probability", o.SpeedChangeProbability, "Chance per tick that an active rider's speed changes.")
	fs.Float64Var(&o.BatteryDrainProbability, "sim.battery-drain-probability", o.BatteryDrainProbability, "Chance per tick that an active rider's battery drains.")
	fs.Float64Var(&o.TransitionProbability, "sim.transition-probability", o.TransitionProbability, "Chance per tick that a random rider changes status.")
	fs.Uint64Var(&o.RandomSeed, "sim.random-seed", o.RandomSeed, "Seed for the random source; 0 picks one from the clock.")
}
