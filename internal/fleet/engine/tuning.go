package engine

import (
	"fmt"
	"time"

	"github.com/autopeer-io/ridertrack/internal/fleet/telemetry"
	"github.com/autopeer-io/ridertrack/internal/fleet/transition"
)

// DefaultTickInterval is the reconciliation cadence.
const DefaultTickInterval = 3 * time.Second

// Tuning is the runtime-adjustable part of the engine configuration.
type Tuning struct {
	TickInterval          time.Duration
	Telemetry             telemetry.Config
	TransitionProbability float64
}

// DefaultTuning returns the cadence and perturbation constants the dashboard
// was designed around.
func DefaultTuning() Tuning {
	return Tuning{
		TickInterval:          DefaultTickInterval,
		Telemetry:             telemetry.DefaultConfig(),
		TransitionProbability: transition.DefaultProbability,
	}
}

// Validate returns every problem with t.
func (t Tuning) Validate() []error {
	var errs []error
	if t.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick interval must be > 0, got %v", t.TickInterval))
	}
	errs = append(errs, t.Telemetry.Validate()...)
	if !(t.TransitionProbability >= 0 && t.TransitionProbability <= 1) {
		errs = append(errs, fmt.Errorf("transition probability must be in [0,1], got %v", t.TransitionProbability))
	}
	return errs
}
