package telemetry

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/autopeer-io/ridertrack/internal/fleet/model"
	"github.com/autopeer-io/ridertrack/internal/fleet/random"
	"github.com/autopeer-io/ridertrack/internal/fleet/registry"
)

const (
	// MinActiveSpeed and MaxActiveSpeed bound the speed of an active rider in km/h.
	MinActiveSpeed = 5
	MaxActiveSpeed = 80
)

// Config holds the perturbation constants of the random walk.
type Config struct {
	// PositionJitterDeg is the half-width δ of the uniform lat/lng step.
	PositionJitterDeg float64
	// SpeedJitterStep is the half-width s of the uniform speed step.
	SpeedJitterStep float64
	// SpeedChangeProbability is the chance that speed is perturbed on a tick.
	SpeedChangeProbability float64
	// BatteryDrainProbability is the chance that battery drains on a tick.
	BatteryDrainProbability float64
}

// DefaultConfig returns the cadence the dashboard was tuned for.
func DefaultConfig() Config {
	return Config{
		PositionJitterDeg:       0.0025,
		SpeedJitterStep:         2.5,
		SpeedChangeProbability:  0.3,
		BatteryDrainProbability: 0.2,
	}
}

// Validate checks that magnitudes are non-negative and probabilities in [0, 1].
func (c Config) Validate() []error {
	var errs []error
	if c.PositionJitterDeg < 0 || math.IsNaN(c.PositionJitterDeg) {
		errs = append(errs, fmt.Errorf("position jitter must be >= 0, got %v", c.PositionJitterDeg))
	}
	if c.SpeedJitterStep < 0 || math.IsNaN(c.SpeedJitterStep) {
		errs = append(errs, fmt.Errorf("speed jitter step must be >= 0, got %v", c.SpeedJitterStep))
	}
	if !isProbability(c.SpeedChangeProbability) {
		errs = append(errs, fmt.Errorf("speed change probability must be in [0,1], got %v", c.SpeedChangeProbability))
	}
	if !isProbability(c.BatteryDrainProbability) {
		errs = append(errs, fmt.Errorf("battery drain probability must be in [0,1], got %v", c.BatteryDrainProbability))
	}
	return errs
}

func isProbability(p float64) bool {
	return p >= 0 && p <= 1
}

// Simulator produces bounded random-walk telemetry for active riders.
// Inactive and offline riders are inert.
type Simulator struct {
	rnd random.Source
}

// NewSimulator returns a simulator drawing from rnd.
func NewSimulator(rnd random.Source) *Simulator {
	return &Simulator{rnd: rnd}
}

// Failure records a rider whose update was dropped.
type Failure struct {
	ID  string
	Err error
}

// Result summarises one telemetry pass.
type Result struct {
	Updated  []string
	Failures []Failure
}

// Step applies one tick of telemetry to every active rider in txn.
//
// Per rider the draws happen in a fixed order: lat, lng, speed gate, speed
// step (if gated in), battery gate, battery step (if gated in). A failed
// mutation only drops that rider's update.
func (s *Simulator) Step(txn *registry.Txn, cfg Config, now time.Time) Result {
	var res Result
	for _, id := range txn.IDs() {
		cur, ok := txn.Get(id)
		if !ok || cur.Status != model.StatusActive {
			continue
		}

		next := s.perturb(cur, cfg, now)
		if next == cur {
			continue
		}
		if _, err := txn.Apply(id, func(model.Entity) model.Entity { return next }); err != nil {
			res.Failures = append(res.Failures, Failure{ID: id, Err: err})
			continue
		}
		res.Updated = append(res.Updated, id)
	}
	return res
}

// Err joins all failures of a pass, or returns nil.
func (r Result) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

func (s *Simulator) perturb(e model.Entity, cfg Config, now time.Time) model.Entity {
	next := e
	d := cfg.PositionJitterDeg
	next.Location.Lat += random.Uniform(s.rnd, -d, d)
	next.Location.Lng += random.Uniform(s.rnd, -d, d)

	// The clamp applies every tick so an out-of-range active rider is pulled
	// back even when its speed is not perturbed.
	var step float64
	if random.Chance(s.rnd, cfg.SpeedChangeProbability) {
		step = random.Uniform(s.rnd, -cfg.SpeedJitterStep, cfg.SpeedJitterStep)
	}
	next.Speed = clamp(math.Round(e.Speed+step), MinActiveSpeed, MaxActiveSpeed)

	if random.Chance(s.rnd, cfg.BatteryDrainProbability) {
		drained := math.Round(float64(e.BatteryLevel) - random.Uniform(s.rnd, 0, 1))
		next.BatteryLevel = int(clamp(drained, 0, 100))
	}

	if next != e {
		next.LastUpdated = now
	}
	return next
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
