// Package engine drives the fleet reconciliation loop.
//
// Each tick runs in two phases against one registry transaction:
//
//  1. telemetry: every active rider takes a bounded random-walk step.
//  2. transitions: at most one rider changes status; its speed is resynchronised
//     to the new status, overriding whatever phase 1 produced for it.
//
// The transaction is then committed, one snapshot is published, and the status
// change (if any) is dispatched. Ticks never overlap.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/ridertrack/internal/fleet/model"
	"github.com/autopeer-io/ridertrack/internal/fleet/publisher"
	"github.com/autopeer-io/ridertrack/internal/fleet/random"
	"github.com/autopeer-io/ridertrack/internal/fleet/registry"
	"github.com/autopeer-io/ridertrack/internal/fleet/selection"
	"github.com/autopeer-io/ridertrack/internal/fleet/telemetry"
	"github.com/autopeer-io/ridertrack/internal/fleet/transition"
	"github.com/autopeer-io/ridertrack/internal/pkg/metrics"
	"github.com/autopeer-io/ridertrack/pkg/log"
)

var (
	// ErrClockAlreadyStopped is returned by Stop once the clock has been stopped.
	// It is informational; a second Stop does nothing.
	ErrClockAlreadyStopped = errors.New("clock already stopped")
	// ErrAlreadyRunning is returned by Start when the loop is already running.
	ErrAlreadyRunning = errors.New("engine already running")
)

type runState int

const (
	stateIdle runState = iota
	stateRunning
	stateStopped
)

// Config holds everything needed to build an Engine.
type Config struct {
	// Seed is the initial rider set. The set of ids never changes afterwards.
	Seed []model.Entity
	// Tuning defaults to DefaultTuning() when zero.
	Tuning Tuning
	// Random defaults to a wall-clock seeded source.
	Random random.Source
	// Clock defaults to the real clock.
	Clock clock.WithTicker
	// Notifier receives notifications about the selected rider. May be nil.
	Notifier selection.Notifier
	Logger   log.Logger
}

// Engine owns the registry, the tick clock and the subscriber lists.
type Engine struct {
	reg       *registry.Registry
	sim       *telemetry.Simulator
	trans     *transition.Engine
	pub       *publisher.Publisher
	selection *selection.Tracker
	clock     clock.WithTicker
	log       log.Logger

	tuningMu sync.RWMutex
	tuning   Tuning

	// tickMu serialises ticks, whether fired by the loop or called directly.
	tickMu sync.Mutex
	seq    uint64

	runMu   sync.Mutex
	state   runState
	cancel  context.CancelFunc
	done    chan struct{}
	resetCh chan time.Duration
}

// New builds an engine from cfg. The loop is not started.
func New(cfg Config) (*Engine, error) {
	if cfg.Tuning == (Tuning{}) {
		cfg.Tuning = DefaultTuning()
	}
	if errs := cfg.Tuning.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid tuning: %w", errors.Join(errs...))
	}
	if cfg.Random == nil {
		cfg.Random = random.New(0)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.RealClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNopLogger()
	}

	reg, err := registry.New(cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}

	logger := cfg.Logger.WithName("engine")
	e := &Engine{
		reg:     reg,
		sim:     telemetry.NewSimulator(cfg.Random),
		trans:   transition.New(cfg.Random),
		pub:     publisher.New(logger.WithName("publisher")),
		clock:   cfg.Clock,
		log:     logger,
		tuning:  cfg.Tuning,
		done:    make(chan struct{}),
		resetCh: make(chan time.Duration, 1),
	}

	e.selection = selection.NewTracker(reg, cfg.Notifier, logger.WithName("selection"))
	e.pub.SubscribeSnapshots(e.selection)
	e.pub.SubscribeStatusChanges(e.selection)

	e.observeCounts(reg.Snapshot(0, cfg.Clock.Now()))
	return e, nil
}

// Registry exposes the canonical store for reads.
func (e *Engine) Registry() *registry.Registry { return e.reg }

// Selection returns the selection tracker.
func (e *Engine) Selection() *selection.Tracker { return e.selection }

// SubscribeSnapshots registers a consumer of per-tick snapshots.
func (e *Engine) SubscribeSnapshots(s publisher.SnapshotSubscriber) { e.pub.SubscribeSnapshots(s) }

// SubscribeStatusChanges registers a consumer of every status change.
func (e *Engine) SubscribeStatusChanges(s publisher.StatusChangeSubscriber) {
	e.pub.SubscribeStatusChanges(s)
}

// Snapshot returns the latest published snapshot, or the committed state as
// sequence zero before the first tick.
func (e *Engine) Snapshot() model.Snapshot {
	if snap, ok := e.pub.Latest(); ok {
		return snap
	}
	return e.reg.Snapshot(0, e.clock.Now())
}

// Tuning returns the active tuning.
func (e *Engine) Tuning() Tuning {
	e.tuningMu.RLock()
	defer e.tuningMu.RUnlock()
	return e.tuning
}

// SetTuning replaces the tuning. It applies from the next tick; a new interval
// re-arms the ticker.
func (e *Engine) SetTuning(t Tuning) error {
	if errs := t.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid tuning: %w", errors.Join(errs...))
	}

	// The swap and the re-arm request happen under one lock, so a pending
	// interval always matches the stored tuning.
	e.tuningMu.Lock()
	prev := e.tuning
	e.tuning = t
	if prev.TickInterval != t.TickInterval {
		// Keep only the newest pending interval.
		select {
		case <-e.resetCh:
		default:
		}
		e.resetCh <- t.TickInterval
	}
	e.tuningMu.Unlock()

	e.log.Info("Tuning updated", "tickInterval", t.TickInterval, "transitionProbability", t.TransitionProbability)
	return nil
}

// Start launches the tick loop in the background.
func (e *Engine) Start(ctx context.Context) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	switch e.state {
	case stateRunning:
		return ErrAlreadyRunning
	case stateStopped:
		return ErrClockAlreadyStopped
	}

	loopCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.state = stateRunning

	interval := e.Tuning().TickInterval
	ticker := e.clock.NewTicker(interval)
	go e.loop(loopCtx, ticker)

	e.log.Info("Engine started", "riders", e.reg.Len(), "tickInterval", interval)
	return nil
}

// Stop cancels the loop and waits for an in-flight tick to finish. No tick
// fires after Stop returns. Calling Stop again returns ErrClockAlreadyStopped
// and has no effect.
func (e *Engine) Stop() error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	switch e.state {
	case stateStopped:
		e.log.Debug("Stop called on a stopped engine")
		return ErrClockAlreadyStopped
	case stateIdle:
		e.state = stateStopped
		close(e.done)
		return nil
	}

	e.cancel()
	<-e.done
	e.state = stateStopped
	e.log.Info("Engine stopped", "ticks", e.Seq())
	return nil
}

// Run starts the loop, blocks until ctx is done and then stops it.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	if err := e.Stop(); err != nil && !errors.Is(err, ErrClockAlreadyStopped) {
		return err
	}
	return nil
}

// Running reports whether the tick loop is active.
func (e *Engine) Running() bool {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.state != stateRunning {
		return false
	}
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

// Done is closed when the loop has exited.
func (e *Engine) Done() <-chan struct{} { return e.done }

// Seq returns the number of ticks completed.
func (e *Engine) Seq() uint64 {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	return e.seq
}

func (e *Engine) loop(ctx context.Context, ticker clock.Ticker) {
	defer close(e.done)
	defer func() { ticker.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-e.resetCh:
			ticker.Stop()
			ticker = e.clock.NewTicker(d)
			e.log.Debug("Ticker re-armed", "tickInterval", d)
		case now := <-ticker.C():
			// A fire racing with cancellation must not start a new tick.
			if ctx.Err() != nil {
				return
			}
			e.Tick(context.WithoutCancel(ctx), now)
		}
	}
}

// Tick runs one reconciliation tick stamped with now and returns the
// snapshot it published. Per-rider failures are logged and dropped; they never
// abort the tick.
func (e *Engine) Tick(ctx context.Context, now time.Time) model.Snapshot {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	start := e.clock.Now()
	tuning := e.Tuning()
	txn := e.reg.Begin()

	// Phase 1: telemetry.
	res := e.sim.Step(txn, tuning.Telemetry, now)
	for _, f := range res.Failures {
		e.dropped(f.ID, f.Err)
	}

	// Phase 2: transitions, overriding phase 1 for the rider they touch.
	change, err := e.trans.Step(ctx, txn, tuning.TransitionProbability, now)
	if err != nil {
		e.dropped("", err)
		change = nil
	}

	if err := e.reg.Commit(txn); err != nil {
		// Only possible if someone wrote to the registry outside the tick.
		e.log.Error(err, "Failed to commit tick, keeping previous state", "seq", e.seq+1)
		change = nil
	}

	e.seq++
	snap := e.reg.Snapshot(e.seq, now)
	e.observeCounts(snap)

	e.pub.PublishSnapshot(ctx, snap)
	if change != nil {
		metrics.StatusTransitions.WithLabelValues(string(change.PreviousStatus), string(change.NewStatus)).Inc()
		e.log.Info("Rider status changed", "riderID", change.EntityID,
			"from", change.PreviousStatus, "to", change.NewStatus)
		e.pub.PublishStatusChange(ctx, *change)
	}

	metrics.TicksTotal.Inc()
	metrics.TickDuration.Observe(e.clock.Since(start).Seconds())
	e.log.Debug("Tick complete", "seq", e.seq, "moved", len(res.Updated), "dropped", len(res.Failures))
	return snap
}

func (e *Engine) dropped(id string, err error) {
	reason := "other"
	switch {
	case errors.Is(err, registry.ErrUnknownEntity):
		reason = "unknown_entity"
	case errors.Is(err, registry.ErrInvalidMutation):
		reason = "invalid"
	}
	metrics.DroppedMutations.WithLabelValues(reason).Inc()
	e.log.Error(err, "Dropped rider mutation", "riderID", id, "reason", reason)
}

func (e *Engine) observeCounts(snap model.Snapshot) {
	for status, n := range snap.Counts() {
		metrics.Riders.WithLabelValues(string(status)).Set(float64(n))
	}
}
