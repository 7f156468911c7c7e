// Package transition implements the status transition engine: once per tick it
// may flip one rider to a new status and resynchronise its speed.
package transition

import (
	"context"
	"fmt"
	"time"

	"github.com/autopeer-io/ridertrack/internal/fleet/model"
	"github.com/autopeer-io/ridertrack/internal/fleet/random"
	"github.com/autopeer-io/ridertrack/internal/fleet/registry"
)

// DefaultProbability is the chance that a tick attempts a transition.
const DefaultProbability = 0.1

// Engine draws random status transitions.
type Engine struct {
	rnd random.Source
}

// New returns an engine drawing from rnd.
func New(rnd random.Source) *Engine {
	return &Engine{rnd: rnd}
}

// Step runs the transition phase of a tick against txn.
//
// Draw order: gate (float), rider index (int over the full registry), target
// status (int over model.Statuses), then the speed resync draw if the target
// needs one. Drawing the rider's current status is a no-op and returns nil.
func (e *Engine) Step(ctx context.Context, txn *registry.Txn, probability float64, now time.Time) (*model.StatusChange, error) {
	if !random.Chance(e.rnd, probability) {
		return nil, nil
	}

	ids := txn.IDs()
	if len(ids) == 0 {
		return nil, nil
	}
	id := ids[e.rnd.IntN(len(ids))]
	dst := model.Statuses[e.rnd.IntN(len(model.Statuses))]

	return e.transition(ctx, txn, id, dst, now)
}

func (e *Engine) transition(ctx context.Context, txn *registry.Txn, id string, dst model.Status, now time.Time) (*model.StatusChange, error) {
	cur, ok := txn.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", registry.ErrUnknownEntity, id)
	}
	if cur.Status == dst {
		return nil, nil
	}

	next := cur
	if err := newStatusMachine(cur.Status, e.rnd).Event(ctx, eventFor(dst), &next); err != nil {
		return nil, fmt.Errorf("transition %s %s->%s: %w", id, cur.Status, dst, err)
	}
	next.LastUpdated = now

	if _, err := txn.Apply(id, func(model.Entity) model.Entity { return next }); err != nil {
		return nil, err
	}
	return &model.StatusChange{EntityID: id, PreviousStatus: cur.Status, NewStatus: dst, Timestamp: now}, nil
}
