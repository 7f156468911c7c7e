// Package publisher fans registry snapshots and status-change events out to
// presentation consumers.
package publisher

import (
	"context"
	"fmt"
	"sync"

	"github.com/autopeer-io/ridertrack/internal/fleet/model"
	"github.com/autopeer-io/ridertrack/pkg/log"
)

// SnapshotSubscriber receives one snapshot per tick.
type SnapshotSubscriber interface {
	OnSnapshot(ctx context.Context, snap model.Snapshot)
}

// StatusChangeSubscriber receives every status change.
type StatusChangeSubscriber interface {
	OnStatusChange(ctx context.Context, ev model.StatusChange)
}

// SnapshotFunc adapts a function to SnapshotSubscriber.
type SnapshotFunc func(ctx context.Context, snap model.Snapshot)

func (f SnapshotFunc) OnSnapshot(ctx context.Context, snap model.Snapshot) { f(ctx, snap) }

// StatusChangeFunc adapts a function to StatusChangeSubscriber.
type StatusChangeFunc func(ctx context.Context, ev model.StatusChange)

func (f StatusChangeFunc) OnStatusChange(ctx context.Context, ev model.StatusChange) { f(ctx, ev) }

// Publisher delivers synchronously, in subscription order. Subscribers that do
// I/O are expected to hand off to their own goroutine and return. A panicking
// subscriber is logged and skipped; the rest still receive the value.
type Publisher struct {
	log log.Logger

	mu         sync.RWMutex
	snapshots  []SnapshotSubscriber
	changes    []StatusChangeSubscriber
	latest     model.Snapshot
	hasLatest  bool
	deliveries uint64
}

// New returns a publisher with no subscribers.
func New(logger log.Logger) *Publisher {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Publisher{log: logger}
}

// SubscribeSnapshots adds a snapshot subscriber.
func (p *Publisher) SubscribeSnapshots(s SnapshotSubscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, s)
}

// SubscribeStatusChanges adds a status change subscriber.
func (p *Publisher) SubscribeStatusChanges(s StatusChangeSubscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, s)
}

// PublishSnapshot records snap as the latest and hands it to every subscriber once.
func (p *Publisher) PublishSnapshot(ctx context.Context, snap model.Snapshot) {
	p.mu.Lock()
	p.latest = snap
	p.hasLatest = true
	subs := p.snapshots
	p.deliveries++
	p.mu.Unlock()

	for i, s := range subs {
		p.safely("snapshot", i, func() { s.OnSnapshot(ctx, snap) })
	}
}

// PublishStatusChange hands ev to every status change subscriber.
func (p *Publisher) PublishStatusChange(ctx context.Context, ev model.StatusChange) {
	p.mu.RLock()
	subs := p.changes
	p.mu.RUnlock()

	for i, s := range subs {
		p.safely("status change", i, func() { s.OnStatusChange(ctx, ev) })
	}
}

// Latest returns the most recently published snapshot.
func (p *Publisher) Latest() (model.Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.hasLatest
}

// Published returns the number of snapshots published so far.
func (p *Publisher) Published() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.deliveries
}

func (p *Publisher) safely(kind string, index int, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error(fmt.Errorf("panic: %v", r), "Subscriber panicked", "kind", kind, "subscriber", index)
		}
	}()
	fn()
}
