// Package selection tracks the single rider the viewer is focused on and
// decides which status changes the viewer should be told about.
package selection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/autopeer-io/ridertrack/internal/fleet/model"
	"github.com/autopeer-io/ridertrack/pkg/log"
)

// ErrInvalidSelection is returned when selecting an id that is not registered.
var ErrInvalidSelection = errors.New("invalid selection")

// NotificationDuration is how long the viewer should show a notification.
const NotificationDuration = 3 * time.Second

// Lookup resolves rider ids. The registry satisfies it.
type Lookup interface {
	Get(id string) (model.Entity, bool)
}

// Notifier delivers user-facing notifications. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// Tracker holds the optional selected rider.
//
// The selection is only ever changed by Select and Clear; status changes of the
// selected rider, including going offline, leave it in place.
type Tracker struct {
	lookup   Lookup
	notifier Notifier
	log      log.Logger

	mu       sync.RWMutex
	selected string
	latest   model.Snapshot

	// listeners observe selection changes (detail panel, websocket viewers).
	listeners []func(id string)
}

// NewTracker returns a tracker with an empty selection.
func NewTracker(lookup Lookup, notifier Notifier, logger log.Logger) *Tracker {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Tracker{lookup: lookup, notifier: notifier, log: logger}
}

// OnChange registers fn to be called with the new selection after every
// successful Select or Clear. An empty id means nothing is selected.
func (t *Tracker) OnChange(fn func(id string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// Select focuses the rider with the given id. Unknown ids are rejected and the
// current selection is kept.
func (t *Tracker) Select(id string) error {
	if _, ok := t.lookup.Get(id); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidSelection, id)
	}

	t.mu.Lock()
	t.selected = id
	listeners := t.listeners
	t.mu.Unlock()

	t.log.Debug("Rider selected", "riderID", id)
	for _, fn := range listeners {
		fn(id)
	}
	return nil
}

// Clear drops the selection.
func (t *Tracker) Clear() {
	t.mu.Lock()
	t.selected = ""
	listeners := t.listeners
	t.mu.Unlock()

	t.log.Debug("Selection cleared")
	for _, fn := range listeners {
		fn("")
	}
}

// Selected returns the selected id, if any.
func (t *Tracker) Selected() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.selected, t.selected != ""
}

// Current returns the selected rider as of the latest snapshot. Before the
// first snapshot arrives it falls back to the lookup.
func (t *Tracker) Current() (model.Entity, bool) {
	t.mu.RLock()
	id, snap := t.selected, t.latest
	t.mu.RUnlock()

	if id == "" {
		return model.Entity{}, false
	}
	if e, ok := snap.Get(id); ok {
		return e, true
	}
	return t.lookup.Get(id)
}

// OnSnapshot keeps the latest snapshot for Current.
func (t *Tracker) OnSnapshot(_ context.Context, snap model.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if snap.Seq() >= t.latest.Seq() {
		t.latest = snap
	}
}

// OnStatusChange forwards a notification if the change concerns the selected
// rider and drops it otherwise.
func (t *Tracker) OnStatusChange(ctx context.Context, ev model.StatusChange) {
	selected, ok := t.Selected()
	if !ok || ev.EntityID != selected {
		return
	}

	n := t.notification(ev)
	if t.notifier == nil {
		return
	}
	if err := t.notifier.Notify(ctx, n); err != nil {
		t.log.Error(err, "Failed to deliver notification", "riderID", ev.EntityID)
	}
}

func (t *Tracker) notification(ev model.StatusChange) model.Notification {
	name := ev.EntityID
	if e, ok := t.lookup.Get(ev.EntityID); ok && e.Name != "" {
		name = e.Name
	}
	return model.Notification{
		ID:          uuid.NewString(),
		EntityID:    ev.EntityID,
		Title:       fmt.Sprintf("%s is now %s", name, ev.NewStatus),
		Description: fmt.Sprintf("Status changed at %s", ev.Timestamp.Format(time.TimeOnly)),
		Timestamp:   ev.Timestamp,
		Duration:    NotificationDuration,
	}
}
