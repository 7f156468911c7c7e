package registry

import (
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/autopeer-io/ridertrack/internal/fleet/model"
)

var (
	// ErrUnknownEntity is returned when a mutation targets an id that is not registered.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrInvalidMutation is returned when a mutation would break an entity invariant.
	ErrInvalidMutation = errors.New("invalid mutation")
	// ErrDuplicateEntity is returned by New when the seed contains the same id twice.
	ErrDuplicateEntity = errors.New("duplicate entity")
	// ErrStaleTxn is returned when committing a transaction that was not begun on the current state.
	ErrStaleTxn = errors.New("stale transaction")
)

// Mutation derives a new entity value from the current one.
type Mutation func(model.Entity) model.Entity

// Registry is the canonical store of tracked riders.
//
// The id set is fixed at construction. Writers stage changes in a Txn and
// publish them with Commit, which swaps the whole entity map under the write
// lock; readers therefore always see either the pre-tick or the post-tick state.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	entities map[string]model.Entity
	version  uint64
}

// New builds a registry from seed data. Seed order is preserved.
func New(seed []model.Entity) (*Registry, error) {
	seen := sets.New[string]()
	order := make([]string, 0, len(seed))
	entities := make(map[string]model.Entity, len(seed))

	for _, e := range seed {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMutation, err)
		}
		if seen.Has(e.ID) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntity, e.ID)
		}
		seen.Insert(e.ID)
		order = append(order, e.ID)
		entities[e.ID] = e
	}

	return &Registry{order: order, entities: entities}, nil
}

// Len returns the number of registered riders.
func (r *Registry) Len() int {
	return len(r.order)
}

// IDs returns the registered ids in seed order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entities[id]
	return ok
}

// Get returns the current value of the rider with the given id.
func (r *Registry) Get(id string) (model.Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[id]
	return e, ok
}

// All returns a copy of every rider in seed order.
func (r *Registry) All() []model.Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(r.entities)
}

// Apply runs a single mutation as its own transaction.
func (r *Registry) Apply(id string, m Mutation) (model.Entity, error) {
	txn := r.Begin()
	e, err := txn.Apply(id, m)
	if err != nil {
		return model.Entity{}, err
	}
	if err := r.Commit(txn); err != nil {
		return model.Entity{}, err
	}
	return e, nil
}

// Snapshot returns an immutable copy of the committed state.
func (r *Registry) Snapshot(seq uint64, at time.Time) model.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return model.NewSnapshot(seq, at, r.collect(r.entities))
}

// Version is incremented by every successful Commit.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Begin starts a transaction over a private copy of the committed state.
func (r *Registry) Begin() *Txn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &Txn{
		reg:     r,
		base:    r.version,
		working: maps.Clone(r.entities),
		changed: sets.New[string](),
	}
}

// Commit publishes the transaction's working set. A transaction can be
// committed once, and only if no other commit happened since it began.
func (r *Registry) Commit(txn *Txn) error {
	if txn == nil || txn.reg != r {
		return fmt.Errorf("%w: transaction belongs to another registry", ErrStaleTxn)
	}
	if txn.done {
		return fmt.Errorf("%w: transaction already finished", ErrStaleTxn)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if txn.base != r.version {
		return fmt.Errorf("%w: began at version %d, registry at %d", ErrStaleTxn, txn.base, r.version)
	}
	txn.done = true
	if txn.changed.Len() == 0 {
		return nil
	}
	r.entities = txn.working
	r.version++
	return nil
}

func (r *Registry) collect(from map[string]model.Entity) []model.Entity {
	out := make([]model.Entity, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, from[id])
	}
	return out
}

// Txn is a staged set of mutations. It is not safe for concurrent use; the
// tick driver is its only user.
type Txn struct {
	reg     *Registry
	base    uint64
	working map[string]model.Entity
	changed sets.Set[string]
	done    bool
}

// Get returns the staged value of a rider.
func (t *Txn) Get(id string) (model.Entity, bool) {
	e, ok := t.working[id]
	return e, ok
}

// All returns the staged riders in seed order.
func (t *Txn) All() []model.Entity {
	return t.reg.collect(t.working)
}

// IDs returns the registered ids in seed order.
func (t *Txn) IDs() []string {
	return t.reg.IDs()
}

// Apply stages a mutation. On error the staged state is unchanged.
func (t *Txn) Apply(id string, m Mutation) (model.Entity, error) {
	if t.done {
		return model.Entity{}, fmt.Errorf("%w: transaction already finished", ErrStaleTxn)
	}
	cur, ok := t.working[id]
	if !ok {
		return model.Entity{}, fmt.Errorf("%w: %s", ErrUnknownEntity, id)
	}

	next := m(cur)
	if next.ID != cur.ID {
		return model.Entity{}, fmt.Errorf("%w: mutation changed id %s to %s", ErrInvalidMutation, cur.ID, next.ID)
	}
	if next.TotalDistance < cur.TotalDistance {
		return model.Entity{}, fmt.Errorf("%w: total distance of %s decreased", ErrInvalidMutation, id)
	}
	if err := next.Validate(); err != nil {
		return model.Entity{}, fmt.Errorf("%w: %v", ErrInvalidMutation, err)
	}

	if next != cur {
		t.working[id] = next
		t.changed.Insert(id)
	}
	return next, nil
}

// Changed returns the ids modified in this transaction, sorted.
func (t *Txn) Changed() []string {
	return sets.List(t.changed)
}
