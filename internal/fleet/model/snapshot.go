package model

import (
	"encoding/json"
	"time"
)

// Snapshot is an immutable point-in-time copy of the registry.
// Accessors hand out copies; nothing reachable from a Snapshot can be mutated.
type Snapshot struct {
	seq      uint64
	at       time.Time
	entities []Entity
	index    map[string]int
}

// NewSnapshot builds a snapshot from entities. The slice is copied.
func NewSnapshot(seq uint64, at time.Time, entities []Entity) Snapshot {
	cp := make([]Entity, len(entities))
	copy(cp, entities)

	index := make(map[string]int, len(cp))
	for i, e := range cp {
		index[e.ID] = i
	}
	return Snapshot{seq: seq, at: at, entities: cp, index: index}
}

// Seq is the tick sequence number that produced the snapshot. Zero is the seed state.
func (s Snapshot) Seq() uint64 { return s.seq }

// At is the tick timestamp.
func (s Snapshot) At() time.Time { return s.at }

// Len returns the number of riders.
func (s Snapshot) Len() int { return len(s.entities) }

// Entities returns a copy of all riders in registry order.
func (s Snapshot) Entities() []Entity {
	cp := make([]Entity, len(s.entities))
	copy(cp, s.entities)
	return cp
}

// Get returns the rider with the given id.
func (s Snapshot) Get(id string) (Entity, bool) {
	i, ok := s.index[id]
	if !ok {
		return Entity{}, false
	}
	return s.entities[i], true
}

// Filter returns the riders in the given status, in registry order.
func (s Snapshot) Filter(status Status) []Entity {
	out := make([]Entity, 0, len(s.entities))
	for _, e := range s.entities {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

// Counts returns the number of riders per status. Every known status has an entry.
func (s Snapshot) Counts() map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, st := range Statuses {
		counts[st] = 0
	}
	for _, e := range s.entities {
		counts[e.Status]++
	}
	return counts
}

type snapshotJSON struct {
	Seq    uint64    `json:"seq"`
	At     time.Time `json:"at"`
	Riders []Entity  `json:"riders"`
}

// MarshalJSON encodes the snapshot as {"seq", "at", "riders"}.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	riders := s.entities
	if riders == nil {
		riders = []Entity{}
	}
	return json.Marshal(snapshotJSON{Seq: s.seq, At: s.at, Riders: riders})
}

// UnmarshalJSON decodes the format written by MarshalJSON.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw snapshotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NewSnapshot(raw.Seq, raw.At, raw.Riders)
	return nil
}
