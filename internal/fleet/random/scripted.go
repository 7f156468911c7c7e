package random

import (
	"fmt"
	"sync"
)

// Scripted replays a fixed sequence of draws. It is meant for tests that need
// to assert exact post-tick state.
//
// Float64 and IntN consume from separate queues. When a queue runs dry the
// source falls back to its default (0.99 for floats, 0 for ints) unless Strict
// is set, in which case it panics so that an unexpected draw fails the test.
type Scripted struct {
	mu     sync.Mutex
	floats []float64
	ints   []int

	Strict bool

	FloatDraws int
	IntDraws   int
}

var _ Source = (*Scripted)(nil)

// NewScripted returns a Scripted source with the given float queue.
func NewScripted(floats ...float64) *Scripted {
	return &Scripted{floats: floats}
}

// PushFloats appends values to the float queue.
func (s *Scripted) PushFloats(vs ...float64) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.floats = append(s.floats, vs...)
	return s
}

// PushInts appends values to the int queue.
func (s *Scripted) PushInts(vs ...int) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ints = append(s.ints, vs...)
	return s
}

// Remaining returns the number of unconsumed floats and ints.
func (s *Scripted) Remaining() (floats, ints int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.floats), len(s.ints)
}

func (s *Scripted) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FloatDraws++
	if len(s.floats) == 0 {
		if s.Strict {
			panic(fmt.Sprintf("random: scripted float queue exhausted at draw %d", s.FloatDraws))
		}
		return 0.99
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *Scripted) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.IntDraws++
	if n <= 0 {
		panic("random: IntN called with non-positive n")
	}
	if len(s.ints) == 0 {
		if s.Strict {
			panic(fmt.Sprintf("random: scripted int queue exhausted at draw %d", s.IntDraws))
		}
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v < 0 || v >= n {
		panic(fmt.Sprintf("random: scripted int %d out of range [0,%d)", v, n))
	}
	return v
}
