package transition

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/autopeer-io/ridertrack/internal/fleet/model"
	"github.com/autopeer-io/ridertrack/internal/fleet/random"
	"github.com/autopeer-io/ridertrack/internal/fleet/registry"
)

var (
	seedTime = time.Date(2025, time.March, 1, 11, 0, 0, 0, time.UTC)
	tickTime = time.Date(2025, time.March, 1, 12, 0, 3, 0, time.UTC)
)

func riders() []model.Entity {
	return []model.Entity{
		{ID: "r1", Status: model.StatusActive, Speed: 20, BatteryLevel: 50, LastUpdated: seedTime},
		{ID: "r2", Status: model.StatusInactive, Speed: 3, BatteryLevel: 60, LastUpdated: seedTime},
		{ID: "r3", Status: model.StatusOffline, Speed: 0, BatteryLevel: 70, LastUpdated: seedTime},
	}
}

func runStep(t *testing.T, rnd *random.Scripted, p float64) (*registry.Registry, *model.StatusChange) {
	t.Helper()
	reg, err := registry.New(riders())
	if err != nil {
		t.Fatalf("registry.New() err=%v", err)
	}
	txn := reg.Begin()
	change, err := New(rnd).Step(context.Background(), txn, p, tickTime)
	if err != nil {
		t.Fatalf("Step() err=%v", err)
	}
	if err := reg.Commit(txn); err != nil {
		t.Fatalf("Commit() err=%v", err)
	}
	return reg, change
}

func TestStepGateClosed(t *testing.T) {
	rnd := random.NewScripted(0.5)
	rnd.Strict = true

	reg, change := runStep(t, rnd, DefaultProbability)
	if change != nil {
		t.Fatalf("unexpected change %+v", change)
	}
	if rnd.IntDraws != 0 {
		t.Fatalf("closed gate still picked a rider")
	}
	if diff := cmp.Diff(riders(), reg.All()); diff != "" {
		t.Fatalf("registry changed (-want +got):\n%s", diff)
	}
}

func TestStepSpeedResync(t *testing.T) {
	tests := []struct {
		name      string
		ints      []int
		floats    []float64
		id        string
		from, to  model.Status
		wantSpeed float64
	}{
		{"active to inactive", []int{0, 1}, []float64{0.05, 0.79}, "r1", model.StatusActive, model.StatusInactive, 3},
		{"active to offline", []int{0, 2}, []float64{0.05}, "r1", model.StatusActive, model.StatusOffline, 0},
		{"inactive to active", []int{1, 0}, []float64{0.05, 0.5}, "r2", model.StatusInactive, model.StatusActive, 35},
		{"offline to active low", []int{2, 0}, []float64{0.05, 0}, "r3", model.StatusOffline, model.StatusActive, 10},
		{"offline to inactive", []int{2, 1}, []float64{0.05, 0.999}, "r3", model.StatusOffline, model.StatusInactive, 4},
		{"inactive to offline", []int{1, 2}, []float64{0.05}, "r2", model.StatusInactive, model.StatusOffline, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rnd := random.NewScripted(tt.floats...).PushInts(tt.ints...)
			rnd.Strict = true

			reg, change := runStep(t, rnd, DefaultProbability)

			want := &model.StatusChange{EntityID: tt.id, PreviousStatus: tt.from, NewStatus: tt.to, Timestamp: tickTime}
			if diff := cmp.Diff(want, change); diff != "" {
				t.Fatalf("change mismatch (-want +got):\n%s", diff)
			}

			got, _ := reg.Get(tt.id)
			if got.Status != tt.to || got.Speed != tt.wantSpeed || !got.LastUpdated.Equal(tickTime) {
				t.Fatalf("rider = %+v, want status=%s speed=%v", got, tt.to, tt.wantSpeed)
			}
			if f, i := rnd.Remaining(); f != 0 || i != 0 {
				t.Fatalf("unused draws: floats=%d ints=%d", f, i)
			}
		})
	}
}

func TestStepSameStatusIsNoop(t *testing.T) {
	rnd := random.NewScripted(0.05).PushInts(0, 0)
	rnd.Strict = true

	reg, change := runStep(t, rnd, DefaultProbability)
	if change != nil {
		t.Fatalf("same-status draw emitted %+v", change)
	}
	got, _ := reg.Get("r1")
	if !got.LastUpdated.Equal(seedTime) || got.Speed != 20 {
		t.Fatalf("same-status draw touched rider: %+v", got)
	}
	if reg.Version() != 0 {
		t.Fatalf("same-status draw committed a change")
	}
}

func TestStepEmptyRegistry(t *testing.T) {
	reg, err := registry.New(nil)
	if err != nil {
		t.Fatalf("registry.New() err=%v", err)
	}
	change, err := New(random.NewScripted(0)).Step(context.Background(), reg.Begin(), 1, tickTime)
	if change != nil || err != nil {
		t.Fatalf("Step() on empty registry = %+v, %v", change, err)
	}
}

func TestStatusMachineGraph(t *testing.T) {
	for _, from := range model.Statuses {
		for _, to := range model.Statuses {
			m := newStatusMachine(from, random.NewScripted())
			can := m.Can(eventFor(to))
			if can == (from == to) {
				t.Errorf("Can(%s -> %s) = %v", from, to, can)
			}
		}
	}
}
