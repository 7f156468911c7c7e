package telemetry

import (
	"math"
	"testing"
	"time"

	"github.com/autopeer-io/ridertrack/internal/fleet/model"
	"github.com/autopeer-io/ridertrack/internal/fleet/random"
	"github.com/autopeer-io/ridertrack/internal/fleet/registry"
)

var tickTime = time.Date(2025, time.March, 1, 12, 0, 3, 0, time.UTC)

func newRegistry(t *testing.T, riders ...model.Entity) *registry.Registry {
	t.Helper()
	reg, err := registry.New(riders)
	if err != nil {
		t.Fatalf("registry.New() err=%v", err)
	}
	return reg
}

func step(t *testing.T, reg *registry.Registry, rnd random.Source, cfg Config) Result {
	t.Helper()
	txn := reg.Begin()
	res := NewSimulator(rnd).Step(txn, cfg, tickTime)
	if err := reg.Commit(txn); err != nil {
		t.Fatalf("Commit() err=%v", err)
	}
	return res
}

func TestStepSkipsInertRiders(t *testing.T) {
	reg := newRegistry(t,
		model.Entity{ID: "idle", Status: model.StatusInactive, Speed: 2, BatteryLevel: 40},
		model.Entity{ID: "gone", Status: model.StatusOffline, BatteryLevel: 40},
	)
	rnd := &random.Scripted{Strict: true}

	res := step(t, reg, rnd, DefaultConfig())
	if len(res.Updated) != 0 {
		t.Fatalf("inert riders updated: %v", res.Updated)
	}
	if rnd.FloatDraws != 0 {
		t.Fatalf("inert riders consumed %d draws", rnd.FloatDraws)
	}
}

func TestStepExactDraws(t *testing.T) {
	start := time.Date(2025, time.March, 1, 11, 0, 0, 0, time.UTC)
	reg := newRegistry(t, model.Entity{
		ID: "r1", Status: model.StatusActive, Speed: 20, BatteryLevel: 50,
		Location: model.Location{Lat: 40, Lng: -74}, LastUpdated: start,
	})

	tests := []struct {
		name        string
		draws       []float64
		wantLat     float64
		wantLng     float64
		wantSpeed   float64
		wantBattery int
	}{
		{
			name: "move only",
			// lat +δ·0, lng: U=-δ, speed gate miss, battery gate miss
			draws:   []float64{0.5, 0, 0.9, 0.9},
			wantLat: 40, wantLng: -74.0025, wantSpeed: 20, wantBattery: 50,
		},
		{
			name: "speed up and drain",
			// lat, lng, speed gate hit, U(-2.5,2.5)=+2.5·0.8=2.0, battery gate hit, U(0,1)=0.75
			draws:   []float64{0.5, 0.5, 0.1, 0.9, 0.1, 0.75},
			wantLat: 40, wantLng: -74, wantSpeed: 22, wantBattery: 49,
		},
		{
			name: "small drain rounds back",
			draws:   []float64{0.5, 0.5, 0.9, 0.1, 0.2},
			wantLat: 40, wantLng: -74, wantSpeed: 20, wantBattery: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newRegistry(t, reg.All()...)
			rnd := random.NewScripted(tt.draws...)
			rnd.Strict = true

			step(t, reg, rnd, DefaultConfig())

			got, _ := reg.Get("r1")
			if math.Abs(got.Location.Lat-tt.wantLat) > 1e-9 || math.Abs(got.Location.Lng-tt.wantLng) > 1e-9 {
				t.Errorf("location = %+v, want {%v %v}", got.Location, tt.wantLat, tt.wantLng)
			}
			if got.Speed != tt.wantSpeed {
				t.Errorf("speed = %v, want %v", got.Speed, tt.wantSpeed)
			}
			if got.BatteryLevel != tt.wantBattery {
				t.Errorf("battery = %d, want %d", got.BatteryLevel, tt.wantBattery)
			}
			if f, _ := rnd.Remaining(); f != 0 {
				t.Errorf("%d scripted draws left unused", f)
			}
		})
	}
}

func TestStepLastUpdatedOnlyOnChange(t *testing.T) {
	start := time.Date(2025, time.March, 1, 11, 0, 0, 0, time.UTC)
	reg := newRegistry(t, model.Entity{ID: "r1", Status: model.StatusActive, Speed: 20, BatteryLevel: 50, LastUpdated: start})

	// Zero jitter and both gates closed: nothing changes.
	cfg := Config{SpeedJitterStep: 2.5}
	res := step(t, reg, random.NewScripted(0.3, 0.7), cfg)
	if len(res.Updated) != 0 {
		t.Fatalf("unchanged rider reported as updated")
	}
	if got, _ := reg.Get("r1"); !got.LastUpdated.Equal(start) {
		t.Fatalf("LastUpdated moved to %v without a change", got.LastUpdated)
	}

	cfg.PositionJitterDeg = 0.0025
	step(t, reg, random.NewScripted(0.9, 0.5), cfg)
	if got, _ := reg.Get("r1"); !got.LastUpdated.Equal(tickTime) {
		t.Fatalf("LastUpdated = %v, want %v", got.LastUpdated, tickTime)
	}
}

func TestSpeedClampedToActiveRange(t *testing.T) {
	tests := []struct {
		name  string
		speed float64
		draw  float64
		want  float64
	}{
		{"floor", 5, 0, MinActiveSpeed},
		{"ceiling", 80, 0.999, MaxActiveSpeed},
		{"within", 40, 0.5, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newRegistry(t, model.Entity{ID: "r1", Status: model.StatusActive, Speed: tt.speed, BatteryLevel: 50})
			step(t, reg, random.NewScripted(0.5, 0.5, 0, tt.draw, 0.9), DefaultConfig())
			if got, _ := reg.Get("r1"); got.Speed != tt.want {
				t.Fatalf("speed = %v, want %v", got.Speed, tt.want)
			}
		})
	}
}

func TestOutOfRangeActiveSpeedClampedWithoutSpeedChange(t *testing.T) {
	tests := []struct {
		name  string
		speed float64
		want  float64
	}{
		{"below floor", 2, MinActiveSpeed},
		{"above ceiling", 95, MaxActiveSpeed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newRegistry(t, model.Entity{ID: "r1", Status: model.StatusActive, Speed: tt.speed, BatteryLevel: 50})
			// lat, lng, speed gate miss, battery gate miss
			rnd := random.NewScripted(0.5, 0.5, 0.9, 0.9)
			rnd.Strict = true

			res := step(t, reg, rnd, DefaultConfig())
			got, _ := reg.Get("r1")
			if got.Speed != tt.want {
				t.Fatalf("speed = %v, want %v", got.Speed, tt.want)
			}
			if len(res.Updated) != 1 || !got.LastUpdated.Equal(tickTime) {
				t.Fatalf("clamped rider not reported as updated: %v, lastUpdated %v", res.Updated, got.LastUpdated)
			}
		})
	}
}

func TestInvariantsHoldOverManyTicks(t *testing.T) {
	riders := make([]model.Entity, 0, 10)
	for i := 0; i < 10; i++ {
		riders = append(riders, model.Entity{
			ID: string(rune('a' + i)), Status: model.StatusActive, Speed: 30, BatteryLevel: 3 + i*10,
		})
	}
	reg := newRegistry(t, riders...)
	rnd := random.New(1234)
	cfg := DefaultConfig()
	cfg.BatteryDrainProbability = 1
	cfg.SpeedChangeProbability = 1

	prev := map[string]int{}
	for _, e := range reg.All() {
		prev[e.ID] = e.BatteryLevel
	}

	for tick := 0; tick < 500; tick++ {
		step(t, reg, rnd, cfg)
		for _, e := range reg.All() {
			if e.BatteryLevel < 0 || e.BatteryLevel > 100 {
				t.Fatalf("tick %d: %s battery %d out of range", tick, e.ID, e.BatteryLevel)
			}
			if e.BatteryLevel > prev[e.ID] {
				t.Fatalf("tick %d: %s battery increased %d -> %d", tick, e.ID, prev[e.ID], e.BatteryLevel)
			}
			if e.Speed < MinActiveSpeed || e.Speed > MaxActiveSpeed {
				t.Fatalf("tick %d: %s speed %v out of range", tick, e.ID, e.Speed)
			}
			prev[e.ID] = e.BatteryLevel
		}
	}
}

func TestConfigValidate(t *testing.T) {
	if errs := DefaultConfig().Validate(); len(errs) != 0 {
		t.Fatalf("default config invalid: %v", errs)
	}
	bad := Config{PositionJitterDeg: -1, SpeedJitterStep: -1, SpeedChangeProbability: 1.5, BatteryDrainProbability: -0.1}
	if errs := bad.Validate(); len(errs) != 4 {
		t.Fatalf("Validate() = %v, want 4 errors", errs)
	}
}
