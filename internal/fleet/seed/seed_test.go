package seed

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/autopeer-io/ridertrack/internal/fleet/model"
	"github.com/autopeer-io/ridertrack/internal/fleet/random"
	"github.com/autopeer-io/ridertrack/internal/fleet/registry"
)

var now = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func TestGenerateProducesValidRegistrySeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 200
	riders := Generate(cfg, random.New(5), now)

	if len(riders) != 200 {
		t.Fatalf("len = %d", len(riders))
	}
	if _, err := registry.New(riders); err != nil {
		t.Fatalf("generated seed rejected by registry: %v", err)
	}

	maxLat := cfg.RadiusKm / kmPerDegreeLat
	for i, r := range riders {
		if r.ID != "rider-"+strconv.Itoa(i+1) || r.Name != "Rider "+strconv.Itoa(i+1) {
			t.Fatalf("rider %d named %s/%s", i, r.ID, r.Name)
		}
		if math.Abs(r.Location.Lat-cfg.Center.Lat) > maxLat {
			t.Fatalf("%s latitude %v outside radius", r.ID, r.Location.Lat)
		}
		if r.LastUpdated.After(now) || now.Sub(r.LastUpdated) >= time.Hour {
			t.Fatalf("%s last updated %v", r.ID, r.LastUpdated)
		}
		if r.TotalDistance < 100 || r.TotalDistance >= 1100 {
			t.Fatalf("%s total distance %v", r.ID, r.TotalDistance)
		}
		switch r.Status {
		case model.StatusActive:
			if r.Speed < 10 || r.Speed >= 60 {
				t.Fatalf("%s active speed %v", r.ID, r.Speed)
			}
		case model.StatusInactive:
			if r.Speed < 0 || r.Speed >= 5 {
				t.Fatalf("%s inactive speed %v", r.ID, r.Speed)
			}
		case model.StatusOffline:
			if r.Speed != 0 {
				t.Fatalf("%s offline speed %v", r.ID, r.Speed)
			}
		}
	}
	if riders[70].Avatar != "https://i.pravatar.cc/150?img=1" {
		t.Fatalf("avatar index does not wrap at 70: %s", riders[70].Avatar)
	}
}

func TestStatusWeights(t *testing.T) {
	tests := []struct {
		name string
		w    Weights
		draw int
		want model.Status
	}{
		{"first active slot", Weights{3, 1, 1}, 0, model.StatusActive},
		{"last active slot", Weights{3, 1, 1}, 2, model.StatusActive},
		{"inactive slot", Weights{3, 1, 1}, 3, model.StatusInactive},
		{"offline slot", Weights{3, 1, 1}, 4, model.StatusOffline},
		{"offline only", Weights{0, 0, 2}, 1, model.StatusOffline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := drawStatus(tt.w, (&random.Scripted{}).PushInts(tt.draw)); got != tt.want {
				t.Fatalf("drawStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	if errs := DefaultConfig().Validate(); len(errs) != 0 {
		t.Fatalf("default config invalid: %v", errs)
	}
	bad := Config{Count: -1, RadiusKm: -2, Center: model.Location{Lat: 91}}
	if errs := bad.Validate(); len(errs) != 4 {
		t.Fatalf("Validate() = %v, want 4 errors", errs)
	}
}

func TestWriteThenLoad(t *testing.T) {
	riders := Generate(DefaultConfig(), random.New(11), now)

	var buf bytes.Buffer
	if err := Write(&buf, riders); err != nil {
		t.Fatalf("Write() err=%v", err)
	}
	loaded, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load() err=%v", err)
	}
	if diff := cmp.Diff(riders, loaded); diff != "" {
		t.Fatalf("seed file lost data (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsBadRiders(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown status", "riders:\n  - id: r1\n    status: parked\n"},
		{"battery out of range", "riders:\n  - id: r1\n    status: active\n    batteryLevel: 140\n"},
		{"unknown field", "riders:\n  - id: r1\n    status: active\n    colour: red\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tt.doc)); err == nil {
				t.Fatalf("Load() accepted %q", tt.doc)
			}
		})
	}

	riders, err := Load(strings.NewReader(""))
	if err != nil || len(riders) != 0 {
		t.Fatalf("Load(empty) = %v, %v", riders, err)
	}
}
