package dashboard

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/autopeer-io/ridertrack/internal/fleet/engine"
	"github.com/autopeer-io/ridertrack/internal/fleet/model"
	"github.com/autopeer-io/ridertrack/internal/fleet/random"
	"github.com/autopeer-io/ridertrack/internal/fleet/seed"
	"github.com/autopeer-io/ridertrack/pkg/options"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig(out *syncBuffer) *Config {
	tuning := engine.DefaultTuning()
	tuning.TickInterval = 20 * time.Millisecond

	httpOpts := options.NewHttpOptions()
	httpOpts.Addr = "127.0.0.1:0"
	grpcOpts := options.NewGrpcOptions()
	grpcOpts.Addr = "127.0.0.1:0"
	console := options.NewConsoleOptions()
	console.Enabled = true

	return &Config{
		Seed:           seed.DefaultConfig(),
		Tuning:         tuning,
		RandomSeed:     9,
		HttpOptions:    httpOpts,
		GrpcOptions:    grpcOpts,
		MqttOptions:    options.NewMqttOptions(),
		ConsoleOptions: console,
		Stdout:         out,
	}
}

func TestDashboardRunsUntilCancelled(t *testing.T) {
	var out syncBuffer
	d, err := testConfig(&out).NewDashboard()
	if err != nil {
		t.Fatalf("NewDashboard() err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for d.Engine().Seq() < 3 || !strings.Contains(out.String(), "tick ") {
		if time.Now().After(deadline) {
			t.Fatalf("engine did not tick: seq=%d", d.Engine().Seq())
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() err=%v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if d.Engine().Running() {
		t.Fatal("engine still running")
	}
}

func TestRidersFromSeedFile(t *testing.T) {
	want := seed.Generate(seed.DefaultConfig(), random.New(3), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	path := filepath.Join(t.TempDir(), "riders.yaml")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := seed.Write(f, want); err != nil {
		t.Fatal(err)
	}
	f.Close()

	cfg := &Config{SeedFile: path}
	got, err := cfg.Riders(random.New(1), time.Now())
	if err != nil {
		t.Fatalf("Riders() err=%v", err)
	}
	if len(got) != len(want) || got[0].ID != want[0].ID {
		t.Fatalf("Riders() = %d riders", len(got))
	}

	cfg.SeedFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := cfg.Riders(random.New(1), time.Now()); err == nil {
		t.Fatal("missing seed file accepted")
	}
}

func TestGeneratedRidersFollowConfig(t *testing.T) {
	cfg := &Config{Seed: seed.Config{Count: 4, RadiusKm: 1, Weights: seed.Weights{Offline: 1}}}
	got, err := cfg.Riders(random.New(1), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range got {
		if r.Status != model.StatusOffline {
			t.Fatalf("%s status %s", r.ID, r.Status)
		}
	}
}
