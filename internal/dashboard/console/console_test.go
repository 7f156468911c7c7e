package console

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/autopeer-io/ridertrack/internal/fleet/model"
)

var now = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func riders() []model.Entity {
	return []model.Entity{
		{ID: "rider-1", Name: "Rider 1", Status: model.StatusActive, Speed: 22, BatteryLevel: 80, LastUpdated: now.Add(-30 * time.Second)},
		{ID: "rider-2", Name: "Rider 2", Status: model.StatusOffline, BatteryLevel: 5, LastUpdated: now.Add(-2 * time.Hour)},
	}
}

func TestRenderMarksSelectedRider(t *testing.T) {
	out := Render(model.NewSnapshot(7, now, riders()), "rider-2", 24, now)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "tick 7  all 2  active 1  inactive 0  offline 1") {
		t.Errorf("summary = %q", lines[0])
	}
	if strings.HasPrefix(lines[2], ">") {
		t.Errorf("unselected row marked: %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], ">") || !strings.Contains(lines[3], "rider-2") {
		t.Errorf("selected row not marked: %q", lines[3])
	}
	if !strings.Contains(lines[2], "30 sec ago") || !strings.Contains(lines[3], "2 hr ago") {
		t.Errorf("relative times missing:\n%s", out)
	}
}

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

func TestConsoleKeepsOnlyNewestFrame(t *testing.T) {
	var out syncBuffer
	c := New(&out, nil, 0, nil)

	// Nothing drains yet, so the second frame replaces the first.
	c.OnSnapshot(context.Background(), model.NewSnapshot(1, now, riders()))
	c.OnSnapshot(context.Background(), model.NewSnapshot(2, now, riders()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(out.String(), "tick 2") {
		if time.Now().After(deadline) {
			t.Fatalf("frame never rendered")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Start() err=%v", err)
	}
	if strings.Contains(out.String(), "tick 1 ") {
		t.Fatalf("stale frame rendered:\n%s", out.String())
	}
}
