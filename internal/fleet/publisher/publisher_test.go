package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/autopeer-io/ridertrack/internal/fleet/model"
)

func TestPublishSnapshotDeliversOncePerSubscriberInOrder(t *testing.T) {
	p := New(nil)

	var order []string
	var got []uint64
	p.SubscribeSnapshots(SnapshotFunc(func(_ context.Context, s model.Snapshot) {
		order = append(order, "list")
		got = append(got, s.Seq())
	}))
	p.SubscribeSnapshots(SnapshotFunc(func(context.Context, model.Snapshot) {
		order = append(order, "map")
	}))

	if _, ok := p.Latest(); ok {
		t.Fatalf("Latest() before any publish should miss")
	}

	for seq := uint64(1); seq <= 3; seq++ {
		p.PublishSnapshot(context.Background(), model.NewSnapshot(seq, time.Time{}, nil))
	}

	if want := []string{"list", "map", "list", "map", "list", "map"}; len(order) != len(want) {
		t.Fatalf("delivery order = %v", order)
	} else {
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("delivery order = %v, want %v", order, want)
			}
		}
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("list subscriber saw seqs %v", got)
	}
	if latest, ok := p.Latest(); !ok || latest.Seq() != 3 {
		t.Fatalf("Latest() = %d, %v", latest.Seq(), ok)
	}
	if p.Published() != 3 {
		t.Fatalf("Published() = %d", p.Published())
	}
}

func TestPanickingSubscriberDoesNotStopDelivery(t *testing.T) {
	p := New(nil)
	delivered := 0
	changes := 0

	p.SubscribeSnapshots(SnapshotFunc(func(context.Context, model.Snapshot) { panic("boom") }))
	p.SubscribeSnapshots(SnapshotFunc(func(context.Context, model.Snapshot) { delivered++ }))
	p.SubscribeStatusChanges(StatusChangeFunc(func(context.Context, model.StatusChange) { panic("boom") }))
	p.SubscribeStatusChanges(StatusChangeFunc(func(context.Context, model.StatusChange) { changes++ }))

	p.PublishSnapshot(context.Background(), model.NewSnapshot(1, time.Time{}, nil))
	p.PublishStatusChange(context.Background(), model.StatusChange{EntityID: "r1"})

	if delivered != 1 || changes != 1 {
		t.Fatalf("delivered=%d changes=%d, want 1 and 1", delivered, changes)
	}
}
