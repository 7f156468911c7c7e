package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/autopeer-io/ridertrack/internal/fleet/model"
	"github.com/autopeer-io/ridertrack/internal/pkg/metrics"
)

type recorder struct {
	got []model.Notification
	err error
}

func (r *recorder) Notify(_ context.Context, n model.Notification) error {
	r.got = append(r.got, n)
	return r.err
}

func TestFanoutDeliversToEverySink(t *testing.T) {
	failing := &recorder{err: errors.New("broker down")}
	ok := &recorder{}
	f := NewFanout(failing, nil, ok, NewLog(nil))
	if f.Len() != 3 {
		t.Fatalf("Len() = %d, want nil sink skipped", f.Len())
	}

	delivered := testutil.ToFloat64(metrics.Notifications.WithLabelValues("delivered"))
	failed := testutil.ToFloat64(metrics.Notifications.WithLabelValues("failed"))

	n := model.Notification{ID: "n1", EntityID: "rider-1", Title: "Rider 1 is now offline"}
	err := f.Notify(context.Background(), n)
	if !errors.Is(err, failing.err) {
		t.Fatalf("Notify() err=%v, want wrapped sink error", err)
	}
	if len(failing.got) != 1 || len(ok.got) != 1 {
		t.Fatalf("deliveries failing=%d ok=%d", len(failing.got), len(ok.got))
	}

	if got := testutil.ToFloat64(metrics.Notifications.WithLabelValues("delivered")) - delivered; got != 2 {
		t.Errorf("delivered += %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.Notifications.WithLabelValues("failed")) - failed; got != 1 {
		t.Errorf("failed += %v, want 1", got)
	}
}

func TestEmptyFanout(t *testing.T) {
	if err := NewFanout().Notify(context.Background(), model.Notification{}); err != nil {
		t.Fatalf("Notify() err=%v", err)
	}
}
