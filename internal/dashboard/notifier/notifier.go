// Package notifier delivers notifications about the selected rider.
package notifier

import (
	"context"
	"errors"

	"github.com/autopeer-io/ridertrack/internal/fleet/model"
	"github.com/autopeer-io/ridertrack/internal/fleet/selection"
	"github.com/autopeer-io/ridertrack/internal/pkg/metrics"
	"github.com/autopeer-io/ridertrack/pkg/log"
)

// Log writes every notification to a logger.
type Log struct {
	log log.Logger
}

var _ selection.Notifier = (*Log)(nil)

func NewLog(logger log.Logger) *Log {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Log{log: logger}
}

func (l *Log) Notify(_ context.Context, n model.Notification) error {
	l.log.Info(n.Title, "riderID", n.EntityID, "description", n.Description, "duration", n.Duration)
	return nil
}

// Fanout delivers to every sink, in order, even if earlier ones fail.
type Fanout struct {
	sinks []selection.Notifier
}

var _ selection.Notifier = (*Fanout)(nil)

// NewFanout ignores nil sinks.
func NewFanout(sinks ...selection.Notifier) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Len returns the number of sinks.
func (f *Fanout) Len() int { return len(f.sinks) }

// Notify returns the joined errors of the sinks that failed.
func (f *Fanout) Notify(ctx context.Context, n model.Notification) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Notify(ctx, n); err != nil {
			metrics.Notifications.WithLabelValues("failed").Inc()
			errs = append(errs, err)
			continue
		}
		metrics.Notifications.WithLabelValues("delivered").Inc()
	}
	return errors.Join(errs...)
}
