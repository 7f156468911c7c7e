package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/autopeer-io/ridertrack/internal/fleet/model"
	"github.com/autopeer-io/ridertrack/pkg/log"
	"github.com/autopeer-io/ridertrack/pkg/mqtt"
	"github.com/autopeer-io/ridertrack/pkg/mqtt/topic"
)

const (
	PresenceOnline  = "online"
	PresenceOffline = "offline"
)

// Mirror publishes engine output under the topic root:
//
//	{root}/riders/snapshot              retained, every tick
//	{root}/riders/{id}/status           every status change
//	{root}/riders/{id}/notifications    notifications for the selected rider
//	{root}/engine/online                retained presence
type Mirror struct {
	outbox *Outbox
	topics *topic.Builder
	log    log.Logger
}

// NewMirror publishes through outbox. It marks the engine online on connect;
// pair it with WillConfig so the broker marks it offline.
func NewMirror(outbox *Outbox, topics *topic.Builder, logger log.Logger) *Mirror {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	m := &Mirror{outbox: outbox, topics: topics, log: logger}
	outbox.onConnect = func(ctx context.Context, c mqtt.Client) {
		if err := c.Publish(ctx, topics.EnginePresence(), 1, true, []byte(PresenceOnline)); err != nil {
			logger.Error(err, "Failed to publish presence")
		}
	}
	return m
}

// WillConfig sets cfg's last will to mark the engine offline.
func WillConfig(cfg *mqtt.ClientConfig, topics *topic.Builder) {
	cfg.WillTopic = topics.EnginePresence()
	cfg.WillPayload = []byte(PresenceOffline)
	cfg.WillQoS = 1
	cfg.WillRetain = true
}

// OnSnapshot implements publisher.SnapshotSubscriber.
func (m *Mirror) OnSnapshot(_ context.Context, snap model.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		m.log.Error(err, "Failed to encode snapshot", "seq", snap.Seq())
		return
	}
	if err := m.outbox.Enqueue(m.topics.RiderSnapshot(), 0, true, payload); err != nil {
		m.log.Warn("Snapshot not mirrored", "seq", snap.Seq(), "error", err)
	}
}

// OnStatusChange implements publisher.StatusChangeSubscriber.
func (m *Mirror) OnStatusChange(_ context.Context, ev model.StatusChange) {
	payload, err := json.Marshal(ev)
	if err != nil {
		m.log.Error(err, "Failed to encode status change", "riderID", ev.EntityID)
		return
	}
	if err := m.outbox.Enqueue(m.topics.RiderStatus(ev.EntityID), 1, false, payload); err != nil {
		m.log.Warn("Status change not mirrored", "riderID", ev.EntityID, "error", err)
	}
}

// Notify implements selection.Notifier. It only enqueues; a full queue is
// reported as an error.
func (m *Mirror) Notify(_ context.Context, n model.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	return m.outbox.Enqueue(m.topics.RiderNotifications(n.EntityID), 1, false, payload)
}
