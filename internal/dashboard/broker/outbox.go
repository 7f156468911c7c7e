// Package broker mirrors the fleet to an MQTT broker: retained snapshots,
// per-rider status changes and notifications for the selected rider.
//
// Tick subscribers never publish directly. They enqueue onto an Outbox whose
// own goroutine owns the connection.
package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/autopeer-io/ridertrack/pkg/log"
	"github.com/autopeer-io/ridertrack/pkg/mqtt"
)

// ErrOutboxFull is returned when a message is dropped because the queue is full.
var ErrOutboxFull = errors.New("mqtt outbox full")

const (
	DefaultQueueSize      = 256
	DefaultPublishTimeout = 5 * time.Second
)

type message struct {
	topic   string
	qos     int
	retain  bool
	payload []byte
}

// Outbox serialises publishes onto one MQTT client.
type Outbox struct {
	client         mqtt.Client
	queue          chan message
	publishTimeout time.Duration
	log            log.Logger

	// onConnect runs once the first connection is up.
	onConnect func(ctx context.Context, c mqtt.Client)
}

// NewOutbox wraps client. The client is started by Start.
func NewOutbox(client mqtt.Client, size int, logger log.Logger) *Outbox {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Outbox{
		client:         client,
		queue:          make(chan message, size),
		publishTimeout: DefaultPublishTimeout,
		log:            logger,
	}
}

// Enqueue queues a publish without blocking.
func (o *Outbox) Enqueue(topic string, qos int, retain bool, payload []byte) error {
	select {
	case o.queue <- message{topic: topic, qos: qos, retain: retain, payload: payload}:
		return nil
	default:
		return fmt.Errorf("%w: dropping message for %s", ErrOutboxFull, topic)
	}
}

// Pending returns the number of queued messages.
func (o *Outbox) Pending() int { return len(o.queue) }

// Start connects the client and publishes queued messages until ctx is done.
func (o *Outbox) Start(ctx context.Context) error {
	if err := o.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mqtt client: %w", err)
	}
	o.log.Info("Starting MQTT outbox", "queueSize", cap(o.queue))

	if o.onConnect != nil {
		go func() {
			if err := o.client.AwaitConnection(ctx); err == nil {
				o.onConnect(ctx, o.client)
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), o.publishTimeout)
			defer cancel()
			o.client.Disconnect(shutdownCtx)
			return nil
		case m := <-o.queue:
			o.publish(ctx, m)
		}
	}
}

func (o *Outbox) publish(ctx context.Context, m message) {
	pubCtx, cancel := context.WithTimeout(ctx, o.publishTimeout)
	defer cancel()
	if err := o.client.Publish(pubCtx, m.topic, m.qos, m.retain, m.payload); err != nil {
		o.log.Error(err, "Failed to publish MQTT message", "topic", m.topic)
	}
}
