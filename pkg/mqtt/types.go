package mqtt

import (
	"context"
)

// MessageHandler receives one inbound message on a subscribed topic.
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// Client is the broker connection used by the fleet mirror and the watcher
// example. The implementation reconnects on its own; callers only see a
// connection that may be down for a while.
type Client interface {
	// Start connects in the background and returns at once.
	Start(ctx context.Context) error
	Disconnect(ctx context.Context)

	// AwaitConnection blocks until the first connection is up or ctx ends.
	AwaitConnection(ctx context.Context) error
	IsConnected() bool

	// Publish sends payload to topic. qos is 0, 1 or 2.
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error

	// Subscribe routes messages matching the filter to handler. Filters may
	// carry a $share/<group>/ prefix and are restored after a reconnect.
	Subscribe(ctx context.Context, topic string, qos int, handler MessageHandler) error
	Unsubscribe(ctx context.Context, topic string) error
}
