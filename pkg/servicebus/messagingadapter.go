package servicebus

import (
	"context"
)

// --- Message Bus Client Abstraction Interfaces ---

// QueueProperties describes a queue to be created.
type QueueProperties struct {
	Name                             string
	RequiresSession                  bool
	DeadLetteringOnMessageExpiration bool
	RequiresDuplicateDetection       bool
}

// TopicProperties describes a topic to be created.
type TopicProperties struct {
	Name string
}

// SubscriptionProperties describes a subscription to be created on an existing topic.
type SubscriptionProperties struct {
	Topic string
	Name  string
}

// EntityAdmin is the control plane of the message bus. All names it receives
// are physical names.
type EntityAdmin interface {
	QueueExists(ctx context.Context, name string) (bool, error)
	CreateQueue(ctx context.Context, props QueueProperties) error
	DeleteQueue(ctx context.Context, name string) error

	TopicExists(ctx context.Context, name string) (bool, error)
	CreateTopic(ctx context.Context, props TopicProperties) error
	DeleteTopic(ctx context.Context, name string) error

	SubscriptionExists(ctx context.Context, topic, name string) (bool, error)
	CreateSubscription(ctx context.Context, props SubscriptionProperties) error
	DeleteSubscription(ctx context.Context, topic, name string) error
}

// Message is an outgoing message. The body is opaque to this package.
type Message struct {
	ID         string
	SessionID  string
	Body       []byte
	Properties map[string]string
}

// ReceivedMessage is a message handed back by a Receiver. It must be completed
// through the Receiver that produced it.
type ReceivedMessage struct {
	Message
	raw any
}

// Sender sends messages to a queue or topic.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
	Close(ctx context.Context) error
}

// Receiver pulls messages from a queue or subscription.
// A Receiver is not safe for concurrent use.
type Receiver interface {
	// Receive blocks until at least one message is available or ctx is done,
	// and returns at most max messages.
	Receive(ctx context.Context, max int) ([]*ReceivedMessage, error)
	Complete(ctx context.Context, msg *ReceivedMessage) error
	Close(ctx context.Context) error
}

// Connector is the data plane of the message bus. It builds senders and
// receivers for entities that already exist.
type Connector interface {
	NewSender(ctx context.Context, entity string) (Sender, error)
	NewQueueReceiver(ctx context.Context, queue string, requiresSession bool) (Receiver, error)
	NewSubscriptionReceiver(ctx context.Context, topic, subscription string) (Receiver, error)
	Close(ctx context.Context) error
}

// Bus combines the control and data planes of a single backend.
type Bus interface {
	EntityAdmin
	Connector
}
