package servicebus

import (
	"context"
	"fmt"
)

// QueueClient is a handle to a queue that is known to exist.
type QueueClient struct {
	name            string
	requiresSession bool
	conn            Connector
}

// Name returns the physical queue name.
func (c *QueueClient) Name() string { return c.name }

// RequiresSession reports whether the queue was requested with session affinity.
func (c *QueueClient) RequiresSession() bool { return c.requiresSession }

// NewSender opens a sender for the queue.
func (c *QueueClient) NewSender(ctx context.Context) (Sender, error) {
	s, err := c.conn.NewSender(ctx, c.name)
	if err != nil {
		return nil, fmt.Errorf("failed to open sender for queue '%s': %w", c.name, err)
	}
	return s, nil
}

// NewReceiver opens a receiver for the queue. For session queues this accepts the next available session.
func (c *QueueClient) NewReceiver(ctx context.Context) (Receiver, error) {
	r, err := c.conn.NewQueueReceiver(ctx, c.name, c.requiresSession)
	if err != nil {
		return nil, fmt.Errorf("failed to open receiver for queue '%s': %w", c.name, err)
	}
	return r, nil
}

// TopicClient is a handle to a topic that is known to exist.
type TopicClient struct {
	name string
	conn Connector
}

// Name returns the physical topic name.
func (c *TopicClient) Name() string { return c.name }

// NewSender opens a sender for the topic.
func (c *TopicClient) NewSender(ctx context.Context) (Sender, error) {
	s, err := c.conn.NewSender(ctx, c.name)
	if err != nil {
		return nil, fmt.Errorf("failed to open sender for topic '%s': %w", c.name, err)
	}
	return s, nil
}

// SubscriptionClient is a handle to a subscription that is known to exist.
type SubscriptionClient struct {
	topic string
	name  string
	conn  Connector
}

// Topic returns the physical topic name.
func (c *SubscriptionClient) Topic() string { return c.topic }

// Name returns the physical subscription name.
func (c *SubscriptionClient) Name() string { return c.name }

// NewReceiver opens a receiver for the subscription.
func (c *SubscriptionClient) NewReceiver(ctx context.Context) (Receiver, error) {
	r, err := c.conn.NewSubscriptionReceiver(ctx, c.topic, c.name)
	if err != nil {
		return nil, fmt.Errorf("failed to open receiver for subscription '%s' on topic '%s': %w", c.name, c.topic, err)
	}
	return r, nil
}
