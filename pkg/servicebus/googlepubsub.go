package servicebus

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"cloud.google.com/go/pubsub"
	pubsubv1 "cloud.google.com/go/pubsub/apiv1"
	"cloud.google.com/go/pubsub/apiv1/pubsubpb"
	"google.golang.org/api/option"
)

// pullInterval is how long a Pub/Sub receiver waits between empty pulls.
const pullInterval = 250 * time.Millisecond

// --- Adapters for Google Cloud Pub/Sub ---
// A queue is modelled as a topic with a single subscription of the same name.
// Subscription IDs are project-wide in Pub/Sub, so the adapter suffixes each
// subscription with a hash of its topic.

type googleBus struct {
	client     *pubsub.Client
	subscriber *pubsubv1.SubscriberClient
}

// NewGooglePubSub creates a Bus over Google Cloud Pub/Sub in the given project.
func NewGooglePubSub(ctx context.Context, projectID string, clientOpts ...option.ClientOption) (Bus, error) {
	client, err := pubsub.NewClient(ctx, projectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub.NewClient: %w", err)
	}
	subscriber, err := pubsubv1.NewSubscriberClient(ctx, clientOpts...)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("pubsub.NewSubscriberClient: %w", err)
	}
	return &googleBus{client: client, subscriber: subscriber}, nil
}

func googleSubscriptionID(topic, name string) string {
	return name + "." + nameHash(topic)[:8]
}

func (b *googleBus) QueueExists(ctx context.Context, name string) (bool, error) {
	exists, err := b.client.Topic(name).Exists(ctx)
	if err != nil || !exists {
		return false, err
	}
	return b.client.Subscription(name).Exists(ctx)
}

func (b *googleBus) CreateQueue(ctx context.Context, props QueueProperties) error {
	topic := b.client.Topic(props.Name)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		if topic, err = b.client.CreateTopic(ctx, props.Name); err != nil {
			return err
		}
	}
	_, err = b.client.CreateSubscription(ctx, props.Name, pubsub.SubscriptionConfig{
		Topic:                     topic,
		EnableMessageOrdering:     props.RequiresSession,
		EnableExactlyOnceDelivery: props.RequiresDuplicateDetection,
	})
	return err
}

func (b *googleBus) DeleteQueue(ctx context.Context, name string) error {
	if err := b.client.Subscription(name).Delete(ctx); err != nil {
		return err
	}
	return b.client.Topic(name).Delete(ctx)
}

func (b *googleBus) TopicExists(ctx context.Context, name string) (bool, error) {
	return b.client.Topic(name).Exists(ctx)
}

func (b *googleBus) CreateTopic(ctx context.Context, props TopicProperties) error {
	_, err := b.client.CreateTopic(ctx, props.Name)
	return err
}

func (b *googleBus) DeleteTopic(ctx context.Context, name string) error {
	return b.client.Topic(name).Delete(ctx)
}

func (b *googleBus) SubscriptionExists(ctx context.Context, topic, name string) (bool, error) {
	return b.client.Subscription(googleSubscriptionID(topic, name)).Exists(ctx)
}

func (b *googleBus) CreateSubscription(ctx context.Context, props SubscriptionProperties) error {
	topic := b.client.Topic(props.Topic)
	topicExists, err := topic.Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for subscription's topic '%s': %w", props.Topic, err)
	}
	if !topicExists {
		return fmt.Errorf("cannot create subscription '%s', its topic '%s' does not exist", props.Name, props.Topic)
	}
	_, err = b.client.CreateSubscription(ctx, googleSubscriptionID(props.Topic, props.Name), pubsub.SubscriptionConfig{Topic: topic})
	return err
}

func (b *googleBus) DeleteSubscription(ctx context.Context, topic, name string) error {
	return b.client.Subscription(googleSubscriptionID(topic, name)).Delete(ctx)
}

func (b *googleBus) NewSender(_ context.Context, entity string) (Sender, error) {
	topic := b.client.Topic(entity)
	topic.EnableMessageOrdering = true
	return &googleSender{topic: topic}, nil
}

func (b *googleBus) NewQueueReceiver(_ context.Context, queue string, _ bool) (Receiver, error) {
	return b.newReceiver(queue), nil
}

func (b *googleBus) NewSubscriptionReceiver(_ context.Context, topic, subscription string) (Receiver, error) {
	return b.newReceiver(googleSubscriptionID(topic, subscription)), nil
}

func (b *googleBus) newReceiver(subID string) *googleReceiver {
	return &googleReceiver{
		subscriber:   b.subscriber,
		subscription: fmt.Sprintf("projects/%s/subscriptions/%s", b.client.Project(), subID),
	}
}

func (b *googleBus) Close(_ context.Context) error {
	return errors.Join(b.subscriber.Close(), b.client.Close())
}

type googleSender struct{ topic *pubsub.Topic }

func (s *googleSender) Send(ctx context.Context, msg *Message) error {
	result := s.topic.Publish(ctx, &pubsub.Message{
		Data:        msg.Body,
		Attributes:  msg.Properties,
		OrderingKey: msg.SessionID,
	})
	_, err := result.Get(ctx)
	if err != nil && msg.SessionID != "" {
		s.topic.ResumePublish(msg.SessionID)
	}
	return err
}

func (s *googleSender) Close(_ context.Context) error {
	s.topic.Stop()
	return nil
}

type googleReceiver struct {
	subscriber   *pubsubv1.SubscriberClient
	subscription string
}

func (r *googleReceiver) Receive(ctx context.Context, max int) ([]*ReceivedMessage, error) {
	if max <= 0 {
		return nil, fmt.Errorf("receive from '%s': max must be positive, got %d", r.subscription, max)
	}
	max = min(max, math.MaxInt32)
	for {
		resp, err := r.subscriber.Pull(ctx, &pubsubpb.PullRequest{
			Subscription: r.subscription,
			MaxMessages:  int32(max),
		})
		if err != nil {
			return nil, err
		}
		if len(resp.GetReceivedMessages()) > 0 {
			out := make([]*ReceivedMessage, 0, len(resp.GetReceivedMessages()))
			for _, rm := range resp.GetReceivedMessages() {
				m := rm.GetMessage()
				out = append(out, &ReceivedMessage{
					Message: Message{
						ID:         m.GetMessageId(),
						SessionID:  m.GetOrderingKey(),
						Body:       m.GetData(),
						Properties: m.GetAttributes(),
					},
					raw: rm.GetAckId(),
				})
			}
			return out, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pullInterval):
		}
	}
}

func (r *googleReceiver) Complete(ctx context.Context, msg *ReceivedMessage) error {
	ackID, ok := msg.raw.(string)
	if !ok {
		return fmt.Errorf("message '%s' was not received from Pub/Sub", msg.ID)
	}
	return r.subscriber.Acknowledge(ctx, &pubsubpb.AcknowledgeRequest{
		Subscription: r.subscription,
		AckIds:       []string{ackID},
	})
}

func (r *googleReceiver) Close(_ context.Context) error { return nil }
