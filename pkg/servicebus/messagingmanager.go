package servicebus

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrNilClient is returned by constructors given a nil backend client.
var ErrNilClient = errors.New("servicebus: client cannot be nil")

// --- Topology Manager ---

// TopologyManager turns logical queue, topic and subscription names into
// physical entities that exist on the message bus, creating them when absent.
// Existence is re-checked on every call.
type TopologyManager struct {
	bus    Bus
	namer  Namer
	logger zerolog.Logger
}

// NewTopologyManager creates a new TopologyManager.
func NewTopologyManager(bus Bus, namer Namer, logger zerolog.Logger) (*TopologyManager, error) {
	if bus == nil {
		return nil, fmt.Errorf("%w: Bus interface is required", ErrNilClient)
	}
	return &TopologyManager{
		bus:    bus,
		namer:  namer,
		logger: logger.With().Str("component", "TopologyManager").Logger(),
	}, nil
}

// Namer returns the namer used to derive physical names.
func (m *TopologyManager) Namer() Namer { return m.namer }

// EnsureQueue creates the queue for a logical name if it does not exist and returns its physical name.
func (m *TopologyManager) EnsureQueue(ctx context.Context, name string, requiresSession bool) (string, error) {
	queueName := m.namer.QueueName(name)
	exists, err := m.bus.QueueExists(ctx, queueName)
	if err != nil {
		return "", fmt.Errorf("failed to check existence of queue '%s': %w", queueName, err)
	}
	if exists {
		return queueName, nil
	}

	m.logger.Info().Str("queue", queueName).Bool("requires_session", requiresSession).Msg("Creating queue")
	err = m.bus.CreateQueue(ctx, QueueProperties{
		Name:                             queueName,
		RequiresSession:                  requiresSession,
		DeadLetteringOnMessageExpiration: true,
		RequiresDuplicateDetection:       true,
	})
	if err != nil {
		m.logger.Error().Err(err).Str("queue", queueName).Msg("Failed to create queue")
		return "", fmt.Errorf("failed to create queue '%s': %w", queueName, err)
	}
	return queueName, nil
}

// QueueClient ensures the queue exists and returns a handle to it.
func (m *TopologyManager) QueueClient(ctx context.Context, name string, requiresSession bool) (*QueueClient, error) {
	queueName, err := m.EnsureQueue(ctx, name, requiresSession)
	if err != nil {
		return nil, err
	}
	return &QueueClient{name: queueName, requiresSession: requiresSession, conn: m.bus}, nil
}

// DeleteQueue deletes the queue for a logical name. Deleting a missing queue is an error.
func (m *TopologyManager) DeleteQueue(ctx context.Context, name string) error {
	queueName := m.namer.QueueName(name)
	m.logger.Info().Str("queue", queueName).Msg("Deleting queue")
	if err := m.bus.DeleteQueue(ctx, queueName); err != nil {
		return fmt.Errorf("failed to delete queue '%s': %w", queueName, err)
	}
	return nil
}

// EnsureTopic creates the topic for a logical name if it does not exist and returns its physical name.
func (m *TopologyManager) EnsureTopic(ctx context.Context, name string) (string, error) {
	topicName := m.namer.TopicName(name)
	exists, err := m.bus.TopicExists(ctx, topicName)
	if err != nil {
		return "", fmt.Errorf("failed to check existence of topic '%s': %w", topicName, err)
	}
	if exists {
		return topicName, nil
	}

	m.logger.Info().Str("topic", topicName).Msg("Creating topic")
	if err := m.bus.CreateTopic(ctx, TopicProperties{Name: topicName}); err != nil {
		m.logger.Error().Err(err).Str("topic", topicName).Msg("Failed to create topic")
		return "", fmt.Errorf("failed to create topic '%s': %w", topicName, err)
	}
	return topicName, nil
}

// TopicClient ensures the topic exists and returns a handle to it.
func (m *TopologyManager) TopicClient(ctx context.Context, name string) (*TopicClient, error) {
	topicName, err := m.EnsureTopic(ctx, name)
	if err != nil {
		return nil, err
	}
	return &TopicClient{name: topicName, conn: m.bus}, nil
}

// DeleteTopic deletes the topic for a logical name.
func (m *TopologyManager) DeleteTopic(ctx context.Context, name string) error {
	topicName := m.namer.TopicName(name)
	m.logger.Info().Str("topic", topicName).Msg("Deleting topic")
	if err := m.bus.DeleteTopic(ctx, topicName); err != nil {
		return fmt.Errorf("failed to delete topic '%s': %w", topicName, err)
	}
	return nil
}

// EnsureSubscription creates the subscription on the topic if it does not exist
// and returns the physical topic and subscription names. The topic itself is not created.
// A subscription name over the length limit fails before any call to the backend.
func (m *TopologyManager) EnsureSubscription(ctx context.Context, topic, subscription string) (string, string, error) {
	topicName := m.namer.TopicName(topic)
	subName, err := m.namer.SubscriptionName(subscription)
	if err != nil {
		m.logger.Error().Err(err).Str("topic", topicName).Str("subscription", subscription).Msg("Invalid subscription name")
		return "", "", err
	}

	exists, err := m.bus.SubscriptionExists(ctx, topicName, subName)
	if err != nil {
		return "", "", fmt.Errorf("failed to check existence of subscription '%s' on topic '%s': %w", subName, topicName, err)
	}
	if exists {
		return topicName, subName, nil
	}

	m.logger.Info().Str("topic", topicName).Str("subscription", subName).Str("logical_name", subscription).Msg("Creating subscription")
	if err := m.bus.CreateSubscription(ctx, SubscriptionProperties{Topic: topicName, Name: subName}); err != nil {
		m.logger.Error().Err(err).Str("topic", topicName).Str("subscription", subName).Msg("Failed to create subscription")
		return "", "", fmt.Errorf("failed to create subscription '%s' for topic '%s': %w", subName, topicName, err)
	}
	return topicName, subName, nil
}

// SubscriptionClient ensures the subscription exists and returns a handle to it.
func (m *TopologyManager) SubscriptionClient(ctx context.Context, topic, subscription string) (*SubscriptionClient, error) {
	topicName, subName, err := m.EnsureSubscription(ctx, topic, subscription)
	if err != nil {
		return nil, err
	}
	return &SubscriptionClient{topic: topicName, name: subName, conn: m.bus}, nil
}

// DeleteSubscription deletes the subscription for the logical topic and subscription names.
func (m *TopologyManager) DeleteSubscription(ctx context.Context, topic, subscription string) error {
	topicName := m.namer.TopicName(topic)
	subName, err := m.namer.SubscriptionName(subscription)
	if err != nil {
		return err
	}
	m.logger.Info().Str("topic", topicName).Str("subscription", subName).Msg("Deleting subscription")
	if err := m.bus.DeleteSubscription(ctx, topicName, subName); err != nil {
		return fmt.Errorf("failed to delete subscription '%s' from topic '%s': %w", subName, topicName, err)
	}
	return nil
}

// Validate derives every physical name in the topology without touching the backend.
func (m *TopologyManager) Validate(topology Topology) error {
	for _, t := range topology.Topics {
		for _, s := range t.Subscriptions {
			if _, err := m.namer.SubscriptionName(s); err != nil {
				return fmt.Errorf("topic '%s': %w", t.Name, err)
			}
		}
	}
	return nil
}

// Setup provisions every entity in the topology. Topics are created first so
// that subscriptions always have a parent; queues and subscriptions are then
// ensured concurrently.
func (m *TopologyManager) Setup(ctx context.Context, topology Topology) error {
	m.logger.Info().Int("queues", len(topology.Queues)).Int("topics", len(topology.Topics)).Msg("Starting topology setup")

	if err := m.Validate(topology); err != nil {
		m.logger.Error().Err(err).Msg("Topology failed validation")
		return err
	}

	for _, t := range topology.Topics {
		if _, err := m.EnsureTopic(ctx, t.Name); err != nil {
			return err
		}
	}

	g, gCtx := errgroup.WithContext(ctx)
	for _, q := range topology.Queues {
		g.Go(func() error {
			_, err := m.EnsureQueue(gCtx, q.Name, q.RequiresSession)
			return err
		})
	}
	for _, t := range topology.Topics {
		for _, s := range t.Subscriptions {
			g.Go(func() error {
				_, _, err := m.EnsureSubscription(gCtx, t.Name, s)
				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	m.logger.Info().Msg("Topology setup completed successfully")
	return nil
}

// Teardown deletes every entity in the topology, subscriptions first.
// It stops at the first failure, including entities that do not exist.
func (m *TopologyManager) Teardown(ctx context.Context, topology Topology, teardownProtection bool) error {
	if teardownProtection {
		return errors.New("teardown protection enabled for this operation")
	}
	m.logger.Info().Msg("Starting topology teardown")

	for i := len(topology.Topics) - 1; i >= 0; i-- {
		t := topology.Topics[i]
		for j := len(t.Subscriptions) - 1; j >= 0; j-- {
			if err := m.DeleteSubscription(ctx, t.Name, t.Subscriptions[j]); err != nil {
				return err
			}
		}
		if err := m.DeleteTopic(ctx, t.Name); err != nil {
			return err
		}
	}
	for i := len(topology.Queues) - 1; i >= 0; i-- {
		if err := m.DeleteQueue(ctx, topology.Queues[i].Name); err != nil {
			return err
		}
	}

	m.logger.Info().Msg("Topology teardown completed successfully")
	return nil
}
