package servicebus_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/illmade-knight/go-cloudbridge/pkg/servicebus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks for Bus Interfaces ---

type MockBus struct {
	mock.Mock
}

func (m *MockBus) QueueExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}
func (m *MockBus) CreateQueue(ctx context.Context, props servicebus.QueueProperties) error {
	return m.Called(ctx, props).Error(0)
}
func (m *MockBus) DeleteQueue(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}
func (m *MockBus) TopicExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}
func (m *MockBus) CreateTopic(ctx context.Context, props servicebus.TopicProperties) error {
	return m.Called(ctx, props).Error(0)
}
func (m *MockBus) DeleteTopic(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}
func (m *MockBus) SubscriptionExists(ctx context.Context, topic, name string) (bool, error) {
	args := m.Called(ctx, topic, name)
	return args.Bool(0), args.Error(1)
}
func (m *MockBus) CreateSubscription(ctx context.Context, props servicebus.SubscriptionProperties) error {
	return m.Called(ctx, props).Error(0)
}
func (m *MockBus) DeleteSubscription(ctx context.Context, topic, name string) error {
	return m.Called(ctx, topic, name).Error(0)
}
func (m *MockBus) NewSender(ctx context.Context, entity string) (servicebus.Sender, error) {
	args := m.Called(ctx, entity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(servicebus.Sender), args.Error(1)
}
func (m *MockBus) NewQueueReceiver(ctx context.Context, queue string, requiresSession bool) (servicebus.Receiver, error) {
	args := m.Called(ctx, queue, requiresSession)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(servicebus.Receiver), args.Error(1)
}
func (m *MockBus) NewSubscriptionReceiver(ctx context.Context, topic, subscription string) (servicebus.Receiver, error) {
	args := m.Called(ctx, topic, subscription)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(servicebus.Receiver), args.Error(1)
}
func (m *MockBus) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg *servicebus.Message) error {
	return m.Called(ctx, msg).Error(0)
}
func (m *MockSender) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// --- Helper Function ---

var testNamer = servicebus.Namer{MasterPrefix: "prod", SubscriptionNamePrefix: "node1"}

func newTestManager(t *testing.T) (*servicebus.TopologyManager, *MockBus) {
	t.Helper()
	mockBus := new(MockBus)
	manager, err := servicebus.NewTopologyManager(mockBus, testNamer, zerolog.New(io.Discard))
	require.NoError(t, err)
	return manager, mockBus
}

func TestNewTopologyManager_NilBus(t *testing.T) {
	_, err := servicebus.NewTopologyManager(nil, testNamer, zerolog.New(io.Discard))
	require.Error(t, err)
	assert.ErrorIs(t, err, servicebus.ErrNilClient)
}

// --- Test Cases for Queues ---

func TestTopologyManager_EnsureQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates missing queue with required properties", func(t *testing.T) {
		manager, mockBus := newTestManager(t)
		mockBus.On("QueueExists", ctx, "q.prod.Order_Placed").Return(false, nil).Once()
		mockBus.On("CreateQueue", ctx, servicebus.QueueProperties{
			Name:                             "q.prod.Order_Placed",
			RequiresSession:                  true,
			DeadLetteringOnMessageExpiration: true,
			RequiresDuplicateDetection:       true,
		}).Return(nil).Once()

		name, err := manager.EnsureQueue(ctx, "Order Placed", true)
		require.NoError(t, err)
		assert.Equal(t, "q.prod.Order_Placed", name)
		mockBus.AssertExpectations(t)
	})

	t.Run("Second call skips creation", func(t *testing.T) {
		manager, mockBus := newTestManager(t)
		mockBus.On("QueueExists", ctx, "q.prod.Orders").Return(false, nil).Once()
		mockBus.On("CreateQueue", ctx, mock.AnythingOfType("servicebus.QueueProperties")).Return(nil).Once()
		mockBus.On("QueueExists", ctx, "q.prod.Orders").Return(true, nil).Once()

		_, err := manager.EnsureQueue(ctx, "Orders", false)
		require.NoError(t, err)
		_, err = manager.EnsureQueue(ctx, "Orders", false)
		require.NoError(t, err)

		mockBus.AssertNumberOfCalls(t, "CreateQueue", 1)
		mockBus.AssertExpectations(t)
	})

	t.Run("Existence check error propagates without create", func(t *testing.T) {
		manager, mockBus := newTestManager(t)
		backendErr := errors.New("unauthorized")
		mockBus.On("QueueExists", ctx, "q.prod.Orders").Return(false, backendErr).Once()

		_, err := manager.EnsureQueue(ctx, "Orders", false)
		require.Error(t, err)
		assert.ErrorIs(t, err, backendErr)
		mockBus.AssertNotCalled(t, "CreateQueue", mock.Anything, mock.Anything)
	})

	t.Run("Create error propagates", func(t *testing.T) {
		manager, mockBus := newTestManager(t)
		backendErr := errors.New("conflict")
		mockBus.On("QueueExists", ctx, "q.prod.Orders").Return(false, nil).Once()
		mockBus.On("CreateQueue", ctx, mock.AnythingOfType("servicebus.QueueProperties")).Return(backendErr).Once()

		_, err := manager.EnsureQueue(ctx, "Orders", false)
		assert.ErrorIs(t, err, backendErr)
	})
}

func TestTopologyManager_QueueClient(t *testing.T) {
	ctx := context.Background()
	manager, mockBus := newTestManager(t)
	mockBus.On("QueueExists", ctx, "q.prod.Orders").Return(true, nil).Once()

	client, err := manager.QueueClient(ctx, "Orders", true)
	require.NoError(t, err)
	assert.Equal(t, "q.prod.Orders", client.Name())
	assert.True(t, client.RequiresSession())

	mockSender := new(MockSender)
	mockBus.On("NewSender", ctx, "q.prod.Orders").Return(mockSender, nil).Once()
	sender, err := client.NewSender(ctx)
	require.NoError(t, err)
	assert.Same(t, mockSender, sender)

	receiverErr := errors.New("no session available")
	mockBus.On("NewQueueReceiver", ctx, "q.prod.Orders", true).Return(nil, receiverErr).Once()
	_, err = client.NewReceiver(ctx)
	assert.ErrorIs(t, err, receiverErr)

	mockBus.AssertExpectations(t)
}

func TestTopologyManager_DeleteQueue(t *testing.T) {
	ctx := context.Background()
	manager, mockBus := newTestManager(t)
	notFound := errors.New("404 not found")
	mockBus.On("DeleteQueue", ctx, "q.prod.Orders").Return(nil).Once()
	mockBus.On("DeleteQueue", ctx, "q.prod.Missing").Return(notFound).Once()

	require.NoError(t, manager.DeleteQueue(ctx, "Orders"))
	assert.ErrorIs(t, manager.DeleteQueue(ctx, "Missing"), notFound)
	mockBus.AssertExpectations(t)
}

// --- Test Cases for Topics and Subscriptions ---

func TestTopologyManager_TopicClient(t *testing.T) {
	ctx := context.Background()
	manager, mockBus := newTestManager(t)
	mockBus.On("TopicExists", ctx, "t.prod.Events").Return(false, nil).Once()
	mockBus.On("CreateTopic", ctx, servicebus.TopicProperties{Name: "t.prod.Events"}).Return(nil).Once()

	client, err := manager.TopicClient(ctx, "Events")
	require.NoError(t, err)
	assert.Equal(t, "t.prod.Events", client.Name())
	mockBus.AssertExpectations(t)

	mockBus.On("DeleteTopic", ctx, "t.prod.Events").Return(nil).Once()
	require.NoError(t, manager.DeleteTopic(ctx, "Events"))
}

func TestTopologyManager_SubscriptionClient(t *testing.T) {
	ctx := context.Background()
	manager, mockBus := newTestManager(t)
	subName, err := testNamer.SubscriptionName("Billing.Handler")
	require.NoError(t, err)

	mockBus.On("SubscriptionExists", ctx, "t.prod.Events", subName).Return(false, nil).Once()
	mockBus.On("CreateSubscription", ctx, servicebus.SubscriptionProperties{Topic: "t.prod.Events", Name: subName}).Return(nil).Once()

	client, err := manager.SubscriptionClient(ctx, "Events", "Billing.Handler")
	require.NoError(t, err)
	assert.Equal(t, "t.prod.Events", client.Topic())
	assert.Equal(t, subName, client.Name())

	mockBus.On("DeleteSubscription", ctx, "t.prod.Events", subName).Return(nil).Once()
	require.NoError(t, manager.DeleteSubscription(ctx, "Events", "Billing.Handler"))
	mockBus.AssertExpectations(t)
}

func TestTopologyManager_EnsureSubscription_NameTooLong(t *testing.T) {
	mockBus := new(MockBus)
	namer := servicebus.Namer{MasterPrefix: "production-environment", SubscriptionNamePrefix: "a-very-long-host-name"}
	manager, err := servicebus.NewTopologyManager(mockBus, namer, zerolog.New(io.Discard))
	require.NoError(t, err)

	_, _, err = manager.EnsureSubscription(context.Background(), "Events", "Handler")
	require.Error(t, err)
	assert.ErrorIs(t, err, servicebus.ErrNameTooLong)

	err = manager.DeleteSubscription(context.Background(), "Events", "Handler")
	assert.ErrorIs(t, err, servicebus.ErrNameTooLong)

	// No network call may happen for a precondition failure.
	assert.Empty(t, mockBus.Calls)
}

// --- Test Cases for Setup and Teardown ---

func getTestTopology() servicebus.Topology {
	return servicebus.Topology{
		Queues: []servicebus.QueueSpec{{Name: "Commands", RequiresSession: true}},
		Topics: []servicebus.TopicSpec{{Name: "Events", Subscriptions: []string{"Audit"}}},
	}
}

func TestTopologyManager_Setup(t *testing.T) {
	ctx := context.Background()
	manager, mockBus := newTestManager(t)
	subName, err := testNamer.SubscriptionName("Audit")
	require.NoError(t, err)

	mockBus.On("TopicExists", ctx, "t.prod.Events").Return(false, nil).Once()
	mockBus.On("CreateTopic", ctx, servicebus.TopicProperties{Name: "t.prod.Events"}).Return(nil).Once()
	mockBus.On("QueueExists", mock.Anything, "q.prod.Commands").Return(true, nil).Once()
	mockBus.On("SubscriptionExists", mock.Anything, "t.prod.Events", subName).Return(false, nil).Once()
	mockBus.On("CreateSubscription", mock.Anything, servicebus.SubscriptionProperties{Topic: "t.prod.Events", Name: subName}).Return(nil).Once()

	require.NoError(t, manager.Setup(ctx, getTestTopology()))
	mockBus.AssertExpectations(t)
	mockBus.AssertNotCalled(t, "CreateQueue", mock.Anything, mock.Anything)
}

func TestTopologyManager_Setup_TopicFailureStopsSubscriptions(t *testing.T) {
	ctx := context.Background()
	manager, mockBus := newTestManager(t)
	backendErr := errors.New("quota exceeded")
	mockBus.On("TopicExists", ctx, "t.prod.Events").Return(false, nil).Once()
	mockBus.On("CreateTopic", ctx, servicebus.TopicProperties{Name: "t.prod.Events"}).Return(backendErr).Once()

	err := manager.Setup(ctx, getTestTopology())
	assert.ErrorIs(t, err, backendErr)
	mockBus.AssertNotCalled(t, "SubscriptionExists", mock.Anything, mock.Anything, mock.Anything)
	mockBus.AssertNotCalled(t, "QueueExists", mock.Anything, mock.Anything)
}

func TestTopologyManager_Teardown(t *testing.T) {
	ctx := context.Background()

	t.Run("Deletes subscriptions before topics", func(t *testing.T) {
		manager, mockBus := newTestManager(t)
		subName, err := testNamer.SubscriptionName("Audit")
		require.NoError(t, err)

		var order []string
		mockBus.On("DeleteSubscription", ctx, "t.prod.Events", subName).Return(nil).Run(func(mock.Arguments) { order = append(order, "sub") }).Once()
		mockBus.On("DeleteTopic", ctx, "t.prod.Events").Return(nil).Run(func(mock.Arguments) { order = append(order, "topic") }).Once()
		mockBus.On("DeleteQueue", ctx, "q.prod.Commands").Return(nil).Run(func(mock.Arguments) { order = append(order, "queue") }).Once()

		require.NoError(t, manager.Teardown(ctx, getTestTopology(), false))
		assert.Equal(t, []string{"sub", "topic", "queue"}, order)
		mockBus.AssertExpectations(t)
	})

	t.Run("Protection enabled", func(t *testing.T) {
		manager, mockBus := newTestManager(t)
		err := manager.Teardown(ctx, getTestTopology(), true)
		assert.EqualError(t, err, "teardown protection enabled for this operation")
		assert.Empty(t, mockBus.Calls)
	})
}
