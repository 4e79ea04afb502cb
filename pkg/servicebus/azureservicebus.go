package servicebus

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus/admin"
)

// --- Adapters for Azure Service Bus ---

type azureBus struct {
	admin  *admin.Client
	client *azservicebus.Client
}

// NewAzureServiceBus creates a Bus over an Azure Service Bus namespace.
func NewAzureServiceBus(connectionString string) (Bus, error) {
	adminClient, err := admin.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("admin.NewClientFromConnectionString: %w", err)
	}
	client, err := azservicebus.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("azservicebus.NewClientFromConnectionString: %w", err)
	}
	return &azureBus{admin: adminClient, client: client}, nil
}

// GetQueue, GetTopic and GetSubscription return a nil response and nil error for missing entities.

func (b *azureBus) QueueExists(ctx context.Context, name string) (bool, error) {
	resp, err := b.admin.GetQueue(ctx, name, nil)
	if err != nil {
		return false, err
	}
	return resp != nil, nil
}

func (b *azureBus) CreateQueue(ctx context.Context, props QueueProperties) error {
	_, err := b.admin.CreateQueue(ctx, props.Name, &admin.CreateQueueOptions{
		Properties: &admin.QueueProperties{
			RequiresSession:                  to.Ptr(props.RequiresSession),
			DeadLetteringOnMessageExpiration: to.Ptr(props.DeadLetteringOnMessageExpiration),
			RequiresDuplicateDetection:       to.Ptr(props.RequiresDuplicateDetection),
		},
	})
	return err
}

func (b *azureBus) DeleteQueue(ctx context.Context, name string) error {
	_, err := b.admin.DeleteQueue(ctx, name, nil)
	return err
}

func (b *azureBus) TopicExists(ctx context.Context, name string) (bool, error) {
	resp, err := b.admin.GetTopic(ctx, name, nil)
	if err != nil {
		return false, err
	}
	return resp != nil, nil
}

func (b *azureBus) CreateTopic(ctx context.Context, props TopicProperties) error {
	_, err := b.admin.CreateTopic(ctx, props.Name, nil)
	return err
}

func (b *azureBus) DeleteTopic(ctx context.Context, name string) error {
	_, err := b.admin.DeleteTopic(ctx, name, nil)
	return err
}

func (b *azureBus) SubscriptionExists(ctx context.Context, topic, name string) (bool, error) {
	resp, err := b.admin.GetSubscription(ctx, topic, name, nil)
	if err != nil {
		return false, err
	}
	return resp != nil, nil
}

func (b *azureBus) CreateSubscription(ctx context.Context, props SubscriptionProperties) error {
	_, err := b.admin.CreateSubscription(ctx, props.Topic, props.Name, nil)
	return err
}

func (b *azureBus) DeleteSubscription(ctx context.Context, topic, name string) error {
	_, err := b.admin.DeleteSubscription(ctx, topic, name, nil)
	return err
}

func (b *azureBus) NewSender(_ context.Context, entity string) (Sender, error) {
	s, err := b.client.NewSender(entity, nil)
	if err != nil {
		return nil, err
	}
	return &azureSender{sender: s}, nil
}

func (b *azureBus) NewQueueReceiver(ctx context.Context, queue string, requiresSession bool) (Receiver, error) {
	if requiresSession {
		sr, err := b.client.AcceptNextSessionForQueue(ctx, queue, nil)
		if err != nil {
			return nil, err
		}
		return &azureSessionReceiver{receiver: sr}, nil
	}
	r, err := b.client.NewReceiverForQueue(queue, nil)
	if err != nil {
		return nil, err
	}
	return &azureReceiver{receiver: r}, nil
}

func (b *azureBus) NewSubscriptionReceiver(_ context.Context, topic, subscription string) (Receiver, error) {
	r, err := b.client.NewReceiverForSubscription(topic, subscription, nil)
	if err != nil {
		return nil, err
	}
	return &azureReceiver{receiver: r}, nil
}

func (b *azureBus) Close(ctx context.Context) error { return b.client.Close(ctx) }

type azureSender struct{ sender *azservicebus.Sender }

func (s *azureSender) Send(ctx context.Context, msg *Message) error {
	return s.sender.SendMessage(ctx, toAzureMessage(msg), nil)
}
func (s *azureSender) Close(ctx context.Context) error { return s.sender.Close(ctx) }

type azureReceiver struct{ receiver *azservicebus.Receiver }

func (r *azureReceiver) Receive(ctx context.Context, max int) ([]*ReceivedMessage, error) {
	msgs, err := r.receiver.ReceiveMessages(ctx, max, nil)
	if err != nil {
		return nil, err
	}
	return fromAzureMessages(msgs), nil
}
func (r *azureReceiver) Complete(ctx context.Context, msg *ReceivedMessage) error {
	raw, ok := msg.raw.(*azservicebus.ReceivedMessage)
	if !ok {
		return fmt.Errorf("message '%s' was not received from Azure Service Bus", msg.ID)
	}
	return r.receiver.CompleteMessage(ctx, raw, nil)
}
func (r *azureReceiver) Close(ctx context.Context) error { return r.receiver.Close(ctx) }

type azureSessionReceiver struct{ receiver *azservicebus.SessionReceiver }

func (r *azureSessionReceiver) Receive(ctx context.Context, max int) ([]*ReceivedMessage, error) {
	msgs, err := r.receiver.ReceiveMessages(ctx, max, nil)
	if err != nil {
		return nil, err
	}
	return fromAzureMessages(msgs), nil
}
func (r *azureSessionReceiver) Complete(ctx context.Context, msg *ReceivedMessage) error {
	raw, ok := msg.raw.(*azservicebus.ReceivedMessage)
	if !ok {
		return fmt.Errorf("message '%s' was not received from Azure Service Bus", msg.ID)
	}
	return r.receiver.CompleteMessage(ctx, raw, nil)
}
func (r *azureSessionReceiver) Close(ctx context.Context) error { return r.receiver.Close(ctx) }

// --- Conversion Helpers ---

func toAzureMessage(msg *Message) *azservicebus.Message {
	out := &azservicebus.Message{Body: msg.Body}
	if msg.ID != "" {
		out.MessageID = to.Ptr(msg.ID)
	}
	if msg.SessionID != "" {
		out.SessionID = to.Ptr(msg.SessionID)
	}
	if len(msg.Properties) > 0 {
		out.ApplicationProperties = make(map[string]any, len(msg.Properties))
		for k, v := range msg.Properties {
			out.ApplicationProperties[k] = v
		}
	}
	return out
}

func fromAzureMessages(msgs []*azservicebus.ReceivedMessage) []*ReceivedMessage {
	out := make([]*ReceivedMessage, 0, len(msgs))
	for _, m := range msgs {
		rm := &ReceivedMessage{
			Message: Message{ID: m.MessageID, Body: m.Body},
			raw:     m,
		}
		if m.SessionID != nil {
			rm.SessionID = *m.SessionID
		}
		if len(m.ApplicationProperties) > 0 {
			rm.Properties = make(map[string]string, len(m.ApplicationProperties))
			for k, v := range m.ApplicationProperties {
				rm.Properties[k] = fmt.Sprint(v)
			}
		}
		out = append(out, rm)
	}
	return out
}
