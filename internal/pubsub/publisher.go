package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"paywall/internal/model"

	"cloud.google.com/go/pubsub"
)

// Publisher defines an interface for publishing messages.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte, attrs map[string]string) (string, error)
}

// PubSubPublisher is an implementation of Publisher using Google Pub/Sub.
type PubSubPublisher struct {
	client *pubsub.Client
}

// NewPublisher creates a new PubSubPublisher for the given GCP project.
// PUBSUB_EMULATOR_HOST is honoured by the client library.
func NewPublisher(ctx context.Context, projectID string) (*PubSubPublisher, error) {
	if projectID == "" {
		return nil, errors.New("pubsub: project id is empty")
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &PubSubPublisher{client: client}, nil
}

// Publish sends the payload to the given Pub/Sub topic and returns the message ID.
func (p *PubSubPublisher) Publish(ctx context.Context, topic string, payload []byte, attrs map[string]string) (string, error) {
	t := p.client.Topic(topic)
	result := t.Publish(ctx, &pubsub.Message{Data: payload, Attributes: attrs})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish message to topic %s: %w", topic, err)
	}
	return id, nil
}

// EnsureTopic creates the topic if it does not exist yet and reports whether
// it had to be created.
func (p *PubSubPublisher) EnsureTopic(ctx context.Context, topic string) (bool, error) {
	exists, err := p.client.Topic(topic).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check topic %s: %w", topic, err)
	}
	if exists {
		return false, nil
	}
	if _, err := p.client.CreateTopic(ctx, topic); err != nil {
		return false, fmt.Errorf("failed to create topic %s: %w", topic, err)
	}
	return true, nil
}

func (p *PubSubPublisher) Close() error {
	return p.client.Close()
}

// Notifier announces subscription status changes to other systems.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, change model.StatusChange) error
}

// StatusNotifier publishes status changes as JSON to a single topic.
type StatusNotifier struct {
	publisher Publisher
	topic     string
}

func NewStatusNotifier(publisher Publisher, topic string) *StatusNotifier {
	return &StatusNotifier{publisher: publisher, topic: topic}
}

func (n *StatusNotifier) NotifyStatusChange(ctx context.Context, change model.StatusChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal status change: %w", err)
	}
	attrs := map[string]string{
		"event_type": change.EventType,
		"status":     string(change.Status),
	}
	if _, err := n.publisher.Publish(ctx, n.topic, payload, attrs); err != nil {
		return err
	}
	return nil
}

// NopNotifier drops every notification. Used when no topic is configured.
type NopNotifier struct{}

func (NopNotifier) NotifyStatusChange(context.Context, model.StatusChange) error { return nil }
