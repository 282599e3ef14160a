// Package pubsub publishes JSON events to a Google Cloud Pub/Sub topic.
package pubsub

import (
	"context"
	"fmt"
	"log"
	"strings"

	cloudpubsub "cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

type Publisher struct {
	client *cloudpubsub.Client
	topic  *cloudpubsub.Topic
}

// NewPublisher connects to projectID and binds the publisher to topicName.
// topicName may be a short id or a full projects/.../topics/... name.
func NewPublisher(ctx context.Context, projectID, topicName, credentialsFile string) (*Publisher, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := cloudpubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	topic := client.Topic(ShortTopicName(topicName))
	exists, err := topic.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to check topic %s: %w", topicName, err)
	}
	if !exists {
		client.Close()
		return nil, fmt.Errorf("pubsub topic %s does not exist", topicName)
	}

	log.Printf("[PubSub] Publishing to topic %s", topic.ID())
	return &Publisher{client: client, topic: topic}, nil
}

// Publish sends data and waits for the server acknowledgement
func (p *Publisher) Publish(ctx context.Context, data []byte, attrs map[string]string) error {
	result := p.topic.Publish(ctx, &cloudpubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic.ID(), err)
	}
	return nil
}

// Close flushes pending messages and releases the client
func (p *Publisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}

// ShortTopicName strips a projects/<id>/topics/ prefix
func ShortTopicName(name string) string {
	parts := strings.Split(name, "/")
	return parts[len(parts)-1]
}
