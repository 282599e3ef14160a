package alert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"mailtrack-backend/pkg/fcm"
)

// Notifier delivers one alert to a push channel
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// LogNotifier writes alerts to the process log
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, a Alert) error {
	log.Printf("[Alert] %s", a.Message)
	return nil
}

// TopicSender is the part of the FCM client used for alerts
type TopicSender interface {
	SendToTopic(ctx context.Context, topic string, notification fcm.NotificationData) error
}

// FCMNotifier pushes alerts to an FCM topic
type FCMNotifier struct {
	sender TopicSender
	topic  string
}

func NewFCMNotifier(sender TopicSender, topic string) *FCMNotifier {
	return &FCMNotifier{sender: sender, topic: topic}
}

func (n *FCMNotifier) Notify(ctx context.Context, a Alert) error {
	return n.sender.SendToTopic(ctx, n.topic, fcm.NotificationData{
		Title: "Overdue mail " + a.Ref,
		Body:  a.Message,
		Data: map[string]string{
			"type": "mail_overdue",
			"ref":  a.Ref,
			"time": a.Time,
		},
	})
}

// Publisher is the part of the Pub/Sub client used for alerts
type Publisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) error
}

// PubSubNotifier publishes alerts as JSON events
type PubSubNotifier struct {
	publisher Publisher
}

func NewPubSubNotifier(publisher Publisher) *PubSubNotifier {
	return &PubSubNotifier{publisher: publisher}
}

func (n *PubSubNotifier) Notify(ctx context.Context, a Alert) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert %s: %w", a.Ref, err)
	}
	return n.publisher.Publish(ctx, data, map[string]string{
		"type": "mail_overdue",
		"ref":  a.Ref,
	})
}

// MultiNotifier sends every alert to all channels. One failing channel does
// not stop the others; the errors are joined.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, a Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
