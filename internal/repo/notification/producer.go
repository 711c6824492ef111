package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/nguyentranbao-ct/chat-engine/internal/config"
	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/bus"
	log "github.com/nguyentranbao-ct/chat-engine/pkg/logger/logctx"
)

// NewMessage tells the notification service a recipient has a new message.
type NewMessage struct {
	ToProfileID   string          `json:"to_profile_id"`
	FromProfileID string          `json:"from_profile_id"`
	ChatID        string          `json:"chat_id"`
	MessageID     models.ObjectID `json:"message_id"`
	Channel       models.Channel  `json:"channel"`
	Preview       string          `json:"preview,omitempty"`
}

// Archive withdraws the notifications of a conversation for a profile.
type Archive struct {
	ProfileID string `json:"profile_id"`
	ChatID    string `json:"chat_id"`
}

type envelope struct {
	Route string `json:"route"`
	Data  any    `json:"data"`
}

// Notifier publishes fire-and-forget notifications.
type Notifier interface {
	NewMessage(ctx context.Context, n NewMessage) error
	Archive(ctx context.Context, n Archive) error
	Close() error
}

type producer struct {
	topic    string
	producer sarama.AsyncProducer
	done     chan struct{}
}

func NewNotifier(conf *config.Config) (Notifier, error) {
	if !conf.Notification.Enabled {
		return noopNotifier{}, nil
	}
	sc := sarama.NewConfig()
	sc.ClientID = conf.Notification.ClientID
	sc.Producer.RequiredAcks = sarama.WaitForLocal
	sc.Producer.Return.Errors = true
	p, err := sarama.NewAsyncProducer(conf.Notification.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("new async producer: %w", err)
	}
	return newProducer(conf.Notification.Topic, p), nil
}

func newProducer(topic string, p sarama.AsyncProducer) *producer {
	n := &producer{topic: topic, producer: p, done: make(chan struct{})}
	go n.drainErrors()
	return n
}

func (n *producer) drainErrors() {
	defer close(n.done)
	for err := range n.producer.Errors() {
		log.Errorw(context.Background(), "failed to publish notification",
			"topic", err.Msg.Topic, "error", err.Err)
	}
}

func (n *producer) publish(ctx context.Context, route, key string, data any) error {
	value, err := json.Marshal(envelope{Route: route, Data: data})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("route"), Value: []byte(route)},
		},
	}
	select {
	case n.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *producer) NewMessage(ctx context.Context, msg NewMessage) error {
	return n.publish(ctx, bus.RouteNotifyNewMessage, msg.ToProfileID, msg)
}

func (n *producer) Archive(ctx context.Context, msg Archive) error {
	return n.publish(ctx, bus.RouteNotifyArchive, msg.ProfileID, msg)
}

func (n *producer) Close() error {
	n.producer.AsyncClose()
	<-n.done
	return nil
}

type noopNotifier struct{}

func (noopNotifier) NewMessage(context.Context, NewMessage) error { return nil }
func (noopNotifier) Archive(context.Context, Archive) error       { return nil }
func (noopNotifier) Close() error                                 { return nil }
