package kafka

import (
	"context"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
)

// EventSender — часть Producer, нужная Forwarder.
type EventSender interface {
	PublishEvent(topic, key string, event interface{}, headers ...sarama.RecordHeader) error
}

// Forwarder пересылает события шины в топик Kafka. Ключ сообщения — id заказа,
// поэтому события одного заказа попадают в одну партицию.
type Forwarder struct {
	sender EventSender
	topic  string
}

// NewForwarder создаёт Forwarder; пустой topic заменяется TopicOrderEvents.
func NewForwarder(sender EventSender, topic string) *Forwarder {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &Forwarder{sender: sender, topic: topic}
}

// Handle реализует events.Listener.
func (f *Forwarder) Handle(ctx context.Context, event domain.LifecycleEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.sender.PublishEvent(f.topic, event.OrderID, NewOrderEvent(event),
		sarama.RecordHeader{Key: []byte(HeaderEventType), Value: []byte(event.Type)},
		sarama.RecordHeader{Key: []byte(HeaderContentType), Value: []byte("application/json")},
	)
}
