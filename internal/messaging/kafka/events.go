package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
)

// TopicOrderEvents — топик событий жизненного цикла заказов.
const TopicOrderEvents = "storeorders.order.events"

// Заголовки сообщений.
const (
	HeaderEventType   = "x-event-type"
	HeaderContentType = "content-type"
)

// OrderEvent — конверт события заказа на проводе.
type OrderEvent struct {
	EventType  string    `json:"event_type"`
	OrderID    string    `json:"order_id"`
	OwnerID    string    `json:"owner_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewOrderEvent переводит доменное событие в конверт Kafka.
func NewOrderEvent(event domain.LifecycleEvent) OrderEvent {
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	return OrderEvent{
		EventType:  string(event.Type),
		OrderID:    event.OrderID,
		OwnerID:    event.OwnerID,
		Status:     string(event.Status),
		OccurredAt: occurred.UTC(),
	}
}

// Lifecycle возвращает доменное представление события.
func (e OrderEvent) Lifecycle() domain.LifecycleEvent {
	return domain.LifecycleEvent{
		Type:       domain.EventType(e.EventType),
		OrderID:    e.OrderID,
		OwnerID:    e.OwnerID,
		Status:     domain.OrderStatus(e.Status),
		OccurredAt: e.OccurredAt,
	}
}
