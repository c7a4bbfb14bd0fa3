package domain

import "time"

// EventType — тип события жизненного цикла заказа.
type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusChanged EventType = "order.status_changed"
)

// LifecycleEvent — эфемерное уведомление о создании заказа или смене статуса.
type LifecycleEvent struct {
	Type       EventType
	OrderID    string
	OwnerID    string
	Status     OrderStatus
	OccurredAt time.Time
}

// EventPublisher — точка публикации событий. Publish не блокирует вызывающего
// и не сообщает об ошибках доставки.
type EventPublisher interface {
	Publish(event LifecycleEvent)
}

// NewOrderCreatedEvent собирает событие создания заказа.
func NewOrderCreatedEvent(order Order) LifecycleEvent {
	return LifecycleEvent{
		Type:       EventOrderCreated,
		OrderID:    order.ID,
		OwnerID:    order.OwnerID,
		Status:     order.Status,
		OccurredAt: order.CreatedAt,
	}
}

// NewStatusChangedEvent собирает событие смены статуса.
func NewStatusChangedEvent(order Order) LifecycleEvent {
	return LifecycleEvent{
		Type:       EventOrderStatusChanged,
		OrderID:    order.ID,
		OwnerID:    order.OwnerID,
		Status:     order.Status,
		OccurredAt: order.UpdatedAt,
	}
}
