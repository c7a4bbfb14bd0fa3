package orders

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
)

// TransitionPolicy решает, допустим ли переход from → to.
type TransitionPolicy func(from, to domain.OrderStatus) error

// PermissiveTransitions разрешает любой переход между допустимыми статусами,
// включая пропуск промежуточных и выход из терминальных.
func PermissiveTransitions(_, _ domain.OrderStatus) error {
	return nil
}

var strictEdges = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusOrdered:   {domain.OrderStatusConfirmed, domain.OrderStatusCancelled},
	domain.OrderStatusConfirmed: {domain.OrderStatusShipped, domain.OrderStatusCancelled},
	domain.OrderStatusShipped:   {domain.OrderStatusDelivery, domain.OrderStatusCancelled},
	domain.OrderStatusDelivery:  {domain.OrderStatusCompleted, domain.OrderStatusCancelled},
}

// StrictTransitions пропускает только соседние шаги
// Ordered → Confirmed → Shipped → Delivery → Completed и отмену из нетерминального статуса.
func StrictTransitions(from, to domain.OrderStatus) error {
	for _, allowed := range strictEdges[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", domain.ErrTransitionNotAllowed, from, to)
}

// Transition меняет статус заказа на requested.
// Неизвестный статус отклоняется до обращения к хранилищу.
func (s *Service) Transition(ctx context.Context, orderID, requested string) (domain.Order, error) {
	next, err := domain.ParseOrderStatus(requested)
	if err != nil {
		return domain.Order{}, err
	}

	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	var previous domain.OrderStatus
	updated, err := s.orders.UpdateStatus(ctx, orderID, next, func(current domain.OrderStatus) error {
		previous = current
		return s.policy(current, next)
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.observer.StatusChanged(updated.Status)
	s.recordTimeline(ctx, domain.TimelineEvent{
		OrderID:  updated.ID,
		Type:     domain.TimelineStatusChanged,
		Reason:   string(updated.Status),
		Occurred: updated.UpdatedAt,
	})
	s.publish(domain.NewStatusChangedEvent(updated))

	s.logger.WithFields(log.Fields{
		"order_id": updated.ID,
		"from":     previous,
		"to":       updated.Status,
	}).Info("order status changed")

	return updated, nil
}
