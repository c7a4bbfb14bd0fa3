package orders

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
)

// PlaceOrderResult — итог создания заказа.
//
// Заказ и запись в индексе пользователя сохраняются двумя независимыми шагами.
// Если второй шаг не удался, заказ остаётся сохранённым: UpdatedOwner равен nil,
// а IndexErr содержит причину.
type PlaceOrderResult struct {
	Order        domain.Order
	UpdatedOwner *domain.User
	IndexErr     error
}

// PlaceOrder проверяет запрос, сохраняет заказ, дописывает его в индекс владельца
// и публикует событие order.created.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResult, error) {
	req, err := s.validator.Validate(ctx, req)
	if err != nil {
		return PlaceOrderResult{}, err
	}

	order := req.order()
	order.Status = domain.OrderStatusOrdered

	created, err := s.orders.Insert(ctx, order)
	if err != nil {
		if !errors.Is(err, domain.ErrPersistence) {
			err = domain.PersistenceError("insert order", err)
		}
		return PlaceOrderResult{}, err
	}

	logger := s.logger.WithFields(log.Fields{
		"order_id": created.ID,
		"owner_id": created.OwnerID,
	})
	s.observer.OrderPlaced()
	s.recordTimeline(ctx, domain.TimelineEvent{
		OrderID:  created.ID,
		Type:     domain.TimelineOrderPlaced,
		Reason:   string(created.Status),
		Occurred: created.CreatedAt,
	})

	result := PlaceOrderResult{Order: created}
	owner, err := s.index.AppendOrder(ctx, created.OwnerID, created.ID)
	if err != nil {
		logger.WithError(err).Warn("order saved but owner index was not updated")
		s.observer.IndexAppendFailed()
		s.recordTimeline(ctx, domain.TimelineEvent{
			OrderID: created.ID,
			Type:    domain.TimelineIndexAppendFailed,
			Reason:  err.Error(),
		})
		result.IndexErr = err
	} else {
		result.UpdatedOwner = &owner
	}

	s.publish(domain.NewOrderCreatedEvent(created))
	logger.Info("order placed")

	return result, nil
}
