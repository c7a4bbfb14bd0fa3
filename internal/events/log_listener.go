package events

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
)

// NewLogListener пишет каждое событие в лог. Используется, когда внешний брокер не настроен.
func NewLogListener(logger *log.Entry) Listener {
	if logger == nil {
		logger = log.WithField("component", "event-log")
	}
	return ListenerFunc(func(_ context.Context, event domain.LifecycleEvent) error {
		logger.WithFields(log.Fields{
			"event_type": event.Type,
			"order_id":   event.OrderID,
			"owner_id":   event.OwnerID,
			"status":     event.Status,
		}).Info("order lifecycle event")
		return nil
	})
}
