// Package orders содержит сценарии работы с заказами: создание, смену статуса
// и выборки, разложенные по состояниям.
package orders

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
)

// Observer получает сигналы о результатах операций (метрики).
type Observer interface {
	OrderPlaced()
	StatusChanged(status domain.OrderStatus)
	IndexAppendFailed()
}

type noopObserver struct{}

func (noopObserver) OrderPlaced()                     {}
func (noopObserver) StatusChanged(domain.OrderStatus) {}
func (noopObserver) IndexAppendFailed()               {}

// Service связывает хранилище заказов, каталог, индекс пользователя и публикацию событий.
type Service struct {
	orders    domain.OrderRepository
	index     domain.UserOrderIndex
	publisher domain.EventPublisher
	validator *Validator
	timeline  domain.TimelineRepository
	policy    TransitionPolicy
	observer  Observer
	logger    *log.Entry
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт логгер сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTimeline включает запись журнала заказа.
func WithTimeline(timeline domain.TimelineRepository) Option {
	return func(s *Service) {
		s.timeline = timeline
	}
}

// WithTransitionPolicy заменяет политику переходов статусов.
func WithTransitionPolicy(policy TransitionPolicy) Option {
	return func(s *Service) {
		if policy != nil {
			s.policy = policy
		}
	}
}

// WithObserver подключает наблюдателя за операциями.
func WithObserver(observer Observer) Option {
	return func(s *Service) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// NewService собирает сервис заказов. По умолчанию переходы статусов не ограничены.
func NewService(
	orders domain.OrderRepository,
	catalog domain.CatalogResolver,
	index domain.UserOrderIndex,
	publisher domain.EventPublisher,
	opts ...Option,
) *Service {
	s := &Service{
		orders:    orders,
		index:     index,
		publisher: publisher,
		validator: NewValidator(catalog),
		policy:    PermissiveTransitions,
		observer:  noopObserver{},
		logger:    log.New().WithField("component", "orders"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// recordTimeline пишет запись журнала; сбой журнала не влияет на результат операции.
func (s *Service) recordTimeline(ctx context.Context, event domain.TimelineEvent) {
	if s.timeline == nil {
		return
	}
	if err := s.timeline.Append(ctx, event); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": event.OrderID,
			"type":     event.Type,
		}).Warn("failed to append timeline event")
	}
}

func (s *Service) publish(event domain.LifecycleEvent) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(event)
}
