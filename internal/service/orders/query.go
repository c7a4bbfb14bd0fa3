package orders

import (
	"context"
	"strings"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
)

// Scope задаёт, чьи заказы попадают в выборку.
type Scope struct {
	ownerID string
	global  bool
}

// OwnerScope — заказы одного владельца, новые первыми.
func OwnerScope(ownerID string) Scope {
	return Scope{ownerID: strings.TrimSpace(ownerID)}
}

// GlobalScope — заказы всех владельцев, порядок не определён.
func GlobalScope() Scope {
	return Scope{global: true}
}

// Buckets — заказы, разложенные по состояниям. Корзины не пересекаются
// и вместе покрывают все заказы выборки.
type Buckets struct {
	Active    []domain.OrderView
	Completed []domain.OrderView
	Cancelled []domain.OrderView
}

// Total возвращает число заказов во всех корзинах.
func (b Buckets) Total() int {
	return len(b.Active) + len(b.Completed) + len(b.Cancelled)
}

// PartitionedView читает выборку одним запросом по всем статусам
// и раскладывает её по корзинам в памяти.
func (s *Service) PartitionedView(ctx context.Context, scope Scope) (Buckets, error) {
	var query domain.OrderQuery
	switch {
	case scope.global:
		query = domain.ByStatuses(domain.AllStatuses...)
	case scope.ownerID != "":
		query = domain.ByOwnerAndStatuses(scope.ownerID, domain.AllStatuses...)
	default:
		return Buckets{}, domain.ErrOwnerRequired
	}

	views, err := s.orders.Find(ctx, query, domain.ExpandAll)
	if err != nil {
		return Buckets{}, err
	}

	buckets := Buckets{
		Active:    make([]domain.OrderView, 0),
		Completed: make([]domain.OrderView, 0),
		Cancelled: make([]domain.OrderView, 0),
	}
	for _, view := range views {
		switch view.Status {
		case domain.OrderStatusCompleted:
			buckets.Completed = append(buckets.Completed, view)
		case domain.OrderStatusCancelled:
			buckets.Cancelled = append(buckets.Cancelled, view)
		default:
			buckets.Active = append(buckets.Active, view)
		}
	}

	return buckets, nil
}

// GetOrder возвращает заказ со всеми раскрытыми ссылками.
func (s *Service) GetOrder(ctx context.Context, orderID string) (domain.OrderView, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.OrderView{}, domain.ErrOrderNotFound
	}
	return s.orders.FindByID(ctx, orderID, domain.ExpandAll)
}

// Timeline возвращает журнал заказа. Для несуществующего заказа — ErrOrderNotFound.
func (s *Service) Timeline(ctx context.Context, orderID string) ([]domain.TimelineEvent, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, domain.ErrOrderNotFound
	}
	if _, err := s.orders.FindByID(ctx, orderID, domain.ExpandNone); err != nil {
		return nil, err
	}
	if s.timeline == nil {
		return []domain.TimelineEvent{}, nil
	}
	return s.timeline.List(ctx, orderID)
}
