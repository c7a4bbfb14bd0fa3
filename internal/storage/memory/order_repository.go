package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
)

var errDuplicateOrderID = errors.New("order id already exists")

// orderRepositoryInMemory — in-memory реализация OrderRepository.
// Ссылки раскрываются через Directory.
type orderRepositoryInMemory struct {
	mu        sync.RWMutex
	items     map[string]domain.Order
	directory *Directory
	now       func() time.Time
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
// directory может быть nil: тогда ссылки не раскрываются.
func NewOrderRepository(directory *Directory) domain.OrderRepository {
	return &orderRepositoryInMemory{
		items:     make(map[string]domain.Order),
		directory: directory,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Insert сохраняет новый заказ, назначая ID и время создания.
func (r *orderRepositoryInMemory) Insert(ctx context.Context, order domain.Order) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, domain.PersistenceError("insert order", err)
	}

	order = order.Clone()
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusOrdered
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.Order{}, domain.PersistenceError("insert order", errDuplicateOrderID)
	}

	now := r.now()
	order.CreatedAt = now
	order.UpdatedAt = now
	r.items[order.ID] = order
	return order.Clone(), nil
}

// FindByID возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) FindByID(ctx context.Context, id string, expand domain.Expansion) (domain.OrderView, error) {
	if err := ctx.Err(); err != nil {
		return domain.OrderView{}, domain.PersistenceError("find order", err)
	}

	r.mu.RLock()
	order, ok := r.items[id]
	r.mu.RUnlock()
	if !ok {
		return domain.OrderView{}, domain.ErrOrderNotFound
	}

	return r.directory.expand(order.Clone(), expand), nil
}

// Find возвращает заказы, подходящие под выборку.
func (r *orderRepositoryInMemory) Find(ctx context.Context, query domain.OrderQuery, expand domain.Expansion) ([]domain.OrderView, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.PersistenceError("find orders", err)
	}

	r.mu.RLock()
	matched := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if query.Matches(order) {
			matched = append(matched, order.Clone())
		}
	}
	r.mu.RUnlock()

	if query.NewestFirst {
		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].CreatedAt.After(matched[j].CreatedAt)
			}
			return matched[i].ID > matched[j].ID
		})
	}

	result := make([]domain.OrderView, 0, len(matched))
	for _, order := range matched {
		result = append(result, r.directory.expand(order, expand))
	}
	return result, nil
}

// UpdateStatus заменяет статус под блокировкой записи.
func (r *orderRepositoryInMemory) UpdateStatus(ctx context.Context, id string, next domain.OrderStatus, guard domain.StatusGuard) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, domain.PersistenceError("update order status", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if guard != nil {
		if err := guard(order.Status); err != nil {
			return domain.Order{}, err
		}
	}

	order.Status = next
	order.UpdatedAt = r.now()
	r.items[id] = order
	return order.Clone(), nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
