package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
)

// Directory хранит записи внешних сервисов (пользователи, каталог, адреса)
// для локальной разработки и тестов.
type Directory struct {
	mu        sync.RWMutex
	users     map[string]domain.User
	products  map[string]domain.Product
	addresses map[string]domain.Address
}

// NewDirectory создаёт пустой справочник.
func NewDirectory() *Directory {
	return &Directory{
		users:     make(map[string]domain.User),
		products:  make(map[string]domain.Product),
		addresses: make(map[string]domain.Address),
	}
}

// PutUser добавляет или заменяет пользователя.
func (d *Directory) PutUser(user domain.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.ID] = user.Clone()
}

// PutProduct добавляет или заменяет товар.
func (d *Directory) PutProduct(product domain.Product) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.products[product.ID] = product
}

// PutAddress добавляет или заменяет адрес.
func (d *Directory) PutAddress(address domain.Address) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addresses[address.ID] = address
}

// User возвращает пользователя по id.
func (d *Directory) User(id string) (domain.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	user, ok := d.users[id]
	return user.Clone(), ok
}

// Product возвращает товар по id.
func (d *Directory) Product(id string) (domain.Product, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	product, ok := d.products[id]
	return product, ok
}

// Address возвращает адрес по id.
func (d *Directory) Address(id string) (domain.Address, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	address, ok := d.addresses[id]
	return address, ok
}

// ExistingProducts возвращает те id из запроса, которые есть в каталоге (без повторов).
func (d *Directory) ExistingProducts(ctx context.Context, ids []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	seen := make(map[string]struct{}, len(ids))
	found := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := d.products[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

// AppendOrder дописывает id заказа в профиль пользователя.
func (d *Directory) AppendOrder(ctx context.Context, userID, orderID string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok := d.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	user.Orders = append(user.Orders, orderID)
	d.users[userID] = user
	return user.Clone(), nil
}

// expand раскрывает ссылки заказа согласно expansion.
func (d *Directory) expand(order domain.Order, expand domain.Expansion) domain.OrderView {
	view := domain.OrderView{
		Order: order,
		Lines: make([]domain.LineView, 0, len(order.Lines)),
	}

	if d == nil {
		for _, line := range order.Lines {
			view.Lines = append(view.Lines, domain.LineView{OrderLine: line})
		}
		return view
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if expand.Owner {
		if user, ok := d.users[order.OwnerID]; ok {
			owner := user.Clone()
			view.Owner = &owner
		}
	}
	for _, line := range order.Lines {
		lv := domain.LineView{OrderLine: line}
		if expand.Products {
			if product, ok := d.products[line.ProductID]; ok {
				p := product
				lv.Product = &p
			}
		}
		view.Lines = append(view.Lines, lv)
	}
	if expand.ShippingAddress {
		if address, ok := d.addresses[order.ShippingAddressID]; ok {
			a := address
			view.ShippingAddress = &a
		}
	}

	return view
}

var (
	_ domain.CatalogResolver = (*Directory)(nil)
	_ domain.UserOrderIndex  = (*Directory)(nil)
)
