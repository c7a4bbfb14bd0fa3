package domain

import "context"

// Expansion задаёт, какие ссылки заказа раскрывать при чтении.
// Это спецификация join-а по владельцу, товарам позиций и адресу доставки.
type Expansion struct {
	Owner           bool
	Products        bool
	ShippingAddress bool
}

// ExpandAll раскрывает все ссылки; используется всеми путями чтения сервиса.
var ExpandAll = Expansion{Owner: true, Products: true, ShippingAddress: true}

// ExpandNone оставляет только идентификаторы ссылок.
var ExpandNone = Expansion{}

// LineView — позиция заказа с раскрытым товаром.
type LineView struct {
	OrderLine
	Product *Product
}

// OrderView — заказ с раскрытыми ссылками. Нераскрытая или висячая ссылка остаётся nil,
// идентификатор при этом доступен в самом Order.
type OrderView struct {
	Order
	Owner           *User
	Lines           []LineView
	ShippingAddress *Address
}

// OrderQuery описывает выборку заказов по владельцу и множеству статусов.
type OrderQuery struct {
	// OwnerID пустой означает выборку по всем владельцам (административный вид).
	OwnerID  string
	Statuses []OrderStatus
	// NewestFirst сортирует по CreatedAt по убыванию; без него порядок не определён.
	NewestFirst bool
}

// ByOwnerAndStatuses — заказы владельца в заданных статусах, новые первыми.
func ByOwnerAndStatuses(ownerID string, statuses ...OrderStatus) OrderQuery {
	return OrderQuery{OwnerID: ownerID, Statuses: statuses, NewestFirst: true}
}

// ByStatuses — заказы всех владельцев в заданных статусах, без сортировки.
func ByStatuses(statuses ...OrderStatus) OrderQuery {
	return OrderQuery{Statuses: statuses}
}

// Matches проверяет, попадает ли заказ в выборку.
func (q OrderQuery) Matches(order Order) bool {
	if q.OwnerID != "" && order.OwnerID != q.OwnerID {
		return false
	}
	for _, status := range q.Statuses {
		if order.Status == status {
			return true
		}
	}
	return false
}

// StatusGuard проверяет текущий статус перед обновлением и может запретить его.
type StatusGuard func(current OrderStatus) error

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Insert сохраняет новый заказ, назначая ID и время создания.
	Insert(ctx context.Context, order Order) (Order, error)
	// FindByID возвращает заказ с раскрытыми ссылками или ErrOrderNotFound.
	FindByID(ctx context.Context, id string, expand Expansion) (OrderView, error)
	// Find возвращает заказы, подходящие под выборку.
	Find(ctx context.Context, query OrderQuery, expand Expansion) ([]OrderView, error)
	// UpdateStatus атомарно заменяет статус одной записи.
	// guard вызывается с текущим статусом под той же блокировкой; nil допускается.
	UpdateStatus(ctx context.Context, id string, next OrderStatus, guard StatusGuard) (Order, error)
}

// CatalogResolver сообщает, какие из запрошенных товаров существуют.
type CatalogResolver interface {
	ExistingProducts(ctx context.Context, ids []string) ([]string, error)
}

// UserOrderIndex поддерживает денормализованный список заказов пользователя.
type UserOrderIndex interface {
	// AppendOrder добавляет id заказа в профиль и возвращает обновлённый профиль.
	AppendOrder(ctx context.Context, userID, orderID string) (User, error)
}
