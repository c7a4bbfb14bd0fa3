package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusOrdered — начальный статус, заказ принят.
	OrderStatusOrdered OrderStatus = "Ordered"
	// OrderStatusConfirmed — заказ подтверждён магазином.
	OrderStatusConfirmed OrderStatus = "Confirmed"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "Shipped"
	// OrderStatusDelivery — заказ в процессе вручения.
	OrderStatusDelivery OrderStatus = "Delivery"
	// OrderStatusCompleted — заказ выполнен (терминальный статус).
	OrderStatusCompleted OrderStatus = "Completed"
	// OrderStatusCancelled — заказ отменён (терминальный статус).
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// AllStatuses перечисляет закрытое множество статусов в порядке жизненного цикла.
var AllStatuses = []OrderStatus{
	OrderStatusOrdered,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivery,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// ActiveStatuses — статусы, которые не являются ни Completed, ни Cancelled.
var ActiveStatuses = []OrderStatus{
	OrderStatusOrdered,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivery,
}

// Valid проверяет принадлежность статуса перечислению.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusOrdered, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivery, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal сообщает, является ли статус конечным.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Active сообщает, относится ли заказ к активным.
func (s OrderStatus) Active() bool {
	return s.Valid() && !s.Terminal()
}

// ParseOrderStatus разбирает строковое значение статуса.
// Сравнение точное: пробелы и регистр не нормализуются.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(raw)
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// OrderLine — позиция заказа: ссылка на товар и количество.
type OrderLine struct {
	ProductID string
	Quantity  int32
}

// Order агрегирует состояние заказа.
type Order struct {
	ID                string
	OwnerID           string
	Lines             []OrderLine
	TotalAmount       decimal.Decimal
	PaymentMethod     string
	ShippingAddressID string
	Status            OrderStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ProductIDs возвращает идентификаторы товаров в порядке позиций (с повторами).
func (o *Order) ProductIDs() []string {
	ids := make([]string, 0, len(o.Lines))
	for _, line := range o.Lines {
		ids = append(ids, line.ProductID)
	}
	return ids
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if strings.TrimSpace(o.OwnerID) == "" {
		errs = append(errs, ErrOwnerRequired)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}
	for _, line := range o.Lines {
		if strings.TrimSpace(line.ProductID) == "" {
			errs = append(errs, ErrLineProductRequired)
		}
		if line.Quantity <= 0 {
			errs = append(errs, ErrLineQuantityInvalid)
		}
	}
	if !o.TotalAmount.IsPositive() {
		errs = append(errs, ErrTotalAmountInvalid)
	}
	if strings.TrimSpace(o.PaymentMethod) == "" {
		errs = append(errs, ErrPaymentMethodRequired)
	}
	if strings.TrimSpace(o.ShippingAddressID) == "" {
		errs = append(errs, ErrShippingAddressRequired)
	}

	return errs
}

// Clone возвращает копию заказа, не разделяющую слайс позиций.
func (o Order) Clone() Order {
	o.Lines = append([]OrderLine(nil), o.Lines...)
	return o
}
