package orders

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
)

// PlaceOrderRequest — запрос покупателя на создание заказа.
type PlaceOrderRequest struct {
	OwnerID           string
	Lines             []domain.OrderLine
	TotalAmount       decimal.Decimal
	PaymentMethod     string
	ShippingAddressID string
}

func (r PlaceOrderRequest) order() domain.Order {
	return domain.Order{
		OwnerID:           r.OwnerID,
		Lines:             append([]domain.OrderLine(nil), r.Lines...),
		TotalAmount:       r.TotalAmount,
		PaymentMethod:     r.PaymentMethod,
		ShippingAddressID: r.ShippingAddressID,
	}
}

// Validator проверяет запрос на создание заказа. Побочных эффектов не имеет.
type Validator struct {
	catalog domain.CatalogResolver
}

// NewValidator создаёт валидатор поверх каталога.
func NewValidator(catalog domain.CatalogResolver) *Validator {
	return &Validator{catalog: catalog}
}

// Validate нормализует запрос и проверяет его структуру и ссылки на товары.
// Повторяющиеся товары в позициях допустимы: сравниваются множества id.
func (v *Validator) Validate(ctx context.Context, req PlaceOrderRequest) (PlaceOrderRequest, error) {
	req = normalize(req)

	order := req.order()
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return req, errors.Join(errs...)
	}

	requested := make(map[string]struct{}, len(req.Lines))
	for _, line := range req.Lines {
		requested[line.ProductID] = struct{}{}
	}

	found, err := v.catalog.ExistingProducts(ctx, order.ProductIDs())
	if err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			return req, err
		}
		return req, domain.PersistenceError("resolve products", err)
	}

	confirmed := make(map[string]struct{}, len(found))
	for _, id := range found {
		if _, ok := requested[id]; !ok {
			return req, domain.ErrInvalidProductReference
		}
		confirmed[id] = struct{}{}
	}
	if len(confirmed) != len(requested) {
		return req, domain.ErrInvalidProductReference
	}

	return req, nil
}

func normalize(req PlaceOrderRequest) PlaceOrderRequest {
	req.OwnerID = strings.TrimSpace(req.OwnerID)
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	req.ShippingAddressID = strings.TrimSpace(req.ShippingAddressID)

	lines := make([]domain.OrderLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		line.ProductID = strings.TrimSpace(line.ProductID)
		lines = append(lines, line)
	}
	req.Lines = lines

	return req
}
