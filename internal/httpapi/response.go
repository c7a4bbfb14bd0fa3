// Package httpapi — HTTP API заказов поверх chi.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
	"github.com/vladislavdragonenkov/storeorders/internal/service/orders"
)

// envelope — общий формат ответа.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Orders  interface{} `json:"orders,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// errorBody — тело, которое writeError пишет для message.
func errorBody(message string) []byte {
	body, _ := json.Marshal(envelope{Success: false, Message: message})
	return append(body, '\n')
}

type userResponse struct {
	ID     string   `json:"id"`
	Name   string   `json:"name,omitempty"`
	Email  string   `json:"email,omitempty"`
	Role   string   `json:"role,omitempty"`
	Orders []string `json:"orders"`
}

type productResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Thumbnail   string          `json:"thumbnail,omitempty"`
}

type addressResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"userId,omitempty"`
	FullName   string `json:"fullName,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

type lineResponse struct {
	ProductID string           `json:"productId"`
	Product   *productResponse `json:"product,omitempty"`
	Quantity  int32            `json:"quantity"`
}

type orderResponse struct {
	ID                string           `json:"id"`
	UserID            string           `json:"userId"`
	User              *userResponse    `json:"user,omitempty"`
	Lines             []lineResponse   `json:"lines"`
	TotalAmount       decimal.Decimal  `json:"totalAmount"`
	PaymentMethod     string           `json:"paymentMethod"`
	ShippingAddressID string           `json:"shippingAddressId"`
	ShippingAddress   *addressResponse `json:"shippingAddress,omitempty"`
	Status            string           `json:"status"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

type placeOrderResponse struct {
	Order        orderResponse `json:"order"`
	UpdatedOwner *userResponse `json:"updatedOwner"`
}

type bucketsResponse struct {
	Active    []orderResponse `json:"active"`
	Completed []orderResponse `json:"completed"`
	Cancelled []orderResponse `json:"cancelled"`
}

type timelineEntryResponse struct {
	Type       string    `json:"type"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func newUserResponse(user *domain.User) *userResponse {
	if user == nil {
		return nil
	}
	orderIDs := user.Orders
	if orderIDs == nil {
		orderIDs = []string{}
	}
	return &userResponse{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		Orders: orderIDs,
	}
}

func newProductResponse(product *domain.Product) *productResponse {
	if product == nil {
		return nil
	}
	return &productResponse{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Thumbnail:   product.Thumbnail,
	}
}

func newAddressResponse(address *domain.Address) *addressResponse {
	if address == nil {
		return nil
	}
	resp := addressResponse(*address)
	return &resp
}

func newOrderResponse(order domain.Order) orderResponse {
	lines := make([]lineResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, lineResponse{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return orderResponse{
		ID:                order.ID,
		UserID:            order.OwnerID,
		Lines:             lines,
		TotalAmount:       order.TotalAmount,
		PaymentMethod:     order.PaymentMethod,
		ShippingAddressID: order.ShippingAddressID,
		Status:            string(order.Status),
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}

func newOrderViewResponse(view domain.OrderView) orderResponse {
	resp := newOrderResponse(view.Order)
	resp.User = newUserResponse(view.Owner)
	resp.ShippingAddress = newAddressResponse(view.ShippingAddress)
	if len(view.Lines) > 0 {
		resp.Lines = make([]lineResponse, 0, len(view.Lines))
		for _, line := range view.Lines {
			resp.Lines = append(resp.Lines, lineResponse{
				ProductID: line.ProductID,
				Product:   newProductResponse(line.Product),
				Quantity:  line.Quantity,
			})
		}
	}
	return resp
}

func newOrderViewsResponse(views []domain.OrderView) []orderResponse {
	out := make([]orderResponse, 0, len(views))
	for _, view := range views {
		out = append(out, newOrderViewResponse(view))
	}
	return out
}

func newBucketsResponse(buckets orders.Buckets) bucketsResponse {
	return bucketsResponse{
		Active:    newOrderViewsResponse(buckets.Active),
		Completed: newOrderViewsResponse(buckets.Completed),
		Cancelled: newOrderViewsResponse(buckets.Cancelled),
	}
}

func newTimelineResponse(events []domain.TimelineEvent) []timelineEntryResponse {
	out := make([]timelineEntryResponse, 0, len(events))
	for _, event := range events {
		out = append(out, timelineEntryResponse{
			Type:       event.Type,
			Reason:     event.Reason,
			OccurredAt: event.Occurred,
		})
	}
	return out
}
