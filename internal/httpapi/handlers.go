package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeorders/internal/auth"
	"github.com/vladislavdragonenkov/storeorders/internal/domain"
	"github.com/vladislavdragonenkov/storeorders/internal/service/orders"
)

const maxRequestBodySize = 1 << 20

// Сообщения ответов.
const (
	msgOrderPlaced        = "Ordered Placed successfully"
	msgOrderDetails       = "Order details fetch successfully"
	msgOrdersFetched      = "Order fetched successfully"
	msgStatusChanged      = "Order status change successfully"
	msgTimelineFetched    = "Order timeline fetched successfully"
	msgFieldsRequired     = "All fields are required"
	msgInvalidProducts    = "Invalid product IDs"
	msgInvalidStatus      = "Invalid status value"
	msgOrderNotFound      = "Order not found"
	msgOrderDidNotFound   = "Order did not found"
	msgTransitionRejected = "Status transition not allowed"
	msgInvalidBody        = "Invalid request body"
	msgCreateFailed       = "Something went wrong while creating order"
	msgDetailsFailed      = "Something went wrong while fetching order details"
	msgListFailed         = "Something went wrong while fetching show all orders"
	msgStatusFailed       = "Something went wrong while changing order status"
	msgTimelineFailed     = "Something went wrong while fetching order timeline"
)

// OrderService — сценарии, которые обслуживает HTTP API.
type OrderService interface {
	PlaceOrder(ctx context.Context, req orders.PlaceOrderRequest) (orders.PlaceOrderResult, error)
	GetOrder(ctx context.Context, orderID string) (domain.OrderView, error)
	PartitionedView(ctx context.Context, scope orders.Scope) (orders.Buckets, error)
	Transition(ctx context.Context, orderID, status string) (domain.Order, error)
	Timeline(ctx context.Context, orderID string) ([]domain.TimelineEvent, error)
}

type lineRequest struct {
	Product  string `json:"product"`
	Quantity int32  `json:"quantity"`
}

type placeOrderRequest struct {
	Lines           []lineRequest   `json:"lines"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	PaymentMethod   string          `json:"paymentMethod"`
	ShippingAddress string          `json:"shippingAddress"`
}

type orderIDRequest struct {
	OrderID string `json:"orderId"`
}

type statusRequest struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// OrderHandlers обслуживает эндпоинты /orders.
type OrderHandlers struct {
	service OrderService
	logger  *log.Entry
}

// NewOrderHandlers создаёт обработчики заказов.
func NewOrderHandlers(service OrderService, logger *log.Entry) *OrderHandlers {
	if logger == nil {
		logger = log.WithField("component", "http-orders")
	}
	return &OrderHandlers{service: service, logger: logger}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}

func (h *OrderHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	var body placeOrderRequest
	if !decodeBody(w, r, &body) {
		return
	}

	req := orders.PlaceOrderRequest{
		OwnerID:           identity.UserID,
		TotalAmount:       body.TotalAmount,
		PaymentMethod:     body.PaymentMethod,
		ShippingAddressID: body.ShippingAddress,
	}
	for _, line := range body.Lines {
		req.Lines = append(req.Lines, domain.OrderLine{ProductID: line.Product, Quantity: line.Quantity})
	}

	result, err := h.service.PlaceOrder(r.Context(), req)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusNotFound, msgFieldsRequired)
		return
	case errors.Is(err, domain.ErrInvalidProductReference):
		writeError(w, http.StatusBadRequest, msgInvalidProducts)
		return
	default:
		h.logger.WithError(err).WithField("owner_id", identity.UserID).Error("create order failed")
		writeError(w, http.StatusInternalServerError, msgCreateFailed)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: msgOrderPlaced,
		Data: placeOrderResponse{
			Order:        newOrderResponse(result.Order),
			UpdatedOwner: newUserResponse(result.UpdatedOwner),
		},
	})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	var body orderIDRequest
	if !decodeBody(w, r, &body) {
		return
	}

	view, err := h.service.GetOrder(r.Context(), body.OrderID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, msgOrderDidNotFound)
		return
	default:
		h.logger.WithError(err).WithField("order_id", body.OrderID).Error("get order failed")
		writeError(w, http.StatusInternalServerError, msgDetailsFailed)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msgOrderDetails, Data: newOrderViewResponse(view)})
}

func (h *OrderHandlers) listMine(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	h.listScoped(w, r, orders.OwnerScope(identity.UserID))
}

func (h *OrderHandlers) listAll(w http.ResponseWriter, r *http.Request) {
	h.listScoped(w, r, orders.GlobalScope())
}

func (h *OrderHandlers) listScoped(w http.ResponseWriter, r *http.Request, scope orders.Scope) {
	buckets, err := h.service.PartitionedView(r.Context(), scope)
	if err != nil {
		h.logger.WithError(err).Error("list orders failed")
		writeError(w, http.StatusInternalServerError, msgListFailed)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msgOrdersFetched, Orders: newBucketsResponse(buckets)})
}

func (h *OrderHandlers) changeStatus(w http.ResponseWriter, r *http.Request) {
	var body statusRequest
	if !decodeBody(w, r, &body) {
		return
	}

	_, err := h.service.Transition(r.Context(), body.OrderID, body.Status)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, msgInvalidStatus)
		return
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, msgOrderNotFound)
		return
	case errors.Is(err, domain.ErrTransitionNotAllowed):
		writeError(w, http.StatusConflict, msgTransitionRejected)
		return
	default:
		h.logger.WithError(err).WithField("order_id", body.OrderID).Error("change order status failed")
		writeError(w, http.StatusInternalServerError, msgStatusFailed)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msgStatusChanged})
}

func (h *OrderHandlers) timeline(w http.ResponseWriter, r *http.Request) {
	var body orderIDRequest
	if !decodeBody(w, r, &body) {
		return
	}

	events, err := h.service.Timeline(r.Context(), body.OrderID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, msgOrderNotFound)
		return
	default:
		h.logger.WithError(err).WithField("order_id", body.OrderID).Error("get order timeline failed")
		writeError(w, http.StatusInternalServerError, msgTimelineFailed)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msgTimelineFetched, Data: newTimelineResponse(events)})
}
