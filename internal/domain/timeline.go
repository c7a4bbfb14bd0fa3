package domain

import "time"

const (
	// TimelineOrderPlaced — заказ создан.
	TimelineOrderPlaced = "OrderPlaced"
	// TimelineStatusChanged — статус заказа изменён, Reason содержит новый статус.
	TimelineStatusChanged = "OrderStatusChanged"
	// TimelineIndexAppendFailed — заказ не попал в список заказов владельца.
	TimelineIndexAppendFailed = "OwnerIndexAppendFailed"
)

// TimelineEvent описывает запись в журнале заказа.
type TimelineEvent struct {
	OrderID  string
	Type     string
	Reason   string
	Occurred time.Time
}
