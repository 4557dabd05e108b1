package events

import (
	"time"

	"github.com/example/foodhub/pkg/order"
	"github.com/google/uuid"
)

type Type string

const (
	OrderPlaced        Type = "order.placed"
	OrderStatusChanged Type = "order.status_changed"
	OrderCancelled     Type = "order.cancelled"
	OrderAssigned      Type = "order.assigned"
)

type Event struct {
	ID          string       `json:"id"`
	Type        Type         `json:"type"`
	OrderID     string       `json:"orderId"`
	OrderNumber string       `json:"orderNumber"`
	UserID      string       `json:"userId"`
	Status      order.Status `json:"status"`
	Total       float64      `json:"total"`
	OccurredAt  time.Time    `json:"occurredAt"`
}

// ForOrder describes what just happened to o.
func ForOrder(t Type, o *order.Order) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        t,
		OrderID:     o.ID.Hex(),
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Status:      o.Status,
		Total:       o.Total,
		OccurredAt:  o.UpdatedAt,
	}
}
