package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/foodhub/pkg/cart"
	"github.com/example/foodhub/pkg/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrEmptyCart            = cart.ErrEmptyCart
	ErrMissingRestaurant    = errors.New("restaurant missing")
	ErrInvalidTransition    = errors.New("cannot change order at this stage")
	ErrUnauthorized         = errors.New("not authorized")
	ErrUnknownStatus        = errors.New("unknown order status")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusOutForDelivery Status = "out-for-delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Cancellable reports whether an order in this status may still be cancelled.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentOnline
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

const (
	EventAssigned = "assigned"

	defaultCancelReason = "Cancelled by user"
)

type EntryKind string

const (
	KindTransition EntryKind = "transition"
	KindEvent      EntryKind = "event"
)

// HistoryEntry is either a status transition or a free-form event such as a
// delivery partner assignment. Entries are only ever appended.
type HistoryEntry struct {
	Kind      EntryKind `bson:"kind" json:"kind"`
	Status    Status    `bson:"status,omitempty" json:"status,omitempty"`
	Event     string    `bson:"event,omitempty" json:"event,omitempty"`
	Note      string    `bson:"note,omitempty" json:"note,omitempty"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

type Item struct {
	FoodItemID     primitive.ObjectID   `bson:"food_item" json:"foodItem"`
	Name           string               `bson:"name" json:"name"`
	Price          float64              `bson:"price" json:"price"`
	Quantity       int                  `bson:"quantity" json:"quantity"`
	Customizations []cart.Customization `bson:"customizations,omitempty" json:"customizations,omitempty"`
	ItemTotal      float64              `bson:"item_total" json:"itemTotal"`
}

type Order struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber         string             `bson:"order_number" json:"orderNumber"`
	UserID              string             `bson:"user" json:"user"`
	RestaurantID        primitive.ObjectID `bson:"restaurant" json:"restaurant"`
	Items               []Item             `bson:"items" json:"items"`
	DeliveryAddress     models.Address     `bson:"delivery_address" json:"deliveryAddress"`
	Status              Status             `bson:"status" json:"status"`
	PaymentMethod       PaymentMethod      `bson:"payment_method" json:"paymentMethod"`
	PaymentStatus       PaymentStatus      `bson:"payment_status" json:"paymentStatus"`
	Subtotal            float64            `bson:"subtotal" json:"subtotal"`
	Discount            float64            `bson:"discount" json:"discount"`
	CouponCode          string             `bson:"coupon_code,omitempty" json:"couponCode,omitempty"`
	DeliveryFee         float64            `bson:"delivery_fee" json:"deliveryFee"`
	Total               float64            `bson:"total" json:"total"`
	SpecialInstructions string             `bson:"special_instructions,omitempty" json:"specialInstructions,omitempty"`
	DeliveryPartnerID   string             `bson:"delivery_partner,omitempty" json:"deliveryPartner,omitempty"`
	StatusHistory       []HistoryEntry     `bson:"status_history" json:"statusHistory"`
	CreatedAt           time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updated_at" json:"updatedAt"`
}

// NewFromCart snapshots a priced cart into a pending order. The cart itself is
// not modified; clearing it is the caller's job once the order is stored.
func NewFromCart(c *cart.Cart, address models.Address, method PaymentMethod, instructions, number string, now time.Time) (*Order, error) {
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if !c.HasRestaurant() {
		return nil, ErrMissingRestaurant
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, method)
	}

	items := make([]Item, len(c.Items))
	snapshot := c.Clone()
	for i, line := range snapshot.Items {
		items[i] = Item{
			FoodItemID:     line.MenuItemID,
			Name:           line.Name,
			Price:          line.UnitPrice,
			Quantity:       line.Quantity,
			Customizations: line.Customizations,
			ItemTotal:      line.ItemTotal,
		}
	}

	o := &Order{
		OrderNumber:         number,
		UserID:              c.UserID,
		RestaurantID:        c.RestaurantID,
		Items:               items,
		DeliveryAddress:     address,
		Status:              StatusPending,
		PaymentMethod:       method,
		PaymentStatus:       PaymentPending,
		Subtotal:            c.Subtotal,
		Discount:            c.Discount,
		DeliveryFee:         c.DeliveryFee,
		Total:               c.Total,
		SpecialInstructions: instructions,
		StatusHistory: []HistoryEntry{
			{Kind: KindTransition, Status: StatusPending, Note: "Order placed", Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if c.CouponApplied != nil {
		o.CouponCode = c.CouponApplied.Code
	}
	return o, nil
}

// SetStatus writes any lifecycle status. Reaching delivered marks the order paid.
// Cancelled orders are final, and cancelling through SetStatus obeys the same
// guard as Cancel.
func (o *Order) SetStatus(status Status, note string, now time.Time) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	if o.Status == StatusCancelled {
		return ErrInvalidTransition
	}
	if status == StatusCancelled && !o.Status.Cancellable() {
		return ErrInvalidTransition
	}
	o.transition(status, note, now)
	if status == StatusDelivered {
		o.PaymentStatus = PaymentPaid
	}
	return nil
}

// Cancel moves a pending or confirmed order to cancelled. Plain users may only
// cancel their own orders.
func (o *Order) Cancel(actor models.Actor, reason string, now time.Time) error {
	if actor.Role == models.RoleUser && o.UserID != actor.ID {
		return ErrUnauthorized
	}
	if !o.Status.Cancellable() {
		return ErrInvalidTransition
	}
	if reason == "" {
		reason = defaultCancelReason
	}
	o.transition(StatusCancelled, reason, now)
	return nil
}

func (o *Order) AssignDeliveryPartner(partnerID string, now time.Time) {
	o.DeliveryPartnerID = partnerID
	o.StatusHistory = append(o.StatusHistory, HistoryEntry{
		Kind:      KindEvent,
		Event:     EventAssigned,
		Note:      "Delivery partner assigned",
		Timestamp: now,
	})
	o.UpdatedAt = now
}

// CanView reports whether actor may read the order.
func (o *Order) CanView(actor models.Actor) bool {
	return actor.Role != models.RoleUser || o.UserID == actor.ID
}

// Transitions returns only the status transitions of the history.
func (o *Order) Transitions() []HistoryEntry {
	var out []HistoryEntry
	for _, e := range o.StatusHistory {
		if e.Kind == KindTransition {
			out = append(out, e)
		}
	}
	return out
}

func (o *Order) transition(status Status, note string, now time.Time) {
	o.Status = status
	o.StatusHistory = append(o.StatusHistory, HistoryEntry{
		Kind:      KindTransition,
		Status:    status,
		Note:      note,
		Timestamp: now,
	})
	o.UpdatedAt = now
}
