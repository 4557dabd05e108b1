package coupon

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DiscountType string

const (
	Percentage DiscountType = "percentage"
	Flat       DiscountType = "flat"
)

// ErrInvalid is matched by every ValidationError returned from Check.
var ErrInvalid = errors.New("invalid coupon")

// ValidationError carries the human readable reason a coupon does not apply.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

type Coupon struct {
	ID                    primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Code                  string               `bson:"code" json:"code"`
	Description           string               `bson:"description,omitempty" json:"description,omitempty"`
	DiscountType          DiscountType         `bson:"discount_type" json:"discountType"`
	DiscountValue         float64              `bson:"discount_value" json:"discountValue"`
	MinOrderAmount        float64              `bson:"min_order_amount" json:"minOrderAmount"`
	MaxDiscount           float64              `bson:"max_discount,omitempty" json:"maxDiscount,omitempty"`
	ValidFrom             time.Time            `bson:"valid_from" json:"validFrom"`
	ValidUntil            time.Time            `bson:"valid_until" json:"validUntil"`
	UsageLimit            int                  `bson:"usage_limit,omitempty" json:"usageLimit,omitempty"`
	UsedCount             int                  `bson:"used_count" json:"usedCount"`
	IsActive              bool                 `bson:"is_active" json:"isActive"`
	ApplicableRestaurants []primitive.ObjectID `bson:"applicable_restaurants,omitempty" json:"applicableRestaurants,omitempty"`
	CreatedAt             time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt             time.Time            `bson:"updated_at" json:"updatedAt"`
}

// NormalizeCode returns the stored form of a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks the administrative input of a coupon before it is stored.
func (c *Coupon) Validate() error {
	if c.Code == "" {
		return errors.New("coupon code is required")
	}
	switch c.DiscountType {
	case Percentage:
		if c.DiscountValue > 100 {
			return errors.New("percentage discount cannot exceed 100")
		}
	case Flat:
	default:
		return fmt.Errorf("unknown discount type %q", c.DiscountType)
	}
	if c.DiscountValue <= 0 {
		return errors.New("discount value must be greater than 0")
	}
	if c.MinOrderAmount < 0 || c.MaxDiscount < 0 || c.UsageLimit < 0 {
		return errors.New("coupon limits cannot be negative")
	}
	if c.ValidUntil.IsZero() {
		return errors.New("valid until is required")
	}
	if !c.ValidFrom.IsZero() && c.ValidUntil.Before(c.ValidFrom) {
		return errors.New("valid until must not be before valid from")
	}
	return nil
}

// Check applies the validity rules in order; the first failing rule wins.
func (c *Coupon) Check(now time.Time, amount float64) error {
	if !c.IsActive {
		return invalid("Coupon is not active")
	}
	if now.Before(c.ValidFrom) {
		return invalid("Coupon is not yet valid")
	}
	if now.After(c.ValidUntil) {
		return invalid("Coupon has expired")
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return invalid("Coupon usage limit reached")
	}
	if amount < c.MinOrderAmount {
		return invalid("Minimum order amount is $%s", FormatAmount(c.MinOrderAmount))
	}
	return nil
}

// CheckRestaurant rejects carts from restaurants the coupon is not restricted to.
func (c *Coupon) CheckRestaurant(restaurantID primitive.ObjectID) error {
	if len(c.ApplicableRestaurants) == 0 {
		return nil
	}
	for _, id := range c.ApplicableRestaurants {
		if id == restaurantID {
			return nil
		}
	}
	return invalid("Coupon is not valid for this restaurant")
}

// Terms returns the discount terms needed to recompute the discount later.
func (c *Coupon) Terms() Terms {
	return Terms{
		Type:           c.DiscountType,
		Value:          c.DiscountValue,
		MinOrderAmount: c.MinOrderAmount,
		MaxDiscount:    c.MaxDiscount,
	}
}

// DiscountFor returns the discount the coupon grants on amount.
func (c *Coupon) DiscountFor(amount float64) float64 {
	return c.Terms().DiscountFor(amount)
}

// Terms is the part of a coupon that decides the discount amount.
type Terms struct {
	Type           DiscountType `bson:"type" json:"discountType"`
	Value          float64      `bson:"value" json:"discountValue"`
	MinOrderAmount float64      `bson:"min_order_amount" json:"minOrderAmount"`
	MaxDiscount    float64      `bson:"max_discount,omitempty" json:"maxDiscount,omitempty"`
}

func (t Terms) DiscountFor(amount float64) float64 {
	var d decimal.Decimal
	switch t.Type {
	case Percentage:
		d = decimal.NewFromFloat(amount).
			Mul(decimal.NewFromFloat(t.Value)).
			Div(decimal.NewFromInt(100))
	case Flat:
		d = decimal.NewFromFloat(t.Value)
	default:
		return 0
	}
	if t.MaxDiscount > 0 {
		max := decimal.NewFromFloat(t.MaxDiscount)
		if d.GreaterThan(max) {
			d = max
		}
	}
	if d.IsNegative() {
		return 0
	}
	return d.Round(2).InexactFloat64()
}

// FormatAmount renders an amount without trailing zeros, e.g. 20 or 12.5.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}
