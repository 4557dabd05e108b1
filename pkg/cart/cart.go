package cart

import (
	"errors"
	"time"

	"github.com/example/foodhub/pkg/coupon"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrItemUnavailable = errors.New("food item is not available")
	ErrCrossRestaurant = errors.New("cannot add items from different restaurants, clear cart first")
	ErrLineNotFound    = errors.New("item not found in cart")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrInvalidCoupon matches the *coupon.ValidationError returned by ApplyCoupon.
	ErrInvalidCoupon = coupon.ErrInvalid
)

// Option is one selectable choice of a customization, e.g. "Large" for "Size".
type Option struct {
	Label string  `bson:"label" json:"label"`
	Price float64 `bson:"price" json:"price"`
}

type Customization struct {
	Name           string  `bson:"name" json:"name"`
	SelectedOption *Option `bson:"selected_option,omitempty" json:"selectedOption,omitempty"`
}

func (c Customization) price() float64 {
	if c.SelectedOption == nil {
		return 0
	}
	return c.SelectedOption.Price
}

// MenuItem is the view of a food item the cart needs to price a line.
type MenuItem struct {
	ID           primitive.ObjectID
	RestaurantID primitive.ObjectID
	Name         string
	Price        float64
	Available    bool
}

type LineItem struct {
	ID             string             `bson:"id" json:"id"`
	MenuItemID     primitive.ObjectID `bson:"food_item" json:"foodItem"`
	Name           string             `bson:"name" json:"name"`
	UnitPrice      float64            `bson:"unit_price" json:"unitPrice"`
	Quantity       int                `bson:"quantity" json:"quantity"`
	Customizations []Customization    `bson:"customizations,omitempty" json:"customizations,omitempty"`
	ItemTotal      float64            `bson:"item_total" json:"itemTotal"`
}

// CustomizationPrice is the sum of the selected option prices of the line.
func (l *LineItem) CustomizationPrice() float64 {
	return customizationPrice(l.Customizations)
}

func (l *LineItem) recompute() {
	l.ItemTotal = lineTotal(l.UnitPrice, l.CustomizationPrice(), l.Quantity)
}

// AppliedCoupon is the snapshot of a coupon taken when it was applied.
type AppliedCoupon struct {
	ID    primitive.ObjectID `bson:"id" json:"id"`
	Code  string             `bson:"code" json:"code"`
	Terms coupon.Terms       `bson:"terms" json:"terms"`
}

// Cart belongs to one shopper and holds lines of at most one restaurant.
type Cart struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        string             `bson:"user_id" json:"user"`
	RestaurantID  primitive.ObjectID `bson:"restaurant,omitempty" json:"restaurant,omitempty"`
	Items         []LineItem         `bson:"items" json:"items"`
	Subtotal      float64            `bson:"subtotal" json:"subtotal"`
	CouponApplied *AppliedCoupon     `bson:"coupon_applied,omitempty" json:"couponApplied,omitempty"`
	Discount      float64            `bson:"discount" json:"discount"`
	DeliveryFee   float64            `bson:"delivery_fee" json:"deliveryFee"`
	Total         float64            `bson:"total" json:"total"`
	Version       int64              `bson:"version" json:"-"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

func New(userID string) *Cart {
	return &Cart{UserID: userID, Items: []LineItem{}}
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

// HasRestaurant reports whether the cart is bound to a restaurant.
func (c *Cart) HasRestaurant() bool { return !c.RestaurantID.IsZero() }

// AddItem merges the configuration into an identical existing line or appends a new one.
func (c *Cart) AddItem(item MenuItem, deliveryFee float64, quantity int, customizations []Customization) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if !item.Available {
		return ErrItemUnavailable
	}
	if !c.IsEmpty() && c.RestaurantID != item.RestaurantID {
		return ErrCrossRestaurant
	}

	total := lineTotal(item.Price, customizationPrice(customizations), quantity)
	merged := false
	for i := range c.Items {
		line := &c.Items[i]
		if line.MenuItemID == item.ID && sameCustomizations(line.Customizations, customizations) {
			line.Quantity += quantity
			line.ItemTotal = add(line.ItemTotal, total)
			merged = true
			break
		}
	}
	if !merged {
		c.Items = append(c.Items, LineItem{
			ID:             uuid.NewString(),
			MenuItemID:     item.ID,
			Name:           item.Name,
			UnitPrice:      item.Price,
			Quantity:       quantity,
			Customizations: cloneCustomizations(customizations),
			ItemTotal:      total,
		})
	}

	c.RestaurantID = item.RestaurantID
	c.DeliveryFee = deliveryFee
	c.recalculate()
	return nil
}

func (c *Cart) UpdateItemQuantity(lineID string, quantity int) error {
	line := c.line(lineID)
	if line == nil {
		return ErrLineNotFound
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	line.Quantity = quantity
	line.recompute()
	c.recalculate()
	return nil
}

func (c *Cart) RemoveItem(lineID string) error {
	for i := range c.Items {
		if c.Items[i].ID == lineID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			if c.IsEmpty() {
				c.reset()
			}
			c.recalculate()
			return nil
		}
	}
	return ErrLineNotFound
}

func (c *Cart) Clear() {
	c.Items = []LineItem{}
	c.reset()
	c.recalculate()
}

// ApplyCoupon validates cp against the current subtotal and stores its discount.
// The cart is left unchanged when the coupon does not apply.
func (c *Cart) ApplyCoupon(cp *coupon.Coupon, now time.Time) error {
	if c.IsEmpty() {
		return ErrEmptyCart
	}
	if err := cp.Check(now, c.Subtotal); err != nil {
		return err
	}
	c.CouponApplied = &AppliedCoupon{ID: cp.ID, Code: cp.Code, Terms: cp.Terms()}
	c.recalculate()
	return nil
}

func (c *Cart) RemoveCoupon() {
	c.CouponApplied = nil
	c.Discount = 0
	c.recalculate()
}

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = make([]LineItem, len(c.Items))
	for i, line := range c.Items {
		line.Customizations = cloneCustomizations(line.Customizations)
		cp.Items[i] = line
	}
	if c.CouponApplied != nil {
		applied := *c.CouponApplied
		cp.CouponApplied = &applied
	}
	return &cp
}

func (c *Cart) line(id string) *LineItem {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i]
		}
	}
	return nil
}

func (c *Cart) reset() {
	c.RestaurantID = primitive.NilObjectID
	c.CouponApplied = nil
	c.Discount = 0
	c.DeliveryFee = 0
}

// recalculate refreshes subtotal, discount and total. The discount follows the
// applied coupon terms and is clamped to the subtotal; a coupon whose minimum
// order amount is no longer met is dropped.
func (c *Cart) recalculate() {
	subtotal := decimal.Zero
	for _, line := range c.Items {
		subtotal = subtotal.Add(decimal.NewFromFloat(line.ItemTotal))
	}
	c.Subtotal = subtotal.Round(2).InexactFloat64()

	if c.CouponApplied != nil {
		if c.Subtotal < c.CouponApplied.Terms.MinOrderAmount {
			c.CouponApplied = nil
			c.Discount = 0
		} else {
			c.Discount = c.CouponApplied.Terms.DiscountFor(c.Subtotal)
		}
	}
	if c.Discount > c.Subtotal {
		c.Discount = c.Subtotal
	}

	c.Total = subtotal.
		Sub(decimal.NewFromFloat(c.Discount)).
		Add(decimal.NewFromFloat(c.DeliveryFee)).
		Round(2).InexactFloat64()
}

func customizationPrice(cs []Customization) float64 {
	sum := decimal.Zero
	for _, cz := range cs {
		sum = sum.Add(decimal.NewFromFloat(cz.price()))
	}
	return sum.InexactFloat64()
}

func lineTotal(unit, extras float64, quantity int) float64 {
	return decimal.NewFromFloat(unit).
		Add(decimal.NewFromFloat(extras)).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(2).InexactFloat64()
}

func add(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

// sameCustomizations compares two selections element by element, in order.
func sameCustomizations(a, b []Customization) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			return false
		}
		x, y := a[i].SelectedOption, b[i].SelectedOption
		if (x == nil) != (y == nil) {
			return false
		}
		if x != nil && *x != *y {
			return false
		}
	}
	return true
}

func cloneCustomizations(cs []Customization) []Customization {
	if len(cs) == 0 {
		return nil
	}
	out := make([]Customization, len(cs))
	for i, cz := range cs {
		out[i] = cz
		if cz.SelectedOption != nil {
			opt := *cz.SelectedOption
			out[i].SelectedOption = &opt
		}
	}
	return out
}
