package coupon

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCoupon_Check(t *testing.T) {
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	base := func() *Coupon {
		return &Coupon{
			Code:           "WELCOME",
			DiscountType:   Percentage,
			DiscountValue:  10,
			MinOrderAmount: 20,
			ValidFrom:      now.Add(-24 * time.Hour),
			ValidUntil:     now.Add(24 * time.Hour),
			UsageLimit:     5,
			UsedCount:      1,
			IsActive:       true,
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Coupon)
		amount float64
		reason string
	}{
		{name: "valid", amount: 20},
		{name: "inactive wins over everything", mutate: func(c *Coupon) {
			c.IsActive = false
			c.ValidUntil = now.Add(-time.Hour)
		}, amount: 1, reason: "Coupon is not active"},
		{name: "not yet valid", mutate: func(c *Coupon) { c.ValidFrom = now.Add(time.Hour) }, amount: 50, reason: "Coupon is not yet valid"},
		{name: "expired before usage", mutate: func(c *Coupon) {
			c.ValidUntil = now.Add(-time.Second)
			c.UsedCount = 5
		}, amount: 50, reason: "Coupon has expired"},
		{name: "usage limit reached", mutate: func(c *Coupon) { c.UsedCount = 5 }, amount: 50, reason: "Coupon usage limit reached"},
		{name: "unlimited usage", mutate: func(c *Coupon) {
			c.UsageLimit = 0
			c.UsedCount = 1000
		}, amount: 50},
		{name: "below minimum", amount: 19.99, reason: "Minimum order amount is $20"},
		{name: "fractional minimum", mutate: func(c *Coupon) { c.MinOrderAmount = 12.5 }, amount: 10, reason: "Minimum order amount is $12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			if tt.mutate != nil {
				tt.mutate(c)
			}
			err := c.Check(now, tt.amount)
			if tt.reason == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalid)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.reason, verr.Reason)
		})
	}
}

func TestCoupon_DiscountFor(t *testing.T) {
	tests := []struct {
		name   string
		terms  Terms
		amount float64
		want   float64
	}{
		{name: "percentage", terms: Terms{Type: Percentage, Value: 15}, amount: 80, want: 12},
		{name: "percentage clamped", terms: Terms{Type: Percentage, Value: 10, MaxDiscount: 5}, amount: 100, want: 5},
		{name: "percentage under cap", terms: Terms{Type: Percentage, Value: 10, MaxDiscount: 50}, amount: 100, want: 10},
		{name: "percentage rounds to cents", terms: Terms{Type: Percentage, Value: 12.5}, amount: 9.99, want: 1.25},
		{name: "flat", terms: Terms{Type: Flat, Value: 5}, amount: 30, want: 5},
		{name: "flat clamped", terms: Terms{Type: Flat, Value: 15, MaxDiscount: 10}, amount: 30, want: 10},
		{name: "unknown type", terms: Terms{Type: "bogo", Value: 5}, amount: 30, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.terms.DiscountFor(tt.amount))
		})
	}
}

func TestCoupon_Validate(t *testing.T) {
	now := time.Now()
	valid := Coupon{Code: "SAVE", DiscountType: Flat, DiscountValue: 3, ValidFrom: now, ValidUntil: now.Add(time.Hour)}
	require.NoError(t, valid.Validate())

	bad := []func(c *Coupon){
		func(c *Coupon) { c.Code = "" },
		func(c *Coupon) { c.DiscountType = "free" },
		func(c *Coupon) { c.DiscountValue = 0 },
		func(c *Coupon) { c.DiscountType = Percentage; c.DiscountValue = 120 },
		func(c *Coupon) { c.MaxDiscount = -1 },
		func(c *Coupon) { c.ValidUntil = time.Time{} },
		func(c *Coupon) { c.ValidUntil = now.Add(-time.Hour) },
	}
	for i, mutate := range bad {
		c := valid
		mutate(&c)
		assert.Error(t, c.Validate(), "case %d", i)
	}
}

func TestCoupon_CheckRestaurant(t *testing.T) {
	allowed := primitive.NewObjectID()
	c := &Coupon{}
	assert.NoError(t, c.CheckRestaurant(primitive.NewObjectID()))

	c.ApplicableRestaurants = []primitive.ObjectID{allowed}
	assert.NoError(t, c.CheckRestaurant(allowed))
	assert.ErrorIs(t, c.CheckRestaurant(primitive.NewObjectID()), ErrInvalid)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SUMMER10", NormalizeCode("  summer10 "))
}
