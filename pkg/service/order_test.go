package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/foodhub/pkg/cart"
	"github.com/example/foodhub/pkg/coupon"
	"github.com/example/foodhub/pkg/events"
	"github.com/example/foodhub/pkg/models"
	"github.com/example/foodhub/pkg/order"
	"github.com/example/foodhub/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var homeAddress = models.Address{Label: "Home", Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701"}

func checkoutInput() CheckoutInput {
	return CheckoutInput{Address: homeAddress, PaymentMethod: order.PaymentCOD, SpecialInstructions: "Ring twice"}
}

func (f *fixture) placeOrder(t *testing.T, actor models.Actor) *order.Order {
	t.Helper()
	f.add(t, actor, f.soda, 2)
	o, err := f.orderSvc.Checkout(context.Background(), actor, checkoutInput())
	require.NoError(t, err)
	return o
}

func TestCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cp := f.addCoupon(&coupon.Coupon{Code: "SAVE10", DiscountType: coupon.Percentage, DiscountValue: 10, IsActive: true, UsageLimit: 5})

	f.add(t, shopper, f.pizza, 2)
	_, err := f.cartSvc.ApplyCoupon(ctx, shopper, "SAVE10")
	require.NoError(t, err)

	o, err := f.orderSvc.Checkout(ctx, shopper, checkoutInput())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(o.OrderNumber, "ORD"))
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, order.PaymentPending, o.PaymentStatus)
	assert.Equal(t, 20.0, o.Subtotal)
	assert.Equal(t, 2.0, o.Discount)
	assert.Equal(t, 20.99, o.Total)
	assert.Equal(t, "SAVE10", o.CouponCode)
	assert.Equal(t, homeAddress, o.DeliveryAddress)
	require.Len(t, o.StatusHistory, 1)

	stored := f.carts.stored(shopper.ID)
	assert.True(t, stored.IsEmpty())
	assert.Nil(t, stored.CouponApplied)
	assert.Equal(t, 1, f.coupons.coupons[cp.ID].UsedCount)

	assert.Equal(t, []events.Type{events.OrderPlaced}, f.notifier.types())
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, o.ID.Hex(), f.audit.entries[0].EntityID)
}

func TestCheckoutRepricesWithCurrentTerms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cp := f.addCoupon(&coupon.Coupon{Code: "FLAT", DiscountType: coupon.Flat, DiscountValue: 5, IsActive: true})

	f.add(t, shopper, f.pizza, 2)
	_, err := f.cartSvc.ApplyCoupon(ctx, shopper, "FLAT")
	require.NoError(t, err)

	cp.DiscountValue = 3
	o, err := f.orderSvc.Checkout(ctx, shopper, checkoutInput())
	require.NoError(t, err)
	assert.Equal(t, 3.0, o.Discount)
	assert.Equal(t, 19.99, o.Total)
}

func TestCheckoutRejectsStaleCoupon(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture, cp *coupon.Coupon)
		reason string
	}{
		{
			name:   "deactivated",
			mutate: func(_ *fixture, cp *coupon.Coupon) { cp.IsActive = false },
			reason: "Coupon is not active",
		},
		{
			name:   "deleted",
			mutate: func(f *fixture, cp *coupon.Coupon) { delete(f.coupons.coupons, cp.ID) },
			reason: "Coupon is no longer available",
		},
		{
			name:   "used up",
			mutate: func(_ *fixture, cp *coupon.Coupon) { cp.UsedCount = cp.UsageLimit },
			reason: "Coupon usage limit reached",
		},
		{
			name: "restricted",
			mutate: func(f *fixture, cp *coupon.Coupon) {
				cp.ApplicableRestaurants = []primitive.ObjectID{f.diner.ID}
			},
			reason: "Coupon is not valid for this restaurant",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			cp := f.addCoupon(&coupon.Coupon{Code: "SAVE10", DiscountType: coupon.Percentage, DiscountValue: 10, IsActive: true, UsageLimit: 3})
			f.add(t, shopper, f.pizza, 1)
			_, err := f.cartSvc.ApplyCoupon(ctx, shopper, "SAVE10")
			require.NoError(t, err)
			before := f.carts.stored(shopper.ID)

			tt.mutate(f, cp)
			_, err = f.orderSvc.Checkout(ctx, shopper, checkoutInput())
			assert.ErrorIs(t, err, cart.ErrInvalidCoupon)
			assert.EqualError(t, err, tt.reason)

			assert.Equal(t, before, f.carts.stored(shopper.ID))
			assert.Empty(t, f.orders.orders)
			assert.Empty(t, f.notifier.types())
		})
	}
}

func TestCheckoutCouponExhaustedAtCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addCoupon(&coupon.Coupon{Code: "ONCE", DiscountType: coupon.Flat, DiscountValue: 1, IsActive: true})
	f.add(t, shopper, f.soda, 1)
	_, err := f.cartSvc.ApplyCoupon(ctx, shopper, "ONCE")
	require.NoError(t, err)

	f.orders.placeErr = repository.ErrCouponExhausted
	_, err = f.orderSvc.Checkout(ctx, shopper, checkoutInput())
	assert.ErrorIs(t, err, cart.ErrInvalidCoupon)
	assert.EqualError(t, err, "Coupon usage limit reached")
	assert.False(t, f.carts.stored(shopper.ID).IsEmpty())
}

func TestCheckoutErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orderSvc.Checkout(ctx, shopper, checkoutInput())
	assert.ErrorIs(t, err, order.ErrEmptyCart)

	f.add(t, shopper, f.soda, 1)
	in := checkoutInput()
	in.PaymentMethod = "barter"
	_, err = f.orderSvc.Checkout(ctx, shopper, in)
	assert.ErrorIs(t, err, order.ErrInvalidPaymentMethod)

	f.orders.placeErr = errors.New("transaction aborted")
	_, err = f.orderSvc.Checkout(ctx, shopper, checkoutInput())
	assert.ErrorContains(t, err, "place order")
	assert.False(t, f.carts.stored(shopper.ID).IsEmpty())
}

func TestOrderGetAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t, shopper)

	got, err := f.orderSvc.Get(ctx, shopper, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, got.OrderNumber)

	_, err = f.orderSvc.Get(ctx, other, o.ID)
	assert.ErrorIs(t, err, order.ErrUnauthorized)

	_, err = f.orderSvc.Get(ctx, admin, o.ID)
	assert.NoError(t, err)

	_, err = f.orderSvc.Get(ctx, admin, primitive.NewObjectID())
	assert.EqualError(t, err, "Order not found")
}

func TestOrderUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t, shopper)

	_, err := f.orderSvc.UpdateStatus(ctx, shopper, o.ID, order.StatusConfirmed, "")
	assert.ErrorIs(t, err, order.ErrUnauthorized)

	_, err = f.orderSvc.UpdateStatus(ctx, courier, o.ID, order.StatusConfirmed, "")
	assert.ErrorIs(t, err, order.ErrUnauthorized, "only the assigned partner may update")

	_, err = f.orderSvc.AssignDeliveryPartner(ctx, admin, o.ID, courier.ID)
	require.NoError(t, err)

	_, err = f.orderSvc.UpdateStatus(ctx, courier2, o.ID, order.StatusOutForDelivery, "")
	assert.ErrorIs(t, err, order.ErrUnauthorized)

	updated, err := f.orderSvc.UpdateStatus(ctx, courier, o.ID, order.StatusDelivered, "Left at door")
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, updated.Status)
	assert.Equal(t, order.PaymentPaid, updated.PaymentStatus)

	_, err = f.orderSvc.UpdateStatus(ctx, admin, o.ID, "lost", "")
	assert.ErrorIs(t, err, order.ErrUnknownStatus)

	assert.Equal(t, []events.Type{events.OrderPlaced, events.OrderAssigned, events.OrderStatusChanged}, f.notifier.types())

	stored, err := f.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, stored.StatusHistory, 3)
	assert.Len(t, stored.Transitions(), 2)
}

func TestOrderCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t, shopper)

	_, err := f.orderSvc.Cancel(ctx, other, o.ID, "")
	assert.ErrorIs(t, err, order.ErrUnauthorized)

	cancelled, err := f.orderSvc.Cancel(ctx, shopper, o.ID, "")
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)
	last := cancelled.StatusHistory[len(cancelled.StatusHistory)-1]
	assert.Equal(t, "Cancelled by user", last.Note)

	_, err = f.orderSvc.Cancel(ctx, shopper, o.ID, "")
	assert.ErrorIs(t, err, order.ErrInvalidTransition)

	_, err = f.orderSvc.AssignDeliveryPartner(ctx, admin, o.ID, courier.ID)
	assert.ErrorIs(t, err, order.ErrInvalidTransition)

	assert.Equal(t, []events.Type{events.OrderPlaced, events.OrderCancelled}, f.notifier.types())
}

func TestOrderAssignDeliveryPartnerValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t, shopper)

	_, err := f.orderSvc.AssignDeliveryPartner(ctx, admin, o.ID, "ghost")
	assert.EqualError(t, err, "Delivery partner not found")

	_, err = f.orderSvc.AssignDeliveryPartner(ctx, admin, o.ID, shopper.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)

	assigned, err := f.orderSvc.AssignDeliveryPartner(ctx, admin, o.ID, courier.ID)
	require.NoError(t, err)
	assert.Equal(t, courier.ID, assigned.DeliveryPartnerID)

	mine, err := f.orderSvc.ListForDelivery(ctx, courier)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestOrderListAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.placeOrder(t, shopper)
	f.placeOrder(t, other)

	all, err := f.orderSvc.ListAll(ctx, repository.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.orderSvc.ListAll(ctx, repository.OrderFilter{Status: "lost"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	mine, err := f.orderSvc.ListMine(ctx, other)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestOrderStatsRounding(t *testing.T) {
	f := newFixture(t)
	f.orders.stats = &repository.OrderStats{TotalOrders: 3, TotalRevenue: 100.004999, AverageOrder: 33.334999}

	stats, err := f.orderSvc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100.0, stats.TotalRevenue)
	assert.Equal(t, 33.33, stats.AverageOrder)
}

func TestOrderAuditFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.audit.err = errors.New("audit store down")

	o := f.placeOrder(t, shopper)
	assert.NotEmpty(t, o.OrderNumber)
	assert.Equal(t, []events.Type{events.OrderPlaced}, f.notifier.types())
}

func TestOrderAuditTrail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t, shopper)
	_, err := f.orderSvc.Cancel(ctx, shopper, o.ID, "ordered twice")
	require.NoError(t, err)
	f.placeOrder(t, other)

	trail, err := f.orderSvc.AuditTrail(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, string(events.OrderPlaced), trail[0].Action)
	assert.Equal(t, string(events.OrderCancelled), trail[1].Action)
	assert.Equal(t, shopper.ID, trail[1].ActorID)

	_, err = f.orderSvc.AuditTrail(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}
