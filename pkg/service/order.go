package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/foodhub/pkg/coupon"
	"github.com/example/foodhub/pkg/events"
	"github.com/example/foodhub/pkg/lock"
	"github.com/example/foodhub/pkg/models"
	"github.com/example/foodhub/pkg/order"
	"github.com/example/foodhub/pkg/repository"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	auditService    = "order"
	auditTrailLimit = 200
)

type UserLookup interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

type CheckoutInput struct {
	Address             models.Address
	PaymentMethod       order.PaymentMethod
	SpecialInstructions string
}

type OrderService struct {
	carts    CartStore
	orders   OrderStore
	coupons  CouponLookup
	users    UserLookup
	numbers  NumberSource
	locker   lock.Locker
	notifier Notifier
	audit    AuditLogger
	logger   *zap.Logger
	now      func() time.Time
}

type OrderDeps struct {
	Carts    CartStore
	Orders   OrderStore
	Coupons  CouponLookup
	Users    UserLookup
	Numbers  NumberSource
	Locker   lock.Locker
	Notifier Notifier
	Audit    AuditLogger
}

func NewOrderService(deps OrderDeps, logger *zap.Logger) *OrderService {
	return &OrderService{
		carts:    deps.Carts,
		orders:   deps.Orders,
		coupons:  deps.Coupons,
		users:    deps.Users,
		numbers:  deps.Numbers,
		locker:   deps.Locker,
		notifier: deps.Notifier,
		audit:    deps.Audit,
		logger:   logger.Named("order"),
		now:      time.Now,
	}
}

// Checkout turns the caller's cart into a pending order. The applied coupon is
// checked again against the stored coupon and the discount is repriced with its
// current terms. The order, the coupon use and the emptied cart are committed
// together; on any error the cart is left as it was.
func (s *OrderService) Checkout(ctx context.Context, actor models.Actor, in CheckoutInput) (*order.Order, error) {
	unlock, err := s.locker.Acquire(ctx, cartLockKey(actor.ID))
	if err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}
	defer unlock()

	current, err := s.carts.Get(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if current.IsEmpty() {
		return nil, order.ErrEmptyCart
	}
	if !current.HasRestaurant() {
		return nil, order.ErrMissingRestaurant
	}

	now := s.now()
	priced := current.Clone()
	var couponID primitive.ObjectID
	if applied := current.CouponApplied; applied != nil {
		cp, err := s.coupons.Get(ctx, applied.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &coupon.ValidationError{Reason: "Coupon is no longer available"}
		}
		if err != nil {
			return nil, err
		}
		if err := cp.CheckRestaurant(priced.RestaurantID); err != nil {
			return nil, err
		}
		if err := priced.ApplyCoupon(cp, now); err != nil {
			return nil, err
		}
		couponID = cp.ID
	}

	number, err := s.numbers.Next(ctx)
	if err != nil {
		return nil, err
	}
	o, err := order.NewFromCart(priced, in.Address, in.PaymentMethod, in.SpecialInstructions, number, now)
	if err != nil {
		return nil, err
	}

	cleared := priced.Clone()
	cleared.Clear()
	err = s.orders.PlaceOrder(ctx, o, cleared, couponID)
	if errors.Is(err, repository.ErrCouponExhausted) {
		return nil, &coupon.ValidationError{Reason: "Coupon usage limit reached"}
	}
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	s.logger.Info("Order placed",
		zap.String("order_number", o.OrderNumber),
		zap.String("user_id", o.UserID),
		zap.Float64("total", o.Total))
	s.publish(ctx, actor, events.OrderPlaced, o, bson.M{"total": o.Total, "coupon": o.CouponCode})
	return o, nil
}

func (s *OrderService) Get(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*order.Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Order not found")
	}
	if !o.CanView(actor) {
		return nil, order.ErrUnauthorized
	}
	return o, nil
}

// AuditTrail lists what happened to an order, in order. Admin only at the route.
func (s *OrderService) AuditTrail(ctx context.Context, id primitive.ObjectID) ([]*repository.AuditLog, error) {
	if _, err := s.orders.Get(ctx, id); err != nil {
		return nil, orNotFound(err, "Order not found")
	}
	return s.audit.AuditTrail(ctx, auditService, id.Hex(), auditTrailLimit)
}

func (s *OrderService) ListMine(ctx context.Context, actor models.Actor) ([]*order.Order, error) {
	return s.orders.ListByUser(ctx, actor.ID)
}

func (s *OrderService) ListAll(ctx context.Context, f repository.OrderFilter) ([]*order.Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, invalidInput(fmt.Sprintf("Unknown order status %q", f.Status))
	}
	return s.orders.List(ctx, f)
}

func (s *OrderService) ListForDelivery(ctx context.Context, actor models.Actor) ([]*order.Order, error) {
	return s.orders.ListByDeliveryPartner(ctx, actor.ID)
}

// UpdateStatus is open to admins and to the delivery partner assigned to the order.
func (s *OrderService) UpdateStatus(ctx context.Context, actor models.Actor, id primitive.ObjectID, status order.Status, note string) (*order.Order, error) {
	return s.progress(ctx, actor, id, func(o *order.Order) (events.Type, error) {
		switch actor.Role {
		case models.RoleAdmin:
		case models.RoleDelivery:
			if o.DeliveryPartnerID != actor.ID {
				return "", order.ErrUnauthorized
			}
		default:
			return "", order.ErrUnauthorized
		}
		if err := o.SetStatus(status, note, s.now()); err != nil {
			return "", err
		}
		if status == order.StatusCancelled {
			return events.OrderCancelled, nil
		}
		return events.OrderStatusChanged, nil
	})
}

func (s *OrderService) Cancel(ctx context.Context, actor models.Actor, id primitive.ObjectID, reason string) (*order.Order, error) {
	return s.progress(ctx, actor, id, func(o *order.Order) (events.Type, error) {
		return events.OrderCancelled, o.Cancel(actor, reason, s.now())
	})
}

func (s *OrderService) AssignDeliveryPartner(ctx context.Context, actor models.Actor, id primitive.ObjectID, partnerID string) (*order.Order, error) {
	partner, err := s.users.Get(ctx, partnerID)
	if err != nil {
		return nil, orNotFound(err, "Delivery partner not found")
	}
	if partner.Role != models.RoleDelivery {
		return nil, invalidInput("User is not a delivery partner")
	}

	return s.progress(ctx, actor, id, func(o *order.Order) (events.Type, error) {
		if o.Status == order.StatusDelivered || o.Status == order.StatusCancelled {
			return "", order.ErrInvalidTransition
		}
		o.AssignDeliveryPartner(partner.ID, s.now())
		return events.OrderAssigned, nil
	})
}

func (s *OrderService) Stats(ctx context.Context) (*repository.OrderStats, error) {
	stats, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, err
	}
	stats.TotalRevenue = decimal.NewFromFloat(stats.TotalRevenue).Round(2).InexactFloat64()
	stats.AverageOrder = decimal.NewFromFloat(stats.AverageOrder).Round(2).InexactFloat64()
	return stats, nil
}

// progress loads the order, applies fn and appends the new history entries.
func (s *OrderService) progress(ctx context.Context, actor models.Actor, id primitive.ObjectID, fn func(o *order.Order) (events.Type, error)) (*order.Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Order not found")
	}
	prev := len(o.StatusHistory)
	from := o.Status

	evType, err := fn(o)
	if err != nil {
		return nil, err
	}
	if err := s.orders.SaveProgress(ctx, o, prev); err != nil {
		return nil, fmt.Errorf("save order %s: %w", o.OrderNumber, err)
	}

	s.logger.Info("Order updated",
		zap.String("order_number", o.OrderNumber),
		zap.String("event", string(evType)),
		zap.String("from", string(from)),
		zap.String("to", string(o.Status)),
		zap.String("actor_id", actor.ID))
	s.publish(ctx, actor, evType, o, bson.M{"from": from, "to": o.Status, "delivery_partner": o.DeliveryPartnerID})
	return o, nil
}

func (s *OrderService) publish(ctx context.Context, actor models.Actor, t events.Type, o *order.Order, data bson.M) {
	s.notifier.Notify(events.ForOrder(t, o))

	entry := &repository.AuditLog{
		Service:  auditService,
		Action:   string(t),
		ActorID:  actor.ID,
		EntityID: o.ID.Hex(),
		Data:     data,
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("Failed to write audit log",
			zap.String("order_number", o.OrderNumber),
			zap.String("action", entry.Action),
			zap.Error(err))
	}
}
