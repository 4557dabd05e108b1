package service

import (
	"context"
	"fmt"
	"time"

	"github.com/example/foodhub/pkg/cart"
	"github.com/example/foodhub/pkg/coupon"
	"github.com/example/foodhub/pkg/lock"
	"github.com/example/foodhub/pkg/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type MenuLookup interface {
	MenuItemLookup
	RestaurantLookup
}

type CouponLookup interface {
	Get(ctx context.Context, id primitive.ObjectID) (*coupon.Coupon, error)
	GetByCode(ctx context.Context, code string) (*coupon.Coupon, error)
}

type AddItemInput struct {
	FoodItemID     primitive.ObjectID
	Quantity       int
	Customizations []cart.Customization
}

// CartService runs every cart mutation under the per-user cart lock: load,
// mutate a copy, save. A failed mutation leaves the stored cart untouched.
type CartService struct {
	carts   CartStore
	menu    MenuLookup
	coupons CouponLookup
	locker  lock.Locker
	logger  *zap.Logger
	now     func() time.Time
}

func NewCartService(carts CartStore, menu MenuLookup, coupons CouponLookup, locker lock.Locker, logger *zap.Logger) *CartService {
	return &CartService{
		carts:   carts,
		menu:    menu,
		coupons: coupons,
		locker:  locker,
		logger:  logger.Named("cart"),
		now:     time.Now,
	}
}

func cartLockKey(userID string) string { return "cart:" + userID }

func (s *CartService) Get(ctx context.Context, actor models.Actor) (*cart.Cart, error) {
	return s.carts.Get(ctx, actor.ID)
}

func (s *CartService) AddItem(ctx context.Context, actor models.Actor, in AddItemInput) (*cart.Cart, error) {
	food, err := s.menu.GetFoodItem(ctx, in.FoodItemID)
	if err != nil {
		return nil, orNotFound(err, "Food item not found")
	}
	restaurant, err := s.menu.GetRestaurant(ctx, food.RestaurantID)
	if err != nil {
		return nil, orNotFound(err, "Restaurant not found")
	}
	customizations, err := food.ResolveCustomizations(in.Customizations)
	if err != nil {
		return nil, invalidInput(err.Error())
	}

	item := food.MenuItem()
	item.Available = item.Available && restaurant.IsActive

	return s.mutate(ctx, actor.ID, func(c *cart.Cart) error {
		return c.AddItem(item, restaurant.DeliveryFee, in.Quantity, customizations)
	})
}

func (s *CartService) UpdateItem(ctx context.Context, actor models.Actor, lineID string, quantity int) (*cart.Cart, error) {
	return s.mutate(ctx, actor.ID, func(c *cart.Cart) error {
		return c.UpdateItemQuantity(lineID, quantity)
	})
}

func (s *CartService) RemoveItem(ctx context.Context, actor models.Actor, lineID string) (*cart.Cart, error) {
	return s.mutate(ctx, actor.ID, func(c *cart.Cart) error {
		return c.RemoveItem(lineID)
	})
}

func (s *CartService) Clear(ctx context.Context, actor models.Actor) (*cart.Cart, error) {
	return s.mutate(ctx, actor.ID, func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
}

func (s *CartService) ApplyCoupon(ctx context.Context, actor models.Actor, code string) (*cart.Cart, error) {
	cp, err := s.coupons.GetByCode(ctx, coupon.NormalizeCode(code))
	if err != nil {
		return nil, orNotFound(err, "Invalid coupon code")
	}

	c, err := s.mutate(ctx, actor.ID, func(c *cart.Cart) error {
		if c.IsEmpty() {
			return cart.ErrEmptyCart
		}
		if err := cp.CheckRestaurant(c.RestaurantID); err != nil {
			return err
		}
		return c.ApplyCoupon(cp, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Coupon applied",
		zap.String("user_id", actor.ID),
		zap.String("code", cp.Code),
		zap.Float64("discount", c.Discount))
	return c, nil
}

func (s *CartService) RemoveCoupon(ctx context.Context, actor models.Actor) (*cart.Cart, error) {
	return s.mutate(ctx, actor.ID, func(c *cart.Cart) error {
		c.RemoveCoupon()
		return nil
	})
}

func (s *CartService) mutate(ctx context.Context, userID string, fn func(c *cart.Cart) error) (*cart.Cart, error) {
	unlock, err := s.locker.Acquire(ctx, cartLockKey(userID))
	if err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}
	defer unlock()

	current, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return next, nil
}
