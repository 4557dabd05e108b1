package service

import (
	"context"
	"errors"
	"time"

	"github.com/example/foodhub/pkg/coupon"
	"github.com/example/foodhub/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type CouponService struct {
	coupons CouponStore
	logger  *zap.Logger
	now     func() time.Time
}

func NewCouponService(coupons CouponStore, logger *zap.Logger) *CouponService {
	return &CouponService{coupons: coupons, logger: logger.Named("coupon"), now: time.Now}
}

// Quote is the answer to a coupon validation request.
type Quote struct {
	Code               string              `json:"code"`
	DiscountType       coupon.DiscountType `json:"discountType"`
	DiscountValue      float64             `json:"discountValue"`
	CalculatedDiscount float64             `json:"calculatedDiscount"`
}

func (s *CouponService) Create(ctx context.Context, c *coupon.Coupon) (*coupon.Coupon, error) {
	now := s.now()
	c.ID = primitive.NilObjectID
	c.Code = coupon.NormalizeCode(c.Code)
	c.UsedCount = 0
	if c.ValidFrom.IsZero() {
		c.ValidFrom = now
	}
	if err := c.Validate(); err != nil {
		return nil, invalidInput(err.Error())
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	if err := s.coupons.Create(ctx, c); err != nil {
		return nil, duplicateCode(err)
	}
	s.logger.Info("Coupon created", zap.String("code", c.Code))
	return c, nil
}

func (s *CouponService) List(ctx context.Context, active *bool) ([]*coupon.Coupon, error) {
	return s.coupons.List(ctx, active)
}

// ListAvailable returns the coupons a shopper could use right now.
func (s *CouponService) ListAvailable(ctx context.Context) ([]*coupon.Coupon, error) {
	return s.coupons.ListAvailable(ctx, s.now())
}

func (s *CouponService) Get(ctx context.Context, id primitive.ObjectID) (*coupon.Coupon, error) {
	c, err := s.coupons.Get(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Coupon not found")
	}
	return c, nil
}

// Update replaces the editable fields of a coupon. Usage and creation time are
// kept from the stored copy.
func (s *CouponService) Update(ctx context.Context, id primitive.ObjectID, in *coupon.Coupon) (*coupon.Coupon, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *in
	next.ID = current.ID
	next.Code = coupon.NormalizeCode(in.Code)
	next.UsedCount = current.UsedCount
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.now()
	if next.ValidFrom.IsZero() {
		next.ValidFrom = current.ValidFrom
	}
	if err := next.Validate(); err != nil {
		return nil, invalidInput(err.Error())
	}

	if err := s.coupons.Update(ctx, &next); err != nil {
		return nil, duplicateCode(orNotFound(err, "Coupon not found"))
	}
	return &next, nil
}

func (s *CouponService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return orNotFound(s.coupons.Delete(ctx, id), "Coupon not found")
}

func (s *CouponService) ToggleStatus(ctx context.Context, id primitive.ObjectID) (*coupon.Coupon, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.IsActive = !c.IsActive
	c.UpdatedAt = s.now()
	if err := s.coupons.Update(ctx, c); err != nil {
		return nil, orNotFound(err, "Coupon not found")
	}
	return c, nil
}

// Validate reports the discount code would grant on amount without touching
// any cart.
func (s *CouponService) Validate(ctx context.Context, code string, amount float64) (*Quote, error) {
	c, err := s.coupons.GetByCode(ctx, coupon.NormalizeCode(code))
	if err != nil {
		return nil, orNotFound(err, "Invalid coupon code")
	}
	if err := c.Check(s.now(), amount); err != nil {
		return nil, err
	}
	discount := c.DiscountFor(amount)
	if discount > amount {
		discount = amount
	}
	return &Quote{
		Code:               c.Code,
		DiscountType:       c.DiscountType,
		DiscountValue:      c.DiscountValue,
		CalculatedDiscount: discount,
	}, nil
}

func duplicateCode(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return &Error{Kind: ErrAlreadyExists, Message: "Coupon code already exists"}
	}
	return err
}
