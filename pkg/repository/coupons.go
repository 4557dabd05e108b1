package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/foodhub/pkg/coupon"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type CouponRepository struct {
	coll *mongo.Collection
}

func (m *MongoRepository) Coupons() *CouponRepository {
	return &CouponRepository{coll: m.collection(collCoupons)}
}

func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("coupon %s: %w", c.Code, ErrDuplicate)
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

func (r *CouponRepository) Get(ctx context.Context, id primitive.ObjectID) (*coupon.Coupon, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByCode looks a coupon up by its normalised code.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	return r.findOne(ctx, bson.M{"code": code})
}

func (r *CouponRepository) findOne(ctx context.Context, filter bson.M) (*coupon.Coupon, error) {
	var c coupon.Coupon
	if err := r.coll.FindOne(ctx, filter).Decode(&c); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *CouponRepository) List(ctx context.Context, active *bool) ([]*coupon.Coupon, error) {
	filter := bson.M{}
	if active != nil {
		filter["is_active"] = *active
	}
	return findAll[*coupon.Coupon](ctx, r.coll, filter, newestFirst())
}

// ListAvailable returns the active coupons that are within their validity
// window at now and still have uses left.
func (r *CouponRepository) ListAvailable(ctx context.Context, now time.Time) ([]*coupon.Coupon, error) {
	filter := bson.M{
		"is_active":   true,
		"valid_from":  bson.M{"$lte": now},
		"valid_until": bson.M{"$gte": now},
		"$or":         usesLeft(),
	}
	return findAll[*coupon.Coupon](ctx, r.coll, filter, newestFirst())
}

func (r *CouponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("coupon %s: %w", c.Code, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("update coupon: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CouponRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func usesLeft() bson.A {
	return bson.A{
		bson.M{"usage_limit": bson.M{"$exists": false}},
		bson.M{"usage_limit": 0},
		bson.M{"$expr": bson.M{"$lt": bson.A{"$used_count", "$usage_limit"}}},
	}
}
