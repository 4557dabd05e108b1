package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/foodhub/pkg/cart"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CartRepository struct {
	coll *mongo.Collection
}

func (m *MongoRepository) Carts() *CartRepository {
	return &CartRepository{coll: m.collection(collCarts)}
}

// Get returns the stored cart of userID, or a fresh empty one when the user has
// never had a cart.
func (r *CartRepository) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	var c cart.Cart
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return cart.New(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("find cart: %w", err)
	}
	return &c, nil
}

// Save writes c if nobody else saved the cart since it was loaded. On success the
// version is bumped; on ErrConflict c is left as it was.
func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	return r.save(ctx, c, time.Now())
}

func (r *CartRepository) save(ctx context.Context, c *cart.Cart, now time.Time) error {
	expected := c.Version
	next := *c
	next.Version = expected + 1
	next.UpdatedAt = now

	filter := bson.M{"user_id": c.UserID, "version": expected}
	_, err := r.coll.ReplaceOne(ctx, filter, &next, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	*c = next
	return nil
}
