package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/foodhub/pkg/cart"
	"github.com/example/foodhub/pkg/order"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrCouponExhausted is returned by PlaceOrder when the coupon hit its usage
// limit between validation and commit.
var ErrCouponExhausted = errors.New("coupon usage limit reached")

type OrderFilter struct {
	Status       order.Status
	RestaurantID primitive.ObjectID
	From         time.Time
	To           time.Time
}

func (f OrderFilter) query() bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if !f.RestaurantID.IsZero() {
		q["restaurant"] = f.RestaurantID
	}
	created := bson.M{}
	if !f.From.IsZero() {
		created["$gte"] = f.From
	}
	if !f.To.IsZero() {
		created["$lte"] = f.To
	}
	if len(created) > 0 {
		q["created_at"] = created
	}
	return q
}

type OrderStats struct {
	TotalOrders     int64          `json:"totalOrders"`
	TotalRevenue    float64        `json:"totalRevenue"`
	AverageOrder    float64        `json:"averageOrderValue"`
	PendingOrders   int64          `json:"pendingOrders"`
	DeliveredOrders int64          `json:"deliveredOrders"`
	RecentOrders    []*order.Order `json:"recentOrders"`
}

type OrderRepository struct {
	mongo *MongoRepository
	coll  *mongo.Collection
}

func (m *MongoRepository) Orders() *OrderRepository {
	return &OrderRepository{mongo: m, coll: m.collection(collOrders)}
}

// PlaceOrder stores o, consumes one use of couponID (if any) and writes the
// emptied cart in a single transaction. Nothing is written when a step fails.
func (r *OrderRepository) PlaceOrder(ctx context.Context, o *order.Order, cleared *cart.Cart, couponID primitive.ObjectID) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	carts := r.mongo.Carts()
	coupons := r.mongo.collection(collCoupons)
	now := time.Now()

	var saved cart.Cart
	err := r.mongo.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.coll.InsertOne(sc, o); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		if !couponID.IsZero() {
			filter := bson.M{
				"_id": couponID,
				"$or": usesLeft(),
			}
			update := bson.M{"$inc": bson.M{"used_count": 1}, "$set": bson.M{"updated_at": now}}
			res, err := coupons.UpdateOne(sc, filter, update)
			if err != nil {
				return fmt.Errorf("consume coupon: %w", err)
			}
			if res.MatchedCount == 0 {
				return ErrCouponExhausted
			}
		}

		saved = *cleared
		return carts.save(sc, &saved, now)
	})
	if err != nil {
		return err
	}
	*cleared = saved
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id primitive.ObjectID) (*order.Order, error) {
	var o order.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// SaveProgress persists the mutable fields of o and appends the history
// entries from index prev on. Earlier history is never rewritten.
func (r *OrderRepository) SaveProgress(ctx context.Context, o *order.Order, prev int) error {
	set := bson.M{
		"status":         o.Status,
		"payment_status": o.PaymentStatus,
		"updated_at":     o.UpdatedAt,
	}
	if o.DeliveryPartnerID != "" {
		set["delivery_partner"] = o.DeliveryPartnerID
	}
	update := bson.M{"$set": set}
	if prev < len(o.StatusHistory) {
		update["$push"] = bson.M{"status_history": bson.M{"$each": o.StatusHistory[prev:]}}
	}

	// The history length acts as the version of the order document.
	filter := bson.M{"_id": o.ID, "status_history": bson.M{"$size": prev}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	return findAll[*order.Order](ctx, r.coll, bson.M{"user": userID}, newestFirst())
}

func (r *OrderRepository) ListByDeliveryPartner(ctx context.Context, partnerID string) ([]*order.Order, error) {
	return findAll[*order.Order](ctx, r.coll, bson.M{"delivery_partner": partnerID}, newestFirst())
}

func (r *OrderRepository) List(ctx context.Context, f OrderFilter) ([]*order.Order, error) {
	return findAll[*order.Order](ctx, r.coll, f.query(), newestFirst())
}

func (r *OrderRepository) Stats(ctx context.Context) (*OrderStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$total"}}},
			{Key: "average", Value: bson.D{{Key: "$avg", Value: "$total"}}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate orders: %w", err)
	}
	var totals []struct {
		Count   int64   `bson:"count"`
		Revenue float64 `bson:"revenue"`
		Average float64 `bson:"average"`
	}
	if err := cursor.All(ctx, &totals); err != nil {
		return nil, err
	}

	stats := &OrderStats{}
	if len(totals) > 0 {
		stats.TotalOrders = totals[0].Count
		stats.TotalRevenue = totals[0].Revenue
		stats.AverageOrder = totals[0].Average
	}
	if stats.PendingOrders, err = r.coll.CountDocuments(ctx, bson.M{"status": order.StatusPending}); err != nil {
		return nil, err
	}
	if stats.DeliveredOrders, err = r.coll.CountDocuments(ctx, bson.M{"status": order.StatusDelivered}); err != nil {
		return nil, err
	}
	if stats.RecentOrders, err = findAll[*order.Order](ctx, r.coll, bson.M{}, newestFirst().SetLimit(10)); err != nil {
		return nil, err
	}
	return stats, nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
}
