package repository

import (
	"context"
	"fmt"

	"github.com/example/foodhub/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ReviewRepository struct {
	coll *mongo.Collection
}

func (m *MongoRepository) Reviews() *ReviewRepository {
	return &ReviewRepository{coll: m.collection(collReviews)}
}

// Create stores rv. A second review by the same user of the same target fails
// with ErrDuplicate.
func (r *ReviewRepository) Create(ctx context.Context, rv *models.Review) error {
	if rv.ID.IsZero() {
		rv.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, rv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("review: %w", ErrDuplicate)
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var rv models.Review
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rv); err != nil {
		return nil, notFound(err)
	}
	return &rv, nil
}

func (r *ReviewRepository) List(ctx context.Context, f models.ReviewFilter) ([]*models.Review, error) {
	q := bson.M{}
	if f.TargetType != "" {
		q["target_type"] = f.TargetType
	}
	if !f.TargetID.IsZero() {
		q["target"] = f.TargetID
	}
	if f.UserID != "" {
		q["user"] = f.UserID
	}
	return findAll[*models.Review](ctx, r.coll, q, newestFirst())
}

func (r *ReviewRepository) Update(ctx context.Context, rv *models.Review) error {
	return replaceByID(ctx, r.coll, rv.ID, rv)
}

func (r *ReviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.coll, id)
}

// Summary aggregates the average rating and review count of one target.
func (r *ReviewRepository) Summary(ctx context.Context, target models.ReviewTarget, id primitive.ObjectID) (models.RatingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "target_type", Value: target}, {Key: "target", Value: id}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "average", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return models.RatingSummary{}, fmt.Errorf("aggregate reviews: %w", err)
	}
	var rows []struct {
		Average float64 `bson:"average"`
		Count   int     `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return models.RatingSummary{}, err
	}
	if len(rows) == 0 {
		return models.RatingSummary{}, nil
	}
	return models.RatingSummary{Average: rows[0].Average, Count: rows[0].Count}, nil
}
