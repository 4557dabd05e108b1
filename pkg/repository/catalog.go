package repository

import (
	"context"
	"fmt"
	"regexp"

	"github.com/example/foodhub/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CatalogRepository struct {
	restaurants *mongo.Collection
	food        *mongo.Collection
}

func (m *MongoRepository) Catalog() *CatalogRepository {
	return &CatalogRepository{
		restaurants: m.collection(collRestaurants),
		food:        m.collection(collFoodItems),
	}
}

func contains(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func restaurantQuery(f models.RestaurantFilter) bson.M {
	q := bson.M{}
	if f.Search != "" {
		q["$or"] = bson.A{
			bson.M{"name": contains(f.Search)},
			bson.M{"description": contains(f.Search)},
			bson.M{"cuisine": contains(f.Search)},
		}
	}
	if len(f.Categories) > 0 {
		q["categories"] = bson.M{"$in": f.Categories}
	}
	if f.MinRating > 0 {
		q["rating"] = bson.M{"$gte": f.MinRating}
	}
	if f.City != "" {
		q["address.city"] = contains(f.City)
	}
	if f.Active != nil {
		q["is_active"] = *f.Active
	}
	return q
}

func foodQuery(f models.FoodFilter) bson.M {
	q := bson.M{}
	if !f.RestaurantID.IsZero() {
		q["restaurant"] = f.RestaurantID
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if len(f.FoodTypes) > 0 {
		q["food_type"] = bson.M{"$in": f.FoodTypes}
	}
	if f.Search != "" {
		q["$or"] = bson.A{
			bson.M{"name": contains(f.Search)},
			bson.M{"description": contains(f.Search)},
		}
	}
	if f.Available != nil {
		q["is_available"] = *f.Available
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		q["price"] = price
	}
	return q
}

func (r *CatalogRepository) CreateRestaurant(ctx context.Context, rest *models.Restaurant) error {
	if rest.ID.IsZero() {
		rest.ID = primitive.NewObjectID()
	}
	if _, err := r.restaurants.InsertOne(ctx, rest); err != nil {
		return fmt.Errorf("insert restaurant: %w", err)
	}
	return nil
}

func (r *CatalogRepository) GetRestaurant(ctx context.Context, id primitive.ObjectID) (*models.Restaurant, error) {
	var rest models.Restaurant
	if err := r.restaurants.FindOne(ctx, bson.M{"_id": id}).Decode(&rest); err != nil {
		return nil, notFound(err)
	}
	return &rest, nil
}

func (r *CatalogRepository) ListRestaurants(ctx context.Context, f models.RestaurantFilter) ([]*models.Restaurant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "created_at", Value: -1}})
	return findAll[*models.Restaurant](ctx, r.restaurants, restaurantQuery(f), opts)
}

func (r *CatalogRepository) UpdateRestaurant(ctx context.Context, rest *models.Restaurant) error {
	return replaceByID(ctx, r.restaurants, rest.ID, rest)
}

// DeleteRestaurant removes the restaurant and its menu.
func (r *CatalogRepository) DeleteRestaurant(ctx context.Context, id primitive.ObjectID) error {
	if err := deleteByID(ctx, r.restaurants, id); err != nil {
		return err
	}
	if _, err := r.food.DeleteMany(ctx, bson.M{"restaurant": id}); err != nil {
		return fmt.Errorf("delete menu: %w", err)
	}
	return nil
}

func (r *CatalogRepository) SetRestaurantRating(ctx context.Context, id primitive.ObjectID, s models.RatingSummary) error {
	return setRating(ctx, r.restaurants, id, s)
}

func (r *CatalogRepository) CreateFoodItem(ctx context.Context, item *models.FoodItem) error {
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	if _, err := r.food.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("insert food item: %w", err)
	}
	return nil
}

func (r *CatalogRepository) GetFoodItem(ctx context.Context, id primitive.ObjectID) (*models.FoodItem, error) {
	var item models.FoodItem
	if err := r.food.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (r *CatalogRepository) ListFoodItems(ctx context.Context, f models.FoodFilter) ([]*models.FoodItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}})
	return findAll[*models.FoodItem](ctx, r.food, foodQuery(f), opts)
}

func (r *CatalogRepository) UpdateFoodItem(ctx context.Context, item *models.FoodItem) error {
	return replaceByID(ctx, r.food, item.ID, item)
}

func (r *CatalogRepository) DeleteFoodItem(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.food, id)
}

func (r *CatalogRepository) SetFoodRating(ctx context.Context, id primitive.ObjectID, s models.RatingSummary) error {
	return setRating(ctx, r.food, id, s)
}

func replaceByID(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, doc interface{}) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return fmt.Errorf("replace %s: %w", coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func setRating(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, s models.RatingSummary) error {
	update := bson.M{"$set": bson.M{"rating": s.Average, "total_ratings": s.Count}}
	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update rating in %s: %w", coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
