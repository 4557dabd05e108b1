package service

import (
	"context"
	"errors"
	"time"

	"github.com/example/foodhub/pkg/models"
	"github.com/example/foodhub/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CatalogService manages restaurants and their menus. Single item reads go
// through the cache; every write drops the affected keys.
type CatalogService struct {
	store  CatalogStore
	cache  Cache
	logger *zap.Logger
	now    func() time.Time
}

func NewCatalogService(store CatalogStore, cache Cache, logger *zap.Logger) *CatalogService {
	return &CatalogService{store: store, cache: cache, logger: logger.Named("catalog"), now: time.Now}
}

func (s *CatalogService) CreateRestaurant(ctx context.Context, r *models.Restaurant) (*models.Restaurant, error) {
	now := s.now()
	r.ID = primitive.NilObjectID
	r.ApplyDefaults()
	r.IsActive = true
	r.Rating = 0
	r.TotalRatings = 0
	r.CreatedAt = now
	r.UpdatedAt = now
	if err := s.store.CreateRestaurant(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *CatalogService) ListRestaurants(ctx context.Context, f models.RestaurantFilter) ([]*models.Restaurant, error) {
	return s.store.ListRestaurants(ctx, f)
}

func (s *CatalogService) GetRestaurant(ctx context.Context, id primitive.ObjectID) (*models.Restaurant, error) {
	key := repository.RestaurantKey(id.Hex())
	var cached models.Restaurant
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	r, err := s.store.GetRestaurant(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Restaurant not found")
	}
	s.toCache(ctx, key, r)
	return r, nil
}

// UpdateRestaurant replaces the editable fields. Ratings are owned by reviews
// and are kept.
func (s *CatalogService) UpdateRestaurant(ctx context.Context, id primitive.ObjectID, in *models.Restaurant) (*models.Restaurant, error) {
	current, err := s.store.GetRestaurant(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Restaurant not found")
	}
	next := *in
	next.ID = current.ID
	next.Rating = current.Rating
	next.TotalRatings = current.TotalRatings
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.now()
	next.ApplyDefaults()

	if err := s.store.UpdateRestaurant(ctx, &next); err != nil {
		return nil, orNotFound(err, "Restaurant not found")
	}
	s.invalidate(ctx, repository.RestaurantKey(id.Hex()))
	return &next, nil
}

func (s *CatalogService) DeleteRestaurant(ctx context.Context, id primitive.ObjectID) error {
	if err := s.store.DeleteRestaurant(ctx, id); err != nil {
		return orNotFound(err, "Restaurant not found")
	}
	s.invalidate(ctx, repository.RestaurantKey(id.Hex()), repository.MenuKey(id.Hex()))
	return nil
}

func (s *CatalogService) ToggleRestaurantStatus(ctx context.Context, id primitive.ObjectID) (*models.Restaurant, error) {
	r, err := s.store.GetRestaurant(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Restaurant not found")
	}
	r.IsActive = !r.IsActive
	r.UpdatedAt = s.now()
	if err := s.store.UpdateRestaurant(ctx, r); err != nil {
		return nil, orNotFound(err, "Restaurant not found")
	}
	s.invalidate(ctx, repository.RestaurantKey(id.Hex()))
	return r, nil
}

func (s *CatalogService) CreateFoodItem(ctx context.Context, f *models.FoodItem) (*models.FoodItem, error) {
	if err := f.Validate(); err != nil {
		return nil, invalidInput(err.Error())
	}
	if _, err := s.store.GetRestaurant(ctx, f.RestaurantID); err != nil {
		return nil, orNotFound(err, "Restaurant not found")
	}

	now := s.now()
	f.ID = primitive.NilObjectID
	f.IsAvailable = true
	f.Rating = 0
	f.TotalRatings = 0
	if f.PreparationTime == "" {
		f.PreparationTime = "15-20 mins"
	}
	f.CreatedAt = now
	f.UpdatedAt = now
	if err := s.store.CreateFoodItem(ctx, f); err != nil {
		return nil, err
	}
	s.invalidate(ctx, repository.MenuKey(f.RestaurantID.Hex()))
	return f, nil
}

func (s *CatalogService) ListFoodItems(ctx context.Context, f models.FoodFilter) ([]*models.FoodItem, error) {
	return s.store.ListFoodItems(ctx, f)
}

func (s *CatalogService) GetFoodItem(ctx context.Context, id primitive.ObjectID) (*models.FoodItem, error) {
	key := repository.FoodItemKey(id.Hex())
	var cached models.FoodItem
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	f, err := s.store.GetFoodItem(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Food item not found")
	}
	s.toCache(ctx, key, f)
	return f, nil
}

func (s *CatalogService) UpdateFoodItem(ctx context.Context, id primitive.ObjectID, in *models.FoodItem) (*models.FoodItem, error) {
	current, err := s.store.GetFoodItem(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Food item not found")
	}
	next := *in
	next.ID = current.ID
	next.RestaurantID = current.RestaurantID
	next.Rating = current.Rating
	next.TotalRatings = current.TotalRatings
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.now()
	if err := next.Validate(); err != nil {
		return nil, invalidInput(err.Error())
	}

	if err := s.store.UpdateFoodItem(ctx, &next); err != nil {
		return nil, orNotFound(err, "Food item not found")
	}
	s.invalidateFood(ctx, &next)
	return &next, nil
}

func (s *CatalogService) DeleteFoodItem(ctx context.Context, id primitive.ObjectID) error {
	current, err := s.store.GetFoodItem(ctx, id)
	if err != nil {
		return orNotFound(err, "Food item not found")
	}
	if err := s.store.DeleteFoodItem(ctx, id); err != nil {
		return orNotFound(err, "Food item not found")
	}
	s.invalidateFood(ctx, current)
	return nil
}

func (s *CatalogService) ToggleAvailability(ctx context.Context, id primitive.ObjectID) (*models.FoodItem, error) {
	f, err := s.store.GetFoodItem(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Food item not found")
	}
	f.IsAvailable = !f.IsAvailable
	f.UpdatedAt = s.now()
	if err := s.store.UpdateFoodItem(ctx, f); err != nil {
		return nil, orNotFound(err, "Food item not found")
	}
	s.invalidateFood(ctx, f)
	return f, nil
}

// Menu groups the available items of a restaurant by category.
func (s *CatalogService) Menu(ctx context.Context, restaurantID primitive.ObjectID) (map[string][]*models.FoodItem, error) {
	key := repository.MenuKey(restaurantID.Hex())
	var cached map[string][]*models.FoodItem
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	available := true
	items, err := s.store.ListFoodItems(ctx, models.FoodFilter{RestaurantID: restaurantID, Available: &available})
	if err != nil {
		return nil, err
	}
	menu := make(map[string][]*models.FoodItem)
	for _, item := range items {
		menu[item.Category] = append(menu[item.Category], item)
	}
	s.toCache(ctx, key, menu)
	return menu, nil
}

// ApplyRating stores the review aggregate on the reviewed restaurant or item.
func (s *CatalogService) ApplyRating(ctx context.Context, target models.ReviewTarget, id primitive.ObjectID, summary models.RatingSummary) error {
	switch target {
	case models.ReviewRestaurant:
		if err := s.store.SetRestaurantRating(ctx, id, summary); err != nil {
			return err
		}
		s.invalidate(ctx, repository.RestaurantKey(id.Hex()))
	case models.ReviewFood:
		if err := s.store.SetFoodRating(ctx, id, summary); err != nil {
			return err
		}
		s.invalidate(ctx, repository.FoodItemKey(id.Hex()))
	}
	return nil
}

func (s *CatalogService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	err := s.cache.GetJSON(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *CatalogService) toCache(ctx context.Context, key string, value interface{}) {
	if err := s.cache.SetJSON(ctx, key, value); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *CatalogService) invalidateFood(ctx context.Context, f *models.FoodItem) {
	s.invalidate(ctx, repository.FoodItemKey(f.ID.Hex()), repository.MenuKey(f.RestaurantID.Hex()))
}

func (s *CatalogService) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.logger.Warn("Cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
