package service

import (
	"context"
	"time"

	"github.com/example/foodhub/pkg/cart"
	"github.com/example/foodhub/pkg/coupon"
	"github.com/example/foodhub/pkg/events"
	"github.com/example/foodhub/pkg/models"
	"github.com/example/foodhub/pkg/order"
	"github.com/example/foodhub/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The interfaces below are what the services need from storage. The
// repository package provides the production implementations.

type CartStore interface {
	Get(ctx context.Context, userID string) (*cart.Cart, error)
	Save(ctx context.Context, c *cart.Cart) error
}

type MenuItemLookup interface {
	GetFoodItem(ctx context.Context, id primitive.ObjectID) (*models.FoodItem, error)
}

type RestaurantLookup interface {
	GetRestaurant(ctx context.Context, id primitive.ObjectID) (*models.Restaurant, error)
}

type CouponStore interface {
	Create(ctx context.Context, c *coupon.Coupon) error
	Get(ctx context.Context, id primitive.ObjectID) (*coupon.Coupon, error)
	GetByCode(ctx context.Context, code string) (*coupon.Coupon, error)
	List(ctx context.Context, active *bool) ([]*coupon.Coupon, error)
	ListAvailable(ctx context.Context, now time.Time) ([]*coupon.Coupon, error)
	Update(ctx context.Context, c *coupon.Coupon) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type OrderStore interface {
	PlaceOrder(ctx context.Context, o *order.Order, cleared *cart.Cart, couponID primitive.ObjectID) error
	Get(ctx context.Context, id primitive.ObjectID) (*order.Order, error)
	SaveProgress(ctx context.Context, o *order.Order, prev int) error
	ListByUser(ctx context.Context, userID string) ([]*order.Order, error)
	ListByDeliveryPartner(ctx context.Context, partnerID string) ([]*order.Order, error)
	List(ctx context.Context, f repository.OrderFilter) ([]*order.Order, error)
	Stats(ctx context.Context) (*repository.OrderStats, error)
}

type CatalogStore interface {
	MenuItemLookup
	RestaurantLookup
	CreateRestaurant(ctx context.Context, r *models.Restaurant) error
	ListRestaurants(ctx context.Context, f models.RestaurantFilter) ([]*models.Restaurant, error)
	UpdateRestaurant(ctx context.Context, r *models.Restaurant) error
	DeleteRestaurant(ctx context.Context, id primitive.ObjectID) error
	SetRestaurantRating(ctx context.Context, id primitive.ObjectID, s models.RatingSummary) error
	CreateFoodItem(ctx context.Context, f *models.FoodItem) error
	ListFoodItems(ctx context.Context, f models.FoodFilter) ([]*models.FoodItem, error)
	UpdateFoodItem(ctx context.Context, f *models.FoodItem) error
	DeleteFoodItem(ctx context.Context, id primitive.ObjectID) error
	SetFoodRating(ctx context.Context, id primitive.ObjectID, s models.RatingSummary) error
}

type ReviewStore interface {
	Create(ctx context.Context, rv *models.Review) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	List(ctx context.Context, f models.ReviewFilter) ([]*models.Review, error)
	Update(ctx context.Context, rv *models.Review) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Summary(ctx context.Context, target models.ReviewTarget, id primitive.ObjectID) (models.RatingSummary, error)
}

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, updates map[string]interface{}) error
	SetPasswordHash(ctx context.Context, id, hash string) error
	AddAddress(ctx context.Context, a *models.Address) error
	UpdateAddress(ctx context.Context, a *models.Address) error
	DeleteAddress(ctx context.Context, userID string, addressID uint) error
	List(ctx context.Context, role models.Role) ([]models.User, error)
}

// Cache is a JSON key/value cache. GetJSON returns repository.ErrCacheMiss
// for absent keys.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}) error
	Del(ctx context.Context, keys ...string) error
}

type AuditLogger interface {
	CreateAuditLog(ctx context.Context, log *repository.AuditLog) error
	AuditTrail(ctx context.Context, service, entityID string, limit int64) ([]*repository.AuditLog, error)
}

type Notifier interface {
	Notify(ev events.Event)
}

type NumberSource interface {
	Next(ctx context.Context) (string, error)
}
