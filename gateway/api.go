package gateway

import (
	"context"
	"time"

	"github.com/example/foodhub/pkg/cart"
	"github.com/example/foodhub/pkg/coupon"
	"github.com/example/foodhub/pkg/models"
	"github.com/example/foodhub/pkg/order"
	"github.com/example/foodhub/pkg/repository"
	"github.com/example/foodhub/pkg/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The interfaces below are what the handlers call. They are satisfied by the
// concrete services in pkg/service.

type AuthAPI interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.Session, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*service.Session, error)
	Me(ctx context.Context, actor models.Actor) (*models.User, error)
	UpdateProfile(ctx context.Context, actor models.Actor, name, phone string) (*models.User, error)
	ChangePassword(ctx context.Context, actor models.Actor, current, next string) (*service.Session, error)
	AddAddress(ctx context.Context, actor models.Actor, a models.Address) ([]models.Address, error)
	UpdateAddress(ctx context.Context, actor models.Actor, addressID uint, a models.Address) ([]models.Address, error)
	DeleteAddress(ctx context.Context, actor models.Actor, addressID uint) ([]models.Address, error)
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)
}

type CatalogAPI interface {
	CreateRestaurant(ctx context.Context, r *models.Restaurant) (*models.Restaurant, error)
	ListRestaurants(ctx context.Context, f models.RestaurantFilter) ([]*models.Restaurant, error)
	GetRestaurant(ctx context.Context, id primitive.ObjectID) (*models.Restaurant, error)
	UpdateRestaurant(ctx context.Context, id primitive.ObjectID, r *models.Restaurant) (*models.Restaurant, error)
	DeleteRestaurant(ctx context.Context, id primitive.ObjectID) error
	ToggleRestaurantStatus(ctx context.Context, id primitive.ObjectID) (*models.Restaurant, error)
	CreateFoodItem(ctx context.Context, f *models.FoodItem) (*models.FoodItem, error)
	ListFoodItems(ctx context.Context, f models.FoodFilter) ([]*models.FoodItem, error)
	GetFoodItem(ctx context.Context, id primitive.ObjectID) (*models.FoodItem, error)
	UpdateFoodItem(ctx context.Context, id primitive.ObjectID, f *models.FoodItem) (*models.FoodItem, error)
	DeleteFoodItem(ctx context.Context, id primitive.ObjectID) error
	ToggleAvailability(ctx context.Context, id primitive.ObjectID) (*models.FoodItem, error)
	Menu(ctx context.Context, restaurantID primitive.ObjectID) (map[string][]*models.FoodItem, error)
}

type CartAPI interface {
	Get(ctx context.Context, actor models.Actor) (*cart.Cart, error)
	AddItem(ctx context.Context, actor models.Actor, in service.AddItemInput) (*cart.Cart, error)
	UpdateItem(ctx context.Context, actor models.Actor, lineID string, quantity int) (*cart.Cart, error)
	RemoveItem(ctx context.Context, actor models.Actor, lineID string) (*cart.Cart, error)
	Clear(ctx context.Context, actor models.Actor) (*cart.Cart, error)
	ApplyCoupon(ctx context.Context, actor models.Actor, code string) (*cart.Cart, error)
	RemoveCoupon(ctx context.Context, actor models.Actor) (*cart.Cart, error)
}

type OrderAPI interface {
	Checkout(ctx context.Context, actor models.Actor, in service.CheckoutInput) (*order.Order, error)
	Get(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*order.Order, error)
	ListMine(ctx context.Context, actor models.Actor) ([]*order.Order, error)
	ListAll(ctx context.Context, f repository.OrderFilter) ([]*order.Order, error)
	ListForDelivery(ctx context.Context, actor models.Actor) ([]*order.Order, error)
	UpdateStatus(ctx context.Context, actor models.Actor, id primitive.ObjectID, status order.Status, note string) (*order.Order, error)
	Cancel(ctx context.Context, actor models.Actor, id primitive.ObjectID, reason string) (*order.Order, error)
	AssignDeliveryPartner(ctx context.Context, actor models.Actor, id primitive.ObjectID, partnerID string) (*order.Order, error)
	Stats(ctx context.Context) (*repository.OrderStats, error)
	AuditTrail(ctx context.Context, id primitive.ObjectID) ([]*repository.AuditLog, error)
}

type CouponAPI interface {
	Create(ctx context.Context, c *coupon.Coupon) (*coupon.Coupon, error)
	List(ctx context.Context, active *bool) ([]*coupon.Coupon, error)
	ListAvailable(ctx context.Context) ([]*coupon.Coupon, error)
	Get(ctx context.Context, id primitive.ObjectID) (*coupon.Coupon, error)
	Update(ctx context.Context, id primitive.ObjectID, c *coupon.Coupon) (*coupon.Coupon, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ToggleStatus(ctx context.Context, id primitive.ObjectID) (*coupon.Coupon, error)
	Validate(ctx context.Context, code string, amount float64) (*service.Quote, error)
}

type ReviewAPI interface {
	Create(ctx context.Context, actor models.Actor, userName string, in service.ReviewInput) (*models.Review, error)
	List(ctx context.Context, f models.ReviewFilter) ([]*models.Review, error)
	ListMine(ctx context.Context, actor models.Actor) ([]*models.Review, error)
	Update(ctx context.Context, actor models.Actor, id primitive.ObjectID, rating int, comment string) (*models.Review, error)
	Delete(ctx context.Context, actor models.Actor, id primitive.ObjectID) error
}

type TokenParser interface {
	Parse(raw string) (models.Actor, error)
	TTL() time.Duration
}

// Pinger is a dependency reported by /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles everything the routes need.
type Services struct {
	Auth    AuthAPI
	Catalog CatalogAPI
	Cart    CartAPI
	Orders  OrderAPI
	Coupons CouponAPI
	Reviews ReviewAPI
	Tokens  TokenParser
	Health  map[string]Pinger
}
