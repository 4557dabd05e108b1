// Command seed loads a small demo catalog, a few coupons and an admin account.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/example/foodhub/pkg/cart"
	"github.com/example/foodhub/pkg/config"
	"github.com/example/foodhub/pkg/coupon"
	"github.com/example/foodhub/pkg/logger"
	"github.com/example/foodhub/pkg/models"
	"github.com/example/foodhub/pkg/repository"
	"github.com/example/foodhub/pkg/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type demoRestaurant struct {
	restaurant models.Restaurant
	items      []models.FoodItem
}

var demo = []demoRestaurant{
	{
		restaurant: models.Restaurant{
			Name:           "Napoli Express",
			Description:    "Wood fired pizza and fresh pasta",
			Address:        models.Location{Street: "12 Market St", City: "Springfield", State: "IL", ZipCode: "62701"},
			Cuisine:        []string{"italian"},
			Categories:     []string{"pizza", "pasta"},
			MinOrderAmount: 10,
			DeliveryFee:    2.99,
		},
		items: []models.FoodItem{
			{
				Name: "Margherita", Price: 9.5, Category: "main-course", FoodType: "veg", PreparationTime: "15 mins",
				Customizations: []models.CustomizationGroup{
					{Name: "Size", Options: []cart.Option{{Label: "Regular", Price: 0}, {Label: "Large", Price: 3}}},
					{Name: "Crust", Options: []cart.Option{{Label: "Classic", Price: 0}, {Label: "Stuffed", Price: 1.5}}},
				},
			},
			{Name: "Pepperoni", Price: 11, Category: "main-course", FoodType: "non-veg", PreparationTime: "15 mins"},
			{Name: "Garlic Bread", Price: 4.25, Category: "starters", FoodType: "veg", PreparationTime: "8 mins"},
			{Name: "Tiramisu", Price: 5.75, Category: "desserts", FoodType: "egg", PreparationTime: "5 mins"},
		},
	},
	{
		restaurant: models.Restaurant{
			Name:           "Green Bowl",
			Description:    "Salads, bowls and cold pressed juice",
			Address:        models.Location{Street: "48 Oak Ave", City: "Springfield", State: "IL", ZipCode: "62704"},
			Cuisine:        []string{"healthy"},
			Categories:     []string{"salads", "bowls"},
			MinOrderAmount: 8,
			DeliveryFee:    1.5,
		},
		items: []models.FoodItem{
			{Name: "Falafel Bowl", Price: 10.5, Category: "main-course", FoodType: "vegan", PreparationTime: "10 mins"},
			{Name: "Chicken Caesar", Price: 11.25, Category: "main-course", FoodType: "non-veg", PreparationTime: "10 mins"},
			{
				Name: "Orange Juice", Price: 3.5, Category: "drinks", FoodType: "vegan", PreparationTime: "3 mins",
				Customizations: []models.CustomizationGroup{
					{Name: "Size", Options: []cart.Option{{Label: "Small", Price: 0}, {Label: "Large", Price: 1.25}}},
				},
			},
		},
	},
}

func demoCoupons(now time.Time) []coupon.Coupon {
	return []coupon.Coupon{
		{
			Code: "WELCOME10", Description: "10% off your order", DiscountType: coupon.Percentage, DiscountValue: 10,
			MinOrderAmount: 15, MaxDiscount: 5, ValidFrom: now, ValidUntil: now.AddDate(0, 3, 0), UsageLimit: 1000,
		},
		{
			Code: "FLAT5", Description: "5 off orders over 30", DiscountType: coupon.Flat, DiscountValue: 5,
			MinOrderAmount: 30, ValidFrom: now, ValidUntil: now.AddDate(0, 1, 0),
		},
	}
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config")
	adminEmail := flag.String("admin-email", "admin@foodhub.local", "email of the seeded admin")
	adminPassword := flag.String("admin-password", "admin123", "password of the seeded admin")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoRepo.Close(context.Background())
	if err := mongoRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal("Failed to create indexes", zap.Error(err))
	}

	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	defer redisRepo.Close()

	users, err := repository.NewUserRepository(&cfg.MySQL)
	if err != nil {
		log.Fatal("Failed to connect to MySQL", zap.Error(err))
	}
	defer users.Close()

	if err := seedAdmin(ctx, users, *adminEmail, *adminPassword); err != nil {
		log.Fatal("Failed to seed admin", zap.Error(err))
	}
	log.Info("Admin ready", zap.String("email", *adminEmail))

	catalog := service.NewCatalogService(mongoRepo.Catalog(), redisRepo, log)
	for _, d := range demo {
		r := d.restaurant
		created, err := catalog.CreateRestaurant(ctx, &r)
		if err != nil {
			log.Fatal("Failed to create restaurant", zap.String("name", r.Name), zap.Error(err))
		}
		for _, item := range d.items {
			item := item
			item.RestaurantID = created.ID
			if _, err := catalog.CreateFoodItem(ctx, &item); err != nil {
				log.Fatal("Failed to create food item", zap.String("name", item.Name), zap.Error(err))
			}
		}
		log.Info("Seeded restaurant", zap.String("name", created.Name), zap.Int("items", len(d.items)))
	}

	coupons := service.NewCouponService(mongoRepo.Coupons(), log)
	for _, c := range demoCoupons(time.Now().UTC()) {
		c := c
		if _, err := coupons.Create(ctx, &c); err != nil {
			if errors.Is(err, service.ErrAlreadyExists) {
				log.Info("Coupon already present", zap.String("code", c.Code))
				continue
			}
			log.Fatal("Failed to create coupon", zap.String("code", c.Code), zap.Error(err))
		}
		log.Info("Seeded coupon", zap.String("code", c.Code))
	}
}

// seedAdmin writes the admin account directly; self-registration never grants
// the admin role.
func seedAdmin(ctx context.Context, users *repository.UserRepository, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	err = users.Create(ctx, &models.User{
		ID:           uuid.NewString(),
		Name:         "Administrator",
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil
	}
	return err
}
