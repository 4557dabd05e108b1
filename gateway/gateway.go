package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/example/foodhub/pkg/config"
	"github.com/example/foodhub/pkg/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

type Gateway struct {
	config   *config.ServerConfig
	services Services
	logger   *zap.Logger
	router   *gin.Engine
}

func NewGateway(cfg *config.ServerConfig, services Services, logger *zap.Logger) *Gateway {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(loggerMiddleware(logger))
	router.Use(corsMiddleware(cfg.CORSOrigins))

	g := &Gateway{
		config:   cfg,
		services: services,
		logger:   logger,
		router:   router,
	}
	g.SetupRoutes()
	return g
}

func (g *Gateway) SetupRoutes() {
	g.router.GET("/health", g.health)

	api := g.router.Group("/api")
	authn := authenticate(g.services.Tokens)
	admin := authorize(models.RoleAdmin)

	auth := api.Group("/auth")
	{
		auth.POST("/register", g.register)
		auth.POST("/login", g.login)
		auth.POST("/logout", g.logout)
		auth.POST("/refresh-token", g.refreshToken)
		auth.GET("/me", authn, g.me)
		auth.PUT("/profile", authn, g.updateProfile)
		auth.PUT("/change-password", authn, g.changePassword)
		auth.POST("/addresses", authn, g.addAddress)
		auth.PUT("/addresses/:addressId", authn, g.updateAddress)
		auth.DELETE("/addresses/:addressId", authn, g.deleteAddress)
		auth.GET("/users", authn, admin, g.listUsers)
	}

	restaurants := api.Group("/restaurants")
	{
		restaurants.GET("", g.listRestaurants)
		restaurants.POST("", authn, admin, g.createRestaurant)
		restaurants.GET("/:id", g.getRestaurant)
		restaurants.PUT("/:id", authn, admin, g.updateRestaurant)
		restaurants.DELETE("/:id", authn, admin, g.deleteRestaurant)
		restaurants.PUT("/:id/toggle-status", authn, admin, g.toggleRestaurantStatus)
	}

	food := api.Group("/food")
	{
		food.GET("", g.listFoodItems)
		food.POST("", authn, admin, g.createFoodItem)
		food.GET("/menu/:restaurantId", g.menu)
		food.GET("/:id", g.getFoodItem)
		food.PUT("/:id", authn, admin, g.updateFoodItem)
		food.DELETE("/:id", authn, admin, g.deleteFoodItem)
		food.PUT("/:id/toggle-availability", authn, admin, g.toggleAvailability)
	}

	carts := api.Group("/cart", authn)
	{
		carts.GET("", g.getCart)
		carts.POST("", g.addToCart)
		carts.DELETE("", g.clearCart)
		carts.PUT("/items/:itemId", g.updateCartItem)
		carts.DELETE("/items/:itemId", g.removeFromCart)
		carts.POST("/apply-coupon", g.applyCoupon)
		carts.DELETE("/remove-coupon", g.removeCoupon)
	}

	orders := api.Group("/orders", authn)
	{
		orders.GET("", admin, g.listOrders)
		orders.POST("", g.createOrder)
		orders.GET("/my-orders", g.myOrders)
		orders.GET("/stats", admin, g.orderStats)
		orders.GET("/delivery", authorize(models.RoleDelivery), g.deliveryOrders)
		orders.GET("/:id", g.getOrder)
		orders.PUT("/:id/status", authorize(models.RoleAdmin, models.RoleDelivery), g.updateOrderStatus)
		orders.PUT("/:id/cancel", g.cancelOrder)
		orders.PUT("/:id/assign", admin, g.assignDeliveryPartner)
		orders.GET("/:id/audit", admin, g.orderAudit)
	}

	coupons := api.Group("/coupons")
	{
		coupons.GET("/active", g.activeCoupons)
		coupons.POST("/validate", authn, g.validateCoupon)
		coupons.GET("", authn, admin, g.listCoupons)
		coupons.POST("", authn, admin, g.createCoupon)
		coupons.GET("/:id", authn, admin, g.getCoupon)
		coupons.PUT("/:id", authn, admin, g.updateCoupon)
		coupons.DELETE("/:id", authn, admin, g.deleteCoupon)
		coupons.PUT("/:id/toggle-status", authn, admin, g.toggleCouponStatus)
	}

	reviews := api.Group("/reviews")
	{
		reviews.GET("", g.listReviews)
		reviews.GET("/my-reviews", authn, g.myReviews)
		reviews.POST("", authn, g.createReview)
		reviews.PUT("/:id", authn, g.updateReview)
		reviews.DELETE("/:id", authn, g.deleteReview)
	}
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

// Server returns the HTTP server for the gateway; the caller owns its lifecycle.
func (g *Gateway) Server() *http.Server {
	return &http.Server{
		Addr:         g.config.Addr(),
		Handler:      g.router,
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}
}

// health pings every registered dependency and reports 503 if any is down.
func (g *Gateway) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	checks := make(gin.H, len(g.services.Health))
	for name, p := range g.services.Health {
		if err := p.Ping(ctx); err != nil {
			g.logger.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "up"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status":    state,
		"services":  checks,
		"timestamp": time.Now().UTC(),
	})
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
