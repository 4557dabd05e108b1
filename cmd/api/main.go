package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/foodhub/gateway"
	"github.com/example/foodhub/pkg/auth"
	"github.com/example/foodhub/pkg/config"
	"github.com/example/foodhub/pkg/discovery"
	"github.com/example/foodhub/pkg/events"
	grpcserver "github.com/example/foodhub/pkg/grpc"
	"github.com/example/foodhub/pkg/lock"
	"github.com/example/foodhub/pkg/logger"
	"github.com/example/foodhub/pkg/order"
	"github.com/example/foodhub/pkg/repository"
	"github.com/example/foodhub/pkg/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

var (
	_ gateway.AuthAPI    = (*service.AuthService)(nil)
	_ gateway.CatalogAPI = (*service.CatalogService)(nil)
	_ gateway.CartAPI    = (*service.CartService)(nil)
	_ gateway.OrderAPI   = (*service.OrderService)(nil)
	_ gateway.CouponAPI  = (*service.CouponService)(nil)
	_ gateway.ReviewAPI  = (*service.ReviewService)(nil)
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config")
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

	if err := run(cfg, log); err != nil {
		log.Fatal("API stopped with error", zap.Error(err))
	}
	log.Info("API stopped")
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("Starting FoodHub API",
		zap.String("name", cfg.Server.Name),
		zap.String("address", cfg.Server.Addr()))

	ctx := context.Background()

	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		return err
	}
	defer mongoRepo.Close(context.Background())
	if err := mongoRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	defer redisRepo.Close()
	if err := redisRepo.Ping(ctx); err != nil {
		log.Warn("Redis connection failed", zap.Error(err))
	} else {
		log.Info("Redis connected successfully")
	}

	users, err := repository.NewUserRepository(&cfg.MySQL)
	if err != nil {
		return err
	}
	defer users.Close()

	var locker lock.Locker
	switch cfg.Cart.LockBackend {
	case config.LockLocal:
		locker = lock.NewLocalLocker()
	default:
		locker = lock.NewRedisLocker(redisRepo.Client(), cfg.Cart.LockTTL, log)
	}

	var publisher events.Publisher = events.NewLogPublisher(log)
	if cfg.RabbitMQ.Enabled {
		rabbit, err := events.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return err
		}
		defer rabbit.Close()
		publisher = rabbit
	}
	notifier, err := events.NewNotifier(publisher, log)
	if err != nil {
		return fmt.Errorf("start notifier: %w", err)
	}

	tokens := auth.NewTokens(cfg.Auth)
	carts := mongoRepo.Carts()
	coupons := mongoRepo.Coupons()

	catalogSvc := service.NewCatalogService(mongoRepo.Catalog(), redisRepo, log)
	services := gateway.Services{
		Auth:    service.NewAuthService(users, tokens, log),
		Catalog: catalogSvc,
		Cart:    service.NewCartService(carts, catalogSvc, coupons, locker, log),
		Orders: service.NewOrderService(service.OrderDeps{
			Carts:    carts,
			Orders:   mongoRepo.Orders(),
			Coupons:  coupons,
			Users:    users,
			Numbers:  order.NewNumberGenerator(redisRepo.OrderSequence()),
			Locker:   locker,
			Notifier: notifier,
			Audit:    mongoRepo,
		}, log),
		Coupons: service.NewCouponService(coupons, log),
		Reviews: service.NewReviewService(mongoRepo.Reviews(), catalogSvc, log),
		Tokens:  tokens,
		Health: map[string]gateway.Pinger{
			"mongodb": mongoRepo,
			"redis":   redisRepo,
			"mysql":   users,
		},
	}

	gin.SetMode(gin.ReleaseMode)
	srv := gateway.NewGateway(&cfg.Server, services, log).Server()

	health := grpcserver.NewHealthServer(&cfg.GRPC, map[string]grpcserver.Prober{
		"mongodb": mongoRepo,
		"redis":   redisRepo,
	}, log)

	errCh := make(chan error, 2)
	go func() {
		log.Info("HTTP server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		if err := health.Start(); err != nil {
			errCh <- fmt.Errorf("grpc health server: %w", err)
		}
	}()

	var registry *discovery.Registry
	instance := discovery.Instance{Name: cfg.Server.Name, Host: cfg.Server.Host, Port: cfg.Server.Port}
	if cfg.Etcd.Enabled {
		registry, err = discovery.NewRegistry(&cfg.Etcd, log)
		if err != nil {
			log.Warn("Failed to connect to etcd, continuing without registration", zap.Error(err))
		} else if err := registry.Register(ctx, instance); err != nil {
			log.Warn("Failed to register instance", zap.Error(err))
		} else if peers, err := registry.Discover(ctx, instance.Name); err != nil {
			log.Warn("Failed to list registered instances", zap.Error(err))
		} else {
			log.Info("Instances registered", zap.String("name", instance.Name), zap.Int("count", len(peers)))
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if registry != nil {
		if err := registry.Deregister(shutdownCtx, instance); err != nil {
			log.Error("Failed to deregister instance", zap.Error(err))
		}
		registry.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", zap.Error(err))
	}
	health.Stop()
	if err := notifier.Close(shutdownCtx); err != nil {
		log.Error("Notifier drain failed", zap.Error(err))
	}

	return runErr
}
