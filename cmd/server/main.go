package main // Entry point package

import (
	"context"
	"errors"
	"log" // used only before the zap logger exists
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4" // Echo web framework
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/config"   // Internal config loader
	"github.com/iliyamo/cinema-booking/internal/database" // MySQL pool and migrations
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/router" // Internal router setup
	"github.com/iliyamo/cinema-booking/internal/service"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load() // Load environment config

	zlog, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	})
	if err != nil {
		zlog.Fatal("connect database", zap.Error(err))
	}
	defer db.Close()
	if cfg.MigrateOnStart {
		if err := database.Migrate(db, cfg.DBName); err != nil {
			zlog.Fatal("migrate database", zap.Error(err))
		}
	}

	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()
	redisCfg := config.LoadRedisConfig()
	rdb := config.NewRedisClient(redisCfg)
	if rdb == nil {
		zlog.Warn("redis unreachable, rate limiting and response cache disabled", zap.String("addr", redisCfg.Addr))
	} else {
		defer rdb.Close()
	}

	queueCfg := config.LoadQueueConfig()
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	if queueCfg.ConsumerEnabled {
		consumer := queue.NewConsumer(queueCfg, zlog)
		go func() {
			if err := consumer.Run(consumerCtx); err != nil && !errors.Is(err, context.Canceled) {
				zlog.Error("rewards consumer stopped", zap.Error(err))
			}
		}()
	}

	// Repositories
	screeningRepo := repository.NewScreeningRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	generationRepo := repository.NewSeatGenerationRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	concessionRepo := repository.NewConcessionRepo(db)

	// Services
	inventory := service.NewSeatInventory(db, seatRepo, generationRepo, screeningRepo, zlog)
	catalog := service.NewScreeningCatalog(db, screeningRepo, inventory, zlog)
	booking := service.NewBookingService(db, orderRepo, screeningRepo, concessionRepo, inventory, queue.NewPublisher(queueCfg), zlog)
	orders := service.NewOrderQueryService(orderRepo)

	// Handlers
	screeningHandler := handler.NewScreeningHandler(catalog, inventory, zlog)
	orderHandler := handler.NewOrderHandler(booking, orders, zlog)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(middleware.RequestID(), middleware.Logger(zlog))

	router.RegisterRoutes(e, db)
	router.RegisterPublic(e, screeningHandler, cacheCfg, rdb)
	router.RegisterCustomer(e, orderHandler, cfg.JWTSecret, rlCfg, cacheCfg, rdb, zlog)
	router.RegisterAdmin(e, screeningHandler, orderHandler, cfg.JWTSecret, cacheCfg, rdb)

	addr := ":" + cfg.Port // Address string with port
	go func() {
		zlog.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("http server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		zlog.Error("http shutdown", zap.Error(err))
	}
	// In-flight rewards notifications finish before the pool closes.
	booking.Wait()
	stopConsumer()
}
