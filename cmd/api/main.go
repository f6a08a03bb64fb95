package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/kursadbilgin/igdm-dispatch/internal/config"
	"github.com/kursadbilgin/igdm-dispatch/internal/handler"
	"github.com/kursadbilgin/igdm-dispatch/internal/infra/postgresql"
	"github.com/kursadbilgin/igdm-dispatch/internal/infra/postgresql/migrations"
	infraredis "github.com/kursadbilgin/igdm-dispatch/internal/infra/redis"
	"github.com/kursadbilgin/igdm-dispatch/internal/observability"
	"github.com/kursadbilgin/igdm-dispatch/internal/provider"
	"github.com/kursadbilgin/igdm-dispatch/internal/queue"
	"github.com/kursadbilgin/igdm-dispatch/internal/ratelimit"
	"github.com/kursadbilgin/igdm-dispatch/internal/repository"
	"github.com/kursadbilgin/igdm-dispatch/internal/service"
	"github.com/kursadbilgin/igdm-dispatch/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Error("igdm-dispatch api stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN, postgresql.DefaultPoolConfig())
	if err != nil {
		return fmt.Errorf("postgres initialization failed: %w", err)
	}

	if err := migrations.Migrate(db); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres underlying db init failed: %w", err)
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis initialization failed: %w", err)
	}
	defer rdb.Close()

	metrics := observability.NewMetrics()

	templateStore := repository.NewCachedTemplateStore(repository.NewGormTemplateRepo(db), cfg.TemplateCacheTTL())
	sendLogStore, err := repository.NewRedisSendLogRepo(rdb)
	if err != nil {
		return err
	}

	graphClient, err := provider.NewGraphClient(provider.GraphConfig{
		BaseURL:    cfg.GraphBaseURL,
		APIVersion: cfg.GraphAPIVersion,
		Defaults:   cfg.DefaultCredentials(),
		Timeout:    cfg.GraphTimeout(),
	})
	if err != nil {
		return fmt.Errorf("graph client initialization failed: %w", err)
	}

	var limiter ratelimit.RateLimiter
	if cfg.SendRateLimitPerSec > 0 {
		redisLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.SendRateLimitPerSec)
		if err != nil {
			return fmt.Errorf("rate limiter initialization failed: %w", err)
		}
		limiter = redisLimiter
	}

	dispatchService, err := service.NewDispatchService(graphClient, sendLogStore, limiter, logger)
	if err != nil {
		return err
	}
	dispatchService.SetMetrics(metrics)

	if cfg.RabbitMQURL != "" {
		broker, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("rabbitmq initialization failed: %w", err)
		}
		publisher := queue.NewRabbitMQPublisher(broker)
		defer publisher.Close()
		dispatchService.SetEventPublisher(publisher)
	}

	templateService, err := service.NewTemplateService(templateStore, logger)
	if err != nil {
		return err
	}
	if err := templateService.EnsureStarterTemplates(ctx); err != nil {
		return fmt.Errorf("starter template seeding failed: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               "igdm-dispatch",
		DisableStartupMessage: true,
		ErrorHandler:          transport.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(transport.RequestContext())
	app.Use(metrics.HTTPMiddleware())

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	handler.RegisterHealthRoutes(app, handler.PostgresCheck(sqlDB), handler.RedisCheck(rdb))
	if err := handler.RegisterDispatchRoutes(app, dispatchService); err != nil {
		return err
	}
	if err := handler.RegisterTemplateRoutes(app, templateService); err != nil {
		return err
	}
	if err := handler.RegisterSendLogRoutes(app, dispatchService); err != nil {
		return err
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("igdm-dispatch api started", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down igdm-dispatch api")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	return g.Wait()
}
