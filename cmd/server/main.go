package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/example/authcore/internal/config"
	"github.com/example/authcore/internal/database"
	"github.com/example/authcore/internal/handlers"
	"github.com/example/authcore/internal/logging"
	"github.com/example/authcore/internal/notifier"
	"github.com/example/authcore/internal/routes"
	"github.com/example/authcore/internal/services"
	"github.com/example/authcore/internal/store"
	"github.com/example/authcore/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeBackend()

	hasher := utils.NewPasswordHasher(cfg.HashAlgorithm, cfg.BcryptCost)

	var mailer notifier.Notifier
	if cfg.SMTPEnabled() {
		mailer = notifier.NewSMTPNotifier(notifier.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.FromEmail,
		})
	} else {
		log.Warn(ctx, "SMTP not configured, emails will only be logged")
		mailer = notifier.NewLogNotifier(log.With("component", "notifier"))
	}

	authService := services.NewAuthService(services.AuthDeps{
		Users:    store.New(backend, hasher, nil),
		Hasher:   hasher,
		Tokens:   utils.NewTokenSigner(cfg.JWTSecret, nil),
		OTP:      utils.NewOTPGenerator(utils.DefaultOTPLength),
		Notifier: mailer,
		Logger:   log.With("component", "auth"),
	}, services.AuthConfig{
		SessionTTL:       cfg.TokenExpires,
		MagicLinkTTL:     cfg.MagicLinkTTL,
		MagicSessionTTL:  cfg.MagicSessionTTL,
		ResetTokenTTL:    cfg.ResetTokenTTL,
		MagicLinkBaseURL: cfg.MagicLinkBaseURL,
	})

	app := fiber.New(fiber.Config{
		AppName:      "Auth Backend",
		ErrorHandler: handlers.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, authService)

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error(context.Background(), "shutdown failed", "error", err)
		}
	}()

	log.Info(ctx, "starting server", "port", cfg.AppPort, "store", cfg.StoreDriver)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		return fmt.Errorf("fiber.Listen: %w", err)
	}
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config, log logging.Logger) (store.Backend, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return store.NewPostgresBackend(db), func() { _ = sqlDB.Close() }, nil

	case config.DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return store.NewRedisBackend(rdb, cfg.RedisPrefix), func() { _ = rdb.Close() }, nil

	default:
		log.Warn(ctx, "using in-memory store, data is lost on restart")
		return store.NewMemoryBackend(), func() {}, nil
	}
}
