package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sms-marks-api/internal/config"
	"github.com/noah-isme/sms-marks-api/internal/database"
	"github.com/noah-isme/sms-marks-api/internal/handler"
	"github.com/noah-isme/sms-marks-api/internal/middleware"
	"github.com/noah-isme/sms-marks-api/internal/models"
	"github.com/noah-isme/sms-marks-api/internal/repository"
	"github.com/noah-isme/sms-marks-api/internal/router"
	"github.com/noah-isme/sms-marks-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Student{}, &models.Class{}, &models.Subject{}, &models.Mark{}, &models.Notification{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		// Notification fanout degrades to redis-only when NATS is absent.
		logger.Warn().Err(err).Msg("nats unavailable, continuing without it")
		natsConn = nil
	} else {
		defer natsConn.Drain()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	markRepo := repository.NewMarkRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.NotificationChannelBase, natsConn, validate, logger)
	entryService := service.NewMarkEntryService(markRepo, validate, redisClient, logger)
	publicationService := service.NewPublicationService(markRepo, notificationService, redisClient, logger)
	resultService := service.NewResultService(markRepo, redisClient, cfg.StatsCacheTTL, logger)
	rosterService := service.NewRosterService(rosterRepo, markRepo, logger)

	markHandler := handler.NewMarkHandler(entryService, publicationService, resultService, validate, logger)
	resultHandler := handler.NewResultHandler(resultService, rosterRepo, logger)
	rosterHandler := handler.NewRosterHandler(rosterService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger, cfg.SSEKeepAlive)

	runCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()
	notificationService.Start(runCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		MarkHandler:         markHandler,
		ResultHandler:       resultHandler,
		RosterHandler:       rosterHandler,
		NotificationHandler: notificationHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
