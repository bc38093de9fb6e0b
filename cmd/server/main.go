package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/formpulse/survey-service/internal/cache"
	"github.com/formpulse/survey-service/internal/config"
	"github.com/formpulse/survey-service/internal/events"
	"github.com/formpulse/survey-service/internal/handlers"
	"github.com/formpulse/survey-service/internal/models"
	"github.com/formpulse/survey-service/internal/repositories/postgres"
	"github.com/formpulse/survey-service/internal/services"
	"github.com/formpulse/survey-service/internal/utils"
	"github.com/formpulse/survey-service/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment, cfg.LogLevel)
	slogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("database init failed", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(&models.Survey{}, &models.QuestionBank{}, &models.Response{}); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Redis is optional; without it repositories read straight from Postgres.
	var cacheService cache.CacheService
	if redisClient, err := pkg.NewRedisClient(cfg); err != nil {
		logger.Warn("redis unavailable, running without cache", "error", err)
	} else {
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient, slogger)
	}

	var publisher events.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err = events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: cfg.KafkaBrokers,
			TopicName:    cfg.EventTopic,
			Logger:       slogger,
		})
		if err != nil {
			logger.Error("kafka publisher init failed", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("no kafka brokers configured, events are recorded in memory only")
		publisher = events.NewMockEventPublisher(slogger)
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db, cacheService)
	validator := utils.NewValidator()
	serviceManager := services.NewServiceManager(repo, publisher, validator, slogger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(serviceManager, logger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
