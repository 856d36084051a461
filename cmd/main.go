package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/config"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/geocoding"
	v1 "github.com/Saulolucena27/backend-Pi-Bombeiro/internal/handler/http/v1"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/realtime"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/repository"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/service"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/pkg/logger"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/pkg/postgres"
	redisclient "github.com/Saulolucena27/backend-Pi-Bombeiro/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/Saulolucena27/backend-Pi-Bombeiro/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Fire Brigade Occurrences API
// @version 1.0
// @description Occurrence lifecycle API for the fire brigade dispatch dashboard.
// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
		migrationURL = strings.Replace(migrationURL, "postgresql://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://"+cfg.MigrationsDir,
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel)

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запуск миграций
	if err := runMigrations(cfg, log); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Подключение к PostgreSQL
	dbpool, err := postgres.NewPostgresDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbpool.Close()
	log.Info("Successfully connected to PostgreSQL")

	// Инициализация Redis клиента
	redisClient, err := redisclient.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Info("Successfully connected to Redis")

	// Рассылка событий: pub/sub для SSE и очередь для вебхуков
	publisher := realtime.NewRedisPublisher(redisClient, cfg.RealtimeChannel, cfg.WebhookURL != "")
	notifier := realtime.NewNotifier(publisher, log, cfg.NotifyTimeout)

	hub := realtime.NewHub(redisClient, cfg.RealtimeChannel, log)
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		if err := hub.Run(ctx); err != nil {
			log.WithError(err).Error("Event hub stopped with error")
		}
	}()

	var webhookWorker *realtime.WebhookWorker
	if cfg.WebhookURL != "" {
		webhookWorker = realtime.NewWebhookWorker(redisClient, log, cfg)
		webhookWorker.Start(ctx)
	}

	// Инициализация репозиториев
	occurrenceRepo := repository.NewOccurrenceRepository(dbpool)
	historyRepo := repository.NewHistoryRepository(dbpool)
	auditRepo := repository.NewAuditRepository(dbpool)
	statsRepo := repository.NewStatsRepository(dbpool)
	occurrenceCache := repository.NewOccurrenceCache(redisClient, cfg.CacheTTL)
	txManager := repository.NewTxManager(dbpool)

	// Инициализация сервисов
	occurrenceService := service.NewOccurrenceService(
		occurrenceRepo,
		occurrenceCache,
		service.NewHistoryRecorder(historyRepo, log),
		auditRepo,
		txManager,
		geocoding.NewClient(cfg, log),
		service.NewStatsAggregator(statsRepo),
		notifier,
		log,
		cfg,
	)

	// Инициализация хэндлеров
	handler := v1.NewHandler(occurrenceService, hub.Handler(), log, cfg)

	// Настройка Gin роутера
	router := gin.New()
	router.Use(gin.Recovery(), v1.RequestLogger(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: !containsWildcard(cfg.CORSAllowedOrigins),
		MaxAge:           12 * time.Hour,
	}))
	api := router.Group("/api")
	handler.RegisterRoutes(api)

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Запуск HTTP-сервера
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	// SSE-соединения живут долго: закрываем их до остановки сервера
	hub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	// Дожидаемся отправки событий, поставленных последними запросами
	notifier.Wait()

	cancel()
	<-hubDone
	if webhookWorker != nil {
		<-webhookWorker.Done()
	}

	log.Info("Server gracefully stopped")
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
