package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/yourusername/training-api/internal/config"
	"github.com/yourusername/training-api/internal/handler"
	"github.com/yourusername/training-api/internal/middleware"
	"github.com/yourusername/training-api/internal/pkg/logger"
	pgRepo "github.com/yourusername/training-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/training-api/internal/repository/redis"
	"github.com/yourusername/training-api/internal/service"
	"github.com/yourusername/training-api/internal/service/watchgate"
	"github.com/yourusername/training-api/pkg/auth"
	"github.com/yourusername/training-api/pkg/database"
	"github.com/yourusername/training-api/pkg/storage"
)

func main() {
	// .env нужен только для локального запуска
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	appLog, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Printf("Failed to init logger: %v", err)
		os.Exit(1)
	}
	defer appLog.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), cfg.Database.LogSQL)
	if err != nil {
		appLog.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.MigrateDB(db, appLog); err != nil {
		appLog.Fatal("Failed to migrate database", "error", err)
	}

	redisClient, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
	if err != nil {
		appLog.Fatal("Failed to connect to Redis", "error", err)
	}
	defer redisClient.Close()
	appLog.Info("Successfully connected to Redis", "mode", cfg.Redis.Mode)

	presigner, closeStorage, err := newPresigner(ctx, cfg.Storage)
	if err != nil {
		appLog.Fatal("Failed to init object storage", "provider", cfg.Storage.Provider, "error", err)
	}
	defer closeStorage()

	// Репозитории
	userRepo := pgRepo.NewUserRepo(db)
	moduleRepo := pgRepo.NewModuleRepo(db)
	videoRepo := pgRepo.NewVideoRepo(db)
	examRepo := pgRepo.NewExamRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	progressRepo := pgRepo.NewProgressRepo(db)
	attemptRepo := pgRepo.NewAttemptRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		appLog.Fatal("Failed to initialize CacheRepo", "error", err)
	}

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs, cacheRepo)
	if err != nil {
		appLog.Fatal("Failed to initialize JWTService", "error", err)
	}

	// Сервисы
	rules := watchgate.Config{
		CompletionThreshold: cfg.Training.CompletionThreshold,
		SeekTolerance:       cfg.Training.SeekToleranceSeconds,
		PlaybackTolerance:   cfg.Training.PlaybackToleranceSeconds,
		MaxPlaybackRate:     cfg.Training.MaxPlaybackRate,
		CheckpointSeconds:   cfg.Training.CheckpointSeconds,
	}

	authService := service.NewAuthService(userRepo, jwtService, appLog)
	mediaService := service.NewMediaService(presigner, cfg.Storage.UploadExpiry, cfg.Storage.PlaybackExpiry, appLog)
	catalogService := service.NewCatalogService(moduleRepo, videoRepo, examRepo, questionRepo, cacheRepo, presigner, service.CatalogConfig{
		DefaultPassingScore:   cfg.Training.DefaultPassingScore,
		DefaultExamMinutes:    cfg.Training.DefaultExamMinutes,
		DefaultQuestionPoints: cfg.Training.DefaultQuestionPoints,
		CacheTTL:              cfg.Training.CatalogCacheTTL,
	}, appLog)
	progressService := service.NewProgressService(progressRepo, videoRepo, appLog)
	examService := service.NewExamService(examRepo, questionRepo, attemptRepo, appLog)
	trainingService := service.NewTrainingService(
		catalogService, progressService, examService, mediaService,
		examRepo, cacheRepo, rules, cfg.Training.PositionTTL, appLog,
	)

	if err := authService.EnsureBootstrapAdmin(ctx, cfg.Auth.BootstrapTCNo, cfg.Auth.BootstrapPassword, cfg.Auth.BootstrapFullName); err != nil {
		appLog.Fatal("Failed to create bootstrap admin", "error", err)
	}

	isProduction := gin.Mode() == gin.ReleaseMode
	// В production прокси-заголовкам не доверяем
	var trustedProxies []string
	if !isProduction {
		trustedProxies = []string{"127.0.0.1", "::1"}
	}

	router, err := handler.NewRouter(handler.RouterConfig{
		Auth:           handler.NewAuthHandler(authService, appLog),
		Training:       handler.NewTrainingHandler(trainingService, progressService, appLog),
		Exam:           handler.NewExamHandler(examService, appLog),
		Admin:          handler.NewAdminHandler(catalogService, examService, mediaService, authService, cfg.Training.MaxImportFileSizeBytes, appLog),
		AuthMiddleware: middleware.NewAuthMiddleware(jwtService, appLog),
		RateLimiter:    middleware.NewRateLimiter(cacheRepo, appLog),
		LoginLimit: middleware.LoginRateLimitConfig(
			cfg.Auth.LoginRateLimit,
			time.Duration(cfg.Auth.LoginRateWindowSec)*time.Second,
		),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TrustedProxies: trustedProxies,
	})
	if err != nil {
		appLog.Fatal("Failed to build router", "error", err)
	}

	// Тайм-ауты защищают от медленных клиентов
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		appLog.Info("Starting server", "port", cfg.Server.Port, "storage", presigner.Provider())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server forced to shutdown", "error", err)
		return
	}

	appLog.Info("Server exited properly")
}

// newPresigner создает клиент хранилища по storage.provider
func newPresigner(ctx context.Context, cfg config.StorageConfig) (storage.Presigner, func(), error) {
	switch cfg.Provider {
	case "s3":
		p, err := storage.NewS3Presigner(ctx, storage.S3Config{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Endpoint:        cfg.Endpoint,
		})
		if err != nil {
			return nil, nil, err
		}
		return p, func() {}, nil
	case "gcs":
		p, err := storage.NewGCSPresigner(ctx, storage.GCSConfig{
			Bucket:          cfg.Bucket,
			CredentialsFile: cfg.CredentialsFile,
		})
		if err != nil {
			return nil, nil, err
		}
		return p, func() { _ = p.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}
