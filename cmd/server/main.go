package main

import (
	"os"

	"github.com/qitt/qitt-backend/cache"
	"github.com/qitt/qitt-backend/config"
	"github.com/qitt/qitt-backend/database"
	"github.com/qitt/qitt-backend/events"
	"github.com/qitt/qitt-backend/handler"
	"github.com/qitt/qitt-backend/models"
	"github.com/qitt/qitt-backend/pkg/logger"
	"github.com/qitt/qitt-backend/pkg/metrics"
	"github.com/qitt/qitt-backend/repository"
	"github.com/qitt/qitt-backend/router"
	"github.com/qitt/qitt-backend/service"
	"github.com/qitt/qitt-backend/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func autoMigrate(db *gorm.DB, log *zap.Logger) {
	if err := db.AutoMigrate(&models.User{}, &models.Material{}); err != nil {
		log.Fatal("auto migrate failed", zap.Error(err))
	}
}

func main() {
	cfg := config.LoadConfig()
	log := logger.New("qitt-backend")
	defer log.Sync()

	metrics.StartMetricsServer(cfg.Server.MetricsPort)
	log.Info("metrics server started", zap.String("port", cfg.Server.MetricsPort))

	db := database.InitDB(cfg)
	autoMigrate(db, log)

	var kv cache.KV
	if os.Getenv("REDIS_ADDR") != "" {
		kv = cache.NewRedisKV(cfg)
		log.Info("using redis cache", zap.String("addr", cfg.Redis.Addr))
	} else {
		kv = cache.NewMemoryKV()
		log.Warn("REDIS_ADDR not set, using in-process cache")
	}
	libCache := cache.NewLibraryCache(kv)

	userRepo := repository.NewUserRepository(db)
	materialRepo := repository.NewMaterialRepository(db)

	var store storage.ObjectStore
	if cfg.MinIO.Endpoint != "" {
		s, err := storage.NewMinioStore(cfg)
		if err != nil {
			log.Fatal("minio init failed", zap.Error(err))
		}
		store = s
	} else {
		// Uploads are rejected with a configuration error until storage is set.
		log.Warn("MINIO_ENDPOINT not set, uploads disabled")
	}

	var publisher events.Publisher
	if cfg.Kafka.Brokers != "" {
		publisher = events.NewKafkaPublisher(cfg)
		log.Info("kafka publisher started", zap.String("topic", cfg.Kafka.Topic))
	} else {
		log.Warn("KAFKA_BROKERS not set, thumbnail jobs disabled")
	}

	authService := service.NewAuthService(userRepo, kv, cfg.JWT.Secret, cfg.JWT.ExpireMinutes, log)
	searchService := service.NewSearchService(materialRepo, kv, log)
	libraryService := service.NewLibraryService(userRepo, materialRepo, libCache, log)
	uploadService := service.NewUploadService(materialRepo, userRepo, store, publisher, log)
	google := service.NewGoogleProvider()

	session := service.NewSession(authService)
	session.Subscribe(func(state service.SessionState) {
		if state.Loading {
			return
		}
		if state.User != nil {
			log.Info("auth state changed", zap.String("user_id", state.User.ID.String()))
		} else {
			log.Info("auth state changed", zap.String("user_id", ""))
		}
	})
	session.Start()
	defer session.Stop()

	authHandler := handler.NewAuthHandler(authService, userRepo, google, libraryService, log)
	searchHandler := handler.NewSearchHandler(searchService, log)
	materialHandler := handler.NewMaterialHandler(materialRepo, uploadService, log)
	libraryHandler := handler.NewLibraryHandler(libraryService, log)

	r := router.Setup(authService, authHandler, searchHandler, materialHandler, libraryHandler)
	log.Info("server listening", zap.String("port", cfg.Server.Port))
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}
