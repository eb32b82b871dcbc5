package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/qitt/qitt-backend/config"
	"github.com/qitt/qitt-backend/database"
	"github.com/qitt/qitt-backend/events"
	"github.com/qitt/qitt-backend/pkg/logger"
	"github.com/qitt/qitt-backend/pkg/metrics"
	"github.com/qitt/qitt-backend/repository"
	"github.com/qitt/qitt-backend/service"
	"github.com/qitt/qitt-backend/storage"

	"github.com/google/uuid"
	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// The thumbnailer consumes material.uploaded jobs and writes a cover image
// back next to the material.
func main() {
	cfg := config.LoadConfig()
	log := logger.New("thumbnailer")
	defer log.Sync()

	metrics.StartMetricsServer(cfg.Server.MetricsPort)

	if cfg.Kafka.Brokers == "" {
		log.Fatal("KAFKA_BROKERS is required")
	}
	if cfg.MinIO.Endpoint == "" {
		log.Fatal("MINIO_ENDPOINT is required")
	}

	db := database.InitDB(cfg)
	materials := repository.NewMaterialRepository(db)

	store, err := storage.NewMinioStore(cfg)
	if err != nil {
		log.Fatal("minio init failed", zap.Error(err))
	}

	thumbnails, err := service.NewThumbnailService()
	if err != nil {
		log.Fatal("thumbnail init failed", zap.Error(err))
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  events.SplitBrokers(cfg.Kafka.Brokers),
		GroupID:  cfg.Kafka.GroupID,
		Topic:    cfg.Kafka.Topic,
		MinBytes: 1,
		MaxBytes: 10 << 20,
	})
	defer r.Close()
	log.Info("consumer started", zap.String("topic", cfg.Kafka.Topic), zap.String("group", cfg.Kafka.GroupID))

	ctx := context.Background()
	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			log.Error("fetch failed", zap.Error(err))
			return
		}
		metrics.KafkaMessagesTotal.WithLabelValues("thumbnailer", cfg.Kafka.Topic, "received").Inc()

		if err := handleMessage(ctx, msg.Value, thumbnails, store, materials, log); err != nil {
			log.Warn("thumbnail job failed", zap.Error(err))
			metrics.ThumbnailsGenerated.WithLabelValues("error").Inc()
		} else {
			metrics.ThumbnailsGenerated.WithLabelValues("ok").Inc()
		}

		// Failed jobs are committed too; thumbnails are best effort and a
		// poisoned message must not wedge the group.
		if err := r.CommitMessages(ctx, msg); err != nil {
			log.Error("commit failed", zap.Error(err))
		}
	}
}

func handleMessage(ctx context.Context, value []byte, thumbnails service.ThumbnailService, store storage.ObjectStore, materials repository.MaterialRepository, log *zap.Logger) error {
	var job events.ThumbnailJob
	if err := json.Unmarshal(value, &job); err != nil {
		return fmt.Errorf("decoding job: %w", err)
	}
	materialID, err := uuid.Parse(job.MaterialID)
	if err != nil {
		return fmt.Errorf("invalid material id %q: %w", job.MaterialID, err)
	}

	img, err := thumbnails.Render(job.CourseCode, job.Type)
	if err != nil {
		return fmt.Errorf("rendering thumbnail: %w", err)
	}

	objectName := fmt.Sprintf("thumbnails/%s.jpg", job.MaterialID)
	if err := store.Upload(ctx, objectName, bytes.NewReader(img), int64(len(img)), "image/jpeg", nil); err != nil {
		return fmt.Errorf("storing thumbnail: %w", err)
	}

	url, err := store.ResolveURL(ctx, objectName)
	if err != nil {
		return fmt.Errorf("resolving thumbnail URL: %w", err)
	}
	if err := materials.UpdateThumbnailURL(materialID, url); err != nil {
		return fmt.Errorf("updating material: %w", err)
	}

	log.Info("thumbnail generated", zap.String("material_id", job.MaterialID), zap.String("object", objectName))
	return nil
}
