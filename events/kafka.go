package events

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/qitt/qitt-backend/config"
	"github.com/qitt/qitt-backend/pkg/metrics"

	kafka "github.com/segmentio/kafka-go"
)

type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaPublisher(cfg *config.Config) *KafkaPublisher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  SplitBrokers(cfg.Kafka.Brokers),
		Topic:    cfg.Kafka.Topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &KafkaPublisher{writer: writer, topic: cfg.Kafka.Topic}
}

func (p *KafkaPublisher) PublishMaterialUploaded(ctx context.Context, job ThumbnailJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(job.MaterialID),
		Value: payload,
	})
	if err != nil {
		metrics.KafkaMessagesTotal.WithLabelValues("server", p.topic, "error").Inc()
		return err
	}
	metrics.KafkaMessagesTotal.WithLabelValues("server", p.topic, "ok").Inc()
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func SplitBrokers(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
