package kafka_client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/sentiscope/internal/models"
)

// Producer publishes analysis events. Delivery reports are consumed in the
// background and failures are logged; publishing never blocks a request on
// broker acknowledgement.
type Producer struct {
	producer *kafka.Producer
	topic    string
	done     chan struct{}
}

func NewProducer(cfg KafkaConfig) (*Producer, error) {
	slog.Info("[KafkaClient] Initializing Kafka Producer...",
		slog.String("broker", cfg.Broker),
		slog.String("topic", cfg.topic()))

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Broker,
		"enable.idempotence": true,
		"acks":               "all",
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	producer := &Producer{producer: p, topic: cfg.topic(), done: make(chan struct{})}
	go producer.watchDeliveries()

	slog.Info("[KafkaClient] Kafka Producer initialized successfully")
	return producer, nil
}

func (p *Producer) watchDeliveries() {
	defer close(p.done)
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				slog.Warn("[KafkaClient] Delivery failed",
					slog.String("key", string(ev.Key)),
					slog.String("error", ev.TopicPartition.Error.Error()))
			}
		case kafka.Error:
			slog.Warn("[KafkaClient] Producer error", slog.String("error", ev.Error()))
		}
	}
}

func (p *Producer) PublishAnalysisRecorded(ctx context.Context, a models.StoredAnalysis) error {
	payload, err := json.Marshal(NewRecordedEvent(a))
	if err != nil {
		return err
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(a.ID),
		Value:          payload,
		Headers:        []kafka.Header{{Key: EVENT_TYPE_KEY, Value: []byte(EVENT_RECORDED)}},
	}

	for i := 0; i < MAX_RETRIES; i++ {
		err = p.producer.Produce(msg, nil)
		var kafkaErr kafka.Error
		if err == nil || !errors.As(err, &kafkaErr) || kafkaErr.Code() != kafka.ErrQueueFull {
			break
		}
		slog.Warn("[KafkaClient] Producer queue full, retrying...",
			slog.Int("attempt", i+1))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(RETRY_DELAY):
		}
	}
	if err != nil {
		return fmt.Errorf("[KafkaClient] failed to produce analysis %s: %w", a.ID, err)
	}
	return nil
}

func (p *Producer) Close() {
	slog.Info("[KafkaClient] Flushing Kafka producer before shutdown...")
	if remaining := p.producer.Flush(int(FLUSH_TIMEOUT / time.Millisecond)); remaining > 0 {
		slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	p.producer.Close()
	<-p.done
	slog.Info("[KafkaClient] Kafka producer shut down")
}

func NewRecordedEvent(a models.StoredAnalysis) models.AnalysisRecordedEvent {
	return models.AnalysisRecordedEvent{
		ID:              a.ID,
		SentimentLabel:  a.SentimentLabel,
		ConfidenceScore: a.ConfidenceScore,
		TextLength:      len([]rune(a.Text)),
		CreatedAt:       a.CreatedAt,
	}
}
