package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"payment-gateway/internal/logger"
	"payment-gateway/internal/models"
	"payment-gateway/internal/tracing"

	"github.com/segmentio/kafka-go"
)

const EventPaymentProcessed = "payment.processed"

// messageWriter is the part of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer messageWriter
	topic  string
	log    *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer, topic: topic, log: log}
}

// PublishPaymentProcessed streams the outcome of a payment to Kafka, keyed
// by payment id so events for one payment stay on one partition.
func (p *Producer) PublishPaymentProcessed(ctx context.Context, event models.PaymentEvent) error {
	if event.Type == "" {
		event.Type = EventPaymentProcessed
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode payment event: %w", err)
	}

	p.log.LogKafka("PUBLISH", p.topic, fmt.Sprintf("%s %s status=%s", event.Type, event.PaymentID, event.Status))

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.PaymentID),
		Value: msgBytes,
		Headers: tracing.InjectKafkaHeaders(ctx, []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		}),
	})
	if err != nil {
		p.log.Error("KAFKA", fmt.Sprintf("Failed to publish %s for %s: %v", event.Type, event.PaymentID, err))
		return fmt.Errorf("failed to publish payment event: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
