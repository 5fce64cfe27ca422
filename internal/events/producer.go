package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"storefront-backend/internal/domain"
)

// Producer publishes order events to Kafka. Publishing is best-effort:
// the checkout outcome is already durable in Postgres before any event
// goes out, so a publish failure is logged and swallowed.
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewProducer(brokers, topic string, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(brokers, ",")...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{writer: writer, logger: logger}
}

func (p *Producer) PublishOrder(ctx context.Context, eventType string, order *domain.Order) {
	ev := OrderEvent{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		OrderID:       order.ID,
		BuyerID:       order.BuyerID,
		AmountCents:   order.AmountCents,
		TransactionID: order.TransactionID,
		Status:        order.Status,
		OccurredAt:    time.Now().UTC(),
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("marshal order event", zap.String("order_id", order.ID), zap.Error(err))
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(order.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		p.logger.Error("publish order event",
			zap.String("order_id", order.ID),
			zap.String("event_type", eventType),
			zap.Error(err))
		return
	}
	p.logger.Info("order event published",
		zap.String("order_id", order.ID),
		zap.String("event_type", eventType))
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
