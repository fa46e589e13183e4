package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/asquebay/shop-gateway/internal/model"
)

// messageWriter: часть kafka.Writer, которой пользуется продюсер
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderPublisher публикует заказы в топик вместо POST /orders
// ключом сообщения служит id транзакции, поэтому повторы одного заказа попадают в одну партицию
type OrderPublisher struct {
	writer  messageWriter
	timeout time.Duration
	log     *slog.Logger
}

// NewOrderPublisher создаёт продюсер заказов
func NewOrderPublisher(brokers []string, topic string, timeout time.Duration, log *slog.Logger) *OrderPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: timeout,
	}
	return newOrderPublisher(writer, timeout, log)
}

func newOrderPublisher(writer messageWriter, timeout time.Duration, log *slog.Logger) *OrderPublisher {
	return &OrderPublisher{
		writer:  writer,
		timeout: timeout,
		log:     log.With(slog.String("component", "kafka_publisher")),
	}
}

// Record публикует заказ; ошибка означает, что брокер сообщение не принял
func (p *OrderPublisher) Record(ctx context.Context, order model.OrderRequest) error {
	const op = "kafka.OrderPublisher.Record"
	log := p.log.With(slog.String("op", op), slog.String("transaction_id", order.TransactionID))

	value, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("%s: failed to marshal order: %w", op, err)
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(order.TransactionID),
		Value: value,
	})
	if err != nil {
		log.Error("failed to publish order", slog.String("error", err.Error()))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("order published")
	return nil
}

// Close сбрасывает буферы и закрывает соединения
func (p *OrderPublisher) Close() error {
	return p.writer.Close()
}
