package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/segmentio/kafka-go"

	"github.com/asquebay/shop-gateway/internal/model"
)

const (
	defaultRetryInitial = 200 * time.Millisecond
	defaultRetryMax     = 10 * time.Second
)

// OrderCreator абстрагирует консьюмер от сервисного слоя заказов
type OrderCreator interface {
	CreateOrder(ctx context.Context, req model.OrderRequest) (model.Order, error)
}

// messageReader: часть kafka.Reader, которой пользуется консьюмер
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer читает события заказов из топика и сохраняет их
type Consumer struct {
	reader  messageReader
	service OrderCreator
	log     *slog.Logger

	retryInitial time.Duration
	retryMax     time.Duration
}

// NewConsumer создает консьюмер в составе consumer group
func NewConsumer(brokers []string, topic, groupID string, service OrderCreator, log *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		StartOffset: kafka.FirstOffset,
	})

	return newConsumer(reader, service, log)
}

func newConsumer(reader messageReader, service OrderCreator, log *slog.Logger) *Consumer {
	return &Consumer{
		reader:       reader,
		service:      service,
		log:          log.With(slog.String("component", "kafka_consumer")),
		retryInitial: defaultRetryInitial,
		retryMax:     defaultRetryMax,
	}
}

// Run запускает цикл чтения сообщений
// блокирует до отмены контекста или закрытия ридера
func (c *Consumer) Run(ctx context.Context) {
	log := c.log
	log.Info("kafka consumer started")

	fetchBackOff := c.backOff()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				log.Info("context cancelled, stopping consumer")
				return
			}
			if errors.Is(err, io.EOF) {
				log.Info("kafka reader closed")
				return
			}

			wait := fetchBackOff.NextBackOff()
			log.Error("failed to fetch message",
				slog.String("error", err.Error()),
				slog.Duration("retry_in", wait),
			)
			if !sleep(ctx, wait) {
				log.Info("context cancelled, stopping consumer")
				return
			}
			continue
		}
		fetchBackOff.Reset()

		log.Debug("received message",
			slog.String("topic", msg.Topic),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
		)

		// следующее сообщение не читаем, пока это не сохранено:
		// коммит более позднего offset-а перескочил бы через него
		if err := c.process(ctx, msg); err != nil {
			log.Info("context cancelled, message left uncommitted",
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()),
			)
			return
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			log.Error("failed to commit message", slog.String("error", err.Error()))
		}
	}
}

// process повторяет handleMessage с экспоненциальной паузой до успеха
// ошибку возвращает только при отмене контекста
func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, c.handleMessage(ctx, msg)
	},
		backoff.WithBackOff(c.backOff()),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.log.Error("failed to handle message, retrying",
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()),
				slog.Duration("retry_in", next),
			)
		}),
	)
	return err
}

// handleMessage разбирает и сохраняет одно сообщение
// nil означает, что сообщение можно подтвердить (в том числе если оно пропущено)
func (c *Consumer) handleMessage(ctx context.Context, msg kafka.Message) error {
	var req model.OrderRequest

	if err := json.Unmarshal(msg.Value, &req); err != nil {
		c.log.Warn("failed to unmarshal message, skipping", slog.String("error", err.Error()))
		return nil
	}

	if err := req.Validate(); err != nil {
		c.log.Warn("message validation failed, skipping",
			slog.String("error", err.Error()),
			slog.String("transaction_id", req.TransactionID),
		)
		return nil
	}

	order, err := c.service.CreateOrder(ctx, req)
	if err != nil {
		return err
	}

	c.log.Info("order successfully processed",
		slog.Int64("order_id", order.ID),
		slog.String("transaction_id", order.TransactionID),
	)
	return nil
}

func (c *Consumer) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInitial
	b.MaxInterval = c.retryMax
	b.Reset()
	return b
}

// sleep ждёт d; false, если контекст отменён раньше
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Close останавливает ридер
func (c *Consumer) Close() error {
	c.log.Info("closing kafka consumer")
	return c.reader.Close()
}
