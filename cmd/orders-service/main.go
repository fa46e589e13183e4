package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asquebay/shop-gateway/internal/config"
	"github.com/asquebay/shop-gateway/internal/lib/logger"
	"github.com/asquebay/shop-gateway/internal/lib/telemetry"
	"github.com/asquebay/shop-gateway/internal/repository/cache"
	"github.com/asquebay/shop-gateway/internal/repository/memory"
	"github.com/asquebay/shop-gateway/internal/repository/postgres"
	"github.com/asquebay/shop-gateway/internal/service/orders"
	httptransport "github.com/asquebay/shop-gateway/internal/transport/http"
	"github.com/asquebay/shop-gateway/internal/transport/http/ordersapi"
	"github.com/asquebay/shop-gateway/internal/transport/kafka"
)

func main() {
	// 1. Инициализация конфигурации
	cfg := config.MustLoad("")
	oc := cfg.OrdersService

	// 2. Инициализация логгера
	log := logger.New(cfg.Logger.Level, cfg.Logger.Format).With(slog.String("service", "orders_service"))
	log.Info("starting orders service", slog.String("storage", oc.Storage), slog.String("log_level", cfg.Logger.Level))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry, "orders-service")
	if err != nil {
		log.Error("failed to set up telemetry", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 3. Инициализация хранилища
	var repo orders.OrderRepository
	switch oc.Storage {
	case "postgres":
		dbpool, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			log.Error("failed to connect to postgres", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer dbpool.Close()
		log.Info("successfully connected to postgres")

		if err := postgres.Migrate(ctx, dbpool); err != nil {
			log.Error("failed to apply schema", slog.String("error", err.Error()))
			os.Exit(1)
		}
		repo = postgres.NewOrderRepository(dbpool)
	default:
		repo = memory.NewOrderStore()
	}

	// 4. Кэш и сервисный слой
	orderCache := cache.NewOrderCache()
	orderSvc := orders.NewOrderService(repo, orderCache, log)

	// 5. Восстановление кэша при старте
	if err := orderSvc.RestoreCache(ctx); err != nil {
		// не фатально, кэш заполнится при чтении
		log.Error("failed to restore cache", slog.String("error", err.Error()))
	}

	// 6. Kafka-консьюмер (если включён)
	var consumer *kafka.Consumer
	if oc.ConsumeKafka {
		consumer = kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, orderSvc, log)
		go consumer.Run(ctx)
	}

	// 7. Инициализация и запуск HTTP-сервера
	handler := httptransport.Chain(ordersapi.NewHandler(orderSvc, log),
		httptransport.RequestID(),
		httptransport.Logging(log),
		httptransport.Recover(log),
	)
	httpServer := httptransport.NewServer(oc.HTTPServer.Port, handler, oc.HTTPServer.Timeout)
	log.Info("starting http server", slog.String("port", oc.HTTPServer.Port))

	go func() {
		if err := httpServer.Run(); err != nil {
			log.Error("http server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// 8. Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down orders service")
	cancel() // сигнал для консьюмера на завершение

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", slog.String("error", err.Error()))
	}

	if consumer != nil {
		if err := consumer.Close(); err != nil {
			log.Error("error closing kafka consumer", slog.String("error", err.Error()))
		}
	}

	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Error("telemetry shutdown failed", slog.String("error", err.Error()))
	}

	log.Info("orders service stopped")
}
