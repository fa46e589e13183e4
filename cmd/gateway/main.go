package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asquebay/shop-gateway/internal/catalog"
	"github.com/asquebay/shop-gateway/internal/clients"
	"github.com/asquebay/shop-gateway/internal/config"
	"github.com/asquebay/shop-gateway/internal/lib/logger"
	"github.com/asquebay/shop-gateway/internal/lib/telemetry"
	"github.com/asquebay/shop-gateway/internal/payment"
	"github.com/asquebay/shop-gateway/internal/repository/memory"
	"github.com/asquebay/shop-gateway/internal/service"
	httptransport "github.com/asquebay/shop-gateway/internal/transport/http"
	"github.com/asquebay/shop-gateway/internal/transport/http/gateway"
	"github.com/asquebay/shop-gateway/internal/transport/kafka"
)

func main() {
	// 1. Инициализация конфигурации (путь из CONFIG_PATH)
	cfg := config.MustLoad("")
	gw := cfg.Gateway

	// 2. Инициализация логгера
	log := logger.New(cfg.Logger.Level, cfg.Logger.Format).With(slog.String("service", "gateway"))
	log.Info("starting gateway", slog.String("env", cfg.Env), slog.String("log_level", cfg.Logger.Level))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Трейсы и метрики
	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry, "gateway")
	if err != nil {
		log.Error("failed to set up telemetry", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Хранилище сессий и его чистка
	sessions := memory.NewSessionStore(gw.Session.TTL)
	go sessions.RunJanitor(ctx, time.Minute)

	// 5. Клиенты сервисов аутентификации и заказов
	authClient := clients.NewAuthClient(gw.AuthClient.BaseURL, gw.AuthClient.Timeout, gw.AuthClient.RegisterTimeout, log)
	ordersClient := clients.NewOrdersClient(gw.OrdersClient.BaseURL, gw.OrdersClient.Timeout, log)

	var recorder service.OrderRecorder = ordersClient
	var publisher *kafka.OrderPublisher
	if gw.OrdersClient.Transport == "kafka" {
		publisher = kafka.NewOrderPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, gw.OrdersClient.Timeout, log)
		recorder = publisher
		log.Info("orders are published to kafka", slog.String("topic", cfg.Kafka.Topic))
	}

	// 6. Платёжный шлюз за circuit breaker-ом
	bank := payment.NewSimulatedBank(payment.BankSettings{
		FailureRate: gw.Payment.FailureRate,
		MinLatency:  gw.Payment.MinLatency,
		MaxLatency:  gw.Payment.MaxLatency,
	})
	breaker := payment.NewBreaker(bank, payment.BreakerSettings{
		Name:             "bank_api_breaker",
		FailureThreshold: gw.Payment.FailureThreshold,
		OpenDuration:     gw.Payment.OpenDuration,
	}, log)

	// 7. Сервисный слой
	cat := catalog.Default()
	guard := service.NewSessionGuard(authClient, log)
	checkout := service.NewCheckoutService(cat, breaker, recorder, authClient, log)
	history := service.NewHistoryService(ordersClient, authClient, log)

	// 8. Инициализация и запуск HTTP-сервера
	handler := gateway.NewHandler(gateway.Deps{
		Sessions: sessions,
		Cookie: gateway.CookieSettings{
			Name:   gw.Session.CookieName,
			TTL:    gw.Session.TTL,
			Secure: gw.Session.Secure,
		},
		Auth:     authClient,
		Guard:    guard,
		Catalog:  cat,
		Checkout: checkout,
		History:  history,
		Breaker:  breaker,
	}, log)
	httpServer := httptransport.NewServer(gw.HTTPServer.Port, handler, gw.HTTPServer.Timeout)
	log.Info("starting http server", slog.String("port", gw.HTTPServer.Port))

	go func() {
		if err := httpServer.Run(); err != nil {
			log.Error("http server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// 9. Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down gateway")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", slog.String("error", err.Error()))
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error("error closing kafka publisher", slog.String("error", err.Error()))
		}
	}

	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Error("telemetry shutdown failed", slog.String("error", err.Error()))
	}

	log.Info("gateway stopped")
}
