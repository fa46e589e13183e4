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
	"github.com/asquebay/shop-gateway/internal/model"
	"github.com/asquebay/shop-gateway/internal/service/authsvc"
	httptransport "github.com/asquebay/shop-gateway/internal/transport/http"
	"github.com/asquebay/shop-gateway/internal/transport/http/authapi"
)

func main() {
	cfg := config.MustLoad("")
	ac := cfg.AuthService

	log := logger.New(cfg.Logger.Level, cfg.Logger.Format).With(slog.String("service", "auth_service"))
	log.Info("starting auth service", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry, "auth-service")
	if err != nil {
		log.Error("failed to set up telemetry", slog.String("error", err.Error()))
		os.Exit(1)
	}

	seed := make([]model.Credentials, 0, len(ac.Users))
	for _, u := range ac.Users {
		seed = append(seed, model.Credentials{Username: u.Username, Password: u.Password, Email: u.Email})
	}

	svc, err := authsvc.New(authsvc.Settings{
		Secret:     ac.JWTSecret,
		AccessTTL:  ac.AccessTTL,
		RefreshTTL: ac.RefreshTTL,
	}, seed, log)
	if err != nil {
		log.Error("failed to init auth service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("users seeded", slog.Int("count", svc.Len()))

	var limiter *authapi.RateLimiter
	if ac.RateLimit.RPS > 0 {
		limiter = authapi.NewRateLimiter(ac.RateLimit.RPS, ac.RateLimit.Burst)
		go limiter.RunJanitor(ctx, time.Minute, 10*time.Minute)
	}

	handler := httptransport.Chain(authapi.NewHandler(svc, limiter, log),
		httptransport.RequestID(),
		httptransport.Logging(log),
		httptransport.Recover(log),
	)
	httpServer := httptransport.NewServer(ac.HTTPServer.Port, handler, ac.HTTPServer.Timeout)
	log.Info("starting http server", slog.String("port", ac.HTTPServer.Port))

	go func() {
		if err := httpServer.Run(); err != nil {
			log.Error("http server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down auth service")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", slog.String("error", err.Error()))
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Error("telemetry shutdown failed", slog.String("error", err.Error()))
	}

	log.Info("auth service stopped")
}
