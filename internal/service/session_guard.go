package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/asquebay/shop-gateway/internal/clients"
	"github.com/asquebay/shop-gateway/internal/model"
)

// ErrUnauthorized: сессия не прошла проверку, нужен повторный вход
var ErrUnauthorized = errors.New("unauthorized")

// SessionGuard проверяет access-токен сессии перед защищёнными операциями
// и один раз пытается обновить его, если он истёк
type SessionGuard struct {
	auth TokenVerifier
	log  *slog.Logger
}

// NewSessionGuard создаёт новый экземпляр проверки сессии
func NewSessionGuard(auth TokenVerifier, log *slog.Logger) *SessionGuard {
	return &SessionGuard{
		auth: auth,
		log:  log,
	}
}

// Authorize проверяет сессию и обновляет в ней данные пользователя
// при любом отказе, кроме отсутствия токена, сессия очищается
func (g *SessionGuard) Authorize(ctx context.Context, sess *model.Session) error {
	const op = "service.SessionGuard.Authorize"
	log := g.log.With(slog.String("op", op), slog.String("session_id", sess.ID))

	if sess.AccessToken == "" {
		return fmt.Errorf("%s: no access token: %w", op, ErrUnauthorized)
	}

	identity, err := g.auth.Verify(ctx, sess.AccessToken)
	if err == nil {
		sess.SetIdentity(identity)
		return nil
	}

	switch {
	case errors.Is(err, clients.ErrTokenExpired) && sess.RefreshToken != "":
		// одна попытка, новый токен в рамках этого запроса больше не проверяем
		refreshed, refreshErr := g.auth.Refresh(ctx, sess.RefreshToken)
		if refreshErr != nil {
			log.Info("token refresh failed, clearing session", slog.String("error", refreshErr.Error()))
			sess.Clear()
			return fmt.Errorf("%s: %w: %w", op, ErrUnauthorized, refreshErr)
		}
		sess.AccessToken = refreshed.AccessToken
		sess.SetIdentity(refreshed.Identity)
		log.Debug("access token refreshed", slog.String("user_id", refreshed.Identity.UserID.String()))
		return nil

	case errors.Is(err, clients.ErrAuthUnavailable):
		// сервис недоступен: закрываемся, а не пропускаем
		log.Warn("auth service unavailable, clearing session", slog.String("error", err.Error()))

	default:
		log.Info("access token rejected, clearing session", slog.String("error", err.Error()))
	}

	sess.Clear()
	return fmt.Errorf("%s: %w: %w", op, ErrUnauthorized, err)
}
