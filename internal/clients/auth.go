package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/asquebay/shop-gateway/internal/model"
)

// AuthClient ходит в сервис аутентификации по JSON/HTTP
type AuthClient struct {
	client          *resty.Client
	timeout         time.Duration
	registerTimeout time.Duration
	log             *slog.Logger
}

// NewAuthClient создаёт клиента; registerTimeout <= 0 означает обычный timeout
func NewAuthClient(baseURL string, timeout, registerTimeout time.Duration, log *slog.Logger) *AuthClient {
	if registerTimeout <= 0 {
		registerTimeout = timeout
	}
	return &AuthClient{
		client:          newRestClient(baseURL),
		timeout:         timeout,
		registerTimeout: registerTimeout,
		log:             log.With(slog.String("component", "auth_client")),
	}
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error"`
	User  struct {
		Sub      string `json:"sub"`
		Username string `json:"username"`
	} `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string       `json:"access_token"`
	UserID      model.UserID `json:"user_id"`
	Username    string       `json:"username"`
}

// Login меняет логин и пароль на пару токенов
func (c *AuthClient) Login(ctx context.Context, creds model.Credentials) (model.TokenPair, error) {
	const op = "clients.AuthClient.Login"
	return c.issue(ctx, op, "/login", c.timeout, creds, http.StatusOK, ErrInvalidCredentials)
}

// Register создаёт пользователя и сразу выдаёт пару токенов
func (c *AuthClient) Register(ctx context.Context, creds model.Credentials) (model.TokenPair, error) {
	const op = "clients.AuthClient.Register"
	return c.issue(ctx, op, "/register", c.registerTimeout, creds, http.StatusCreated, ErrRegistrationRejected)
}

func (c *AuthClient) issue(
	ctx context.Context,
	op, endpoint string,
	timeout time.Duration,
	creds model.Credentials,
	wantStatus int,
	rejected error,
) (model.TokenPair, error) {
	log := c.log.With(slog.String("op", op), slog.String("endpoint", endpoint))

	r, cancel := request(ctx, c.client, timeout)
	defer cancel()

	resp, err := r.SetBody(creds).Post(endpoint)
	if err != nil {
		log.Error("auth service request failed", slog.String("error", err.Error()))
		return model.TokenPair{}, fmt.Errorf("%s: %w: %w", op, ErrAuthUnavailable, err)
	}

	status := resp.StatusCode()
	if status >= http.StatusInternalServerError {
		log.Error("auth service returned server error", slog.Int("status", status))
		return model.TokenPair{}, fmt.Errorf("%s: %w", op, &UpstreamError{Kind: ErrAuthUnavailable, Status: status})
	}
	// /register исторически мог отвечать и 200
	if status != wantStatus && status != http.StatusOK {
		msg := upstreamMessage(resp.Body())
		log.Info("auth service rejected request", slog.Int("status", status), slog.String("message", msg))
		return model.TokenPair{}, fmt.Errorf("%s: %w", op, &UpstreamError{Kind: rejected, Status: status, Message: msg})
	}

	var pair model.TokenPair
	if err := json.Unmarshal(resp.Body(), &pair); err != nil || pair.AccessToken == "" {
		log.Error("auth service returned malformed token response", slog.Int("status", status))
		return model.TokenPair{}, fmt.Errorf("%s: %w", op, &UpstreamError{
			Kind: ErrAuthUnavailable, Status: status, Message: "invalid response from auth service",
		})
	}
	if pair.Username == "" {
		pair.Username = creds.Username
	}

	return pair, nil
}

// Verify проверяет access-токен
// истёкший токен возвращает ErrTokenExpired, прочие отказы дают ErrTokenInvalid,
// сетевые ошибки дают ErrAuthUnavailable
func (c *AuthClient) Verify(ctx context.Context, token string) (model.Identity, error) {
	const op = "clients.AuthClient.Verify"
	log := c.log.With(slog.String("op", op), slog.String("endpoint", "/verify"))

	r, cancel := request(ctx, c.client, c.timeout)
	defer cancel()

	resp, err := r.SetBody(verifyRequest{Token: token}).Post("/verify")
	if err != nil {
		log.Error("auth service request failed", slog.String("error", err.Error()))
		return model.Identity{}, fmt.Errorf("%s: %w: %w", op, ErrAuthUnavailable, err)
	}

	var body verifyResponse
	// пустое или не-JSON тело трактуем как невалидный токен
	_ = json.Unmarshal(resp.Body(), &body)

	status := resp.StatusCode()
	if status == http.StatusOK && body.Valid {
		id, err := model.ParseUserID(body.User.Sub)
		if err != nil {
			log.Warn("verified token carries non-numeric subject", slog.String("sub", body.User.Sub))
			return model.Identity{}, fmt.Errorf("%s: %w: %w", op, ErrTokenInvalid, err)
		}
		return model.Identity{UserID: id, Username: body.User.Username}, nil
	}

	if isExpired(body.Error) {
		log.Debug("access token expired", slog.Int("status", status))
		return model.Identity{}, fmt.Errorf("%s: %w", op, ErrTokenExpired)
	}

	log.Info("access token rejected", slog.Int("status", status), slog.String("message", body.Error))
	return model.Identity{}, fmt.Errorf("%s: %w", op, &UpstreamError{Kind: ErrTokenInvalid, Status: status, Message: body.Error})
}

// Refresh меняет refresh-токен на новый access-токен
func (c *AuthClient) Refresh(ctx context.Context, refreshToken string) (model.RefreshedToken, error) {
	const op = "clients.AuthClient.Refresh"
	log := c.log.With(slog.String("op", op), slog.String("endpoint", "/refresh"))

	r, cancel := request(ctx, c.client, c.timeout)
	defer cancel()

	resp, err := r.SetBody(refreshRequest{RefreshToken: refreshToken}).Post("/refresh")
	if err != nil {
		log.Error("auth service request failed", slog.String("error", err.Error()))
		return model.RefreshedToken{}, fmt.Errorf("%s: %w: %w", op, ErrAuthUnavailable, err)
	}

	status := resp.StatusCode()
	var body refreshResponse
	if status != http.StatusOK || json.Unmarshal(resp.Body(), &body) != nil || body.AccessToken == "" {
		msg := upstreamMessage(resp.Body())
		log.Info("refresh rejected", slog.Int("status", status), slog.String("message", msg))
		return model.RefreshedToken{}, fmt.Errorf("%s: %w", op, &UpstreamError{Kind: ErrTokenInvalid, Status: status, Message: msg})
	}

	return model.RefreshedToken{
		AccessToken: body.AccessToken,
		Identity:    model.Identity{UserID: body.UserID, Username: body.Username},
	}, nil
}

func isExpired(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "expired") || strings.Contains(msg, "expiré")
}
