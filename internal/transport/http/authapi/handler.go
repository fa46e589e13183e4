// Package authapi: HTTP-интерфейс сервиса аутентификации
package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/asquebay/shop-gateway/internal/model"
	"github.com/asquebay/shop-gateway/internal/service/authsvc"
	httptransport "github.com/asquebay/shop-gateway/internal/transport/http"
)

// AuthService определяет то, что хэндлеру нужно от сервиса аутентификации
type AuthService interface {
	Login(ctx context.Context, creds model.Credentials) (model.TokenPair, error)
	Register(ctx context.Context, creds model.Credentials) (model.TokenPair, error)
	Verify(token string) (model.Identity, error)
	Refresh(token string) (model.RefreshedToken, error)
}

// Handler обрабатывает HTTP-запросы сервиса аутентификации
type Handler struct {
	service AuthService
	limiter *RateLimiter
	log     *slog.Logger
	mux     *http.ServeMux
}

// NewHandler создает новый экземпляр Handler
// limiter == nil отключает ограничение частоты
func NewHandler(service AuthService, limiter *RateLimiter, log *slog.Logger) *Handler {
	h := &Handler{
		service: service,
		limiter: limiter,
		log:     log,
		mux:     http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

// ServeHTTP делает Handler совместимым с http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.Handle("POST /login", h.throttled(h.login))
	h.mux.Handle("POST /register", h.throttled(h.register))
	h.mux.HandleFunc("POST /verify", h.verify)
	h.mux.HandleFunc("POST /refresh", h.refresh)
	h.mux.HandleFunc("GET /health", h.health)
}

func (h *Handler) throttled(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter != nil && !h.limiter.Allow(clientIP(r)) {
			h.log.Warn("rate limit exceeded", slog.String("ip", clientIP(r)), slog.String("path", r.URL.Path))
			httptransport.RespondError(w, h.log, http.StatusTooManyRequests, "too many requests")
			return
		}
		next(w, r)
	})
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifiedUser struct {
	Sub      string `json:"sub"`
	Username string `json:"username"`
}

type verifyResponse struct {
	Valid bool          `json:"valid"`
	User  *verifiedUser `json:"user,omitempty"`
	Error string        `json:"error,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string       `json:"access_token"`
	UserID      model.UserID `json:"user_id"`
	Username    string       `json:"username"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, h.service.Login, http.StatusOK)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, h.service.Register, http.StatusCreated)
}

func (h *Handler) issue(
	w http.ResponseWriter,
	r *http.Request,
	fn func(context.Context, model.Credentials) (model.TokenPair, error),
	okStatus int,
) {
	var creds model.Credentials
	// битое тело равносильно пустым полям
	_ = httptransport.DecodeJSON(w, r, &creds)

	pair, err := fn(r.Context(), creds)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrMissingCredentials):
			httptransport.RespondError(w, h.log, http.StatusBadRequest, authsvc.ErrMissingCredentials.Error())
		case errors.Is(err, authsvc.ErrInvalidCredentials):
			httptransport.RespondError(w, h.log, http.StatusUnauthorized, authsvc.ErrInvalidCredentials.Error())
		case errors.Is(err, authsvc.ErrUserExists):
			httptransport.RespondError(w, h.log, http.StatusBadRequest, authsvc.ErrUserExists.Error())
		default:
			h.log.Error("internal server error", slog.String("error", err.Error()))
			httptransport.RespondError(w, h.log, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	httptransport.RespondJSON(w, h.log, okStatus, pair)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := httptransport.DecodeJSON(w, r, &req); err != nil || req.Token == "" {
		httptransport.RespondError(w, h.log, http.StatusBadRequest, "token missing")
		return
	}

	id, err := h.service.Verify(req.Token)
	if err != nil {
		h.log.Debug("token rejected", slog.String("error", err.Error()))
		httptransport.RespondJSON(w, h.log, http.StatusUnauthorized, verifyResponse{Error: tokenError(err)})
		return
	}

	httptransport.RespondJSON(w, h.log, http.StatusOK, verifyResponse{
		Valid: true,
		User:  &verifiedUser{Sub: id.UserID.String(), Username: id.Username},
	})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httptransport.DecodeJSON(w, r, &req); err != nil || req.RefreshToken == "" {
		httptransport.RespondError(w, h.log, http.StatusBadRequest, "refresh token missing")
		return
	}

	refreshed, err := h.service.Refresh(req.RefreshToken)
	if err != nil {
		h.log.Debug("refresh token rejected", slog.String("error", err.Error()))
		httptransport.RespondError(w, h.log, http.StatusUnauthorized, "refresh "+tokenError(err))
		return
	}

	httptransport.RespondJSON(w, h.log, http.StatusOK, refreshResponse{
		AccessToken: refreshed.AccessToken,
		UserID:      refreshed.Identity.UserID,
		Username:    refreshed.Identity.Username,
	})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	httptransport.RespondJSON(w, h.log, http.StatusOK, map[string]string{"status": "ok", "service": "auth_service"})
}

// tokenError переводит ошибку проверки в сообщение для клиента
// шлюз ищет в нём слово "expired", чтобы решить, пробовать ли refresh
func tokenError(err error) string {
	switch {
	case errors.Is(err, authsvc.ErrTokenExpired):
		return authsvc.ErrTokenExpired.Error()
	case errors.Is(err, authsvc.ErrWrongTokenType):
		return authsvc.ErrWrongTokenType.Error()
	default:
		return authsvc.ErrTokenInvalid.Error()
	}
}
