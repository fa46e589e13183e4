package clients

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/asquebay/shop-gateway/internal/lib/requestid"
)

var (
	// ErrAuthUnavailable: сервис аутентификации недоступен (сеть, таймаут, 5xx на login)
	ErrAuthUnavailable = errors.New("auth service unavailable")
	// ErrTokenExpired: сервис сообщил, что access-токен истёк
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid: токен отклонён по любой другой причине
	ErrTokenInvalid = errors.New("token invalid")
	// ErrInvalidCredentials: логин не прошёл
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRegistrationRejected: регистрация отклонена
	ErrRegistrationRejected = errors.New("registration rejected")
	// ErrOrdersUnavailable: сервис заказов не принял или не отдал заказы
	ErrOrdersUnavailable = errors.New("orders service unavailable")
)

// UpstreamError: отказ, у которого есть сообщение от сервиса
// Message показывается пользователю, Kind берётся из sentinel-ов выше
type UpstreamError struct {
	Kind    error
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

func (e *UpstreamError) Unwrap() error {
	return e.Kind
}

type errorBody struct {
	Error string `json:"error"`
}

func newRestClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
}

// request готовит запрос с таймаутом и correlation id
// отмена входящего запроса не прерывает вызов, работает только таймаут
func request(ctx context.Context, client *resty.Client, timeout time.Duration) (*resty.Request, context.CancelFunc) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)

	r := client.R().SetContext(callCtx)
	if id := requestid.FromContext(ctx); id != "" {
		r.SetHeader(requestid.Header, id)
	}
	return r, cancel
}

// upstreamMessage достаёт поле error из тела ответа
func upstreamMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	return eb.Error
}
