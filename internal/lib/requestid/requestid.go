// Package requestid переносит correlation id запроса через context
package requestid

import (
	"context"

	"github.com/google/uuid"
)

// Header: заголовок, в котором correlation id приходит и уходит дальше
const Header = "X-Correlation-Id"

type ctxKey struct{}

// New генерирует новый correlation id
func New() string {
	return uuid.NewString()
}

// WithID кладёт id в контекст
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext возвращает id из контекста или пустую строку
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
