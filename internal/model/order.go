package model

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// OrderRequest: тело POST /orders и сообщения в топике заказов
// user_id может быть null, если шлюзу не удалось определить пользователя
type OrderRequest struct {
	UserID        *UserID    `json:"user_id" validate:"required"`
	Items         []CartItem `json:"items" validate:"required,gt=0,dive"`
	Total         *Money     `json:"total" validate:"required"`
	TransactionID string     `json:"transaction_id"`
	DateTime      time.Time  `json:"datetime"`
}

// Order: сохранённый заказ; после создания не меняется
type Order struct {
	ID            int64      `json:"id"`
	UserID        UserID     `json:"user_id"`
	TransactionID string     `json:"transaction_id"`
	DateTime      time.Time  `json:"datetime"`
	Total         Money      `json:"total"`
	Items         []CartItem `json:"items"`
}

// ErrNegativeTotal возвращается, если сумма заказа меньше нуля
var ErrNegativeTotal = errors.New("total must not be negative")

var validate = validator.New()

// Validate проверяет корректность OrderRequest на основе тегов validate
func (o *OrderRequest) Validate() error {
	if err := validate.Struct(o); err != nil {
		return err
	}
	if o.Total.IsNegative() {
		return ErrNegativeTotal
	}
	return nil
}

// ToOrder превращает проверенный запрос в заказ с присвоенным id
func (o *OrderRequest) ToOrder(id int64) Order {
	return Order{
		ID:            id,
		UserID:        *o.UserID,
		TransactionID: o.TransactionID,
		DateTime:      o.DateTime,
		Total:         *o.Total,
		Items:         o.Items,
	}
}

// Confirmation: снимок успешной оплаты, который показывается один раз
type Confirmation struct {
	Items         []CartItem `json:"items"`
	Total         Money      `json:"total"`
	TransactionID string     `json:"transaction_id"`
}
