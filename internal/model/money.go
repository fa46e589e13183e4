package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money: денежная сумма с точностью до копейки
// в JSON пишется числом с двумя знаками после запятой (159.80)
type Money struct {
	decimal.Decimal
}

// NewMoney создаёт сумму из строки вида "79.90"
// используется для статических данных, поэтому при ошибке паникует
func NewMoney(s string) Money {
	return Money{decimal.RequireFromString(s)}
}

// MoneyFromDecimal оборачивает decimal.Decimal
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d}
}

// Round2 округляет сумму до двух знаков
func (m Money) Round2() Money {
	return Money{m.Round(2)}
}

// Mul умножает сумму на количество
func (m Money) Mul(qty int) Money {
	return Money{m.Decimal.Mul(decimal.NewFromInt(int64(qty)))}
}

// Add складывает две суммы
func (m Money) Add(other Money) Money {
	return Money{m.Decimal.Add(other.Decimal)}
}

// Equal сравнивает суммы по значению
func (m Money) Equal(other Money) bool {
	return m.Decimal.Equal(other.Decimal)
}

// String возвращает сумму с двумя знаками после запятой
func (m Money) String() string {
	return m.StringFixed(2)
}

// MarshalJSON пишет сумму JSON-числом
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

// UnmarshalJSON принимает как число, так и строку
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("money: null is not a valid amount")
	}

	raw := data
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("money: %w", err)
		}
		raw = []byte(s)
	}

	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return fmt.Errorf("money: %w", err)
	}
	m.Decimal = d
	return nil
}
