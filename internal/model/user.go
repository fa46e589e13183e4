package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// UserID: идентификатор пользователя
// сервис аутентификации отдаёт его то числом (user_id), то строкой (claim sub),
// поэтому при разборе принимаются оба варианта
type UserID int64

// ParseUserID разбирает идентификатор из строки
func ParseUserID(s string) (UserID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("user id %q: %w", s, err)
	}
	return UserID(id), nil
}

// String возвращает десятичное представление идентификатора
func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// UnmarshalJSON принимает число или строку с числом
func (id *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseUserID(s)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	*id = UserID(n)
	return nil
}

// Credentials: логин и пароль, которые пользователь вводит на шлюзе
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

// TokenPair: ответ /login и /register сервиса аутентификации
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	UserID       UserID `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
}

// Identity: проверенные данные пользователя из токена
type Identity struct {
	UserID   UserID
	Username string
}

// RefreshedToken: результат обмена refresh-токена на новый access-токен
type RefreshedToken struct {
	AccessToken string
	Identity    Identity
}
