package model

import (
	"slices"
	"time"
)

// Session: состояние одного браузера на шлюзе
// UserID == 0 означает, что пользователь ещё не определён
type Session struct {
	ID           string
	AccessToken  string
	RefreshToken string
	UserID       UserID
	Username     string
	Cart         []int
	LastOrder    *Confirmation
	UpdatedAt    time.Time
}

// HasUser сообщает, известен ли идентификатор пользователя
func (s *Session) HasUser() bool {
	return s.UserID != 0
}

// SetIdentity обновляет данные пользователя из проверенных claims
// пустое имя не затирает уже известное
func (s *Session) SetIdentity(id Identity) {
	s.UserID = id.UserID
	if id.Username != "" {
		s.Username = id.Username
	}
}

// Clear сбрасывает всё, кроме id сессии: токены, пользователя, корзину
func (s *Session) Clear() {
	s.AccessToken = ""
	s.RefreshToken = ""
	s.UserID = 0
	s.Username = ""
	s.Cart = nil
	s.LastOrder = nil
}

// Clone делает независимую копию, чтобы хранилище не делило срезы с обработчиками
func (s *Session) Clone() *Session {
	c := *s
	c.Cart = slices.Clone(s.Cart)
	if s.LastOrder != nil {
		lo := *s.LastOrder
		lo.Items = slices.Clone(s.LastOrder.Items)
		c.LastOrder = &lo
	}
	return &c
}
