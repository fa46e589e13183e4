package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/asquebay/shop-gateway/internal/model"
)

type sessionEntry struct {
	session   *model.Session
	expiresAt time.Time
}

// SessionStore: потокобезопасное хранилище сессий шлюза в памяти процесса
// наружу всегда отдаются копии, чтобы обработчики не делили срезы корзины
type SessionStore struct {
	mu    sync.Mutex
	items map[string]sessionEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionStore создаёт хранилище; сессия живёт ttl с момента последнего сохранения
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		items: make(map[string]sessionEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// New создаёт пустую сессию с новым id; в хранилище она попадёт после Save
func (s *SessionStore) New() *model.Session {
	return &model.Session{ID: uuid.NewString()}
}

// Get возвращает копию сессии, если она есть и не протухла
func (s *SessionStore) Get(id string) (*model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[id]
	if !ok {
		return nil, false
	}
	if s.now().After(e.expiresAt) {
		delete(s.items, id)
		return nil, false
	}
	return e.session.Clone(), true
}

// Save сохраняет копию сессии и продлевает её жизнь
func (s *SessionStore) Save(sess *model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := sess.Clone()
	c.UpdatedAt = now
	s.items[sess.ID] = sessionEntry{session: c, expiresAt: now.Add(s.ttl)}
}

// Delete удаляет сессию
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, id)
}

// Len возвращает число хранимых сессий
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.items)
}

// PurgeExpired удаляет протухшие сессии и возвращает их количество
func (s *SessionStore) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	purged := 0
	for id, e := range s.items {
		if now.After(e.expiresAt) {
			delete(s.items, id)
			purged++
		}
	}
	return purged
}

// RunJanitor периодически чистит протухшие сессии, пока не отменён ctx
// функция блокирующая, запускается в отдельной горутине
func (s *SessionStore) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.PurgeExpired()
		}
	}
}
