package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/asquebay/shop-gateway/internal/model"
)

// SessionStore: хранилище серверных сессий
type SessionStore interface {
	New() *model.Session
	Get(id string) (*model.Session, bool)
	Save(sess *model.Session)
	Delete(id string)
}

// CookieSettings описывает cookie сессии
type CookieSettings struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

type sessionKey struct{}

// sessionState: сессия текущего запроса
// destroyed означает, что при фиксации сессию надо удалить, а не сохранить
type sessionState struct {
	sess      *model.Session
	destroyed bool
}

func sessionFrom(ctx context.Context) *sessionState {
	st, _ := ctx.Value(sessionKey{}).(*sessionState)
	return st
}

// sessionWriter сохраняет сессию перед первой записью ответа,
// чтобы следующий запрос клиента уже видел изменения
type sessionWriter struct {
	http.ResponseWriter
	commit    func()
	committed bool
}

func (w *sessionWriter) WriteHeader(status int) {
	w.flush()
	w.ResponseWriter.WriteHeader(status)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.flush()
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) flush() {
	if !w.committed {
		w.committed = true
		w.commit()
	}
}

// withSession загружает сессию по cookie или заводит новую
// cookie выдаётся заново при каждой фиксации, поэтому её срок сдвигается вместе с TTL хранилища
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *model.Session
		if c, err := r.Cookie(h.cookie.Name); err == nil {
			sess, _ = h.sessions.Get(c.Value)
		}
		if sess == nil {
			sess = h.sessions.New()
		}

		st := &sessionState{sess: sess}
		sw := &sessionWriter{ResponseWriter: w}
		sw.commit = func() {
			if st.destroyed {
				h.sessions.Delete(st.sess.ID)
				h.expireCookie(w)
				return
			}
			h.sessions.Save(st.sess)
			h.setCookie(w, st.sess.ID)
		}

		next.ServeHTTP(sw, r.WithContext(context.WithValue(r.Context(), sessionKey{}, st)))
		sw.flush()
	})
}

// rotate выдаёт сессии новый id, старый удаляется
// новая cookie уходит клиенту при фиксации
func (h *Handler) rotate(st *sessionState) {
	old := st.sess.ID
	st.sess.ID = h.sessions.New().ID
	h.sessions.Delete(old)
}

func (h *Handler) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) expireCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// protected пропускает запрос дальше только после SessionGuard
// при отказе клиент уходит на /login
func (h *Handler) protected(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := sessionFrom(r.Context())
		if err := h.guard.Authorize(r.Context(), st.sess); err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	})
}
