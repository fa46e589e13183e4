// Package gateway: пользовательский HTTP-интерфейс шлюза:
// вход, каталог, корзина, оформление и история заказов
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/asquebay/shop-gateway/internal/cart"
	"github.com/asquebay/shop-gateway/internal/clients"
	"github.com/asquebay/shop-gateway/internal/model"
	"github.com/asquebay/shop-gateway/internal/payment"
	"github.com/asquebay/shop-gateway/internal/service"
	httptransport "github.com/asquebay/shop-gateway/internal/transport/http"
)

// Authenticator выдаёт токены по логину и паролю
type Authenticator interface {
	Login(ctx context.Context, creds model.Credentials) (model.TokenPair, error)
	Register(ctx context.Context, creds model.Credentials) (model.TokenPair, error)
}

// Guard проверяет сессию перед защищёнными маршрутами
type Guard interface {
	Authorize(ctx context.Context, sess *model.Session) error
}

// Catalog: статический каталог товаров
type Catalog interface {
	cart.ArticleSource
	All() []model.Article
}

// Checkout оформляет корзину
type Checkout interface {
	Checkout(ctx context.Context, sess *model.Session) (service.CheckoutResult, error)
}

// History отдаёт историю заказов
type History interface {
	Orders(ctx context.Context, sess *model.Session) []model.Order
}

// BreakerState отдаёт снимок платёжного breaker-а
type BreakerState interface {
	State() payment.CircuitState
}

// Deps: всё, что нужно шлюзу
type Deps struct {
	Sessions SessionStore
	Cookie   CookieSettings
	Auth     Authenticator
	Guard    Guard
	Catalog  Catalog
	Checkout Checkout
	History  History
	Breaker  BreakerState
}

// Handler обрабатывает HTTP-запросы шлюза
type Handler struct {
	sessions SessionStore
	cookie   CookieSettings
	auth     Authenticator
	guard    Guard
	catalog  Catalog
	checkout Checkout
	history  History
	breaker  BreakerState
	log      *slog.Logger
	mux      *http.ServeMux
	handler  http.Handler
}

// NewHandler создает новый экземпляр Handler со всей цепочкой middleware
func NewHandler(d Deps, log *slog.Logger) *Handler {
	h := &Handler{
		sessions: d.Sessions,
		cookie:   d.Cookie,
		auth:     d.Auth,
		guard:    d.Guard,
		catalog:  d.Catalog,
		checkout: d.Checkout,
		history:  d.History,
		breaker:  d.Breaker,
		log:      log,
		mux:      http.NewServeMux(),
	}
	h.registerRoutes()

	h.handler = httptransport.Chain(h.mux,
		httptransport.RequestID(),
		httptransport.Logging(log),
		httptransport.Recover(log),
		h.withSession,
	)
	return h
}

// ServeHTTP делает Handler совместимым с http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.health)
	h.mux.HandleFunc("GET /health/payment", h.paymentHealth)

	h.mux.HandleFunc("GET /login", h.loginRequired)
	h.mux.HandleFunc("POST /login", h.login)
	h.mux.HandleFunc("POST /register", h.register)
	h.mux.HandleFunc("POST /logout", h.logout)

	h.mux.Handle("GET /articles", h.protected(h.articles))
	h.mux.Handle("GET /cart", h.protected(h.cartView))
	h.mux.Handle("POST /articles/{id}/buy", h.protected(h.buyNow))
	h.mux.Handle("GET /articles/{id}/confirmation", h.protected(h.articleConfirmation))
	h.mux.Handle("POST /cart/items/{id}", h.protected(h.addItem))
	h.mux.Handle("DELETE /cart/items/{id}", h.protected(h.removeItem))
	h.mux.Handle("DELETE /cart", h.protected(h.clearCart))
	h.mux.Handle("POST /checkout", h.protected(h.doCheckout))
	h.mux.Handle("GET /checkout/confirmation", h.protected(h.confirmation))
	h.mux.Handle("GET /orders", h.protected(h.orders))
}

type articlesView struct {
	Username  string          `json:"username"`
	Articles  []model.Article `json:"articles"`
	CartCount int             `json:"cart_count"`
}

type articleConfirmationView struct {
	Username string        `json:"username"`
	Article  model.Article `json:"article"`
}

type cartView struct {
	Username  string           `json:"username"`
	Items     []model.CartItem `json:"items"`
	Total     model.Money      `json:"total"`
	CartCount int              `json:"cart_count"`
}

type paymentErrorView struct {
	Error string           `json:"error"`
	Items []model.CartItem `json:"items"`
	Total model.Money      `json:"total"`
}

type confirmationView struct {
	Username      string           `json:"username"`
	Items         []model.CartItem `json:"items"`
	Total         model.Money      `json:"total"`
	TransactionID string           `json:"transaction_id"`
}

type ordersView struct {
	Username string        `json:"username"`
	Orders   []model.Order `json:"orders"`
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	httptransport.RespondJSON(w, h.log, http.StatusOK, map[string]string{"status": "ok", "service": "gateway"})
}

func (h *Handler) paymentHealth(w http.ResponseWriter, _ *http.Request) {
	httptransport.RespondJSON(w, h.log, http.StatusOK, h.breaker.State())
}

func (h *Handler) loginRequired(w http.ResponseWriter, _ *http.Request) {
	httptransport.RespondError(w, h.log, http.StatusUnauthorized, "login required")
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	const op = "gateway.Handler.login"
	log := h.log.With(slog.String("op", op))

	creds, ok := h.readCredentials(w, r)
	if !ok {
		httptransport.RespondError(w, h.log, http.StatusBadRequest, "username and password are required")
		return
	}

	pair, err := h.auth.Login(r.Context(), creds)
	if err != nil {
		if errors.Is(err, clients.ErrAuthUnavailable) {
			log.Warn("login failed, auth service unavailable", slog.String("error", err.Error()))
			httptransport.RespondError(w, h.log, http.StatusServiceUnavailable, "authentication service unavailable, try again later")
			return
		}
		httptransport.RespondError(w, h.log, http.StatusUnauthorized, upstreamMessage(err, "invalid credentials"))
		return
	}

	h.startSession(r, pair)
	http.Redirect(w, r, "/articles", http.StatusSeeOther)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	const op = "gateway.Handler.register"
	log := h.log.With(slog.String("op", op))

	creds, ok := h.readCredentials(w, r)
	if !ok {
		httptransport.RespondError(w, h.log, http.StatusBadRequest, "username and password are required to create an account")
		return
	}

	pair, err := h.auth.Register(r.Context(), creds)
	if err != nil {
		if errors.Is(err, clients.ErrAuthUnavailable) {
			log.Warn("registration failed, auth service unavailable", slog.String("error", err.Error()))
			httptransport.RespondError(w, h.log, http.StatusServiceUnavailable, "registration service unavailable, try again later")
			return
		}
		httptransport.RespondError(w, h.log, http.StatusBadRequest, upstreamMessage(err, "account creation failed"))
		return
	}

	h.startSession(r, pair)
	http.Redirect(w, r, "/articles", http.StatusSeeOther)
}

// startSession кладёт токены в сессию и выдаёт ей новый id
// корзина предыдущего пользователя не наследуется
func (h *Handler) startSession(r *http.Request, pair model.TokenPair) {
	st := sessionFrom(r.Context())
	st.sess.Clear()
	st.sess.AccessToken = pair.AccessToken
	st.sess.RefreshToken = pair.RefreshToken
	st.sess.UserID = pair.UserID
	st.sess.Username = pair.Username
	h.rotate(st)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r.Context())
	st.destroyed = true
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) articles(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context()).sess
	httptransport.RespondJSON(w, h.log, http.StatusOK, articlesView{
		Username:  sess.Username,
		Articles:  h.catalog.All(),
		CartCount: len(sess.Cart),
	})
}

func (h *Handler) cartView(w http.ResponseWriter, r *http.Request) {
	h.respondCart(w, sessionFrom(r.Context()).sess)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context()).sess

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		httptransport.RespondError(w, h.log, http.StatusNotFound, "article not found")
		return
	}
	if err := cart.NewLedger(h.catalog, &sess.Cart).Add(id); err != nil {
		httptransport.RespondError(w, h.log, http.StatusNotFound, "article not found")
		return
	}
	h.respondCart(w, sess)
}

// buyNow кладёт товар в корзину и сразу ведёт в неё
func (h *Handler) buyNow(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context()).sess

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		httptransport.RespondError(w, h.log, http.StatusNotFound, "article not found")
		return
	}
	if err := cart.NewLedger(h.catalog, &sess.Cart).Add(id); err != nil {
		httptransport.RespondError(w, h.log, http.StatusNotFound, "article not found")
		return
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// articleConfirmation: страница подтверждения одного товара из старого сценария покупки
func (h *Handler) articleConfirmation(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context()).sess

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		httptransport.RespondError(w, h.log, http.StatusNotFound, "article not found")
		return
	}
	article, err := h.catalog.Get(id)
	if err != nil {
		httptransport.RespondError(w, h.log, http.StatusNotFound, "article not found")
		return
	}
	httptransport.RespondJSON(w, h.log, http.StatusOK, articleConfirmationView{
		Username: sess.Username,
		Article:  article,
	})
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context()).sess

	// нечисловой id не может быть в корзине, удалять нечего
	if id, err := strconv.Atoi(r.PathValue("id")); err == nil {
		cart.NewLedger(h.catalog, &sess.Cart).Remove(id)
	}
	h.respondCart(w, sess)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context()).sess
	cart.NewLedger(h.catalog, &sess.Cart).Clear()
	h.respondCart(w, sess)
}

func (h *Handler) doCheckout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context()).sess

	result, err := h.checkout.Checkout(r.Context(), sess)
	if err != nil {
		items, total := cart.NewLedger(h.catalog, &sess.Cart).Snapshot()
		view := paymentErrorView{Items: items, Total: total}

		if errors.Is(err, payment.ErrCircuitOpen) {
			view.Error = "payment service unavailable"
			httptransport.RespondJSON(w, h.log, http.StatusServiceUnavailable, view)
			return
		}
		view.Error = "payment failed, please retry"
		httptransport.RespondJSON(w, h.log, http.StatusBadGateway, view)
		return
	}

	if result.Outcome == service.OutcomeEmptyCart {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/checkout/confirmation", http.StatusSeeOther)
}

func (h *Handler) confirmation(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context()).sess

	order := sess.LastOrder
	if order == nil {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	sess.LastOrder = nil

	httptransport.RespondJSON(w, h.log, http.StatusOK, confirmationView{
		Username:      sess.Username,
		Items:         order.Items,
		Total:         order.Total,
		TransactionID: order.TransactionID,
	})
}

func (h *Handler) orders(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context()).sess
	httptransport.RespondJSON(w, h.log, http.StatusOK, ordersView{
		Username: sess.Username,
		Orders:   h.history.Orders(r.Context(), sess),
	})
}

func (h *Handler) respondCart(w http.ResponseWriter, sess *model.Session) {
	items, total := cart.NewLedger(h.catalog, &sess.Cart).Snapshot()
	httptransport.RespondJSON(w, h.log, http.StatusOK, cartView{
		Username:  sess.Username,
		Items:     items,
		Total:     total,
		CartCount: len(sess.Cart),
	})
}

// readCredentials принимает JSON или обычную форму
func (h *Handler) readCredentials(w http.ResponseWriter, r *http.Request) (model.Credentials, bool) {
	var creds model.Credentials

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		if err := httptransport.DecodeJSON(w, r, &creds); err != nil {
			return model.Credentials{}, false
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return model.Credentials{}, false
		}
		creds = model.Credentials{
			Username: r.PostFormValue("username"),
			Password: r.PostFormValue("password"),
			Email:    r.PostFormValue("email"),
		}
	}

	creds.Username = strings.TrimSpace(creds.Username)
	creds.Password = strings.TrimSpace(creds.Password)
	creds.Email = strings.TrimSpace(creds.Email)
	return creds, creds.Username != "" && creds.Password != ""
}

// upstreamMessage возвращает текст отказа от сервиса аутентификации, если он есть
func upstreamMessage(err error, fallback string) string {
	var ue *clients.UpstreamError
	if errors.As(err, &ue) && ue.Message != "" {
		return ue.Message
	}
	return fallback
}
