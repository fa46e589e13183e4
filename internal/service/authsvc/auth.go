package authsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/asquebay/shop-gateway/internal/model"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username already taken")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrWrongTokenType     = errors.New("wrong token type")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims: полезная нагрузка access и refresh токенов
type Claims struct {
	Username string `json:"username"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

type user struct {
	id       model.UserID
	username string
	email    string
	hash     []byte
}

// Settings: параметры выпуска токенов
type Settings struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

// Service хранит пользователей в памяти и выпускает JWT
type Service struct {
	mu    sync.RWMutex
	users map[string]*user

	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	cost       int

	now func() time.Time
	log *slog.Logger
}

// New создаёт сервис и заводит начальных пользователей
func New(st Settings, seed []model.Credentials, log *slog.Logger) (*Service, error) {
	const op = "authsvc.New"

	if st.Secret == "" {
		return nil, fmt.Errorf("%s: jwt secret is empty", op)
	}
	if st.BcryptCost == 0 {
		st.BcryptCost = bcrypt.DefaultCost
	}

	s := &Service{
		users:      make(map[string]*user),
		secret:     []byte(st.Secret),
		accessTTL:  st.AccessTTL,
		refreshTTL: st.RefreshTTL,
		cost:       st.BcryptCost,
		now:        time.Now,
		log:        log,
	}

	for _, c := range seed {
		if _, err := s.addUser(c); err != nil {
			return nil, fmt.Errorf("%s: seed user %q: %w", op, c.Username, err)
		}
	}

	return s, nil
}

// Login проверяет пароль и выдаёт пару токенов
func (s *Service) Login(_ context.Context, creds model.Credentials) (model.TokenPair, error) {
	const op = "authsvc.Service.Login"
	log := s.log.With(slog.String("op", op))

	username, password := normalize(creds)
	if username == "" || password == "" {
		return model.TokenPair{}, fmt.Errorf("%s: %w", op, ErrMissingCredentials)
	}

	s.mu.RLock()
	u, ok := s.users[username]
	s.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
		log.Info("login failed", slog.String("username", username))
		return model.TokenPair{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.issuePair(u)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in", slog.String("user_id", u.id.String()))
	return pair, nil
}

// Register создаёт пользователя и сразу выдаёт пару токенов
func (s *Service) Register(_ context.Context, creds model.Credentials) (model.TokenPair, error) {
	const op = "authsvc.Service.Register"
	log := s.log.With(slog.String("op", op))

	u, err := s.addUser(creds)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issuePair(u)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.String("user_id", u.id.String()), slog.String("username", u.username))
	return pair, nil
}

// Verify проверяет access-токен
func (s *Service) Verify(token string) (model.Identity, error) {
	const op = "authsvc.Service.Verify"

	claims, err := s.parse(token, tokenTypeAccess)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%s: %w", op, err)
	}

	id, err := model.ParseUserID(claims.Subject)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%s: %w: %w", op, ErrTokenInvalid, err)
	}
	return model.Identity{UserID: id, Username: claims.Username}, nil
}

// Refresh выдаёт новый access-токен по refresh-токену
func (s *Service) Refresh(token string) (model.RefreshedToken, error) {
	const op = "authsvc.Service.Refresh"

	claims, err := s.parse(token, tokenTypeRefresh)
	if err != nil {
		return model.RefreshedToken{}, fmt.Errorf("%s: %w", op, err)
	}

	id, err := model.ParseUserID(claims.Subject)
	if err != nil {
		return model.RefreshedToken{}, fmt.Errorf("%s: %w: %w", op, ErrTokenInvalid, err)
	}

	access, err := s.sign(id, claims.Username, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return model.RefreshedToken{}, fmt.Errorf("%s: %w", op, err)
	}

	return model.RefreshedToken{
		AccessToken: access,
		Identity:    model.Identity{UserID: id, Username: claims.Username},
	}, nil
}

// Len возвращает число пользователей
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *Service) addUser(creds model.Credentials) (*user, error) {
	username, password := normalize(creds)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	// хеш считаем до блокировки, bcrypt медленный
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	email := strings.TrimSpace(creds.Email)
	if email == "" {
		email = username + "@example.com"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return nil, ErrUserExists
	}

	var maxID model.UserID
	for _, u := range s.users {
		if u.id > maxID {
			maxID = u.id
		}
	}

	u := &user{id: maxID + 1, username: username, email: email, hash: hash}
	s.users[username] = u
	return u, nil
}

func (s *Service) issuePair(u *user) (model.TokenPair, error) {
	access, err := s.sign(u.id, u.username, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return model.TokenPair{}, err
	}
	refresh, err := s.sign(u.id, u.username, tokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		UserID:       u.id,
		Username:     u.username,
		Email:        u.email,
	}, nil
}

func (s *Service) sign(id model.UserID, username, typ string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		Username: username,
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", typ, err)
	}
	return signed, nil
}

func (s *Service) parse(token, wantType string) (*Claims, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if claims.Type != wantType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func normalize(creds model.Credentials) (string, string) {
	return strings.TrimSpace(creds.Username), strings.TrimSpace(creds.Password)
}
