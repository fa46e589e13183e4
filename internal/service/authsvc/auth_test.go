package authsvc

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/asquebay/shop-gateway/internal/lib/logger"
	"github.com/asquebay/shop-gateway/internal/model"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(Settings{
		Secret:     "test-secret",
		AccessTTL:  5 * time.Minute,
		RefreshTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, []model.Credentials{
		{Username: "baptiste", Password: "password123", Email: "baptiste@example.com"},
	}, logger.Discard())
	require.NoError(t, err)
	return svc
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := New(Settings{}, nil, logger.Discard())
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, model.Credentials{Username: " baptiste ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, model.UserID(1), pair.UserID)
	assert.Equal(t, "baptiste", pair.Username)
	assert.Equal(t, "baptiste@example.com", pair.Email)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	_, err = svc.Login(ctx, model.Credentials{Username: "baptiste", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, model.Credentials{Username: "nobody", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, model.Credentials{Username: "baptiste"})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestRegister(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Register(ctx, model.Credentials{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, model.UserID(2), pair.UserID)
	assert.Equal(t, "alice@example.com", pair.Email)
	assert.Equal(t, 2, svc.Len())

	_, err = svc.Register(ctx, model.Credentials{Username: "alice", Password: "other"})
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = svc.Register(ctx, model.Credentials{Username: "  ", Password: "x"})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = svc.Login(ctx, model.Credentials{Username: "alice", Password: "secret"})
	assert.NoError(t, err)
}

func TestVerify(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.Login(context.Background(), model.Credentials{Username: "baptiste", Password: "password123"})
	require.NoError(t, err)

	id, err := svc.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.Identity{UserID: 1, Username: "baptiste"}, id)

	_, err = svc.Verify(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = svc.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = svc.Verify("")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_Expired(t *testing.T) {
	svc := newTestService(t)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }

	pair, err := svc.Login(context.Background(), model.Credentials{Username: "baptiste", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Verify(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)

	// refresh живёт час и ещё действует
	svc.now = func() time.Time { return time.Now().Add(-30 * time.Minute) }
	pair, err = svc.Login(context.Background(), model.Credentials{Username: "baptiste", Password: "password123"})
	require.NoError(t, err)

	svc.now = time.Now
	refreshed, err := svc.Refresh(pair.RefreshToken)
	require.NoError(t, err)

	id, err := svc.Verify(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.UserID(1), id.UserID)
}

func TestVerify_ForeignSignature(t *testing.T) {
	svc := newTestService(t)

	claims := Claims{
		Username: "baptiste",
		Type:     tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = svc.Verify(forged)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefresh(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.Login(context.Background(), model.Credentials{Username: "baptiste", Password: "password123"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, model.Identity{UserID: 1, Username: "baptiste"}, refreshed.Identity)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.Refresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := svc.Login(context.Background(), model.Credentials{Username: "baptiste", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Refresh(old.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
