package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/asquebay/shop-gateway/internal/clients"
	"github.com/asquebay/shop-gateway/internal/lib/logger"
	"github.com/asquebay/shop-gateway/internal/model"
)

func loggedInSession() *model.Session {
	return &model.Session{
		ID:           "s1",
		AccessToken:  "access",
		RefreshToken: "refresh",
		Username:     "stale",
		Cart:         []int{1, 2},
	}
}

func TestSessionGuard_NoAccessToken(t *testing.T) {
	// Arrange
	auth := new(mockVerifier)
	guard := NewSessionGuard(auth, logger.Discard())
	sess := &model.Session{ID: "s1", Cart: []int{1}}

	// Act
	err := guard.Authorize(context.Background(), sess)

	// Assert
	assert.ErrorIs(t, err, ErrUnauthorized)
	auth.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	auth.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}

func TestSessionGuard_ValidTokenUpdatesIdentity(t *testing.T) {
	auth := new(mockVerifier)
	auth.On("Verify", mock.Anything, "access").
		Return(model.Identity{UserID: 1, Username: "baptiste"}, nil).Once()
	guard := NewSessionGuard(auth, logger.Discard())
	sess := loggedInSession()

	err := guard.Authorize(context.Background(), sess)

	assert.NoError(t, err)
	assert.Equal(t, model.UserID(1), sess.UserID)
	assert.Equal(t, "baptiste", sess.Username)
	assert.Equal(t, []int{1, 2}, sess.Cart)
	auth.AssertExpectations(t)
	auth.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}

func TestSessionGuard_ExpiredTokenRefreshesExactlyOnce(t *testing.T) {
	auth := new(mockVerifier)
	auth.On("Verify", mock.Anything, "access").
		Return(model.Identity{}, fmt.Errorf("verify: %w", clients.ErrTokenExpired)).Once()
	auth.On("Refresh", mock.Anything, "refresh").
		Return(model.RefreshedToken{
			AccessToken: "fresh",
			Identity:    model.Identity{UserID: 1, Username: "baptiste"},
		}, nil).Once()
	guard := NewSessionGuard(auth, logger.Discard())
	sess := loggedInSession()

	err := guard.Authorize(context.Background(), sess)

	assert.NoError(t, err)
	assert.Equal(t, "fresh", sess.AccessToken)
	assert.Equal(t, "refresh", sess.RefreshToken)
	assert.Equal(t, model.UserID(1), sess.UserID)
	assert.Equal(t, "baptiste", sess.Username)
	auth.AssertNumberOfCalls(t, "Verify", 1)
	auth.AssertNumberOfCalls(t, "Refresh", 1)
}

func TestSessionGuard_ExpiredWithoutRefreshToken(t *testing.T) {
	auth := new(mockVerifier)
	auth.On("Verify", mock.Anything, "access").
		Return(model.Identity{}, clients.ErrTokenExpired).Once()
	guard := NewSessionGuard(auth, logger.Discard())
	sess := loggedInSession()
	sess.RefreshToken = ""

	err := guard.Authorize(context.Background(), sess)

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, sess.AccessToken)
	assert.Empty(t, sess.Cart)
	auth.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}

func TestSessionGuard_RefreshFailureClearsSession(t *testing.T) {
	auth := new(mockVerifier)
	auth.On("Verify", mock.Anything, "access").Return(model.Identity{}, clients.ErrTokenExpired).Once()
	auth.On("Refresh", mock.Anything, "refresh").Return(model.RefreshedToken{}, clients.ErrTokenInvalid).Once()
	guard := NewSessionGuard(auth, logger.Discard())
	sess := loggedInSession()

	err := guard.Authorize(context.Background(), sess)

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, err, clients.ErrTokenInvalid)
	assert.Empty(t, sess.AccessToken)
	assert.Empty(t, sess.RefreshToken)
	assert.False(t, sess.HasUser())
	auth.AssertNumberOfCalls(t, "Refresh", 1)
}

func TestSessionGuard_AuthUnavailableFailsClosed(t *testing.T) {
	auth := new(mockVerifier)
	auth.On("Verify", mock.Anything, "access").Return(model.Identity{}, clients.ErrAuthUnavailable).Once()
	guard := NewSessionGuard(auth, logger.Discard())
	sess := loggedInSession()
	sess.UserID = 1

	err := guard.Authorize(context.Background(), sess)

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, sess.AccessToken)
	assert.False(t, sess.HasUser())
	auth.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}

func TestSessionGuard_InvalidTokenClearsSession(t *testing.T) {
	auth := new(mockVerifier)
	auth.On("Verify", mock.Anything, "access").Return(model.Identity{}, clients.ErrTokenInvalid).Once()
	guard := NewSessionGuard(auth, logger.Discard())
	sess := loggedInSession()

	err := guard.Authorize(context.Background(), sess)

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, sess.AccessToken)
	auth.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}
