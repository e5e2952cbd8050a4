package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage/memory"
)

func newAuthenticator() *PasswordAuthenticator {
	a := NewPasswordAuthenticator(memory.New())
	a.cost = bcrypt.MinCost
	return a
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	a := newAuthenticator()

	user, err := a.Register(ctx, "  Alice@Example.com ", "Alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	got, err := a.Authenticate(ctx, "alice@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = a.Authenticate(ctx, "alice@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Authenticate(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	a := newAuthenticator()
	_, err := a.Register(ctx, "bob@example.com", "Bob", "password1")
	require.NoError(t, err)

	tests := []struct {
		name        string
		email       string
		displayName string
		password    string
		want        error
	}{
		{"duplicate email", "BOB@example.com", "Bob", "password1", ErrEmailExists},
		{"weak password", "carol@example.com", "Carol", "short", ErrWeakPassword},
		{"bad email", "not-an-email", "Dan", "password1", ErrInvalidEmail},
		{"named address", "Eve <eve@example.com>", "Eve", "password1", ErrInvalidEmail},
		{"blank name", "fay@example.com", "   ", "password1", ErrMissingDisplayName},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := a.Register(ctx, tc.email, tc.displayName, tc.password)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

type brokenStore struct{}

func (brokenStore) CreateUser(context.Context, *models.User) error { return nil }
func (brokenStore) GetUserByEmail(context.Context, string) (*models.User, error) {
	return nil, errors.New("connection reset")
}

func TestRegisterStorageFailure(t *testing.T) {
	a := NewPasswordAuthenticator(brokenStore{})
	_, err := a.Register(context.Background(), "a@example.com", "A", "password1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailExists)
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret-key-that-is-long-enough", time.Hour)
	user := &models.User{ID: "user-1", Email: "a@example.com"}

	token, err := m.Generate(user)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "user-1", claims.Subject)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("another-secret", time.Hour)
		_, err := other.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewJWTManager("test-secret-key-that-is-long-enough", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Validate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm rejected", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
			UserID: "user-1",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Validate(s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
