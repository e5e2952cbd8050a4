package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrMissingDisplayName = errors.New("display name is required")
)

// Authenticator registers and verifies ledger users.
// Implementations decide what a credential is (password, passkey, ...).
type Authenticator interface {
	// Register creates a user. Returns ErrEmailExists if the email is taken.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the user owning the credential, or ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks a credential before it is stored.
	ValidateCredential(credential string) error
}

// NormalizeEmail trims and lower-cases an address and checks it parses.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
