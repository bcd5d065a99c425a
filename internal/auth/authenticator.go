// Package auth issues and checks caller identities. The ledger only ever
// receives the user id an Authenticator vouched for.
package auth

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
)

// Authenticator registers accounts and verifies credentials.
type Authenticator interface {
	// Register creates an account. Returns ErrEmailExists or ErrWeakPassword
	// for rejected input.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the user owning email if credential matches, and
	// ErrInvalidCredentials otherwise.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks a credential before it is stored.
	ValidateCredential(credential string) error
}
