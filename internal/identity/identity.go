// Package identity holds the caller identity handed over by the upstream
// identity provider and the transaction PIN check.
package identity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bu-wallet-ledger/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidPIN = errors.New("invalid transaction PIN")
	ErrPINNotSet  = errors.New("transaction PIN has not been set")
)

// User is a verified caller
type User struct {
	ID   string
	Role shared.Role
}

func (u User) IsAdmin() bool {
	return u.Role == shared.RoleAdmin
}

// CredentialStore returns the bcrypt hash of a user's transaction PIN.
// Implementations return ErrPINNotSet when the user has none.
type CredentialStore interface {
	PINHash(ctx context.Context, userID string) (string, error)
}

// PINVerifier checks transaction PINs against stored bcrypt hashes
type PINVerifier struct {
	store  CredentialStore
	logger *slog.Logger
}

func NewPINVerifier(logger *slog.Logger, store CredentialStore) *PINVerifier {
	return &PINVerifier{store: store, logger: logger}
}

// Verify returns nil when pin matches the stored hash for userID
func (v *PINVerifier) Verify(ctx context.Context, userID, pin string) error {
	if pin == "" {
		return ErrInvalidPIN
	}

	hash, err := v.store.PINHash(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrPINNotSet) {
			return err
		}
		v.logger.Error("Failed to load transaction PIN", "user_id", userID, "error", err)
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		v.logger.Warn("Transaction PIN mismatch", "user_id", userID)
		return ErrInvalidPIN
	}
	return nil
}

// HashPIN produces the hash stored for a new PIN
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
