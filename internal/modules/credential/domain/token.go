package domain

import (
	"errors"
	"time"
)

// TokenKind selects the token family. A principal holds at most one live
// token per kind; kinds never evict each other.
type TokenKind string

const (
	KindSession          TokenKind = "session"
	KindPasswordReset    TokenKind = "password_reset"
	KindEmailOTP         TokenKind = "email_otp"
	KindVerificationLink TokenKind = "verification_link"
)

// Default lifetimes per kind.
const (
	SessionTTL       = 7 * 24 * time.Hour
	PasswordResetTTL = time.Hour
	EmailOTPTTL      = 10 * time.Minute
	VerificationTTL  = time.Hour
)

// TTL returns the default lifetime for the kind.
func (k TokenKind) TTL() time.Duration {
	switch k {
	case KindPasswordReset:
		return PasswordResetTTL
	case KindEmailOTP:
		return EmailOTPTTL
	case KindVerificationLink:
		return VerificationTTL
	default:
		return SessionTTL
	}
}

// TokenRecord is a stored, time-bounded credential artifact. Existence is
// validity: consumption and revocation delete the record.
type TokenRecord struct {
	Token     string
	OwnerID   string
	Kind      TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

var (
	ErrTokenNotFound = errors.New("token_not_found")
	ErrTokenExpired  = errors.New("token_expired")
	ErrConflict      = errors.New("token_conflict")
	ErrUnavailable   = errors.New("store_unavailable")
)

// TokenStore holds the live token per (owner, kind). Issue and Consume are
// atomic with respect to concurrent callers on the same key; see the pg
// implementation for the single-statement forms.
type TokenStore interface {
	// Issue mints a fresh token for (ownerID, kind), replacing any prior
	// record under that key in the same operation.
	Issue(ownerID string, kind TokenKind, ttl time.Duration) (*TokenRecord, error)

	// Resolve returns the owner of a live token, ErrTokenExpired if the
	// record exists but has lapsed, ErrTokenNotFound otherwise.
	Resolve(token string, kind TokenKind) (string, error)

	// Consume is Resolve plus deletion of the record on success, as one
	// atomic step. Two concurrent Consume calls on one token cannot both
	// succeed.
	Consume(token string, kind TokenKind) (string, error)

	// RevokeAll deletes the live record for (ownerID, kind), if any.
	RevokeAll(ownerID string, kind TokenKind) error

	// SweepExpired reclaims records past their expiry. Hygiene only;
	// Resolve/Consume already reject expired records.
	SweepExpired() (int, error)
}
