package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/domain"
	"github.com/CodeReveur/vet-connect-sub001/internal/platform/security"
)

// ErrInvalidCredential covers both "no such principal" and "wrong secret" on
// login. One error for both so callers cannot probe which accounts exist.
var ErrInvalidCredential = errors.New("invalid_credential")

// ErrInvalidToken covers NotFound and Expired everywhere an end user presents
// a token; the distinction stays server-side.
var ErrInvalidToken = errors.New("invalid_or_expired_token")

// Notifier dispatches tokens out of band. Fire-and-forget: delivery failures
// never roll back issuance.
type Notifier interface {
	SendResetNotice(ctx context.Context, to, token, displayName string) error
	SendVerificationNotice(ctx context.Context, to, token, displayName string) error
	SendOTPNotice(ctx context.Context, to, code, displayName string) error
}

// Session is what a successful login-shaped flow hands back.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Principal *domain.Principal
}

// Lifecycle orchestrates the token store, hasher and notifier into the five
// credential flows.
type Lifecycle struct {
	dir    domain.PrincipalDirectory
	tokens domain.TokenStore
	notify Notifier
}

func NewLifecycle(dir domain.PrincipalDirectory, tokens domain.TokenStore, notify Notifier) *Lifecycle {
	return &Lifecycle{dir: dir, tokens: tokens, notify: notify}
}

func (l *Lifecycle) startSession(p *domain.Principal) (*Session, error) {
	rec, err := l.tokens.Issue(p.ID, domain.KindSession, domain.SessionTTL)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     rec.Token,
		ExpiresAt: rec.ExpiresAt,
		Principal: p.Sanitized(),
	}, nil
}

// Login verifies the secret against the stored digest and issues a Session
// token. Any failure mode inside collapses to ErrInvalidCredential.
func (l *Lifecycle) Login(email, secret string) (*Session, error) {
	p, err := l.dir.FindByContact(email)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}
	if p.CredentialDigest == nil {
		return nil, ErrInvalidCredential
	}
	ok, err := security.CheckSecret(*p.CredentialDigest, secret)
	if err != nil || !ok {
		return nil, ErrInvalidCredential
	}
	return l.startSession(p)
}

// Logout revokes the session the token belongs to. Unknown or expired tokens
// are a no-op: logging out twice is not an error.
func (l *Lifecycle) Logout(token string) error {
	ownerID, err := l.tokens.Resolve(token, domain.KindSession)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) || errors.Is(err, domain.ErrTokenExpired) {
			return nil
		}
		return err
	}
	return l.tokens.RevokeAll(ownerID, domain.KindSession)
}

// RequestPasswordReset always acknowledges. When the address is known a reset
// token is issued and mailed; when it is not, nothing happens and the caller
// cannot tell the difference.
func (l *Lifecycle) RequestPasswordReset(ctx context.Context, email string) error {
	p, err := l.dir.FindByContact(email)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil
		}
		return err
	}
	rec, err := l.tokens.Issue(p.ID, domain.KindPasswordReset, domain.PasswordResetTTL)
	if err != nil {
		return err
	}
	if err := l.notify.SendResetNotice(ctx, p.Email, rec.Token, p.DisplayName); err != nil {
		log.Printf("credential: reset notice to %s failed: %v", p.Email, err)
	}
	return nil
}

// CompletePasswordReset consumes the reset token and overwrites the stored
// digest. The consumed token is gone whatever happens next.
func (l *Lifecycle) CompletePasswordReset(token, newSecret string) error {
	ownerID, err := l.tokens.Consume(token, domain.KindPasswordReset)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) || errors.Is(err, domain.ErrTokenExpired) {
			return ErrInvalidToken
		}
		return err
	}
	digest, err := security.HashSecret(newSecret)
	if err != nil {
		return err
	}
	if err := l.dir.SetDigest(ownerID, digest); err != nil {
		return err
	}
	// whoever held the old secret loses any open session
	return l.tokens.RevokeAll(ownerID, domain.KindSession)
}

// RequestEmailOTP issues a short-lived typed code. Unlike reset, the
// principal must exist: OTP is part of a semi-known flow.
func (l *Lifecycle) RequestEmailOTP(ctx context.Context, email string) error {
	p, err := l.dir.FindByContact(email)
	if err != nil {
		return err
	}
	rec, err := l.tokens.Issue(p.ID, domain.KindEmailOTP, domain.EmailOTPTTL)
	if err != nil {
		return err
	}
	if err := l.notify.SendOTPNotice(ctx, p.Email, rec.Token, p.DisplayName); err != nil {
		log.Printf("credential: otp notice to %s failed: %v", p.Email, err)
	}
	return nil
}

// ConfirmEmailOTP checks the code belongs to the principal behind the given
// address, not merely that some such code exists, then clears all OTP state
// for the owner and auto-issues a session.
func (l *Lifecycle) ConfirmEmailOTP(email, code string) (*Session, error) {
	p, err := l.dir.FindByContact(email)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	ownerID, err := l.tokens.Resolve(code, domain.KindEmailOTP)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) || errors.Is(err, domain.ErrTokenExpired) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if ownerID != p.ID {
		return nil, ErrInvalidToken
	}
	if err := l.tokens.RevokeAll(ownerID, domain.KindEmailOTP); err != nil {
		return nil, err
	}
	return l.startSession(p)
}

// RequestVerification mirrors the reset request shape for verification links:
// always a generic acknowledgment.
func (l *Lifecycle) RequestVerification(ctx context.Context, email string) error {
	p, err := l.dir.FindByContact(email)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil
		}
		return err
	}
	rec, err := l.tokens.Issue(p.ID, domain.KindVerificationLink, domain.VerificationTTL)
	if err != nil {
		return err
	}
	if err := l.notify.SendVerificationNotice(ctx, p.Email, rec.Token, p.DisplayName); err != nil {
		log.Printf("credential: verification notice to %s failed: %v", p.Email, err)
	}
	return nil
}

// ConfirmVerification consumes the link token, records the address as
// verified and auto-issues a session for the now-verified principal.
func (l *Lifecycle) ConfirmVerification(token string) (*Session, error) {
	ownerID, err := l.tokens.Consume(token, domain.KindVerificationLink)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) || errors.Is(err, domain.ErrTokenExpired) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if err := l.dir.MarkVerified(ownerID); err != nil {
		return nil, err
	}
	p, err := l.dir.Lookup(ownerID)
	if err != nil {
		return nil, err
	}
	return l.startSession(p)
}
