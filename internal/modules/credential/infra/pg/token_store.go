package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/domain"
	"github.com/CodeReveur/vet-connect-sub001/internal/platform/security"
)

// TokenStore persists credential_tokens:
//
//	token      text PRIMARY KEY,
//	owner_id   uuid NOT NULL,
//	kind       text NOT NULL,
//	issued_at  timestamptz NOT NULL DEFAULT now(),
//	expires_at timestamptz NOT NULL,
//	UNIQUE (owner_id, kind)
//
// The (owner_id, kind) constraint is what enforces single-active-token; Issue
// and Consume are single statements so concurrent callers race on the
// database, not in process memory.
type TokenStore struct {
	db *pgxpool.Pool
}

func NewTokenStore(db *pgxpool.Pool) *TokenStore {
	return &TokenStore{db: db}
}

const uniqueViolation = "23505"

func (s *TokenStore) Issue(ownerID string, kind domain.TokenKind, ttl time.Duration) (*domain.TokenRecord, error) {
	// Retry once on a token-value collision. With 256-bit values this is
	// effectively unreachable; the retry exists for the 6-digit OTP space.
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		rec, err := s.issueOnce(ownerID, kind, ttl)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *TokenStore) issueOnce(ownerID string, kind domain.TokenKind, ttl time.Duration) (*domain.TokenRecord, error) {
	val, err := tokenValue(kind)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRow(context.Background(), `
INSERT INTO credential_tokens (token, owner_id, kind, issued_at, expires_at)
VALUES ($1, $2, $3, now(), now() + $4)
ON CONFLICT (owner_id, kind) DO UPDATE
   SET token = EXCLUDED.token, issued_at = EXCLUDED.issued_at, expires_at = EXCLUDED.expires_at
RETURNING token, owner_id, kind, issued_at, expires_at`,
		val, ownerID, kind, ttl)

	var rec domain.TokenRecord
	if err := row.Scan(&rec.Token, &rec.OwnerID, &rec.Kind, &rec.IssuedAt, &rec.ExpiresAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// another owner already holds this exact token value
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("%w: issue token: %v", domain.ErrUnavailable, err)
	}
	return &rec, nil
}

func (s *TokenStore) Resolve(token string, kind domain.TokenKind) (string, error) {
	var ownerID string
	var expiresAt time.Time
	err := s.db.QueryRow(context.Background(),
		`SELECT owner_id, expires_at FROM credential_tokens WHERE token=$1 AND kind=$2`,
		token, kind,
	).Scan(&ownerID, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrTokenNotFound
		}
		return "", fmt.Errorf("%w: resolve token: %v", domain.ErrUnavailable, err)
	}
	if !time.Now().Before(expiresAt) {
		return "", domain.ErrTokenExpired
	}
	return ownerID, nil
}

func (s *TokenStore) Consume(token string, kind domain.TokenKind) (string, error) {
	// Single-statement read-and-delete: of two concurrent consumers exactly
	// one gets the row back, the other scans no rows.
	var ownerID string
	var expiresAt time.Time
	err := s.db.QueryRow(context.Background(),
		`DELETE FROM credential_tokens WHERE token=$1 AND kind=$2 RETURNING owner_id, expires_at`,
		token, kind,
	).Scan(&ownerID, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrTokenNotFound
		}
		return "", fmt.Errorf("%w: consume token: %v", domain.ErrUnavailable, err)
	}
	if !time.Now().Before(expiresAt) {
		return "", domain.ErrTokenExpired
	}
	return ownerID, nil
}

func (s *TokenStore) RevokeAll(ownerID string, kind domain.TokenKind) error {
	_, err := s.db.Exec(context.Background(),
		`DELETE FROM credential_tokens WHERE owner_id=$1 AND kind=$2`, ownerID, kind)
	if err != nil {
		return fmt.Errorf("%w: revoke tokens: %v", domain.ErrUnavailable, err)
	}
	return nil
}

func (s *TokenStore) SweepExpired() (int, error) {
	ct, err := s.db.Exec(context.Background(),
		`DELETE FROM credential_tokens WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("%w: sweep tokens: %v", domain.ErrUnavailable, err)
	}
	return int(ct.RowsAffected()), nil
}

func tokenValue(kind domain.TokenKind) (string, error) {
	if kind == domain.KindEmailOTP {
		return security.RandomDigits(6)
	}
	return security.RandomToken(32)
}
