package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/domain"
)

// PrincipalRepo adapts the users table owned by the user-management module to
// the narrow directory surface the credential subsystem needs.
type PrincipalRepo struct{ db *pgxpool.Pool }

func NewPrincipalRepo(db *pgxpool.Pool) *PrincipalRepo { return &PrincipalRepo{db: db} }

func scanPrincipal(row pgx.Row) (*domain.Principal, error) {
	var p domain.Principal
	if err := row.Scan(&p.ID, &p.Email, &p.DisplayName, &p.Role,
		&p.CredentialDigest, &p.EmailVerified, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("scan principal: %w", err)
	}
	return &p, nil
}

const principalCols = `id, email, display_name, role, credential_digest, email_verified, created_at, updated_at`

func (r *PrincipalRepo) FindByContact(email string) (*domain.Principal, error) {
	row := r.db.QueryRow(context.Background(),
		`SELECT `+principalCols+` FROM users WHERE email = LOWER($1)`,
		strings.TrimSpace(email))
	return scanPrincipal(row)
}

func (r *PrincipalRepo) Lookup(ownerID string) (*domain.Principal, error) {
	row := r.db.QueryRow(context.Background(),
		`SELECT `+principalCols+` FROM users WHERE id=$1`, ownerID)
	return scanPrincipal(row)
}

func (r *PrincipalRepo) GetDigest(ownerID string) (string, error) {
	var digest *string
	err := r.db.QueryRow(context.Background(),
		`SELECT credential_digest FROM users WHERE id=$1`, ownerID).Scan(&digest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrPrincipalNotFound
		}
		return "", fmt.Errorf("get digest: %w", err)
	}
	if digest == nil {
		return "", domain.ErrPrincipalNotFound
	}
	return *digest, nil
}

func (r *PrincipalRepo) SetDigest(ownerID string, digest string) error {
	_, err := r.db.Exec(context.Background(),
		`UPDATE users SET credential_digest=$2, updated_at=now() WHERE id=$1`, ownerID, digest)
	return err
}

func (r *PrincipalRepo) MarkVerified(ownerID string) error {
	_, err := r.db.Exec(context.Background(),
		`UPDATE users SET email_verified=true, updated_at=now() WHERE id=$1`, ownerID)
	return err
}
