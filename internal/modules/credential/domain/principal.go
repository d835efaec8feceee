package domain

import (
	"errors"
	"time"
)

type Role string

const (
	RolePetOwner Role = "pet_owner"
	RoleVet      Role = "vet"
	RoleAdmin    Role = "admin"
)

// Principal is a user identity owned by the surrounding user-management
// system. The credential subsystem reads the digest, writes it during
// password changes, and never hands it out.
type Principal struct {
	ID               string
	Email            string
	DisplayName      string
	Role             Role
	CredentialDigest *string
	EmailVerified    bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Sanitized returns a copy safe to hand to callers: the digest is stripped.
func (p *Principal) Sanitized() *Principal {
	cp := *p
	cp.CredentialDigest = nil
	return &cp
}

var ErrPrincipalNotFound = errors.New("principal_not_found")

// PrincipalDirectory is the collaborator owned by the user-management domain.
type PrincipalDirectory interface {
	FindByContact(email string) (*Principal, error)
	Lookup(ownerID string) (*Principal, error)
	GetDigest(ownerID string) (string, error)
	SetDigest(ownerID string, digest string) error
	MarkVerified(ownerID string) error
}
