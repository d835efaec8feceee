package service

import (
	"errors"

	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/domain"
)

// ErrUnauthenticated is the only failure Authenticate reports. Missing and
// expired tokens are indistinguishable from the outside.
var ErrUnauthenticated = errors.New("unauthenticated")

// Validator resolves presented session tokens. It never mutates token state:
// the session lifetime is absolute from issuance, not sliding.
type Validator struct {
	dir    domain.PrincipalDirectory
	tokens domain.TokenStore
}

func NewValidator(dir domain.PrincipalDirectory, tokens domain.TokenStore) *Validator {
	return &Validator{dir: dir, tokens: tokens}
}

func (v *Validator) Authenticate(token string) (*domain.Principal, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	ownerID, err := v.tokens.Resolve(token, domain.KindSession)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) || errors.Is(err, domain.ErrTokenExpired) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	p, err := v.dir.Lookup(ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return p.Sanitized(), nil
}
