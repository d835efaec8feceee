package infra

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/domain"
	"github.com/CodeReveur/vet-connect-sub001/internal/platform/security"
)

// tokenValue mints the opaque value for a kind: 6 typed digits for OTPs,
// 256-bit hex for everything else.
func tokenValue(kind domain.TokenKind) (string, error) {
	if kind == domain.KindEmailOTP {
		return security.RandomDigits(6)
	}
	return security.RandomToken(32)
}

type memTokenStore struct {
	mu      sync.Mutex
	byToken map[string]*domain.TokenRecord // token -> record
	byKey   map[string]string              // ownerID|kind -> token
}

func NewMemTokenStore() domain.TokenStore {
	return &memTokenStore{
		byToken: make(map[string]*domain.TokenRecord),
		byKey:   make(map[string]string),
	}
}

func key(ownerID string, kind domain.TokenKind) string {
	return ownerID + "|" + string(kind)
}

func (s *memTokenStore) Issue(ownerID string, kind domain.TokenKind, ttl time.Duration) (*domain.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Regenerate on a value collision with a record under another key.
	// Only plausible in the 6-digit OTP space.
	var val string
	for attempt := 0; ; attempt++ {
		v, err := tokenValue(kind)
		if err != nil {
			return nil, err
		}
		if _, taken := s.byToken[v]; !taken || s.byKey[key(ownerID, kind)] == v {
			val = v
			break
		}
		if attempt == 2 {
			return nil, domain.ErrConflict
		}
	}

	now := time.Now().UTC()
	rec := &domain.TokenRecord{
		Token:     val,
		OwnerID:   ownerID,
		Kind:      kind,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	// replace, never accumulate: one live record per (owner, kind)
	if old, ok := s.byKey[key(ownerID, kind)]; ok {
		delete(s.byToken, old)
	}
	s.byToken[val] = rec
	s.byKey[key(ownerID, kind)] = val
	cp := *rec
	return &cp, nil
}

func (s *memTokenStore) Resolve(token string, kind domain.TokenKind) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byToken[token]
	if !ok || rec.Kind != kind {
		return "", domain.ErrTokenNotFound
	}
	if !time.Now().UTC().Before(rec.ExpiresAt) {
		return "", domain.ErrTokenExpired
	}
	return rec.OwnerID, nil
}

func (s *memTokenStore) Consume(token string, kind domain.TokenKind) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byToken[token]
	if !ok || rec.Kind != kind {
		return "", domain.ErrTokenNotFound
	}
	if !time.Now().UTC().Before(rec.ExpiresAt) {
		return "", domain.ErrTokenExpired
	}
	delete(s.byToken, token)
	delete(s.byKey, key(rec.OwnerID, rec.Kind))
	return rec.OwnerID, nil
}

func (s *memTokenStore) RevokeAll(ownerID string, kind domain.TokenKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok, ok := s.byKey[key(ownerID, kind)]; ok {
		delete(s.byToken, tok)
		delete(s.byKey, key(ownerID, kind))
	}
	return nil
}

func (s *memTokenStore) SweepExpired() (int, error) {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for tok, rec := range s.byToken {
		if !now.Before(rec.ExpiresAt) {
			delete(s.byToken, tok)
			delete(s.byKey, key(rec.OwnerID, rec.Kind))
			count++
		}
	}
	return count, nil
}

type MemDirectory struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Principal
	byEmail map[string]string
}

func NewMemDirectory() *MemDirectory {
	return &MemDirectory{
		byID:    make(map[string]*domain.Principal),
		byEmail: make(map[string]string),
	}
}

// Add seeds a principal; used by dev wiring and tests.
func (d *MemDirectory) Add(p domain.Principal) *domain.Principal {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.CreatedAt, p.UpdatedAt = now, now
	cp := p
	d.byID[p.ID] = &cp
	d.byEmail[p.Email] = p.ID
	return &cp
}

func (d *MemDirectory) FindByContact(email string) (*domain.Principal, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	cp := *d.byID[id]
	return &cp, nil
}

func (d *MemDirectory) Lookup(ownerID string) (*domain.Principal, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.byID[ownerID]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	cp := *p
	return &cp, nil
}

func (d *MemDirectory) GetDigest(ownerID string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.byID[ownerID]
	if !ok || p.CredentialDigest == nil {
		return "", domain.ErrPrincipalNotFound
	}
	return *p.CredentialDigest, nil
}

func (d *MemDirectory) SetDigest(ownerID string, digest string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.byID[ownerID]
	if !ok {
		return domain.ErrPrincipalNotFound
	}
	p.CredentialDigest = &digest
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (d *MemDirectory) MarkVerified(ownerID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.byID[ownerID]
	if !ok {
		return domain.ErrPrincipalNotFound
	}
	p.EmailVerified = true
	p.UpdatedAt = time.Now().UTC()
	return nil
}
