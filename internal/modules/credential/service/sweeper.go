package service

import (
	"context"
	"log"
	"time"

	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/domain"
)

// Sweeper reclaims expired token records on a timer. Best effort only:
// Resolve and Consume already treat expired records as invalid, so a failed
// or skipped sweep costs storage, not correctness.
type Sweeper struct {
	tokens   domain.TokenStore
	interval time.Duration
}

func NewSweeper(tokens domain.TokenStore, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Sweeper{tokens: tokens, interval: interval}
}

// Run blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.tokens.SweepExpired()
			if err != nil {
				log.Printf("credential: sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("credential: swept %d expired tokens", n)
			}
		}
	}
}
