package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/domain"
	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/infra"
)

func TestSweeperReclaimsExpired(t *testing.T) {
	tokens := infra.NewMemTokenStore()

	dead, err := tokens.Issue("owner-1", domain.KindSession, -time.Minute)
	require.NoError(t, err)
	live, err := tokens.Issue("owner-2", domain.KindSession, time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewSweeper(tokens, 5*time.Millisecond).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, err := tokens.Resolve(dead.Token, domain.KindSession)
		return err == domain.ErrTokenNotFound
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	_, err = tokens.Resolve(live.Token, domain.KindSession)
	require.NoError(t, err)
}
