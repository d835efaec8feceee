package infra

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/domain"
)

func TestIssueReplacesPriorToken(t *testing.T) {
	store := NewMemTokenStore()

	first, err := store.Issue("owner-42", domain.KindPasswordReset, time.Hour)
	require.NoError(t, err)
	second, err := store.Issue("owner-42", domain.KindPasswordReset, time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	// the replaced token is dead, the new one resolves
	_, err = store.Resolve(first.Token, domain.KindPasswordReset)
	require.ErrorIs(t, err, domain.ErrTokenNotFound)

	owner, err := store.Resolve(second.Token, domain.KindPasswordReset)
	require.NoError(t, err)
	require.Equal(t, "owner-42", owner)
}

func TestKindsAreIndependent(t *testing.T) {
	store := NewMemTokenStore()

	reset, err := store.Issue("owner-1", domain.KindPasswordReset, time.Hour)
	require.NoError(t, err)
	otp, err := store.Issue("owner-1", domain.KindEmailOTP, 10*time.Minute)
	require.NoError(t, err)

	// issuing an OTP must not evict the in-flight reset token
	owner, err := store.Resolve(reset.Token, domain.KindPasswordReset)
	require.NoError(t, err)
	require.Equal(t, "owner-1", owner)

	owner, err = store.Resolve(otp.Token, domain.KindEmailOTP)
	require.NoError(t, err)
	require.Equal(t, "owner-1", owner)
}

func TestResolveWrongKind(t *testing.T) {
	store := NewMemTokenStore()
	rec, err := store.Issue("owner-1", domain.KindSession, time.Hour)
	require.NoError(t, err)

	_, err = store.Resolve(rec.Token, domain.KindPasswordReset)
	require.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestConsumeIsSingleUse(t *testing.T) {
	store := NewMemTokenStore()
	rec, err := store.Issue("owner-1", domain.KindVerificationLink, time.Hour)
	require.NoError(t, err)

	owner, err := store.Consume(rec.Token, domain.KindVerificationLink)
	require.NoError(t, err)
	require.Equal(t, "owner-1", owner)

	_, err = store.Consume(rec.Token, domain.KindVerificationLink)
	require.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestExpiredRejectedBeforeSweep(t *testing.T) {
	store := NewMemTokenStore()
	rec, err := store.Issue("owner-1", domain.KindSession, -time.Minute)
	require.NoError(t, err)

	_, err = store.Resolve(rec.Token, domain.KindSession)
	require.ErrorIs(t, err, domain.ErrTokenExpired)
	_, err = store.Consume(rec.Token, domain.KindSession)
	require.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestRevokeAll(t *testing.T) {
	store := NewMemTokenStore()
	rec, err := store.Issue("owner-1", domain.KindSession, time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.RevokeAll("owner-1", domain.KindSession))
	_, err = store.Resolve(rec.Token, domain.KindSession)
	require.ErrorIs(t, err, domain.ErrTokenNotFound)

	// revoking again is a no-op
	require.NoError(t, store.RevokeAll("owner-1", domain.KindSession))
}

func TestSweepExpired(t *testing.T) {
	store := NewMemTokenStore()
	_, err := store.Issue("owner-1", domain.KindSession, -time.Minute)
	require.NoError(t, err)
	_, err = store.Issue("owner-2", domain.KindSession, -time.Minute)
	require.NoError(t, err)
	live, err := store.Issue("owner-3", domain.KindSession, time.Hour)
	require.NoError(t, err)

	n, err := store.SweepExpired()
	require.NoError(t, err)
	require.Equal(t, 2, n)

	owner, err := store.Resolve(live.Token, domain.KindSession)
	require.NoError(t, err)
	require.Equal(t, "owner-3", owner)
}

func TestConcurrentIssueLeavesOneWinner(t *testing.T) {
	store := NewMemTokenStore()

	const workers = 32
	tokens := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := store.Issue("owner-42", domain.KindPasswordReset, time.Hour)
			if err != nil {
				errs[i] = err
				return
			}
			tokens[i] = rec.Token
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	alive := 0
	for _, tok := range tokens {
		if _, err := store.Resolve(tok, domain.KindPasswordReset); err == nil {
			alive++
		}
	}
	require.Equal(t, 1, alive)
}

func TestConcurrentConsumeSingleSuccess(t *testing.T) {
	store := NewMemTokenStore()
	rec, err := store.Issue("owner-1", domain.KindPasswordReset, time.Hour)
	require.NoError(t, err)

	const workers = 16
	var wg sync.WaitGroup
	var successes int32
	var mu sync.Mutex
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Consume(rec.Token, domain.KindPasswordReset); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, successes)
}

func TestOTPValuesAreSixDigits(t *testing.T) {
	store := NewMemTokenStore()
	rec, err := store.Issue("owner-1", domain.KindEmailOTP, 10*time.Minute)
	require.NoError(t, err)
	require.Len(t, rec.Token, 6)

	long, err := store.Issue("owner-1", domain.KindSession, time.Hour)
	require.NoError(t, err)
	require.Len(t, long.Token, 64)
}

func TestIssueTimestamps(t *testing.T) {
	store := NewMemTokenStore()
	rec, err := store.Issue("owner-1", domain.KindSession, time.Hour)
	require.NoError(t, err)
	require.True(t, rec.ExpiresAt.After(rec.IssuedAt))
	require.WithinDuration(t, rec.IssuedAt.Add(time.Hour), rec.ExpiresAt, time.Second)
}
