package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/certlayer/certlayer/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengePutOverwrites(t *testing.T) {
	s := NewMemoryChallengeStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, core.Challenge{Wallet: "0xabc", Nonce: "first"}))
	require.NoError(t, s.Put(ctx, core.Challenge{Wallet: "0xabc", Nonce: "second"}))

	got, ok, err := s.Get(ctx, "0xabc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", got.Nonce)
}

func TestChallengeConsume(t *testing.T) {
	s := NewMemoryChallengeStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, core.Challenge{Wallet: "0xabc"}))

	ok, err := s.Consume(ctx, "0xabc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Consume(ctx, "0xabc")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Get(ctx, "0xabc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChallengeConsumeExactlyOnceUnderContention(t *testing.T) {
	s := NewMemoryChallengeStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, core.Challenge{Wallet: "0xabc"}))

	const racers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			ok, err := s.Consume(ctx, "0xabc")
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestSessionStoreLifecycle(t *testing.T) {
	s := NewMemorySessionStore()
	ctx := context.Background()

	session := core.Session{
		Token:     "tok-1",
		Wallet:    "0xabc",
		Role:      core.RoleOwner,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, s.Put(ctx, session))

	got, ok, err := s.Get(ctx, "tok-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, session.Wallet, got.Wallet)

	_, ok, err = s.Get(ctx, "tok-2")
	require.NoError(t, err)
	assert.False(t, ok)

	// Delete is unconditional and repeatable.
	require.NoError(t, s.Delete(ctx, "tok-1"))
	require.NoError(t, s.Delete(ctx, "tok-1"))

	_, ok, err = s.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, ok)
}
