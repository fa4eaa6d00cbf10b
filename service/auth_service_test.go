package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/certlayer/certlayer/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueChallengeRejectsMalformedWallet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, wallet := range []string{"", "0x1234", "not-an-address", "0xZZ71C7656EC7ab88b098defB751B7401B5f6d8976F"} {
		_, err := env.auth.IssueChallenge(ctx, wallet)
		assert.ErrorIs(t, err, core.ErrInvalidWallet, "wallet %q", wallet)
	}
}

func TestIssueChallengeMessageAndExpiry(t *testing.T) {
	env := newTestEnv(t)
	_, wallet := newWallet(t)

	challenge, err := env.auth.IssueChallenge(context.Background(), wallet)
	require.NoError(t, err)

	assert.Equal(t, strings.ToLower(wallet), challenge.Wallet)
	assert.Contains(t, challenge.Message, challenge.Wallet)
	assert.Contains(t, challenge.Message, challenge.Nonce)
	assert.Contains(t, challenge.Message, "no funds will be moved")
	assert.Len(t, challenge.Nonce, 64) // 32 random bytes, hex
	assert.Equal(t, env.clock.Now().Add(DefaultChallengeTTL), challenge.ExpiresAt)
}

func TestVerifyAndConsumeHappyPathThenReplay(t *testing.T) {
	env := newTestEnv(t)
	key, wallet := newWallet(t)
	ctx := context.Background()

	challenge, err := env.auth.IssueChallenge(ctx, wallet)
	require.NoError(t, err)

	sig := signChallenge(t, key, challenge.Message)
	role, err := env.auth.VerifyAndConsume(ctx, wallet, sig)
	require.NoError(t, err)
	assert.Equal(t, core.RoleOwner, role)

	// The challenge was consumed: the same signature can never verify again.
	_, err = env.auth.VerifyAndConsume(ctx, wallet, sig)
	assert.ErrorIs(t, err, core.ErrChallengeNotFound)
}

func TestVerifyAndConsumeNoChallenge(t *testing.T) {
	env := newTestEnv(t)
	key, wallet := newWallet(t)

	sig := signChallenge(t, key, "anything")
	_, err := env.auth.VerifyAndConsume(context.Background(), wallet, sig)
	assert.ErrorIs(t, err, core.ErrChallengeNotFound)
}

func TestVerifyAndConsumeExpiredChallenge(t *testing.T) {
	env := newTestEnv(t)
	key, wallet := newWallet(t)
	ctx := context.Background()

	challenge, err := env.auth.IssueChallenge(ctx, wallet)
	require.NoError(t, err)
	sig := signChallenge(t, key, challenge.Message)

	env.clock.Advance(DefaultChallengeTTL + time.Second)

	// Even a correct signature fails once the TTL elapsed, and the stale
	// entry is dropped.
	_, err = env.auth.VerifyAndConsume(ctx, wallet, sig)
	assert.ErrorIs(t, err, core.ErrChallengeNotFound)

	_, ok, err := env.challenges.Get(ctx, challenge.Wallet)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyAndConsumeWrongSigner(t *testing.T) {
	env := newTestEnv(t)
	_, wallet := newWallet(t)
	otherKey, _ := newWallet(t)
	ctx := context.Background()

	challenge, err := env.auth.IssueChallenge(ctx, wallet)
	require.NoError(t, err)

	sig := signChallenge(t, otherKey, challenge.Message)
	_, err = env.auth.VerifyAndConsume(ctx, wallet, sig)
	assert.ErrorIs(t, err, core.ErrSignatureMismatch)

	// A failed attempt does not consume the challenge; the rightful
	// signer can still complete it.
	_, ok, err := env.challenges.Get(ctx, challenge.Wallet)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyAndConsumeSupersededChallenge(t *testing.T) {
	env := newTestEnv(t)
	key, wallet := newWallet(t)
	ctx := context.Background()

	first, err := env.auth.IssueChallenge(ctx, wallet)
	require.NoError(t, err)
	firstSig := signChallenge(t, key, first.Message)

	// A second request supersedes the first; only the newest challenge
	// per wallet is valid.
	second, err := env.auth.IssueChallenge(ctx, wallet)
	require.NoError(t, err)
	require.NotEqual(t, first.Nonce, second.Nonce)

	_, err = env.auth.VerifyAndConsume(ctx, wallet, firstSig)
	assert.Error(t, err)

	// The superseded signature did not burn the live challenge.
	secondSig := signChallenge(t, key, second.Message)
	role, err := env.auth.VerifyAndConsume(ctx, wallet, secondSig)
	require.NoError(t, err)
	assert.Equal(t, core.RoleOwner, role)
}

func TestVerifyAndConsumeMalformedSignature(t *testing.T) {
	env := newTestEnv(t)
	_, wallet := newWallet(t)
	ctx := context.Background()

	_, err := env.auth.IssueChallenge(ctx, wallet)
	require.NoError(t, err)

	for _, sig := range []string{"0x1234", "garbage"} {
		_, err = env.auth.VerifyAndConsume(ctx, wallet, sig)
		assert.ErrorIs(t, err, core.ErrInvalidSignature, "signature %q", sig)
	}

	_, err = env.auth.VerifyAndConsume(ctx, wallet, "")
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestVerifyAndConsumeCaseInsensitiveWallet(t *testing.T) {
	env := newTestEnv(t)
	key, wallet := newWallet(t)
	ctx := context.Background()

	// Issue with the checksum form, verify with the upper-cased form.
	challenge, err := env.auth.IssueChallenge(ctx, wallet)
	require.NoError(t, err)

	sig := signChallenge(t, key, challenge.Message)
	upper := "0x" + strings.ToUpper(strings.TrimPrefix(wallet, "0x"))
	role, err := env.auth.VerifyAndConsume(ctx, upper, sig)
	require.NoError(t, err)
	assert.Equal(t, core.RoleOwner, role)
}

func TestResolveRole(t *testing.T) {
	_, admin := newWallet(t)
	env := newTestEnv(t, strings.ToUpper(admin))

	assert.Equal(t, core.RoleAdmin, env.auth.ResolveRole(admin))
	assert.Equal(t, core.RoleAdmin, env.auth.ResolveRole(strings.ToLower(admin)))

	_, other := newWallet(t)
	assert.Equal(t, core.RoleOwner, env.auth.ResolveRole(other))
	// Malformed input is never elevated.
	assert.Equal(t, core.RoleOwner, env.auth.ResolveRole(""))
	assert.Equal(t, core.RoleOwner, env.auth.ResolveRole("garbage"))
}

func TestAdminLoginGetsAdminRole(t *testing.T) {
	key, admin := newWallet(t)
	env := newTestEnv(t, admin)

	session := login(t, env, key, admin)
	assert.Equal(t, core.RoleAdmin, session.Role)
	assert.Equal(t, []string{session.Wallet}, env.events.logins)
}

func TestCreateSessionAndValidate(t *testing.T) {
	env := newTestEnv(t)
	_, wallet := newWallet(t)
	ctx := context.Background()

	session, err := env.auth.CreateSession(ctx, wallet, core.RoleOwner)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, env.clock.Now().Add(DefaultSessionTTL), session.ExpiresAt)

	got, ok, err := env.auth.Validate(ctx, session.Token)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, session.Wallet, got.Wallet)
	assert.Equal(t, core.RoleOwner, got.Role)

	_, ok, err = env.auth.Validate(ctx, "no-such-token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidateNeverReturnsExpiredSession(t *testing.T) {
	env := newTestEnv(t)
	_, wallet := newWallet(t)
	ctx := context.Background()

	session, err := env.auth.CreateSession(ctx, wallet, core.RoleOwner)
	require.NoError(t, err)

	env.clock.Advance(DefaultSessionTTL)

	_, ok, err := env.auth.Validate(ctx, session.Token)
	require.NoError(t, err)
	assert.False(t, ok)

	// The expired entry was dropped lazily.
	_, ok, err = env.sessions.Get(ctx, session.Token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionRoleFrozenAfterAllowListChange(t *testing.T) {
	env := newTestEnv(t)
	key, wallet := newWallet(t)

	session := login(t, env, key, wallet)
	require.Equal(t, core.RoleOwner, session.Role)

	// A restart with the wallet now allow-listed shares the session store
	// but must not retroactively elevate the old session.
	promoted := NewAuthService(env.challenges, env.sessions, env.events, env.clock, []string{wallet}, 0, 0)
	got, ok, err := promoted.Validate(context.Background(), session.Token)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, core.RoleOwner, got.Role)

	// A fresh login picks up the change.
	fresh := &testEnv{
		clock:      env.clock,
		events:     env.events,
		challenges: env.challenges,
		sessions:   env.sessions,
		auth:       promoted,
	}
	session = login(t, fresh, key, wallet)
	assert.Equal(t, core.RoleAdmin, session.Role)
}

func TestRevokeIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	key, wallet := newWallet(t)
	ctx := context.Background()

	session := login(t, env, key, wallet)

	require.NoError(t, env.auth.Revoke(ctx, session.Token))
	_, ok, err := env.auth.Validate(ctx, session.Token)
	require.NoError(t, err)
	assert.False(t, ok)

	// Revoking again, or revoking garbage, still succeeds.
	require.NoError(t, env.auth.Revoke(ctx, session.Token))
	require.NoError(t, env.auth.Revoke(ctx, "no-such-token"))

	assert.Equal(t, []string{session.Wallet}, env.events.logouts)
}
