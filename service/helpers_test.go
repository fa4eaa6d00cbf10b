package service

import (
	"context"
	"crypto/ecdsa"
	"sync"
	"testing"
	"time"

	"github.com/certlayer/certlayer/adapters/registry"
	"github.com/certlayer/certlayer/adapters/store"
	"github.com/certlayer/certlayer/core"
	"github.com/certlayer/certlayer/internal/eth"
	"github.com/certlayer/certlayer/ports"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu        sync.Mutex
	logins    []string
	logouts   []string
	protocols []string
	incidents []string
}

func (p *recordingPublisher) PublishLogin(ctx context.Context, wallet string, role core.Role) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logins = append(p.logins, wallet)
	return nil
}

func (p *recordingPublisher) PublishLogout(ctx context.Context, wallet string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logouts = append(p.logouts, wallet)
	return nil
}

func (p *recordingPublisher) PublishProtocolRegistered(ctx context.Context, protocol core.Protocol) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.protocols = append(p.protocols, protocol.ID)
	return nil
}

func (p *recordingPublisher) PublishIncidentCreated(ctx context.Context, incident core.Incident) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.incidents = append(p.incidents, incident.ID)
	return nil
}

var _ ports.EventPublisher = (*recordingPublisher)(nil)

// countingRegistry wraps a Registry and counts ownership lookups so tests
// can assert which authorization tiers consult the ownership fact.
type countingRegistry struct {
	ports.Registry
	mu      sync.Mutex
	lookups int
}

func (r *countingRegistry) LookupOwner(ctx context.Context, protocolID string) (string, error) {
	r.mu.Lock()
	r.lookups++
	r.mu.Unlock()
	return r.Registry.LookupOwner(ctx, protocolID)
}

func (r *countingRegistry) lookupCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups
}

type testEnv struct {
	clock      *fakeClock
	events     *recordingPublisher
	challenges *store.MemoryChallengeStore
	sessions   *store.MemorySessionStore
	registry   *countingRegistry
	auth       *AuthService
}

func newTestEnv(t *testing.T, adminWallets ...string) *testEnv {
	t.Helper()

	clock := newFakeClock()
	env := &testEnv{
		clock:      clock,
		events:     &recordingPublisher{},
		challenges: store.NewMemoryChallengeStore(),
		sessions:   store.NewMemorySessionStore(),
		registry:   &countingRegistry{Registry: registry.NewMemoryRegistry(clock)},
	}
	env.auth = NewAuthService(env.challenges, env.sessions, env.events, clock, adminWallets, 0, 0)
	return env
}

// newWallet generates a fresh secp256k1 key and its checksum address.
func newWallet(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, crypto.PubkeyToAddress(key.PublicKey).Hex()
}

// signChallenge signs a challenge message the way a wallet would.
func signChallenge(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()

	sig, err := eth.PersonalSign([]byte(message), key)
	require.NoError(t, err)
	return sig
}

// login runs the full challenge/verify/session flow for a wallet and
// returns the minted session.
func login(t *testing.T, env *testEnv, key *ecdsa.PrivateKey, wallet string) core.Session {
	t.Helper()

	ctx := context.Background()
	challenge, err := env.auth.IssueChallenge(ctx, wallet)
	require.NoError(t, err)

	sig := signChallenge(t, key, challenge.Message)
	role, err := env.auth.VerifyAndConsume(ctx, wallet, sig)
	require.NoError(t, err)

	session, err := env.auth.CreateSession(ctx, wallet, role)
	require.NoError(t, err)
	return session
}
