package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/certlayer/certlayer/core"
	"github.com/certlayer/certlayer/internal/eth"
	"github.com/certlayer/certlayer/ports"
)

const (
	// DefaultChallengeTTL bounds how long an issued challenge stays
	// verifiable.
	DefaultChallengeTTL = 10 * time.Minute

	// DefaultSessionTTL bounds how long a minted session stays valid.
	DefaultSessionTTL = 24 * time.Hour
)

// challengeTemplate is the exact byte layout the wallet signs. The
// verifier never re-parses it; the message only matters as the byte string
// whose signature must recover to the claimed wallet.
const challengeTemplate = `CertLayer wants you to sign in with your wallet:
%s

Nonce: %s
Issued At: %s

This signature proves you control this wallet. It does not authorize a
transaction and no funds will be moved.`

// AuthService implements challenge issuance, signed-challenge verification
// with single-use enforcement, role resolution and the session lifecycle.
type AuthService struct {
	challenges ports.ChallengeStore
	sessions   ports.SessionStore
	events     ports.EventPublisher
	clock      ports.Clock

	admins       map[string]struct{}
	challengeTTL time.Duration
	sessionTTL   time.Duration
}

// NewAuthService creates a new authentication service. adminWallets is the
// static allow-list; it is normalized once here and never mutated.
// Non-positive TTLs fall back to the defaults.
func NewAuthService(
	challenges ports.ChallengeStore,
	sessions ports.SessionStore,
	events ports.EventPublisher,
	clock ports.Clock,
	adminWallets []string,
	challengeTTL time.Duration,
	sessionTTL time.Duration,
) *AuthService {
	admins := make(map[string]struct{}, len(adminWallets))
	for _, wallet := range adminWallets {
		if normalized := eth.Normalize(wallet); normalized != "" {
			admins[normalized] = struct{}{}
		}
	}

	if challengeTTL <= 0 {
		challengeTTL = DefaultChallengeTTL
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}

	return &AuthService{
		challenges:   challenges,
		sessions:     sessions,
		events:       events,
		clock:        clock,
		admins:       admins,
		challengeTTL: challengeTTL,
		sessionTTL:   sessionTTL,
	}
}

// IssueChallenge creates a fresh challenge for the wallet, superseding any
// prior unconsumed one: only the most recent challenge per wallet is valid.
func (s *AuthService) IssueChallenge(ctx context.Context, wallet string) (core.Challenge, error) {
	if !eth.ValidAddress(wallet) {
		return core.Challenge{}, core.ErrInvalidWallet
	}
	wallet = eth.Normalize(wallet)

	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return core.Challenge{}, fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(nonceBytes)

	now := s.clock.Now()
	challenge := core.Challenge{
		Wallet:    wallet,
		Nonce:     nonce,
		Message:   fmt.Sprintf(challengeTemplate, wallet, nonce, now.UTC().Format(time.RFC3339)),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.challengeTTL),
	}

	if err := s.challenges.Put(ctx, challenge); err != nil {
		return core.Challenge{}, fmt.Errorf("failed to store challenge: %w", err)
	}
	return challenge, nil
}

// VerifyAndConsume checks the signature against the wallet's stored
// challenge and consumes the challenge on success. A wrong signature does
// not consume the challenge; only success does. Of two concurrent attempts
// against the same challenge at most one succeeds, the other loses the
// consume race and reports the challenge gone.
func (s *AuthService) VerifyAndConsume(ctx context.Context, wallet, signature string) (core.Role, error) {
	if !eth.ValidAddress(wallet) {
		return "", core.ErrInvalidWallet
	}
	if signature == "" {
		return "", core.ErrInvalidSignature
	}
	wallet = eth.Normalize(wallet)

	challenge, ok, err := s.challenges.Get(ctx, wallet)
	if err != nil {
		return "", fmt.Errorf("failed to load challenge: %w", err)
	}
	if !ok {
		return "", core.ErrChallengeNotFound
	}
	if !s.clock.Now().Before(challenge.ExpiresAt) {
		// Stale entry: remove it lazily and report it gone.
		if _, err := s.challenges.Consume(ctx, wallet); err != nil {
			return "", fmt.Errorf("failed to drop expired challenge: %w", err)
		}
		return "", core.ErrChallengeNotFound
	}

	recovered, err := eth.RecoverAddress([]byte(challenge.Message), signature)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrInvalidSignature, err)
	}
	if eth.Normalize(recovered.Hex()) != wallet {
		return "", core.ErrSignatureMismatch
	}

	consumed, err := s.challenges.Consume(ctx, wallet)
	if err != nil {
		return "", fmt.Errorf("failed to consume challenge: %w", err)
	}
	if !consumed {
		// A concurrent verification won the race.
		return "", core.ErrChallengeNotFound
	}

	return s.ResolveRole(wallet), nil
}

// ResolveRole classifies a wallet against the static allow-list. Anything
// not on the list, malformed input included, is an owner; malformed input
// is never elevated.
func (s *AuthService) ResolveRole(wallet string) core.Role {
	if _, ok := s.admins[eth.Normalize(wallet)]; ok {
		return core.RoleAdmin
	}
	return core.RoleOwner
}

// CreateSession mints a session bound to (wallet, role). The role is fixed
// for the session's lifetime; allow-list changes only take effect on
// re-authentication.
func (s *AuthService) CreateSession(ctx context.Context, wallet string, role core.Role) (core.Session, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return core.Session{}, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.clock.Now()
	session := core.Session{
		Token:     base64.RawURLEncoding.EncodeToString(tokenBytes),
		Wallet:    eth.Normalize(wallet),
		Role:      role,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	if err := s.sessions.Put(ctx, session); err != nil {
		return core.Session{}, fmt.Errorf("failed to store session: %w", err)
	}

	if err := s.events.PublishLogin(ctx, session.Wallet, role); err != nil {
		log.Printf("warning: failed to publish login event: %v", err)
	}
	return session, nil
}

// Validate resolves a bearer token to its session. Expired entries are
// deleted lazily and reported the same as absent ones.
func (s *AuthService) Validate(ctx context.Context, token string) (core.Session, bool, error) {
	if token == "" {
		return core.Session{}, false, nil
	}

	session, ok, err := s.sessions.Get(ctx, token)
	if err != nil {
		return core.Session{}, false, fmt.Errorf("failed to load session: %w", err)
	}
	if !ok {
		return core.Session{}, false, nil
	}
	if !s.clock.Now().Before(session.ExpiresAt) {
		if err := s.sessions.Delete(ctx, token); err != nil {
			return core.Session{}, false, fmt.Errorf("failed to drop expired session: %w", err)
		}
		return core.Session{}, false, nil
	}
	return session, true, nil
}

// Revoke signs the session out. Idempotent: revoking an unknown or already
// revoked token succeeds.
func (s *AuthService) Revoke(ctx context.Context, token string) error {
	session, ok, err := s.sessions.Get(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if ok {
		if err := s.events.PublishLogout(ctx, session.Wallet); err != nil {
			log.Printf("warning: failed to publish logout event: %v", err)
		}
	}
	return nil
}
