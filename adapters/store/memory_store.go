package store

import (
	"context"
	"sync"

	"github.com/certlayer/certlayer/core"
	"github.com/certlayer/certlayer/ports"
)

// MemoryChallengeStore is an in-memory ChallengeStore. The challenge table
// and the session table are independent resources, so each store carries
// its own lock.
type MemoryChallengeStore struct {
	mu         sync.RWMutex
	challenges map[string]core.Challenge
}

// NewMemoryChallengeStore creates an empty in-memory challenge store.
func NewMemoryChallengeStore() *MemoryChallengeStore {
	return &MemoryChallengeStore{
		challenges: make(map[string]core.Challenge),
	}
}

// Put stores a challenge under its wallet, overwriting any prior entry.
func (s *MemoryChallengeStore) Put(ctx context.Context, challenge core.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.challenges[challenge.Wallet] = challenge
	return nil
}

// Get returns the stored challenge for the wallet, if any.
func (s *MemoryChallengeStore) Get(ctx context.Context, wallet string) (core.Challenge, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	challenge, ok := s.challenges[wallet]
	return challenge, ok, nil
}

// Consume deletes the wallet's challenge under the write lock, so of
// several concurrent callers exactly one observes true.
func (s *MemoryChallengeStore) Consume(ctx context.Context, wallet string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.challenges[wallet]
	if ok {
		delete(s.challenges, wallet)
	}
	return ok, nil
}

// MemorySessionStore is an in-memory SessionStore.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]core.Session
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]core.Session),
	}
}

// Put stores a session under its token.
func (s *MemorySessionStore) Put(ctx context.Context, session core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.Token] = session
	return nil
}

// Get returns the stored session for the token, if any.
func (s *MemorySessionStore) Get(ctx context.Context, token string) (core.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	return session, ok, nil
}

// Delete removes the session unconditionally.
func (s *MemorySessionStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}

var (
	_ ports.ChallengeStore = (*MemoryChallengeStore)(nil)
	_ ports.SessionStore   = (*MemorySessionStore)(nil)
)
