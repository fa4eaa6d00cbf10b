package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/certlayer/certlayer/core"
	"github.com/certlayer/certlayer/ports"
)

// Decision is a positive authorization outcome: which tier granted access
// and, for the session tiers, the session that carried it.
type Decision struct {
	Actor   core.Actor
	Session *core.Session // nil when Actor is ActorInternal
}

// AuthorizationEngine applies the tiered access decision for
// protocol-scoped operations. The tiers are evaluated strictly in order;
// the first match wins and there is no default-allow.
type AuthorizationEngine struct {
	auth     *AuthService
	registry ports.Registry

	// internalKey is the pre-shared internal service credential. An empty
	// value means no key is configured and the internal tier is OPEN:
	// every caller passes tier 1. This mirrors the original deployment's
	// local/dev default and is an operational hazard; set
	// INTERNAL_API_KEY in any real deployment.
	internalKey string
}

// NewAuthorizationEngine creates an engine over the given session source
// and ownership-fact collaborator.
func NewAuthorizationEngine(auth *AuthService, registry ports.Registry, internalKey string) *AuthorizationEngine {
	return &AuthorizationEngine{
		auth:        auth,
		registry:    registry,
		internalKey: internalKey,
	}
}

// InternalAllowed reports whether the credential passes the internal tier.
func (e *AuthorizationEngine) InternalAllowed(cred core.Credential) bool {
	if e.internalKey == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(cred.InternalKey), []byte(e.internalKey)) == 1
}

// Decide runs the full decision procedure for a protocol-scoped write:
//
//	1. internal credential correct (or none configured)  -> allow internal
//	2. no valid session                                  -> SessionRequired
//	3. session role admin                                -> allow admin
//	4. session role owner: empty protocol id             -> ProtocolIdRequired
//	   unknown protocol                                  -> ProtocolNotFound
//	   owner wallet == session wallet                    -> allow owner
//	   otherwise                                         -> Forbidden
func (e *AuthorizationEngine) Decide(ctx context.Context, cred core.Credential, protocolID string) (Decision, error) {
	// Tier 1: internal service credential, bypasses all ownership checks.
	if e.InternalAllowed(cred) {
		return Decision{Actor: core.ActorInternal}, nil
	}

	// Tier 2: a valid session is required from here on.
	session, ok, err := e.auth.Validate(ctx, cred.SessionToken)
	if err != nil {
		return Decision{}, fmt.Errorf("session lookup: %w", err)
	}
	if !ok {
		return Decision{}, core.ErrSessionRequired
	}

	// Tier 3: admin bypasses ownership matching.
	if session.Role == core.RoleAdmin {
		return Decision{Actor: core.ActorAdmin, Session: &session}, nil
	}

	// Tier 4: owner must match the protocol's ownership fact.
	if protocolID == "" {
		return Decision{}, core.ErrProtocolIDRequired
	}
	owner, err := e.registry.LookupOwner(ctx, protocolID)
	if err != nil {
		if errors.Is(err, core.ErrProtocolNotFound) {
			return Decision{}, core.ErrProtocolNotFound
		}
		return Decision{}, fmt.Errorf("ownership lookup: %w", err)
	}
	if owner == session.Wallet {
		return Decision{Actor: core.ActorOwner, Session: &session}, nil
	}
	return Decision{}, core.ErrForbidden
}

// DecideRead runs tiers 1-3 for read paths that scope results instead of
// matching a single protocol. An owner outcome means "scope to the
// session's wallet"; the absence of any credential is SessionRequired, so
// callers cannot confuse "no session" with "owns nothing".
func (e *AuthorizationEngine) DecideRead(ctx context.Context, cred core.Credential) (Decision, error) {
	if e.InternalAllowed(cred) {
		return Decision{Actor: core.ActorInternal}, nil
	}

	session, ok, err := e.auth.Validate(ctx, cred.SessionToken)
	if err != nil {
		return Decision{}, fmt.Errorf("session lookup: %w", err)
	}
	if !ok {
		return Decision{}, core.ErrSessionRequired
	}

	if session.Role == core.RoleAdmin {
		return Decision{Actor: core.ActorAdmin, Session: &session}, nil
	}
	return Decision{Actor: core.ActorOwner, Session: &session}, nil
}

// SessionOf resolves the credential's session without applying the tier
// order, for the self-registration gate where a session only attributes
// ownership.
func (e *AuthorizationEngine) SessionOf(ctx context.Context, cred core.Credential) (core.Session, bool, error) {
	return e.auth.Validate(ctx, cred.SessionToken)
}
