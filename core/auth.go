package core

import "time"

// Role classifies an authenticated wallet. It is fixed on the session at
// issuance time and is never re-evaluated while the session lives.
type Role string

const (
	// RoleAdmin is granted to wallets on the configured allow-list.
	RoleAdmin Role = "admin"

	// RoleOwner is the default role for every other wallet.
	RoleOwner Role = "owner"
)

// Actor identifies which tier of the authorization procedure granted access.
type Actor string

const (
	ActorInternal Actor = "internal"
	ActorAdmin    Actor = "admin"
	ActorOwner    Actor = "owner"
)

// Challenge is a single-use, time-boxed authentication challenge. At most
// one live challenge exists per wallet; issuing a new one supersedes it.
type Challenge struct {
	Wallet    string    // lower-cased wallet address the challenge was issued for
	Nonce     string    // random value embedded in the message
	Message   string    // exact byte string the wallet must sign
	IssuedAt  time.Time // when the challenge was created
	ExpiresAt time.Time // when the challenge stops being verifiable
}

// Session is an authenticated wallet session, looked up by its opaque
// bearer token.
type Session struct {
	Token     string    `json:"token"`
	Wallet    string    `json:"wallet"` // lower-cased
	Role      Role      `json:"role"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Credential carries the optional credentials extracted from a request.
// Either field may be empty; the authorization engine decides which, if
// any, grants access.
type Credential struct {
	InternalKey  string // pre-shared internal service key, empty when absent
	SessionToken string // opaque bearer token, empty when absent
}
