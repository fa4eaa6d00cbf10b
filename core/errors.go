package core

import "errors"

var (
	// ErrInvalidWallet is returned when a wallet address is malformed.
	ErrInvalidWallet = errors.New("invalid wallet address")

	// ErrInvalidSignature is returned when a signature cannot be decoded
	// or address recovery itself fails.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrChallengeNotFound is returned when no live challenge exists for a
	// wallet. It covers never-issued, expired and already-consumed
	// challenges alike.
	ErrChallengeNotFound = errors.New("challenge not found or expired")

	// ErrSignatureMismatch is returned when the recovered signer is not
	// the claimed wallet.
	ErrSignatureMismatch = errors.New("signature does not match wallet")

	// ErrSessionRequired is returned when no valid session accompanies a
	// request. Expired sessions answer the same error so validity timing
	// does not leak.
	ErrSessionRequired = errors.New("valid session required")

	// ErrProtocolIDRequired is returned when a protocol-scoped operation
	// is missing its protocol id.
	ErrProtocolIDRequired = errors.New("protocolId required")

	// ErrProtocolNotFound is returned when the referenced protocol does
	// not exist.
	ErrProtocolNotFound = errors.New("protocol not found")

	// ErrIncidentNotFound is returned when the referenced incident does
	// not exist.
	ErrIncidentNotFound = errors.New("incident not found")

	// ErrForbidden is returned when an owner session targets another
	// protocol's resources.
	ErrForbidden = errors.New("cannot access another protocol's resources")

	// ErrOwnerWalletRequired is returned when protocol registration can
	// attribute no owner: no session and no explicit owner wallet.
	ErrOwnerWalletRequired = errors.New("owner wallet required")

	// ErrStoreOperationFailed is returned when a backing store operation
	// fails for infrastructure reasons.
	ErrStoreOperationFailed = errors.New("store operation failed")
)
