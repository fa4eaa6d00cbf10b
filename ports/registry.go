package ports

import (
	"context"

	"github.com/certlayer/certlayer/core"
	"github.com/shopspring/decimal"
)

// Registry is the resource-store collaborator: protocols and their child
// records. The authorization engine consumes only LookupOwner; the rest
// backs the registry service.
type Registry interface {
	// LookupOwner returns the lower-cased owner wallet for a protocol, or
	// core.ErrProtocolNotFound.
	LookupOwner(ctx context.Context, protocolID string) (string, error)

	CreateProtocol(ctx context.Context, protocol core.Protocol) error
	GetProtocol(ctx context.Context, protocolID string) (core.Protocol, error)
	UpdateProtocol(ctx context.Context, protocolID string, patch core.ProtocolPatch) (core.Protocol, error)
	AddDeposit(ctx context.Context, protocolID string, amount decimal.Decimal) (core.Protocol, error)
	ListProtocols(ctx context.Context) ([]core.Protocol, error)
	ListOwnedBy(ctx context.Context, wallet string) ([]core.Protocol, error)

	AddIncident(ctx context.Context, incident core.Incident) error
	GetIncident(ctx context.Context, incidentID string) (core.Incident, error)
	RecordDecision(ctx context.Context, incidentID, decision, reason string) (core.Incident, error)
	ListIncidents(ctx context.Context, protocolID string) ([]core.Incident, error)

	// UpsertCommitment creates the (protocolID, commitmentID) record with
	// defaults on first insert, and merges the supplied fields on later
	// calls.
	UpsertCommitment(ctx context.Context, protocolID, commitmentID string, patch core.CommitmentPatch) (core.Commitment, error)
	ListCommitments(ctx context.Context, protocolID string) ([]core.Commitment, error)

	UpsertScore(ctx context.Context, score core.ReputationScore) error
	GetScore(ctx context.Context, protocolID string) (core.ReputationScore, bool, error)

	// Counts reports the number of protocols and incidents, for the
	// health endpoint.
	Counts(ctx context.Context) (protocols, incidents int, err error)
}
