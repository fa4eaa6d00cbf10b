// Package registry provides the in-memory resource store the authorization
// engine and registry service operate against.
package registry

import (
	"context"
	"sync"

	"github.com/certlayer/certlayer/core"
	"github.com/certlayer/certlayer/ports"
	"github.com/shopspring/decimal"
)

type commitmentKey struct {
	protocolID   string
	commitmentID string
}

// MemoryRegistry is a mutex-guarded in-memory Registry. Slices keep
// insertion order for listings; maps index by id for lookups.
type MemoryRegistry struct {
	mu          sync.RWMutex
	clock       ports.Clock
	protocols   []*core.Protocol
	byID        map[string]*core.Protocol
	incidents   []*core.Incident
	incidentsBy map[string]*core.Incident
	commitments []*core.Commitment
	commitsBy   map[commitmentKey]*core.Commitment
	scores      map[string]core.ReputationScore
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry(clock ports.Clock) *MemoryRegistry {
	return &MemoryRegistry{
		clock:       clock,
		byID:        make(map[string]*core.Protocol),
		incidentsBy: make(map[string]*core.Incident),
		commitsBy:   make(map[commitmentKey]*core.Commitment),
		scores:      make(map[string]core.ReputationScore),
	}
}

func (r *MemoryRegistry) LookupOwner(ctx context.Context, protocolID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	protocol, ok := r.byID[protocolID]
	if !ok {
		return "", core.ErrProtocolNotFound
	}
	return protocol.OwnerWallet, nil
}

func (r *MemoryRegistry) CreateProtocol(ctx context.Context, protocol core.Protocol) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := protocol
	r.protocols = append(r.protocols, &stored)
	r.byID[stored.ID] = &stored
	return nil
}

func (r *MemoryRegistry) GetProtocol(ctx context.Context, protocolID string) (core.Protocol, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	protocol, ok := r.byID[protocolID]
	if !ok {
		return core.Protocol{}, core.ErrProtocolNotFound
	}
	return *protocol, nil
}

func (r *MemoryRegistry) UpdateProtocol(ctx context.Context, protocolID string, patch core.ProtocolPatch) (core.Protocol, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	protocol, ok := r.byID[protocolID]
	if !ok {
		return core.Protocol{}, core.ErrProtocolNotFound
	}

	if patch.Name != nil {
		protocol.Name = *patch.Name
	}
	if patch.Website != nil {
		protocol.Website = *patch.Website
	}
	if patch.ProtocolType != nil {
		protocol.ProtocolType = *patch.ProtocolType
	}
	if patch.UptimeBps != nil {
		protocol.UptimeBps = *patch.UptimeBps
	}
	protocol.UpdatedAt = r.clock.Now()
	return *protocol, nil
}

func (r *MemoryRegistry) AddDeposit(ctx context.Context, protocolID string, amount decimal.Decimal) (core.Protocol, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	protocol, ok := r.byID[protocolID]
	if !ok {
		return core.Protocol{}, core.ErrProtocolNotFound
	}

	protocol.CoveragePoolUSDC = protocol.CoveragePoolUSDC.Add(amount)
	protocol.UpdatedAt = r.clock.Now()
	return *protocol, nil
}

func (r *MemoryRegistry) ListProtocols(ctx context.Context) ([]core.Protocol, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Protocol, 0, len(r.protocols))
	for _, protocol := range r.protocols {
		out = append(out, *protocol)
	}
	return out, nil
}

func (r *MemoryRegistry) ListOwnedBy(ctx context.Context, wallet string) ([]core.Protocol, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Protocol, 0)
	for _, protocol := range r.protocols {
		if protocol.OwnerWallet == wallet {
			out = append(out, *protocol)
		}
	}
	return out, nil
}

func (r *MemoryRegistry) AddIncident(ctx context.Context, incident core.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := incident
	r.incidents = append(r.incidents, &stored)
	r.incidentsBy[stored.ID] = &stored
	return nil
}

func (r *MemoryRegistry) GetIncident(ctx context.Context, incidentID string) (core.Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	incident, ok := r.incidentsBy[incidentID]
	if !ok {
		return core.Incident{}, core.ErrIncidentNotFound
	}
	return *incident, nil
}

func (r *MemoryRegistry) RecordDecision(ctx context.Context, incidentID, decision, reason string) (core.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	incident, ok := r.incidentsBy[incidentID]
	if !ok {
		return core.Incident{}, core.ErrIncidentNotFound
	}

	incident.Decision = decision
	incident.DecisionReason = reason
	incident.Status = "decided"
	return *incident, nil
}

func (r *MemoryRegistry) ListIncidents(ctx context.Context, protocolID string) ([]core.Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Incident, 0)
	for _, incident := range r.incidents {
		if protocolID == "" || incident.ProtocolID == protocolID {
			out = append(out, *incident)
		}
	}
	return out, nil
}

func (r *MemoryRegistry) UpsertCommitment(ctx context.Context, protocolID, commitmentID string, patch core.CommitmentPatch) (core.Commitment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	key := commitmentKey{protocolID, commitmentID}
	commitment, ok := r.commitsBy[key]
	if !ok {
		commitment = &core.Commitment{
			ProtocolID:     protocolID,
			CommitmentID:   commitmentID,
			CommitmentType: "other",
			Amount:         decimal.Zero,
			Asset:          "USDC",
			Status:         "registered",
			CreatedAt:      now,
		}
		r.commitments = append(r.commitments, commitment)
		r.commitsBy[key] = commitment
	}

	if patch.CommitmentType != nil {
		commitment.CommitmentType = *patch.CommitmentType
	}
	if patch.SourceURL != nil {
		commitment.SourceURL = *patch.SourceURL
	}
	if patch.CommitmentTextHash != nil {
		commitment.CommitmentTextHash = *patch.CommitmentTextHash
	}
	if patch.Amount != nil {
		commitment.Amount = *patch.Amount
	}
	if patch.Asset != nil {
		commitment.Asset = *patch.Asset
	}
	if patch.DeadlineTs != nil {
		commitment.DeadlineTs = *patch.DeadlineTs
	}
	if patch.VerificationRule != nil {
		commitment.VerificationRule = *patch.VerificationRule
	}
	if patch.Result != nil {
		commitment.Result = *patch.Result
	}
	if patch.EvidenceHash != nil {
		commitment.EvidenceHash = *patch.EvidenceHash
	}
	if patch.Status != nil {
		commitment.Status = *patch.Status
	}
	commitment.UpdatedAt = now
	return *commitment, nil
}

func (r *MemoryRegistry) ListCommitments(ctx context.Context, protocolID string) ([]core.Commitment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Commitment, 0)
	for _, commitment := range r.commitments {
		if protocolID == "" || commitment.ProtocolID == protocolID {
			out = append(out, *commitment)
		}
	}
	return out, nil
}

func (r *MemoryRegistry) UpsertScore(ctx context.Context, score core.ReputationScore) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.scores[score.ProtocolID] = score
	return nil
}

func (r *MemoryRegistry) GetScore(ctx context.Context, protocolID string) (core.ReputationScore, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	score, ok := r.scores[protocolID]
	return score, ok, nil
}

func (r *MemoryRegistry) Counts(ctx context.Context) (int, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.protocols), len(r.incidents), nil
}

var _ ports.Registry = (*MemoryRegistry)(nil)
