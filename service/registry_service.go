package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/certlayer/certlayer/core"
	"github.com/certlayer/certlayer/internal/eth"
	"github.com/certlayer/certlayer/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegistryService exposes the protocol registry and its child records,
// with every mutating operation gated through the authorization engine.
type RegistryService struct {
	registry ports.Registry
	authz    *AuthorizationEngine
	events   ports.EventPublisher
	clock    ports.Clock
}

// NewRegistryService creates a new registry service.
func NewRegistryService(registry ports.Registry, authz *AuthorizationEngine, events ports.EventPublisher, clock ports.Clock) *RegistryService {
	return &RegistryService{
		registry: registry,
		authz:    authz,
		events:   events,
		clock:    clock,
	}
}

// RegisterProtocolInput carries the registration payload. Zero values fall
// back to defaults.
type RegisterProtocolInput struct {
	ID               string
	Name             string
	Website          string
	ProtocolType     string
	UptimeBps        int64
	CoveragePoolUSDC decimal.Decimal
	OwnerWallet      string
}

// RegisterProtocol registers a protocol. Registration is reachable without
// a prior protocol by design: the owner is the explicitly supplied wallet
// when one is given, otherwise the wallet of the caller's valid session.
// With neither, registration fails.
func (s *RegistryService) RegisterProtocol(ctx context.Context, cred core.Credential, input RegisterProtocolInput) (core.Protocol, error) {
	owner := input.OwnerWallet
	if owner != "" {
		if !eth.ValidAddress(owner) {
			return core.Protocol{}, core.ErrInvalidWallet
		}
		owner = eth.Normalize(owner)
	} else {
		session, ok, err := s.authz.SessionOf(ctx, cred)
		if err != nil {
			return core.Protocol{}, fmt.Errorf("session lookup: %w", err)
		}
		if !ok {
			return core.Protocol{}, core.ErrOwnerWalletRequired
		}
		owner = session.Wallet
	}

	now := s.clock.Now()
	protocol := core.Protocol{
		ID:               input.ID,
		Name:             input.Name,
		Website:          input.Website,
		ProtocolType:     input.ProtocolType,
		UptimeBps:        input.UptimeBps,
		CoveragePoolUSDC: input.CoveragePoolUSDC,
		OwnerWallet:      owner,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if protocol.ID == "" {
		protocol.ID = "proto-" + uuid.New().String()
	}
	if protocol.Name == "" {
		protocol.Name = "Unnamed Protocol"
	}
	if protocol.ProtocolType == "" {
		protocol.ProtocolType = "other"
	}
	if protocol.UptimeBps == 0 {
		protocol.UptimeBps = 9990
	}

	if err := s.registry.CreateProtocol(ctx, protocol); err != nil {
		return core.Protocol{}, fmt.Errorf("failed to create protocol: %w", err)
	}

	// Every new protocol starts with a provisional B score.
	if err := s.registry.UpsertScore(ctx, core.ReputationScore{
		ProtocolID: protocol.ID,
		Score:      70,
		Grade:      "B",
		UpdatedAt:  now,
	}); err != nil {
		return core.Protocol{}, fmt.Errorf("failed to seed score: %w", err)
	}

	if err := s.events.PublishProtocolRegistered(ctx, protocol); err != nil {
		log.Printf("warning: failed to publish protocol registered event: %v", err)
	}
	return protocol, nil
}

// UpdateProtocol applies a patch to a protocol the caller is authorized
// for.
func (s *RegistryService) UpdateProtocol(ctx context.Context, cred core.Credential, protocolID string, patch core.ProtocolPatch) (core.Protocol, error) {
	if protocolID == "" {
		return core.Protocol{}, core.ErrProtocolIDRequired
	}
	if _, err := s.authz.Decide(ctx, cred, protocolID); err != nil {
		return core.Protocol{}, err
	}
	return s.registry.UpdateProtocol(ctx, protocolID, patch)
}

// ListProtocols returns the full collection for internal and admin
// callers, and only the session wallet's own protocols for owners.
func (s *RegistryService) ListProtocols(ctx context.Context, cred core.Credential) ([]core.Protocol, error) {
	decision, err := s.authz.DecideRead(ctx, cred)
	if err != nil {
		return nil, err
	}
	if decision.Actor == core.ActorOwner {
		return s.registry.ListOwnedBy(ctx, decision.Session.Wallet)
	}
	return s.registry.ListProtocols(ctx)
}

// AddIncidentInput carries the incident payload. Zero values fall back to
// defaults.
type AddIncidentInput struct {
	ID         string
	ProtocolID string
	Severity   string
	Summary    string
}

// AddIncident records an incident against a protocol.
func (s *RegistryService) AddIncident(ctx context.Context, cred core.Credential, input AddIncidentInput) (core.Incident, error) {
	if input.ProtocolID == "" {
		return core.Incident{}, core.ErrProtocolIDRequired
	}
	if _, err := s.authz.Decide(ctx, cred, input.ProtocolID); err != nil {
		return core.Incident{}, err
	}

	incident := core.Incident{
		ID:         input.ID,
		ProtocolID: input.ProtocolID,
		Status:     "open",
		Severity:   input.Severity,
		Summary:    input.Summary,
		CreatedAt:  s.clock.Now(),
	}
	if incident.ID == "" {
		incident.ID = "inc-" + uuid.New().String()
	}
	if incident.Severity == "" {
		incident.Severity = "medium"
	}
	if incident.Summary == "" {
		incident.Summary = "SLA anomaly detected"
	}

	if err := s.registry.AddIncident(ctx, incident); err != nil {
		return core.Incident{}, fmt.Errorf("failed to add incident: %w", err)
	}

	if err := s.events.PublishIncidentCreated(ctx, incident); err != nil {
		log.Printf("warning: failed to publish incident created event: %v", err)
	}
	return incident, nil
}

// RecordIncidentDecision attaches a verification decision to an incident.
// Authorization is scoped to the incident's protocol.
func (s *RegistryService) RecordIncidentDecision(ctx context.Context, cred core.Credential, incidentID, decision, reason string) (core.Incident, error) {
	incident, err := s.registry.GetIncident(ctx, incidentID)
	if err != nil {
		return core.Incident{}, err
	}
	if _, err := s.authz.Decide(ctx, cred, incident.ProtocolID); err != nil {
		return core.Incident{}, err
	}
	return s.registry.RecordDecision(ctx, incidentID, decision, reason)
}

// ListIncidents lists incidents, optionally filtered by protocol. Owners
// must name a protocol they own; internal and admin callers may list all.
func (s *RegistryService) ListIncidents(ctx context.Context, cred core.Credential, protocolID string) ([]core.Incident, error) {
	if _, err := s.authz.Decide(ctx, cred, protocolID); err != nil {
		return nil, err
	}
	return s.registry.ListIncidents(ctx, protocolID)
}

// UpsertCommitment creates or merges a commitment record on a protocol.
func (s *RegistryService) UpsertCommitment(ctx context.Context, cred core.Credential, protocolID, commitmentID string, patch core.CommitmentPatch) (core.Commitment, error) {
	if protocolID == "" {
		return core.Commitment{}, core.ErrProtocolIDRequired
	}
	if _, err := s.authz.Decide(ctx, cred, protocolID); err != nil {
		return core.Commitment{}, err
	}
	return s.registry.UpsertCommitment(ctx, protocolID, commitmentID, patch)
}

// ListCommitments lists commitments, optionally filtered by protocol, with
// the same scoping as ListIncidents.
func (s *RegistryService) ListCommitments(ctx context.Context, cred core.Credential, protocolID string) ([]core.Commitment, error) {
	if _, err := s.authz.Decide(ctx, cred, protocolID); err != nil {
		return nil, err
	}
	return s.registry.ListCommitments(ctx, protocolID)
}

// Deposit adds to a protocol's coverage pool.
func (s *RegistryService) Deposit(ctx context.Context, cred core.Credential, protocolID string, amount decimal.Decimal) (core.Protocol, error) {
	if protocolID == "" {
		return core.Protocol{}, core.ErrProtocolIDRequired
	}
	if _, err := s.authz.Decide(ctx, cred, protocolID); err != nil {
		return core.Protocol{}, err
	}
	return s.registry.AddDeposit(ctx, protocolID, amount)
}

// RecomputeScore recomputes a protocol's reputation score from its four
// basis-point components.
func (s *RegistryService) RecomputeScore(ctx context.Context, cred core.Credential, protocolID string, components core.ScoreComponents) (core.ReputationScore, error) {
	if protocolID == "" {
		return core.ReputationScore{}, core.ErrProtocolIDRequired
	}
	if _, err := s.authz.Decide(ctx, cred, protocolID); err != nil {
		return core.ReputationScore{}, err
	}

	value := core.ComputeScore(components)
	score := core.ReputationScore{
		ProtocolID: protocolID,
		Score:      value,
		Grade:      core.GradeForScore(value),
		UpdatedAt:  s.clock.Now(),
	}
	if err := s.registry.UpsertScore(ctx, score); err != nil {
		return core.ReputationScore{}, fmt.Errorf("failed to store score: %w", err)
	}
	return score, nil
}

// ProtocolReputation is a protocol joined with its latest score for the
// public reputation board.
type ProtocolReputation struct {
	ProtocolID   string `json:"protocolId"`
	Name         string `json:"name"`
	ProtocolType string `json:"protocolType"`
	Score        int    `json:"score"`
	Grade        string `json:"grade"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// ReputationBoard returns every protocol with its latest score. The board
// is a public read.
func (s *RegistryService) ReputationBoard(ctx context.Context) ([]ProtocolReputation, error) {
	protocols, err := s.registry.ListProtocols(ctx)
	if err != nil {
		return nil, err
	}

	board := make([]ProtocolReputation, 0, len(protocols))
	for _, protocol := range protocols {
		entry := ProtocolReputation{
			ProtocolID:   protocol.ID,
			Name:         protocol.Name,
			ProtocolType: protocol.ProtocolType,
			Grade:        "N/A",
		}
		if score, ok, err := s.registry.GetScore(ctx, protocol.ID); err != nil {
			return nil, err
		} else if ok {
			entry.Score = score.Score
			entry.Grade = score.Grade
			entry.UpdatedAt = score.UpdatedAt.UTC().Format(time.RFC3339)
		}
		board = append(board, entry)
	}
	return board, nil
}

// Counts reports registry sizes for the health endpoint.
func (s *RegistryService) Counts(ctx context.Context) (int, int, error) {
	return s.registry.Counts(ctx)
}
