package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/certlayer/certlayer/core"
	"github.com/certlayer/certlayer/ports"
	"github.com/google/uuid"
)

const (
	TopicLogin              = "auth.login"
	TopicLogout             = "auth.logout"
	TopicProtocolRegistered = "registry.protocol.registered"
	TopicIncidentCreated    = "registry.incident.created"
)

// LoginEvent is published when a wallet completes challenge verification.
type LoginEvent struct {
	Wallet string    `json:"wallet"`
	Role   core.Role `json:"role"`
}

// LogoutEvent is published when a session is explicitly revoked.
type LogoutEvent struct {
	Wallet string `json:"wallet"`
}

// ProtocolRegisteredEvent is published when a protocol is registered.
type ProtocolRegisteredEvent struct {
	ProtocolID  string `json:"protocolId"`
	Name        string `json:"name"`
	OwnerWallet string `json:"ownerWallet"`
}

// IncidentCreatedEvent is published when an incident is recorded.
type IncidentCreatedEvent struct {
	IncidentID string `json:"incidentId"`
	ProtocolID string `json:"protocolId"`
	Severity   string `json:"severity"`
}

// WatermillPublisher implements the EventPublisher interface on top of a
// watermill message.Publisher.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new watermill-backed publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

func (p *WatermillPublisher) PublishLogin(ctx context.Context, wallet string, role core.Role) error {
	return p.publish(TopicLogin, LoginEvent{Wallet: wallet, Role: role})
}

func (p *WatermillPublisher) PublishLogout(ctx context.Context, wallet string) error {
	return p.publish(TopicLogout, LogoutEvent{Wallet: wallet})
}

func (p *WatermillPublisher) PublishProtocolRegistered(ctx context.Context, protocol core.Protocol) error {
	return p.publish(TopicProtocolRegistered, ProtocolRegisteredEvent{
		ProtocolID:  protocol.ID,
		Name:        protocol.Name,
		OwnerWallet: protocol.OwnerWallet,
	})
}

func (p *WatermillPublisher) PublishIncidentCreated(ctx context.Context, incident core.Incident) error {
	return p.publish(TopicIncidentCreated, IncidentCreatedEvent{
		IncidentID: incident.ID,
		ProtocolID: incident.ProtocolID,
		Severity:   incident.Severity,
	})
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
