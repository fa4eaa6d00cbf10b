package ports

import (
	"context"

	"github.com/certlayer/certlayer/core"
)

// EventPublisher notifies other components about auth and registry
// mutations. Publishing is best-effort; callers log failures and continue.
type EventPublisher interface {
	PublishLogin(ctx context.Context, wallet string, role core.Role) error
	PublishLogout(ctx context.Context, wallet string) error
	PublishProtocolRegistered(ctx context.Context, protocol core.Protocol) error
	PublishIncidentCreated(ctx context.Context, incident core.Incident) error
}
