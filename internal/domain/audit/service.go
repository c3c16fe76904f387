package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	appctx "tillpoint/internal/core/context"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/tenant"
	"tillpoint/pkg/logger"
)

// Service records audit entries, enriching them with the actor and
// tenant from the request context.
type Service struct {
	repo Repository
}

// NewService creates a new audit service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends an audit entry. Before, after and metadata may be any
// JSON-marshalable value or nil. Call within the operation's
// transaction; a failed operation must leave no audit trace.
func (s *Service) Record(ctx context.Context, action, entityType, entityID string, before, after, metadata any) error {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return err
	}

	entry := Entry{
		ID:         id.New(),
		TenantID:   tenantID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    appctx.GetUserID(ctx),
		CreatedAt:  time.Now().UTC(),
	}

	if entry.Before, err = marshalSnapshot(before); err != nil {
		return fmt.Errorf("marshal before state: %w", err)
	}
	if entry.After, err = marshalSnapshot(after); err != nil {
		return fmt.Errorf("marshal after state: %w", err)
	}
	if entry.Metadata, err = marshalSnapshot(metadata); err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	logger.Debug(ctx, "audit entry recorded",
		"action", action,
		"entity_type", entityType,
		"entity_id", entityID,
	)

	return nil
}

// Feed returns recent entries for the activity-log viewer, newest first.
func (s *Service) Feed(ctx context.Context, filter Filter) ([]Entry, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.repo.Feed(ctx, tenantID, filter)
}

func marshalSnapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}
