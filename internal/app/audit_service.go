package app

import (
	"context"
	"fmt"

	"github.com/example/cadence/internal/ports/primary"
	"github.com/example/cadence/internal/ports/secondary"
)

// AuditServiceImpl implements the AuditService interface.
type AuditServiceImpl struct {
	dropRepo  secondary.DropRepository
	eventRepo secondary.EventRepository
}

// NewAuditService creates a new AuditService with injected dependencies.
func NewAuditService(dropRepo secondary.DropRepository, eventRepo secondary.EventRepository) *AuditServiceImpl {
	return &AuditServiceImpl{
		dropRepo:  dropRepo,
		eventRepo: eventRepo,
	}
}

// ListDrops retrieves the most recent drops for an agent.
func (s *AuditServiceImpl) ListDrops(ctx context.Context, agentID string, limit int) ([]*primary.Drop, error) {
	records, err := s.dropRepo.ListByAgent(ctx, agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list drops: %w", err)
	}
	drops := make([]*primary.Drop, 0, len(records))
	for _, rec := range records {
		drops = append(drops, &primary.Drop{
			ID:          rec.ID,
			AgentID:     rec.AgentID,
			LocalDay:    rec.LocalDay,
			CreatedAt:   rec.CreatedAt,
			IsEmergency: rec.IsEmergency,
			Strategy:    rec.Strategy,
		})
	}
	return drops, nil
}

// ListEvents retrieves the most recent audit events.
func (s *AuditServiceImpl) ListEvents(ctx context.Context, agentID string, limit int) ([]*primary.Event, error) {
	records, err := s.eventRepo.List(ctx, agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	events := make([]*primary.Event, 0, len(records))
	for _, rec := range records {
		events = append(events, &primary.Event{
			ID:        rec.ID,
			AgentID:   rec.AgentID,
			Kind:      rec.Kind,
			Origin:    rec.Origin,
			Detail:    rec.Detail,
			CreatedAt: rec.CreatedAt,
		})
	}
	return events, nil
}

// Ensure AuditServiceImpl implements the interface
var _ primary.AuditService = (*AuditServiceImpl)(nil)
