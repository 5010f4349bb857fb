package supabase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kweza/remit-backoffice-go/internal/domain"
)

// AuditStore implements port.AuditSink on the audit_logs table.
type AuditStore struct {
	client *Client
}

// NewAuditStore creates an audit sink.
func NewAuditStore(client *Client) *AuditStore {
	return &AuditStore{client: client}
}

// Record appends an audit entry.
func (s *AuditStore) Record(ctx context.Context, entry *domain.AuditEntry) error {
	ctx, span := tracer.Start(ctx, "AuditStore.Record")
	defer span.End()

	payload := map[string]any{
		"id":         uuid.New().String(),
		"action":     entry.Action,
		"resource":   entry.Resource,
		"actor_id":   entry.ActorID,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	if entry.Reason != "" {
		payload["reason"] = entry.Reason
	}
	if entry.Before != "" {
		payload["before"] = entry.Before
	}
	if entry.After != "" {
		payload["after"] = entry.After
	}

	return s.client.executeOnce(ctx, "audit_logs", func() error {
		_, err := s.client.doPost(ctx, "audit_logs", payload)
		return err
	})
}
