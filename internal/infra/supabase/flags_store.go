package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kweza/remit-backoffice-go/internal/domain"
)

// FlagStore implements port.FlagStore on the compliance_flags table.
// Rows are append-and-update only; nothing here deletes.
type FlagStore struct {
	client *Client
}

// NewFlagStore creates a compliance flag store.
func NewFlagStore(client *Client) *FlagStore {
	return &FlagStore{client: client}
}

// CreateFlag inserts a flag row and returns the stored row.
func (s *FlagStore) CreateFlag(ctx context.Context, f *domain.ComplianceFlag) (*domain.ComplianceFlag, error) {
	ctx, span := tracer.Start(ctx, "FlagStore.CreateFlag")
	defer span.End()

	payload := map[string]any{
		"id":          f.ID,
		"customer_id": f.CustomerID,
		"type":        f.Type,
		"severity":    f.Severity,
		"status":      f.Status,
		"created_at":  f.CreatedAt.UTC().Format(time.RFC3339),
	}
	if f.Notes != "" {
		payload["notes"] = f.Notes
	}

	var rows []domain.ComplianceFlag
	err := s.client.executeOnce(ctx, "compliance_flags", func() error {
		body, err := s.client.doPost(ctx, "compliance_flags", payload)
		if err != nil {
			return err
		}
		return json.Unmarshal(body, &rows)
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrStorage{Store: "compliance_flags", Err: fmt.Errorf("insert returned no representation")}
	}

	created := rows[0]
	return &created, nil
}

// GetFlag fetches a flag by id.
func (s *FlagStore) GetFlag(ctx context.Context, flagID string) (*domain.ComplianceFlag, error) {
	ctx, span := tracer.Start(ctx, "FlagStore.GetFlag")
	defer span.End()

	path := fmt.Sprintf("compliance_flags?id=eq.%s&limit=1", url.QueryEscape(flagID))

	rows, err := s.query(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "flag", ID: flagID}
	}

	f := rows[0]
	return &f, nil
}

// ListFlags returns flags, newest first, optionally filtered by customer
// and status. Empty filters match everything.
func (s *FlagStore) ListFlags(ctx context.Context, customerID string, status domain.FlagStatus) ([]domain.ComplianceFlag, error) {
	ctx, span := tracer.Start(ctx, "FlagStore.ListFlags")
	defer span.End()

	path := "compliance_flags?order=created_at.desc"
	if customerID != "" {
		path += "&customer_id=eq." + url.QueryEscape(customerID)
	}
	if status != "" {
		path += "&status=eq." + url.QueryEscape(string(status))
	}

	return s.query(ctx, path)
}

// UpdateFlagStatus moves a flag to status. The caller has already run the
// transition table; an empty notes leaves the stored notes untouched.
func (s *FlagStore) UpdateFlagStatus(ctx context.Context, flagID string, status domain.FlagStatus, notes string) error {
	ctx, span := tracer.Start(ctx, "FlagStore.UpdateFlagStatus")
	defer span.End()

	path := fmt.Sprintf("compliance_flags?id=eq.%s", url.QueryEscape(flagID))
	payload := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if notes != "" {
		payload["notes"] = notes
	}

	return s.client.execute(ctx, "compliance_flags", func() error {
		return s.client.doPatch(ctx, path, payload)
	})
}

func (s *FlagStore) query(ctx context.Context, path string) ([]domain.ComplianceFlag, error) {
	var rows []domain.ComplianceFlag
	err := s.client.execute(ctx, "compliance_flags", func() error {
		body, err := s.client.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		rows = nil
		if body == nil {
			return nil
		}
		return json.Unmarshal(body, &rows)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
