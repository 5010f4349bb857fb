package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kweza/remit-backoffice-go/internal/domain"
)

// TransferStore implements port.TransferStore on the transfers table.
// The table carries a unique index on ref_id; PostgREST reports a
// violation as 409, surfaced here as *domain.ErrDuplicate.
type TransferStore struct {
	client *Client
}

// NewTransferStore creates a transfer store.
func NewTransferStore(client *Client) *TransferStore {
	return &TransferStore{client: client}
}

// CreateTransfer inserts a transfer row and returns the stored row.
func (s *TransferStore) CreateTransfer(ctx context.Context, t *domain.Transfer) (*domain.Transfer, error) {
	ctx, span := tracer.Start(ctx, "TransferStore.CreateTransfer")
	defer span.End()

	payload := map[string]any{
		"id":               t.ID,
		"customer_id":      t.CustomerID,
		"amount":           t.Amount,
		"amount_secondary": t.AmountSecondary,
		"status":           t.Status,
		"ref_id":           t.RefID,
		"created_at":       t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.BeneficiaryID != "" {
		payload["beneficiary_id"] = t.BeneficiaryID
	}

	var rows []domain.Transfer
	err := s.client.executeOnce(ctx, "transfers", func() error {
		body, err := s.client.doPost(ctx, "transfers", payload)
		if err != nil {
			return err
		}
		return json.Unmarshal(body, &rows)
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrStorage{Store: "transfers", Err: fmt.Errorf("insert returned no representation")}
	}

	created := rows[0]
	return &created, nil
}

// GetTransfer fetches a transfer by id.
func (s *TransferStore) GetTransfer(ctx context.Context, transferID string) (*domain.Transfer, error) {
	ctx, span := tracer.Start(ctx, "TransferStore.GetTransfer")
	defer span.End()

	path := fmt.Sprintf("transfers?id=eq.%s&limit=1", url.QueryEscape(transferID))

	rows, err := s.query(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "transfer", ID: transferID}
	}

	t := rows[0]
	return &t, nil
}

// ListTransfers returns a customer's transfers, newest first.
func (s *TransferStore) ListTransfers(ctx context.Context, customerID string, page, pageSize int) ([]domain.Transfer, error) {
	ctx, span := tracer.Start(ctx, "TransferStore.ListTransfers")
	defer span.End()

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	path := fmt.Sprintf("transfers?customer_id=eq.%s&order=created_at.desc&limit=%d&offset=%d",
		url.QueryEscape(customerID), pageSize, offset)

	return s.query(ctx, path)
}

// UpdateTransferStatus moves a transfer to status. The caller has already
// validated the transition against the lifecycle table.
func (s *TransferStore) UpdateTransferStatus(ctx context.Context, transferID string, status domain.TransferStatus, failureReason string) error {
	ctx, span := tracer.Start(ctx, "TransferStore.UpdateTransferStatus")
	defer span.End()

	path := fmt.Sprintf("transfers?id=eq.%s", url.QueryEscape(transferID))
	payload := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if failureReason != "" {
		payload["failure_reason"] = failureReason
	}

	return s.client.execute(ctx, "transfers", func() error {
		return s.client.doPatch(ctx, path, payload)
	})
}

// FindCompletedByCustomerInRange returns completed transfers created
// inside [start, end], oldest first.
func (s *TransferStore) FindCompletedByCustomerInRange(ctx context.Context, customerID string, start, end time.Time) ([]domain.Transfer, error) {
	ctx, span := tracer.Start(ctx, "TransferStore.FindCompletedByCustomerInRange")
	defer span.End()

	path := fmt.Sprintf("transfers?customer_id=eq.%s&status=eq.completed&created_at=gte.%s&created_at=lte.%s&order=created_at.asc",
		url.QueryEscape(customerID), tsParam(start), tsParam(end))

	return s.query(ctx, path)
}

// ExistsByRefID reports whether any transfer already carries refID.
func (s *TransferStore) ExistsByRefID(ctx context.Context, refID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "TransferStore.ExistsByRefID")
	defer span.End()

	path := fmt.Sprintf("transfers?ref_id=eq.%s&select=id&limit=1", url.QueryEscape(refID))

	var rows []struct {
		ID string `json:"id"`
	}
	err := s.client.execute(ctx, "transfers", func() error {
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
		return false, err
	}
	return len(rows) > 0, nil
}

// CountEligible counts completed transfers at or above minAmount whose
// beneficiary is not a restricted destination account. The inner join
// drops transfers without a saved beneficiary, which cannot accrue
// bonuses either.
func (s *TransferStore) CountEligible(ctx context.Context, customerID string, minAmount decimal.Decimal, since time.Time) (int, error) {
	ctx, span := tracer.Start(ctx, "TransferStore.CountEligible")
	defer span.End()

	path := fmt.Sprintf("transfers?customer_id=eq.%s&status=eq.completed&amount=gte.%s&select=id,beneficiaries!inner(kind)&beneficiaries.kind=neq.self",
		url.QueryEscape(customerID), minAmount.String())
	if !since.IsZero() {
		path += "&created_at=gte." + tsParam(since)
	}

	var rows []struct {
		ID string `json:"id"`
	}
	err := s.client.execute(ctx, "transfers", func() error {
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
		return 0, err
	}
	return len(rows), nil
}

// HasCompletedToBeneficiarySince reports whether the customer completed a
// transfer to beneficiaryID at or after since. Drives the bonus cooldown.
func (s *TransferStore) HasCompletedToBeneficiarySince(ctx context.Context, customerID, beneficiaryID string, since time.Time) (bool, error) {
	ctx, span := tracer.Start(ctx, "TransferStore.HasCompletedToBeneficiarySince")
	defer span.End()

	path := fmt.Sprintf("transfers?customer_id=eq.%s&beneficiary_id=eq.%s&status=eq.completed&created_at=gte.%s&select=id&limit=1",
		url.QueryEscape(customerID), url.QueryEscape(beneficiaryID), tsParam(since))

	var rows []struct {
		ID string `json:"id"`
	}
	err := s.client.execute(ctx, "transfers", func() error {
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
		return false, err
	}
	return len(rows) > 0, nil
}

func (s *TransferStore) query(ctx context.Context, path string) ([]domain.Transfer, error) {
	var rows []domain.Transfer
	err := s.client.execute(ctx, "transfers", func() error {
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
