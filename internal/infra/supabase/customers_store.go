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

// CustomerStore implements port.CustomerStore on the customers table.
// The account system owns the rows; this service reads cap/anchor
// configuration and maintains the used_limit counter.
type CustomerStore struct {
	client *Client
}

// NewCustomerStore creates a customer store.
func NewCustomerStore(client *Client) *CustomerStore {
	return &CustomerStore{client: client}
}

// GetCustomer fetches a customer by id.
func (s *CustomerStore) GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "CustomerStore.GetCustomer")
	defer span.End()

	path := fmt.Sprintf("customers?id=eq.%s&limit=1", url.QueryEscape(customerID))

	var rows []domain.Customer
	err := s.client.execute(ctx, "customers", func() error {
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
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "customer", ID: customerID}
	}

	c := rows[0]
	return &c, nil
}

// UpdateUsedLimit writes the denormalized period counter.
func (s *CustomerStore) UpdateUsedLimit(ctx context.Context, customerID string, usedLimit decimal.Decimal) error {
	ctx, span := tracer.Start(ctx, "CustomerStore.UpdateUsedLimit")
	defer span.End()

	path := fmt.Sprintf("customers?id=eq.%s", url.QueryEscape(customerID))
	payload := map[string]any{
		"used_limit": usedLimit,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}

	return s.client.execute(ctx, "customers", func() error {
		return s.client.doPatch(ctx, path, payload)
	})
}
