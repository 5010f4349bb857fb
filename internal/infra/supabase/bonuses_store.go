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

// BonusStore implements port.BonusStore on the bonuses and bonus_cycles
// tables. bonuses carries a unique index on transfer_id, keeping the
// one-bonus-per-transfer invariant even under concurrent settlement.
type BonusStore struct {
	client *Client
}

// NewBonusStore creates a bonus store.
func NewBonusStore(client *Client) *BonusStore {
	return &BonusStore{client: client}
}

// CreateBonus inserts a bonus row and returns the stored row.
func (s *BonusStore) CreateBonus(ctx context.Context, b *domain.Bonus) (*domain.Bonus, error) {
	ctx, span := tracer.Start(ctx, "BonusStore.CreateBonus")
	defer span.End()

	payload := map[string]any{
		"id":              b.ID,
		"customer_id":     b.CustomerID,
		"transfer_id":     b.TransferID,
		"amount":          b.Amount,
		"milestone_tier":  b.MilestoneTier,
		"cycle_anchor_id": b.CycleAnchorID,
		"awarded_at":      b.AwardedAt.UTC().Format(time.RFC3339),
		"expires_at":      b.ExpiresAt.UTC().Format(time.RFC3339),
	}

	var rows []domain.Bonus
	err := s.client.executeOnce(ctx, "bonuses", func() error {
		body, err := s.client.doPost(ctx, "bonuses", payload)
		if err != nil {
			return err
		}
		return json.Unmarshal(body, &rows)
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrStorage{Store: "bonuses", Err: fmt.Errorf("insert returned no representation")}
	}

	created := rows[0]
	return &created, nil
}

// SumAwarded totals all bonuses awarded to a customer.
func (s *BonusStore) SumAwarded(ctx context.Context, customerID string) (decimal.Decimal, error) {
	ctx, span := tracer.Start(ctx, "BonusStore.SumAwarded")
	defer span.End()

	path := fmt.Sprintf("bonuses?customer_id=eq.%s&select=amount", url.QueryEscape(customerID))

	var rows []struct {
		Amount decimal.Decimal `json:"amount"`
	}
	err := s.client.execute(ctx, "bonuses", func() error {
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
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Amount)
	}
	return total, nil
}

// CountAwarded counts bonuses awarded to a customer.
func (s *BonusStore) CountAwarded(ctx context.Context, customerID string) (int, error) {
	ctx, span := tracer.Start(ctx, "BonusStore.CountAwarded")
	defer span.End()

	path := fmt.Sprintf("bonuses?customer_id=eq.%s&select=id", url.QueryEscape(customerID))

	var rows []struct {
		ID string `json:"id"`
	}
	err := s.client.execute(ctx, "bonuses", func() error {
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

// ListBonuses returns a customer's bonuses, newest first.
func (s *BonusStore) ListBonuses(ctx context.Context, customerID string) ([]domain.Bonus, error) {
	ctx, span := tracer.Start(ctx, "BonusStore.ListBonuses")
	defer span.End()

	path := fmt.Sprintf("bonuses?customer_id=eq.%s&order=awarded_at.desc", url.QueryEscape(customerID))

	var rows []domain.Bonus
	err := s.client.execute(ctx, "bonuses", func() error {
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

// ActiveCycle returns the most recently started cycle, or nil when the
// customer has never started one.
func (s *BonusStore) ActiveCycle(ctx context.Context, customerID string) (*domain.BonusCycle, error) {
	ctx, span := tracer.Start(ctx, "BonusStore.ActiveCycle")
	defer span.End()

	path := fmt.Sprintf("bonus_cycles?customer_id=eq.%s&order=started_at.desc&limit=1", url.QueryEscape(customerID))

	var rows []domain.BonusCycle
	err := s.client.execute(ctx, "bonus_cycles", func() error {
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
		return nil, nil
	}

	c := rows[0]
	return &c, nil
}

// StartCycle records a new cycle anchor for the customer.
func (s *BonusStore) StartCycle(ctx context.Context, cycle *domain.BonusCycle) error {
	ctx, span := tracer.Start(ctx, "BonusStore.StartCycle")
	defer span.End()

	payload := map[string]any{
		"anchor_id":   cycle.AnchorID,
		"customer_id": cycle.CustomerID,
		"started_at":  cycle.StartedAt.UTC().Format(time.RFC3339),
	}

	return s.client.executeOnce(ctx, "bonus_cycles", func() error {
		_, err := s.client.doPost(ctx, "bonus_cycles", payload)
		return err
	})
}
