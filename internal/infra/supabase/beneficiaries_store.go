package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kweza/remit-backoffice-go/internal/domain"
)

// BeneficiaryStore implements port.BeneficiaryStore on the beneficiaries table.
type BeneficiaryStore struct {
	client *Client
}

// NewBeneficiaryStore creates a beneficiary store.
func NewBeneficiaryStore(client *Client) *BeneficiaryStore {
	return &BeneficiaryStore{client: client}
}

// GetBeneficiary fetches a beneficiary by id.
func (s *BeneficiaryStore) GetBeneficiary(ctx context.Context, beneficiaryID string) (*domain.Beneficiary, error) {
	ctx, span := tracer.Start(ctx, "BeneficiaryStore.GetBeneficiary")
	defer span.End()

	path := fmt.Sprintf("beneficiaries?id=eq.%s&limit=1", url.QueryEscape(beneficiaryID))

	var rows []domain.Beneficiary
	err := s.client.execute(ctx, "beneficiaries", func() error {
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
		return nil, &domain.ErrNotFound{Resource: "beneficiary", ID: beneficiaryID}
	}

	b := rows[0]
	return &b, nil
}
