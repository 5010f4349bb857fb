package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Customer
// ============================================================

// Customer is the slice of the account-system customer record the
// compliance engine cares about. The account system owns the row; this
// service reads cap/anchor configuration and maintains the denormalized
// used_limit counter on settlement.
type Customer struct {
	ID         string          `json:"id"`
	Name       string          `json:"name,omitempty"`
	MonthlyCap decimal.Decimal `json:"monthly_cap"`
	UsedLimit  decimal.Decimal `json:"used_limit"`
	AnchorDay  int             `json:"anchor_day"` // day-of-month, 1-28
	CreatedAt  time.Time       `json:"created_at"`
}

// ============================================================
// Beneficiary
// ============================================================

// BeneficiaryKind classifies the destination account of a transfer.
type BeneficiaryKind string

const (
	// KindSelf marks a Restricted Destination Account: the customer's own
	// account abroad. RDA transfers never accrue bonuses.
	KindSelf     BeneficiaryKind = "self"
	KindBusiness BeneficiaryKind = "business"
	KindOther    BeneficiaryKind = "other"
)

// Beneficiary is a saved destination for a customer's transfers.
type Beneficiary struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id"`
	Name       string          `json:"name,omitempty"`
	Kind       BeneficiaryKind `json:"kind"`
	Country    string          `json:"country,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// IsRDA reports whether sending to this beneficiary counts as sending to
// the customer's own account.
func (b *Beneficiary) IsRDA() bool {
	return b.Kind == KindSelf
}
