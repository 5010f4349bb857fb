package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Transfers
// ============================================================

// TransferStatus is the lifecycle state of a remittance transfer.
type TransferStatus string

const (
	StatusPending   TransferStatus = "pending"
	StatusCompleted TransferStatus = "completed"
	StatusFailed    TransferStatus = "failed"
	StatusCancelled TransferStatus = "cancelled"
	StatusRefunded  TransferStatus = "refunded"
)

// transferTransitions is the legal status graph. Refund is an admin
// override on settled transfers and must be paired with an audit entry.
var transferTransitions = map[TransferStatus][]TransferStatus{
	StatusPending:   {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted: {StatusRefunded},
}

// CanTransitionTo reports whether a transfer may move to the target status.
func (s TransferStatus) CanTransitionTo(target TransferStatus) bool {
	for _, next := range transferTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Terminal reports whether no further status change is allowed, except
// for the completed→refunded admin override.
func (s TransferStatus) Terminal() bool {
	return s == StatusFailed || s == StatusCancelled || s == StatusRefunded
}

// Transfer is a single outbound remittance.
type Transfer struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	BeneficiaryID   string          `json:"beneficiary_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	AmountSecondary decimal.Decimal `json:"amount_secondary"` // converted (payout currency)
	Status          TransferStatus  `json:"status"`
	RefID           string          `json:"ref_id"` // immutable, unique, 14-16 digits
	FailureReason   string          `json:"failure_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at,omitempty"`
}

// TransferRequest is the submit payload.
type TransferRequest struct {
	CustomerID      string          `json:"customer_id"`
	BeneficiaryID   string          `json:"beneficiary_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	AmountSecondary decimal.Decimal `json:"amount_secondary,omitempty"`
}

// SubmitResult is the outcome of a transfer submission. A cap rejection
// is a normal result, not an error: Accepted=false with the cap decision
// attached.
type SubmitResult struct {
	Accepted bool         `json:"accepted"`
	Transfer *Transfer    `json:"transfer,omitempty"`
	Cap      *CapDecision `json:"cap"`
}

// SettleResult is the outcome of settling a transfer, including the
// bonus evaluation that runs alongside settlement. A storage failure
// during the evaluation never blocks the settlement; it is flagged via
// BonusEvaluationSkipped so an operator can re-run the check.
type SettleResult struct {
	Transfer               *Transfer          `json:"transfer"`
	Bonus                  *Bonus             `json:"bonus,omitempty"`
	Outcome                *EligibilityResult `json:"bonus_outcome,omitempty"`
	BonusEvaluationSkipped bool               `json:"bonus_evaluation_skipped,omitempty"`
}

// ============================================================
// Cap enforcement
// ============================================================

// CapDecision is the advisory verdict of the rolling monthly cap check.
// Only completed transfers count toward TotalInPeriod; concurrent
// in-flight transfers are reconciled at settlement.
type CapDecision struct {
	Allowed       bool            `json:"allowed"`
	Reason        string          `json:"reason,omitempty"`
	Remaining     decimal.Decimal `json:"remaining"`
	TotalInPeriod decimal.Decimal `json:"total_in_period"`
	Cap           decimal.Decimal `json:"cap"`
	PeriodStart   time.Time       `json:"period_start"`
	PeriodEnd     time.Time       `json:"period_end"`
}
