package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Milestone bonuses
// ============================================================

// Bonus is a milestone reward earned by a qualifying transfer.
// At most one bonus exists per transfer.
type Bonus struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customer_id"`
	TransferID    string          `json:"transfer_id"`
	Amount        decimal.Decimal `json:"amount"` // bonus-currency units
	MilestoneTier int             `json:"milestone_tier"`
	CycleAnchorID string          `json:"cycle_anchor_id"`
	AwardedAt     time.Time       `json:"awarded_at"`
	ExpiresAt     time.Time       `json:"expires_at"`
	UsedAt        *time.Time      `json:"used_at,omitempty"`
}

// Milestone is one row of the configurable milestone table: the Nth
// eligible transfer (Transfers) earns Amount at the given tier.
type Milestone struct {
	Transfers int             `json:"transfers"`
	Tier      int             `json:"tier"`
	Amount    decimal.Decimal `json:"amount"`
}

// BonusCycle anchors milestone counting. Only eligible transfers created
// after StartedAt count toward the current cycle, so an explicit reset
// genuinely restarts the ladder.
type BonusCycle struct {
	AnchorID   string    `json:"anchor_id"`
	CustomerID string    `json:"customer_id"`
	StartedAt  time.Time `json:"started_at"`
}

// NextMilestone tells the customer what the next reward is.
type NextMilestone struct {
	Transfers int             `json:"transfers"`
	Bonus     decimal.Decimal `json:"bonus"`
}

// Ineligibility reasons. These are values, not errors: a transfer that
// earns nothing is the common case.
const (
	ReasonBelowMinimum       = "below minimum"
	ReasonBeneficiaryUnknown = "beneficiary not found"
	ReasonRDAExcluded        = "rda excluded"
	ReasonCooldown           = "cooldown"
	ReasonNoMilestone        = "no milestone"
	ReasonMilestoneReached   = "milestone reached"
)

// EligibilityResult is the structured verdict of a bonus check.
type EligibilityResult struct {
	Eligible       bool             `json:"eligible"`
	Reason         string           `json:"reason"`
	BonusAmount    *decimal.Decimal `json:"bonus_amount,omitempty"`
	MilestoneTier  int              `json:"milestone_tier,omitempty"`
	TransferNumber int              `json:"transfer_number,omitempty"`
	NextMilestone  *NextMilestone   `json:"next_milestone,omitempty"`
}

// BonusStatus is the aggregate view of a customer's current bonus cycle.
// CycleComplete means the 12-transfer cycle has been exhausted and an
// explicit cycle reset is required before milestone counting restarts.
type BonusStatus struct {
	EligibleTransfers int             `json:"eligible_transfers"`
	BonusesAwarded    int             `json:"bonuses_awarded"`
	TotalAwarded      decimal.Decimal `json:"total_awarded"`
	CycleAnchorID     string          `json:"cycle_anchor_id,omitempty"`
	CycleComplete     bool            `json:"cycle_complete"`
	NextMilestone     *NextMilestone  `json:"next_milestone,omitempty"`
}
