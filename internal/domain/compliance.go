package domain

import "time"

// ============================================================
// Compliance (MLRO) flags
// ============================================================

// FlagType is the category of a compliance flag.
type FlagType string

const (
	FlagKYCIssue           FlagType = "kyc_issue"
	FlagAML                FlagType = "aml_flag"
	FlagSuspiciousActivity FlagType = "suspicious_activity"
)

// ValidFlagType reports whether t is a known flag type.
func ValidFlagType(t FlagType) bool {
	switch t {
	case FlagKYCIssue, FlagAML, FlagSuspiciousActivity:
		return true
	}
	return false
}

// Severity drives the SLA window: the more severe, the shorter the
// review deadline.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ValidSeverity reports whether s is a known severity.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// FlagStatus is the review state of a compliance flag.
type FlagStatus string

const (
	FlagPending  FlagStatus = "pending"
	FlagHold     FlagStatus = "hold"
	FlagApproved FlagStatus = "approved"
	FlagRejected FlagStatus = "rejected"
)

// FlagAction is a review decision applied to a flag.
type FlagAction string

const (
	ActionApprove FlagAction = "approve"
	ActionReject  FlagAction = "reject"
	ActionHold    FlagAction = "hold"
)

// flagTransitions is the full transition table. hold→hold is re-entrant
// (updates notes only). approved and rejected accept nothing.
var flagTransitions = map[FlagStatus]map[FlagAction]FlagStatus{
	FlagPending: {
		ActionApprove: FlagApproved,
		ActionReject:  FlagRejected,
		ActionHold:    FlagHold,
	},
	FlagHold: {
		ActionApprove: FlagApproved,
		ActionReject:  FlagRejected,
		ActionHold:    FlagHold,
	},
}

// Apply returns the status after action, or an *ErrInvalidTransition if
// the move is not in the table.
func (s FlagStatus) Apply(action FlagAction) (FlagStatus, error) {
	if next, ok := flagTransitions[s][action]; ok {
		return next, nil
	}
	return s, &ErrInvalidTransition{From: string(s), Action: string(action)}
}

// Terminal reports whether the flag can no longer change state.
func (s FlagStatus) Terminal() bool {
	return s == FlagApproved || s == FlagRejected
}

// ComplianceFlag is an MLRO review item raised by the screening
// pipeline against a customer. Flags are never deleted (retention
// requirement); they only move through the review lifecycle.
type ComplianceFlag struct {
	ID         string     `json:"id"`
	CustomerID string     `json:"customer_id"`
	Type       FlagType   `json:"type"`
	Severity   Severity   `json:"severity"`
	Status     FlagStatus `json:"status"`
	Notes      string     `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at,omitempty"`
}

// SLAStatus is derived on every read; the deadline is data, not a live
// timer. RemainingHours and Breached are only meaningful while
// Applicable (status pending or hold).
type SLAStatus struct {
	Deadline       time.Time `json:"deadline"`
	RemainingHours int       `json:"remaining_hours"`
	Breached       bool      `json:"breached"`
	Applicable     bool      `json:"applicable"`
}

// FlagWithSLA is the read model served to the admin panel.
type FlagWithSLA struct {
	ComplianceFlag
	SLA SLAStatus `json:"sla"`
}

// CreateFlagRequest is posted by the screening/compliance producer.
type CreateFlagRequest struct {
	CustomerID string   `json:"customer_id"`
	Type       FlagType `json:"type"`
	Severity   Severity `json:"severity"`
	Notes      string   `json:"notes,omitempty"`
}

// ============================================================
// Audit log
// ============================================================

// AuditEntry records who did what to which resource, and why. Written
// by the service layer after every flag transition and admin override.
type AuditEntry struct {
	Action   string `json:"action"`
	Resource string `json:"resource"`
	ActorID  string `json:"actor_id"`
	Reason   string `json:"reason,omitempty"`
	Before   string `json:"before,omitempty"`
	After    string `json:"after,omitempty"`
}
