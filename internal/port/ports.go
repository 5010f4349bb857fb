// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the compliance
// and incentive engines from concrete persistence.
package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kweza/remit-backoffice-go/internal/domain"
)

// TransferStore provides read/write access to transfer rows. The store
// must enforce a unique constraint on ref_id; CreateTransfer surfaces a
// violation as *domain.ErrDuplicate so the caller can regenerate.
type TransferStore interface {
	CreateTransfer(ctx context.Context, t *domain.Transfer) (*domain.Transfer, error)
	GetTransfer(ctx context.Context, transferID string) (*domain.Transfer, error)
	ListTransfers(ctx context.Context, customerID string, page, pageSize int) ([]domain.Transfer, error)
	UpdateTransferStatus(ctx context.Context, transferID string, status domain.TransferStatus, failureReason string) error

	// FindCompletedByCustomerInRange returns completed transfers with
	// created_at inside [start, end], for cap summation.
	FindCompletedByCustomerInRange(ctx context.Context, customerID string, start, end time.Time) ([]domain.Transfer, error)

	// ExistsByRefID is the best-effort pre-check of the ref id generator.
	ExistsByRefID(ctx context.Context, refID string) (bool, error)

	// CountEligible counts completed transfers created at or after since
	// with amount >= minAmount whose beneficiary is not a restricted
	// destination account. A zero since counts the full history.
	CountEligible(ctx context.Context, customerID string, minAmount decimal.Decimal, since time.Time) (int, error)

	// HasCompletedToBeneficiarySince reports whether a completed transfer
	// from customer to beneficiary exists with created_at >= since.
	HasCompletedToBeneficiarySince(ctx context.Context, customerID, beneficiaryID string, since time.Time) (bool, error)
}

// CustomerStore reads cap configuration and maintains the denormalized
// used-limit counter owned by this service.
type CustomerStore interface {
	GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error)
	UpdateUsedLimit(ctx context.Context, customerID string, usedLimit decimal.Decimal) error
}

// BeneficiaryStore resolves transfer destinations.
type BeneficiaryStore interface {
	GetBeneficiary(ctx context.Context, beneficiaryID string) (*domain.Beneficiary, error)
}

// BonusStore persists milestone bonuses and cycle anchors.
type BonusStore interface {
	CreateBonus(ctx context.Context, b *domain.Bonus) (*domain.Bonus, error)
	SumAwarded(ctx context.Context, customerID string) (decimal.Decimal, error)
	CountAwarded(ctx context.Context, customerID string) (int, error)
	ListBonuses(ctx context.Context, customerID string) ([]domain.Bonus, error)

	// ActiveCycle returns the most recently started cycle for the
	// customer, or nil when no cycle has been started yet.
	ActiveCycle(ctx context.Context, customerID string) (*domain.BonusCycle, error)
	StartCycle(ctx context.Context, cycle *domain.BonusCycle) error
}

// FlagStore persists compliance flags. Flags are never deleted.
type FlagStore interface {
	CreateFlag(ctx context.Context, f *domain.ComplianceFlag) (*domain.ComplianceFlag, error)
	GetFlag(ctx context.Context, flagID string) (*domain.ComplianceFlag, error)
	ListFlags(ctx context.Context, customerID string, status domain.FlagStatus) ([]domain.ComplianceFlag, error)
	UpdateFlagStatus(ctx context.Context, flagID string, status domain.FlagStatus, notes string) error
}

// AuditSink records admin actions. Invoked by the service layer after
// every flag transition and admin override.
type AuditSink interface {
	Record(ctx context.Context, entry *domain.AuditEntry) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
