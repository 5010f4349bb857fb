package service_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kweza/remit-backoffice-go/internal/domain"
)

// Hand-written mocks with function fields. Unset fields return zero
// values so each test only wires what it exercises.

type mockTransferStore struct {
	createFn        func(ctx context.Context, t *domain.Transfer) (*domain.Transfer, error)
	getFn           func(ctx context.Context, id string) (*domain.Transfer, error)
	listFn          func(ctx context.Context, customerID string, page, pageSize int) ([]domain.Transfer, error)
	updateStatusFn  func(ctx context.Context, id string, status domain.TransferStatus, reason string) error
	findCompletedFn func(ctx context.Context, customerID string, start, end time.Time) ([]domain.Transfer, error)
	existsByRefIDFn func(ctx context.Context, refID string) (bool, error)
	countEligibleFn func(ctx context.Context, customerID string, minAmount decimal.Decimal, since time.Time) (int, error)
	hasCompletedFn  func(ctx context.Context, customerID, beneficiaryID string, since time.Time) (bool, error)
}

func (m *mockTransferStore) CreateTransfer(ctx context.Context, t *domain.Transfer) (*domain.Transfer, error) {
	if m.createFn != nil {
		return m.createFn(ctx, t)
	}
	return t, nil
}

func (m *mockTransferStore) GetTransfer(ctx context.Context, id string) (*domain.Transfer, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, &domain.ErrNotFound{Resource: "transfer", ID: id}
}

func (m *mockTransferStore) ListTransfers(ctx context.Context, customerID string, page, pageSize int) ([]domain.Transfer, error) {
	if m.listFn != nil {
		return m.listFn(ctx, customerID, page, pageSize)
	}
	return nil, nil
}

func (m *mockTransferStore) UpdateTransferStatus(ctx context.Context, id string, status domain.TransferStatus, reason string) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status, reason)
	}
	return nil
}

func (m *mockTransferStore) FindCompletedByCustomerInRange(ctx context.Context, customerID string, start, end time.Time) ([]domain.Transfer, error) {
	if m.findCompletedFn != nil {
		return m.findCompletedFn(ctx, customerID, start, end)
	}
	return nil, nil
}

func (m *mockTransferStore) ExistsByRefID(ctx context.Context, refID string) (bool, error) {
	if m.existsByRefIDFn != nil {
		return m.existsByRefIDFn(ctx, refID)
	}
	return false, nil
}

func (m *mockTransferStore) CountEligible(ctx context.Context, customerID string, minAmount decimal.Decimal, since time.Time) (int, error) {
	if m.countEligibleFn != nil {
		return m.countEligibleFn(ctx, customerID, minAmount, since)
	}
	return 0, nil
}

func (m *mockTransferStore) HasCompletedToBeneficiarySince(ctx context.Context, customerID, beneficiaryID string, since time.Time) (bool, error) {
	if m.hasCompletedFn != nil {
		return m.hasCompletedFn(ctx, customerID, beneficiaryID, since)
	}
	return false, nil
}

type mockCustomerStore struct {
	getFn            func(ctx context.Context, id string) (*domain.Customer, error)
	updateUsedFn     func(ctx context.Context, id string, usedLimit decimal.Decimal) error
	updateUsedCalls  int
	lastUsedLimitSet decimal.Decimal
}

func (m *mockCustomerStore) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, &domain.ErrNotFound{Resource: "customer", ID: id}
}

func (m *mockCustomerStore) UpdateUsedLimit(ctx context.Context, id string, usedLimit decimal.Decimal) error {
	m.updateUsedCalls++
	m.lastUsedLimitSet = usedLimit
	if m.updateUsedFn != nil {
		return m.updateUsedFn(ctx, id, usedLimit)
	}
	return nil
}

type mockBeneficiaryStore struct {
	getFn func(ctx context.Context, id string) (*domain.Beneficiary, error)
}

func (m *mockBeneficiaryStore) GetBeneficiary(ctx context.Context, id string) (*domain.Beneficiary, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, &domain.ErrNotFound{Resource: "beneficiary", ID: id}
}

type mockBonusStore struct {
	createFn      func(ctx context.Context, b *domain.Bonus) (*domain.Bonus, error)
	sumFn         func(ctx context.Context, customerID string) (decimal.Decimal, error)
	countFn       func(ctx context.Context, customerID string) (int, error)
	listFn        func(ctx context.Context, customerID string) ([]domain.Bonus, error)
	activeCycleFn func(ctx context.Context, customerID string) (*domain.BonusCycle, error)
	startCycleFn  func(ctx context.Context, cycle *domain.BonusCycle) error
	created       []*domain.Bonus
}

func (m *mockBonusStore) CreateBonus(ctx context.Context, b *domain.Bonus) (*domain.Bonus, error) {
	m.created = append(m.created, b)
	if m.createFn != nil {
		return m.createFn(ctx, b)
	}
	return b, nil
}

func (m *mockBonusStore) SumAwarded(ctx context.Context, customerID string) (decimal.Decimal, error) {
	if m.sumFn != nil {
		return m.sumFn(ctx, customerID)
	}
	return decimal.Zero, nil
}

func (m *mockBonusStore) CountAwarded(ctx context.Context, customerID string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, customerID)
	}
	return 0, nil
}

func (m *mockBonusStore) ListBonuses(ctx context.Context, customerID string) ([]domain.Bonus, error) {
	if m.listFn != nil {
		return m.listFn(ctx, customerID)
	}
	return nil, nil
}

func (m *mockBonusStore) ActiveCycle(ctx context.Context, customerID string) (*domain.BonusCycle, error) {
	if m.activeCycleFn != nil {
		return m.activeCycleFn(ctx, customerID)
	}
	return nil, nil
}

func (m *mockBonusStore) StartCycle(ctx context.Context, cycle *domain.BonusCycle) error {
	if m.startCycleFn != nil {
		return m.startCycleFn(ctx, cycle)
	}
	return nil
}

type mockFlagStore struct {
	createFn func(ctx context.Context, f *domain.ComplianceFlag) (*domain.ComplianceFlag, error)
	getFn    func(ctx context.Context, id string) (*domain.ComplianceFlag, error)
	listFn   func(ctx context.Context, customerID string, status domain.FlagStatus) ([]domain.ComplianceFlag, error)
	updateFn func(ctx context.Context, id string, status domain.FlagStatus, notes string) error
}

func (m *mockFlagStore) CreateFlag(ctx context.Context, f *domain.ComplianceFlag) (*domain.ComplianceFlag, error) {
	if m.createFn != nil {
		return m.createFn(ctx, f)
	}
	return f, nil
}

func (m *mockFlagStore) GetFlag(ctx context.Context, id string) (*domain.ComplianceFlag, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, &domain.ErrNotFound{Resource: "flag", ID: id}
}

func (m *mockFlagStore) ListFlags(ctx context.Context, customerID string, status domain.FlagStatus) ([]domain.ComplianceFlag, error) {
	if m.listFn != nil {
		return m.listFn(ctx, customerID, status)
	}
	return nil, nil
}

func (m *mockFlagStore) UpdateFlagStatus(ctx context.Context, id string, status domain.FlagStatus, notes string) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, status, notes)
	}
	return nil
}

type mockAuditSink struct {
	entries  []*domain.AuditEntry
	recordFn func(ctx context.Context, entry *domain.AuditEntry) error
}

func (m *mockAuditSink) Record(ctx context.Context, entry *domain.AuditEntry) error {
	m.entries = append(m.entries, entry)
	if m.recordFn != nil {
		return m.recordFn(ctx, entry)
	}
	return nil
}

type mockCache struct {
	items map[string]*domain.Customer
}

func newMockCache() *mockCache {
	return &mockCache{items: make(map[string]*domain.Customer)}
}

func (m *mockCache) Get(key string) (*domain.Customer, bool) {
	c, ok := m.items[key]
	return c, ok
}

func (m *mockCache) Set(key string, value *domain.Customer) {
	m.items[key] = value
}

func (m *mockCache) Delete(key string) {
	delete(m.items, key)
}
