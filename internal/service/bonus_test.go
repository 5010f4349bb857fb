package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kweza/remit-backoffice-go/internal/domain"
	"github.com/kweza/remit-backoffice-go/internal/infra/observability"
	"github.com/kweza/remit-backoffice-go/internal/service"
)

type bonusFixture struct {
	transfers     *mockTransferStore
	beneficiaries *mockBeneficiaryStore
	bonuses       *mockBonusStore
	audit         *mockAuditSink
	svc           *service.BonusService
}

func newBonusFixture() *bonusFixture {
	f := &bonusFixture{
		transfers:     &mockTransferStore{},
		beneficiaries: &mockBeneficiaryStore{},
		bonuses:       &mockBonusStore{},
		audit:         &mockAuditSink{},
	}
	f.svc = service.NewBonusService(
		f.transfers,
		f.beneficiaries,
		f.bonuses,
		f.audit,
		observability.NewMetrics(),
		zap.NewNop(),
		testConfig(),
	)
	return f
}

func (f *bonusFixture) withBeneficiary(kind domain.BeneficiaryKind) *bonusFixture {
	f.beneficiaries.getFn = func(ctx context.Context, id string) (*domain.Beneficiary, error) {
		return &domain.Beneficiary{ID: id, CustomerID: "cust-1", Kind: kind}, nil
	}
	return f
}

func (f *bonusFixture) withEligibleCount(n int) *bonusFixture {
	f.transfers.countEligibleFn = func(ctx context.Context, customerID string, minAmount decimal.Decimal, since time.Time) (int, error) {
		return n, nil
	}
	return f
}

func TestCheckEligibilityBelowMinimum(t *testing.T) {
	f := newBonusFixture()

	res, err := f.svc.CheckEligibility(context.Background(), "cust-1", "ben-1", decimal.NewFromInt(84))
	if err != nil {
		t.Fatalf("CheckEligibility: %v", err)
	}
	if res.Eligible || res.Reason != domain.ReasonBelowMinimum {
		t.Errorf("got %+v, want ineligible %q", res, domain.ReasonBelowMinimum)
	}
}

func TestCheckEligibilityExactMinimumPasses(t *testing.T) {
	// 85 is not below the minimum; with 3 prior eligible transfers this
	// is the 4th and lands on the first milestone.
	f := newBonusFixture().withBeneficiary(domain.KindOther).withEligibleCount(3)

	res, err := f.svc.CheckEligibility(context.Background(), "cust-1", "ben-1", decimal.NewFromInt(85))
	if err != nil {
		t.Fatalf("CheckEligibility: %v", err)
	}
	if !res.Eligible {
		t.Fatalf("got ineligible (%s), want eligible", res.Reason)
	}
	if res.MilestoneTier != 4 {
		t.Errorf("MilestoneTier = %d, want 4", res.MilestoneTier)
	}
	if res.BonusAmount == nil || !res.BonusAmount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("BonusAmount = %v, want 500", res.BonusAmount)
	}
	if res.TransferNumber != 4 {
		t.Errorf("TransferNumber = %d, want 4", res.TransferNumber)
	}
	if res.NextMilestone == nil || res.NextMilestone.Transfers != 8 {
		t.Errorf("NextMilestone = %+v, want transfers=8", res.NextMilestone)
	}
}

func TestCheckEligibilityInvalidAmount(t *testing.T) {
	f := newBonusFixture()

	_, err := f.svc.CheckEligibility(context.Background(), "cust-1", "ben-1", decimal.Zero)
	var invalid *domain.ErrInvalidAmount
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want *domain.ErrInvalidAmount", err)
	}
}

func TestCheckEligibilityUnknownBeneficiary(t *testing.T) {
	f := newBonusFixture() // mock store returns not found by default

	res, err := f.svc.CheckEligibility(context.Background(), "cust-1", "ghost", decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("CheckEligibility: %v", err)
	}
	if res.Eligible || res.Reason != domain.ReasonBeneficiaryUnknown {
		t.Errorf("got %+v, want ineligible %q", res, domain.ReasonBeneficiaryUnknown)
	}

	res, err = f.svc.CheckEligibility(context.Background(), "cust-1", "", decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("CheckEligibility: %v", err)
	}
	if res.Eligible || res.Reason != domain.ReasonBeneficiaryUnknown {
		t.Errorf("empty beneficiary: got %+v, want ineligible %q", res, domain.ReasonBeneficiaryUnknown)
	}
}

func TestCheckEligibilityRDAExcluded(t *testing.T) {
	f := newBonusFixture().withBeneficiary(domain.KindSelf).withEligibleCount(3)

	res, err := f.svc.CheckEligibility(context.Background(), "cust-1", "ben-1", decimal.NewFromInt(200))
	if err != nil {
		t.Fatalf("CheckEligibility: %v", err)
	}
	if res.Eligible || res.Reason != domain.ReasonRDAExcluded {
		t.Errorf("got %+v, want ineligible %q", res, domain.ReasonRDAExcluded)
	}
}

func TestCheckEligibilityCooldown(t *testing.T) {
	f := newBonusFixture().withBeneficiary(domain.KindOther).withEligibleCount(3)
	f.transfers.hasCompletedFn = func(ctx context.Context, customerID, beneficiaryID string, since time.Time) (bool, error) {
		return true, nil
	}

	res, err := f.svc.CheckEligibility(context.Background(), "cust-1", "ben-1", decimal.NewFromInt(200))
	if err != nil {
		t.Fatalf("CheckEligibility: %v", err)
	}
	if res.Eligible || res.Reason != domain.ReasonCooldown {
		t.Errorf("got %+v, want ineligible %q", res, domain.ReasonCooldown)
	}
}

func TestCheckEligibilityMilestoneLadder(t *testing.T) {
	tests := []struct {
		prior    int
		eligible bool
		tier     int
		amount   int64
	}{
		{prior: 0, eligible: false},
		{prior: 3, eligible: true, tier: 4, amount: 500},
		{prior: 4, eligible: false},
		{prior: 7, eligible: true, tier: 8, amount: 700},
		{prior: 10, eligible: false},
		{prior: 11, eligible: true, tier: 12, amount: 1000},
	}

	for _, tt := range tests {
		f := newBonusFixture().withBeneficiary(domain.KindOther).withEligibleCount(tt.prior)

		res, err := f.svc.CheckEligibility(context.Background(), "cust-1", "ben-1", decimal.NewFromInt(200))
		if err != nil {
			t.Fatalf("prior=%d: CheckEligibility: %v", tt.prior, err)
		}
		if res.Eligible != tt.eligible {
			t.Errorf("prior=%d: Eligible = %v, want %v (reason %q)", tt.prior, res.Eligible, tt.eligible, res.Reason)
			continue
		}
		if tt.eligible {
			if res.MilestoneTier != tt.tier {
				t.Errorf("prior=%d: tier = %d, want %d", tt.prior, res.MilestoneTier, tt.tier)
			}
			if res.BonusAmount == nil || !res.BonusAmount.Equal(decimal.NewFromInt(tt.amount)) {
				t.Errorf("prior=%d: amount = %v, want %d", tt.prior, res.BonusAmount, tt.amount)
			}
		} else if res.Reason != domain.ReasonNoMilestone {
			t.Errorf("prior=%d: reason = %q, want %q", tt.prior, res.Reason, domain.ReasonNoMilestone)
		}
	}
}

func TestCheckEligibilityCycleExhausted(t *testing.T) {
	f := newBonusFixture().withBeneficiary(domain.KindOther).withEligibleCount(12)

	res, err := f.svc.CheckEligibility(context.Background(), "cust-1", "ben-1", decimal.NewFromInt(200))
	if err != nil {
		t.Fatalf("CheckEligibility: %v", err)
	}
	if res.Eligible || res.Reason != domain.ReasonMilestoneReached {
		t.Errorf("got %+v, want ineligible %q", res, domain.ReasonMilestoneReached)
	}
}

func TestCheckEligibilityCountsWithinActiveCycle(t *testing.T) {
	cycleStart := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	f := newBonusFixture().withBeneficiary(domain.KindOther)
	f.bonuses.activeCycleFn = func(ctx context.Context, customerID string) (*domain.BonusCycle, error) {
		return &domain.BonusCycle{AnchorID: "anchor-1", CustomerID: customerID, StartedAt: cycleStart}, nil
	}
	var gotSince time.Time
	f.transfers.countEligibleFn = func(ctx context.Context, customerID string, minAmount decimal.Decimal, since time.Time) (int, error) {
		gotSince = since
		return 0, nil
	}

	if _, err := f.svc.CheckEligibility(context.Background(), "cust-1", "ben-1", decimal.NewFromInt(200)); err != nil {
		t.Fatalf("CheckEligibility: %v", err)
	}
	if !gotSince.Equal(cycleStart) {
		t.Errorf("eligible count since = %v, want cycle start %v", gotSince, cycleStart)
	}
}

func TestAwardBonus(t *testing.T) {
	f := newBonusFixture()
	f.bonuses.activeCycleFn = func(ctx context.Context, customerID string) (*domain.BonusCycle, error) {
		return &domain.BonusCycle{AnchorID: "anchor-1", CustomerID: customerID, StartedAt: time.Now().Add(-time.Hour)}, nil
	}

	amount := decimal.NewFromInt(500)
	res := &domain.EligibilityResult{Eligible: true, BonusAmount: &amount, MilestoneTier: 4, TransferNumber: 4}

	b, err := f.svc.AwardBonus(context.Background(), "cust-1", "tr-1", res)
	if err != nil {
		t.Fatalf("AwardBonus: %v", err)
	}
	if b == nil {
		t.Fatal("AwardBonus returned nil bonus")
	}
	if b.CycleAnchorID != "anchor-1" {
		t.Errorf("CycleAnchorID = %q, want anchor-1", b.CycleAnchorID)
	}
	if !b.Amount.Equal(amount) {
		t.Errorf("Amount = %s, want %s", b.Amount, amount)
	}
	if !b.ExpiresAt.After(b.AwardedAt) {
		t.Errorf("ExpiresAt %v not after AwardedAt %v", b.ExpiresAt, b.AwardedAt)
	}
}

func TestAwardBonusIneligibleIsNoOp(t *testing.T) {
	f := newBonusFixture()

	b, err := f.svc.AwardBonus(context.Background(), "cust-1", "tr-1", &domain.EligibilityResult{Eligible: false})
	if err != nil {
		t.Fatalf("AwardBonus: %v", err)
	}
	if b != nil {
		t.Errorf("bonus = %+v, want nil", b)
	}
	if len(f.bonuses.created) != 0 {
		t.Errorf("store received %d inserts, want 0", len(f.bonuses.created))
	}
}

func TestAwardBonusDuplicateIsIdempotent(t *testing.T) {
	f := newBonusFixture()
	f.bonuses.createFn = func(ctx context.Context, b *domain.Bonus) (*domain.Bonus, error) {
		return nil, &domain.ErrDuplicate{Key: "bonuses"}
	}

	amount := decimal.NewFromInt(500)
	b, err := f.svc.AwardBonus(context.Background(), "cust-1", "tr-1",
		&domain.EligibilityResult{Eligible: true, BonusAmount: &amount, MilestoneTier: 4})
	if err != nil {
		t.Fatalf("AwardBonus: %v", err)
	}
	if b != nil {
		t.Errorf("duplicate award must return nil, got %+v", b)
	}
}

func TestGetBonusStatus(t *testing.T) {
	f := newBonusFixture().withEligibleCount(5)
	f.bonuses.countFn = func(ctx context.Context, customerID string) (int, error) { return 1, nil }
	f.bonuses.sumFn = func(ctx context.Context, customerID string) (decimal.Decimal, error) {
		return decimal.NewFromInt(500), nil
	}
	f.bonuses.activeCycleFn = func(ctx context.Context, customerID string) (*domain.BonusCycle, error) {
		return &domain.BonusCycle{AnchorID: "anchor-1", StartedAt: time.Now().Add(-48 * time.Hour)}, nil
	}

	st, err := f.svc.GetBonusStatus(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("GetBonusStatus: %v", err)
	}
	if st.EligibleTransfers != 5 || st.BonusesAwarded != 1 {
		t.Errorf("counts = %d/%d, want 5/1", st.EligibleTransfers, st.BonusesAwarded)
	}
	if !st.TotalAwarded.Equal(decimal.NewFromInt(500)) {
		t.Errorf("TotalAwarded = %s, want 500", st.TotalAwarded)
	}
	if st.CycleComplete {
		t.Errorf("CycleComplete = true at 5 eligible transfers")
	}
	if st.NextMilestone == nil || st.NextMilestone.Transfers != 8 {
		t.Errorf("NextMilestone = %+v, want transfers=8", st.NextMilestone)
	}
}

func TestGetBonusStatusCycleComplete(t *testing.T) {
	f := newBonusFixture().withEligibleCount(12)

	st, err := f.svc.GetBonusStatus(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("GetBonusStatus: %v", err)
	}
	if !st.CycleComplete {
		t.Errorf("CycleComplete = false at 12 eligible transfers")
	}
	if st.NextMilestone != nil {
		t.Errorf("NextMilestone = %+v, want nil once the cycle is complete", st.NextMilestone)
	}
}

func TestStartCycleRecordsAudit(t *testing.T) {
	f := newBonusFixture()

	cycle, err := f.svc.StartCycle(context.Background(), "cust-1", "admin-7")
	if err != nil {
		t.Fatalf("StartCycle: %v", err)
	}
	if cycle.AnchorID == "" {
		t.Error("AnchorID is empty")
	}
	if len(f.audit.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(f.audit.entries))
	}
	if f.audit.entries[0].ActorID != "admin-7" {
		t.Errorf("ActorID = %q, want admin-7", f.audit.entries[0].ActorID)
	}
}
