package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kweza/remit-backoffice-go/internal/config"
	"github.com/kweza/remit-backoffice-go/internal/domain"
	"github.com/kweza/remit-backoffice-go/internal/infra/observability"
	"github.com/kweza/remit-backoffice-go/internal/port"
)

// BonusService runs the milestone bonus programme: every Nth eligible
// transfer in the active cycle earns a fixed reward from the milestone
// table. Non-eligibility is a normal outcome carried in the result, not
// an error.
type BonusService struct {
	transfers     port.TransferStore
	beneficiaries port.BeneficiaryStore
	bonuses       port.BonusStore
	audit         port.AuditSink
	metrics       *observability.Metrics
	logger        *zap.Logger
	cfg           *config.Config
}

// NewBonusService creates a bonus service.
func NewBonusService(
	transfers port.TransferStore,
	beneficiaries port.BeneficiaryStore,
	bonuses port.BonusStore,
	audit port.AuditSink,
	metrics *observability.Metrics,
	logger *zap.Logger,
	cfg *config.Config,
) *BonusService {
	return &BonusService{
		transfers:     transfers,
		beneficiaries: beneficiaries,
		bonuses:       bonuses,
		audit:         audit,
		metrics:       metrics,
		logger:        logger,
		cfg:           cfg,
	}
}

// CheckEligibility evaluates the rules in order and short-circuits on
// the first miss. The prospective transfer would be the (N+1)th eligible
// transfer of the current cycle, where N is the settled eligible count.
func (s *BonusService) CheckEligibility(ctx context.Context, customerID, beneficiaryID string, amount decimal.Decimal) (*domain.EligibilityResult, error) {
	ctx, span := tracer.Start(ctx, "BonusService.CheckEligibility")
	defer span.End()

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, &domain.ErrInvalidAmount{Amount: amount}
	}

	if amount.LessThan(s.cfg.BonusMinAmount) {
		return &domain.EligibilityResult{Eligible: false, Reason: domain.ReasonBelowMinimum}, nil
	}

	if beneficiaryID == "" {
		return &domain.EligibilityResult{Eligible: false, Reason: domain.ReasonBeneficiaryUnknown}, nil
	}
	ben, err := s.beneficiaries.GetBeneficiary(ctx, beneficiaryID)
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return &domain.EligibilityResult{Eligible: false, Reason: domain.ReasonBeneficiaryUnknown}, nil
		}
		return nil, err
	}
	if ben.IsRDA() {
		return &domain.EligibilityResult{Eligible: false, Reason: domain.ReasonRDAExcluded}, nil
	}

	cooldownStart := time.Now().Add(-s.cfg.BonusCooldown)
	recent, err := s.transfers.HasCompletedToBeneficiarySince(ctx, customerID, beneficiaryID, cooldownStart)
	if err != nil {
		return nil, err
	}
	if recent {
		return &domain.EligibilityResult{Eligible: false, Reason: domain.ReasonCooldown}, nil
	}

	n, err := s.eligibleCount(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if n >= s.cfg.BonusCycleLength {
		// Cycle exhausted; counting stays frozen until an explicit reset.
		return &domain.EligibilityResult{
			Eligible:       false,
			Reason:         domain.ReasonMilestoneReached,
			TransferNumber: n + 1,
		}, nil
	}

	number := n + 1
	for _, m := range s.cfg.Milestones {
		if m.Transfers == number {
			amountCopy := m.Amount
			return &domain.EligibilityResult{
				Eligible:       true,
				Reason:         "",
				BonusAmount:    &amountCopy,
				MilestoneTier:  m.Tier,
				TransferNumber: number,
				NextMilestone:  s.nextMilestoneAfter(number),
			}, nil
		}
	}

	return &domain.EligibilityResult{
		Eligible:       false,
		Reason:         domain.ReasonNoMilestone,
		TransferNumber: number,
		NextMilestone:  s.nextMilestoneAfter(n),
	}, nil
}

// AwardBonus persists the reward for a settled transfer, stamped with
// the active cycle anchor. The unique index on transfer_id makes the
// award idempotent: a duplicate insert is swallowed and reported as nil.
func (s *BonusService) AwardBonus(ctx context.Context, customerID, transferID string, res *domain.EligibilityResult) (*domain.Bonus, error) {
	ctx, span := tracer.Start(ctx, "BonusService.AwardBonus")
	defer span.End()

	if res == nil || !res.Eligible || res.BonusAmount == nil {
		return nil, nil
	}

	anchorID := ""
	cycle, err := s.bonuses.ActiveCycle(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if cycle != nil {
		anchorID = cycle.AnchorID
	}

	now := time.Now()
	b := &domain.Bonus{
		ID:            uuid.New().String(),
		CustomerID:    customerID,
		TransferID:    transferID,
		Amount:        *res.BonusAmount,
		MilestoneTier: res.MilestoneTier,
		CycleAnchorID: anchorID,
		AwardedAt:     now,
		ExpiresAt:     now.Add(s.cfg.BonusValidity),
	}

	created, err := s.bonuses.CreateBonus(ctx, b)
	if err != nil {
		var dup *domain.ErrDuplicate
		if errors.As(err, &dup) {
			s.logger.Warn("bonus already awarded for transfer",
				zap.String("customer_id", customerID),
				zap.String("transfer_id", transferID),
			)
			return nil, nil
		}
		s.metrics.IncrStoreError("bonuses")
		return nil, err
	}

	s.metrics.IncrBonusAward(strconv.Itoa(res.MilestoneTier))
	s.logger.Info("milestone bonus awarded",
		zap.String("customer_id", customerID),
		zap.String("transfer_id", transferID),
		zap.Int("tier", res.MilestoneTier),
		zap.String("amount", created.Amount.String()),
	)

	return created, nil
}

// GetBonusStatus aggregates the customer's cycle view. The independent
// store reads run concurrently.
func (s *BonusService) GetBonusStatus(ctx context.Context, customerID string) (*domain.BonusStatus, error) {
	ctx, span := tracer.Start(ctx, "BonusService.GetBonusStatus")
	defer span.End()

	cycle, err := s.bonuses.ActiveCycle(ctx, customerID)
	if err != nil {
		return nil, err
	}
	since := time.Time{}
	anchorID := ""
	if cycle != nil {
		since = cycle.StartedAt
		anchorID = cycle.AnchorID
	}

	var (
		eligible int
		awarded  int
		total    decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		eligible, err = s.transfers.CountEligible(gctx, customerID, s.cfg.BonusMinAmount, since)
		return err
	})
	g.Go(func() error {
		var err error
		awarded, err = s.bonuses.CountAwarded(gctx, customerID)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.bonuses.SumAwarded(gctx, customerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	status := &domain.BonusStatus{
		EligibleTransfers: eligible,
		BonusesAwarded:    awarded,
		TotalAwarded:      total,
		CycleAnchorID:     anchorID,
		CycleComplete:     eligible >= s.cfg.BonusCycleLength,
	}
	if !status.CycleComplete {
		status.NextMilestone = s.nextMilestoneAfter(eligible)
	}
	return status, nil
}

// StartCycle is the explicit reset: a fresh anchor restarts milestone
// counting from zero. The engine never resets a cycle on its own.
func (s *BonusService) StartCycle(ctx context.Context, customerID, actorID string) (*domain.BonusCycle, error) {
	ctx, span := tracer.Start(ctx, "BonusService.StartCycle")
	defer span.End()

	cycle := &domain.BonusCycle{
		AnchorID:   uuid.New().String(),
		CustomerID: customerID,
		StartedAt:  time.Now(),
	}
	if err := s.bonuses.StartCycle(ctx, cycle); err != nil {
		s.metrics.IncrStoreError("bonus_cycles")
		return nil, err
	}

	if err := s.audit.Record(ctx, &domain.AuditEntry{
		Action:   "bonus.cycle_start",
		Resource: "customer/" + customerID,
		ActorID:  actorID,
		After:    cycle.AnchorID,
	}); err != nil {
		s.logger.Warn("failed to record audit entry", zap.Error(err))
	}

	s.logger.Info("bonus cycle started",
		zap.String("customer_id", customerID),
		zap.String("anchor_id", cycle.AnchorID),
	)
	return cycle, nil
}

// ListBonuses returns the customer's awarded bonuses, newest first.
func (s *BonusService) ListBonuses(ctx context.Context, customerID string) ([]domain.Bonus, error) {
	ctx, span := tracer.Start(ctx, "BonusService.ListBonuses")
	defer span.End()

	return s.bonuses.ListBonuses(ctx, customerID)
}

// eligibleCount counts settled eligible transfers inside the active
// cycle; with no cycle started, the full history counts.
func (s *BonusService) eligibleCount(ctx context.Context, customerID string) (int, error) {
	since := time.Time{}
	cycle, err := s.bonuses.ActiveCycle(ctx, customerID)
	if err != nil {
		return 0, err
	}
	if cycle != nil {
		since = cycle.StartedAt
	}
	return s.transfers.CountEligible(ctx, customerID, s.cfg.BonusMinAmount, since)
}

// nextMilestoneAfter returns the smallest milestone strictly above n,
// or nil when the ladder is exhausted.
func (s *BonusService) nextMilestoneAfter(n int) *domain.NextMilestone {
	var best *domain.Milestone
	for i := range s.cfg.Milestones {
		m := &s.cfg.Milestones[i]
		if m.Transfers > n && (best == nil || m.Transfers < best.Transfers) {
			best = m
		}
	}
	if best == nil {
		return nil
	}
	return &domain.NextMilestone{Transfers: best.Transfers, Bonus: best.Amount}
}
