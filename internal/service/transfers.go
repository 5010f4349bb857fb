package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kweza/remit-backoffice-go/internal/config"
	"github.com/kweza/remit-backoffice-go/internal/domain"
	"github.com/kweza/remit-backoffice-go/internal/infra/observability"
	"github.com/kweza/remit-backoffice-go/internal/port"
)

// TransferService orchestrates the transfer lifecycle: cap check on
// submission, settlement with used-limit reconciliation and bonus
// evaluation, and the audited refund override.
type TransferService struct {
	transfers port.TransferStore
	customers port.CustomerStore
	caps      *CapService
	bonus     *BonusService
	refids    *RefIDGenerator
	audit     port.AuditSink
	metrics   *observability.Metrics
	logger    *zap.Logger
	cfg       *config.Config
}

// NewTransferService creates a transfer service.
func NewTransferService(
	transfers port.TransferStore,
	customers port.CustomerStore,
	caps *CapService,
	bonus *BonusService,
	refids *RefIDGenerator,
	audit port.AuditSink,
	metrics *observability.Metrics,
	logger *zap.Logger,
	cfg *config.Config,
) *TransferService {
	return &TransferService{
		transfers: transfers,
		customers: customers,
		caps:      caps,
		bonus:     bonus,
		refids:    refids,
		audit:     audit,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Submit runs the cap check and, when allowed, creates a pending
// transfer with a fresh reference id. A cap denial is a normal result.
func (s *TransferService) Submit(ctx context.Context, req *domain.TransferRequest) (*domain.SubmitResult, error) {
	ctx, span := tracer.Start(ctx, "TransferService.Submit")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("transfer.submit", time.Since(start)) }()

	if req.CustomerID == "" {
		return nil, &domain.ErrValidation{Field: "customer_id", Message: "required"}
	}

	decision, err := s.caps.CheckCap(ctx, req.CustomerID, req.Amount)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return &domain.SubmitResult{Accepted: false, Cap: decision}, nil
	}

	created, err := s.createWithRefID(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("transfer submitted",
		zap.String("transfer_id", created.ID),
		zap.String("customer_id", created.CustomerID),
		zap.String("amount", created.Amount.String()),
		zap.String("ref_id", created.RefID),
	)

	return &domain.SubmitResult{Accepted: true, Transfer: created, Cap: decision}, nil
}

// createWithRefID inserts the transfer, regenerating the reference id
// when the storage unique index rejects a candidate that slipped past
// the pre-check.
func (s *TransferService) createWithRefID(ctx context.Context, req *domain.TransferRequest) (*domain.Transfer, error) {
	t := &domain.Transfer{
		ID:              uuid.New().String(),
		CustomerID:      req.CustomerID,
		BeneficiaryID:   req.BeneficiaryID,
		Amount:          req.Amount,
		AmountSecondary: req.AmountSecondary,
		Status:          domain.StatusPending,
		CreatedAt:       time.Now(),
	}

	var lastErr error
	for attempt := 0; attempt <= s.cfg.RefIDInsertRetries; attempt++ {
		t.RefID = s.refids.Generate(ctx)

		created, err := s.transfers.CreateTransfer(ctx, t)
		if err == nil {
			return created, nil
		}

		var dup *domain.ErrDuplicate
		if !errors.As(err, &dup) {
			s.metrics.IncrStoreError("transfers")
			return nil, err
		}
		lastErr = err
		s.metrics.IncrRefIDCollision()
		s.logger.Warn("ref id rejected by storage constraint, regenerating",
			zap.String("ref_id", t.RefID),
			zap.Int("attempt", attempt+1),
		)
	}
	return nil, &domain.ErrStorage{Store: "transfers", Err: lastErr}
}

// Settle marks a pending transfer completed, reconciles the customer's
// used-limit counter and evaluates the milestone bonus. Bonus and
// counter failures never undo a settlement.
func (s *TransferService) Settle(ctx context.Context, transferID string) (*domain.SettleResult, error) {
	ctx, span := tracer.Start(ctx, "TransferService.Settle")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("transfer.settle", time.Since(start)) }()

	t, err := s.transfers.GetTransfer(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if !t.Status.CanTransitionTo(domain.StatusCompleted) {
		return nil, &domain.ErrInvalidTransition{From: string(t.Status), Action: string(domain.StatusCompleted)}
	}

	// Eligibility is evaluated against the state before settlement, so
	// the transfer neither counts itself toward the milestone ladder nor
	// trips the cooldown on its own beneficiary.
	outcome, evalErr := s.bonus.CheckEligibility(ctx, t.CustomerID, t.BeneficiaryID, t.Amount)
	if evalErr != nil {
		s.logger.Warn("bonus evaluation failed, settling without award",
			zap.String("transfer_id", transferID),
			zap.Error(evalErr),
		)
	}

	if err := s.transfers.UpdateTransferStatus(ctx, transferID, domain.StatusCompleted, ""); err != nil {
		s.metrics.IncrStoreError("transfers")
		return nil, err
	}
	t.Status = domain.StatusCompleted
	t.UpdatedAt = time.Now()

	s.reconcileUsedLimit(ctx, t.CustomerID)

	result := &domain.SettleResult{
		Transfer:               t,
		Outcome:                outcome,
		BonusEvaluationSkipped: evalErr != nil,
	}
	if outcome != nil && outcome.Eligible {
		b, err := s.bonus.AwardBonus(ctx, t.CustomerID, t.ID, outcome)
		if err != nil {
			s.logger.Warn("bonus award failed after settlement",
				zap.String("transfer_id", transferID),
				zap.Error(err),
			)
			return result, nil
		}
		result.Bonus = b
	}

	return result, nil
}

// Fail marks a pending transfer failed with the provider's reason.
func (s *TransferService) Fail(ctx context.Context, transferID, reason string) (*domain.Transfer, error) {
	ctx, span := tracer.Start(ctx, "TransferService.Fail")
	defer span.End()

	return s.transition(ctx, transferID, domain.StatusFailed, reason)
}

// Cancel marks a pending transfer cancelled.
func (s *TransferService) Cancel(ctx context.Context, transferID string) (*domain.Transfer, error) {
	ctx, span := tracer.Start(ctx, "TransferService.Cancel")
	defer span.End()

	return s.transition(ctx, transferID, domain.StatusCancelled, "")
}

// Refund is the audited admin override on a settled transfer. The
// reason lives in the audit entry, not on the transfer row; the
// refunded amount leaves the period total, so the used-limit counter is
// reconciled afterwards.
func (s *TransferService) Refund(ctx context.Context, transferID, reason, actorID string) (*domain.Transfer, error) {
	ctx, span := tracer.Start(ctx, "TransferService.Refund")
	defer span.End()

	t, err := s.transition(ctx, transferID, domain.StatusRefunded, "")
	if err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, &domain.AuditEntry{
		Action:   "transfer.refund",
		Resource: "transfer/" + transferID,
		ActorID:  actorID,
		Reason:   reason,
		Before:   string(domain.StatusCompleted),
		After:    string(domain.StatusRefunded),
	}); err != nil {
		s.logger.Warn("failed to record audit entry", zap.Error(err))
	}

	s.reconcileUsedLimit(ctx, t.CustomerID)

	s.logger.Info("transfer refunded",
		zap.String("transfer_id", transferID),
		zap.String("actor_id", actorID),
		zap.String("reason", reason),
	)
	return t, nil
}

// GetTransfer fetches a transfer by id.
func (s *TransferService) GetTransfer(ctx context.Context, transferID string) (*domain.Transfer, error) {
	ctx, span := tracer.Start(ctx, "TransferService.GetTransfer")
	defer span.End()

	return s.transfers.GetTransfer(ctx, transferID)
}

// ListTransfers returns a page of the customer's transfers.
func (s *TransferService) ListTransfers(ctx context.Context, customerID string, page, pageSize int) ([]domain.Transfer, error) {
	ctx, span := tracer.Start(ctx, "TransferService.ListTransfers")
	defer span.End()

	return s.transfers.ListTransfers(ctx, customerID, page, pageSize)
}

// transition validates the lifecycle move and persists it. Only a move
// to failed carries a failure reason; other statuses never set one.
func (s *TransferService) transition(ctx context.Context, transferID string, target domain.TransferStatus, reason string) (*domain.Transfer, error) {
	t, err := s.transfers.GetTransfer(ctx, transferID)
	if err != nil {
		return nil, err
	}

	if !t.Status.CanTransitionTo(target) {
		return nil, &domain.ErrInvalidTransition{From: string(t.Status), Action: string(target)}
	}

	failureReason := ""
	if target == domain.StatusFailed {
		failureReason = reason
	}

	if err := s.transfers.UpdateTransferStatus(ctx, transferID, target, failureReason); err != nil {
		s.metrics.IncrStoreError("transfers")
		return nil, err
	}

	t.Status = target
	t.FailureReason = failureReason
	t.UpdatedAt = time.Now()
	return t, nil
}

// reconcileUsedLimit recomputes the customer's period total from settled
// transfers and writes the denormalized counter. The counter is a
// convenience for the account-system UI; failures are logged and the
// settlement stands.
func (s *TransferService) reconcileUsedLimit(ctx context.Context, customerID string) {
	cust, err := s.caps.Customer(ctx, customerID)
	if err != nil {
		s.logger.Warn("used-limit reconciliation: customer read failed",
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		return
	}

	periodStart, periodEnd := CurrentPeriod(cust.AnchorDay, time.Now())
	completed, err := s.transfers.FindCompletedByCustomerInRange(ctx, customerID, periodStart, periodEnd)
	if err != nil {
		s.logger.Warn("used-limit reconciliation: period scan failed",
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		return
	}

	total := decimal.Zero
	for _, t := range completed {
		total = total.Add(t.Amount)
	}

	if err := s.customers.UpdateUsedLimit(ctx, customerID, total); err != nil {
		s.logger.Warn("used-limit reconciliation: write failed",
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		return
	}
	s.caps.Invalidate(customerID)
}
