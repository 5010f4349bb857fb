package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kweza/remit-backoffice-go/internal/config"
	"github.com/kweza/remit-backoffice-go/internal/domain"
	"github.com/kweza/remit-backoffice-go/internal/infra/observability"
	"github.com/kweza/remit-backoffice-go/internal/port"
)

// CapReasonExceeded is the advisory denial reason.
const CapReasonExceeded = "monthly cap exceeded"

// CapService enforces the rolling monthly transfer cap. The check is
// advisory: it sums completed transfers only, so two in-flight transfers
// can both pass and be reconciled at settlement.
type CapService struct {
	customers port.CustomerStore
	transfers port.TransferStore
	cache     port.Cache[*domain.Customer]
	metrics   *observability.Metrics
	logger    *zap.Logger
	cfg       *config.Config
}

// NewCapService creates a cap service.
func NewCapService(
	customers port.CustomerStore,
	transfers port.TransferStore,
	cache port.Cache[*domain.Customer],
	metrics *observability.Metrics,
	logger *zap.Logger,
	cfg *config.Config,
) *CapService {
	return &CapService{
		customers: customers,
		transfers: transfers,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// CheckCap decides whether a prospective transfer of amount fits inside
// the customer's current period. A denial is a normal decision, not an
// error.
func (s *CapService) CheckCap(ctx context.Context, customerID string, amount decimal.Decimal) (*domain.CapDecision, error) {
	ctx, span := tracer.Start(ctx, "CapService.CheckCap")
	defer span.End()

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, &domain.ErrInvalidAmount{Amount: amount}
	}

	cust, err := s.Customer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	start, end := CurrentPeriod(cust.AnchorDay, time.Now())
	completed, err := s.transfers.FindCompletedByCustomerInRange(ctx, customerID, start, end)
	if err != nil {
		s.metrics.IncrStoreError("transfers")
		return nil, err
	}

	total := decimal.Zero
	for _, t := range completed {
		total = total.Add(t.Amount)
	}

	remaining := cust.MonthlyCap.Sub(total)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	decision := &domain.CapDecision{
		Allowed:       total.Add(amount).LessThanOrEqual(cust.MonthlyCap),
		Remaining:     remaining,
		TotalInPeriod: total,
		Cap:           cust.MonthlyCap,
		PeriodStart:   start,
		PeriodEnd:     end,
	}
	if !decision.Allowed {
		decision.Reason = CapReasonExceeded
		s.metrics.IncrCapCheck("denied")
		s.logger.Info("cap check denied",
			zap.String("customer_id", customerID),
			zap.String("amount", amount.String()),
			zap.String("total_in_period", total.String()),
			zap.String("cap", cust.MonthlyCap.String()),
		)
	} else {
		s.metrics.IncrCapCheck("allowed")
	}

	return decision, nil
}

// Customer returns the customer's cap configuration through the TTL
// cache, applying defaults to rows that predate cap provisioning.
func (s *CapService) Customer(ctx context.Context, customerID string) (*domain.Customer, error) {
	if c, ok := s.cache.Get(customerID); ok {
		s.metrics.IncrCacheHit("customers")
		return c, nil
	}
	s.metrics.IncrCacheMiss("customers")

	c, err := s.customers.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if c.MonthlyCap.LessThanOrEqual(decimal.Zero) {
		c.MonthlyCap = s.cfg.DefaultMonthlyCap
	}
	if c.AnchorDay < 1 || c.AnchorDay > 31 {
		c.AnchorDay = s.cfg.DefaultAnchorDay
	}

	s.cache.Set(customerID, c)
	return c, nil
}

// Invalidate drops the customer's cached configuration, used after the
// used-limit counter changes.
func (s *CapService) Invalidate(customerID string) {
	s.cache.Delete(customerID)
}
