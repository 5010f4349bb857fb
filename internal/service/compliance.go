package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kweza/remit-backoffice-go/internal/config"
	"github.com/kweza/remit-backoffice-go/internal/domain"
	"github.com/kweza/remit-backoffice-go/internal/infra/observability"
	"github.com/kweza/remit-backoffice-go/internal/port"
)

// ComplianceService owns the MLRO flag review workflow. Flags move
// through the pending/hold/approved/rejected state machine; the SLA
// deadline is derived from severity on every read and never stored.
type ComplianceService struct {
	flags   port.FlagStore
	audit   port.AuditSink
	metrics *observability.Metrics
	logger  *zap.Logger
	cfg     *config.Config
	now     func() time.Time
}

// NewComplianceService creates a compliance service.
func NewComplianceService(
	flags port.FlagStore,
	audit port.AuditSink,
	metrics *observability.Metrics,
	logger *zap.Logger,
	cfg *config.Config,
) *ComplianceService {
	return &ComplianceService{
		flags:   flags,
		audit:   audit,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// CreateFlag records a new flag from the screening pipeline. New flags
// always start pending.
func (s *ComplianceService) CreateFlag(ctx context.Context, req *domain.CreateFlagRequest) (*domain.FlagWithSLA, error) {
	ctx, span := tracer.Start(ctx, "ComplianceService.CreateFlag")
	defer span.End()

	if req.CustomerID == "" {
		return nil, &domain.ErrValidation{Field: "customer_id", Message: "required"}
	}
	if !domain.ValidFlagType(req.Type) {
		return nil, &domain.ErrValidation{Field: "type", Message: "unknown flag type"}
	}
	if !domain.ValidSeverity(req.Severity) {
		return nil, &domain.ErrValidation{Field: "severity", Message: "unknown severity"}
	}

	f := &domain.ComplianceFlag{
		ID:         uuid.New().String(),
		CustomerID: req.CustomerID,
		Type:       req.Type,
		Severity:   req.Severity,
		Status:     domain.FlagPending,
		Notes:      req.Notes,
		CreatedAt:  s.now(),
	}
	created, err := s.flags.CreateFlag(ctx, f)
	if err != nil {
		s.metrics.IncrStoreError("compliance_flags")
		return nil, err
	}

	s.logger.Info("compliance flag created",
		zap.String("flag_id", created.ID),
		zap.String("customer_id", created.CustomerID),
		zap.String("type", string(created.Type)),
		zap.String("severity", string(created.Severity)),
	)

	return s.withSLA(created), nil
}

// Transition applies a review action to a flag. Every applied action is
// audited with the acting reviewer.
func (s *ComplianceService) Transition(ctx context.Context, flagID string, action domain.FlagAction, notes, actorID string) (*domain.FlagWithSLA, error) {
	ctx, span := tracer.Start(ctx, "ComplianceService.Transition")
	defer span.End()

	f, err := s.flags.GetFlag(ctx, flagID)
	if err != nil {
		return nil, err
	}

	next, err := f.Status.Apply(action)
	if err != nil {
		return nil, err
	}

	if err := s.flags.UpdateFlagStatus(ctx, flagID, next, notes); err != nil {
		s.metrics.IncrStoreError("compliance_flags")
		return nil, err
	}

	s.metrics.IncrFlagTransition(string(action))
	if err := s.audit.Record(ctx, &domain.AuditEntry{
		Action:   "flag." + string(action),
		Resource: "flag/" + flagID,
		ActorID:  actorID,
		Before:   string(f.Status),
		After:    string(next),
	}); err != nil {
		s.logger.Warn("failed to record audit entry", zap.Error(err))
	}

	s.logger.Info("compliance flag transitioned",
		zap.String("flag_id", flagID),
		zap.String("action", string(action)),
		zap.String("from", string(f.Status)),
		zap.String("to", string(next)),
		zap.String("actor_id", actorID),
	)

	f.Status = next
	if notes != "" {
		f.Notes = notes
	}
	f.UpdatedAt = s.now()
	return s.withSLA(f), nil
}

// GetFlag returns a flag with its derived SLA view.
func (s *ComplianceService) GetFlag(ctx context.Context, flagID string) (*domain.FlagWithSLA, error) {
	ctx, span := tracer.Start(ctx, "ComplianceService.GetFlag")
	defer span.End()

	f, err := s.flags.GetFlag(ctx, flagID)
	if err != nil {
		return nil, err
	}
	return s.withSLA(f), nil
}

// ListFlags returns flags matching the optional customer and status
// filters, each with its derived SLA view.
func (s *ComplianceService) ListFlags(ctx context.Context, customerID string, status domain.FlagStatus) ([]domain.FlagWithSLA, error) {
	ctx, span := tracer.Start(ctx, "ComplianceService.ListFlags")
	defer span.End()

	if status != "" {
		switch status {
		case domain.FlagPending, domain.FlagHold, domain.FlagApproved, domain.FlagRejected:
		default:
			return nil, &domain.ErrValidation{Field: "status", Message: "unknown flag status"}
		}
	}

	flags, err := s.flags.ListFlags(ctx, customerID, status)
	if err != nil {
		return nil, err
	}

	out := make([]domain.FlagWithSLA, 0, len(flags))
	for i := range flags {
		out = append(out, *s.withSLA(&flags[i]))
	}
	return out, nil
}

// SLAFor derives the review deadline for a flag. Remaining hours floor
// at zero; a breach is only meaningful while the flag is still open.
func (s *ComplianceService) SLAFor(f *domain.ComplianceFlag) domain.SLAStatus {
	window, ok := s.cfg.SLAWindows[f.Severity]
	if !ok {
		window = s.cfg.SLAWindows[domain.SeverityLow]
	}

	deadline := f.CreatedAt.Add(window)
	applicable := !f.Status.Terminal()
	remaining := deadline.Sub(s.now())

	sla := domain.SLAStatus{
		Deadline:   deadline,
		Applicable: applicable,
	}
	// A flag sitting exactly on its deadline is not yet breached.
	if remaining >= 0 {
		sla.RemainingHours = int(remaining.Hours())
	} else if applicable {
		sla.Breached = true
	}
	return sla
}

func (s *ComplianceService) withSLA(f *domain.ComplianceFlag) *domain.FlagWithSLA {
	sla := s.SLAFor(f)
	if sla.Breached {
		s.metrics.IncrSLABreach()
	}
	return &domain.FlagWithSLA{ComplianceFlag: *f, SLA: sla}
}
