package service

import (
	"testing"
	"time"

	"github.com/kweza/remit-backoffice-go/internal/config"
	"github.com/kweza/remit-backoffice-go/internal/domain"
)

// The deadline itself is still inside the window; the breach starts one
// instant past it. Pinning the clock needs access to the unexported now
// hook, so this test lives inside the package.
func TestSLAForDeadlineBoundary(t *testing.T) {
	cfg := config.Load()
	created := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	deadline := created.Add(cfg.SLAWindows[domain.SeverityCritical])

	flag := &domain.ComplianceFlag{
		Severity:  domain.SeverityCritical,
		Status:    domain.FlagPending,
		CreatedAt: created,
	}

	svc := &ComplianceService{cfg: cfg, now: func() time.Time { return deadline }}

	sla := svc.SLAFor(flag)
	if sla.Breached {
		t.Error("flag exactly on its deadline reported as breached")
	}
	if sla.RemainingHours != 0 {
		t.Errorf("RemainingHours = %d, want 0", sla.RemainingHours)
	}

	svc.now = func() time.Time { return deadline.Add(time.Second) }

	sla = svc.SLAFor(flag)
	if !sla.Breached {
		t.Error("flag past its deadline not reported as breached")
	}
	if sla.RemainingHours != 0 {
		t.Errorf("RemainingHours = %d, want 0 after the deadline", sla.RemainingHours)
	}
}
