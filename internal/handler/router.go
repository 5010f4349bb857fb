package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/kweza/remit-backoffice-go/internal/domain"
	"github.com/kweza/remit-backoffice-go/internal/infra/observability"
	"github.com/kweza/remit-backoffice-go/internal/service"
)

var tracer = otel.Tracer("handler")

// Services bundles the engines served by the admin API.
type Services struct {
	Transfers  *service.TransferService
	Caps       *service.CapService
	Bonus      *service.BonusService
	Compliance *service.ComplianceService
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(ActorMiddleware(jwtSecret, logger))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Transfers, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Transfers
		// =============================================
		r.Post("/transfers", submitTransferHandler(svcs.Transfers, logger))
		r.Get("/transfers/{transferId}", getTransferHandler(svcs.Transfers, logger))
		r.Post("/transfers/{transferId}/settle", settleTransferHandler(svcs.Transfers, logger))
		r.Post("/transfers/{transferId}/fail", failTransferHandler(svcs.Transfers, logger))
		r.Post("/transfers/{transferId}/cancel", cancelTransferHandler(svcs.Transfers, logger))
		r.Post("/transfers/{transferId}/refund", refundTransferHandler(svcs.Transfers, logger))
		r.Get("/customers/{customerId}/transfers", listTransfersHandler(svcs.Transfers, logger))

		// =============================================
		// Caps
		// =============================================
		r.Get("/customers/{customerId}/cap", capStatusHandler(svcs.Caps, logger))

		// =============================================
		// Bonuses
		// =============================================
		r.Get("/customers/{customerId}/bonus/status", bonusStatusHandler(svcs.Bonus, logger))
		r.Get("/customers/{customerId}/bonus/eligibility", bonusEligibilityHandler(svcs.Bonus, logger))
		r.Get("/customers/{customerId}/bonuses", listBonusesHandler(svcs.Bonus, logger))
		r.Post("/customers/{customerId}/bonus/cycle", startCycleHandler(svcs.Bonus, logger))

		// =============================================
		// Compliance flags
		// =============================================
		r.Post("/flags", createFlagHandler(svcs.Compliance, logger))
		r.Get("/flags", listFlagsHandler(svcs.Compliance, logger))
		r.Get("/flags/{flagId}", getFlagHandler(svcs.Compliance, logger))
		r.Get("/flags/{flagId}/sla", flagSLAHandler(svcs.Compliance, logger))
		r.Post("/flags/{flagId}/approve", flagActionHandler(svcs.Compliance, domain.ActionApprove, logger))
		r.Post("/flags/{flagId}/reject", flagActionHandler(svcs.Compliance, domain.ActionReject, logger))
		r.Post("/flags/{flagId}/hold", flagActionHandler(svcs.Compliance, domain.ActionHold, logger))

		// =============================================
		// Metrics
		// =============================================
		r.Get("/metrics/compliance", complianceMetricsHandler(metrics))
	})

	return r
}

// ============================================================
// Health
// ============================================================

func healthzHandler(transfers *service.TransferService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "backoffice-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if transfers != nil {
			start := time.Now()
			_, err := transfers.ListTransfers(ctx, "health-check", 1, 1)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status == "degraded" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// ============================================================
// Metrics
// ============================================================

func complianceMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetComplianceSnapshot())
	}
}
