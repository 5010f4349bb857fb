package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kweza/remit-backoffice-go/internal/domain"
	"github.com/kweza/remit-backoffice-go/internal/service"
)

// ============================================================
// Milestone bonuses
// ============================================================

func bonusStatusHandler(svc *service.BonusService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers/{customerId}/bonus/status")
		defer span.End()

		status, err := svc.GetBonusStatus(ctx, chi.URLParam(r, "customerId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// GET /v1/customers/{customerId}/bonus/eligibility?beneficiary=ben-1&amount=120
// Dry run of the settlement-time evaluation for admin inspection.
func bonusEligibilityHandler(svc *service.BonusService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers/{customerId}/bonus/eligibility")
		defer span.End()

		customerID := chi.URLParam(r, "customerId")
		beneficiaryID := r.URL.Query().Get("beneficiary")

		raw := r.URL.Query().Get("amount")
		if raw == "" {
			writeError(w, http.StatusBadRequest, "amount query parameter is required")
			return
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "amount must be a decimal number")
			return
		}

		result, err := svc.CheckEligibility(ctx, customerID, beneficiaryID, amount)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func listBonusesHandler(svc *service.BonusService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers/{customerId}/bonuses")
		defer span.End()

		bonuses, err := svc.ListBonuses(ctx, chi.URLParam(r, "customerId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if bonuses == nil {
			bonuses = []domain.Bonus{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"bonuses": bonuses})
	}
}

func startCycleHandler(svc *service.BonusService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/customers/{customerId}/bonus/cycle")
		defer span.End()

		actorID := ActorIDFromContext(ctx)
		cycle, err := svc.StartCycle(ctx, chi.URLParam(r, "customerId"), actorID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, cycle)
	}
}
