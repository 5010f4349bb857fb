package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kweza/remit-backoffice-go/internal/service"
)

// ============================================================
// Cap status
// ============================================================

// GET /v1/customers/{customerId}/cap?amount=250
func capStatusHandler(svc *service.CapService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers/{customerId}/cap")
		defer span.End()

		customerID := chi.URLParam(r, "customerId")

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

		decision, err := svc.CheckCap(ctx, customerID, amount)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, decision)
	}
}
