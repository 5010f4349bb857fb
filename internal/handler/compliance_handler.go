package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/kweza/remit-backoffice-go/internal/domain"
	"github.com/kweza/remit-backoffice-go/internal/service"
)

// ============================================================
// Compliance flags
// ============================================================

func createFlagHandler(svc *service.ComplianceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/flags")
		defer span.End()

		var req domain.CreateFlagRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.String("customer.id", req.CustomerID))

		flag, err := svc.CreateFlag(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, flag)
	}
}

// GET /v1/flags?customer=cust-1&status=pending
func listFlagsHandler(svc *service.ComplianceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/flags")
		defer span.End()

		customerID := r.URL.Query().Get("customer")
		status := domain.FlagStatus(r.URL.Query().Get("status"))

		flags, err := svc.ListFlags(ctx, customerID, status)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if flags == nil {
			flags = []domain.FlagWithSLA{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"flags": flags})
	}
}

func getFlagHandler(svc *service.ComplianceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/flags/{flagId}")
		defer span.End()

		flag, err := svc.GetFlag(ctx, chi.URLParam(r, "flagId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, flag)
	}
}

func flagSLAHandler(svc *service.ComplianceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/flags/{flagId}/sla")
		defer span.End()

		flag, err := svc.GetFlag(ctx, chi.URLParam(r, "flagId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, flag.SLA)
	}
}

// flagActionHandler serves the three review endpoints; the action is
// fixed per route.
func flagActionHandler(svc *service.ComplianceService, action domain.FlagAction, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/flags/{flagId}/"+string(action))
		defer span.End()

		var body struct {
			Notes string `json:"notes,omitempty"`
		}
		// An empty body is fine; notes are optional.
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		actorID := ActorIDFromContext(ctx)
		flag, err := svc.Transition(ctx, chi.URLParam(r, "flagId"), action, body.Notes, actorID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, flag)
	}
}
