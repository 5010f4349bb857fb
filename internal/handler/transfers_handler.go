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
// Transfers
// ============================================================

func submitTransferHandler(svc *service.TransferService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transfers")
		defer span.End()

		var req domain.TransferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.String("customer.id", req.CustomerID))

		result, err := svc.Submit(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		// Cap denial is a decision, not an error.
		if !result.Accepted {
			writeJSON(w, http.StatusUnprocessableEntity, result)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

func getTransferHandler(svc *service.TransferService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transfers/{transferId}")
		defer span.End()

		transfer, err := svc.GetTransfer(ctx, chi.URLParam(r, "transferId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, transfer)
	}
}

func listTransfersHandler(svc *service.TransferService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers/{customerId}/transfers")
		defer span.End()

		customerID := chi.URLParam(r, "customerId")
		page, pageSize := parsePagination(r)

		transfers, err := svc.ListTransfers(ctx, customerID, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if transfers == nil {
			transfers = []domain.Transfer{}
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Transfer]{
			Data:     transfers,
			Page:     page,
			PageSize: pageSize,
		})
	}
}

func settleTransferHandler(svc *service.TransferService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transfers/{transferId}/settle")
		defer span.End()

		result, err := svc.Settle(ctx, chi.URLParam(r, "transferId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func failTransferHandler(svc *service.TransferService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transfers/{transferId}/fail")
		defer span.End()

		var body struct {
			Reason string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.Reason == "" {
			writeError(w, http.StatusBadRequest, "reason is required")
			return
		}

		transfer, err := svc.Fail(ctx, chi.URLParam(r, "transferId"), body.Reason)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, transfer)
	}
}

func cancelTransferHandler(svc *service.TransferService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transfers/{transferId}/cancel")
		defer span.End()

		transfer, err := svc.Cancel(ctx, chi.URLParam(r, "transferId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, transfer)
	}
}

func refundTransferHandler(svc *service.TransferService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transfers/{transferId}/refund")
		defer span.End()

		var body struct {
			Reason string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.Reason == "" {
			writeError(w, http.StatusBadRequest, "reason is required")
			return
		}

		actorID := ActorIDFromContext(ctx)
		transfer, err := svc.Refund(ctx, chi.URLParam(r, "transferId"), body.Reason, actorID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, transfer)
	}
}
