package handler

import (
	"encoding/json"
	"net/http"

	"renthub/internal/bookings/service"
	apperrors "renthub/pkg/errors"
	httputil "renthub/pkg/http"
	"renthub/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// AdminHandler carries the operator-side transitions. Routes under
// /api/v1/admin are gated by the shared-secret middleware.
type AdminHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewAdminHandler(service service.BookingService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		log:     log,
	}
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "error", writeErr)
		}
		return
	}

	status := r.URL.Query().Get("status")

	bookings, total, err := h.service.GetAll(r.Context(), status, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, int(offset)); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "error", err)
	}
}

func (h *AdminHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.Confirm(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Confirm", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Confirm", "error", err)
	}
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid request body")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Reject", "error", writeErr)
		}
		return
	}

	booking, err := h.service.Reject(r.Context(), ps.ByName("id"), req.Reason)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Reject", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Reject", "error", err)
	}
}

type refundCompleteRequest struct {
	ExternalRef string `json:"external_ref"`
}

// RefundComplete is the webhook the payment gateway calls once a refund has
// actually cleared.
func (h *AdminHandler) RefundComplete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req refundCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid request body")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "RefundComplete", "error", writeErr)
		}
		return
	}
	if req.ExternalRef == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("external_ref is required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "RefundComplete", "error", writeErr)
		}
		return
	}

	booking, err := h.service.CompleteRefund(r.Context(), ps.ByName("id"), req.ExternalRef)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "RefundComplete", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "RefundComplete", "error", err)
	}
}

func (h *AdminHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/admin/bookings", h.List)
	router.POST("/api/v1/admin/bookings/id/:id/confirm", h.Confirm)
	router.POST("/api/v1/admin/bookings/id/:id/reject", h.Reject)
	router.POST("/api/v1/admin/bookings/id/:id/refund-complete", h.RefundComplete)
}
