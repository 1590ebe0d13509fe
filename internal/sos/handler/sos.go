package handler

import (
	"encoding/json"
	"net/http"

	"renthub/internal/sos/service"
	apperrors "renthub/pkg/errors"
	httputil "renthub/pkg/http"
	"renthub/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type SOSHandler struct {
	service service.SOSService
	log     *logger.Logger
}

func NewSOSHandler(service service.SOSService, log *logger.Logger) *SOSHandler {
	return &SOSHandler{
		service: service,
		log:     log,
	}
}

type issueRequest struct {
	BookingID string `json:"booking_id"`
}

func (h *SOSHandler) Issue(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BookingID == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("booking_id is required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Issue", "error", writeErr)
		}
		return
	}

	token, err := h.service.IssueToken(r.Context(), req.BookingID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Issue", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, token); err != nil {
		h.log.Error("failed to write created response", "handler", "Issue", "error", err)
	}
}

type verifyRequest struct {
	Token string `json:"token"`
}

func (h *SOSHandler) Verify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("token is required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Verify", "error", writeErr)
		}
		return
	}

	verification, err := h.service.VerifyToken(r.Context(), req.Token)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Verify", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, verification); err != nil {
		h.log.Error("failed to write success response", "handler", "Verify", "error", err)
	}
}

func (h *SOSHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/sos/tokens", h.Issue)
	router.POST("/api/v1/sos/tokens/verify", h.Verify)
}
