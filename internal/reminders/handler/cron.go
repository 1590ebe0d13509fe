package handler

import (
	"net/http"

	"renthub/internal/reminders/service"
	httputil "renthub/pkg/http"
	"renthub/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// CronHandler exposes the reminder sweep as an HTTP trigger for external
// schedulers. The in-process gocron job calls the same service; the latch in
// storage keeps double triggers harmless.
type CronHandler struct {
	service service.ReminderService
	log     *logger.Logger
}

func NewCronHandler(service service.ReminderService, log *logger.Logger) *CronHandler {
	return &CronHandler{
		service: service,
		log:     log,
	}
}

func (h *CronHandler) Sweep(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	result, err := h.service.Sweep(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Sweep", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Sweep", "error", err)
	}
}

func (h *CronHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/admin/cron/reminders", h.Sweep)
}
