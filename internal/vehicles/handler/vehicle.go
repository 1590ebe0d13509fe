package handler

import (
	"net/http"

	"renthub/internal/vehicles"
	httputil "renthub/pkg/http"
	"renthub/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// VehicleHandler exposes the bookable fleet so callers can pick a vehicle
// before requesting a slot.
type VehicleHandler struct {
	catalog vehicles.Catalog
	log     *logger.Logger
}

func NewVehicleHandler(catalog vehicles.Catalog, log *logger.Logger) *VehicleHandler {
	return &VehicleHandler{
		catalog: catalog,
		log:     log,
	}
}

func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	fleet, err := h.catalog.List(r.Context(), ps.ByName("type"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, fleet); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "error", err)
	}
}

func (h *VehicleHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/vehicles/:type", h.List)
}
