package handler

import (
	"net/http"

	"activerse/internal/slots/service"
	httputil "activerse/pkg/http"
	"activerse/pkg/logger"
	"activerse/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type SlotHandler struct {
	service service.SlotService
	guard   *middleware.Guard
	log     *logger.Logger
}

func NewSlotHandler(service service.SlotService, guard *middleware.Guard, log *logger.Logger) *SlotHandler {
	return &SlotHandler{
		service: service,
		guard:   guard,
		log:     log,
	}
}

func (h *SlotHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date := ps.ByName("date")

	slots, err := h.service.Availability(r.Context(), date)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Availability", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) Reconcile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date := ps.ByName("date")
	slotTime := ps.ByName("time")

	slot, err := h.service.Reconcile(r.Context(), date, slotTime)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Reconcile", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, slot); err != nil {
		h.log.Error("failed to write success response", "handler", "Reconcile", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/availability/:date", h.Availability)
	router.POST("/api/slots/:date/:time/reconcile", h.guard.Wrap(h.Reconcile))
}
