package api

import (
	"camrental/internal/entities"
	"camrental/internal/service"
	"github.com/gorilla/mux"
	"net/http"
)

type HandoffHandler struct {
	Service *service.HandoffService
}

func NewHandoffHandler(svc *service.HandoffService) *HandoffHandler {
	return &HandoffHandler{Service: svc}
}

func (h *HandoffHandler) ConfirmPickup(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, warn, err := h.Service.ConfirmPickup(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewConfirmationResponse(c, warn))
}

func (h *HandoffHandler) ConfirmReturn(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, warn, err := h.Service.ConfirmReturn(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewConfirmationResponse(c, warn))
}
