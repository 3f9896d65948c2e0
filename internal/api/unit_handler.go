package api

import (
	"camrental/internal/entities"
	"camrental/internal/model"
	"camrental/internal/service"
	"encoding/json"
	"github.com/gorilla/mux"
	"net/http"
)

type UnitHandler struct {
	Service *service.UnitService
}

func NewUnitHandler(svc *service.UnitService) *UnitHandler {
	return &UnitHandler{Service: svc}
}

func (h *UnitHandler) ListUnits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.ListUnits())
}

func (h *UnitHandler) RegisterUnit(w http.ResponseWriter, r *http.Request) {
	var req entities.UnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	u, err := req.ToModel()
	if err != nil {
		writeError(w, err)
		return
	}
	created, warn, err := h.Service.RegisterUnit(r.Context(), u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entities.NewUnitResponse(created, warn))
}

func (h *UnitHandler) UpdateUnit(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req entities.UnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	u := model.Unit{
		UnitRef: model.UnitRef{Model: vars["model"], Serial: vars["serial"]},
		Notes:   req.Notes,
	}
	updated, warn, err := h.Service.UpdateUnit(r.Context(), u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewUnitResponse(updated, warn))
}

func (h *UnitHandler) DeleteUnit(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ref := model.UnitRef{Model: vars["model"], Serial: vars["serial"]}
	warn, err := h.Service.RemoveUnit(r.Context(), ref)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]string{"message": "Unit removed"}
	if warn != nil {
		resp["warning"] = warn.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
