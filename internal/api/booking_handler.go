package api

import (
	"camrental/internal/entities"
	"camrental/internal/errs"
	"camrental/internal/model"
	"camrental/internal/service"
	"encoding/json"
	"github.com/gorilla/mux"
	"net/http"
)

type BookingHandler struct {
	Service *service.BookingService
}

func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{Service: svc}
}

func (h *BookingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req entities.AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	candidate, err := req.ToModel()
	if err != nil {
		writeError(w, err)
		return
	}
	conflicts, err := h.Service.CheckAvailability(candidate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewAvailabilityResponse(conflicts))
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req entities.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	b, err := req.ToModel()
	if err != nil {
		writeError(w, err)
		return
	}
	created, warn, err := h.Service.ProposeBooking(r.Context(), b)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entities.NewBookingResponse(created, model.Confirmation{}, warn))
}

func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	filter := service.BookingFilter{
		Model:  params.Get("unit_model"),
		Serial: params.Get("unit_serial"),
	}
	if v := params.Get("from"); v != "" {
		date, err := model.ParseDate(v)
		if err != nil {
			writeError(w, &errs.ValidationError{Field: "from", Reason: err.Error()})
			return
		}
		filter.From = date
	}
	if v := params.Get("to"); v != "" {
		date, err := model.ParseDate(v)
		if err != nil {
			writeError(w, &errs.ValidationError{Field: "to", Reason: err.Error()})
			return
		}
		filter.To = date
	}
	writeJSON(w, http.StatusOK, h.Service.ListBookings(filter))
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	b, c, err := h.Service.GetBooking(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewBookingResponse(b, c, nil))
}

func (h *BookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req entities.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	b, err := req.ToModel()
	if err != nil {
		writeError(w, err)
		return
	}
	updated, warn, err := h.Service.UpdateBooking(r.Context(), id, b)
	if err != nil {
		writeError(w, err)
		return
	}
	// Confirmation flags are untouched by booking edits.
	_, c, _ := h.Service.GetBooking(id)
	writeJSON(w, http.StatusOK, entities.NewBookingResponse(updated, c, warn))
}

func (h *BookingHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	warn, err := h.Service.DeleteBooking(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]string{"message": "Booking deleted"}
	if warn != nil {
		resp["warning"] = warn.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BookingHandler) ExportBookings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.ExportRecords())
}
