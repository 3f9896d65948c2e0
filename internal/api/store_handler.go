package api

import (
	"camrental/internal/entities"
	"camrental/internal/errs"
	"camrental/internal/repository"
	"errors"
	"net/http"
)

type StoreHandler struct {
	Store *repository.Store
}

func NewStoreHandler(store *repository.Store) *StoreHandler {
	return &StoreHandler{Store: store}
}

// Reconcile runs one manual reconciliation pass against the remote store and
// returns the per-dataset report.
func (h *StoreHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.Store.Reconcile(r.Context())
	if err != nil {
		if errors.Is(err, errs.ErrRemoteUnavailable) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *StoreHandler) Health(w http.ResponseWriter, r *http.Request) {
	bookings, confirmations, units := h.Store.Counts()
	writeJSON(w, http.StatusOK, entities.HealthResponse{
		Status:        "ok",
		Remote:        remoteState(h.Store),
		Bookings:      bookings,
		Confirmations: confirmations,
		Units:         units,
	})
}

func remoteState(s *repository.Store) string {
	switch {
	case !s.RemoteConfigured():
		return "not configured"
	case s.RemoteReachable():
		return "reachable"
	default:
		return "unreachable"
	}
}
