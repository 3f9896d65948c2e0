package api

import (
	"camrental/internal/errs"
	"camrental/internal/model"
	"camrental/internal/service"
	"net/http"
	"strings"
)

type ScheduleHandler struct {
	Service *service.ScheduleService
}

func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{Service: svc}
}

func (h *ScheduleHandler) PendingPickups(w http.ResponseWriter, r *http.Request) {
	q, err := scheduleQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Service.PendingPickups(q))
}

func (h *ScheduleHandler) PendingReturns(w http.ResponseWriter, r *http.Request) {
	q, err := scheduleQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Service.PendingReturns(q))
}

// scheduleQuery reads the sort, order and date parameters shared by both
// schedule views.
func scheduleQuery(r *http.Request) (service.ScheduleQuery, error) {
	params := r.URL.Query()
	sortKey, err := service.ParseSortKey(params.Get("sort"))
	if err != nil {
		return service.ScheduleQuery{}, err
	}
	q := service.ScheduleQuery{Sort: sortKey}
	switch strings.ToLower(params.Get("order")) {
	case "", "asc":
	case "desc":
		q.Descending = true
	default:
		return service.ScheduleQuery{}, &errs.ValidationError{Field: "order", Reason: "want asc or desc"}
	}
	if v := params.Get("date"); v != "" {
		date, err := model.ParseDate(v)
		if err != nil {
			return service.ScheduleQuery{}, &errs.ValidationError{Field: "date", Reason: err.Error()}
		}
		q.Date = date
	}
	return q, nil
}
