package api

import (
	"camrental/internal/errs"
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes: validation 400, not found
// 404, conflicts and bad transitions 409, everything else 500.
func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), errs.StatusCode(err))
}
