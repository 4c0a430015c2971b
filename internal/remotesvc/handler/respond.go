package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/brightday/internal/dateutil"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseDateParam(r *http.Request) (dateutil.Date, error) {
	return dateutil.Parse(r.PathValue("date"))
}
