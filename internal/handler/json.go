package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeError sends a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// readJSON decodes the request body into the given destination. Numbers are
// decoded as json.Number so integer and float parameters stay distinct.
func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(dst)
}

// writeBodyError maps a body-decode failure to a response. A wrong-typed
// field in valid JSON is the caller's validation problem and gets a 400;
// a body that is not JSON at all is an unexpected fault and gets a 500.
func writeBodyError(w http.ResponseWriter, err error) {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid type for field: "+typeErr.Field)
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
