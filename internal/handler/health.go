package handler

import "net/http"

// HandleHealthz answers liveness probes. It reports process health only;
// it does not open any database handle.
func HandleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "sordb"})
}
