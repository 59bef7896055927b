package handler

import (
	"log/slog"
	"net/http"

	"github.com/msomdec/sordb/internal/service"
)

// HandleToken mints a short-lived bearer token for a caller that has already
// authenticated with the API key.
func HandleToken(tokens *service.Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, expires, err := tokens.Issue()
		if err != nil {
			slog.Error("issue token", "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"token": token, "expires_at": expires})
	}
}
