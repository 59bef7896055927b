package handler

import (
	"log/slog"
	"net/http"

	"github.com/msomdec/sordb/internal/repository/sqlite"
	"github.com/msomdec/sordb/internal/view"
	"github.com/starfederation/datastar-go/datastar"
)

// StudioHandler serves the embeddable database console. The page route is
// the one unauthenticated surface; the query route behind it authenticates
// like every other data route.
type StudioHandler struct {
	directory *sqlite.Directory
}

// NewStudioHandler creates a new StudioHandler.
func NewStudioHandler(directory *sqlite.Directory) *StudioHandler {
	return &StudioHandler{directory: directory}
}

// HandlePage renders the console page.
func (h *StudioHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	view.StudioPage(r.PathValue("name")).Render(r.Context(), w)
}

// HandleQuery executes the console's SQL signal and patches the result table
// back over SSE. Engine errors render inline rather than failing the stream.
func (h *StudioHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var signals struct {
		SQL string `json:"sql"`
	}
	if err := datastar.ReadSignals(r, &signals); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	handle, err := h.directory.Resolve(r.PathValue("name"))
	if err != nil {
		slog.Error("resolve handle", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, execErr := handle.Execute(r.Context(), signals.SQL, nil)

	sse := datastar.NewSSE(w, r)
	sse.PatchElementTempl(
		view.StudioResult(result, execErr),
		datastar.WithSelectorID("studio-result"),
		datastar.WithModeInner(),
	)
}
