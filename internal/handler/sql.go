package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/msomdec/sordb/internal/domain"
	"github.com/msomdec/sordb/internal/repository/sqlite"
	"github.com/msomdec/sordb/internal/service"
)

// SQLHandler serves the per-database routes: statement execution, the
// migration protocol, and schema introspection. Database names from the path
// are verbatim logical identifiers; handles are created lazily on first use.
type SQLHandler struct {
	directory *sqlite.Directory
	registry  *service.Registry
}

// NewSQLHandler creates a new SQLHandler.
func NewSQLHandler(directory *sqlite.Directory, registry *service.Registry) *SQLHandler {
	return &SQLHandler{directory: directory, registry: registry}
}

type executeResponse struct {
	Rows        [][]domain.Value `json:"rows"`
	Columns     []string         `json:"columns"`
	RowsRead    int64            `json:"rowsRead"`
	RowsWritten int64            `json:"rowsWritten"`
}

// HandleExecute runs caller-supplied SQL with positional parameters.
// Engine errors are the caller's fault and come back as 400.
func (h *SQLHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SQL    string `json:"sql"`
		Params []any  `json:"params"`
	}
	if err := readJSON(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if req.SQL == "" {
		writeError(w, http.StatusBadRequest, "Missing required field: sql")
		return
	}

	params := make([]domain.Value, len(req.Params))
	for i, p := range req.Params {
		v, err := domain.FromJSON(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		params[i] = v
	}

	handle, err := h.directory.Resolve(r.PathValue("name"))
	if err != nil {
		slog.Error("resolve handle", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := handle.Execute(r.Context(), req.SQL, params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := executeResponse{
		Rows:        result.Rows,
		Columns:     result.Columns,
		RowsRead:    result.RowsRead,
		RowsWritten: result.RowsWritten,
	}
	if resp.Rows == nil {
		resp.Rows = [][]domain.Value{}
	}
	if resp.Columns == nil {
		resp.Columns = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleMigrate applies a named migration to one database. Both an
// already-applied name and a failed execution are reported as ok:false with
// a reason; only transport faults become 500s.
func (h *SQLHandler) HandleMigrate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		SQL  string `json:"sql"`
	}
	if err := readJSON(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Missing required field: name")
		return
	}
	if req.SQL == "" {
		writeError(w, http.StatusBadRequest, "Missing required field: sql")
		return
	}

	handle, err := h.directory.Resolve(r.PathValue("name"))
	if err != nil {
		slog.Error("resolve handle", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := handle.Migrate(r.Context(), req.Name, req.SQL)
	if err != nil {
		slog.Error("migrate", "database", handle.Name(), "migration", req.Name, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if !result.Applied {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"ok":    false,
			"error": result.Reason,
			"name":  result.Name,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "name": result.Name})
}

type migrationResponse struct {
	Name      string    `json:"name"`
	AppliedAt time.Time `json:"applied_at"`
}

// HandleMigrations lists applied migrations in application order.
func (h *SQLHandler) HandleMigrations(w http.ResponseWriter, r *http.Request) {
	handle, err := h.directory.Resolve(r.PathValue("name"))
	if err != nil {
		slog.Error("resolve handle", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	migrations, err := handle.ListMigrations(r.Context())
	if err != nil {
		slog.Error("list migrations", "database", handle.Name(), "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]migrationResponse, 0, len(migrations))
	for _, m := range migrations {
		out = append(out, migrationResponse{Name: m.Name, AppliedAt: m.AppliedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"migrations": out})
}

// HandleSchema describes every user table plus the catalog description for
// the database, when it has one.
func (h *SQLHandler) HandleSchema(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	handle, err := h.directory.Resolve(name)
	if err != nil {
		slog.Error("resolve handle", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	tables, err := handle.DescribeSchema(r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var description *string
	info, err := h.registry.Describe(r.Context(), name)
	switch {
	case err == nil:
		description = info.Description
	case !errors.Is(err, domain.ErrNotFound):
		slog.Error("describe database", "database", name, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"schema": tables, "description": description})
}
