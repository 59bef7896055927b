package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/msomdec/sordb/internal/domain"
	"github.com/msomdec/sordb/internal/service"
)

// DatabaseHandler serves the registry catalog routes.
type DatabaseHandler struct {
	registry *service.Registry
}

// NewDatabaseHandler creates a new DatabaseHandler.
func NewDatabaseHandler(registry *service.Registry) *DatabaseHandler {
	return &DatabaseHandler{registry: registry}
}

type databaseResponse struct {
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// HandleList returns every cataloged database, oldest first.
func (h *DatabaseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	dbs, err := h.registry.List(r.Context())
	if err != nil {
		slog.Error("list databases", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]databaseResponse, 0, len(dbs))
	for _, db := range dbs {
		out = append(out, databaseResponse{Name: db.Name, Description: db.Description, CreatedAt: db.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"dbs": out})
}

// HandleCreate adds a database to the catalog.
func (h *DatabaseHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := readJSON(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	err := h.registry.Create(r.Context(), req.Name, req.Description)
	switch {
	case errors.Is(err, domain.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "Missing required field: name")
	case errors.Is(err, domain.ErrReservedName):
		writeError(w, http.StatusBadRequest, "Name is reserved")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "Database already exists")
	case err != nil:
		slog.Error("create database", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "name": req.Name})
	}
}

// HandleDelete removes a database from the catalog. The underlying storage
// is intentionally untouched; a re-created name may see prior contents.
func (h *DatabaseHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	err := h.registry.Remove(r.Context(), name)
	switch {
	case errors.Is(err, domain.ErrReservedName):
		writeError(w, http.StatusBadRequest, "Name is reserved")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Database not found")
	case err != nil:
		slog.Error("delete database", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "name": name})
	}
}
