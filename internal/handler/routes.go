package handler

import (
	"net/http"

	"github.com/msomdec/sordb/internal/repository/sqlite"
	"github.com/msomdec/sordb/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux. Every route
// except the health probe and the studio embed page requires authentication.
// tokens may be nil, which disables the bearer-token endpoint.
func RegisterRoutes(mux *http.ServeMux, registry *service.Registry, directory *sqlite.Directory, auth *Auth, tokens *service.Tokens) {
	databases := NewDatabaseHandler(registry)
	sqlAPI := NewSQLHandler(directory, registry)
	studio := NewStudioHandler(directory)

	mux.HandleFunc("GET /healthz", HandleHealthz)

	mux.Handle("GET /dbs", RequireAuth(auth, http.HandlerFunc(databases.HandleList)))
	mux.Handle("POST /dbs", RequireAuth(auth, http.HandlerFunc(databases.HandleCreate)))
	mux.Handle("DELETE /dbs/{name}", RequireAuth(auth, http.HandlerFunc(databases.HandleDelete)))

	mux.Handle("POST /db/{name}/sql", RequireAuth(auth, http.HandlerFunc(sqlAPI.HandleExecute)))
	mux.Handle("POST /db/{name}/migrate", RequireAuth(auth, http.HandlerFunc(sqlAPI.HandleMigrate)))
	mux.Handle("GET /db/{name}/migrations", RequireAuth(auth, http.HandlerFunc(sqlAPI.HandleMigrations)))
	mux.Handle("GET /db/{name}/schema", RequireAuth(auth, http.HandlerFunc(sqlAPI.HandleSchema)))

	mux.HandleFunc("GET /db/{name}/studio", studio.HandlePage)
	mux.Handle("POST /db/{name}/studio/query", RequireAuth(auth, http.HandlerFunc(studio.HandleQuery)))

	if tokens != nil {
		mux.Handle("POST /auth/token", RequireAuth(auth, HandleToken(tokens)))
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
}
