package handler_test

import (
	"net/http"
	"strings"
	"testing"
)

func TestExecuteMissingSQL(t *testing.T) {
	srv := newTestServer(t)

	status, body := doJSON(t, srv, http.MethodPost, "/db/orders/sql", map[string]any{})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if body["error"] != "Missing required field: sql" {
		t.Fatalf("unexpected error: %v", body)
	}
}

func TestExecuteEngineError(t *testing.T) {
	srv := newTestServer(t)

	status, body := doJSON(t, srv, http.MethodPost, "/db/orders/sql", map[string]any{
		"sql": "SELECT * FROM no_such_table",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	msg, _ := body["error"].(string)
	if !strings.Contains(msg, "no_such_table") {
		t.Fatalf("engine message not surfaced verbatim: %v", body)
	}
}

func TestExecuteMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/db/orders/sql", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-API-Key", testAPIKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	// Malformed JSON is an unexpected fault, not a validation outcome.
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestExecuteWrongTypedField(t *testing.T) {
	srv := newTestServer(t)

	// Valid JSON with the wrong type is the caller's validation problem.
	status, body := doJSON(t, srv, http.MethodPost, "/db/orders/sql", map[string]any{"sql": 123})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if body["error"] != "Invalid type for field: sql" {
		t.Fatalf("unexpected error: %v", body)
	}
}

func TestMigrateWrongTypedField(t *testing.T) {
	srv := newTestServer(t)

	status, body := doJSON(t, srv, http.MethodPost, "/db/orders/migrate", map[string]any{
		"name": 123, "sql": "SELECT 1",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if body["error"] != "Invalid type for field: name" {
		t.Fatalf("unexpected error: %v", body)
	}
}

func TestMigrateMissingFields(t *testing.T) {
	srv := newTestServer(t)

	status, body := doJSON(t, srv, http.MethodPost, "/db/orders/migrate", map[string]any{"sql": "SELECT 1"})
	if status != http.StatusBadRequest || body["error"] != "Missing required field: name" {
		t.Fatalf("missing name: got %d %v", status, body)
	}

	status, body = doJSON(t, srv, http.MethodPost, "/db/orders/migrate", map[string]any{"name": "001"})
	if status != http.StatusBadRequest || body["error"] != "Missing required field: sql" {
		t.Fatalf("missing sql: got %d %v", status, body)
	}
}

func TestMigrateAlreadyApplied(t *testing.T) {
	srv := newTestServer(t)

	status, body := doJSON(t, srv, http.MethodPost, "/db/orders/migrate", map[string]any{
		"name": "001", "sql": "CREATE TABLE t (id INTEGER)",
	})
	if status != http.StatusOK || body["ok"] != true {
		t.Fatalf("first migrate: got %d %v", status, body)
	}

	status, body = doJSON(t, srv, http.MethodPost, "/db/orders/migrate", map[string]any{
		"name": "001", "sql": "CREATE TABLE t (id INTEGER)",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("second migrate: expected 400, got %d", status)
	}
	if body["ok"] != false || body["error"] != "migration already applied" || body["name"] != "001" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestMigrateInvalidSQL(t *testing.T) {
	srv := newTestServer(t)

	status, body := doJSON(t, srv, http.MethodPost, "/db/orders/migrate", map[string]any{
		"name": "bad", "sql": "NOT VALID SQL",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if body["ok"] != false || body["name"] != "bad" {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["error"] == "" || body["error"] == "migration already applied" {
		t.Fatalf("expected engine error message, got %v", body["error"])
	}

	// The ledger must be unchanged.
	status, body = doJSON(t, srv, http.MethodGet, "/db/orders/migrations", nil)
	if status != http.StatusOK {
		t.Fatalf("migrations: expected 200, got %d", status)
	}
	if migrations := body["migrations"].([]any); len(migrations) != 0 {
		t.Fatalf("failed migration recorded in ledger: %v", migrations)
	}
}

func TestSchemaIncludesDescription(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/dbs", map[string]any{"name": "orders", "description": "order data"})
	doJSON(t, srv, http.MethodPost, "/db/orders/migrate", map[string]any{
		"name": "001", "sql": "CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT NOT NULL)",
	})

	status, body := doJSON(t, srv, http.MethodGet, "/db/orders/schema", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["description"] != "order data" {
		t.Fatalf("description missing: %v", body)
	}

	schema, ok := body["schema"].([]any)
	if !ok || len(schema) != 1 {
		t.Fatalf("expected 1 table, got %v", body["schema"])
	}
	table := schema[0].(map[string]any)
	if table["table"] != "t" {
		t.Fatalf("unexpected table: %v", table)
	}
	columns := table["columns"].([]any)
	if len(columns) != 2 {
		t.Fatalf("expected 2 columns, got %v", columns)
	}
	id := columns[0].(map[string]any)
	if id["name"] != "id" || id["primary_key"] != true {
		t.Fatalf("unexpected id column: %v", id)
	}
	v := columns[1].(map[string]any)
	if v["name"] != "v" || v["nullable"] != false || v["type"] != "TEXT" {
		t.Fatalf("unexpected v column: %v", v)
	}
}

func TestSchemaUncatalogedDatabase(t *testing.T) {
	srv := newTestServer(t)

	// Handles are created lazily; a name missing from the catalog still
	// answers, with a null description.
	status, body := doJSON(t, srv, http.MethodGet, "/db/ghost/schema", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["description"] != nil {
		t.Fatalf("expected null description, got %v", body["description"])
	}
}
