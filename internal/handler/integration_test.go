package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestIntegrationDatabaseLifecycle(t *testing.T) {
	srv := newTestServer(t)

	// 1. Create the database.
	status, body := doJSON(t, srv, http.MethodPost, "/dbs", map[string]any{"name": "orders"})
	if status != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", status)
	}
	if body["ok"] != true || body["name"] != "orders" {
		t.Fatalf("create: unexpected body %v", body)
	}

	// 2. Apply a migration.
	status, body = doJSON(t, srv, http.MethodPost, "/db/orders/migrate", map[string]any{
		"name": "001",
		"sql":  "CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)",
	})
	if status != http.StatusOK {
		t.Fatalf("migrate: expected 200, got %d", status)
	}
	if body["ok"] != true || body["name"] != "001" {
		t.Fatalf("migrate: unexpected body %v", body)
	}

	// 3. Insert through bound parameters.
	status, body = doJSON(t, srv, http.MethodPost, "/db/orders/sql", map[string]any{
		"sql":    "INSERT INTO t (v) VALUES (?)",
		"params": []any{"x"},
	})
	if status != http.StatusOK {
		t.Fatalf("insert: expected 200, got %d", status)
	}
	if written, _ := body["rowsWritten"].(float64); written != 1 {
		t.Fatalf("insert: expected rowsWritten=1, got %v", body["rowsWritten"])
	}

	// 4. Read the row back.
	status, body = doJSON(t, srv, http.MethodPost, "/db/orders/sql", map[string]any{
		"sql": "SELECT * FROM t",
	})
	if status != http.StatusOK {
		t.Fatalf("select: expected 200, got %d", status)
	}
	columns := body["columns"].([]any)
	if len(columns) != 2 || columns[0] != "id" || columns[1] != "v" {
		t.Fatalf("select: unexpected columns %v", columns)
	}
	rows := body["rows"].([]any)
	if len(rows) != 1 {
		t.Fatalf("select: expected 1 row, got %d", len(rows))
	}
	row := rows[0].([]any)
	if row[0].(float64) != 1 || row[1] != "x" {
		t.Fatalf("select: unexpected row %v", row)
	}

	// 5. The migration ledger lists exactly the applied migration.
	status, body = doJSON(t, srv, http.MethodGet, "/db/orders/migrations", nil)
	if status != http.StatusOK {
		t.Fatalf("migrations: expected 200, got %d", status)
	}
	migrations := body["migrations"].([]any)
	if len(migrations) != 1 {
		t.Fatalf("expected 1 migration, got %d", len(migrations))
	}
	if entry := migrations[0].(map[string]any); entry["name"] != "001" || entry["applied_at"] == nil {
		t.Fatalf("unexpected migration entry %v", entry)
	}

	// 6. The catalog shows the database.
	status, body = doJSON(t, srv, http.MethodGet, "/dbs", nil)
	if status != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", status)
	}
	dbs := body["dbs"].([]any)
	if len(dbs) != 1 || dbs[0].(map[string]any)["name"] != "orders" {
		t.Fatalf("list: unexpected dbs %v", dbs)
	}

	// 7. Delete the catalog entry.
	status, _ = doJSON(t, srv, http.MethodDelete, "/dbs/orders", nil)
	if status != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", status)
	}
	status, body = doJSON(t, srv, http.MethodGet, "/dbs", nil)
	if status != http.StatusOK {
		t.Fatalf("list after delete: expected 200, got %d", status)
	}
	if dbs := body["dbs"].([]any); len(dbs) != 0 {
		t.Fatalf("catalog not empty after delete: %v", dbs)
	}

	// 8. Catalog removal does not wipe storage: the data is still there.
	status, body = doJSON(t, srv, http.MethodPost, "/db/orders/sql", map[string]any{
		"sql": "SELECT COUNT(*) FROM t",
	})
	if status != http.StatusOK {
		t.Fatalf("select after delete: expected 200, got %d", status)
	}
	if rows := body["rows"].([]any); rows[0].([]any)[0].(float64) != 1 {
		t.Fatalf("storage wiped by catalog delete: %v", rows)
	}
}

func TestIntegrationParameterTypesRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/db/types/migrate", map[string]any{
		"name": "001",
		"sql":  "CREATE TABLE v (i INTEGER, f REAL, s TEXT, n TEXT)",
	})

	status, _ := doJSON(t, srv, http.MethodPost, "/db/types/sql", map[string]any{
		"sql":    "INSERT INTO v VALUES (?, ?, ?, ?)",
		"params": []any{42, 1.5, "", nil},
	})
	if status != http.StatusOK {
		t.Fatalf("insert: expected 200, got %d", status)
	}

	status, body := doJSON(t, srv, http.MethodPost, "/db/types/sql", map[string]any{
		"sql": "SELECT i, f, s, n FROM v",
	})
	if status != http.StatusOK {
		t.Fatalf("select: expected 200, got %d", status)
	}

	row := body["rows"].([]any)[0].([]any)
	if row[0].(float64) != 42 || row[1].(float64) != 1.5 {
		t.Fatalf("numbers mangled: %v", row)
	}
	if row[2] != "" {
		t.Fatalf("empty string mangled: %v", row[2])
	}
	if row[3] != nil {
		t.Fatalf("null mangled: %v", row[3])
	}
}

func TestIntegrationIntegerParamsStayIntegers(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/db/ints/sql", map[string]any{
		"sql": "CREATE TABLE n (v)",
	})
	doJSON(t, srv, http.MethodPost, "/db/ints/sql", map[string]any{
		"sql":    "INSERT INTO n VALUES (?)",
		"params": []any{json.Number("9007199254740993")},
	})

	// An integer beyond float64 precision survives only if it was bound as
	// an integer, not coerced through a float.
	status, body := doJSON(t, srv, http.MethodPost, "/db/ints/sql", map[string]any{
		"sql": "SELECT v = 9007199254740993 FROM n",
	})
	if status != http.StatusOK {
		t.Fatalf("select: expected 200, got %d", status)
	}
	if got := body["rows"].([]any)[0].([]any)[0].(float64); got != 1 {
		t.Fatal("integer parameter lost precision")
	}
}
