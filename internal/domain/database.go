package domain

import "time"

// ReservedPrefix namespaces system-internal databases. Names carrying it are
// rejected by every user-facing catalog operation.
const ReservedPrefix = "_sor_"

// DatabaseInfo is one row of the registry catalog.
type DatabaseInfo struct {
	Name        string
	Description *string
	CreatedAt   time.Time
}

// Migration is one applied entry of a handle's migrations ledger.
type Migration struct {
	Name      string
	AppliedAt time.Time
}

// MigrationResult reports the outcome of a single migrate call. Applied is
// false both for an already-applied name and for a failed execution; Reason
// distinguishes the two for the caller.
type MigrationResult struct {
	Name    string
	Applied bool
	Reason  string
}

// ReasonAlreadyApplied is the stable Reason string for the idempotent-retry
// outcome, as opposed to an engine error message.
const ReasonAlreadyApplied = "migration already applied"

// QueryResult carries the rows and counters produced by executing a
// statement. Rows is nil for statements that return no result set.
type QueryResult struct {
	Columns     []string
	Rows        [][]Value
	RowsRead    int64
	RowsWritten int64
}

// Column describes one column of a user table.
type Column struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Nullable   bool    `json:"nullable"`
	PrimaryKey bool    `json:"primary_key"`
	Default    *string `json:"default"`
}

// Table describes one user-created table and its columns in declared order.
type Table struct {
	Name    string   `json:"table"`
	Columns []Column `json:"columns"`
}
