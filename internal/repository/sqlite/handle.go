package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/msomdec/sordb/internal/domain"
	_ "modernc.org/sqlite"
)

// ledgerTable records applied migrations inside each database. It carries the
// reserved prefix so it is excluded from user-visible schema listings.
const ledgerTable = "_sor_migrations"

// Handle owns one logical database: a single SQLite file, its connection,
// and its migrations ledger. A Handle stays usable after a failed statement.
type Handle struct {
	name string
	db   *sql.DB
}

// OpenHandle opens the SQLite database at path and configures it for use.
// It enables WAL mode and foreign keys, and caps the pool at one connection
// so writes against the handle are serialized by construction.
func OpenHandle(name, path string) (*Handle, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Handle{name: name, db: db}, nil
}

// Name returns the logical database name the handle was opened for.
func (h *Handle) Name() string { return h.name }

// DB exposes the underlying connection for system components that own their
// database's schema (the registry). User-supplied SQL goes through Execute.
func (h *Handle) DB() *sql.DB { return h.db }

// Close closes the underlying connection.
func (h *Handle) Close() error { return h.db.Close() }

// Execute runs caller-supplied SQL with positional parameters bound to ?
// placeholders. Parameters are never interpolated into the statement text.
// Query-shaped statements return rows; everything else (including
// multi-statement scripts) reports rows written. Engine errors are returned
// verbatim; the handle remains usable afterwards.
func (h *Handle) Execute(ctx context.Context, statement string, params []domain.Value) (*domain.QueryResult, error) {
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = p.Driver()
	}

	if returnsRows(statement) {
		return h.query(ctx, statement, args)
	}

	res, err := h.db.ExecContext(ctx, statement, args...)
	if err != nil {
		return nil, err
	}
	written, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	return &domain.QueryResult{RowsWritten: written}, nil
}

func (h *Handle) query(ctx context.Context, statement string, args []any) (*domain.QueryResult, error) {
	rows, err := h.db.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	result := &domain.QueryResult{Columns: columns, Rows: [][]domain.Value{}}
	for rows.Next() {
		raw := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make([]domain.Value, len(columns))
		for i, v := range raw {
			row[i], err = domain.FromDriver(v)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", columns[i], err)
			}
		}
		result.Rows = append(result.Rows, row)
		result.RowsRead++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Migrate applies a named migration exactly once. The migration SQL and its
// ledger row commit in one transaction: the ledger can never list a migration
// whose schema effects are absent, or vice versa, even across a crash.
// Already-applied names and execution failures are outcomes, not errors.
func (h *Handle) Migrate(ctx context.Context, name, migrationSQL string) (*domain.MigrationResult, error) {
	if err := h.ensureLedger(ctx); err != nil {
		return nil, fmt.Errorf("ensure migrations ledger: %w", err)
	}

	var existing string
	err := h.db.QueryRowContext(ctx,
		"SELECT name FROM "+ledgerTable+" WHERE name = ?", name,
	).Scan(&existing)
	if err == nil {
		return &domain.MigrationResult{Name: name, Reason: domain.ReasonAlreadyApplied}, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("look up migration: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, migrationSQL); err != nil {
		return &domain.MigrationResult{Name: name, Reason: err.Error()}, nil
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO "+ledgerTable+" (name, sql) VALUES (?, ?)", name, migrationSQL,
	); err != nil {
		return &domain.MigrationResult{Name: name, Reason: err.Error()}, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit migration: %w", err)
	}
	return &domain.MigrationResult{Name: name, Applied: true}, nil
}

// ListMigrations returns the applied migrations ordered by application time.
// A fresh handle yields an empty list, not an error.
func (h *Handle) ListMigrations(ctx context.Context) ([]domain.Migration, error) {
	if err := h.ensureLedger(ctx); err != nil {
		return nil, fmt.Errorf("ensure migrations ledger: %w", err)
	}

	rows, err := h.db.QueryContext(ctx,
		"SELECT name, applied_at FROM "+ledgerTable+" ORDER BY applied_at, rowid")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	defer rows.Close()

	migrations := []domain.Migration{}
	for rows.Next() {
		var m domain.Migration
		if err := rows.Scan(&m.Name, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan migration: %w", err)
		}
		migrations = append(migrations, m)
	}
	return migrations, rows.Err()
}

// DescribeSchema lists every user-created table with its columns in declared
// order. Internal engine tables and the migrations ledger are excluded.
func (h *Handle) DescribeSchema(ctx context.Context) ([]domain.Table, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master
		 WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name <> ?
		 ORDER BY name`, ledgerTable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tables := []domain.Table{}
	for _, name := range names {
		columns, err := h.describeTable(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, domain.Table{Name: name, Columns: columns})
	}
	return tables, nil
}

func (h *Handle) describeTable(ctx context.Context, table string) ([]domain.Column, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT name, type, "notnull", pk, dflt_value FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}
	defer rows.Close()

	var columns []domain.Column
	for rows.Next() {
		var (
			c       domain.Column
			notNull int
			pk      int
			dflt    sql.NullString
		)
		if err := rows.Scan(&c.Name, &c.Type, &notNull, &pk, &dflt); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		c.Nullable = notNull == 0
		c.PrimaryKey = pk > 0
		if dflt.Valid {
			c.Default = &dflt.String
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

func (h *Handle) ensureLedger(ctx context.Context) error {
	_, err := h.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+ledgerTable+` (
			name TEXT PRIMARY KEY,
			sql TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// returnsRows classifies a statement by its leading keyword, skipping SQL
// comments. Query-shaped statements go through the row-returning path;
// everything else runs as a script.
func returnsRows(statement string) bool {
	s := statement
	for {
		s = strings.TrimLeft(s, " \t\r\n;")
		switch {
		case strings.HasPrefix(s, "--"):
			if i := strings.IndexByte(s, '\n'); i >= 0 {
				s = s[i+1:]
				continue
			}
			return false
		case strings.HasPrefix(s, "/*"):
			if i := strings.Index(s, "*/"); i >= 0 {
				s = s[i+2:]
				continue
			}
			return false
		}
		break
	}

	word := s
	if i := strings.IndexFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\r' || r == '\n' || r == '(' || r == ';'
	}); i >= 0 {
		word = s[:i]
	}

	switch strings.ToUpper(word) {
	case "SELECT", "VALUES", "WITH", "PRAGMA", "EXPLAIN":
		return true
	}
	return false
}
