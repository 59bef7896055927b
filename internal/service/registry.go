package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/msomdec/sordb/internal/domain"
	"github.com/msomdec/sordb/internal/repository/sqlite"
)

// RegistryName is the reserved database holding the catalog.
const RegistryName = domain.ReservedPrefix + "registry"

// systemMigrations is the ordered, append-only list applied to the registry
// database before every catalog operation. Entries run through the same
// migration protocol as user migrations, so re-application is a silent no-op
// and partial application is impossible.
var systemMigrations = []struct {
	Name string
	SQL  string
}{
	{
		Name: "0001_create_dbs",
		SQL: `CREATE TABLE dbs (
			name TEXT PRIMARY KEY,
			description TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	},
}

// Registry maintains the catalog of user-visible databases inside the
// reserved-name handle.
type Registry struct {
	directory *sqlite.Directory
}

// NewRegistry creates a Registry backed by the given directory.
func NewRegistry(directory *sqlite.Directory) *Registry {
	return &Registry{directory: directory}
}

// bootstrap resolves the registry handle and applies any pending system
// migrations. A system migration that fails to execute is a programming
// error, not a caller fault, and surfaces as an error.
func (r *Registry) bootstrap(ctx context.Context) (*sqlite.Handle, error) {
	h, err := r.directory.Resolve(RegistryName)
	if err != nil {
		return nil, fmt.Errorf("resolve registry: %w", err)
	}

	for _, m := range systemMigrations {
		result, err := h.Migrate(ctx, m.Name, m.SQL)
		if err != nil {
			return nil, fmt.Errorf("apply system migration %s: %w", m.Name, err)
		}
		if !result.Applied && result.Reason != domain.ReasonAlreadyApplied {
			return nil, fmt.Errorf("system migration %s failed: %s", m.Name, result.Reason)
		}
	}
	return h, nil
}

// Create adds a database to the catalog. The name is checked for emptiness
// and the reserved prefix only; whitespace-only names are accepted.
func (r *Registry) Create(ctx context.Context, name string, description *string) error {
	if name == "" {
		return domain.ErrInvalidName
	}
	if strings.HasPrefix(name, domain.ReservedPrefix) {
		return domain.ErrReservedName
	}

	h, err := r.bootstrap(ctx)
	if err != nil {
		return err
	}

	var existing string
	err = h.DB().QueryRowContext(ctx, "SELECT name FROM dbs WHERE name = ?", name).Scan(&existing)
	if err == nil {
		return domain.ErrAlreadyExists
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("look up database: %w", err)
	}

	if _, err := h.DB().ExecContext(ctx,
		"INSERT INTO dbs (name, description) VALUES (?, ?)", name, description,
	); err != nil {
		return fmt.Errorf("insert database: %w", err)
	}
	return nil
}

// List returns every cataloged database ordered by creation time ascending.
func (r *Registry) List(ctx context.Context) ([]domain.DatabaseInfo, error) {
	h, err := r.bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := h.DB().QueryContext(ctx,
		"SELECT name, description, created_at FROM dbs ORDER BY created_at, rowid")
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}
	defer rows.Close()

	dbs := []domain.DatabaseInfo{}
	for rows.Next() {
		var info domain.DatabaseInfo
		if err := rows.Scan(&info.Name, &info.Description, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan database: %w", err)
		}
		dbs = append(dbs, info)
	}
	return dbs, rows.Err()
}

// Describe returns the catalog entry for one database.
func (r *Registry) Describe(ctx context.Context, name string) (*domain.DatabaseInfo, error) {
	h, err := r.bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	info := &domain.DatabaseInfo{}
	err = h.DB().QueryRowContext(ctx,
		"SELECT name, description, created_at FROM dbs WHERE name = ?", name,
	).Scan(&info.Name, &info.Description, &info.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("describe database: %w", err)
	}
	return info, nil
}

// Remove deletes a catalog row. The underlying storage file is deliberately
// left in place: storage reclamation is a platform concern, and a re-created
// name may observe contents from before removal.
func (r *Registry) Remove(ctx context.Context, name string) error {
	if strings.HasPrefix(name, domain.ReservedPrefix) {
		return domain.ErrReservedName
	}

	h, err := r.bootstrap(ctx)
	if err != nil {
		return err
	}

	result, err := h.DB().ExecContext(ctx, "DELETE FROM dbs WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete database: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
