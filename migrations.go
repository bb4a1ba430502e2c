package userservice

import (
	"context"
	"database/sql"
	"io/fs"
	"sort"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const migrationsDir = "data/sql/migrations"
const migrationsTable = "schema_migrations"

const ensureMigrationsTableSQL = `CREATE TABLE IF NOT EXISTS ` + migrationsTable + ` (
	name TEXT PRIMARY KEY,
	applied_at INTEGER NOT NULL
)`

// RunMigrations applies the embedded schema migrations that have not been
// recorded yet. Each file runs in its own transaction and is tracked by name,
// so repeated startups are no-ops.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	source, err := fs.Sub(GetMigrationsFS(), migrationsDir)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to open migrations")
	}

	entries, err := fs.ReadDir(source, ".")
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read migrations")
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if _, err := db.ExecContext(ctx, ensureMigrationsTableSQL); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to ensure migrations table")
	}

	for _, name := range files {
		applied, err := migrationApplied(ctx, db, name)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to check migration").
				WithMetadata(map[string]any{"migration": name})
		}
		if applied {
			continue
		}

		content, err := fs.ReadFile(source, name)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read migration").
				WithMetadata(map[string]any{"migration": name})
		}

		stmt := upMigration(string(content))
		if strings.TrimSpace(stmt) == "" {
			continue
		}

		if err := applyMigration(ctx, db, name, stmt); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to apply migration").
				WithMetadata(map[string]any{"migration": name})
		}
	}

	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, name, stmt string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		_ = tx.Rollback()
		return err
	}

	if _, err := tx.ExecContext(
		ctx,
		"INSERT INTO "+migrationsTable+" (name, applied_at) VALUES (?, ?)",
		name,
		time.Now().UTC().UnixMilli(),
	); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func migrationApplied(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var found int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM "+migrationsTable+" WHERE name = ?", name).Scan(&found)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// upMigration returns the statements in the "-- +migrate Up" section. Files
// without section markers run whole.
func upMigration(content string) string {
	upIdx := strings.Index(content, "-- +migrate Up")
	if upIdx == -1 {
		return content
	}
	rest := content[upIdx+len("-- +migrate Up"):]
	if downIdx := strings.Index(rest, "-- +migrate Down"); downIdx != -1 {
		return rest[:downIdx]
	}
	return rest
}
