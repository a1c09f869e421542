package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"

	"uniformshop/pkg/logger"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// migrationLockID serializes concurrent Migrate calls across instances.
const migrationLockID = 7_140_001

// Migrate applies the embedded schema files in name order, each at most once.
func Migrate(ctx context.Context, p *Pool) error {
	files, err := fs.Glob(schemaFS, "schema/*.sql")
	if err != nil {
		return fmt.Errorf("list schema files: %w", err)
	}
	sort.Strings(files)

	return pgx.BeginFunc(ctx, p.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockID); err != nil {
			return fmt.Errorf("lock migrations: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS sys_migrations (
				name       TEXT PRIMARY KEY,
				applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`); err != nil {
			return fmt.Errorf("create migrations table: %w", err)
		}

		for _, name := range files {
			var applied bool
			if err := tx.QueryRow(ctx,
				"SELECT EXISTS(SELECT 1 FROM sys_migrations WHERE name = $1)", name,
			).Scan(&applied); err != nil {
				return fmt.Errorf("check migration %s: %w", name, err)
			}
			if applied {
				continue
			}

			body, err := schemaFS.ReadFile(name)
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			if _, err := tx.Exec(ctx, string(body)); err != nil {
				return fmt.Errorf("apply %s: %w", name, err)
			}
			if _, err := tx.Exec(ctx, "INSERT INTO sys_migrations (name) VALUES ($1)", name); err != nil {
				return fmt.Errorf("record %s: %w", name, err)
			}
			logger.Info(ctx, "migration applied", "name", name)
		}
		return nil
	})
}
