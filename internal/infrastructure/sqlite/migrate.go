package sqlite

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate aplica en orden los archivos de migrations/ que aún no figuran en schema_migrations.
// Cada archivo corre en su propia transacción (inmediata, por el DSN). Devuelve las versiones aplicadas.
func Migrate(ctx context.Context, db *sqlx.DB, log zerolog.Logger) ([]string, error) {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)`); err != nil {
		return nil, fmt.Errorf("crear schema_migrations: %w", err)
	}

	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("listar migraciones: %w", err)
	}
	sort.Strings(files)

	var applied []string
	for _, file := range files {
		version := strings.TrimSuffix(strings.TrimPrefix(file, "migrations/"), ".sql")
		body, err := migrationsFS.ReadFile(file)
		if err != nil {
			return applied, fmt.Errorf("leer %s: %w", file, err)
		}
		done, err := applyMigration(ctx, db, version, string(body))
		if err != nil {
			return applied, err
		}
		if done {
			log.Info().Str("version", version).Msg("migración aplicada")
			applied = append(applied, version)
		}
	}
	return applied, nil
}

func applyMigration(ctx context.Context, db *sqlx.DB, version, body string) (bool, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin migración %s: %w", version, err)
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version); err != nil {
		return false, fmt.Errorf("consultar migración %s: %w", version, err)
	}
	if n > 0 {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, body); err != nil {
		return false, fmt.Errorf("aplicar migración %s: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`, version, toNanos(timeNow())); err != nil {
		return false, fmt.Errorf("registrar migración %s: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit migración %s: %w", version, err)
	}
	return true, nil
}
