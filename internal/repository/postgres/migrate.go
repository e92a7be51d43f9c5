package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/cwrk-planet/kcd-platform/internal/repository/queries"

	"github.com/jackc/pgx/v5"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate применяет встроенные миграции по порядку имени файла.
// Каждая миграция и отметка о ней выполняются в одной транзакции.
func Migrate(ctx context.Context, db beginner) error {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	err = pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, queries.QueryCreateMigrationsTable)
		return err
	})
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, name := range names {
		version := strings.TrimSuffix(strings.TrimPrefix(name, "migrations/"), ".sql")
		body, err := migrationsFS.ReadFile(name)
		if err != nil {
			return err
		}

		applied := false
		err = pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
			var one int
			err := tx.QueryRow(ctx, queries.QueryMigrationApplied, version).Scan(&one)
			switch {
			case err == nil:
				applied = true
				return nil
			case !errors.Is(err, pgx.ErrNoRows):
				return err
			}
			// без аргументов pgx шлёт simple protocol, несколько statement'ов допустимы
			if _, err := tx.Exec(ctx, string(body)); err != nil {
				return err
			}
			_, err = tx.Exec(ctx, queries.QueryMarkMigration, version)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %s: %w", version, err)
		}
		if !applied {
			slog.Info("pg.migrate applied", slog.String("version", version))
		}
	}

	return nil
}
