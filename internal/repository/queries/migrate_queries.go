package queries

const (
	QueryCreateMigrationsTable = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`
	QueryMigrationApplied = `SELECT 1 FROM schema_migrations WHERE version = $1;`
	QueryMarkMigration    = `INSERT INTO schema_migrations (version) VALUES ($1);`
)
