package sqlite

import "fmt"

const schemaSQL = `
-- Sites catalog: the single persisted shape downstream consumers rely on
CREATE TABLE IF NOT EXISTS sites (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	url TEXT NOT NULL UNIQUE,
	source TEXT NOT NULL,
	last_verified TIMESTAMP,
	confidence_score INTEGER NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT 1,
	status TEXT NOT NULL DEFAULT 'active',
	category TEXT,
	llm_verified BOOLEAN,
	llm_reasoning TEXT,
	failed_attempts INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sites_status ON sites(status);
CREATE INDEX IF NOT EXISTS idx_sites_last_verified ON sites(last_verified);
`

// migrate creates the schema and applies idempotent column migrations for
// databases created by earlier revisions that lack the lifecycle columns.
func (s *SQLiteDB) migrate() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	columns, err := s.tableColumns("sites")
	if err != nil {
		return err
	}

	if !columns["status"] {
		s.logger.Info().Msg("Migrating sites table: adding status column")
		if _, err := s.db.Exec(`ALTER TABLE sites ADD COLUMN status TEXT NOT NULL DEFAULT 'active'`); err != nil {
			return fmt.Errorf("failed to add status column: %w", err)
		}
		if _, err := s.db.Exec(`UPDATE sites SET status = CASE WHEN is_active = 1 THEN 'active' ELSE 'inactive' END`); err != nil {
			return fmt.Errorf("failed to backfill status column: %w", err)
		}
	}

	for column, ddl := range map[string]string{
		"category":        `ALTER TABLE sites ADD COLUMN category TEXT`,
		"llm_verified":    `ALTER TABLE sites ADD COLUMN llm_verified BOOLEAN`,
		"llm_reasoning":   `ALTER TABLE sites ADD COLUMN llm_reasoning TEXT`,
		"failed_attempts": `ALTER TABLE sites ADD COLUMN failed_attempts INTEGER NOT NULL DEFAULT 0`,
		"created_at":      `ALTER TABLE sites ADD COLUMN created_at TIMESTAMP`,
	} {
		if !columns[column] {
			s.logger.Info().Str("column", column).Msg("Migrating sites table: adding column")
			if _, err := s.db.Exec(ddl); err != nil {
				return fmt.Errorf("failed to add %s column: %w", column, err)
			}
		}
	}

	return nil
}

// tableColumns returns the set of column names for a table
func (s *SQLiteDB) tableColumns(table string) (map[string]bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, ctype string
		var notNull, pk int
		var dflt any
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		columns[name] = true
	}
	return columns, rows.Err()
}
