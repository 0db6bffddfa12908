package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements create the topic tables. topic_relations.related_id
// deliberately has no foreign key: deleting a topic must not touch links
// that point at it.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS topics (
	id           uuid PRIMARY KEY,
	seq          bigserial NOT NULL,
	topic_name   text NOT NULL UNIQUE,
	progress     double precision NOT NULL DEFAULT 0,
	is_completed boolean NOT NULL DEFAULT false,
	created_at   timestamptz NOT NULL DEFAULT now()
);`,
	`CREATE TABLE IF NOT EXISTS topic_relations (
	topic_id   uuid NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
	related_id uuid NOT NULL,
	position   integer NOT NULL,
	PRIMARY KEY (topic_id, related_id)
);`,
	// seq orders listings; created_at alone ties within a microsecond.
	`ALTER TABLE topics ADD COLUMN IF NOT EXISTS seq bigserial NOT NULL;`,
	`CREATE UNIQUE INDEX IF NOT EXISTS topics_seq_idx ON topics (seq);`,
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
