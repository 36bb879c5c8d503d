package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
)

// Tables are created with plain DDL; the query side goes through ent's SQL
// builders so the same code emits SQLite and Postgres placeholders.
func ensureSchema(ctx context.Context, db *sql.DB, d string) error {
	schema := schemaSQLite
	if d == dialect.Postgres {
		schema = schemaPostgres
	}
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  body TEXT NOT NULL,
  type TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT '',
  band TEXT NOT NULL,
  score REAL NOT NULL DEFAULT 0,
  options TEXT NOT NULL DEFAULT '[]',
  hints TEXT NOT NULL DEFAULT '[]',
  reference TEXT NOT NULL DEFAULT '',
  active BOOLEAN NOT NULL DEFAULT 1,
  source TEXT NOT NULL DEFAULT 'bank',
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_band ON items(band, active);

CREATE TABLE IF NOT EXISTS item_topics (
  item_id TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
  topic_id TEXT NOT NULL,
  PRIMARY KEY (item_id, topic_id)
);

CREATE INDEX IF NOT EXISTS idx_item_topics_topic ON item_topics(topic_id);

CREATE TABLE IF NOT EXISTS profiles (
  learner_id TEXT PRIMARY KEY,
  correct_count INTEGER NOT NULL DEFAULT 0,
  total_count INTEGER NOT NULL DEFAULT 0,
  avg_time_ms INTEGER NOT NULL DEFAULT 0,
  mastery TEXT NOT NULL DEFAULT '{}',
  weak_topics TEXT NOT NULL DEFAULT '[]',
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS attempts (
  id TEXT PRIMARY KEY,
  learner_id TEXT NOT NULL,
  item_id TEXT NOT NULL REFERENCES items(id),
  attempt_number INTEGER NOT NULL,
  submitted TEXT NOT NULL,
  is_correct BOOLEAN NOT NULL,
  score REAL NOT NULL,
  feedback TEXT NOT NULL DEFAULT '',
  diagnosis TEXT NOT NULL DEFAULT '',
  time_spent_ms INTEGER NOT NULL DEFAULT 0,
  hints_used INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL,
  UNIQUE (learner_id, item_id, attempt_number)
);

CREATE INDEX IF NOT EXISTS idx_attempts_learner_time ON attempts(learner_id, created_at);

CREATE TABLE IF NOT EXISTS llm_requests (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  model TEXT NOT NULL,
  purpose TEXT NOT NULL,
  input_tokens INTEGER NOT NULL DEFAULT 0,
  output_tokens INTEGER NOT NULL DEFAULT 0,
  latency_ms INTEGER NOT NULL DEFAULT 0,
  success BOOLEAN NOT NULL,
  error_message TEXT NOT NULL DEFAULT '',
  request_body TEXT NOT NULL DEFAULT '',
  response_body TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
)
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  body TEXT NOT NULL,
  type TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT '',
  band TEXT NOT NULL,
  score DOUBLE PRECISION NOT NULL DEFAULT 0,
  options TEXT NOT NULL DEFAULT '[]',
  hints TEXT NOT NULL DEFAULT '[]',
  reference TEXT NOT NULL DEFAULT '',
  active BOOLEAN NOT NULL DEFAULT TRUE,
  source TEXT NOT NULL DEFAULT 'bank',
  created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_band ON items(band, active);

CREATE TABLE IF NOT EXISTS item_topics (
  item_id TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
  topic_id TEXT NOT NULL,
  PRIMARY KEY (item_id, topic_id)
);

CREATE INDEX IF NOT EXISTS idx_item_topics_topic ON item_topics(topic_id);

CREATE TABLE IF NOT EXISTS profiles (
  learner_id TEXT PRIMARY KEY,
  correct_count INTEGER NOT NULL DEFAULT 0,
  total_count INTEGER NOT NULL DEFAULT 0,
  avg_time_ms BIGINT NOT NULL DEFAULT 0,
  mastery TEXT NOT NULL DEFAULT '{}',
  weak_topics TEXT NOT NULL DEFAULT '[]',
  updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS attempts (
  id TEXT PRIMARY KEY,
  learner_id TEXT NOT NULL,
  item_id TEXT NOT NULL REFERENCES items(id),
  attempt_number INTEGER NOT NULL,
  submitted TEXT NOT NULL,
  is_correct BOOLEAN NOT NULL,
  score DOUBLE PRECISION NOT NULL,
  feedback TEXT NOT NULL DEFAULT '',
  diagnosis TEXT NOT NULL DEFAULT '',
  time_spent_ms BIGINT NOT NULL DEFAULT 0,
  hints_used INTEGER NOT NULL DEFAULT 0,
  created_at BIGINT NOT NULL,
  UNIQUE (learner_id, item_id, attempt_number)
);

CREATE INDEX IF NOT EXISTS idx_attempts_learner_time ON attempts(learner_id, created_at);

CREATE TABLE IF NOT EXISTS llm_requests (
  id BIGSERIAL PRIMARY KEY,
  provider TEXT NOT NULL,
  model TEXT NOT NULL,
  purpose TEXT NOT NULL,
  input_tokens INTEGER NOT NULL DEFAULT 0,
  output_tokens INTEGER NOT NULL DEFAULT 0,
  latency_ms BIGINT NOT NULL DEFAULT 0,
  success BOOLEAN NOT NULL,
  error_message TEXT NOT NULL DEFAULT '',
  request_body TEXT NOT NULL DEFAULT '',
  response_body TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
)
`
