package postgres

import "context"

// The adventures ↔ nodes references are circular: an adventure points at its
// START node and every node points back at its adventure. The node-side
// constraint is deferred so the build transaction can insert nodes before the
// adventure row, as the ordered construction protocol requires, and still
// commit with full referential integrity.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS quest_adventures (
    id            TEXT PRIMARY KEY,
    title         TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    start_node_id TEXT,
    published     BOOLEAN NOT NULL DEFAULT FALSE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS quest_contents (
    id         TEXT PRIMARY KEY,
    body       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS quest_nodes (
    id           TEXT PRIMARY KEY,
    adventure_id TEXT NOT NULL REFERENCES quest_adventures(id) ON DELETE CASCADE DEFERRABLE INITIALLY DEFERRED,
    title        TEXT NOT NULL,
    node_type    TEXT NOT NULL CHECK (node_type IN ('START', 'DECISION', 'STORY', 'ENDING')),
    ending_type  TEXT,
    content_id   TEXT NOT NULL REFERENCES quest_contents(id),
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS quest_choices (
    id             TEXT PRIMARY KEY,
    adventure_id   TEXT NOT NULL,
    source_node_id TEXT NOT NULL REFERENCES quest_nodes(id) ON DELETE CASCADE,
    target_node_id TEXT NOT NULL REFERENCES quest_nodes(id) ON DELETE CASCADE,
    label          TEXT NOT NULL,
    consequence    TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS quest_journeys (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL,
    adventure_id    TEXT NOT NULL REFERENCES quest_adventures(id) ON DELETE CASCADE,
    current_node_id TEXT NOT NULL REFERENCES quest_nodes(id),
    path            JSONB NOT NULL DEFAULT '[]',
    is_completed    BOOLEAN NOT NULL DEFAULT FALSE,
    completed_at    TIMESTAMPTZ,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_quest_nodes_adventure   ON quest_nodes(adventure_id);
CREATE INDEX IF NOT EXISTS idx_quest_choices_adventure ON quest_choices(adventure_id);
CREATE INDEX IF NOT EXISTS idx_quest_choices_source    ON quest_choices(source_node_id);
CREATE INDEX IF NOT EXISTS idx_quest_journeys_adventure ON quest_journeys(adventure_id);

CREATE UNIQUE INDEX IF NOT EXISTS uniq_quest_journeys_active
    ON quest_journeys(user_id, adventure_id) WHERE NOT is_completed;
`

// CreateSchema creates the quest tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops all quest tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS quest_journeys, quest_choices, quest_nodes, quest_contents, quest_adventures CASCADE;`)
	return err
}
