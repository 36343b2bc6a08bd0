package postgres

import (
	"context"
	"fmt"
)

// schema is applied idempotently at startup. Lanes and cards cascade with
// their board; cards also cascade with their lane.
const schema = `
CREATE TABLE IF NOT EXISTS boards (
	id         uuid PRIMARY KEY,
	tenant_id  uuid NOT NULL,
	title      text NOT NULL CHECK (title <> ''),
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS boards_tenant_created_idx ON boards (tenant_id, created_at);

CREATE TABLE IF NOT EXISTS lanes (
	id       uuid PRIMARY KEY,
	board_id uuid NOT NULL REFERENCES boards (id) ON DELETE CASCADE,
	title    text NOT NULL CHECK (title <> ''),
	position integer NOT NULL CHECK (position >= 0),
	UNIQUE (board_id, position)
);

CREATE TABLE IF NOT EXISTS cards (
	id          uuid PRIMARY KEY,
	board_id    uuid NOT NULL REFERENCES boards (id) ON DELETE CASCADE,
	lane_id     uuid NOT NULL REFERENCES lanes (id) ON DELETE CASCADE,
	title       text NOT NULL CHECK (title <> ''),
	description text,
	position    integer NOT NULL CHECK (position >= 0),
	UNIQUE (lane_id, position)
);
CREATE INDEX IF NOT EXISTS cards_board_idx ON cards (board_id);
`

// Migrate creates the board tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres.Migrate: %w", err)
	}
	return nil
}
