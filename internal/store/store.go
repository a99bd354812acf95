// Package store persists parsed conversations to Postgres.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS chat_conversations (
	id            uuid PRIMARY KEY,
	title         text NOT NULL,
	participants  text[] NOT NULL,
	primary_user  text NOT NULL,
	start_time    timestamp,
	end_time      timestamp,
	message_count integer NOT NULL,
	created_at    timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS chat_messages (
	conversation_id uuid NOT NULL REFERENCES chat_conversations(id) ON DELETE CASCADE,
	seq             integer NOT NULL,
	sent_at         timestamp NOT NULL,
	sender          text NOT NULL,
	body            text NOT NULL,
	kind            text NOT NULL,
	media_ref       text NOT NULL DEFAULT '',
	is_primary_user boolean NOT NULL,
	source_line     text NOT NULL,
	PRIMARY KEY (conversation_id, seq)
);

CREATE TABLE IF NOT EXISTS chat_media (
	conversation_id uuid NOT NULL REFERENCES chat_conversations(id) ON DELETE CASCADE,
	name            text NOT NULL,
	content_type    text NOT NULL,
	size_bytes      bigint NOT NULL,
	PRIMARY KEY (conversation_id, name)
);
`

// Migrate creates the tables used by the store if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
