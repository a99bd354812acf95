package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/chatarchive/internal/chat"
)

// SaveConversation writes a conversation, its messages and its media index in
// one transaction. Media bytes are not stored.
func (s *Store) SaveConversation(ctx context.Context, id uuid.UUID, conv *chat.Conversation) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO chat_conversations (id, title, participants, primary_user, start_time, end_time, message_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, conv.Title, conv.Participants, conv.PrimaryUser, conv.StartTime, conv.EndTime, conv.MessageCount,
	)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"chat_messages"},
		[]string{"conversation_id", "seq", "sent_at", "sender", "body", "kind", "media_ref", "is_primary_user", "source_line"},
		pgx.CopyFromSlice(len(conv.Messages), func(i int) ([]any, error) {
			m := conv.Messages[i]
			return []any{id, i, m.Timestamp, m.Sender, m.Text, string(m.Kind), m.MediaRef, m.IsPrimaryUser, m.SourceLine}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy messages: %w", err)
	}

	if conv.Media != nil {
		for _, rec := range conv.Media.Records() {
			_, err = tx.Exec(ctx, `
				INSERT INTO chat_media (conversation_id, name, content_type, size_bytes)
				VALUES ($1, $2, $3, $4)`,
				id, rec.Name, rec.ContentType, rec.Size,
			)
			if err != nil {
				return fmt.Errorf("insert media %s: %w", rec.Name, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ErrNotFound is returned when no stored conversation has the requested id.
var ErrNotFound = errors.New("conversation not found")

type ConversationRow struct {
	ID           uuid.UUID
	Title        string
	Participants []string
	PrimaryUser  string
	StartTime    *time.Time
	EndTime      *time.Time
	MessageCount int
	CreatedAt    time.Time
}

// GetConversation fetches a stored conversation header.
func (s *Store) GetConversation(ctx context.Context, id uuid.UUID) (*ConversationRow, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, title, participants, primary_user, start_time, end_time, message_count, created_at
		FROM chat_conversations WHERE id = $1`, id)

	var c ConversationRow
	err := row.Scan(&c.ID, &c.Title, &c.Participants, &c.PrimaryUser, &c.StartTime, &c.EndTime, &c.MessageCount, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &c, nil
}

// ListMessages returns a stored conversation's messages in transcript order.
// Message ids are process-local and are not persisted; loaded messages get
// fresh ids.
func (s *Store) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]chat.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sent_at, sender, body, kind, media_ref, is_primary_user, source_line
		FROM chat_messages WHERE conversation_id = $1
		ORDER BY seq`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var (
			m    chat.Message
			kind string
		)
		if err := rows.Scan(&m.Timestamp, &m.Sender, &m.Text, &kind, &m.MediaRef, &m.IsPrimaryUser, &m.SourceLine); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.ID = chat.NextID()
		m.Kind = chat.Kind(kind)
		m.Timestamp = m.Timestamp.UTC()
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// DeleteConversation removes a conversation and, by cascade, its messages and
// media index.
func (s *Store) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM chat_conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}
