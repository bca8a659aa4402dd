package chat

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ehr/portal/internal/platform/db"
)

type repoPG struct{ q db.Querier }

func NewRepoPG(q db.Querier) Repository {
	return &repoPG{q: q}
}

func (r *repoPG) Create(ctx context.Context, m *Message) error {
	m.ID = uuid.New()
	return r.q.QueryRow(ctx, `
		INSERT INTO message (id, from_id, to_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING sent_at`,
		[]interface{}{m.ID, m.FromID, m.ToID, m.Content},
		func(row pgx.Row) error { return row.Scan(&m.SentAt) })
}

func (r *repoPG) Conversation(ctx context.Context, a, b string) ([]*Message, error) {
	var out []*Message
	err := r.q.Query(ctx, `
		SELECT m.id, m.from_id, m.to_id, i.username, m.content, m.sent_at
		FROM message m
		JOIN identity i ON i.id = m.from_id
		WHERE (m.from_id = $1 AND m.to_id = $2) OR (m.from_id = $2 AND m.to_id = $1)
		ORDER BY m.sent_at ASC, m.id ASC`,
		[]interface{}{a, b},
		func(rows pgx.Rows) error {
			var m Message
			if err := rows.Scan(&m.ID, &m.FromID, &m.ToID, &m.Sender, &m.Content, &m.SentAt); err != nil {
				return err
			}
			out = append(out, &m)
			return nil
		})
	return out, err
}
