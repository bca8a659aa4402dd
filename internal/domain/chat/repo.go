package chat

import "context"

type Repository interface {
	Create(ctx context.Context, m *Message) error
	// Conversation returns every message exchanged between a and b in
	// either direction, oldest first.
	Conversation(ctx context.Context, a, b string) ([]*Message, error)
}
