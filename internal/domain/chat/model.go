package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/ehr/portal/internal/domain/identity"
)

// Message is immutable once sent.
type Message struct {
	ID     uuid.UUID `db:"id" json:"id"`
	FromID string    `db:"from_id" json:"from_id"`
	ToID   string    `db:"to_id" json:"to_id"`
	// Sender is the username of FromID, filled on read.
	Sender  string    `db:"sender" json:"sender"`
	Content string    `db:"content" json:"content"`
	SentAt  time.Time `db:"sent_at" json:"sent_at"`
}

// ContactsPage lists who the viewer can talk to.
type ContactsPage struct {
	Page     string             `json:"page"`
	Auth     string             `json:"auth"`
	Contacts []identity.Contact `json:"contacts"`
	Message  string             `json:"message,omitempty"`
}

// ConversationPage is the shared history between the viewer and one contact.
type ConversationPage struct {
	Page        string           `json:"page"`
	Auth        string           `json:"auth"`
	With        identity.Contact `json:"with"`
	IsClinician bool             `json:"is_clinician"`
	Messages    []*Message       `json:"messages"`
	Message     string           `json:"message,omitempty"`
}
