package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChatRole identifies the author of a chat turn
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
	ChatRoleFunction  ChatRole = "function"
)

// ChatTurn is one message in the session-scoped conversation history
type ChatTurn struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
	Name    string   `json:"name,omitempty"` // tool name for function turns
}

// ChatLogEntry is the durable, append-only audit copy of a chat turn
type ChatLogEntry struct {
	ID        int64      `json:"id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	SessionID string     `json:"session_id"`
	Role      ChatRole   `json:"role"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
}

// CustomerReview is customer feedback surfaced in the personalization context
type CustomerReview struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Feedback  string    `json:"feedback"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatLogRepository defines the interface for the durable chat log
type ChatLogRepository interface {
	Append(ctx context.Context, entry *ChatLogEntry) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]ChatLogEntry, error)
}

// ReviewRepository defines the interface for customer reviews
type ReviewRepository interface {
	ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]CustomerReview, error)
}
