package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rasoi/chaatbot/internal/domain"
)

// ChatLogRepository implements domain.ChatLogRepository
type ChatLogRepository struct {
	db *DB
}

// NewChatLogRepository creates a new chat log repository
func NewChatLogRepository(db *DB) *ChatLogRepository {
	return &ChatLogRepository{db: db}
}

func (r *ChatLogRepository) Append(ctx context.Context, entry *domain.ChatLogEntry) error {
	// created_at comes from the schema default
	query := `
		INSERT INTO chat_log (user_id, session_id, role, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.Pool.QueryRow(ctx, query,
		entry.UserID,
		entry.SessionID,
		entry.Role,
		entry.Message,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append chat log entry: %w", err)
	}
	return nil
}

func (r *ChatLogRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.ChatLogEntry, error) {
	query := `
		SELECT id, user_id, session_id, role, message, created_at
		FROM chat_log
		WHERE session_id = $1
		ORDER BY id DESC
		LIMIT $2
	`
	rows, err := r.db.Pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat log: %w", err)
	}
	defer rows.Close()

	var entries []domain.ChatLogEntry
	for rows.Next() {
		var e domain.ChatLogEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.SessionID, &e.Role, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReviewRepository implements domain.ReviewRepository
type ReviewRepository struct {
	db *DB
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.CustomerReview, error) {
	query := `
		SELECT id, user_id, feedback, rating, created_at
		FROM customer_reviews
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.CustomerReview
	for rows.Next() {
		var cr domain.CustomerReview
		if err := rows.Scan(&cr.ID, &cr.UserID, &cr.Feedback, &cr.Rating, &cr.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, cr)
	}
	return reviews, rows.Err()
}
