package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/timmy/pharmanews/internal/domain"
)

// ErrSessionNotFound is returned when a chat session lookup matches no row.
var ErrSessionNotFound = errors.New("chat session not found")

// ChatRepository handles persistence of chat sessions and messages.
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new chat repository.
func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreateSession inserts a new chat session.
func (r *ChatRepository) CreateSession(ctx context.Context, session *domain.ChatSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetSession fetches a chat session by id.
func (r *ChatRepository) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	var session domain.ChatSession
	err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// TouchSession bumps a session's updated_at timestamp.
func (r *ChatRepository) TouchSession(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&domain.ChatSession{}).
		Where("id = ?", id).
		Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

// AddMessage appends a message to a session.
func (r *ChatRepository) AddMessage(ctx context.Context, msg *domain.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListMessages returns a session's messages in chronological order.
func (r *ChatRepository) ListMessages(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	query := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var messages []domain.ChatMessage
	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}
