package domain

import "time"

// ChatSession groups the messages of one multi-turn conversation.
type ChatSession struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(100);not null;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for ChatSession.
func (ChatSession) TableName() string {
	return "chat_sessions"
}

// ChatMessage is a single user or assistant turn within a session.
type ChatMessage struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	SessionID string      `gorm:"type:text;not null;index" json:"session_id"`
	Role      string      `gorm:"type:varchar(20);not null" json:"role"`
	Content   string      `gorm:"type:text;not null" json:"content"`
	Sources   StringArray `gorm:"type:text" json:"sources"`
	LatencyMs int         `json:"latency_ms"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
}

// TableName returns the database table name for ChatMessage.
func (ChatMessage) TableName() string {
	return "chat_messages"
}
