package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// TaskStatus represents the lifecycle state of a crawler task.
// Values include TaskStatusPending, TaskStatusRunning, TaskStatusCompleted,
// and TaskStatusFailed.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// JSONMap is a custom type for storing a JSON object in a text column.
type JSONMap map[string]interface{}

// Value implements the driver.Valuer interface for database serialization.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for database deserialization.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan JSONMap")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, m)
}

// CrawlerTask is one crawl-and-ingest run. The submitted config is persisted
// verbatim; articles_count records the number of stubs the crawl discovered,
// which may exceed the number of rows actually inserted when duplicates are
// skipped.
type CrawlerTask struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Config        JSONMap    `gorm:"type:text;not null" json:"config"`
	Status        TaskStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ArticlesCount int        `gorm:"default:0" json:"articles_count"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	ErrorMessage  string     `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
}

// TableName returns the database table name for CrawlerTask.
func (CrawlerTask) TableName() string {
	return "crawler_tasks"
}
