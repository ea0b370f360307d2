package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ContentSource marks which platform the persisted article body came from.
// Values include ContentSourcePrimary and ContentSourceSecondary.
type ContentSource string

const (
	// ContentSourcePrimary means the body was taken from the portal detail page.
	ContentSourcePrimary ContentSource = "primary"
	// ContentSourceSecondary means the linked public-account post yielded a more
	// complete body and replaced the portal content.
	ContentSourceSecondary ContentSource = "secondary"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// Article is a persisted pharma news article.
//
// canonical_hash is unique across ALL rows, deleted or not: the ingest
// pipeline queries both active and soft-deleted rows by hash, and at most one
// active row may exist per hash at any time.
type Article struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Title    string `gorm:"type:text;not null" json:"title"`
	Summary  string `gorm:"type:text" json:"summary"`
	Author   string `gorm:"type:text" json:"author"`
	SourceID uint   `gorm:"index" json:"source_id"`
	Category string `gorm:"type:text;index" json:"category"`

	Tags        StringArray `gorm:"type:text" json:"tags"`
	PublishedAt time.Time   `gorm:"not null;index" json:"published_at"`
	CrawledAt   time.Time   `json:"crawled_at"`

	ContentURL    string        `gorm:"type:text" json:"content_url"`
	ContentText   string        `gorm:"type:text" json:"content_text"`
	ContentSource ContentSource `gorm:"type:text;default:primary" json:"content_source"`

	// Secondary-platform fields, populated only when the linked post resolved.
	SecondarySourceURL   *string `gorm:"type:text" json:"secondary_source_url,omitempty"`
	SecondaryContentHTML *string `gorm:"type:text" json:"-"`
	SecondaryContentText *string `gorm:"type:text" json:"-"`

	// StoragePrefix is the object-storage key prefix holding this article's
	// raw and cleaned blobs. The retention sweep uses it to remove the blobs
	// together with the row.
	StoragePrefix string `gorm:"type:text" json:"storage_prefix,omitempty"`

	CanonicalHash string    `gorm:"type:varchar(64);uniqueIndex:idx_articles_canonical_hash;not null" json:"canonical_hash"`
	VersionNo     int       `gorm:"default:1" json:"version_no"`
	IsDeleted     bool      `gorm:"default:false;index" json:"is_deleted"`
	Lang          string    `gorm:"type:varchar(10);default:zh" json:"lang"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for Article.
func (Article) TableName() string {
	return "articles"
}
