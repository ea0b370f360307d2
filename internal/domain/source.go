package domain

import "time"

// Source is a registered upstream news site (e.g. the pharma news portal).
type Source struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	NameEN    string    `gorm:"column:name_en;type:varchar(100)" json:"name_en,omitempty"`
	BaseURL   string    `gorm:"type:varchar(500)" json:"base_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Source.
func (Source) TableName() string {
	return "sources"
}
