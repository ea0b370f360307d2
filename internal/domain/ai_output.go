package domain

import "time"

// ArticleAIOutput stores one AI analysis of an article. version_no snapshots
// the article's version at analysis time so stale outputs can be detected.
type ArticleAIOutput struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ArticleID uint      `gorm:"not null;index" json:"article_id"`
	VersionNo int       `gorm:"not null" json:"version_no"`
	Summary   string    `gorm:"type:text" json:"summary"`
	ModelName string    `gorm:"type:varchar(100)" json:"model_name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for ArticleAIOutput.
func (ArticleAIOutput) TableName() string {
	return "article_ai_outputs"
}
