package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/timmy/pharmanews/internal/domain"
)

// SourceRepository handles persistence of upstream news sources.
type SourceRepository struct {
	db *gorm.DB
}

// NewSourceRepository creates a new source repository.
func NewSourceRepository(db *gorm.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// GetOrCreate returns the source with the given English name, creating it on
// first use.
func (r *SourceRepository) GetOrCreate(ctx context.Context, nameEN, name, baseURL string) (*domain.Source, error) {
	var source domain.Source
	err := r.db.WithContext(ctx).Where("name_en = ?", nameEN).First(&source).Error
	if err == nil {
		return &source, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	source = domain.Source{Name: name, NameEN: nameEN, BaseURL: baseURL}
	if err := r.db.WithContext(ctx).Create(&source).Error; err != nil {
		return nil, err
	}
	return &source, nil
}

// List returns all registered sources.
func (r *SourceRepository) List(ctx context.Context) ([]domain.Source, error) {
	var sources []domain.Source
	if err := r.db.WithContext(ctx).Order("id").Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}
