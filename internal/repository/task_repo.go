package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/timmy/pharmanews/internal/domain"
)

// ErrTaskNotFound is returned when a crawler task lookup matches no row.
var ErrTaskNotFound = errors.New("crawler task not found")

// TaskRepository handles persistence of crawler tasks.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new crawler task row.
func (r *TaskRepository) Create(ctx context.Context, task *domain.CrawlerTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// Update persists all fields of an existing task.
func (r *TaskRepository) Update(ctx context.Context, task *domain.CrawlerTask) error {
	return r.db.WithContext(ctx).Save(task).Error
}

// GetByID fetches one task by primary key.
func (r *TaskRepository) GetByID(ctx context.Context, id uint) (*domain.CrawlerTask, error) {
	var task domain.CrawlerTask
	err := r.db.WithContext(ctx).First(&task, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns a page of tasks, newest first, optionally filtered by status.
func (r *TaskRepository) List(ctx context.Context, status domain.TaskStatus, page, pageSize int) ([]domain.CrawlerTask, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.CrawlerTask{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var tasks []domain.CrawlerTask
	err := query.
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}
