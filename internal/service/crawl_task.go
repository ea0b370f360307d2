package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/timmy/pharmanews/internal/config"
	"github.com/timmy/pharmanews/internal/crawler"
	"github.com/timmy/pharmanews/internal/domain"
	"github.com/timmy/pharmanews/internal/logger"
	"github.com/timmy/pharmanews/internal/repository"
	"github.com/timmy/pharmanews/internal/timeutil"
)

// logRingCapacity bounds the in-memory run log; older entries are evicted.
const logRingCapacity = 100

var (
	// ErrTaskAlreadyRunning rejects a submission while another run is active.
	ErrTaskAlreadyRunning = errors.New("a crawler task is already running")
	// ErrTaskNotRunning is returned when cancelling with no active run.
	ErrTaskNotRunning = errors.New("no crawler task is running")
	// ErrCancelUnsupported is returned for cancel requests on a running task.
	ErrCancelUnsupported = errors.New("cancelling a running task is not supported")
)

// TaskParams is the submitted crawl configuration. DaysBack takes precedence
// over FromDate/ToDate when both are given.
type TaskParams struct {
	Source      string `json:"source"`
	Pages       int    `json:"pages"`
	MaxArticles int    `json:"max_articles"`
	DaysBack    int    `json:"days_back"`
	FromDate    string `json:"from_date"`
	ToDate      string `json:"to_date"`
}

// LogEntry is one line of the in-memory run log.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// TaskStatusSnapshot is the crawl runner's externally visible state.
type TaskStatusSnapshot struct {
	IsRunning   bool                `json:"is_running"`
	CurrentTask *domain.CrawlerTask `json:"current_task,omitempty"`
	RecentLogs  []LogEntry          `json:"recent_logs"`
}

// CrawlTaskService runs crawl-and-ingest tasks one at a time. The single
// flight guard is advisory and in-process; the articles table's unique hash
// constraint is the real backstop against concurrent duplicate ingestion.
type CrawlTaskService struct {
	tasks  *repository.TaskRepository
	ingest *IngestService
	cfg    *config.CrawlerConfig

	mu            sync.Mutex
	running       bool
	currentTaskID uint
	logs          []LogEntry
}

// NewCrawlTaskService creates the crawl task runner.
func NewCrawlTaskService(tasks *repository.TaskRepository, ingest *IngestService, cfg *config.CrawlerConfig) *CrawlTaskService {
	return &CrawlTaskService{tasks: tasks, ingest: ingest, cfg: cfg}
}

// Submit validates params, persists a pending task, and starts it in the
// background. Returns ErrTaskAlreadyRunning while a previous run is active.
func (s *CrawlTaskService) Submit(ctx context.Context, params TaskParams) (*domain.CrawlerTask, error) {
	if params.Source == "" {
		params.Source = s.cfg.DefaultSource
	}
	c, err := crawler.Get(params.Source)
	if err != nil {
		return nil, err
	}
	window, err := crawler.BuildWindow(params.DaysBack, params.FromDate, params.ToDate)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrTaskAlreadyRunning
	}
	s.running = true
	s.logs = nil
	s.mu.Unlock()

	task := &domain.CrawlerTask{
		Config: domain.JSONMap{
			"source":       params.Source,
			"pages":        params.Pages,
			"max_articles": params.MaxArticles,
			"days_back":    params.DaysBack,
			"from_date":    params.FromDate,
			"to_date":      params.ToDate,
		},
		Status: domain.TaskStatusPending,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.mu.Lock()
	s.currentTaskID = task.ID
	s.mu.Unlock()

	go s.run(task.ID, c, params, window)

	return task, nil
}

// run executes one crawl-and-ingest task to completion. It owns the running
// flag and always releases it.
func (s *CrawlTaskService) run(taskID uint, c crawler.Crawler, params TaskParams, window *crawler.DateWindow) {
	ctx := context.Background()
	ctx = logger.SetTaskID(ctx, taskID)
	ctx = logger.SetSource(ctx, c.Name())
	log := logger.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("crawl task panicked")
			s.finishTask(ctx, taskID, 0, fmt.Errorf("task panicked: %v", r))
		}
		// currentTaskID is kept so Status can still report the last run.
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		log.WithError(err).Error("failed to load task")
		s.finishTask(ctx, taskID, 0, fmt.Errorf("failed to load task: %w", err))
		return
	}
	now := timeutil.Now()
	task.Status = domain.TaskStatusRunning
	task.StartedAt = &now
	if err := s.tasks.Update(ctx, task); err != nil {
		log.WithError(err).Error("failed to mark task running")
		s.finishTask(ctx, taskID, 0, fmt.Errorf("failed to mark task running: %w", err))
		return
	}

	s.appendLog("info", fmt.Sprintf("task %d started for source %s", taskID, c.Name()))

	stubs, crawlStats, err := crawler.CrawlPages(ctx, c, crawler.Options{
		Pages:       params.Pages,
		MaxArticles: params.MaxArticles,
		Window:      window,
	})
	if err != nil {
		s.appendLog("error", "crawl failed: "+err.Error())
		s.finishTask(ctx, taskID, 0, err)
		return
	}
	s.appendLog("info", fmt.Sprintf("crawl discovered %d articles over %d pages (%d matched filter)",
		crawlStats.Discovered, crawlStats.PagesFetched, len(stubs)))

	ingestStats, err := s.ingest.Run(ctx, c, stubs)
	if ingestStats != nil {
		s.appendLog("info", fmt.Sprintf("ingest finished: %d inserted, %d revived, %d duplicates, %d skipped, %d failed",
			ingestStats.Inserted, ingestStats.Revived, ingestStats.Duplicates, ingestStats.Skipped, ingestStats.Failed))
	}
	// articles_count reports what the crawl discovered, not what survived
	// dedup; duplicates and skips are still accounted work.
	s.finishTask(ctx, taskID, crawlStats.Discovered, err)
}

// finishTask records the terminal task state.
func (s *CrawlTaskService) finishTask(ctx context.Context, taskID uint, articlesCount int, runErr error) {
	log := logger.FromContext(ctx)
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		log.WithError(err).Error("failed to load task for completion")
		return
	}
	now := timeutil.Now()
	task.CompletedAt = &now
	task.ArticlesCount = articlesCount
	if runErr != nil {
		task.Status = domain.TaskStatusFailed
		task.ErrorMessage = runErr.Error()
		s.appendLog("error", "task failed: "+runErr.Error())
	} else {
		task.Status = domain.TaskStatusCompleted
		s.appendLog("info", fmt.Sprintf("task %d completed with %d articles", taskID, articlesCount))
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		log.WithError(err).Error("failed to persist task completion")
	}
}

// Status returns a snapshot of the runner: the running flag, a fresh copy of
// the current (or most recent) task row, and the buffered logs.
func (s *CrawlTaskService) Status(ctx context.Context) (*TaskStatusSnapshot, error) {
	s.mu.Lock()
	snapshot := &TaskStatusSnapshot{
		IsRunning:  s.running,
		RecentLogs: append([]LogEntry(nil), s.logs...),
	}
	taskID := s.currentTaskID
	s.mu.Unlock()

	if taskID != 0 {
		task, err := s.tasks.GetByID(ctx, taskID)
		if err != nil && !errors.Is(err, repository.ErrTaskNotFound) {
			return nil, err
		}
		snapshot.CurrentTask = task
	}
	return snapshot, nil
}

// Logs returns a copy of the buffered run log.
func (s *CrawlTaskService) Logs() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LogEntry(nil), s.logs...)
}

// Cancel rejects cancellation: a running task cannot be interrupted safely
// mid-ingest, and a non-running task has nothing to cancel.
func (s *CrawlTaskService) Cancel(ctx context.Context, taskID uint) error {
	s.mu.Lock()
	running := s.running && s.currentTaskID == taskID
	s.mu.Unlock()

	if running {
		return ErrCancelUnsupported
	}
	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		return err
	}
	return ErrTaskNotRunning
}

// GetTask fetches one task by id.
func (s *CrawlTaskService) GetTask(ctx context.Context, id uint) (*domain.CrawlerTask, error) {
	return s.tasks.GetByID(ctx, id)
}

// ListTasks returns a page of tasks, newest first.
func (s *CrawlTaskService) ListTasks(ctx context.Context, status domain.TaskStatus, page, pageSize int) ([]domain.CrawlerTask, int64, error) {
	return s.tasks.List(ctx, status, page, pageSize)
}

func (s *CrawlTaskService) appendLog(level, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, LogEntry{Time: timeutil.Now(), Level: level, Message: message})
	if len(s.logs) > logRingCapacity {
		s.logs = s.logs[len(s.logs)-logRingCapacity:]
	}
}
