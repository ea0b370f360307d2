package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/timmy/pharmanews/internal/config"
	"github.com/timmy/pharmanews/internal/crawler"
	"github.com/timmy/pharmanews/internal/domain"
	"github.com/timmy/pharmanews/internal/repository"
)

func newTaskService(t *testing.T, db *gorm.DB, c crawler.Crawler) *CrawlTaskService {
	t.Helper()
	crawler.Register(c)
	ingest := newIngest(t, db, newMemStore(), nil)
	cfg := &config.CrawlerConfig{DefaultSource: c.Name()}
	return NewCrawlTaskService(repository.NewTaskRepository(db), ingest, cfg)
}

func waitForTerminal(t *testing.T, svc *CrawlTaskService, id uint) *domain.CrawlerTask {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		task, err := svc.GetTask(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		if task.Status == domain.TaskStatusCompleted || task.Status == domain.TaskStatusFailed {
			// Wait for the running flag to clear as well.
			for time.Now().Before(deadline) {
				snap, err := svc.Status(context.Background())
				if err != nil {
					t.Fatal(err)
				}
				if !snap.IsRunning {
					return task
				}
				time.Sleep(5 * time.Millisecond)
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("task did not reach a terminal state")
	return nil
}

func TestSubmitRejectsConcurrentRuns(t *testing.T) {
	db := newTestDB(t)
	release := make(chan struct{})

	c := &fakeCrawler{
		name: "single-flight",
		listFunc: func(ctx context.Context, _ int) ([]crawler.ArticleStub, error) {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil, nil
		},
	}
	svc := newTaskService(t, db, c)

	first, err := svc.Submit(context.Background(), TaskParams{Source: c.name})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Submit(context.Background(), TaskParams{Source: c.name}); !errors.Is(err, ErrTaskAlreadyRunning) {
		t.Fatalf("expected ErrTaskAlreadyRunning, got %v", err)
	}

	close(release)
	task := waitForTerminal(t, svc, first.ID)
	if task.Status != domain.TaskStatusCompleted {
		t.Fatalf("status = %s, want completed", task.Status)
	}

	// A new submission is accepted once the previous run finished.
	second, err := svc.Submit(context.Background(), TaskParams{Source: c.name})
	if err != nil {
		t.Fatalf("resubmission failed: %v", err)
	}
	waitForTerminal(t, svc, second.ID)
}

func TestTaskCompletionRecordsDiscoveredCount(t *testing.T) {
	db := newTestDB(t)

	c := &fakeCrawler{
		name: "count-src",
		listFunc: func(_ context.Context, page int) ([]crawler.ArticleStub, error) {
			if page != 1 {
				return nil, nil
			}
			// Two discovered, but the undated one never reaches ingest.
			return []crawler.ArticleStub{
				datedStub("有日期", "count-u1"),
				{Title: "无日期", DetailURL: "count-u2"},
			}, nil
		},
		detailFunc: textDetail(map[string]string{"count-u1": "任务统计用的正文。"}),
	}
	svc := newTaskService(t, db, c)

	created, err := svc.Submit(context.Background(), TaskParams{Source: c.name, Pages: 1})
	if err != nil {
		t.Fatal(err)
	}
	task := waitForTerminal(t, svc, created.ID)

	if task.Status != domain.TaskStatusCompleted {
		t.Fatalf("status = %s (%s)", task.Status, task.ErrorMessage)
	}
	if task.ArticlesCount != 2 {
		t.Errorf("articles_count = %d, want discovered count 2", task.ArticlesCount)
	}
	if task.StartedAt == nil || task.CompletedAt == nil {
		t.Error("timestamps not recorded")
	}

	var rows int64
	db.Model(&domain.Article{}).Count(&rows)
	if rows != 1 {
		t.Errorf("expected 1 ingested row, got %d", rows)
	}
}

func TestSubmitValidatesParams(t *testing.T) {
	db := newTestDB(t)
	svc := newTaskService(t, db, &fakeCrawler{name: "validate-src"})

	if _, err := svc.Submit(context.Background(), TaskParams{Source: "no-such-source"}); err == nil {
		t.Error("expected error for unknown source")
	}
	if _, err := svc.Submit(context.Background(), TaskParams{Source: "validate-src", FromDate: "bad"}); err == nil {
		t.Error("expected error for malformed from_date")
	}

	// Validation failures must not leave the running flag set.
	snap, err := svc.Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.IsRunning {
		t.Error("runner stuck in running state after rejected submission")
	}
}

func TestCancelSemantics(t *testing.T) {
	db := newTestDB(t)
	release := make(chan struct{})

	c := &fakeCrawler{
		name: "cancel-src",
		listFunc: func(ctx context.Context, _ int) ([]crawler.ArticleStub, error) {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil, nil
		},
	}
	svc := newTaskService(t, db, c)

	task, err := svc.Submit(context.Background(), TaskParams{Source: c.name})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Cancel(context.Background(), task.ID); !errors.Is(err, ErrCancelUnsupported) {
		t.Errorf("cancelling a running task: got %v, want ErrCancelUnsupported", err)
	}

	close(release)
	waitForTerminal(t, svc, task.ID)

	if err := svc.Cancel(context.Background(), task.ID); !errors.Is(err, ErrTaskNotRunning) {
		t.Errorf("cancelling a finished task: got %v, want ErrTaskNotRunning", err)
	}
	if err := svc.Cancel(context.Background(), 99999); !errors.Is(err, repository.ErrTaskNotFound) {
		t.Errorf("cancelling an unknown task: got %v, want ErrTaskNotFound", err)
	}
}

func TestTaskFailsWhenRunningMarkCannotPersist(t *testing.T) {
	db := newTestDB(t)
	c := &fakeCrawler{name: "markfail-src"}
	svc := newTaskService(t, db, c)

	// Make the transition to running fail at the database; the task must
	// still end up in a terminal state instead of staying pending forever.
	if err := db.Exec(`CREATE TRIGGER reject_running BEFORE UPDATE ON crawler_tasks
		WHEN NEW.status = 'running'
		BEGIN SELECT RAISE(ABORT, 'simulated failure'); END;`).Error; err != nil {
		t.Fatal(err)
	}

	task, err := svc.Submit(context.Background(), TaskParams{Source: c.name})
	if err != nil {
		t.Fatal(err)
	}
	done := waitForTerminal(t, svc, task.ID)

	if done.Status != domain.TaskStatusFailed {
		t.Fatalf("status = %s, want failed", done.Status)
	}
	if done.ErrorMessage == "" {
		t.Error("error message not recorded")
	}
	if done.CompletedAt == nil {
		t.Error("completion timestamp not recorded")
	}
}

func TestRunLogRingIsBounded(t *testing.T) {
	db := newTestDB(t)
	svc := NewCrawlTaskService(repository.NewTaskRepository(db), nil, &config.CrawlerConfig{})

	for i := 0; i < logRingCapacity+50; i++ {
		svc.appendLog("info", fmt.Sprintf("entry %d", i))
	}

	logs := svc.Logs()
	if len(logs) != logRingCapacity {
		t.Fatalf("log ring holds %d entries, want %d", len(logs), logRingCapacity)
	}
	if logs[0].Message != "entry 50" {
		t.Errorf("oldest entries not evicted, first = %q", logs[0].Message)
	}
	if logs[len(logs)-1].Message != fmt.Sprintf("entry %d", logRingCapacity+49) {
		t.Errorf("newest entry missing, last = %q", logs[len(logs)-1].Message)
	}
}

func TestLogsClearedPerRun(t *testing.T) {
	db := newTestDB(t)
	c := &fakeCrawler{name: "logclear-src"}
	svc := newTaskService(t, db, c)
	svc.appendLog("info", "stale entry from a previous run")

	task, err := svc.Submit(context.Background(), TaskParams{Source: c.name})
	if err != nil {
		t.Fatal(err)
	}
	waitForTerminal(t, svc, task.ID)

	for _, entry := range svc.Logs() {
		if entry.Message == "stale entry from a previous run" {
			t.Fatal("run did not clear the previous log buffer")
		}
	}
}
