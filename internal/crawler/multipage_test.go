package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/timmy/pharmanews/internal/timeutil"
)

// scriptedCrawler serves predefined stubs per page number.
type scriptedCrawler struct {
	pages map[int][]ArticleStub
	calls []int
}

func (s *scriptedCrawler) Name() string            { return "scripted" }
func (s *scriptedCrawler) DisplayName() string     { return "Scripted" }
func (s *scriptedCrawler) BaseURL() string         { return "https://example.test" }
func (s *scriptedCrawler) SupportsSecondary() bool { return false }

func (s *scriptedCrawler) FetchListPage(_ context.Context, page int) ([]ArticleStub, error) {
	s.calls = append(s.calls, page)
	return s.pages[page], nil
}

func (s *scriptedCrawler) FetchDetail(_ context.Context, _ ArticleStub) (*Detail, error) {
	return &Detail{}, nil
}

func stubOn(day time.Time, title string) ArticleStub {
	return ArticleStub{Title: title, DetailURL: "https://example.test/" + title, PublishedAt: &day}
}

func TestCrawlPagesEmptyStreakStopsEarly(t *testing.T) {
	today := timeutil.TodayStart()
	old := today.AddDate(0, 0, -30)

	// Page 1 matches; pages 2-4 are all out of window; page 5 would match but
	// must never be reached.
	c := &scriptedCrawler{pages: map[int][]ArticleStub{
		1: {stubOn(today, "fresh")},
		2: {stubOn(old, "stale-a")},
		3: {stubOn(old, "stale-b")},
		4: {stubOn(old, "stale-c")},
		5: {stubOn(today, "unreachable")},
	}}

	window := &DateWindow{From: today.AddDate(0, 0, -7), To: timeutil.EndOfDay(today)}
	got, stats, err := CrawlPages(context.Background(), c, Options{Pages: 10, Window: window})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "fresh" {
		t.Fatalf("expected only the fresh stub, got %+v", got)
	}
	if !stats.StoppedEarly {
		t.Error("expected early stop after empty streak")
	}
	if stats.PagesFetched != 4 {
		t.Errorf("expected 4 pages fetched, got %d", stats.PagesFetched)
	}
}

func TestCrawlPagesMaxArticlesTruncates(t *testing.T) {
	today := timeutil.TodayStart()
	page := make([]ArticleStub, 0, 4)
	for _, title := range []string{"a", "b", "c", "d"} {
		page = append(page, stubOn(today, title))
	}
	c := &scriptedCrawler{pages: map[int][]ArticleStub{1: page, 2: page}}

	got, stats, err := CrawlPages(context.Background(), c, Options{Pages: 2, MaxArticles: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Fatalf("expected exactly 5 stubs, got %d", len(got))
	}
	if !stats.StoppedEarly {
		t.Error("reaching the cap should stop the crawl")
	}
}

func TestCrawlPagesDropsUndatedStubs(t *testing.T) {
	today := timeutil.TodayStart()
	c := &scriptedCrawler{pages: map[int][]ArticleStub{
		1: {
			{Title: "undated", DetailURL: "https://example.test/u"},
			stubOn(today, "dated"),
		},
	}}

	got, stats, err := CrawlPages(context.Background(), c, Options{Pages: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "dated" {
		t.Fatalf("expected only the dated stub, got %+v", got)
	}
	if stats.Filtered != 1 {
		t.Errorf("expected 1 filtered stub, got %d", stats.Filtered)
	}
}

func TestCrawlPagesWeekWindowAcrossPages(t *testing.T) {
	today := timeutil.TodayStart()
	c := &scriptedCrawler{pages: map[int][]ArticleStub{
		1: {stubOn(today, "d0"), stubOn(today.AddDate(0, 0, -2), "d2")},
		2: {stubOn(today.AddDate(0, 0, -5), "d5"), stubOn(today.AddDate(0, 0, -12), "d12")},
		3: {stubOn(today.AddDate(0, 0, -20), "d20")},
	}}

	window, err := BuildWindow(7, "", "")
	if err != nil {
		t.Fatal(err)
	}
	got, _, err := CrawlPages(context.Background(), c, Options{Pages: 3, Window: window})
	if err != nil {
		t.Fatal(err)
	}
	titles := make([]string, 0, len(got))
	for _, s := range got {
		titles = append(titles, s.Title)
	}
	want := []string{"d0", "d2", "d5"}
	if len(titles) != len(want) {
		t.Fatalf("expected %v, got %v", want, titles)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, titles)
		}
	}
}
