package pharnexcloud

import (
	"context"
	"strings"
	"testing"

	"github.com/timmy/pharmanews/internal/crawler"
	"github.com/timmy/pharmanews/internal/timeutil"
)

// fakeFetcher serves canned HTML per URL.
type fakeFetcher struct {
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	return f.pages[url], nil
}

const listFixture = `<html><body><ul>
<li class="report-item">
  <div class="title"><a href="/zixun/detail/101">新药获批上市</a></div>
  <div class="desc">某创新药获得批准。</div>
  <div class="info-item">医药观察</div>
  <div class="info-item">2024.03.15</div>
</li>
<li class="report-item">
  <div class="title"><a href="https://www.pharnexcloud.com/zixun/detail/102">临床试验进展</a></div>
  <div class="info-item">2024年03月14日</div>
</li>
<li class="report-item">
  <div class="title"><a href="/zixun/detail/103">无日期的条目</a></div>
</li>
</ul></body></html>`

func TestParseList(t *testing.T) {
	a := New(&fakeFetcher{})
	stubs, err := a.parseList(listFixture)
	if err != nil {
		t.Fatal(err)
	}
	if len(stubs) != 3 {
		t.Fatalf("expected 3 stubs, got %d", len(stubs))
	}

	first := stubs[0]
	if first.Title != "新药获批上市" {
		t.Errorf("title = %q", first.Title)
	}
	if first.DetailURL != "https://www.pharnexcloud.com/zixun/detail/101" {
		t.Errorf("relative href not absolutized: %q", first.DetailURL)
	}
	if first.Summary != "某创新药获得批准。" {
		t.Errorf("summary = %q", first.Summary)
	}
	if first.Author != "医药观察" {
		t.Errorf("author = %q", first.Author)
	}
	if first.Category != defaultCategory {
		t.Errorf("category = %q", first.Category)
	}
	want := timeutil.Date(2024, 3, 15)
	if first.PublishedAt == nil || !first.PublishedAt.Equal(want) {
		t.Errorf("published_at = %v, want %v", first.PublishedAt, want)
	}

	second := stubs[1]
	if second.DetailURL != "https://www.pharnexcloud.com/zixun/detail/102" {
		t.Errorf("absolute href mangled: %q", second.DetailURL)
	}
	if second.PublishedAt == nil || !second.PublishedAt.Equal(timeutil.Date(2024, 3, 14)) {
		t.Errorf("CJK date not parsed: %v", second.PublishedAt)
	}
	if second.Author != displayName {
		t.Errorf("author should default to the source name, got %q", second.Author)
	}

	if stubs[2].PublishedAt != nil {
		t.Errorf("stub without date info should have nil published_at")
	}
}

func TestParseListSkipsItemsWithoutLink(t *testing.T) {
	a := New(&fakeFetcher{})
	stubs, err := a.parseList(`<li class="report-item"><div class="title"><a href="">x</a></div></li>`)
	if err != nil {
		t.Fatal(err)
	}
	if len(stubs) != 0 {
		t.Fatalf("expected no stubs, got %d", len(stubs))
	}
}

func TestFetchListPageURL(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{}}
	a := New(f)
	if _, err := a.FetchListPage(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	if len(f.calls) != 1 || f.calls[0] != "https://www.pharnexcloud.com/zixun/list?page=3" {
		t.Errorf("unexpected list url: %v", f.calls)
	}
}

func TestFetchDetail(t *testing.T) {
	detailHTML := `<html><body>
<div class="article-content"><p>详细内容第一段。</p><p>第二段。</p></div>
<a href="https://mp.weixin.qq.com/s/abc123">阅读原文</a>
</body></html>`

	url := "https://www.pharnexcloud.com/zixun/detail/101"
	a := New(&fakeFetcher{pages: map[string]string{url: detailHTML}})

	detail, err := a.FetchDetail(context.Background(), mustStub(url))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(detail.ContentText, "详细内容第一段。") {
		t.Errorf("content text missing body: %q", detail.ContentText)
	}
	if !strings.Contains(detail.ContentHTML, "article-content") {
		t.Errorf("content html should be the matched fragment: %q", detail.ContentHTML)
	}
	if detail.SecondaryURL != "https://mp.weixin.qq.com/s/abc123" {
		t.Errorf("secondary url = %q", detail.SecondaryURL)
	}
}

func TestFetchDetailWithoutSecondaryLink(t *testing.T) {
	url := "https://www.pharnexcloud.com/zixun/detail/102"
	a := New(&fakeFetcher{pages: map[string]string{
		url: `<div class="content"><p>正文</p></div>`,
	}})

	detail, err := a.FetchDetail(context.Background(), mustStub(url))
	if err != nil {
		t.Fatal(err)
	}
	if detail.SecondaryURL != "" {
		t.Errorf("expected no secondary url, got %q", detail.SecondaryURL)
	}
}

func mustStub(url string) crawler.ArticleStub {
	return crawler.ArticleStub{Title: "t", DetailURL: url}
}
