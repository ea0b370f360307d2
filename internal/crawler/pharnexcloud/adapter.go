// Package pharnexcloud implements the source adapter for the PharnexCloud
// pharma news portal (www.pharnexcloud.com).
package pharnexcloud

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/timmy/pharmanews/internal/crawler"
	"github.com/timmy/pharmanews/internal/textutil"
	"github.com/timmy/pharmanews/internal/timeutil"
)

const (
	sourceKey   = "pharnexcloud"
	displayName = "药融云"
	baseURL     = "https://www.pharnexcloud.com"

	defaultCategory = "前沿研究"
)

// List pages print dates as 2024.01.15, 2024-01-15 or 2024年01月15日.
var dateRe = regexp.MustCompile(`(\d{4})[.\-年](\d{1,2})[.\-月](\d{1,2})`)

// detailSelectors locate the article body on a detail page, in priority order.
var detailSelectors = []string{"div.article-content", "div.content", "article"}

// Adapter crawls the PharnexCloud news listing.
type Adapter struct {
	fetcher crawler.PageFetcher
	base    string
}

// New creates a PharnexCloud adapter over the given fetcher.
func New(fetcher crawler.PageFetcher) *Adapter {
	return &Adapter{fetcher: fetcher, base: baseURL}
}

func (a *Adapter) Name() string            { return sourceKey }
func (a *Adapter) DisplayName() string     { return displayName }
func (a *Adapter) BaseURL() string         { return a.base }
func (a *Adapter) SupportsSecondary() bool { return true }

// FetchListPage fetches one listing page and parses its article stubs.
func (a *Adapter) FetchListPage(ctx context.Context, page int) ([]crawler.ArticleStub, error) {
	url := fmt.Sprintf("%s/zixun/list?page=%d", a.base, page)
	html, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return a.parseList(html)
}

func (a *Adapter) parseList(html string) ([]crawler.ArticleStub, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse list page: %w", err)
	}

	var stubs []crawler.ArticleStub
	doc.Find("li.report-item").Each(func(_ int, item *goquery.Selection) {
		link := item.Find("div.title a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return
		}

		stub := crawler.ArticleStub{
			Title:     title,
			DetailURL: a.absoluteURL(href),
			Summary:   strings.TrimSpace(item.Find("div.desc").First().Text()),
			Category:  defaultCategory,
			Author:    displayName,
		}

		item.Find("div.info-item").Each(func(_ int, info *goquery.Selection) {
			text := strings.TrimSpace(info.Text())
			if text == "" {
				return
			}
			if published := parseDate(text); published != nil {
				stub.PublishedAt = published
				return
			}
			// Non-date info items carry the author byline.
			stub.Author = text
		})

		stubs = append(stubs, stub)
	})

	return stubs, nil
}

// FetchDetail resolves a stub's detail page: raw document, main content, and
// the linked public-account post if present.
func (a *Adapter) FetchDetail(ctx context.Context, stub crawler.ArticleStub) (*crawler.Detail, error) {
	html, err := a.fetcher.Fetch(ctx, stub.DetailURL)
	if err != nil {
		return nil, err
	}

	contentHTML, contentText := textutil.ExtractMainContent(html, detailSelectors)

	detail := &crawler.Detail{
		RawHTML:     html,
		ContentHTML: contentHTML,
		ContentText: contentText,
	}

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		if href, ok := doc.Find(`a[href*="mp.weixin.qq.com"]`).First().Attr("href"); ok {
			detail.SecondaryURL = strings.TrimSpace(href)
		}
	}

	return detail, nil
}

func (a *Adapter) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return a.base + href
}

// parseDate extracts a publication date from list-page text, or nil when the
// text carries no recognizable date.
func parseDate(text string) *time.Time {
	m := dateRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}
	t := timeutil.Date(year, time.Month(month), day)
	return &t
}
