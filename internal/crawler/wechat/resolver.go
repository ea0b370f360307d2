// Package wechat resolves WeChat public-account posts (mp.weixin.qq.com) that
// portal articles link to as their fuller original publication.
package wechat

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/timmy/pharmanews/internal/crawler"
	"github.com/timmy/pharmanews/internal/logger"
	"github.com/timmy/pharmanews/internal/textutil"
	"github.com/timmy/pharmanews/internal/timeutil"
)

const postURLPrefix = "https://mp.weixin.qq.com/s"

// ErrInvalidURL is returned for links that are not WeChat post URLs.
var ErrInvalidURL = errors.New("wechat: not a public-account post url")

var publishTimeRe = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})(?:\s+(\d{2}):(\d{2}))?`)

// Post is the parsed content of a public-account post.
type Post struct {
	Title       string
	Author      string
	Summary     string
	PublishedAt *time.Time
	ContentHTML string
	ContentText string
	Tags        []string
}

// Resolver fetches and parses public-account posts, retrying on failure. The
// host rate-limits aggressively, so retries back off linearly with jitter and
// resolved posts can be cached on disk.
type Resolver struct {
	fetcher crawler.PageFetcher
	cache   *Cache

	// Retries is the number of extra attempts after the first failure.
	Retries int
	// RetryDelay is the backoff unit; attempt n waits n*RetryDelay plus jitter.
	RetryDelay time.Duration
}

// NewResolver creates a resolver. cache may be nil to disable caching.
func NewResolver(fetcher crawler.PageFetcher, cache *Cache) *Resolver {
	return &Resolver{
		fetcher:    fetcher,
		cache:      cache,
		Retries:    2,
		RetryDelay: 5 * time.Second,
	}
}

// Resolve fetches and parses the post at url, consulting the cache first.
func (r *Resolver) Resolve(ctx context.Context, url string) (*Post, error) {
	if !strings.HasPrefix(url, postURLPrefix) {
		return nil, ErrInvalidURL
	}

	if r.cache != nil {
		if post, ok := r.cache.Get(url); ok {
			return post, nil
		}
	}

	html, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	post, err := ParsePost(html)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Put(url, post); err != nil {
			logger.FromContext(ctx).WithError(err).Warn("wechat cache write failed")
		}
	}
	return post, nil
}

// ResolveWithRetry resolves url, retrying transient failures with linear
// backoff. ErrInvalidURL fails immediately.
func (r *Resolver) ResolveWithRetry(ctx context.Context, url string) (*Post, error) {
	var lastErr error
	for attempt := 0; attempt <= r.Retries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * r.RetryDelay
			// Jitter of up to half the unit keeps retries from syncing up.
			delay += time.Duration(rand.Int63n(int64(r.RetryDelay)/2 + 1))
			logger.FromContext(ctx).WithFields(logger.Fields{
				"attempt":  attempt,
				"delay_ms": delay.Milliseconds(),
			}).Warn("retrying public-account post resolution")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		post, err := r.Resolve(ctx, url)
		if err == nil {
			return post, nil
		}
		if errors.Is(err, ErrInvalidURL) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("wechat: resolution failed after %d attempts: %w", r.Retries+1, lastErr)
}

// ParsePost extracts post fields from a WeChat article document.
func ParsePost(html string) (*Post, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("wechat: failed to parse post: %w", err)
	}

	post := &Post{
		Title:  firstText(doc, "#activity-name", "h1"),
		Author: firstText(doc, "#js_name"),
	}
	if post.Title == "" {
		post.Title, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
		post.Title = strings.TrimSpace(post.Title)
	}
	if post.Author == "" {
		post.Author, _ = doc.Find(`meta[name="author"]`).Attr("content")
		post.Author = strings.TrimSpace(post.Author)
	}

	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		post.Summary = strings.TrimSpace(desc)
	}
	if keywords, ok := doc.Find(`meta[name="keywords"]`).Attr("content"); ok {
		for _, kw := range strings.Split(keywords, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				post.Tags = append(post.Tags, kw)
			}
		}
	}

	post.PublishedAt = parsePublishTime(firstText(doc, "#publish_time", "em#publish_time"))

	body := doc.Find("#js_content").First()
	if body.Length() > 0 {
		// Images are lazy-loaded; promote data-src so saved HTML renders.
		body.Find("img[data-src]").Each(func(_ int, img *goquery.Selection) {
			if src, ok := img.Attr("data-src"); ok {
				img.SetAttr("src", src)
			}
		})
		if fragment, err := goquery.OuterHtml(body); err == nil {
			post.ContentHTML = fragment
			post.ContentText = textutil.CleanHTML(fragment)
		}
	}

	if post.Title == "" && post.ContentText == "" {
		return nil, errors.New("wechat: post has no title or content")
	}
	return post, nil
}

func firstText(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// parsePublishTime handles both "2024-01-15" and "2024-01-15 08:30" forms.
func parsePublishTime(text string) *time.Time {
	m := publishTimeRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, timeutil.Reporting)
	return &t
}
