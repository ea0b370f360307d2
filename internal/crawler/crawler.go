package crawler

import (
	"context"
	"time"
)

// ArticleStub is one list-page entry: enough metadata to decide whether the
// article is worth a detail fetch.
type ArticleStub struct {
	Title       string
	DetailURL   string
	PublishedAt *time.Time
	Author      string
	Category    string
	Summary     string
	Tags        []string
}

// Detail is the result of resolving a stub's detail page.
type Detail struct {
	// RawHTML is the full detail page document as fetched.
	RawHTML string
	// ContentHTML is the extracted main-content fragment.
	ContentHTML string
	// ContentText is the cleaned plain text of the main content.
	ContentText string
	// SecondaryURL is the linked public-account post, if the page carries one.
	SecondaryURL string
}

// Crawler is a source adapter: it knows one upstream site's list and detail
// page layout. Adapters register themselves via Register.
type Crawler interface {
	// Name is the stable registry key, e.g. "pharnexcloud".
	Name() string

	// DisplayName is the human-readable source name.
	DisplayName() string

	// BaseURL is the upstream site root.
	BaseURL() string

	// SupportsSecondary reports whether this source links out to a secondary
	// platform whose posts can replace thin portal content.
	SupportsSecondary() bool

	// FetchListPage fetches one list page (1-based) and parses its stubs.
	FetchListPage(ctx context.Context, page int) ([]ArticleStub, error)

	// FetchDetail resolves a stub's detail page.
	FetchDetail(ctx context.Context, stub ArticleStub) (*Detail, error)
}
