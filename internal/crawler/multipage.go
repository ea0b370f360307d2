package crawler

import (
	"context"

	"github.com/timmy/pharmanews/internal/logger"
)

// emptyStreakLimit stops a multi-page crawl after this many consecutive pages
// contribute nothing, on the assumption that older pages will not either.
const emptyStreakLimit = 3

// Options controls one multi-page crawl.
type Options struct {
	// Pages is the number of list pages to walk, starting at page 1.
	Pages int
	// MaxArticles caps the number of stubs returned; 0 means no cap.
	MaxArticles int
	// Window filters stubs by publication date; nil passes every dated stub.
	Window *DateWindow
}

// Stats summarizes what a multi-page crawl did.
type Stats struct {
	PagesFetched int  `json:"pages_fetched"`
	Discovered   int  `json:"discovered"`
	Filtered     int  `json:"filtered"`
	StoppedEarly bool `json:"stopped_early"`
}

// CrawlPages walks list pages in order and collects date-filtered stubs.
//
// A page that fails to fetch is treated as contributing nothing rather than
// aborting the run. Stubs without a publication date are dropped. Three
// consecutive contributing-nothing pages end the walk early, as does reaching
// MaxArticles.
func CrawlPages(ctx context.Context, c Crawler, opts Options) ([]ArticleStub, Stats, error) {
	log := logger.FromContext(ctx)

	pages := opts.Pages
	if pages < 1 {
		pages = 1
	}

	var (
		collected   []ArticleStub
		stats       Stats
		emptyStreak int
	)

	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return collected, stats, err
		}

		stubs, err := c.FetchListPage(ctx, page)
		stats.PagesFetched++
		if err != nil {
			log.WithField(logger.FieldPage, page).WithError(err).
				Warn("list page fetch failed, continuing")
			stubs = nil
		}

		kept := 0
		for _, stub := range stubs {
			stats.Discovered++
			if stub.PublishedAt == nil {
				stats.Filtered++
				continue
			}
			if opts.Window != nil && !opts.Window.Contains(*stub.PublishedAt) {
				stats.Filtered++
				continue
			}
			collected = append(collected, stub)
			kept++
			if opts.MaxArticles > 0 && len(collected) >= opts.MaxArticles {
				log.WithFields(logger.Fields{
					logger.FieldPage:  page,
					logger.FieldCount: len(collected),
				}).Info("reached max articles, stopping crawl")
				stats.StoppedEarly = true
				return collected, stats, nil
			}
		}

		if kept == 0 {
			emptyStreak++
			if emptyStreak >= emptyStreakLimit {
				log.WithField(logger.FieldPage, page).
					Info("no matching articles on consecutive pages, stopping crawl")
				stats.StoppedEarly = true
				break
			}
		} else {
			emptyStreak = 0
		}
	}

	return collected, stats, nil
}
