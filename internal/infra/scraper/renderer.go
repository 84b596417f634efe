// Package scraper fetches the daily essay page and extracts the essay from it.
//
// Page fetching is split from extraction: a PageRenderer returns the page HTML,
// either through a headless browser (ChromeRenderer) or a plain HTTP GET
// (HTTPRenderer), and the Extractor turns HTML into an entity.RawEssay.
package scraper

import "context"

// PageRenderer returns the HTML of the page at url.
type PageRenderer interface {
	Name() string
	Render(ctx context.Context, url string) (string, error)
}
