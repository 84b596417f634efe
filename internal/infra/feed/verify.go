package feed

import (
	"bytes"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// Verify parses doc back as RSS and checks that it carries exactly wantItems items
// with non-empty GUIDs, newest first.
func Verify(doc []byte, wantItems int) error {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(doc))
	if err != nil {
		return fmt.Errorf("%w: parse: %v", ErrInvalidFeed, err)
	}
	if parsed.FeedType != "rss" {
		return fmt.Errorf("%w: feed type %q", ErrInvalidFeed, parsed.FeedType)
	}
	if len(parsed.Items) != wantItems {
		return fmt.Errorf("%w: got %d items, want %d", ErrInvalidFeed, len(parsed.Items), wantItems)
	}

	for i, it := range parsed.Items {
		if it.GUID == "" {
			return fmt.Errorf("%w: item %d has no guid", ErrInvalidFeed, i)
		}
		if i == 0 || it.PublishedParsed == nil || parsed.Items[i-1].PublishedParsed == nil {
			continue
		}
		if it.PublishedParsed.After(*parsed.Items[i-1].PublishedParsed) {
			return fmt.Errorf("%w: item %d is newer than item %d", ErrInvalidFeed, i, i-1)
		}
	}
	return nil
}
