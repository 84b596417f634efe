// Package feed renders the archive into an RSS 2.0 document and writes it to disk.
package feed

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"itoi-daily/internal/domain/entity"
	"itoi-daily/internal/utils/text"
)

// ErrInvalidFeed indicates that a rendered document did not parse back as the expected feed.
var ErrInvalidFeed = errors.New("rendered feed is invalid")

const (
	// DefaultLimit is the number of entries rendered when no limit is configured.
	DefaultLimit = 30

	descriptionMaxRunes = 280
	defaultImageType    = "image/jpeg"
)

// Meta is the channel-level information of the feed.
type Meta struct {
	Title       string
	Link        string
	Description string
	Language    string
	Author      string
	Copyright   string
}

// Renderer converts archive entries into RSS 2.0.
type Renderer struct {
	meta Meta
	md   goldmark.Markdown
}

// NewRenderer creates a Renderer for the given channel metadata.
func NewRenderer(meta Meta) *Renderer {
	return &Renderer{
		meta: meta,
		md: goldmark.New(
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				html.WithXHTML(),
			),
		),
	}
}

// Render emits the first limit entries as an RSS 2.0 document.
// Output depends only on the entries and now, which becomes the lastBuildDate.
func (r *Renderer) Render(entries []entity.Entry, limit int, now time.Time) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}

	f := &feeds.Feed{
		Title:       r.meta.Title,
		Link:        &feeds.Link{Href: r.meta.Link},
		Description: r.meta.Description,
		Copyright:   r.meta.Copyright,
		Updated:     now.UTC(),
		Items:       make([]*feeds.Item, 0, len(entries)),
	}
	if len(entries) > 0 {
		f.Created = entries[0].PublishedAt.UTC()
	}

	for _, e := range entries {
		item, err := r.item(e)
		if err != nil {
			return nil, fmt.Errorf("render entry %s: %w", e.Fingerprint, err)
		}
		f.Items = append(f.Items, item)
	}

	channel := (&feeds.Rss{Feed: f}).RssFeed()
	channel.Language = r.meta.Language
	if r.meta.Author != "" {
		channel.ManagingEditor = r.meta.Author
	}
	channel.Generator = "itoi-daily"

	doc, err := feeds.ToXML(channel)
	if err != nil {
		return nil, fmt.Errorf("encode rss: %w", err)
	}
	return []byte(doc), nil
}

func (r *Renderer) item(e entity.Entry) (*feeds.Item, error) {
	content, err := r.bodyHTML(e.Body)
	if err != nil {
		return nil, err
	}

	item := &feeds.Item{
		Id:          r.GUID(e.Fingerprint),
		Title:       e.Title,
		Link:        &feeds.Link{Href: e.SourceURL},
		Description: description(e),
		Content:     content,
		Created:     e.PublishedAt.UTC(),
	}
	if e.Author != "" {
		item.Author = &feeds.Author{Name: e.Author}
	}
	if e.ImageURL != "" {
		item.Enclosure = &feeds.Enclosure{
			Url:    e.ImageURL,
			Type:   imageType(e.ImageURL),
			Length: "0",
		}
	}
	return item, nil
}

// GUID returns the stable item identifier for a fingerprint.
func (r *Renderer) GUID(fingerprint string) string {
	return strings.TrimRight(r.meta.Link, "#") + "#" + fingerprint
}

func (r *Renderer) bodyHTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("convert body: %w", err)
	}
	return buf.String(), nil
}

// description is a plain-text teaser built from the first paragraph.
func description(e entity.Entry) string {
	paragraphs := e.Paragraphs()
	if len(paragraphs) == 0 {
		return ""
	}
	return text.Truncate(strings.Join(strings.Fields(paragraphs[0]), " "), descriptionMaxRunes)
}

func imageType(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return defaultImageType
	}
	if t := mime.TypeByExtension(strings.ToLower(path.Ext(u.Path))); strings.HasPrefix(t, "image/") {
		return t
	}
	return defaultImageType
}
