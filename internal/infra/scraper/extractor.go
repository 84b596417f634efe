package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"itoi-daily/internal/domain/entity"
	"itoi-daily/internal/utils/text"
)

// Extraction strategies, in the order they are tried.
const (
	StrategyAuthorBlock = "author_block"
	StrategyMainKana    = "main_kana"
	StrategyReadability = "readability"
)

var errNoEssay = errors.New("no essay content found")

// ExtractorConfig configures how the essay is located on the page.
type ExtractorConfig struct {
	// AuthorName is searched for to locate the essay block.
	AuthorName string
	// MinBlockRunes is the minimum text length of a block holding the author name.
	MinBlockRunes int
	// MinBodyRunes is the minimum length of the cleaned essay body.
	MinBodyRunes int
	// MaxParagraphs caps paragraphs taken from the main content area.
	MaxParagraphs int
	// FooterMarkers drop any body line that contains one of them.
	FooterMarkers []string
	// TitlePrefix is used to build the default title when the page has none.
	TitlePrefix string
	// Location is the site timezone used for the default title date.
	Location *time.Location
}

// DefaultExtractorConfig returns settings for the 1101.com top page.
func DefaultExtractorConfig() ExtractorConfig {
	jst, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		jst = time.FixedZone("JST", 9*60*60)
	}
	return ExtractorConfig{
		AuthorName:    "糸井重里",
		MinBlockRunes: 500,
		MinBodyRunes:  200,
		MaxParagraphs: 20,
		FooterMarkers: []string{"ほぼ日の更新時間"},
		TitlePrefix:   "今日のダーリン",
		Location:      jst,
	}
}

// Extraction is the result of Extract.
type Extraction struct {
	Essay    entity.RawEssay
	Strategy string
}

// Extractor turns essay page HTML into a RawEssay.
type Extractor struct {
	cfg ExtractorConfig
	now func() time.Time
}

// NewExtractor creates an Extractor. now is used for the default title; nil means time.Now.
func NewExtractor(cfg ExtractorConfig, now func() time.Time) *Extractor {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Extractor{cfg: cfg, now: now}
}

// Extract finds the essay in html. pageURL is the address the HTML came from.
func (x *Extractor) Extract(html, pageURL string) (Extraction, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return Extraction{}, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Extraction{}, fmt.Errorf("parse HTML: %w", err)
	}

	candidates := []struct {
		strategy string
		extract  func() ([]string, string)
	}{
		{StrategyAuthorBlock, func() ([]string, string) { return x.fromAuthorBlock(doc) }},
		{StrategyMainKana, func() ([]string, string) { return x.fromMain(doc), "" }},
		{StrategyReadability, func() ([]string, string) { return x.fromReadability(html, base) }},
	}

	var (
		body, title, strategy string
		lastErr               = errNoEssay
	)
	for _, c := range candidates {
		paragraphs, heading := c.extract()
		if len(paragraphs) == 0 {
			continue
		}
		cleaned := x.clean(paragraphs)
		if n := text.CountRunes(cleaned); n < x.cfg.MinBodyRunes {
			lastErr = fmt.Errorf("%w: %s body has %d characters, need %d", errNoEssay, c.strategy, n, x.cfg.MinBodyRunes)
			continue
		}
		body, title, strategy = cleaned, heading, c.strategy
		break
	}
	if strategy == "" {
		return Extraction{}, lastErr
	}

	if title == "" {
		title = x.defaultTitle()
	}

	return Extraction{
		Essay: entity.RawEssay{
			Title:     title,
			Author:    x.cfg.AuthorName,
			Body:      body,
			SourceURL: canonicalURL(doc, base),
			ImageURL:  ogImage(doc, base),
		},
		Strategy: strategy,
	}, nil
}

// fromAuthorBlock picks the smallest div/section/article that mentions the author
// and has enough text, and returns its paragraphs and first heading.
func (x *Extractor) fromAuthorBlock(doc *goquery.Document) ([]string, string) {
	var (
		best      *goquery.Selection
		bestRunes int
	)
	doc.Find("div, section, article").Each(func(_ int, s *goquery.Selection) {
		content := s.Text()
		if !strings.Contains(content, x.cfg.AuthorName) {
			return
		}
		n := text.CountRunes(content)
		if n <= x.cfg.MinBlockRunes {
			return
		}
		if len(paragraphTexts(s.Find("p"))) == 0 {
			return
		}
		if best == nil || n < bestRunes {
			best, bestRunes = s, n
		}
	})
	if best == nil {
		return nil, ""
	}

	title := strings.TrimSpace(best.Find("h1, h2, h3").First().Text())
	return paragraphTexts(best.Find("p")), title
}

// fromMain collects kana-bearing paragraphs of the main content area.
func (x *Extractor) fromMain(doc *goquery.Document) []string {
	var area *goquery.Selection
	for _, sel := range []string{"main", "div#main", "div.main"} {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			area = s
			break
		}
	}
	if area == nil {
		return nil
	}

	var out []string
	for _, p := range paragraphTexts(area.Find("p")) {
		if !text.ContainsKana(p) {
			continue
		}
		out = append(out, p)
		if x.cfg.MaxParagraphs > 0 && len(out) == x.cfg.MaxParagraphs {
			break
		}
	}
	return out
}

// fromReadability falls back to the readability article text, one paragraph per line.
func (x *Extractor) fromReadability(html string, base *url.URL) ([]string, string) {
	article, err := readability.FromReader(strings.NewReader(html), base)
	if err != nil {
		return nil, ""
	}
	var out []string
	for _, line := range strings.Split(article.TextContent, "\n") {
		if line = strings.TrimSpace(line); line != "" && text.ContainsKana(line) {
			out = append(out, line)
		}
	}
	return out, strings.TrimSpace(article.Title)
}

// clean drops footer lines and repeated lines (first occurrence wins) and joins the
// paragraphs with blank lines.
func (x *Extractor) clean(paragraphs []string) string {
	seen := make(map[string]struct{})
	kept := make([]string, 0, len(paragraphs))

	for _, p := range paragraphs {
		var lines []string
		for _, line := range strings.Split(p, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || x.isFooter(line) {
				continue
			}
			if _, dup := seen[line]; dup {
				continue
			}
			seen[line] = struct{}{}
			lines = append(lines, line)
		}
		if len(lines) > 0 {
			kept = append(kept, strings.Join(lines, "\n"))
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n\n"))
}

func (x *Extractor) isFooter(line string) bool {
	for _, marker := range x.cfg.FooterMarkers {
		if marker != "" && strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

func (x *Extractor) defaultTitle() string {
	date := x.now().In(x.cfg.Location).Format("2006年01月02日")
	return x.cfg.TitlePrefix + " - " + date
}

func paragraphTexts(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, p *goquery.Selection) {
		if t := strings.TrimSpace(p.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

func canonicalURL(doc *goquery.Document, base *url.URL) string {
	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		if abs := resolve(base, href); abs != "" {
			return abs
		}
	}
	return base.String()
}

func ogImage(doc *goquery.Document, base *url.URL) string {
	content, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content")
	if !ok {
		return ""
	}
	return resolve(base, content)
}

// resolve makes ref absolute against base and returns "" unless the result is a
// valid http(s) URL.
func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ""
	}
	abs := u.String()
	if entity.ValidateURL(abs) != nil {
		return ""
	}
	return abs
}
