package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"itoi-daily/internal/domain/entity"
	"itoi-daily/internal/observability/logging"
	"itoi-daily/internal/observability/metrics"
	"itoi-daily/internal/resilience/circuitbreaker"
	"itoi-daily/internal/resilience/retry"
)

type stage struct {
	renderer PageRenderer
	breaker  *circuitbreaker.CircuitBreaker
}

// EssayScraper fetches the essay page and extracts today's essay.
// Renderers are tried in order; the first one whose HTML yields an essay wins.
type EssayScraper struct {
	url         string
	stages      []stage
	extractor   *Extractor
	retryConfig retry.Config
}

// NewEssayScraper creates an EssayScraper for pageURL using the given renderers in order.
func NewEssayScraper(pageURL string, extractor *Extractor, renderers ...PageRenderer) *EssayScraper {
	stages := make([]stage, 0, len(renderers))
	for _, r := range renderers {
		cfg := circuitbreaker.PageFetchConfig()
		cfg.Name = "page-fetch-" + r.Name()
		stages = append(stages, stage{renderer: r, breaker: circuitbreaker.New(cfg)})
	}
	return &EssayScraper{
		url:         pageURL,
		stages:      stages,
		extractor:   extractor,
		retryConfig: retry.PageFetchConfig(),
	}
}

// WithRetryConfig overrides the per-renderer retry policy.
func (s *EssayScraper) WithRetryConfig(cfg retry.Config) *EssayScraper {
	s.retryConfig = cfg
	return s
}

// Scrape returns today's essay or an error wrapping entity.ErrFetchFailed.
func (s *EssayScraper) Scrape(ctx context.Context) (entity.RawEssay, error) {
	logger := logging.FromContext(ctx)
	if len(s.stages) == 0 {
		return entity.RawEssay{}, fmt.Errorf("%w: no page renderer configured", entity.ErrFetchFailed)
	}

	var errs []error
	for _, st := range s.stages {
		name := st.renderer.Name()
		start := time.Now()
		ext, err := s.scrapeWith(ctx, st)
		metrics.RecordScrape(name, time.Since(start), err == nil)

		if err == nil {
			metrics.RecordExtractionStrategy(ext.Strategy)
			logger.Info("essay extracted",
				slog.String("renderer", name),
				slog.String("strategy", ext.Strategy),
				slog.String("title", ext.Essay.Title),
				slog.Int("body_bytes", len(ext.Essay.Body)))
			return ext.Essay, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", name, err))
		if ctx.Err() != nil {
			break
		}
		logger.Warn("essay scrape failed, trying next renderer",
			slog.String("renderer", name),
			slog.String("error", logging.SanitizeError(err)))
	}

	return entity.RawEssay{}, fmt.Errorf("%w: %w", entity.ErrFetchFailed, errors.Join(errs...))
}

func (s *EssayScraper) scrapeWith(ctx context.Context, st stage) (Extraction, error) {
	var html string
	err := retry.WithBackoff(ctx, s.retryConfig, func() error {
		var err error
		html, err = circuitbreaker.Do(st.breaker, func() (string, error) {
			return st.renderer.Render(ctx, s.url)
		})
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return Extraction{}, err
	}
	return s.extractor.Extract(html, s.url)
}
