// Package publish runs the daily pipeline: scrape today's essay, skip it when its
// fingerprint is already archived, otherwise translate it, prepend it to the
// archive, and rewrite the RSS feed.
package publish

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"itoi-daily/internal/domain/entity"
	"itoi-daily/internal/infra/feed"
	"itoi-daily/internal/observability/logging"
	"itoi-daily/internal/observability/metrics"
	"itoi-daily/internal/observability/slo"
	"itoi-daily/internal/observability/tracing"
	"itoi-daily/internal/repository"
	"itoi-daily/internal/utils/text"
)

// Status is the outcome of a successful run.
type Status string

const (
	// StatusPublished means a new entry was archived and the feed rewritten.
	StatusPublished Status = "published"
	// StatusDuplicate means today's essay was already archived; nothing changed.
	StatusDuplicate Status = "duplicate"
	// StatusRepaired means the essay was a duplicate but the missing feed file was
	// regenerated from the archive.
	StatusRepaired Status = "repaired"
	// StatusDryRun means a new entry was built but nothing was persisted.
	StatusDryRun Status = "dry_run"
	// StatusRendered means the feed was regenerated from the archive on request.
	StatusRendered Status = "rendered"
)

// Scraper fetches today's essay.
type Scraper interface {
	Scrape(ctx context.Context) (entity.RawEssay, error)
}

// Translator translates an essay.
type Translator interface {
	Translate(ctx context.Context, essay entity.RawEssay) (entity.Translation, error)
}

// FeedRenderer renders archive entries as a feed document.
type FeedRenderer interface {
	Render(entries []entity.Entry, limit int, now time.Time) ([]byte, error)
}

// FeedWriter persists the feed document.
type FeedWriter interface {
	Write(ctx context.Context, doc []byte) error
	Exists() bool
}

// Notifier announces a published entry.
type Notifier interface {
	NotifyEntry(ctx context.Context, entry entity.Entry) error
}

// Config controls a Service.
type Config struct {
	// FeedLimit is the number of newest entries rendered into the feed.
	FeedLimit int

	// DryRun builds the entry and feed without persisting or notifying.
	DryRun bool

	// Now returns the publication time. Defaults to time.Now.
	Now func() time.Time
}

// Result describes a completed run.
type Result struct {
	Status      Status
	Fingerprint string
	Entry       *entity.Entry
	ArchiveSize int
	// LatestPublishedAt is the publication time of the newest archived entry.
	LatestPublishedAt time.Time
	FeedItems         int
	Quarantined       int
	Duration          time.Duration
}

// Service orchestrates one publish run. It holds no state between runs.
type Service struct {
	scraper    Scraper
	translator Translator
	archive    repository.ArchiveRepository
	renderer   FeedRenderer
	writer     FeedWriter
	notifier   Notifier
	cfg        Config
	tracer     trace.Tracer
}

// NewService creates a publish Service.
// A nil notifier disables notifications.
func NewService(
	scraper Scraper,
	translator Translator,
	archive repository.ArchiveRepository,
	renderer FeedRenderer,
	writer FeedWriter,
	notifier Notifier,
	cfg Config,
) *Service {
	if cfg.FeedLimit <= 0 {
		cfg.FeedLimit = feed.DefaultLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		scraper:    scraper,
		translator: translator,
		archive:    archive,
		renderer:   renderer,
		writer:     writer,
		notifier:   notifier,
		cfg:        cfg,
		tracer:     tracing.GetTracer(),
	}
}

// WithTracer overrides the tracer used for pipeline spans.
func (s *Service) WithTracer(tracer trace.Tracer) *Service {
	s.tracer = tracer
	return s
}

// Run executes the pipeline once.
//
// The archive and feed are written only after the essay was fetched, checked
// against the archive, translated, and validated. Any failure before that point
// leaves both files untouched. A duplicate essay is a successful no-op.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	ctx, logger, span := s.begin(ctx, "publish.run")
	start := time.Now()

	res, err := s.run(ctx, logger)
	res.Duration = time.Since(start)

	s.finish(logger, span, res, err)
	return res, err
}

// RenderOnly regenerates the feed from the archive without any network access.
func (s *Service) RenderOnly(ctx context.Context) (*Result, error) {
	ctx, logger, span := s.begin(ctx, "publish.render")
	start := time.Now()

	res := &Result{Status: StatusRendered}
	archive, report, err := s.loadArchive(ctx)
	if err == nil {
		res.Quarantined = report.Quarantined
		res.observe(archive)
		res.FeedItems, err = s.writeFeed(ctx, archive)
	}
	res.Duration = time.Since(start)

	s.finish(logger, span, res, err)
	return res, err
}

func (s *Service) begin(ctx context.Context, name string) (context.Context, *slog.Logger, trace.Span) {
	if logging.RunIDFromContext(ctx) == "" {
		ctx = logging.WithRunID(ctx, logging.NewRunID())
	}
	ctx, span := s.tracer.Start(ctx, name,
		trace.WithAttributes(attribute.String("run_id", logging.RunIDFromContext(ctx))))

	logger := logging.FromContext(ctx)
	if traceID := tracing.TraceID(ctx); traceID != "" {
		logger = logger.With(slog.String("trace_id", traceID))
		ctx = logging.WithLogger(ctx, logger)
	}
	return ctx, logger, span
}

func (s *Service) finish(logger *slog.Logger, span trace.Span, res *Result, err error) {
	if err != nil {
		stage := "unknown"
		var se *StageError
		if errors.As(err, &se) {
			stage = se.Stage
		}
		metrics.RecordRunFailure(stage)
		metrics.RecordRun("failed", res.Duration, false)
		logger.Error("run failed",
			slog.String("stage", stage),
			slog.Duration("duration", res.Duration),
			slog.String("error", logging.SanitizeError(err)))
		tracing.EndSpan(span, err)
		return
	}

	metrics.RecordRun(string(res.Status), res.Duration, true)
	if res.Status != StatusDryRun {
		metrics.UpdateArchiveState(res.ArchiveSize, res.FeedItems)
		if !res.LatestPublishedAt.IsZero() {
			slo.UpdateFreshness(res.LatestPublishedAt, s.cfg.Now())
		}
	}
	span.SetAttributes(
		attribute.String("status", string(res.Status)),
		attribute.String("fingerprint", res.Fingerprint),
	)
	logger.Info("run completed",
		slog.String("status", string(res.Status)),
		slog.String("fingerprint", res.Fingerprint),
		slog.Int("archive_entries", res.ArchiveSize),
		slog.Int("feed_items", res.FeedItems),
		slog.Duration("duration", res.Duration))
	tracing.EndSpan(span, nil)
}

func (r *Result) observe(archive *entity.Archive) {
	r.ArchiveSize = archive.Len()
	if latest, ok := archive.Latest(); ok {
		r.LatestPublishedAt = latest.PublishedAt
	}
}

func (s *Service) run(ctx context.Context, logger *slog.Logger) (*Result, error) {
	res := &Result{}

	raw, err := s.scrape(ctx)
	if err != nil {
		return res, &StageError{Stage: StageScrape, Err: err}
	}
	res.Fingerprint = raw.Fingerprint()
	logger = logger.With(slog.String("fingerprint", res.Fingerprint))

	archive, report, err := s.loadArchive(ctx)
	if err != nil {
		return res, err
	}
	res.Quarantined = report.Quarantined
	res.observe(archive)

	if archive.Contains(res.Fingerprint) {
		return s.duplicate(ctx, logger, archive, res)
	}

	tr, err := s.translate(ctx, raw)
	if err != nil {
		return res, &StageError{Stage: StageTranslate, Err: err}
	}

	entry, err := entity.NewEntry(raw, tr, s.cfg.Now())
	if err != nil {
		return res, &StageError{Stage: StageValidate, Err: err}
	}
	res.Entry = &entry
	archive.Prepend(entry)
	res.observe(archive)

	doc, items, err := s.render(archive)
	if err != nil {
		return res, err
	}
	res.FeedItems = items

	if s.cfg.DryRun {
		res.Status = StatusDryRun
		logger.Info("dry run, archive and feed left untouched",
			slog.String("title", entry.Title),
			slog.Int("feed_bytes", len(doc)))
		return res, nil
	}

	if err := s.saveArchive(ctx, archive); err != nil {
		return res, err
	}
	if err := s.persistFeed(ctx, doc); err != nil {
		return res, err
	}
	res.Status = StatusPublished

	s.notify(ctx, logger, entry)
	return res, nil
}

// duplicate handles an essay that is already archived. The archive is never
// rewritten; only a missing feed file is regenerated.
func (s *Service) duplicate(ctx context.Context, logger *slog.Logger, archive *entity.Archive, res *Result) (*Result, error) {
	res.Status = StatusDuplicate
	res.FeedItems = min(archive.Len(), s.cfg.FeedLimit)

	if s.writer.Exists() || s.cfg.DryRun {
		logger.Info("essay already published, nothing to do")
		return res, nil
	}

	logger.Warn("essay already published but feed file is missing, regenerating")
	items, err := s.writeFeed(ctx, archive)
	if err != nil {
		return res, err
	}
	res.FeedItems = items
	res.Status = StatusRepaired
	return res, nil
}

func (s *Service) scrape(ctx context.Context) (raw entity.RawEssay, err error) {
	ctx, span := s.tracer.Start(ctx, "scrape")
	defer func() { tracing.EndSpan(span, err) }()

	raw, err = s.scraper.Scrape(ctx)
	if err == nil {
		span.SetAttributes(attribute.Int("body_runes", text.CountRunes(raw.Body)))
	}
	return raw, err
}

func (s *Service) translate(ctx context.Context, raw entity.RawEssay) (tr entity.Translation, err error) {
	ctx, span := s.tracer.Start(ctx, "translate")
	defer func() { tracing.EndSpan(span, err) }()

	return s.translator.Translate(ctx, raw)
}

func (s *Service) loadArchive(ctx context.Context) (archive *entity.Archive, report repository.LoadReport, err error) {
	ctx, span := s.tracer.Start(ctx, "archive.load")
	defer func() { tracing.EndSpan(span, err) }()

	archive, report, err = s.archive.Load(ctx)
	if err != nil {
		return nil, report, &StageError{Stage: StageArchiveLoad, Err: err}
	}
	metrics.RecordQuarantined(report.Quarantined)
	span.SetAttributes(
		attribute.Int("entries", archive.Len()),
		attribute.Int("quarantined", report.Quarantined))
	return archive, report, nil
}

func (s *Service) saveArchive(ctx context.Context, archive *entity.Archive) (err error) {
	ctx, span := s.tracer.Start(ctx, "archive.save")
	defer func() { tracing.EndSpan(span, err) }()

	if err := s.archive.Save(ctx, archive); err != nil {
		return &StageError{Stage: StageArchiveSave, Err: err}
	}
	return nil
}

// render produces the feed document for the head of the archive and checks that
// it parses back with the expected items.
func (s *Service) render(archive *entity.Archive) ([]byte, int, error) {
	entries := archive.Head(s.cfg.FeedLimit)
	doc, err := s.renderer.Render(entries, s.cfg.FeedLimit, s.cfg.Now())
	if err != nil {
		return nil, 0, &StageError{Stage: StageRender, Err: err}
	}
	if err := feed.Verify(doc, len(entries)); err != nil {
		return nil, 0, &StageError{Stage: StageRender, Err: err}
	}
	return doc, len(entries), nil
}

func (s *Service) persistFeed(ctx context.Context, doc []byte) (err error) {
	ctx, span := s.tracer.Start(ctx, "feed.write")
	defer func() { tracing.EndSpan(span, err) }()

	if err := s.writer.Write(ctx, doc); err != nil {
		return &StageError{Stage: StageFeedWrite, Err: err}
	}
	return nil
}

func (s *Service) writeFeed(ctx context.Context, archive *entity.Archive) (int, error) {
	doc, items, err := s.render(archive)
	if err != nil {
		return 0, err
	}
	if err := s.persistFeed(ctx, doc); err != nil {
		return 0, err
	}
	return items, nil
}

// notify announces entry. The archive is already committed, so failures are only logged.
func (s *Service) notify(ctx context.Context, logger *slog.Logger, entry entity.Entry) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyEntry(ctx, entry); err != nil {
		logger.Warn("notification failed",
			slog.String("error", logging.SanitizeError(err)))
	}
}
