package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"itoi-daily/internal/config"
	"itoi-daily/internal/infra/adapter/persistence/jsonfile"
	"itoi-daily/internal/infra/feed"
	"itoi-daily/internal/infra/notifier"
	"itoi-daily/internal/infra/scraper"
	"itoi-daily/internal/infra/translator"
	"itoi-daily/internal/observability/logging"
	"itoi-daily/internal/observability/tracing"
	"itoi-daily/internal/usecase/publish"
)

// app is everything a command needs, built once from the configuration.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	service  *publish.Service
	shutdown func(context.Context) error
}

// loadConfig resolves the config path from the flag or ITOI_CONFIG and loads it.
func loadConfig() (*config.Config, *slog.Logger, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("ITOI_CONFIG")
	}

	cfg, warnings, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := logging.NewLoggerWithOptions(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	slog.SetDefault(logger)
	for _, w := range warnings {
		logger.Warn("configuration fallback applied", slog.String("warning", w))
	}
	logger.Info("configuration loaded",
		slog.String("config_file", path),
		slog.String("site_url", cfg.Site.URL),
		slog.String("translator", cfg.Translator.Provider),
		slog.String("archive_path", cfg.Archive.Path),
		slog.String("feed_path", cfg.Feed.Path),
		slog.Int("feed_limit", cfg.Feed.Limit))
	return cfg, logger, nil
}

// newApp wires the publish service. Offline commands pass needsNetwork=false so
// no translator credentials are required.
func newApp(dryRun, needsNetwork bool) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	shutdown := func(context.Context) error { return nil }
	if cfg.Observability.Tracing {
		shutdown = tracing.Setup()
	}

	var (
		scr publish.Scraper
		tr  publish.Translator
	)
	if needsNetwork {
		if err := cfg.ValidateSecrets(); err != nil {
			return nil, err
		}
		scr = createScraper(cfg)
		tr, err = createTranslator(cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	store := jsonfile.NewArchiveStore(jsonfile.Options{
		Path:       cfg.Archive.Path,
		MaxEntries: cfg.Archive.MaxEntries,
		OnCorrupt:  jsonfile.CorruptPolicy(cfg.Archive.OnCorrupt),
	})

	svc := publish.NewService(
		scr,
		tr,
		store,
		feed.NewRenderer(feed.Meta{
			Title:       cfg.Feed.Title,
			Link:        cfg.Feed.Link,
			Description: cfg.Feed.Description,
			Language:    cfg.Feed.Language,
			Author:      cfg.Feed.Author,
			Copyright:   cfg.Feed.Copyright,
		}),
		feed.NewWriter(cfg.Feed.Path),
		createNotifier(cfg, logger),
		publish.Config{FeedLimit: cfg.Feed.Limit, DryRun: dryRun},
	)

	return &app{cfg: cfg, logger: logger, service: svc, shutdown: shutdown}, nil
}

// close flushes tracing. Errors are logged only.
func (a *app) close() {
	if err := a.shutdown(context.Background()); err != nil {
		a.logger.Warn("tracer shutdown failed", slog.Any("error", err))
	}
}

func createScraper(cfg *config.Config) *scraper.EssayScraper {
	extCfg := scraper.DefaultExtractorConfig()
	extCfg.AuthorName = cfg.Site.AuthorName
	extCfg.Location = cfg.Site.Location()
	extractor := scraper.NewExtractor(extCfg, nil)

	var renderers []scraper.PageRenderer
	if cfg.Site.Renderer == "auto" || cfg.Site.Renderer == "chrome" {
		chromeCfg := scraper.DefaultChromeConfig()
		chromeCfg.ExecPath = cfg.Site.ChromePath
		chromeCfg.Timeout = cfg.Site.RenderTimeout
		chromeCfg.SettleDelay = cfg.Site.SettleDelay
		if cfg.Site.UserAgent != "" {
			chromeCfg.UserAgent = cfg.Site.UserAgent
		}
		renderers = append(renderers, scraper.NewChromeRenderer(chromeCfg))
	}
	if cfg.Site.Renderer == "auto" || cfg.Site.Renderer == "http" {
		httpCfg := scraper.DefaultHTTPConfig()
		httpCfg.Timeout = cfg.Site.RenderTimeout
		httpCfg.MinInterval = cfg.Site.MinInterval
		if cfg.Site.UserAgent != "" {
			httpCfg.UserAgent = cfg.Site.UserAgent
		}
		renderers = append(renderers, scraper.NewHTTPRenderer(httpCfg, nil))
	}

	return scraper.NewEssayScraper(cfg.Site.URL, extractor, renderers...)
}

func createTranslator(cfg *config.Config, logger *slog.Logger) (publish.Translator, error) {
	tc := cfg.Translator
	apply := func(base translator.Config) (translator.Config, error) {
		if tc.Model != "" {
			base.Model = tc.Model
		}
		base.MaxTokens = tc.MaxTokens
		base.Timeout = tc.Timeout
		base.MaxInputRunes = tc.MaxInputRunes
		base.DefaultAuthor = tc.DefaultAuthor
		base.BaseURL = tc.BaseURL
		if err := base.Validate(); err != nil {
			return base, fmt.Errorf("translator config: %w", err)
		}
		return base, nil
	}

	switch tc.Provider {
	case "claude":
		c, err := apply(translator.DefaultClaudeConfig())
		if err != nil {
			return nil, err
		}
		logger.Info("Using Claude API for translation", slog.String("model", c.Model))
		return translator.NewClaude(tc.APIKey, c), nil
	case "openai":
		c, err := apply(translator.DefaultOpenAIConfig())
		if err != nil {
			return nil, err
		}
		logger.Info("Using OpenAI API for translation", slog.String("model", c.Model))
		return translator.NewOpenAI(tc.APIKey, c), nil
	default:
		logger.Warn("translation disabled, publishing the original text")
		return translator.NewNoOp(tc.DefaultAuthor), nil
	}
}

func createNotifier(cfg *config.Config, logger *slog.Logger) notifier.Notifier {
	var channels []notifier.Notifier
	if d := cfg.Notify.Discord; d.Enabled {
		channels = append(channels, notifier.NewDiscordNotifier(notifier.DiscordConfig{
			Enabled:    true,
			WebhookURL: d.WebhookURL,
			Timeout:    d.Timeout,
		}))
	}
	if s := cfg.Notify.Slack; s.Enabled {
		channels = append(channels, notifier.NewSlackNotifier(notifier.SlackConfig{
			Enabled:    true,
			WebhookURL: s.WebhookURL,
			Timeout:    s.Timeout,
		}))
	}
	logger.Info("notification channels initialized", slog.Int("channels", len(channels)))
	return notifier.NewMulti(channels...)
}
