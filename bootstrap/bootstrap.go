// Package bootstrap wires configuration into the running components.
package bootstrap

import (
	"errors"
	"fmt"
	"os"

	"github.com/pevans/dailyarticle/cache"
	"github.com/pevans/dailyarticle/config"
	"github.com/pevans/dailyarticle/extract"
	"github.com/pevans/dailyarticle/fetcher"
	"github.com/pevans/dailyarticle/registry"
	"github.com/pevans/dailyarticle/runlog"
	"github.com/pevans/dailyarticle/scraper"
	"github.com/pevans/dailyarticle/selection"
	"github.com/pevans/dailyarticle/topics"
	"go.uber.org/zap"
)

// App holds every component built from one configuration.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Topics   *topics.Config
	Sources  []scraper.SourceConfig
	Cache    *cache.Cache
	Registry *registry.Registry
	RunLog   *runlog.Store
	Store    *selection.Store
	Selector *selection.Selector
}

// New builds the application. Call Close when done.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	topicTable, err := topics.Load(cfg.TopicsFile)
	if err != nil {
		return nil, err
	}

	sources := scraper.DefaultSources()
	if cfg.SourcesFile != "" {
		if sources, err = scraper.LoadSources(cfg.SourcesFile); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	articleCache := cache.Open(cfg.CachePath(), cfg.Cache.TTL, logger)

	scrapers := make([]scraper.Scraper, 0, len(sources))
	for _, src := range sources {
		s, err := newScraper(src, cfg, topicTable, articleCache, logger)
		if err != nil {
			return nil, err
		}
		scrapers = append(scrapers, s)
	}

	reg, err := registry.New(scrapers...)
	if err != nil {
		return nil, err
	}

	runLog, err := runlog.NewStore(cfg.RunLogPath())
	if err != nil {
		return nil, err
	}

	store := selection.NewStore(cfg.SelectionPath(), logger)
	selector, err := selection.New(selection.Options{
		Cache:    articleCache,
		Tiers:    reg,
		Topics:   topicTable,
		Store:    store,
		Recorder: runLog,
		Logger:   logger,
	})
	if err != nil {
		runLog.Close()
		return nil, err
	}

	logger.Debug("application ready",
		zap.String("data_dir", cfg.DataDir),
		zap.Strings("sources", reg.Keys()),
		zap.Int("topics", len(topicTable.Topics)),
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Topics:   topicTable,
		Sources:  sources,
		Cache:    articleCache,
		Registry: reg,
		RunLog:   runLog,
		Store:    store,
		Selector: selector,
	}, nil
}

// newScraper gives each source its own fetcher so rate limits apply per
// source.
func newScraper(
	src scraper.SourceConfig,
	cfg *config.Config,
	classifier scraper.Classifier,
	saver scraper.Saver,
	logger *zap.Logger,
) (scraper.Scraper, error) {
	sourceLogger := logger.With(zap.String("source", src.Key))
	f := fetcher.New(cfg.FetcherOptions(), sourceLogger)

	s, err := scraper.New(src, scraper.Deps{
		Fetcher:    f,
		Extractor:  extract.New(f, sourceLogger),
		Classifier: classifier,
		Cache:      saver,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create scraper %s: %w", src.Key, err)
	}
	return s, nil
}

// Close releases the run log.
func (a *App) Close() error {
	var errs []error
	if a.RunLog != nil {
		errs = append(errs, a.RunLog.Close())
	}
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}
