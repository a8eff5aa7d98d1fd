package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/pevans/dailyarticle/article"
	"github.com/pevans/dailyarticle/extract"
	"go.uber.org/zap"
)

// Errors recorded for items that cannot become articles.
var (
	ErrMissingTitle = errors.New("item has no title")
	ErrMissingURL   = errors.New("item has no URL")
	ErrNoContent    = errors.New("article page yielded no content")
)

// Scraper produces articles from one news source. ScrapeArticles never
// fails as a whole: every feed, page, and item failure is recorded in the
// report and skipped. The articles found are always saved to the cache
// before the report is returned.
type Scraper interface {
	Key() string
	Name() string
	Tier() Tier
	ScrapeArticles(ctx context.Context) *Report
}

// Fetcher retrieves feeds and pages. *fetcher.Fetcher satisfies it.
type Fetcher interface {
	Feed(ctx context.Context, url string) (*gofeed.Feed, error)
	Document(ctx context.Context, url string) (*goquery.Document, error)
}

// Extractor derives article text from a page. *extract.Extractor satisfies
// it.
type Extractor interface {
	Extract(ctx context.Context, url string, opts extract.Options) (*extract.Content, error)
}

// Classifier assigns a topic to an article. *topics.Config satisfies it.
type Classifier interface {
	Classify(title, body string) article.Topic
}

// Saver persists scraped articles. *cache.Cache satisfies it.
type Saver interface {
	Save(articles []article.Article) int
}

// Deps are the collaborators of a scraper. Each scraper should get its own
// Fetcher so that rate limits apply per source.
type Deps struct {
	Fetcher    Fetcher
	Extractor  Extractor
	Classifier Classifier
	Cache      Saver
	Logger     *zap.Logger
	Now        func() time.Time
}

// New creates the scraper implementation matching cfg.Kind.
func New(cfg SourceConfig, deps Deps) (Scraper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Fetcher == nil || deps.Classifier == nil || deps.Cache == nil {
		return nil, fmt.Errorf("scraper %s: fetcher, classifier, and cache are required", cfg.Key)
	}
	if deps.Extractor == nil && (cfg.Kind == KindSections || cfg.DeepExtract) {
		return nil, fmt.Errorf("scraper %s: extractor is required", cfg.Key)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	deps.Logger = deps.Logger.With(zap.String("source", cfg.Key))

	b := base{cfg: cfg, deps: deps}
	switch cfg.Kind {
	case KindFeed:
		return &FeedScraper{base: b}, nil
	case KindSections:
		return &SectionScraper{base: b}, nil
	}
	return nil, fmt.Errorf("%w: %s: unknown kind %q", ErrInvalidSource, cfg.Key, cfg.Kind)
}

// Stage names the step of a scrape at which a failure happened.
type Stage string

const (
	StageFeed    Stage = "feed"
	StageListing Stage = "listing"
	StageItem    Stage = "item"
	StageExtract Stage = "extract"
)

// ItemFailure records one skipped feed, page, or item.
type ItemFailure struct {
	Stage Stage
	URL   string
	Err   error
}

func (f ItemFailure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Stage, f.URL, f.Err)
}

// Report is the outcome of one ScrapeArticles call.
type Report struct {
	SourceKey    string
	Source       string
	Articles     []article.Article
	Failures     []ItemFailure
	FeedsTried   int
	FeedsFailed  int
	UsedFallback bool
	// FallbackTier is the 1-based fallback tier that produced articles, or 0.
	FallbackTier int
	// Added is how many of Articles were new to the cache.
	Added      int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Err joins every recorded failure, or returns nil when there were none.
func (r *Report) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// FailureCount returns the number of failures recorded at stage.
func (r *Report) FailureCount(stage Stage) int {
	n := 0
	for _, f := range r.Failures {
		if f.Stage == stage {
			n++
		}
	}
	return n
}

func (r *Report) fail(stage Stage, url string, err error) {
	r.Failures = append(r.Failures, ItemFailure{Stage: stage, URL: url, Err: err})
}

// base holds what both scraper kinds share.
type base struct {
	cfg  SourceConfig
	deps Deps
}

func (b *base) Key() string  { return b.cfg.Key }
func (b *base) Name() string { return b.cfg.Name }
func (b *base) Tier() Tier   { return b.cfg.Tier }

// Config returns the source definition.
func (b *base) Config() SourceConfig { return b.cfg }

func (b *base) newReport() *Report {
	return &Report{
		SourceKey: b.cfg.Key,
		Source:    b.cfg.Name,
		Articles:  []article.Article{},
		StartedAt: b.deps.Now(),
	}
}

// finish deduplicates the batch, saves it to the cache, and logs a summary.
func (b *base) finish(report *Report) *Report {
	report.Articles = article.DedupByURL(report.Articles)
	report.Added = b.deps.Cache.Save(report.Articles)
	report.FinishedAt = b.deps.Now()

	b.deps.Logger.Info("scraped source",
		zap.Int("articles", len(report.Articles)),
		zap.Int("added_to_cache", report.Added),
		zap.Int("failures", len(report.Failures)),
		zap.Bool("used_fallback", report.UsedFallback),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report
}

// extractOptions returns the extraction settings for article pages.
func (b *base) extractOptions() extract.Options {
	return extract.Options{
		ContentSelectors: b.cfg.Article.ContentSelectors,
		TitleSelector:    b.cfg.Article.TitleSelector,
	}
}
