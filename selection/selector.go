// Package selection picks and persists the article of the day.
package selection

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pevans/dailyarticle/article"
	"github.com/pevans/dailyarticle/registry"
	"github.com/pevans/dailyarticle/runlog"
	"github.com/pevans/dailyarticle/scraper"
	"github.com/pevans/dailyarticle/topics"
	"go.uber.org/zap"
)

// State is the selector's position in its daily cycle.
type State string

const (
	StateNoSelectionToday State = "no_selection_today"
	StateSelecting        State = "selecting"
	StateSelected         State = "selected"
)

// ArticleSource returns the articles currently cached. *cache.Cache
// satisfies it.
type ArticleSource interface {
	Load() []article.Article
}

// Tiers lists the scrapers of each gathering tier. *registry.Registry
// satisfies it.
type Tiers interface {
	Primary() []scraper.Scraper
	Backup() []scraper.Scraper
}

// TopicDrawer draws a topic by weight. *topics.Config satisfies it.
type TopicDrawer interface {
	Draw(rng topics.Rand) article.Topic
}

// Recorder stores scraper reports. *runlog.Store satisfies it.
type Recorder interface {
	Record(report *scraper.Report) (*runlog.Run, error)
}

// Options are the collaborators of a Selector. Cache, Tiers, Topics, and
// Store are required.
type Options struct {
	Cache    ArticleSource
	Tiers    Tiers
	Topics   TopicDrawer
	Store    *Store
	Recorder Recorder
	Logger   *zap.Logger
	Now      func() time.Time
	Rand     topics.Rand
}

// Selector runs the daily selection cycle. It is safe for concurrent use;
// callers are served one at a time.
type Selector struct {
	cache    ArticleSource
	tiers    Tiers
	topics   TopicDrawer
	store    *Store
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
	rng      topics.Rand

	mu       sync.Mutex
	state    State
	articles []article.Article
	current  *DailySelection
}

// New creates a Selector.
func New(opts Options) (*Selector, error) {
	if opts.Cache == nil || opts.Tiers == nil || opts.Topics == nil || opts.Store == nil {
		return nil, errors.New("selector: cache, tiers, topics, and store are required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = globalRand{}
	}

	return &Selector{
		cache:    opts.Cache,
		tiers:    opts.Tiers,
		topics:   opts.Topics,
		store:    opts.Store,
		recorder: opts.Recorder,
		logger:   opts.Logger.With(zap.String("component", "selector")),
		now:      opts.Now,
		rng:      opts.Rand,
		state:    StateNoSelectionToday,
	}, nil
}

// State returns the current state.
func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Today returns today's article. A selection persisted earlier today is
// returned as is; otherwise a new one is made and persisted.
func (s *Selector) Today(ctx context.Context) (*article.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()
	if s.current == nil || s.current.Date != today {
		sel, err := s.store.Load()
		if err != nil {
			s.logger.Warn("failed to load daily selection", zap.Error(err))
		}
		s.current = sel
	}

	if s.current != nil && s.current.Date == today {
		s.state = StateSelected
		a := s.current.Article
		return &a, nil
	}

	s.state = StateNoSelectionToday
	articles, err := s.gather(ctx)
	if err != nil {
		return nil, err
	}
	return s.selectFrom(articles), nil
}

// Reload replaces today's selection with a new draw. The articles gathered
// most recently are reused; gathering only happens when there are none. A
// failed gather leaves the state and the current selection unchanged.
func (s *Selector) Reload(ctx context.Context) (*article.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	articles := s.articles
	if len(articles) == 0 {
		prev := s.state
		var err error
		if articles, err = s.gather(ctx); err != nil {
			// Today's earlier selection, if any, still stands.
			s.state = prev
			return nil, err
		}
	}
	return s.selectFrom(articles), nil
}

// ByTopic picks a random article with the given topic without touching
// today's selection. There is no fallback to other topics.
func (s *Selector) ByTopic(ctx context.Context, topic article.Topic) (*article.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	articles := s.articles
	if len(articles) == 0 {
		prev := s.state
		var err error
		articles, err = s.gather(ctx)
		s.state = prev
		if err != nil {
			return nil, err
		}
	}

	candidates := article.FilterByTopic(articles, topic)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoArticlesForTopic, topic)
	}
	a := candidates[s.rng.IntN(len(candidates))]
	return &a, nil
}

// Current returns the selection held in memory, or nil.
func (s *Selector) Current() *DailySelection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	sel := *s.current
	return &sel
}

// gather collects candidate articles: the cache first, then the primary
// scrapers, then the backup scrapers. The result becomes the in-memory set.
func (s *Selector) gather(ctx context.Context) ([]article.Article, error) {
	s.state = StateSelecting

	articles := s.cache.Load()
	if len(articles) > 0 {
		s.logger.Info("using cached articles", zap.Int("articles", len(articles)))
		s.articles = articles
		return articles, nil
	}

	tiers := []struct {
		name     string
		scrapers []scraper.Scraper
	}{
		{"primary", s.tiers.Primary()},
		{"backup", s.tiers.Backup()},
	}
	for _, tier := range tiers {
		if ctx.Err() != nil {
			break
		}

		s.logger.Info("scraping tier",
			zap.String("tier", tier.name),
			zap.Int("scrapers", len(tier.scrapers)),
		)
		for _, report := range registry.Run(ctx, tier.scrapers) {
			s.record(report)
			articles = append(articles, report.Articles...)
		}

		articles = article.DedupByURL(articles)
		if len(articles) > 0 {
			s.articles = articles
			return articles, nil
		}
	}

	s.state = StateNoSelectionToday
	s.logger.Error("no articles available from any tier")
	return nil, noArticles(ctx.Err())
}

// selectFrom draws a topic, picks an article of that topic (any article when
// none has it), and persists the pick as today's selection.
func (s *Selector) selectFrom(articles []article.Article) *article.Article {
	s.state = StateSelecting

	topic := s.topics.Draw(s.rng)
	candidates := article.FilterByTopic(articles, topic)
	if len(candidates) == 0 {
		s.logger.Info("no articles for drawn topic, using all articles", zap.String("topic", string(topic)))
		candidates = articles
	}
	picked := candidates[s.rng.IntN(len(candidates))]

	s.current = &DailySelection{Date: s.today(), Article: picked}
	if err := s.store.Save(*s.current); err != nil {
		s.logger.Error("failed to persist daily selection", zap.Error(err))
	}
	s.state = StateSelected

	s.logger.Info("selected article",
		zap.String("topic", string(topic)),
		zap.String("article_topic", string(picked.Topic)),
		zap.String("source", picked.Source),
		zap.String("url", picked.URL),
	)
	return &picked
}

func (s *Selector) record(report *scraper.Report) {
	if s.recorder == nil {
		return
	}
	if _, err := s.recorder.Record(report); err != nil {
		s.logger.Warn("failed to record scraper run",
			zap.String("source", report.SourceKey),
			zap.Error(err),
		)
	}
}

func (s *Selector) today() string {
	return s.now().Format(DateLayout)
}

// globalRand draws from the math/rand/v2 top-level source.
type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }
