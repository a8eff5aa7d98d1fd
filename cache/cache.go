package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pevans/dailyarticle/article"
	"go.uber.org/zap"
)

// DefaultTTL is how long a cached article stays visible.
const DefaultTTL = 24 * time.Hour

// DefaultFilename is the cache file name inside the data directory.
const DefaultFilename = "articles_cache.json"

// ErrorKind classifies cache failures.
type ErrorKind string

const (
	KindCorrupt   ErrorKind = "corrupt"
	KindIOFailure ErrorKind = "io_failure"
)

// CacheError describes a failure to read or write the cache file. Cache
// errors are logged, never returned to callers of Load or Save.
type CacheError struct {
	Path string
	Kind ErrorKind
	Err  error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s (%s): %v", e.Kind, e.Path, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

// Entry is an article together with the time it entered the cache.
type Entry struct {
	article.Article
	CachedTime time.Time `json:"cached_time"`
}

// Cache is a JSON file of recently scraped articles. Entries older than the
// TTL are invisible and are dropped the next time the file is rewritten.
type Cache struct {
	path   string
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
	mu     sync.Mutex
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// Open returns a cache backed by the file at path. The file is created on
// the first Save. A non-positive ttl selects DefaultTTL.
func Open(path string, ttl time.Duration, logger *zap.Logger, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Cache{
		path:   path,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With(zap.String("component", "cache"), zap.String("path", path)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the cache file location.
func (c *Cache) Path() string {
	return c.path
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Load returns the articles that are still within the TTL. A missing or
// unreadable file yields an empty list.
func (c *Cache) Load() []article.Article {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.live(c.readLogged())
	articles := make([]article.Article, len(entries))
	for i, e := range entries {
		articles[i] = e.Article
	}
	return articles
}

// Entries returns the live entries with their cache timestamps.
func (c *Cache) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.live(c.readLogged())
}

// Save adds articles to the cache. Expired entries are dropped first, then
// any article whose URL is already cached (or repeated within the batch) is
// skipped. The file is rewritten even when nothing new was added, so that
// expired entries are purged. Save returns the number of articles added.
func (c *Cache) Save(articles []article.Article) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entries := c.live(c.readLogged())

	known := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		known[e.URL] = struct{}{}
	}

	added := 0
	for _, a := range articles {
		if a.URL == "" {
			continue
		}
		if _, ok := known[a.URL]; ok {
			continue
		}
		known[a.URL] = struct{}{}
		entries = append(entries, Entry{Article: a, CachedTime: now})
		added++
	}

	if err := c.write(entries); err != nil {
		c.logger.Error("failed to write article cache", zap.Error(err))
		return 0
	}

	c.logger.Debug("saved articles to cache",
		zap.Int("added", added),
		zap.Int("total", len(entries)),
	)
	return added
}

// Prune rewrites the cache without its expired entries and returns how many
// were removed.
func (c *Cache) Prune() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	all, err := c.read()
	if err != nil {
		return 0, err
	}
	live := c.live(all)

	if err := c.write(live); err != nil {
		return 0, err
	}
	return len(all) - len(live), nil
}

// Stats summarizes the cache contents.
type Stats struct {
	Path     string                `json:"path"`
	TTL      time.Duration         `json:"ttl"`
	Total    int                   `json:"total"`
	Live     int                   `json:"live"`
	Expired  int                   `json:"expired"`
	Oldest   time.Time             `json:"oldest,omitzero"`
	Newest   time.Time             `json:"newest,omitzero"`
	BySource map[string]int        `json:"by_source"`
	ByTopic  map[article.Topic]int `json:"by_topic"`
}

// Stats reads the cache file and reports entry counts. Only live entries
// contribute to the per-source and per-topic counts.
func (c *Cache) Stats() (*Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	all, err := c.read()
	if err != nil {
		return nil, err
	}
	live := c.live(all)

	stats := &Stats{
		Path:     c.path,
		TTL:      c.ttl,
		Total:    len(all),
		Live:     len(live),
		Expired:  len(all) - len(live),
		BySource: make(map[string]int),
		ByTopic:  make(map[article.Topic]int),
	}
	for _, e := range live {
		stats.BySource[e.Source]++
		stats.ByTopic[e.Topic]++
		if stats.Oldest.IsZero() || e.CachedTime.Before(stats.Oldest) {
			stats.Oldest = e.CachedTime
		}
		if e.CachedTime.After(stats.Newest) {
			stats.Newest = e.CachedTime
		}
	}
	return stats, nil
}

// live filters out entries whose age has reached the TTL.
func (c *Cache) live(entries []Entry) []Entry {
	now := c.now()
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if now.Sub(e.CachedTime) < c.ttl {
			out = append(out, e)
		}
	}
	return out
}

// readLogged reads the cache file, logging and swallowing any failure.
func (c *Cache) readLogged() []Entry {
	entries, err := c.read()
	if err != nil {
		c.logger.Warn("ignoring unreadable article cache", zap.Error(err))
		return nil
	}
	return entries
}

// read loads every entry from disk, expired or not. A missing file is an
// empty cache.
func (c *Cache) read() ([]Entry, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &CacheError{Path: c.path, Kind: KindIOFailure, Err: err}
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &CacheError{Path: c.path, Kind: KindCorrupt, Err: err}
	}
	return entries, nil
}

// write replaces the cache file with entries.
func (c *Cache) write(entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}

	// Create the data directory if needed (0700: owner-only access)
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return &CacheError{Path: c.path, Kind: KindIOFailure, Err: fmt.Errorf("failed to create cache directory: %w", err)}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return &CacheError{Path: c.path, Kind: KindIOFailure, Err: fmt.Errorf("failed to marshal cache: %w", err)}
	}

	// Write to file (0600: owner-only read/write)
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return &CacheError{Path: c.path, Kind: KindIOFailure, Err: fmt.Errorf("failed to write cache: %w", err)}
	}
	return nil
}
