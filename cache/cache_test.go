package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pevans/dailyarticle/article"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testClock is a settable time source
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

// createTestCache creates a cache in a temporary directory with a fixed clock
func createTestCache(t *testing.T) (*Cache, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	path := filepath.Join(t.TempDir(), "data", DefaultFilename)
	return Open(path, DefaultTTL, zap.NewNop(), WithClock(clock.Now)), clock
}

func sampleArticle(url string) article.Article {
	return article.Article{
		Title:  "Title " + url,
		URL:    url,
		Source: "BBC News",
		Topic:  article.TopicScience,
	}
}

// TestLoad_MissingFile verifies a missing cache is empty
func TestLoad_MissingFile(t *testing.T) {
	c, _ := createTestCache(t)

	assert.Empty(t, c.Load())
}

// TestLoad_CorruptFile verifies a corrupt cache is treated as empty
func TestLoad_CorruptFile(t *testing.T) {
	c, _ := createTestCache(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(c.Path()), 0o700))
	require.NoError(t, os.WriteFile(c.Path(), []byte("{not json"), 0o600))

	assert.Empty(t, c.Load())

	_, err := c.Stats()
	var cacheErr *CacheError
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, KindCorrupt, cacheErr.Kind)

	// Saving recovers the file
	assert.Equal(t, 1, c.Save([]article.Article{sampleArticle("https://example.com/1")}))
	assert.Len(t, c.Load(), 1)
}

// TestSave_RoundTrip verifies saved articles are loaded back
func TestSave_RoundTrip(t *testing.T) {
	c, clock := createTestCache(t)

	a := sampleArticle("https://example.com/1")
	a.ScrapedTime = clock.now
	a.Authors = []string{"Jane Doe"}

	added := c.Save([]article.Article{a})
	require.Equal(t, 1, added)

	loaded := c.Load()
	require.Len(t, loaded, 1)
	assert.Equal(t, a.Title, loaded[0].Title)
	assert.Equal(t, a.Authors, loaded[0].Authors)
	assert.True(t, a.ScrapedTime.Equal(loaded[0].ScrapedTime))

	entries := c.Entries()
	require.Len(t, entries, 1)
	assert.True(t, clock.now.Equal(entries[0].CachedTime))
}

// TestSave_FileFormat verifies the on-disk JSON carries cached_time
func TestSave_FileFormat(t *testing.T) {
	c, _ := createTestCache(t)
	c.Save([]article.Article{sampleArticle("https://example.com/1")})

	data, err := os.ReadFile(c.Path())
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "https://example.com/1", raw[0]["url"])
	assert.Contains(t, raw[0], "cached_time")
	assert.Contains(t, raw[0], "scraped_time")
}

// TestSave_DedupByURL verifies no two entries share a URL
func TestSave_DedupByURL(t *testing.T) {
	c, _ := createTestCache(t)

	assert.Equal(t, 2, c.Save([]article.Article{
		sampleArticle("https://example.com/1"),
		sampleArticle("https://example.com/2"),
		sampleArticle("https://example.com/1"),
	}))

	dup := sampleArticle("https://example.com/2")
	dup.Title = "changed"
	assert.Equal(t, 1, c.Save([]article.Article{dup, sampleArticle("https://example.com/3")}))

	loaded := c.Load()
	require.Len(t, loaded, 3)
	seen := map[string]bool{}
	for _, a := range loaded {
		assert.False(t, seen[a.URL], "duplicate URL %s", a.URL)
		seen[a.URL] = true
		assert.NotEqual(t, "changed", a.Title, "existing entries are not replaced")
	}
}

// TestSave_SkipsEmptyURL verifies articles without a URL are not cached
func TestSave_SkipsEmptyURL(t *testing.T) {
	c, _ := createTestCache(t)

	assert.Equal(t, 0, c.Save([]article.Article{{Title: "no url"}}))
	assert.Empty(t, c.Load())
}

// TestLoad_ExpiresOldEntries verifies entries vanish once the TTL elapses
func TestLoad_ExpiresOldEntries(t *testing.T) {
	c, clock := createTestCache(t)
	c.Save([]article.Article{sampleArticle("https://example.com/old")})

	clock.now = clock.now.Add(DefaultTTL - time.Second)
	assert.Len(t, c.Load(), 1)

	clock.now = clock.now.Add(time.Second)
	assert.Empty(t, c.Load(), "an entry exactly one TTL old is expired")
}

// TestSave_ExpiresBeforeAdding verifies an expired URL can be re-added and
// expired entries are purged from disk
func TestSave_ExpiresBeforeAdding(t *testing.T) {
	c, clock := createTestCache(t)
	c.Save([]article.Article{
		sampleArticle("https://example.com/old"),
		sampleArticle("https://example.com/gone"),
	})

	clock.now = clock.now.Add(25 * time.Hour)
	added := c.Save([]article.Article{sampleArticle("https://example.com/old")})
	assert.Equal(t, 1, added, "expired URL should be added again")

	entries := c.Entries()
	require.Len(t, entries, 1)
	assert.True(t, clock.now.Equal(entries[0].CachedTime))

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total, "expired entries are not resurrected on disk")
}

// TestPrune verifies expired entries are removed from the file
func TestPrune(t *testing.T) {
	c, clock := createTestCache(t)
	c.Save([]article.Article{sampleArticle("https://example.com/1")})

	clock.now = clock.now.Add(12 * time.Hour)
	c.Save([]article.Article{sampleArticle("https://example.com/2")})

	clock.now = clock.now.Add(13 * time.Hour)
	removed, err := c.Prune()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Live)
}

// TestStats verifies counts by source and topic
func TestStats(t *testing.T) {
	c, clock := createTestCache(t)

	art := sampleArticle("https://example.com/art")
	art.Topic = article.TopicArt
	art.Source = "The Hindu"
	c.Save([]article.Article{sampleArticle("https://example.com/1"), art})

	stats, err := c.Stats()
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Live)
	assert.Equal(t, 0, stats.Expired)
	assert.Equal(t, 1, stats.BySource["The Hindu"])
	assert.Equal(t, 1, stats.ByTopic[article.TopicScience])
	assert.True(t, clock.now.Equal(stats.Oldest))
}

// TestWriteFailure verifies write errors are swallowed
func TestWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	// The parent "directory" is a regular file, so writes must fail
	c := Open(filepath.Join(blocker, DefaultFilename), 0, zap.NewNop())

	assert.Equal(t, 0, c.Save([]article.Article{sampleArticle("https://example.com/1")}))
	assert.Empty(t, c.Load())
	assert.Equal(t, DefaultTTL, c.TTL())
}
