package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pevans/dailyarticle/article"
	"github.com/pevans/dailyarticle/cache"
	"github.com/pevans/dailyarticle/runlog"
	"github.com/pevans/dailyarticle/scraper"
	"github.com/pevans/dailyarticle/topics"
	"github.com/stretchr/testify/assert"
)

// TestWrapText verifies lines never exceed the width unless a word does
func TestWrapText(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"

	wrapped := wrapText(text, 15)

	for _, line := range strings.Split(wrapped, "\n") {
		assert.LessOrEqual(t, len(line), 15, line)
	}
	assert.Equal(t, text, strings.Join(strings.Split(wrapped, "\n"), " "))
	assert.Equal(t, "", wrapText("", 10))
	assert.Equal(t, "supercalifragilistic", wrapText("supercalifragilistic", 5))
}

// TestTruncate verifies long strings are cut with an ellipsis
func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}

// TestPrintArticle verifies the text layout of an article
func TestPrintArticle(t *testing.T) {
	var buf bytes.Buffer
	printArticle(&buf, article.View{
		Title:         "Glacier retreat speeds up",
		Source:        "The Hindu",
		TopicName:     "Science",
		PublishedDate: "2026-10-15",
		Authors:       []string{"A. Writer", "B. Writer"},
		Body:          "First paragraph.\n\nSecond paragraph.",
		URL:           "https://example.com/glacier",
	}, "2026-10-15")

	out := buf.String()
	assert.Contains(t, out, "Article of the day for 2026-10-15")
	assert.Contains(t, out, "Glacier retreat speeds up\n=========================")
	assert.Contains(t, out, "The Hindu | Science | 2026-10-15")
	assert.Contains(t, out, "By A. Writer, B. Writer")
	assert.Contains(t, out, "First paragraph.\n\nSecond paragraph.")
	assert.Contains(t, out, "Read more: https://example.com/glacier")
	assert.NotContains(t, out, "Image:")
}

// TestPrintJSON verifies indented output
func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	err := printJSON(&buf, map[string]int{"removed": 2})

	assert.NoError(t, err)
	assert.Equal(t, "{\n  \"removed\": 2\n}\n", buf.String())
}

// TestPrintReport verifies the fallback tier is shown when used
func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, &scraper.Report{
		SourceKey:    "hindu",
		Articles:     make([]article.Article, 3),
		Added:        2,
		UsedFallback: true,
		FallbackTier: 2,
	})

	assert.Contains(t, buf.String(), "hindu")
	assert.Contains(t, buf.String(), "3 articles")
	assert.Contains(t, buf.String(), "2 new")
	assert.Contains(t, buf.String(), "(fallback tier 2)")
}

// TestPrintRuns verifies the run table and the empty message
func TestPrintRuns(t *testing.T) {
	var buf bytes.Buffer
	printRuns(&buf, nil)
	assert.Equal(t, "No runs recorded.\n", buf.String())

	buf.Reset()
	start := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	printRuns(&buf, []runlog.Run{{
		SourceKey:  "bbc",
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
		Articles:   12,
		Added:      5,
	}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[2], "bbc")
	assert.Contains(t, lines[2], "3s")
	assert.True(t, strings.HasSuffix(lines[2], "-"))
}

// TestPrintCacheStats verifies counts are listed in key order
func TestPrintCacheStats(t *testing.T) {
	var buf bytes.Buffer
	printCacheStats(&buf, &cache.Stats{
		Path:     "data/articles_cache.json",
		TTL:      24 * time.Hour,
		Live:     3,
		Expired:  1,
		ByTopic:  map[article.Topic]int{article.TopicScience: 2, article.TopicArt: 1},
		BySource: map[string]int{"BBC News": 3},
	})

	out := buf.String()
	assert.Contains(t, out, "Entries: 3 live, 1 expired")
	assert.Less(t, strings.Index(out, "  art"), strings.Index(out, "  science"))
	assert.Contains(t, out, "BBC News")
	assert.NotContains(t, out, "Oldest:")
}

// TestPrintTopics verifies weights are shown as percentages
func TestPrintTopics(t *testing.T) {
	var buf bytes.Buffer
	printTopics(&buf, topics.Default())

	assert.Contains(t, buf.String(), "business")
	assert.Contains(t, buf.String(), "%")
}
