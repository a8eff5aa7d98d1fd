package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pevans/dailyarticle/article"
	"github.com/pevans/dailyarticle/cache"
	"github.com/pevans/dailyarticle/runlog"
	"github.com/pevans/dailyarticle/scraper"
	"github.com/pevans/dailyarticle/topics"
)

// printArticle prints an article in human-readable form
func printArticle(w io.Writer, v article.View, date string) {
	if date != "" {
		fmt.Fprintf(w, "Article of the day for %s\n\n", date)
	}

	fmt.Fprintln(w, v.Title)
	fmt.Fprintln(w, strings.Repeat("=", min(len(v.Title), 80)))

	meta := []string{v.Source, v.TopicName}
	if v.PublishedDate != "" {
		meta = append(meta, v.PublishedDate)
	}
	fmt.Fprintln(w, strings.Join(meta, " | "))
	if len(v.Authors) > 0 {
		fmt.Fprintf(w, "By %s\n", strings.Join(v.Authors, ", "))
	}
	if v.ImageURL != "" {
		fmt.Fprintf(w, "Image: %s\n", v.ImageURL)
	}
	fmt.Fprintln(w)

	if v.Body != "" {
		for _, para := range strings.Split(v.Body, "\n\n") {
			fmt.Fprintln(w, wrapText(para, 80))
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintf(w, "Read more: %s\n", v.URL)
}

// printJSON prints any value as indented JSON
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	fmt.Fprintln(w, string(data))
	return nil
}

// printReport prints a one-line summary of a scrape
func printReport(w io.Writer, r *scraper.Report) {
	line := fmt.Sprintf("%-10s %3d articles  %3d new  %3d failures",
		r.SourceKey, len(r.Articles), r.Added, len(r.Failures))
	if r.UsedFallback {
		line += fmt.Sprintf("  (fallback tier %d)", r.FallbackTier)
	}
	fmt.Fprintln(w, line)
}

// printRuns prints scraper runs as a table
func printRuns(w io.Writer, runs []runlog.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	fmt.Fprintf(w, "%-10s %-16s %8s %5s %5s %8s %s\n", "SOURCE", "STARTED", "ARTICLES", "NEW", "FAIL", "DURATION", "FALLBACK")
	fmt.Fprintln(w, strings.Repeat("-", 72))
	for _, r := range runs {
		fallback := "-"
		if r.UsedFallback {
			fallback = fmt.Sprintf("tier %d", r.FallbackTier)
		}
		fmt.Fprintf(w, "%-10s %-16s %8d %5d %5d %8s %s\n",
			r.SourceKey,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Articles,
			r.Added,
			r.Failures,
			r.Duration().Round(time.Second),
			fallback,
		)
	}
}

// printCacheStats prints cache statistics
func printCacheStats(w io.Writer, s *cache.Stats) {
	fmt.Fprintf(w, "Cache: %s\n", s.Path)
	fmt.Fprintf(w, "TTL: %s\n", s.TTL)
	fmt.Fprintf(w, "Entries: %d live, %d expired\n", s.Live, s.Expired)
	if !s.Oldest.IsZero() {
		fmt.Fprintf(w, "Oldest: %s\n", s.Oldest.Local().Format("2006-01-02 15:04"))
		fmt.Fprintf(w, "Newest: %s\n", s.Newest.Local().Format("2006-01-02 15:04"))
	}

	if len(s.ByTopic) > 0 {
		fmt.Fprintln(w, "\nBy topic:")
		for _, topic := range sortedKeys(s.ByTopic) {
			fmt.Fprintf(w, "  %-12s %d\n", topic, s.ByTopic[topic])
		}
	}
	if len(s.BySource) > 0 {
		fmt.Fprintln(w, "\nBy source:")
		for _, source := range sortedKeys(s.BySource) {
			fmt.Fprintf(w, "  %-20s %d\n", source, s.BySource[source])
		}
	}
}

// printTopics prints the topic table
func printTopics(w io.Writer, cfg *topics.Config) {
	fmt.Fprintf(w, "%-12s %6s  %s\n", "TOPIC", "WEIGHT", "NAME")
	for _, t := range cfg.Topics {
		fmt.Fprintf(w, "%-12s %5.1f%%  %s\n", t.Key, t.Probability*100, t.DisplayName)
		fmt.Fprintf(w, "%-12s %6s  %s\n", "", "", truncate(strings.Join(t.Keywords, ", "), 60))
	}
}

// truncate shortens s to at most n bytes, marking the cut with "..."
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

// wrapText wraps text to a maximum line width
func wrapText(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	var lines []string
	var currentLine strings.Builder

	for _, word := range words {
		if currentLine.Len() == 0 {
			currentLine.WriteString(word)
		} else if currentLine.Len()+1+len(word) <= width {
			currentLine.WriteString(" ")
			currentLine.WriteString(word)
		} else {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentLine.WriteString(word)
		}
	}

	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return strings.Join(lines, "\n")
}
