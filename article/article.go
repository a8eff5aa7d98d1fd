package article

import (
	"time"
)

// Topic identifies one of the configured article topics.
type Topic string

// Built-in topic keys. The topic table may be overridden, but these are the
// keys shipped in the default configuration.
const (
	TopicBusiness   Topic = "business"
	TopicScience    Topic = "science"
	TopicArt        Topic = "art"
	TopicPhilosophy Topic = "philosophy"
)

// Article represents a single scraped news article. Articles are treated as
// immutable values once a scraper has produced them; the URL is the identity
// used for deduplication.
type Article struct {
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Summary       string    `json:"summary"`
	Content       string    `json:"content"`
	Source        string    `json:"source"`
	SourceKey     string    `json:"source_key,omitempty"`
	Topic         Topic     `json:"topic"`
	Category      string    `json:"category"`
	Authors       []string  `json:"authors,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	PublishedDate string    `json:"published_date,omitempty"`
	ScrapedTime   time.Time `json:"scraped_time"`
}

// Body returns the text to display for the article: the full content when
// present, otherwise the summary.
func (a *Article) Body() string {
	if a.Content != "" {
		return a.Content
	}
	return a.Summary
}

// FilterByTopic returns the articles classified under topic, preserving order.
func FilterByTopic(articles []Article, topic Topic) []Article {
	matched := make([]Article, 0)
	for _, a := range articles {
		if a.Topic == topic {
			matched = append(matched, a)
		}
	}
	return matched
}

// DedupByURL drops every article whose URL was already seen earlier in the
// slice. Articles with an empty URL are dropped as well.
func DedupByURL(articles []Article) []Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if a.URL == "" {
			continue
		}
		if _, ok := seen[a.URL]; ok {
			continue
		}
		seen[a.URL] = struct{}{}
		out = append(out, a)
	}
	return out
}
