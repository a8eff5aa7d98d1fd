package article

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticNames map[Topic]string

func (s staticNames) DisplayName(topic Topic) string {
	return s[topic]
}

// TestBody_PrefersContent verifies content wins over summary when present
func TestBody_PrefersContent(t *testing.T) {
	a := Article{Summary: "short", Content: "long form"}
	assert.Equal(t, "long form", a.Body())

	a.Content = ""
	assert.Equal(t, "short", a.Body())
}

// TestFilterByTopic verifies only matching articles are returned in order
func TestFilterByTopic(t *testing.T) {
	articles := []Article{
		{URL: "a", Topic: TopicScience},
		{URL: "b", Topic: TopicArt},
		{URL: "c", Topic: TopicScience},
	}

	matched := FilterByTopic(articles, TopicScience)

	require.Len(t, matched, 2)
	assert.Equal(t, "a", matched[0].URL)
	assert.Equal(t, "c", matched[1].URL)
	assert.Empty(t, FilterByTopic(articles, TopicPhilosophy))
}

// TestDedupByURL verifies the first occurrence of a URL wins
func TestDedupByURL(t *testing.T) {
	articles := []Article{
		{URL: "https://example.com/1", Title: "first"},
		{URL: "https://example.com/1", Title: "second"},
		{URL: "", Title: "no url"},
		{URL: "https://example.com/2", Title: "third"},
	}

	out := DedupByURL(articles)

	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Title)
	assert.Equal(t, "third", out[1].Title)
}

// TestNewView verifies render-ready fields and topic display names
func TestNewView(t *testing.T) {
	a := &Article{
		Title:         "Rivers",
		URL:           "https://example.com/rivers",
		Summary:       "about rivers",
		Source:        "BBC News",
		Topic:         TopicScience,
		PublishedDate: "Mon, 02 Jan 2006",
		ImageURL:      "https://example.com/r.jpg",
	}

	view := NewView(a, staticNames{TopicScience: "Science, environment, and technology"})

	assert.Equal(t, "Rivers", view.Title)
	assert.Equal(t, "Science, environment, and technology", view.TopicName)
	assert.Equal(t, "about rivers", view.Body)
	assert.Equal(t, "https://example.com/r.jpg", view.ImageURL)

	// Without a namer the key is used
	view = NewView(a, nil)
	assert.Equal(t, "science", view.TopicName)
}
