package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/pevans/dailyarticle/fetcher"
	"go.uber.org/zap"
)

// Strategy names the extraction path that produced a Content.
type Strategy string

const (
	StrategyReadability Strategy = "readability"
	StrategyFallback    Strategy = "fallback"
)

// Content is the article data derived from a single page.
type Content struct {
	URL         string
	Title       string
	Text        string
	Authors     []string
	PublishDate string
	TopImage    string
	Keywords    []string
	Summary     string
	Strategy    Strategy
}

// Options tunes extraction for a particular source.
type Options struct {
	// ContentSelectors are tried, in order, before the generic content
	// selectors when locating the main content element.
	ContentSelectors []string
	// TitleSelector, when set, takes the title from the first matching
	// element instead of the page metadata.
	TitleSelector string
	// SkipReadability forces the selector-based path.
	SkipReadability bool
}

// Getter downloads a page. *fetcher.Fetcher satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) (*fetcher.Response, error)
}

// Extractor downloads article pages and derives their text and metadata.
type Extractor struct {
	getter Getter
	logger *zap.Logger
}

// New creates an Extractor that downloads pages through getter.
func New(getter Getter, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		getter: getter,
		logger: logger.With(zap.String("component", "extractor")),
	}
}

// Extract downloads pageURL and extracts its content. Failures are returned
// as *ExtractionError; callers are expected to degrade to whatever listing or
// feed data they already hold.
func (e *Extractor) Extract(ctx context.Context, pageURL string, opts Options) (*Content, error) {
	resp, err := e.getter.Get(ctx, pageURL)
	if err != nil {
		return nil, &ExtractionError{URL: pageURL, Kind: KindFetchFailure, Err: err}
	}

	base := resp.FinalURL
	if base == "" {
		base = pageURL
	}

	content, err := FromHTML(resp.Body, base, opts)
	if err != nil {
		e.logger.Debug("extraction failed", zap.String("url", pageURL), zap.Error(err))
		return nil, err
	}

	e.logger.Debug("extracted article",
		zap.String("url", pageURL),
		zap.String("strategy", string(content.Strategy)),
		zap.Int("text_length", len(content.Text)),
	)
	return content, nil
}

// FromHTML extracts content from an already downloaded page. Readability is
// tried first; the selector and paragraph-density rules are used when it
// fails or yields no text.
func FromHTML(body []byte, pageURL string, opts Options) (*Content, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, &ExtractionError{URL: pageURL, Kind: KindParseFailure, Err: fmt.Errorf("invalid page URL: %w", err)}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ExtractionError{URL: pageURL, Kind: KindParseFailure, Err: fmt.Errorf("failed to parse HTML: %w", err)}
	}

	// Metadata must be read before the fallback path prunes the tree.
	meta := readMeta(doc)
	var selectedTitle string
	if opts.TitleSelector != "" {
		selectedTitle = normalizeSpace(doc.Find(opts.TitleSelector).First().Text())
	}

	var content *Content
	if !opts.SkipReadability {
		content = fromReadability(body, parsedURL)
	}
	if content == nil {
		content = fromSelectors(doc, opts.ContentSelectors)
	}
	if content.Text == "" {
		return nil, &ExtractionError{URL: pageURL, Kind: KindNoContentFound}
	}

	content.URL = pageURL
	if selectedTitle != "" {
		content.Title = selectedTitle
	}
	meta.fill(content)
	content.TopImage = resolveURL(parsedURL, content.TopImage)

	content.Keywords = Keywords(content.Text, 10)
	content.Summary = Summarize(content.Text, 3)

	return content, nil
}

// fromReadability runs the readability algorithm. It returns nil when the
// page could not be processed or produced no text.
func fromReadability(body []byte, pageURL *url.URL) *Content {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return nil
	}

	text := cleanText(article.TextContent)
	if text == "" {
		return nil
	}

	content := &Content{
		Title:    normalizeSpace(article.Title),
		Text:     text,
		Authors:  ParseAuthors(normalizeSpace(article.Byline)),
		TopImage: strings.TrimSpace(article.Image),
		Strategy: StrategyReadability,
	}
	if article.PublishedTime != nil && !article.PublishedTime.IsZero() {
		content.PublishDate = article.PublishedTime.Format(time.RFC3339)
	}
	return content
}

// cleanText collapses whitespace inside each line, drops blank lines and any
// "Related Topics" residue, and separates the remaining lines with blank
// lines.
func cleanText(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = normalizeSpace(relatedTopicsLine.ReplaceAllString(line, ""))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n\n")
}

// normalizeSpace replaces runs of whitespace with a single space.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// resolveURL makes ref absolute against base. Empty or unparsable refs are
// returned unchanged.
func resolveURL(base *url.URL, ref string) string {
	if ref == "" || base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
