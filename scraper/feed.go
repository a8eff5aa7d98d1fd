package scraper

import (
	"context"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/pevans/dailyarticle/article"
	"go.uber.org/zap"
)

// FeedScraper reads a source's RSS feeds, falling back to its listing pages
// when no feed produced anything.
type FeedScraper struct {
	base
}

// ScrapeArticles implements Scraper.
func (s *FeedScraper) ScrapeArticles(ctx context.Context) *Report {
	report := s.newReport()

	for _, feed := range s.cfg.Feeds {
		if ctx.Err() != nil {
			break
		}
		report.FeedsTried++

		parsed, err := s.deps.Fetcher.Feed(ctx, feed.URL)
		if err != nil {
			report.FeedsFailed++
			report.fail(StageFeed, feed.URL, err)
			s.deps.Logger.Warn("failed to read feed",
				zap.String("category", feed.Category),
				zap.String("url", feed.URL),
				zap.Error(err),
			)
			continue
		}

		items := parsed.Items
		if s.cfg.EntryLimit > 0 && len(items) > s.cfg.EntryLimit {
			items = items[:s.cfg.EntryLimit]
		}
		for _, item := range items {
			a, err := s.fromItem(ctx, item, feed.Category, report)
			if err != nil {
				report.fail(StageItem, item.Link, err)
				continue
			}
			report.Articles = append(report.Articles, a)
		}
	}

	if len(report.Articles) == 0 && len(s.cfg.Fallback) > 0 && ctx.Err() == nil {
		s.deps.Logger.Info("feeds produced no articles, trying listing pages")
		report.UsedFallback = true
		s.scrapeFallback(ctx, report)
	}

	return s.finish(report)
}

// scrapeFallback runs the fallback tiers in order, stopping at the first
// tier that produced articles.
func (s *FeedScraper) scrapeFallback(ctx context.Context, report *Report) {
	for i, tier := range s.cfg.Fallback {
		for _, page := range tier.Pages {
			if ctx.Err() != nil {
				return
			}

			items, err := s.scrapeListing(ctx, page)
			if err != nil {
				report.fail(StageListing, page.URL, err)
				s.deps.Logger.Warn("failed to read listing page",
					zap.String("url", page.URL),
					zap.Error(err),
				)
				continue
			}

			for _, item := range items {
				if item.Title == "" {
					report.fail(StageItem, item.URL, ErrMissingTitle)
					continue
				}
				report.Articles = append(report.Articles, article.Article{
					Title:       item.Title,
					URL:         item.URL,
					Summary:     item.Summary,
					Source:      s.cfg.Name,
					SourceKey:   s.cfg.Key,
					Topic:       s.deps.Classifier.Classify(item.Title, item.Summary),
					Category:    item.Category,
					ImageURL:    item.ImageURL,
					ScrapedTime: s.deps.Now(),
				})
			}
		}

		if len(report.Articles) > 0 {
			report.FallbackTier = i + 1
			return
		}
	}
}

// fromItem maps a feed entry to an Article. With deep extraction enabled the
// article page is downloaded and every non-empty extracted field replaces the
// feed's; extraction failures are recorded and the feed fields are kept.
func (s *FeedScraper) fromItem(ctx context.Context, item *gofeed.Item, category string, report *Report) (article.Article, error) {
	title := stripHTML(item.Title)
	if title == "" {
		return article.Article{}, ErrMissingTitle
	}

	link := strings.TrimSpace(item.Link)
	if link == "" && strings.HasPrefix(item.GUID, "http") {
		link = strings.TrimSpace(item.GUID)
	}
	if link == "" {
		return article.Article{}, ErrMissingURL
	}

	rawSummary := item.Description
	if strings.TrimSpace(rawSummary) == "" {
		rawSummary = item.Content
	}

	published := strings.TrimSpace(item.Published)
	if published == "" {
		published = strings.TrimSpace(item.Updated)
	}

	a := article.Article{
		Title:         title,
		URL:           link,
		Summary:       stripHTML(rawSummary),
		Source:        s.cfg.Name,
		SourceKey:     s.cfg.Key,
		Category:      category,
		Authors:       itemAuthors(item),
		ImageURL:      itemImage(item, rawSummary),
		PublishedDate: published,
		ScrapedTime:   s.deps.Now(),
	}

	if s.cfg.DeepExtract {
		content, err := s.deps.Extractor.Extract(ctx, link, s.extractOptions())
		if err != nil {
			report.fail(StageExtract, link, err)
		} else {
			a.Content = content.Text
			if content.Summary != "" {
				a.Summary = content.Summary
			}
			if content.TopImage != "" {
				a.ImageURL = content.TopImage
			}
			if len(content.Authors) > 0 {
				a.Authors = content.Authors
			}
			if content.PublishDate != "" {
				a.PublishedDate = content.PublishDate
			}
		}
	}

	a.Topic = s.deps.Classifier.Classify(a.Title, a.Body())
	return a, nil
}

// itemImage picks an image for a feed entry: media:content, then an image
// enclosure, then media:thumbnail, then the feed's own image field, then the
// first <img> in the entry summary.
func itemImage(item *gofeed.Item, rawSummary string) string {
	media := item.Extensions["media"]

	for _, m := range mediaElements(media, "content") {
		if u := m.Attrs["url"]; u != "" && isImageMedia(m) {
			return u
		}
	}
	for _, enc := range item.Enclosures {
		if enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	for _, m := range mediaElements(media, "thumbnail") {
		if u := m.Attrs["url"]; u != "" {
			return u
		}
	}
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	return firstImageSrc(rawSummary)
}

// mediaElements returns the media:<name> elements of an entry, including
// those nested in a media:group.
func mediaElements(media map[string][]ext.Extension, name string) []ext.Extension {
	if media == nil {
		return nil
	}
	elements := append([]ext.Extension{}, media[name]...)
	for _, group := range media["group"] {
		elements = append(elements, group.Children[name]...)
	}
	return elements
}

// isImageMedia reports whether a media:content element refers to an image.
// Elements without a medium or type are assumed to be images.
func isImageMedia(m ext.Extension) bool {
	if medium := m.Attrs["medium"]; medium != "" {
		return medium == "image"
	}
	if typ := m.Attrs["type"]; typ != "" {
		return strings.HasPrefix(typ, "image/")
	}
	return true
}

// itemAuthors collects author names from an entry's author fields and Dublin
// Core creators, without duplicates.
func itemAuthors(item *gofeed.Item) []string {
	authors := make([]string, 0)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		for _, existing := range authors {
			if strings.EqualFold(existing, name) {
				return
			}
		}
		authors = append(authors, name)
	}

	if item.Author != nil {
		add(item.Author.Name)
	}
	for _, author := range item.Authors {
		if author != nil {
			add(author.Name)
		}
	}
	if item.DublinCoreExt != nil {
		for _, creator := range item.DublinCoreExt.Creator {
			add(creator)
		}
	}
	return authors
}
