package scraper

import (
	"context"

	"github.com/pevans/dailyarticle/article"
	"go.uber.org/zap"
)

// SectionScraper reads a source's section listing pages and follows every
// item to its article page for the full text.
type SectionScraper struct {
	base
}

// ScrapeArticles implements Scraper.
func (s *SectionScraper) ScrapeArticles(ctx context.Context) *Report {
	report := s.newReport()

	for _, section := range s.cfg.Sections {
		if ctx.Err() != nil {
			break
		}

		items, err := s.scrapeListing(ctx, section)
		if err != nil {
			report.fail(StageListing, section.URL, err)
			s.deps.Logger.Warn("failed to read section page",
				zap.String("category", section.Category),
				zap.String("url", section.URL),
				zap.Error(err),
			)
			continue
		}

		for _, item := range items {
			if ctx.Err() != nil {
				break
			}
			a, err := s.fromListItem(ctx, item, report)
			if err != nil {
				report.fail(StageItem, item.URL, err)
				continue
			}
			report.Articles = append(report.Articles, a)
		}
	}

	return s.finish(report)
}

// fromListItem downloads the article behind a listing item. When extraction
// fails the listing's own title and summary are used if both exist;
// otherwise the item is skipped.
func (s *SectionScraper) fromListItem(ctx context.Context, item listItem, report *Report) (article.Article, error) {
	a := article.Article{
		Title:       item.Title,
		URL:         item.URL,
		Summary:     item.Summary,
		Source:      s.cfg.Name,
		SourceKey:   s.cfg.Key,
		Category:    item.Category,
		ImageURL:    item.ImageURL,
		ScrapedTime: s.deps.Now(),
	}

	content, err := s.deps.Extractor.Extract(ctx, item.URL, s.extractOptions())
	if err != nil {
		report.fail(StageExtract, item.URL, err)
		if a.Title == "" || a.Summary == "" {
			return article.Article{}, ErrNoContent
		}
	} else {
		if content.Title != "" && (a.Title == "" || s.cfg.Article.TitleSelector != "") {
			a.Title = content.Title
		}
		a.Content = content.Text
		if a.Summary == "" {
			a.Summary = content.Summary
		}
		if a.ImageURL == "" {
			a.ImageURL = content.TopImage
		}
		a.Authors = content.Authors
		a.PublishedDate = content.PublishDate
	}

	if a.Title == "" {
		return article.Article{}, ErrMissingTitle
	}

	a.Topic = s.deps.Classifier.Classify(a.Title, a.Body())
	return a, nil
}
