package scraper

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// listItem is one article teaser found on a listing page.
type listItem struct {
	Title    string
	URL      string
	Summary  string
	ImageURL string
	Category string
}

// scrapeListing reads up to page.Limit items from a listing page. Items
// without a usable link, or outside page.LinkPrefix, are dropped.
func (b *base) scrapeListing(ctx context.Context, page ListConfig) ([]listItem, error) {
	doc, err := b.deps.Fetcher.Document(ctx, page.URL)
	if err != nil {
		return nil, err
	}

	items := make([]listItem, 0)
	doc.Find(page.ItemSelector).EachWithBreak(func(i int, el *goquery.Selection) bool {
		if page.Limit > 0 && i >= page.Limit {
			return false
		}

		item, ok := parseListItem(el, page, b.cfg.BaseURL)
		if ok {
			items = append(items, item)
		}
		return true
	})

	return items, nil
}

// parseListItem maps a listing element onto a listItem.
func parseListItem(el *goquery.Selection, page ListConfig, baseURL string) (listItem, bool) {
	titleEl := el
	if page.TitleSelector != "" {
		titleEl = el.Find(page.TitleSelector).First()
	}

	href := listItemHref(el, titleEl, page)
	if href == "" {
		return listItem{}, false
	}

	base := page.URL
	if base == "" {
		base = baseURL
	}
	link := resolveURL(base, href)
	if page.LinkPrefix != "" && !strings.HasPrefix(link, page.LinkPrefix) {
		return listItem{}, false
	}

	item := listItem{
		Title:    normalizeSpace(titleEl.Text()),
		URL:      link,
		Category: page.Category,
	}
	if page.SummarySelector != "" {
		item.Summary = normalizeSpace(el.Find(page.SummarySelector).First().Text())
	}
	if page.ImageSelector != "" {
		if img := el.Find(page.ImageSelector).First(); img.Length() > 0 {
			item.ImageURL = resolveURL(base, imageSource(img))
		}
	}
	return item, true
}

// listItemHref finds the article link of a listing element: the explicit
// link selector, else the title element when it is a link, else the element
// itself, else its first link.
func listItemHref(el, titleEl *goquery.Selection, page ListConfig) string {
	candidates := make([]*goquery.Selection, 0, 3)
	if page.LinkSelector != "" {
		candidates = append(candidates, el.Find(page.LinkSelector).First())
	} else {
		candidates = append(candidates, titleEl, el, el.Find("a[href]").First())
	}

	for _, c := range candidates {
		if c.Length() == 0 || goquery.NodeName(c) != "a" {
			continue
		}
		if href, ok := c.Attr("href"); ok && strings.TrimSpace(href) != "" {
			return strings.TrimSpace(href)
		}
	}
	return ""
}
