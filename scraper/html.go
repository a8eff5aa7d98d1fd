package scraper

import (
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// stripHTML returns the visible text of an HTML fragment with entities
// decoded and whitespace collapsed.
func stripHTML(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	text := fragment
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment)); err == nil {
		text = doc.Text()
	}

	// Some feeds double-escape their entities.
	return normalizeSpace(html.UnescapeString(text))
}

// firstImageSrc returns the src of the first <img> in an HTML fragment.
func firstImageSrc(fragment string) string {
	if !strings.Contains(fragment, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}

// imageSource prefers a lazy-loading data-src over src.
func imageSource(img *goquery.Selection) string {
	if src, ok := img.Attr("data-src"); ok && strings.TrimSpace(src) != "" {
		return strings.TrimSpace(src)
	}
	src, _ := img.Attr("src")
	return strings.TrimSpace(src)
}

// normalizeSpace replaces runs of whitespace with a single space.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// resolveURL makes ref absolute against base. Unparsable values are
// returned unchanged.
func resolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
