package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// pageMeta holds metadata read from a page's head and markup.
type pageMeta struct {
	title       string
	image       string
	authors     []string
	publishDate string
}

// readMeta collects Open Graph and article metadata from doc.
func readMeta(doc *goquery.Document) pageMeta {
	meta := pageMeta{
		title: firstNonEmpty(
			attr(doc, `meta[property="og:title"]`, "content"),
			normalizeSpace(doc.Find("h1").First().Text()),
			normalizeSpace(doc.Find("title").First().Text()),
		),
		image: firstNonEmpty(
			attr(doc, `meta[property="og:image"]`, "content"),
			attr(doc, `meta[name="twitter:image"]`, "content"),
		),
		publishDate: firstNonEmpty(
			attr(doc, `meta[property="article:published_time"]`, "content"),
			attr(doc, `meta[name="pubdate"]`, "content"),
			attr(doc, `meta[itemprop="datePublished"]`, "content"),
			attr(doc, "time[datetime]", "datetime"),
		),
	}

	author := attr(doc, `meta[name="author"]`, "content")
	if author == "" {
		// article:author is often a profile URL, which is not a name.
		if a := attr(doc, `meta[property="article:author"]`, "content"); !strings.HasPrefix(a, "http") {
			author = a
		}
	}
	meta.authors = ParseAuthors(author)

	return meta
}

// fill copies metadata into c wherever c has no value of its own.
func (m pageMeta) fill(c *Content) {
	if c.Title == "" {
		c.Title = m.title
	}
	if c.TopImage == "" {
		c.TopImage = m.image
	}
	if len(c.Authors) == 0 {
		c.Authors = m.authors
	}
	if c.PublishDate == "" {
		c.PublishDate = m.publishDate
	}
}

func attr(doc *goquery.Document, selector, name string) string {
	value, _ := doc.Find(selector).First().Attr(name)
	return strings.TrimSpace(value)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ParseAuthors splits a single author string into multiple authors if it
// contains common delimiters.
func ParseAuthors(authorText string) []string {
	authorText = strings.TrimSpace(authorText)
	if authorText == "" {
		return []string{}
	}

	// Split on ", " first, then " and "
	for _, sep := range []string{", ", " and "} {
		if !strings.Contains(authorText, sep) {
			continue
		}
		authors := []string{}
		for part := range strings.SplitSeq(authorText, sep) {
			part = strings.TrimSpace(part)
			if part != "" {
				authors = append(authors, part)
			}
		}
		return authors
	}

	// No delimiters found, return as single author
	return []string{authorText}
}
