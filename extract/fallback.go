package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultContentSelectors locate the main content element, in priority
// order.
var DefaultContentSelectors = []string{
	"article",
	"main",
	".article",
	".story",
	".content",
	".post-content",
	`[itemprop="articleBody"]`,
}

// noiseSelector matches elements that never carry article text.
const noiseSelector = "script, style, nav, header, footer, aside, form, iframe, noscript"

// minParagraphLength is the length a non-heading block must exceed to be
// kept.
const minParagraphLength = 40

// relatedTopicsAscent is how many ancestors are inspected when looking for
// the container of a "Related Topics" block.
const relatedTopicsAscent = 5

var (
	relatedTopics     = regexp.MustCompile(`(?i)related topics`)
	relatedTopicsLine = regexp.MustCompile(`(?i)related topics.*`)
)

// fromSelectors is the selector and paragraph-density extraction path. It
// mutates doc.
func fromSelectors(doc *goquery.Document, preferred []string) *Content {
	doc.Find(noiseSelector).Remove()
	removeRelatedTopics(doc)

	main := mainContent(doc, preferred)

	return &Content{
		Text:     blockText(main),
		Strategy: StrategyFallback,
	}
}

// removeRelatedTopics deletes "Related Topics" link blocks. For every text
// node mentioning them, the nearest div, section, article, or aside within a
// few levels is removed; failing that, the text node's parent is removed.
func removeRelatedTopics(doc *goquery.Document) {
	var matches []*html.Node
	for _, root := range doc.Nodes {
		walk(root, func(n *html.Node) {
			if n.Type == html.TextNode && relatedTopics.MatchString(n.Data) {
				matches = append(matches, n)
			}
		})
	}

	for _, n := range matches {
		target := relatedContainer(n)
		if target == nil || target.Parent == nil {
			continue
		}
		target.Parent.RemoveChild(target)
	}
}

// relatedContainer picks the node to remove for a matching text node.
func relatedContainer(text *html.Node) *html.Node {
	parent := text.Parent
	if parent == nil {
		return nil
	}

	cur := parent
	for range relatedTopicsAscent {
		if cur == nil || cur.Type != html.ElementNode ||
			cur.DataAtom == atom.Body || cur.DataAtom == atom.Html {
			break
		}
		switch cur.DataAtom {
		case atom.Div, atom.Section, atom.Article, atom.Aside:
			return cur
		}
		cur = cur.Parent
	}

	// Never remove the document body itself.
	if parent.DataAtom == atom.Body || parent.DataAtom == atom.Html {
		return text
	}
	return parent
}

// walk visits n and its descendants in document order.
func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// mainContent finds the element holding the article body: the first
// non-empty match of the preferred and default selectors, else the element
// that directly contains the most paragraphs, else the body.
func mainContent(doc *goquery.Document, preferred []string) *goquery.Selection {
	selectors := make([]string, 0, len(preferred)+len(DefaultContentSelectors))
	selectors = append(selectors, preferred...)
	selectors = append(selectors, DefaultContentSelectors...)

	for _, sel := range selectors {
		match := doc.Find(sel).First()
		if match.Length() > 0 && strings.TrimSpace(match.Text()) != "" {
			return match
		}
	}

	if densest := densestParagraphParent(doc); densest != nil {
		return densest
	}

	return doc.Find("body").First()
}

// densestParagraphParent returns the parent of the largest number of <p>
// elements. Ties go to the parent encountered first.
func densestParagraphParent(doc *goquery.Document) *goquery.Selection {
	counts := make(map[*html.Node]int)
	order := make([]*html.Node, 0)

	doc.Find("p").Each(func(i int, p *goquery.Selection) {
		parent := p.Get(0).Parent
		if parent == nil {
			return
		}
		if _, ok := counts[parent]; !ok {
			order = append(order, parent)
		}
		counts[parent]++
	})

	var best *html.Node
	bestCount := 0
	for _, n := range order {
		if counts[n] > bestCount {
			best = n
			bestCount = counts[n]
		}
	}
	if best == nil {
		return nil
	}
	return doc.FindNodes(best)
}

// blockText collects headings and substantial paragraphs from main. Text
// following a "Related Topics" marker is skipped until the next heading.
// When nothing qualifies, the whole text of main is used with "Related
// Topics" lines removed.
func blockText(main *goquery.Selection) string {
	if main == nil || main.Length() == 0 {
		return ""
	}

	blocks := make([]string, 0)
	skipping := false
	main.Find("p, h1, h2, h3, h4, h5, h6").Each(func(i int, s *goquery.Selection) {
		text := normalizeSpace(s.Text())
		if text == "" {
			return
		}
		if relatedTopics.MatchString(text) {
			skipping = true
			return
		}

		if isHeading(s) {
			skipping = false
			blocks = append(blocks, text)
			return
		}

		if skipping {
			return
		}
		if len(text) > minParagraphLength {
			blocks = append(blocks, text)
		}
	})

	if len(blocks) > 0 {
		return strings.Join(blocks, "\n\n")
	}

	return cleanText(main.Text())
}

func isHeading(s *goquery.Selection) bool {
	switch goquery.NodeName(s) {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}
