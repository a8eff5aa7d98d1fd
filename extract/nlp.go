package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var sentenceBoundary = regexp.MustCompile(`[^.!?]+[.!?]+["')\]]*`)

// stopWords are skipped when ranking keywords.
var stopWords = map[string]bool{
	"about": true, "after": true, "again": true, "also": true, "among": true,
	"been": true, "before": true, "being": true, "between": true, "both": true,
	"could": true, "does": true, "doing": true, "down": true, "during": true,
	"each": true, "even": true, "from": true, "have": true, "having": true,
	"here": true, "into": true, "just": true, "like": true, "many": true,
	"more": true, "most": true, "much": true, "must": true, "only": true,
	"other": true, "over": true, "said": true, "same": true, "says": true,
	"should": true, "since": true, "some": true, "such": true, "than": true,
	"that": true, "their": true, "them": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "those": true, "through": true,
	"under": true, "until": true, "very": true, "were": true, "what": true,
	"when": true, "where": true, "which": true, "while": true, "will": true,
	"with": true, "would": true, "year": true, "years": true, "your": true,
}

// Keywords returns up to limit of the most frequent significant words in
// text. Words shorter than four letters and stop words are ignored; ties
// keep the order of first appearance.
func Keywords(text string, limit int) []string {
	if limit <= 0 || text == "" {
		return nil
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, w := range words {
		w = strings.Trim(w, "-")
		if len([]rune(w)) < 4 || stopWords[w] {
			continue
		}
		if _, ok := counts[w]; !ok {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > limit {
		order = order[:limit]
	}
	if len(order) == 0 {
		return nil
	}
	return order
}

// Summarize returns the first n sentences of text. Text without sentence
// punctuation is returned whole.
func Summarize(text string, n int) string {
	text = normalizeSpace(text)
	if text == "" || n <= 0 {
		return ""
	}

	sentences := sentenceBoundary.FindAllString(text, n)
	if len(sentences) == 0 {
		return text
	}

	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	return strings.Join(sentences, " ")
}
