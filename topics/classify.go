package topics

import (
	"strings"

	"github.com/pevans/dailyarticle/article"
)

// Scores holds the weighted score of every topic for one article.
type Scores map[article.Topic]float64

// Score computes the weighted keyword score of every topic. A keyword found
// in the title counts 2, found in the body counts 1; matching is a
// case-insensitive substring test. The raw count is multiplied by the topic
// probability.
func (c *Config) Score(title, body string) Scores {
	titleLower := strings.ToLower(title)
	bodyLower := strings.ToLower(body)

	scores := make(Scores, len(c.Topics))
	for _, t := range c.Topics {
		raw := 0
		for _, kw := range t.Keywords {
			if strings.Contains(titleLower, kw) {
				raw += 2
			}
			if strings.Contains(bodyLower, kw) {
				raw++
			}
		}
		scores[t.Key] = float64(raw) * t.Probability
	}
	return scores
}

// Classify assigns exactly one topic to an article. The topic with the
// highest weighted score wins; ties go to the topic listed first. When
// nothing matches the first topic in the table is returned.
func (c *Config) Classify(title, body string) article.Topic {
	scores := c.Score(title, body)

	best := c.Topics[0].Key
	bestScore := scores[best]
	for _, t := range c.Topics[1:] {
		if scores[t.Key] > bestScore {
			best = t.Key
			bestScore = scores[t.Key]
		}
	}
	return best
}
