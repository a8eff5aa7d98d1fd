// Package registry holds the set of source scrapers and their tiers.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/pevans/dailyarticle/scraper"
)

// ErrDuplicateScraper is returned when two scrapers share a key.
var ErrDuplicateScraper = errors.New("duplicate scraper key")

// Registry is the fixed list of scrapers built at startup. Membership of the
// primary and backup subsets comes from each scraper's configured tier.
type Registry struct {
	all   []scraper.Scraper
	byKey map[string]scraper.Scraper
}

// New creates a registry from scrapers in the order given. That order is the
// order in which scrapers run when a tier is gathered.
func New(scrapers ...scraper.Scraper) (*Registry, error) {
	r := &Registry{
		all:   make([]scraper.Scraper, 0, len(scrapers)),
		byKey: make(map[string]scraper.Scraper, len(scrapers)),
	}
	for _, s := range scrapers {
		if _, exists := r.byKey[s.Key()]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScraper, s.Key())
		}
		r.all = append(r.all, s)
		r.byKey[s.Key()] = s
	}
	return r, nil
}

// All returns every registered scraper.
func (r *Registry) All() []scraper.Scraper {
	return append([]scraper.Scraper(nil), r.all...)
}

// Primary returns the scrapers tried first when the cache is empty.
func (r *Registry) Primary() []scraper.Scraper {
	return r.Tier(scraper.TierPrimary)
}

// Backup returns the scrapers tried when the primary tier found nothing.
func (r *Registry) Backup() []scraper.Scraper {
	return r.Tier(scraper.TierBackup)
}

// Tier returns the scrapers of one tier.
func (r *Registry) Tier(tier scraper.Tier) []scraper.Scraper {
	out := make([]scraper.Scraper, 0)
	for _, s := range r.all {
		if s.Tier() == tier {
			out = append(out, s)
		}
	}
	return out
}

// Get looks up a scraper by key.
func (r *Registry) Get(key string) (scraper.Scraper, bool) {
	s, ok := r.byKey[key]
	return s, ok
}

// Keys returns the scraper keys in registration order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.all))
	for i, s := range r.all {
		keys[i] = s.Key()
	}
	return keys
}

// Run scrapes with each of the given scrapers in turn and returns their
// reports. It stops early only when ctx is done.
func Run(ctx context.Context, scrapers []scraper.Scraper) []*scraper.Report {
	reports := make([]*scraper.Report, 0, len(scrapers))
	for _, s := range scrapers {
		if ctx.Err() != nil {
			break
		}
		reports = append(reports, s.ScrapeArticles(ctx))
	}
	return reports
}
