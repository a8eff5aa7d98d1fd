package scraper

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed sources.yaml
var defaultSourcesYAML []byte

// Tier is the gathering tier a source belongs to.
type Tier string

const (
	TierPrimary Tier = "primary"
	TierBackup  Tier = "backup"
)

// Kind selects the scraper implementation for a source.
type Kind string

const (
	// KindFeed sources are read from RSS feeds, with optional listing-page
	// fallback tiers.
	KindFeed Kind = "feed"
	// KindSections sources are read from section listing pages, each item
	// followed to its article page.
	KindSections Kind = "sections"
)

// Errors returned while validating a source table.
var (
	ErrNoSources       = errors.New("source table is empty")
	ErrDuplicateSource = errors.New("duplicate source key")
	ErrInvalidSource   = errors.New("invalid source configuration")
)

// SourceConfig defines how to scrape one news source.
type SourceConfig struct {
	Key     string `yaml:"key"`
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
	Tier    Tier   `yaml:"tier"`
	Kind    Kind   `yaml:"kind"`

	// Feeds are read in order; EntryLimit caps the entries taken from each.
	Feeds      []FeedConfig `yaml:"feeds,omitempty"`
	EntryLimit int          `yaml:"entry_limit,omitempty"`
	// DeepExtract follows each feed entry to its article page for full text.
	DeepExtract bool `yaml:"deep_extract,omitempty"`
	// Fallback tiers are tried in order when every feed came back empty. A
	// tier is only tried when all earlier tiers produced nothing.
	Fallback []FallbackTier `yaml:"fallback,omitempty"`

	// Sections are the listing pages of a KindSections source.
	Sections []ListConfig `yaml:"sections,omitempty"`
	// Article tunes extraction of individual article pages.
	Article ArticleConfig `yaml:"article,omitempty"`
}

// FeedConfig is a single RSS or Atom feed of a source.
type FeedConfig struct {
	Category string `yaml:"category"`
	URL      string `yaml:"url"`
}

// FallbackTier is a group of listing pages scraped together.
type FallbackTier struct {
	Pages []ListConfig `yaml:"pages"`
}

// ListConfig defines how to discover articles from a listing page.
type ListConfig struct {
	Category string `yaml:"category"`
	URL      string `yaml:"url"`
	// ItemSelector matches one element per article. When LinkSelector is
	// empty the item itself must be the link.
	ItemSelector    string `yaml:"item_selector"`
	TitleSelector   string `yaml:"title_selector,omitempty"`
	LinkSelector    string `yaml:"link_selector,omitempty"`
	SummarySelector string `yaml:"summary_selector,omitempty"`
	ImageSelector   string `yaml:"image_selector,omitempty"`
	// LinkPrefix, when set, restricts items to links starting with it.
	LinkPrefix string `yaml:"link_prefix,omitempty"`
	Limit      int    `yaml:"limit"`
}

// ArticleConfig defines how to extract individual article pages.
type ArticleConfig struct {
	TitleSelector    string   `yaml:"title_selector,omitempty"`
	ContentSelectors []string `yaml:"content_selectors,omitempty"`
}

type sourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

// DefaultSources returns the built-in source table.
func DefaultSources() []SourceConfig {
	sources, err := ParseSources(defaultSourcesYAML)
	if err != nil {
		// The embedded table is part of the build.
		panic(fmt.Sprintf("invalid embedded source table: %v", err))
	}
	return sources
}

// LoadSources reads a source table from a YAML file. An empty path returns
// the built-in table.
func LoadSources(path string) ([]SourceConfig, error) {
	if path == "" {
		return DefaultSources(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}

	sources, err := ParseSources(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load source file %s: %w", path, err)
	}
	return sources, nil
}

// ParseSources decodes and validates a YAML source table.
func ParseSources(data []byte) ([]SourceConfig, error) {
	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse source table: %w", err)
	}
	if len(file.Sources) == 0 {
		return nil, ErrNoSources
	}

	seen := make(map[string]bool, len(file.Sources))
	for _, src := range file.Sources {
		if err := src.Validate(); err != nil {
			return nil, err
		}
		if seen[src.Key] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSource, src.Key)
		}
		seen[src.Key] = true
	}
	return file.Sources, nil
}

// Validate checks that a source definition is usable.
func (s *SourceConfig) Validate() error {
	if s.Key == "" || s.Name == "" {
		return fmt.Errorf("%w: key and name are required", ErrInvalidSource)
	}
	if s.Tier != TierPrimary && s.Tier != TierBackup {
		return fmt.Errorf("%w: %s: tier must be primary or backup, got %q", ErrInvalidSource, s.Key, s.Tier)
	}

	switch s.Kind {
	case KindFeed:
		if len(s.Feeds) == 0 {
			return fmt.Errorf("%w: %s: feed source has no feeds", ErrInvalidSource, s.Key)
		}
		for _, tier := range s.Fallback {
			for _, page := range tier.Pages {
				if err := page.validate(s.Key); err != nil {
					return err
				}
			}
		}
	case KindSections:
		if len(s.Sections) == 0 {
			return fmt.Errorf("%w: %s: section source has no sections", ErrInvalidSource, s.Key)
		}
		for _, page := range s.Sections {
			if err := page.validate(s.Key); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %s: kind must be feed or sections, got %q", ErrInvalidSource, s.Key, s.Kind)
	}
	return nil
}

func (l *ListConfig) validate(source string) error {
	if l.URL == "" || l.ItemSelector == "" {
		return fmt.Errorf("%w: %s: listing page needs url and item_selector", ErrInvalidSource, source)
	}
	return nil
}
