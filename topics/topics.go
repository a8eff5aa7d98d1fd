package topics

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pevans/dailyarticle/article"
	"gopkg.in/yaml.v3"
)

//go:embed topics.yaml
var defaultTopicsYAML []byte

// Errors returned while loading a topic table.
var (
	ErrNoTopics         = errors.New("topic table is empty")
	ErrNegativeWeight   = errors.New("topic probability must not be negative")
	ErrZeroTotalWeight  = errors.New("topic probabilities sum to zero")
	ErrDuplicateTopic   = errors.New("duplicate topic key")
	ErrUnknownTopic     = errors.New("unknown topic")
	ErrMissingTopicKey  = errors.New("topic key is empty")
	ErrMissingTopicName = errors.New("topic display name is empty")
)

// Topic is one entry of the topic table.
type Topic struct {
	Key         article.Topic `yaml:"key"          json:"key"`
	DisplayName string        `yaml:"display_name" json:"display_name"`
	Probability float64       `yaml:"probability"  json:"probability"`
	Keywords    []string      `yaml:"keywords"     json:"keywords"`
}

// Config is the ordered topic table. The order of Topics is significant: it is
// the tie-break order for classification.
type Config struct {
	Topics []Topic
}

type fileFormat struct {
	Topics []Topic `yaml:"topics"`
}

// Default returns the built-in topic table.
func Default() *Config {
	cfg, err := Parse(defaultTopicsYAML)
	if err != nil {
		// The embedded table is part of the build.
		panic(fmt.Sprintf("invalid embedded topic table: %v", err))
	}
	return cfg
}

// Load reads a topic table from a YAML file. An empty path returns the
// built-in table.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML topic table, normalizing probabilities
// so that they sum to 1.
func Parse(data []byte) (*Config, error) {
	var file fileFormat
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse topic table: %w", err)
	}
	return New(file.Topics)
}

// New validates topics and returns a Config with normalized probabilities.
// Keywords are lowercased so that matching is case-insensitive.
func New(list []Topic) (*Config, error) {
	if len(list) == 0 {
		return nil, ErrNoTopics
	}

	seen := make(map[article.Topic]bool, len(list))
	total := 0.0
	for _, t := range list {
		if t.Key == "" {
			return nil, ErrMissingTopicKey
		}
		if t.DisplayName == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingTopicName, t.Key)
		}
		if seen[t.Key] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTopic, t.Key)
		}
		if t.Probability < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNegativeWeight, t.Key)
		}
		seen[t.Key] = true
		total += t.Probability
	}
	if total <= 0 {
		return nil, ErrZeroTotalWeight
	}

	topics := make([]Topic, len(list))
	for i, t := range list {
		keywords := make([]string, 0, len(t.Keywords))
		for _, kw := range t.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		topics[i] = Topic{
			Key:         t.Key,
			DisplayName: t.DisplayName,
			Probability: t.Probability / total,
			Keywords:    keywords,
		}
	}

	return &Config{Topics: topics}, nil
}

// Keys returns the topic keys in table order.
func (c *Config) Keys() []article.Topic {
	keys := make([]article.Topic, len(c.Topics))
	for i, t := range c.Topics {
		keys[i] = t.Key
	}
	return keys
}

// Lookup returns the topic with the given key.
func (c *Config) Lookup(key article.Topic) (Topic, bool) {
	for _, t := range c.Topics {
		if t.Key == key {
			return t, true
		}
	}
	return Topic{}, false
}

// DisplayName returns the human-readable name of a topic, or "" if the key
// is not in the table.
func (c *Config) DisplayName(key article.Topic) string {
	t, ok := c.Lookup(key)
	if !ok {
		return ""
	}
	return t.DisplayName
}

// Resolve parses user input (a key, case-insensitive) into a topic key.
func (c *Config) Resolve(input string) (article.Topic, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	for _, t := range c.Topics {
		if string(t.Key) == input {
			return t.Key, nil
		}
	}

	valid := make([]string, len(c.Topics))
	for i, t := range c.Topics {
		valid[i] = string(t.Key)
	}
	return "", fmt.Errorf("%w %q (valid: %s)", ErrUnknownTopic, input, strings.Join(valid, ", "))
}
