package selection

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pevans/dailyarticle/article"
	"go.uber.org/zap"
)

// DefaultFilename is the selection file name inside the data directory.
const DefaultFilename = "daily_selection.json"

// DateLayout is the format of DailySelection.Date.
const DateLayout = "2006-01-02"

// DailySelection is the article chosen for one day.
type DailySelection struct {
	Date    string          `json:"date"`
	Article article.Article `json:"article"`
}

// Store persists the single daily selection slot. Every Save rewrites the
// whole file.
type Store struct {
	path   string
	logger *zap.Logger
}

// NewStore creates a store backed by the file at path.
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		path:   path,
		logger: logger.With(zap.String("component", "selection_store")),
	}
}

// Path returns the selection file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted selection, or nil when there is none. A file
// that cannot be decoded, or that lacks a date or article URL, counts as no
// selection.
func (s *Store) Load() (*DailySelection, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read selection file: %w", err)
	}

	var sel DailySelection
	if err := json.Unmarshal(data, &sel); err != nil {
		s.logger.Warn("ignoring corrupt selection file",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return nil, nil
	}
	if sel.Date == "" || sel.Article.URL == "" {
		s.logger.Warn("ignoring incomplete selection file", zap.String("path", s.path))
		return nil, nil
	}

	return &sel, nil
}

// Save overwrites the selection slot.
func (s *Store) Save(sel DailySelection) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create selection directory: %w", err)
	}

	data, err := json.MarshalIndent(sel, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal selection: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write selection file: %w", err)
	}

	return nil
}
