// Package store persists the record dataset and the failed-page log as JSON files.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
)

// ErrCorruptDataset is returned when the existing dataset cannot be decoded.
// Overwriting it would lose data, so callers must abort.
var ErrCorruptDataset = errors.New("existing dataset is corrupt")

// Store reads and writes the two JSON files of a crawl.
type Store struct {
	datasetPath string
	failedPath  string
}

// New creates a Store for the given file paths.
func New(datasetPath, failedPath string) *Store {
	return &Store{
		datasetPath: datasetPath,
		failedPath:  failedPath,
	}
}

// DatasetPath returns the dataset file location.
func (s *Store) DatasetPath() string { return s.datasetPath }

// FailedPath returns the failed-page log location.
func (s *Store) FailedPath() string { return s.failedPath }

// LoadDataset reads the existing dataset. A missing or empty file yields an
// empty dataset.
func (s *Store) LoadDataset() (*Dataset, error) {
	content, err := os.ReadFile(s.datasetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debug().Str("file", s.datasetPath).Msg("No existing dataset")
			return &Dataset{}, nil
		}
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	if len(bytes.TrimSpace(content)) == 0 {
		return &Dataset{}, nil
	}

	dataset, err := decodeDataset(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptDataset, s.datasetPath, err)
	}

	log.Debug().
		Str("file", s.datasetPath).
		Int("records", dataset.Len()).
		Msg("Dataset loaded")

	return dataset, nil
}

// SaveDataset replaces the dataset file with dataset.
func (s *Store) SaveDataset(dataset *Dataset) error {
	if dataset == nil {
		dataset = &Dataset{}
	}

	content, err := dataset.encode()
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	if err := writeAtomic(s.datasetPath, content); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}

	log.Info().
		Str("file", s.datasetPath).
		Int("records", dataset.Len()).
		Msg("Dataset saved")
	return nil
}

// LoadFailedPages reads the failed-page log. A missing file yields nil.
func (s *Store) LoadFailedPages() ([]int, error) {
	content, err := os.ReadFile(s.failedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read failed pages: %w", err)
	}

	var pages []int
	if err := json.Unmarshal(content, &pages); err != nil {
		return nil, fmt.Errorf("failed to decode failed pages %s: %w", s.failedPath, err)
	}
	return pages, nil
}

// SaveFailedPages writes pages, sorted ascending, as a compact JSON array.
func (s *Store) SaveFailedPages(pages []int) error {
	sorted := append([]int(nil), pages...)
	sort.Ints(sorted)

	content, err := json.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("failed to marshal failed pages: %w", err)
	}

	if err := writeAtomic(s.failedPath, content); err != nil {
		return fmt.Errorf("failed to write failed pages: %w", err)
	}

	log.Info().
		Str("file", s.failedPath).
		Int("pages", len(sorted)).
		Msg("Failed pages saved")
	return nil
}

// RemoveFailedPages deletes the failed-page log if it exists.
func (s *Store) RemoveFailedPages() error {
	if err := os.Remove(s.failedPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove failed pages: %w", err)
	}
	return nil
}

// writeAtomic writes content next to path and renames it into place, so the
// previous file stays intact until the new one is complete.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
