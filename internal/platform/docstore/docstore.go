// Package docstore persists whole JSON documents with crash-safe replace
// semantics. A write lands in a temporary sibling file first and is moved
// onto the destination with an atomic rename, so a reader (or a process
// restarted after a crash) only ever observes the previous document or the
// new one, never a truncated hybrid.
//
// The store does no locking. Callers that mutate a document concurrently
// must serialize their load-transform-persist sequence themselves.
package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

type Store struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{log: log}
}

// WriteJSON replaces the document at path with the JSON encoding of v.
// Failures surface as errors; the previous file content is left intact.
func (s *Store) WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("docstore: marshal %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("docstore: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("docstore: create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("docstore: write temp for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("docstore: sync temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("docstore: close temp for %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("docstore: rename onto %s: %w", path, err)
	}
	return nil
}

// ReadJSON decodes the document at path into out and reports whether it
// did. An absent file or a file that fails to parse reports false so the
// caller can fall back to its default document; a failed decode may leave
// out partially filled and it must be discarded. Anomalies are logged so
// corruption is at least visible in the logs.
func (s *Store) ReadJSON(path string, out any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("docstore: unreadable document, using default",
				zap.String("path", path), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.log.Warn("docstore: malformed document, using default",
			zap.String("path", path), zap.Error(err))
		return false
	}
	return true
}
