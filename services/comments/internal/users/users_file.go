package users

import (
	"context"

	"github.com/example/movie-platform/internal/platform/docstore"
)

// userDocument is the persisted shape of the file backend.
type userDocument struct {
	Users []User `json:"users"`
}

// FileStore reads users from a single JSON document. The set is small and
// changes out of band (see cmd/seed-users), so a linear scan per lookup is
// fine and the file is re-read on every call to pick up edits.
type FileStore struct {
	path string
	docs *docstore.Store
}

func NewFileStore(path string, docs *docstore.Store) *FileStore {
	return &FileStore{path: path, docs: docs}
}

func (s *FileStore) GetByID(_ context.Context, userID string) (User, error) {
	var doc userDocument
	if !s.docs.ReadJSON(s.path, &doc) {
		return User{}, ErrNotFound
	}
	for _, u := range doc.Users {
		if u.ID == userID {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}
