package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/movie-platform/internal/platform/docstore"
)

// FileStore keeps the whole document in one JSON file written through the
// durable document store. A single mutex serializes every
// load-transform-persist sequence so concurrent mutations cannot lose each
// other's updates. Reads skip the lock: the atomic rename underneath
// guarantees they see a complete document, either pre- or post-write.
type FileStore struct {
	mu   sync.Mutex
	path string
	docs *docstore.Store
}

func NewFileStore(path string, docs *docstore.Store) *FileStore {
	return &FileStore{path: path, docs: docs}
}

// load returns the current document, or an empty one when the file is
// absent or unreadable. Degrading to empty trades strictness for
// availability on this data class.
func (s *FileStore) load() Document {
	doc := NewDocument()
	if !s.docs.ReadJSON(s.path, &doc) {
		return NewDocument()
	}
	if doc.Comments == nil {
		doc.Comments = make(map[string][]Comment)
	}
	if doc.Upvotes == nil {
		doc.Upvotes = make(map[string][]string)
	}
	return doc
}

func (s *FileStore) save(doc Document) error {
	if err := s.docs.WriteJSON(s.path, doc); err != nil {
		return fmt.Errorf("save comment document: %w", err)
	}
	return nil
}

func (s *FileStore) Thread(_ context.Context, movieID string) (Thread, error) {
	doc := s.load()
	return BuildThread(doc.Comments[movieID], doc.Upvotes), nil
}

func (s *FileStore) Create(_ context.Context, movieID string, author Author, in NewComment) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := Comment{
		ID:         uuid.NewString(),
		MovieID:    movieID,
		ParentID:   in.ParentID,
		AuthorID:   author.ID,
		AuthorName: author.DisplayName,
		Body:       sanitizeBody(in.Body),
		CreatedAt:  time.Now().UTC(),
	}
	if in.ParentID == nil {
		c.Rating = in.Rating
	}

	doc := s.load()
	doc.Comments[movieID] = append(doc.Comments[movieID], c)
	if err := s.save(doc); err != nil {
		return Comment{}, err
	}
	return c, nil
}

func (s *FileStore) ToggleUpvote(_ context.Context, commentID, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	voters := doc.Upvotes[commentID]

	removed := false
	for i, v := range voters {
		if v == userID {
			voters = append(voters[:i], voters[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		voters = append(voters, userID)
	}
	doc.Upvotes[commentID] = voters

	if err := s.save(doc); err != nil {
		return nil, err
	}

	out := make([]string, len(voters))
	copy(out, voters)
	return out, nil
}

func (s *FileStore) CascadeDelete(_ context.Context, movieID, commentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	list := doc.Comments[movieID]

	// Children index, then breadth-first down the reply tree.
	children := make(map[string][]string)
	for i := range list {
		if pid := list[i].ParentID; pid != nil {
			children[*pid] = append(children[*pid], list[i].ID)
		}
	}

	doomed := map[string]bool{commentID: true}
	queue := []string{commentID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range children[id] {
			if !doomed[child] {
				doomed[child] = true
				queue = append(queue, child)
			}
		}
	}

	kept := list[:0]
	for i := range list {
		if !doomed[list[i].ID] {
			kept = append(kept, list[i])
		}
	}
	doc.Comments[movieID] = kept

	for id := range doomed {
		delete(doc.Upvotes, id)
	}

	return s.save(doc)
}
