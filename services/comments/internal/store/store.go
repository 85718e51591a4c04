// Package store owns the comment document model: a reply tree per movie
// plus one global upvote ledger, persisted as a single aggregate.
package store

import (
	"context"
	"strings"
	"time"
)

// Comment is immutable once created; deletion is the only mutation.
type Comment struct {
	ID         string    `json:"id"`
	MovieID    string    `json:"movieId"`
	ParentID   *string   `json:"parentId"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorDisplayName"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
	// Rating is only meaningful on root comments; replies never carry one.
	Rating *int `json:"rating,omitempty"`
}

// Author is the identity snapshot captured at creation time. It is not
// re-resolved afterwards: renaming a user does not rewrite old comments.
type Author struct {
	ID          string
	DisplayName string
}

// NewComment is the caller-supplied part of a comment.
type NewComment struct {
	ParentID *string
	Body     string
	Rating   *int
}

// Document is the persisted aggregate: every movie's comment list plus the
// global upvote ledger. It is the unit of atomic persistence for the file
// backend.
type Document struct {
	Comments map[string][]Comment `json:"comments"`
	Upvotes  map[string][]string  `json:"upvotes"`
}

func NewDocument() Document {
	return Document{
		Comments: make(map[string][]Comment),
		Upvotes:  make(map[string][]string),
	}
}

// ThreadNode is a comment with its replies, to arbitrary depth.
type ThreadNode struct {
	Comment
	Replies []*ThreadNode `json:"replies"`
}

// Thread is one movie's reply tree (roots newest-first) plus the upvote
// ledger restricted to comments that exist for that movie.
type Thread struct {
	Comments []*ThreadNode       `json:"comments"`
	Upvotes  map[string][]string `json:"upvotes"`
}

// CommentStore is the persistence contract. Mutations are serialized per
// document lifetime by the implementation; Thread may run concurrently with
// mutations and observes either the pre- or post-write state.
type CommentStore interface {
	Thread(ctx context.Context, movieID string) (Thread, error)
	Create(ctx context.Context, movieID string, author Author, in NewComment) (Comment, error)
	// ToggleUpvote flips userID's membership in the voter set of commentID
	// and returns the resulting set. The comment's existence is deliberately
	// not checked: a vote against an unknown id is a silent no-op because
	// Thread filters the ledger by existing comments.
	ToggleUpvote(ctx context.Context, commentID, userID string) ([]string, error)
	// CascadeDelete removes commentID together with every direct and
	// indirect reply, and every ledger entry keyed by a removed id.
	CascadeDelete(ctx context.Context, movieID, commentID string) error
}

var bodySanitizer = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// sanitizeBody neutralizes markup before storage so bodies render as text.
func sanitizeBody(body string) string {
	return bodySanitizer.Replace(body)
}
