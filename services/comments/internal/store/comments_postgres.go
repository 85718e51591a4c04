package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCommentStore is the relational backend, selected when
// DATABASE_URL is set. Expected schema:
//
//	comments        (id text pk, movie_id text, parent_id text null,
//	                 author_id text, author_name text, body text,
//	                 rating int null, created_at timestamptz)
//	comment_upvotes (comment_id text, user_id text, voted_at timestamptz,
//	                 primary key (comment_id, user_id))
//
// comment_upvotes intentionally carries no foreign key to comments: the
// ledger accepts votes against unknown ids, matching the file backend, and
// Thread filters them out on read.
type PostgresCommentStore struct {
	DB *pgxpool.Pool
}

func NewPostgresCommentStore(pool *pgxpool.Pool) *PostgresCommentStore {
	return &PostgresCommentStore{DB: pool}
}

func (s *PostgresCommentStore) Thread(ctx context.Context, movieID string) (Thread, error) {
	q := `
SELECT id, movie_id, parent_id, author_id, author_name, body, rating, created_at
FROM comments
WHERE movie_id = $1
ORDER BY created_at, id;`
	rows, err := s.DB.Query(ctx, q, movieID)
	if err != nil {
		return Thread{}, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.MovieID, &c.ParentID, &c.AuthorID,
			&c.AuthorName, &c.Body, &c.Rating, &c.CreatedAt); err != nil {
			return Thread{}, err
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return Thread{}, err
	}

	vq := `
SELECT v.comment_id, v.user_id
FROM comment_upvotes v
JOIN comments c ON c.id = v.comment_id
WHERE c.movie_id = $1
ORDER BY v.voted_at, v.user_id;`
	vrows, err := s.DB.Query(ctx, vq, movieID)
	if err != nil {
		return Thread{}, err
	}
	defer vrows.Close()

	ledger := make(map[string][]string)
	for vrows.Next() {
		var commentID, userID string
		if err := vrows.Scan(&commentID, &userID); err != nil {
			return Thread{}, err
		}
		ledger[commentID] = append(ledger[commentID], userID)
	}
	if err := vrows.Err(); err != nil {
		return Thread{}, err
	}

	return BuildThread(comments, ledger), nil
}

func (s *PostgresCommentStore) Create(ctx context.Context, movieID string, author Author, in NewComment) (Comment, error) {
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

	q := `
INSERT INTO comments (id, movie_id, parent_id, author_id, author_name, body, rating, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
	_, err := s.DB.Exec(ctx, q, c.ID, c.MovieID, c.ParentID, c.AuthorID,
		c.AuthorName, c.Body, c.Rating, c.CreatedAt)
	if err != nil {
		return Comment{}, err
	}
	return c, nil
}

func (s *PostgresCommentStore) ToggleUpvote(ctx context.Context, commentID, userID string) ([]string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx,
		`DELETE FROM comment_upvotes WHERE comment_id = $1 AND user_id = $2;`,
		commentID, userID)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		if _, err := tx.Exec(ctx,
			`INSERT INTO comment_upvotes (comment_id, user_id, voted_at) VALUES ($1, $2, now());`,
			commentID, userID); err != nil {
			return nil, err
		}
	}

	rows, err := tx.Query(ctx,
		`SELECT user_id FROM comment_upvotes WHERE comment_id = $1 ORDER BY voted_at, user_id;`,
		commentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	voters := make([]string, 0)
	for rows.Next() {
		var voter string
		if err := rows.Scan(&voter); err != nil {
			return nil, err
		}
		voters = append(voters, voter)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return voters, nil
}

func (s *PostgresCommentStore) CascadeDelete(ctx context.Context, movieID, commentID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Transitive closure of replies under the target comment.
	q := `
WITH RECURSIVE doomed AS (
    SELECT id FROM comments WHERE id = $1 AND movie_id = $2
    UNION
    SELECT c.id FROM comments c JOIN doomed d ON c.parent_id = d.id WHERE c.movie_id = $2
)
SELECT id FROM doomed;`
	rows, err := tx.Query(ctx, q, commentID, movieID)
	if err != nil {
		return err
	}
	doomed := []string{commentID}
	seen := map[string]bool{commentID: true}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		if !seen[id] {
			seen[id] = true
			doomed = append(doomed, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM comment_upvotes WHERE comment_id = ANY($1);`, doomed); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM comments WHERE id = ANY($1) AND movie_id = $2;`, doomed, movieID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
