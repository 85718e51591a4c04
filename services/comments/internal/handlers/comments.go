// Package handlers exposes the movie comment resource over HTTP. All four
// verbs share the /comments path; mutations carry the session in the body,
// matching the contract of the web frontend.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/movie-platform/internal/platform/api"
	"github.com/example/movie-platform/internal/platform/auth"
	"github.com/example/movie-platform/internal/platform/events"
	"github.com/example/movie-platform/internal/platform/httpserver"
	"github.com/example/movie-platform/internal/platform/ratelimit"
	"github.com/example/movie-platform/services/comments/internal/store"
	"github.com/example/movie-platform/services/comments/internal/users"
)

// Deps carries everything the comment handlers need. Events may be nil.
type Deps struct {
	Log     *zap.Logger
	Store   store.CommentStore
	Users   users.Store
	Guard   *auth.Guard
	Bearer  auth.JWTVerifier
	Limiter *ratelimit.Limiter
	Events  *events.Publisher
}

type commentPayload struct {
	ParentID *string `json:"parentId,omitempty"`
	Body     string  `json:"body"`
	Rating   *int    `json:"rating,omitempty"`
}

type createCommentRequest struct {
	MovieID     string         `json:"movieId"`
	CommentData commentPayload `json:"commentData"`
	Session     *auth.Session  `json:"session"`
}

type toggleUpvoteRequest struct {
	CommentID string        `json:"commentId"`
	Session   *auth.Session `json:"session"`
}

type deleteCommentRequest struct {
	MovieID   string        `json:"movieId"`
	CommentID string        `json:"commentId"`
	Session   *auth.Session `json:"session"`
}

type createCommentResponse struct {
	Success bool          `json:"success"`
	Comment store.Comment `json:"comment"`
}

type upvotesResponse struct {
	Success bool     `json:"success"`
	Upvotes []string `json:"upvotes"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// authenticate resolves the caller's identity: the in-body session when one
// is supplied, otherwise an Authorization bearer token.
func (d Deps) authenticate(r *http.Request, session *auth.Session) (auth.Identity, error) {
	if session != nil {
		return d.Guard.Validate(session)
	}
	return d.Bearer.BearerIdentity(r)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst)
}

// GetThread handles GET /comments?movieId=ID
func GetThread(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := httpserver.RequestIDFromContext(r.Context())

		movieID := strings.TrimSpace(r.URL.Query().Get("movieId"))
		if movieID == "" {
			api.BadRequest(w, "VALIDATION", "movieId is required", reqID, nil)
			return
		}

		thread, err := d.Store.Thread(r.Context(), movieID)
		if err != nil {
			d.Log.Error("thread load failed", zap.String("movie_id", movieID), zap.Error(err))
			api.Internal(w, reqID)
			return
		}
		api.WriteJSON(w, http.StatusOK, thread)
	}
}

// CreateComment handles POST /comments
func CreateComment(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := httpserver.RequestIDFromContext(r.Context())

		var req createCommentRequest
		if err := decode(w, r, &req); err != nil {
			api.BadRequest(w, "VALIDATION", "invalid JSON", reqID, nil)
			return
		}

		ident, err := d.authenticate(r, req.Session)
		if err != nil {
			api.Unauthorized(w, "UNAUTHORIZED", "invalid or expired session", reqID)
			return
		}
		if !d.Limiter.Allow(ident.UserID) {
			api.RateLimited(w, "RATE_LIMITED", "too many requests", reqID, nil)
			return
		}

		if strings.TrimSpace(req.MovieID) == "" {
			api.BadRequest(w, "VALIDATION", "movieId is required", reqID, nil)
			return
		}
		if strings.TrimSpace(req.CommentData.Body) == "" {
			api.BadRequest(w, "VALIDATION", "body must not be empty", reqID, nil)
			return
		}

		// The stored record is authoritative for the author snapshot; a
		// session naming a deleted user cannot post.
		u, err := d.Users.GetByID(r.Context(), ident.UserID)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "user not found", reqID)
				return
			}
			d.Log.Error("user lookup failed", zap.String("user_id", ident.UserID), zap.Error(err))
			api.Internal(w, reqID)
			return
		}

		author := store.Author{ID: u.ID, DisplayName: u.DisplayName()}
		if author.DisplayName == "" {
			author.DisplayName = ident.DisplayName
		}

		created, err := d.Store.Create(r.Context(), req.MovieID, author, store.NewComment{
			ParentID: req.CommentData.ParentID,
			Body:     req.CommentData.Body,
			Rating:   req.CommentData.Rating,
		})
		if err != nil {
			d.Log.Error("comment create failed", zap.String("movie_id", req.MovieID), zap.Error(err))
			api.Internal(w, reqID)
			return
		}

		d.Events.Publish(events.SubjectCommentCreated, "comment_created", ident.UserID, map[string]any{
			"movie_id":   req.MovieID,
			"comment_id": created.ID,
		})
		api.WriteJSON(w, http.StatusCreated, createCommentResponse{Success: true, Comment: created})
	}
}

// ToggleUpvote handles PUT /comments
func ToggleUpvote(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := httpserver.RequestIDFromContext(r.Context())

		var req toggleUpvoteRequest
		if err := decode(w, r, &req); err != nil {
			api.BadRequest(w, "VALIDATION", "invalid JSON", reqID, nil)
			return
		}

		ident, err := d.authenticate(r, req.Session)
		if err != nil {
			api.Unauthorized(w, "UNAUTHORIZED", "invalid or expired session", reqID)
			return
		}
		if !d.Limiter.Allow(ident.UserID) {
			api.RateLimited(w, "RATE_LIMITED", "too many requests", reqID, nil)
			return
		}

		if strings.TrimSpace(req.CommentID) == "" {
			api.BadRequest(w, "VALIDATION", "commentId is required", reqID, nil)
			return
		}

		voters, err := d.Store.ToggleUpvote(r.Context(), req.CommentID, ident.UserID)
		if err != nil {
			d.Log.Error("upvote toggle failed", zap.String("comment_id", req.CommentID), zap.Error(err))
			api.Internal(w, reqID)
			return
		}

		d.Events.Publish(events.SubjectCommentVoted, "comment_voted", ident.UserID, map[string]any{
			"comment_id": req.CommentID,
			"voters":     len(voters),
		})
		api.WriteJSON(w, http.StatusOK, upvotesResponse{Success: true, Upvotes: voters})
	}
}

// DeleteComment handles DELETE /comments
func DeleteComment(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := httpserver.RequestIDFromContext(r.Context())

		var req deleteCommentRequest
		if err := decode(w, r, &req); err != nil {
			api.BadRequest(w, "VALIDATION", "invalid JSON", reqID, nil)
			return
		}

		ident, err := d.authenticate(r, req.Session)
		if err != nil {
			api.Unauthorized(w, "UNAUTHORIZED", "invalid or expired session", reqID)
			return
		}
		if !d.Limiter.Allow(ident.UserID) {
			api.RateLimited(w, "RATE_LIMITED", "too many requests", reqID, nil)
			return
		}

		if strings.TrimSpace(req.MovieID) == "" || strings.TrimSpace(req.CommentID) == "" {
			api.BadRequest(w, "VALIDATION", "movieId and commentId are required", reqID, nil)
			return
		}

		// Deletion is gated on the stored role, not whatever the session
		// claims: a stale session cannot confer admin.
		u, err := d.Users.GetByID(r.Context(), ident.UserID)
		if err != nil && !errors.Is(err, users.ErrNotFound) {
			d.Log.Error("user lookup failed", zap.String("user_id", ident.UserID), zap.Error(err))
			api.Internal(w, reqID)
			return
		}
		if err != nil || !u.IsAdmin() {
			api.Forbidden(w, "FORBIDDEN", "admin role required", reqID)
			return
		}

		if err := d.Store.CascadeDelete(r.Context(), req.MovieID, req.CommentID); err != nil {
			d.Log.Error("cascade delete failed",
				zap.String("movie_id", req.MovieID),
				zap.String("comment_id", req.CommentID),
				zap.Error(err))
			api.Internal(w, reqID)
			return
		}

		d.Events.Publish(events.SubjectCommentDeleted, "comment_deleted", ident.UserID, map[string]any{
			"movie_id":   req.MovieID,
			"comment_id": req.CommentID,
		})
		api.WriteJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

// Register mounts the comment resource on the router.
func Register(r chi.Router, d Deps) {
	r.Get("/comments", GetThread(d))
	r.Post("/comments", CreateComment(d))
	r.Put("/comments", ToggleUpvote(d))
	r.Delete("/comments", DeleteComment(d))
}
