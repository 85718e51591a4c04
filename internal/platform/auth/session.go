// Package auth is the single session/identity capability consumed by every
// entry point. It validates the opaque session objects issued by the
// external auth service and, for API clients, HMAC bearer tokens carrying
// the same identity shape.
package auth

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrMalformedSession = errors.New("malformed session")
	ErrExpiredSession   = errors.New("expired session")
)

// SessionUser is the identity snapshot embedded in a session object.
type SessionUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Session is the opaque object issued by the external auth service.
// Expires is epoch milliseconds.
type Session struct {
	Token   string      `json:"token"`
	User    SessionUser `json:"user"`
	Expires int64       `json:"expires"`
}

// Identity is what the guard hands to business logic once a session (or
// bearer token) has passed validation. The role carried by the session is
// deliberately absent: authorization decisions consult the stored role.
type Identity struct {
	UserID      string
	DisplayName string
}

// Guard validates sessions. Validation proceeds through structural checks
// first and the expiry check second; the first failure wins. Rejections are
// logged with the failing check but never with the token value.
type Guard struct {
	log *zap.Logger
	now func() time.Time
}

func NewGuard(log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{log: log, now: time.Now}
}

// Validate runs the session through the structural and expiry checks and
// returns the caller's identity on success.
func (g *Guard) Validate(s *Session) (Identity, error) {
	if s == nil {
		g.log.Warn("session rejected", zap.String("check", "missing session"))
		return Identity{}, ErrMalformedSession
	}
	if strings.TrimSpace(s.Token) == "" {
		g.log.Warn("session rejected", zap.String("check", "empty token"))
		return Identity{}, ErrMalformedSession
	}
	if strings.TrimSpace(s.User.ID) == "" {
		g.log.Warn("session rejected", zap.String("check", "empty user id"))
		return Identity{}, ErrMalformedSession
	}
	if s.Expires <= 0 {
		g.log.Warn("session rejected",
			zap.String("check", "missing expiry"),
			zap.String("user_id", s.User.ID))
		return Identity{}, ErrMalformedSession
	}
	if s.Expires <= g.now().UnixMilli() {
		g.log.Warn("session rejected",
			zap.String("check", "expired"),
			zap.String("user_id", s.User.ID),
			zap.Int64("expires", s.Expires))
		return Identity{}, ErrExpiredSession
	}

	name := strings.TrimSpace(s.User.Name)
	if name == "" {
		name = strings.TrimSpace(s.User.Username)
	}
	return Identity{UserID: s.User.ID, DisplayName: name}, nil
}
