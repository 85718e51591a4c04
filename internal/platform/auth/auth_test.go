package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret-key-32-bytes-long!!!")

func newGuardAt(at time.Time) *Guard {
	g := NewGuard(nil)
	g.now = func() time.Time { return at }
	return g
}

func validSession(expires int64) *Session {
	return &Session{
		Token: "opaque-token-value",
		User: SessionUser{
			ID:       "user-1",
			Name:     "Ada",
			Email:    "ada@example.com",
			Username: "ada",
			Role:     "user",
		},
		Expires: expires,
	}
}

// ─── Guard tests ────────────────────────────────────────────────────────────

func TestGuard_ValidSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := newGuardAt(now)

	id, err := g.Validate(validSession(now.Add(time.Hour).UnixMilli()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.UserID != "user-1" {
		t.Fatalf("expected user id 'user-1', got %q", id.UserID)
	}
	if id.DisplayName != "Ada" {
		t.Fatalf("expected display name 'Ada', got %q", id.DisplayName)
	}
}

func TestGuard_NilSession(t *testing.T) {
	g := newGuardAt(time.Now())
	if _, err := g.Validate(nil); !errors.Is(err, ErrMalformedSession) {
		t.Fatalf("expected ErrMalformedSession, got %v", err)
	}
}

func TestGuard_EmptyToken(t *testing.T) {
	now := time.Now()
	s := validSession(now.Add(time.Hour).UnixMilli())
	s.Token = "   "
	if _, err := newGuardAt(now).Validate(s); !errors.Is(err, ErrMalformedSession) {
		t.Fatalf("expected ErrMalformedSession, got %v", err)
	}
}

func TestGuard_EmptyUserID(t *testing.T) {
	now := time.Now()
	s := validSession(now.Add(time.Hour).UnixMilli())
	s.User.ID = ""
	if _, err := newGuardAt(now).Validate(s); !errors.Is(err, ErrMalformedSession) {
		t.Fatalf("expected ErrMalformedSession, got %v", err)
	}
}

func TestGuard_MissingExpiry(t *testing.T) {
	s := validSession(0)
	if _, err := newGuardAt(time.Now()).Validate(s); !errors.Is(err, ErrMalformedSession) {
		t.Fatalf("expected ErrMalformedSession, got %v", err)
	}
}

func TestGuard_ExpiredSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := validSession(now.Add(-time.Minute).UnixMilli())
	if _, err := newGuardAt(now).Validate(s); !errors.Is(err, ErrExpiredSession) {
		t.Fatalf("expected ErrExpiredSession, got %v", err)
	}
}

func TestGuard_ExpiryBoundaryIsRejected(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// expires == now must be rejected: the contract is strictly greater.
	s := validSession(now.UnixMilli())
	if _, err := newGuardAt(now).Validate(s); !errors.Is(err, ErrExpiredSession) {
		t.Fatalf("expected ErrExpiredSession at the boundary, got %v", err)
	}
}

func TestGuard_DisplayNameFallsBackToUsername(t *testing.T) {
	now := time.Now()
	s := validSession(now.Add(time.Hour).UnixMilli())
	s.User.Name = ""
	id, err := newGuardAt(now).Validate(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.DisplayName != "ada" {
		t.Fatalf("expected fallback to username, got %q", id.DisplayName)
	}
}

// ─── JWTVerifier tests ──────────────────────────────────────────────────────

func makeToken(subject, username string, exp time.Time) string {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Username: username,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := tok.SignedString(testSecret)
	return signed
}

func newVerifier() JWTVerifier { return JWTVerifier{Secret: testSecret} }

func TestJWTVerifier_ValidToken(t *testing.T) {
	tok := makeToken("user-1", "ada", time.Now().Add(time.Hour))
	claims, err := newVerifier().Parse(tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected subject 'user-1', got %q", claims.Subject)
	}
	if claims.Username != "ada" {
		t.Fatalf("expected username 'ada', got %q", claims.Username)
	}
}

func TestJWTVerifier_ExpiredToken(t *testing.T) {
	tok := makeToken("user-1", "ada", time.Now().Add(-time.Hour))
	if _, err := newVerifier().Parse(tok); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestJWTVerifier_WrongSecret(t *testing.T) {
	tok := makeToken("user-1", "ada", time.Now().Add(time.Hour))
	if _, err := (JWTVerifier{Secret: []byte("wrong-secret")}).Parse(tok); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestJWTVerifier_TamperedPayload(t *testing.T) {
	tok := makeToken("user-1", "ada", time.Now().Add(time.Hour))
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatal("expected 3 JWT parts")
	}
	tampered := parts[0] + ".dGFtcGVyZWQ." + parts[2]
	if _, err := newVerifier().Parse(tampered); err == nil {
		t.Fatal("expected error for tampered token")
	}
}

// ─── BearerIdentity tests ───────────────────────────────────────────────────

func TestBearerIdentity_Valid(t *testing.T) {
	tok := makeToken("user-42", "grace", time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	id, err := newVerifier().BearerIdentity(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.UserID != "user-42" || id.DisplayName != "grace" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestBearerIdentity_MissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if _, err := newVerifier().BearerIdentity(req); !errors.Is(err, ErrMalformedSession) {
		t.Fatalf("expected ErrMalformedSession, got %v", err)
	}
}

func TestBearerIdentity_NonBearerScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	if _, err := newVerifier().BearerIdentity(req); !errors.Is(err, ErrMalformedSession) {
		t.Fatalf("expected ErrMalformedSession, got %v", err)
	}
}

func TestBearerIdentity_NoSecretConfigured(t *testing.T) {
	tok := makeToken("user-1", "ada", time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	if _, err := (JWTVerifier{}).BearerIdentity(req); !errors.Is(err, ErrMalformedSession) {
		t.Fatalf("expected ErrMalformedSession without secret, got %v", err)
	}
}
