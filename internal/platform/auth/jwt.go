package auth

import (
	"errors"
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Claims is the bearer-token counterpart of a session object: subject is
// the user id, Username feeds the display name.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// JWTVerifier parses HMAC bearer tokens minted by the external auth
// service for API clients that cannot ship a session object in the body.
type JWTVerifier struct {
	Secret []byte
}

func (v JWTVerifier) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return v.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// BearerIdentity resolves an Authorization: Bearer header to an Identity.
// It returns ErrMalformedSession when the header is absent or unusable so
// callers can treat both auth paths uniformly.
func (v JWTVerifier) BearerIdentity(r *http.Request) (Identity, error) {
	if len(v.Secret) == 0 {
		return Identity{}, ErrMalformedSession
	}
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if authz == "" {
		return Identity{}, ErrMalformedSession
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return Identity{}, ErrMalformedSession
	}
	claims, err := v.Parse(strings.TrimSpace(parts[1]))
	if err != nil || strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, ErrMalformedSession
	}
	return Identity{UserID: claims.Subject, DisplayName: claims.Username}, nil
}
