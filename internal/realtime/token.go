package realtime

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/flowboardhq/flowboard/internal/auth"
)

// DefaultAuthCookie is the cookie the browser client stores its access
// token in (httpOnly, so the token never passes through client JS).
const DefaultAuthCookie = "accessToken"

// Errors raised during handshake authentication.
var (
	ErrNoToken         = errors.New("realtime: authentication required")
	ErrUnauthenticated = errors.New("realtime: connection is not authenticated")
)

// Identity is the verified user attached to a connection for its lifetime.
// Handlers read it without re-verifying the token.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   string
	Name   string
}

// ExtractToken pulls the bearer credential from a connection handshake.
// First match wins: Authorization header, then the named cookie, then the
// "token" query parameter.
func ExtractToken(r *http.Request, cookieName string) (string, bool) {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return h[7:], true
	}

	if tok, ok := cookieValue(r.Header.Get("Cookie"), cookieName); ok {
		return tok, true
	}

	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok, true
	}

	return "", false
}

// cookieValue finds a cookie by exact name in a raw Cookie header. Parsed by
// hand so that a cookie named e.g. "xaccessToken" never matches "accessToken".
func cookieValue(header, name string) (string, bool) {
	if header == "" || name == "" {
		return "", false
	}
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		if k == name && v != "" {
			return v, true
		}
	}
	return "", false
}

// authenticate resolves the handshake to a verified identity. A token that
// is present but not decodable is treated the same as an invalid one: the
// connection is rejected for board operations, never crashed.
func (g *Gateway) authenticate(r *http.Request) (*Identity, error) {
	tok, ok := ExtractToken(r, g.cookieName)
	if !ok {
		return nil, ErrNoToken
	}

	claims, err := auth.ValidateToken(g.secret, tok)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}

	return &Identity{
		UserID: userID,
		Email:  claims.Email,
		Role:   claims.Role,
		Name:   claims.Name,
	}, nil
}
