package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/flowboardhq/flowboard/internal/domain"
)

// Claims holds the JWT token payload. One token format serves both the REST
// layer and the realtime gateway; both verify with the same shared secret.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Name      string `json:"name"`
	TokenType string `json:"typ"` // "access" or "refresh"
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// ErrInvalidToken is returned when a JWT cannot be parsed or has expired.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// IssueAccessToken creates a signed JWT access token for a user.
func IssueAccessToken(secret string, u *domain.User, ttl time.Duration) (string, error) {
	token, _, err := issueToken(secret, u, tokenTypeAccess, ttl)
	return token, err
}

// IssueRefreshToken creates a signed JWT refresh token. The returned session
// ID (the token's jti) is what the session store tracks for revocation.
func IssueRefreshToken(secret string, u *domain.User, ttl time.Duration) (token, sessionID string, err error) {
	return issueToken(secret, u, tokenTypeRefresh, ttl)
}

func issueToken(secret string, u *domain.User, tokenType string, ttl time.Duration) (string, string, error) {
	now := time.Now()
	sessionID := uuid.NewString()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "flowboard",
		},
		UserID:    u.ID.String(),
		Email:     u.Email,
		Role:      u.Role,
		Name:      u.Name,
		TokenType: tokenType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", "", fmt.Errorf("auth.issueToken: %w", err)
	}

	return signed, sessionID, nil
}

// ValidateToken parses and validates a JWT token string. Returns the embedded claims.
func ValidateToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	if !token.Valid {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	return claims, nil
}
