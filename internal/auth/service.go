package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/flowboardhq/flowboard/internal/domain"
)

// Sentinel errors for the auth package.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUserAlreadyExists  = errors.New("auth: user already exists")
	ErrSessionRevoked     = errors.New("auth: session revoked")
)

// argon2id parameters following OWASP recommendations.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // 64 MiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// SessionStore tracks live refresh sessions by session ID (the refresh
// token's jti). *redis.Sessions satisfies this interface.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, userID uuid.UUID, ttl time.Duration) error
	UserID(ctx context.Context, sessionID string) (uuid.UUID, error)
	Revoke(ctx context.Context, sessionID string) error
}

// Service provides registration, login and refresh-token rotation.
type Service struct {
	users      domain.UserRepository
	sessions   SessionStore
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(users domain.UserRepository, sessions SessionStore, jwtSecret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Register creates a new user with email/password. The password is hashed
// with argon2id before storage.
func (s *Service) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("auth.Register: %w", ErrUserAlreadyExists)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("auth.Register: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         "member",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("auth.Register: %w", err)
	}

	return user, nil
}

// Login validates email/password, records a refresh session and returns
// access + refresh JWT tokens.
func (s *Service) Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", "", fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	if !verifyPassword(password, user.PasswordHash) {
		return "", "", fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	accessToken, err = IssueAccessToken(s.jwtSecret, user, s.accessTTL)
	if err != nil {
		return "", "", fmt.Errorf("auth.Login: %w", err)
	}

	refreshToken, sessionID, err := IssueRefreshToken(s.jwtSecret, user, s.refreshTTL)
	if err != nil {
		return "", "", fmt.Errorf("auth.Login: %w", err)
	}

	if err := s.sessions.Save(ctx, sessionID, user.ID, s.refreshTTL); err != nil {
		return "", "", fmt.Errorf("auth.Login: %w", err)
	}

	return accessToken, refreshToken, nil
}

// Refresh validates a refresh token against the session store and rotates
// it: the old session is revoked and a new access + refresh pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (newAccess, newRefresh string, err error) {
	claims, err := ValidateToken(s.jwtSecret, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("auth.Refresh: %w", err)
	}

	if claims.TokenType != tokenTypeRefresh {
		return "", "", fmt.Errorf("auth.Refresh: %w", ErrInvalidToken)
	}

	userID, err := s.sessions.UserID(ctx, claims.ID)
	if err != nil {
		return "", "", fmt.Errorf("auth.Refresh: %w", ErrSessionRevoked)
	}

	// Verify the user still exists and fetch the current role/name.
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", "", fmt.Errorf("auth.Refresh: %w", err)
	}

	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return "", "", fmt.Errorf("auth.Refresh: %w", err)
	}

	newAccess, err = IssueAccessToken(s.jwtSecret, user, s.accessTTL)
	if err != nil {
		return "", "", fmt.Errorf("auth.Refresh: %w", err)
	}

	newRefresh, sessionID, err := IssueRefreshToken(s.jwtSecret, user, s.refreshTTL)
	if err != nil {
		return "", "", fmt.Errorf("auth.Refresh: %w", err)
	}

	if err := s.sessions.Save(ctx, sessionID, user.ID, s.refreshTTL); err != nil {
		return "", "", fmt.Errorf("auth.Refresh: %w", err)
	}

	return newAccess, newRefresh, nil
}

// Logout revokes the refresh session carried by the token. Invalid tokens
// are a no-op; there is nothing to revoke.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := ValidateToken(s.jwtSecret, refreshToken)
	if err != nil {
		return nil
	}

	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return fmt.Errorf("auth.Logout: %w", err)
	}

	return nil
}

// hashPassword generates an argon2id hash with a random salt.
// Format: hex(salt) + "$" + hex(hash)
func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

// verifyPassword checks a password against an argon2id hash in constant time.
func verifyPassword(password, encoded string) bool {
	saltHex, hashHex, ok := strings.Cut(encoded, "$")
	if !ok || saltHex == "" || hashHex == "" {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}

	expected, err := hex.DecodeString(hashHex)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return subtle.ConstantTimeCompare(computed, expected) == 1
}
