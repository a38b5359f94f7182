// Package services contains server-side business logic: account registration
// and login, session verification, file uploads and listings, and the minting,
// resolution, and revocation of share links.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dropvault/dropvault/internal/common"
	"github.com/dropvault/dropvault/internal/server/auth"
	"github.com/dropvault/dropvault/internal/server/config"
	"github.com/dropvault/dropvault/internal/server/models"
	"github.com/dropvault/dropvault/internal/server/repositories/repomanager"
)

// MinPasswordLength is the minimum accepted password length at registration.
const MinPasswordLength = 6

// dummyHash is a valid bcrypt hash compared against when the username is
// unknown, so login latency does not reveal whether the account exists.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Session identifies the verified holder of a session credential.
type Session struct {
	UserID   string
	Username string
}

// UserService handles registration, login, and session verification.
// Sessions are stateless: a signed token is the only proof, nothing is
// stored server-side.
type UserService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	tokens          *auth.TokenManager
	sessionValidity time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenManager, cfg *config.Config) *UserService {
	return &UserService{
		db:              db,
		repomanager:     m,
		tokens:          tokens,
		sessionValidity: cfg.SessionTokenValidityDuration,
	}
}

// Register creates a new account and returns the user plus a session token.
// Duplicate username or email yields common.ErrorConflict; empty fields or a
// short password yield common.ErrorInvalidInput.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, string, error) {
	if username == "" || email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: all fields are required", common.ErrorInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return nil, "", fmt.Errorf("%w: password must be at least %d characters", common.ErrorInvalidInput, MinPasswordLength)
	}

	repo := s.repomanager.Users(s.db)

	if _, err := repo.FindByUsernameOrEmail(ctx, username, email); err == nil {
		return nil, "", common.ErrorConflict
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, "", err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("error hashing password: %w", err)
	}

	user, err := repo.Create(ctx, &models.User{Username: username, Email: email, PasswordHash: hash})
	if err != nil {
		// the unique constraint may still fire on a concurrent registration
		if errors.Is(err, common.ErrorConflict) {
			return nil, "", common.ErrorConflict
		}
		return nil, "", fmt.Errorf("error creating user: %w", err)
	}

	token, err := s.tokens.GenerateSessionToken(user.ID, user.Username, s.sessionValidity)
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	return user, token, nil
}

// Login verifies the password and returns the user plus a fresh session token.
// An unknown username and a wrong password both yield common.ErrorUnauthorized
// with no distinguishable failure mode.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// burn the same hashing cost as a real comparison
			auth.VerifyPassword(dummyHash, password)
			return nil, "", common.ErrorUnauthorized
		}
		return nil, "", err
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, "", common.ErrorUnauthorized
	}

	token, err := s.tokens.GenerateSessionToken(user.ID, user.Username, s.sessionValidity)
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	return user, token, nil
}

// Verify checks a session credential and returns the identity it binds.
// Any defect (bad signature, malformed structure, expiry) collapses into
// common.ErrorUnauthorized.
func (s *UserService) Verify(ctx context.Context, credential string) (*Session, error) {
	claims, err := s.tokens.ParseSessionToken(credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
	}
	return &Session{UserID: claims.UserID, Username: claims.Username}, nil
}
