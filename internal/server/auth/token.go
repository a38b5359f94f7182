// Package auth mints and verifies the two credential kinds used by DropVault:
// session tokens binding a user identity, and share tokens binding a single
// file. Both are HS256-signed JWTs; validity derives from signature and
// expiry alone, no server-side session state.
package auth

import (
	"errors"
	"time"

	"github.com/dropvault/dropvault/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims bind a logged-in user to a token.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID   string
	Username string
}

// ShareClaims bind a single file to an anonymously usable token. IssuerID
// records which user minted the link.
type ShareClaims struct {
	jwt.RegisteredClaims
	FileID   string
	IssuerID string
}

// TokenManager signs and parses tokens with a single secret loaded once at
// process start. The clock is injectable so expiry boundaries are testable.
type TokenManager struct {
	secretKey []byte
	now       func() time.Time
}

func NewTokenManager(secretKey []byte) *TokenManager {
	return &TokenManager{secretKey: secretKey, now: time.Now}
}

// NewTokenManagerWithClock is NewTokenManager with an explicit time source.
func NewTokenManagerWithClock(secretKey []byte, now func() time.Time) *TokenManager {
	return &TokenManager{secretKey: secretKey, now: now}
}

// GenerateSessionToken mints a session token valid for the given duration.
func (m *TokenManager) GenerateSessionToken(userID, username string, validity time.Duration) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserID:   userID,
		Username: username,
	})
	return token.SignedString(m.secretKey)
}

// ParseSessionToken verifies signature and expiry and returns the claims.
// Returns common.ErrTokenExpired past expiry, common.ErrInvalidToken for
// anything else wrong with the token.
func (m *TokenManager) ParseSessionToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := m.parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// GenerateShareToken mints a share token for one file.
func (m *TokenManager) GenerateShareToken(fileID, issuerID string, validity time.Duration) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ShareClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		FileID:   fileID,
		IssuerID: issuerID,
	})
	return token.SignedString(m.secretKey)
}

// ParseShareToken verifies signature and expiry and returns the claims.
func (m *TokenManager) ParseShareToken(tokenString string) (*ShareClaims, error) {
	claims := &ShareClaims{}
	if err := m.parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *TokenManager) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return common.ErrTokenExpired
		}
		return common.ErrInvalidToken
	}
	if !token.Valid {
		return common.ErrInvalidToken
	}
	return nil
}
