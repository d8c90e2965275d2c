// Package auth holds the credential primitives of the session subsystem:
// password hashing (CredentialStore) and signed session tokens (TokenIssuer).
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tubeauth/internal/common"
	"github.com/dmitrijs2005/tubeauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessClaims are embedded in access tokens: identity plus the profile
// fields downstream handlers commonly need.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"_id"`
	Email    string `json:"email"`
	UserName string `json:"username"`
	FullName string `json:"fullName"`
}

// RefreshClaims are deliberately minimal: a leaked refresh token reveals
// nothing beyond the user id.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"_id"`
}

// TokenIssuer mints and verifies HS256 tokens. Each token class has its own
// secret and lifetime, so a token of one class never verifies as the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(accessSecret string, accessTTL time.Duration, refreshSecret string, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// WithClock replaces the time source used for issuing and verifying.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	i.now = now
	return i
}

// AccessTTL is the lifetime of issued access tokens.
func (i *TokenIssuer) AccessTTL() time.Duration { return i.accessTTL }

// RefreshTTL is the lifetime of issued refresh tokens.
func (i *TokenIssuer) RefreshTTL() time.Duration { return i.refreshTTL }

func (i *TokenIssuer) registered(ttl time.Duration) jwt.RegisteredClaims {
	now := i.now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// IssueAccessToken signs an access token carrying u's current profile.
func (i *TokenIssuer) IssueAccessToken(u *models.User) (string, error) {
	return GenerateToken(AccessClaims{
		RegisteredClaims: i.registered(i.accessTTL),
		UserID:           u.ID,
		Email:            u.Email,
		UserName:         u.UserName,
		FullName:         u.FullName,
	}, i.accessSecret)
}

// IssueRefreshToken signs a refresh token for u. Every call yields a
// distinct token, even within the same second.
func (i *TokenIssuer) IssueRefreshToken(u *models.User) (string, error) {
	return GenerateToken(RefreshClaims{
		RegisteredClaims: i.registered(i.refreshTTL),
		UserID:           u.ID,
	}, i.refreshSecret)
}

// IssuePair mints a fresh access/refresh pair for u.
func (i *TokenIssuer) IssuePair(u *models.User) (*models.TokenPair, error) {
	access, err := i.IssueAccessToken(u)
	if err != nil {
		return nil, fmt.Errorf("%w: sign access token: %v", common.ErrorInternal, err)
	}
	refresh, err := i.IssueRefreshToken(u)
	if err != nil {
		return nil, fmt.Errorf("%w: sign refresh token: %v", common.ErrorInternal, err)
	}
	return &models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccessToken checks signature and expiry of an access token.
// Failures are one of common.ErrTokenMalformed, common.ErrTokenSignature or
// common.ErrTokenExpired.
func (i *TokenIssuer) VerifyAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := ParseToken(token, claims, i.accessSecret, i.now); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, common.ErrTokenMalformed
	}
	return claims, nil
}

// VerifyRefreshToken is VerifyAccessToken for the refresh class. It says
// nothing about whether the token is still the user's current one.
func (i *TokenIssuer) VerifyRefreshToken(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := ParseToken(token, claims, i.refreshSecret, i.now); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, common.ErrTokenMalformed
	}
	return claims, nil
}

// GenerateToken signs claims with secret using HS256.
func GenerateToken(claims jwt.Claims, secretKey []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey)
}

// ParseToken verifies tokenString with secretKey and decodes it into claims.
// Only HS256 is accepted, an expiry claim is mandatory and segments must be
// canonical base64url, so no altered character can decode to the same bytes.
func ParseToken(tokenString string, claims jwt.Claims, secretKey []byte, now func() time.Time) error {
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return classify(err)
	}
	if !token.Valid {
		return common.ErrInvalidToken
	}
	return nil
}

// classify maps parser failures to token sub-reasons. Altered header or
// payload content that no longer decodes reports as malformed; content that
// decodes but does not match the signature reports as a signature failure.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return common.ErrTokenSignature
	default:
		return common.ErrTokenMalformed
	}
}
