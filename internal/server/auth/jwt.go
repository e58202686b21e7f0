package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/useraccounts/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the registered claims plus the owning user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// TokenIssuer mints and verifies access and refresh tokens. Each token
// kind is signed with its own secret.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenIssuer fails when either secret is empty or either TTL is not positive.
func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenIssuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token validity must be positive")
	}
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

// AccessTTL and RefreshTTL report token lifetimes, e.g. for cookie Max-Age.
func (t *TokenIssuer) AccessTTL() time.Duration  { return t.accessTTL }
func (t *TokenIssuer) RefreshTTL() time.Duration { return t.refreshTTL }

// IssueAccessToken signs a short-lived token with the access secret.
func (t *TokenIssuer) IssueAccessToken(userID string) (string, error) {
	return GenerateToken(userID, t.accessSecret, t.accessTTL, t.now())
}

// IssueRefreshToken signs a long-lived token with the refresh secret.
func (t *TokenIssuer) IssueRefreshToken(userID string) (string, error) {
	return GenerateToken(userID, t.refreshSecret, t.refreshTTL, t.now())
}

// VerifyAccessToken verifies token against the access secret.
func (t *TokenIssuer) VerifyAccessToken(token string) (*Claims, error) {
	return Verify(token, t.accessSecret)
}

// VerifyRefreshToken verifies token against the refresh secret.
func (t *TokenIssuer) VerifyRefreshToken(token string) (*Claims, error) {
	return Verify(token, t.refreshSecret)
}

// GenerateToken signs an HS256 token for userID that expires validity after now.
func GenerateToken(userID string, secretKey []byte, validity time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserID: userID,
	})

	return token.SignedString(secretKey)
}

// Verify checks signature, algorithm and expiry of tokenString.
// Errors are one of common.ErrMalformedToken, common.ErrTokenExpired or
// common.ErrInvalidToken.
func Verify(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, common.ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, common.ErrTokenExpired
		default:
			return nil, common.ErrInvalidToken
		}
	}

	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
