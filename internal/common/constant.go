// Package common contains shared constants and error kinds used across
// the account server components.
package common

// Cookie names carrying the session tokens.
const (
	AccessTokenCookieName  = "accessToken"
	RefreshTokenCookieName = "refreshToken"
)

// AuthorizationHeaderName and BearerScheme describe the header fallback used
// when the access token cookie is absent.
const (
	AuthorizationHeaderName = "Authorization"
	BearerScheme            = "Bearer"
)
