package common

const (
	// AccessTokenCookieName and RefreshTokenCookieName name the two session
	// artifacts delivered to HTTP clients.
	AccessTokenCookieName  = "accessToken"
	RefreshTokenCookieName = "refreshToken"

	// AccessTokenHeaderName is the gRPC metadata key carrying the access token.
	AccessTokenHeaderName = "access_token"
)
