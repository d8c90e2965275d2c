package models

// TokenPair bundles a short-lived access token and a long-lived refresh token.
// Only the refresh half is persisted, on the owning user.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
