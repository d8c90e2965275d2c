// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is the persisted account. PasswordHash and RefreshToken are
// credential/session state and never leave the server; use Sanitize
// before handing a user to a client.
type User struct {
	ID           string
	UserName     string
	Email        string
	FullName     string
	PasswordHash string
	// RefreshToken is the single currently valid refresh token, nil when
	// the user has no live session.
	RefreshToken *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the client-facing view of a User.
type PublicUser struct {
	ID        string    `json:"_id"`
	UserName  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Sanitize strips credentials and session state.
func (u *User) Sanitize() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:        u.ID,
		UserName:  u.UserName,
		Email:     u.Email,
		FullName:  u.FullName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
