// Package users persists user accounts, including each account's single
// current refresh token.
package users

import (
	"context"

	"github.com/dmitrijs2005/tubeauth/internal/server/models"
)

type Repository interface {
	// Create inserts user, assigning its ID and timestamps. A taken username
	// or email yields common.ErrorConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByUsernameOrEmail matches on whichever of the two is non-empty.
	GetByUsernameOrEmail(ctx context.Context, userName, email string) (*models.User, error)

	GetRefreshToken(ctx context.Context, id string) (*string, error)
	// SetRefreshToken replaces the stored token; nil clears it.
	SetRefreshToken(ctx context.Context, id string, token *string) error

	UpdatePasswordHash(ctx context.Context, id, hash string) error
	// UpdateAccount changes the non-nil fields and returns the updated user.
	UpdateAccount(ctx context.Context, id string, fullName, email *string) (*models.User, error)
}
