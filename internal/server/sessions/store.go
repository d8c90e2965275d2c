// Package sessions keeps the single currently valid refresh token of each
// user. Persist overwrites unconditionally, so the last writer wins and any
// earlier token for the same user stops being current.
package sessions

import "context"

// Store is the only writer of a user's session state. Every method fails
// with common.ErrorNotFound when the user does not exist.
type Store interface {
	Persist(ctx context.Context, userID, token string) error
	// Current reports the stored token; ok is false when there is none.
	Current(ctx context.Context, userID string) (token string, ok bool, err error)
	Clear(ctx context.Context, userID string) error
}
