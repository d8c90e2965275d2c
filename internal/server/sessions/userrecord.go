package sessions

import (
	"context"

	"github.com/dmitrijs2005/tubeauth/internal/server/repositories/users"
)

// UserRecordStore keeps the token on the user row itself.
type UserRecordStore struct {
	users users.Repository
}

func NewUserRecordStore(repo users.Repository) *UserRecordStore {
	return &UserRecordStore{users: repo}
}

func (s *UserRecordStore) Persist(ctx context.Context, userID, token string) error {
	return s.users.SetRefreshToken(ctx, userID, &token)
}

func (s *UserRecordStore) Current(ctx context.Context, userID string) (string, bool, error) {
	t, err := s.users.GetRefreshToken(ctx, userID)
	if err != nil {
		return "", false, err
	}
	if t == nil {
		return "", false, nil
	}
	return *t, true, nil
}

func (s *UserRecordStore) Clear(ctx context.Context, userID string) error {
	return s.users.SetRefreshToken(ctx, userID, nil)
}
