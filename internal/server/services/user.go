// Package services contains server-side business logic. UserService owns
// the session lifecycle (login, refresh, logout, authenticate) and the
// account operations that touch credentials (register, change password,
// update account).
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tubeauth/internal/common"
	"github.com/dmitrijs2005/tubeauth/internal/dbx"
	"github.com/dmitrijs2005/tubeauth/internal/logging"
	"github.com/dmitrijs2005/tubeauth/internal/server/auth"
	"github.com/dmitrijs2005/tubeauth/internal/server/metrics"
	"github.com/dmitrijs2005/tubeauth/internal/server/models"
	"github.com/dmitrijs2005/tubeauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tubeauth/internal/server/sessions"
)

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sessions    sessions.Store
	creds       *auth.CredentialStore
	tokens      *auth.TokenIssuer
	logger      logging.Logger
	metrics     *metrics.Metrics
}

// NewUserService wires the service. logger and m may be nil.
func NewUserService(db *sql.DB, rm repomanager.RepositoryManager, store sessions.Store,
	creds *auth.CredentialStore, tokens *auth.TokenIssuer, logger logging.Logger, m *metrics.Metrics) *UserService {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &UserService{
		db:          db,
		repomanager: rm,
		sessions:    store,
		creds:       creds,
		tokens:      tokens,
		logger:      logger.With("component", "user_service"),
		metrics:     m,
	}
}

type RegisterInput struct {
	FullName string
	Email    string
	UserName string
	Password string
}

// Register creates an account. Username and email are stored trimmed and
// lowercased; a taken username or email yields common.ErrorConflict.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (_ *models.PublicUser, err error) {
	defer func() { s.metrics.Observe(metrics.OpRegister, err) }()

	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = normalize(in.Email)
	in.UserName = normalize(in.UserName)
	if in.FullName == "" || in.Email == "" || in.UserName == "" || strings.TrimSpace(in.Password) == "" {
		return nil, fmt.Errorf("%w: all fields are required", common.ErrorValidation)
	}

	hash, err := s.creds.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	var created *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		_, err := repo.GetByUsernameOrEmail(ctx, in.UserName, in.Email)
		switch {
		case err == nil:
			return fmt.Errorf("%w: user with email or username", common.ErrorConflict)
		case !errors.Is(err, common.ErrorNotFound):
			return err
		}

		created, err = repo.Create(ctx, &models.User{
			UserName:     in.UserName,
			Email:        in.Email,
			FullName:     in.FullName,
			PasswordHash: hash,
		})
		return err
	})
	if err != nil {
		return nil, s.internal(ctx, "register", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", created.ID)
	return created.Sanitize(), nil
}

// ChangePassword replaces the password of userID after checking the old
// one. The current session is left as is.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) (err error) {
	defer func() { s.metrics.Observe(metrics.OpChangePassword, err) }()

	if oldPassword == "" || strings.TrimSpace(newPassword) == "" {
		return fmt.Errorf("%w: old and new password are required", common.ErrorValidation)
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return s.internal(ctx, "change password", err)
	}
	if !s.creds.Verify(oldPassword, user.PasswordHash) {
		return common.ErrInvalidPassword
	}

	hash, err := s.creds.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return s.internal(ctx, "change password", err)
	}
	s.logger.Info(ctx, "password changed", "user_id", userID)
	return nil
}

type UpdateAccountInput struct {
	FullName *string
	Email    *string
}

// UpdateAccount changes the supplied profile fields; at least one must be
// non-empty.
func (s *UserService) UpdateAccount(ctx context.Context, userID string, in UpdateAccountInput) (_ *models.PublicUser, err error) {
	defer func() { s.metrics.Observe(metrics.OpUpdateAccount, err) }()

	var fullName, email *string
	if in.FullName != nil {
		if v := strings.TrimSpace(*in.FullName); v != "" {
			fullName = &v
		}
	}
	if in.Email != nil {
		if v := normalize(*in.Email); v != "" {
			email = &v
		}
	}
	if fullName == nil && email == nil {
		return nil, fmt.Errorf("%w: full name or email is required", common.ErrorValidation)
	}

	user, err := s.repomanager.Users(s.db).UpdateAccount(ctx, userID, fullName, email)
	if err != nil {
		return nil, s.internal(ctx, "update account", err)
	}
	return user.Sanitize(), nil
}

// CurrentUser reloads userID from storage.
func (s *UserService) CurrentUser(ctx context.Context, userID string) (*models.PublicUser, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, s.internal(ctx, "current user", err)
	}
	return user.Sanitize(), nil
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// internal passes classified errors through and collapses anything else
// into common.ErrorInternal after logging it.
func (s *UserService) internal(ctx context.Context, op string, err error) error {
	for _, class := range []error{common.ErrorValidation, common.ErrorUnauthorized, common.ErrorNotFound, common.ErrorConflict, common.ErrorInternal} {
		if errors.Is(err, class) {
			return err
		}
	}
	s.logger.Error(ctx, op+" failed", "err", err)
	return fmt.Errorf("%w: %s", common.ErrorInternal, op)
}
