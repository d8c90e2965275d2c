package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tubeauth/internal/common"
	"github.com/dmitrijs2005/tubeauth/internal/server/metrics"
	"github.com/dmitrijs2005/tubeauth/internal/server/models"
)

// LoginInput identifies the account by UserName or Email; one is enough.
type LoginInput struct {
	UserName string
	Email    string
	Password string
}

type LoginResult struct {
	User   *models.PublicUser
	Tokens *models.TokenPair
}

// Login checks the credentials, mints a token pair and makes its refresh
// token the user's only current one. Unknown users and wrong passwords both
// yield common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, in LoginInput) (_ *LoginResult, err error) {
	defer func() { s.metrics.Observe(metrics.OpLogin, err) }()

	userName, email := normalize(in.UserName), normalize(in.Email)
	if userName == "" && email == "" {
		return nil, fmt.Errorf("%w: username or email is required", common.ErrorValidation)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", common.ErrorValidation)
	}

	user, err := s.repomanager.Users(s.db).GetByUsernameOrEmail(ctx, userName, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Info(ctx, "login rejected", "reason", "unknown user")
			return nil, common.ErrInvalidCredentials
		}
		return nil, s.internal(ctx, "login", err)
	}

	if !s.creds.Verify(in.Password, user.PasswordHash) {
		s.logger.Info(ctx, "login rejected", "reason", "wrong password", "user_id", user.ID)
		return nil, common.ErrInvalidCredentials
	}

	// issue before persisting so a signing failure leaves the old session intact
	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, s.internal(ctx, "login", err)
	}
	if err := s.sessions.Persist(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, s.internal(ctx, "login", err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{User: user.Sanitize(), Tokens: pair}, nil
}

// Refresh exchanges a current refresh token for a new pair. Every failure
// is reported as common.ErrorUnauthorized; the reason is only logged.
// Presenting a token that is validly signed but no longer current clears
// the user's session.
//
// Two concurrent refreshes with the same token both pass the currency
// check; whichever persists last wins and the other caller's new refresh
// token is already stale.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (_ *models.TokenPair, err error) {
	defer func() { s.metrics.Observe(metrics.OpRefresh, err) }()

	pair, err := s.rotate(ctx, refreshToken)
	if err != nil {
		s.logger.Warn(ctx, "refresh rejected", "reason", err)
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, err
		}
		return nil, common.ErrInvalidToken
	}
	return pair, nil
}

func (s *UserService) rotate(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	if refreshToken == "" {
		return nil, common.ErrMissingCredential
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}

	current, ok, err := s.sessions.Current(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !ok || subtle.ConstantTimeCompare([]byte(current), []byte(refreshToken)) != 1 {
		if ok {
			if err := s.sessions.Clear(ctx, user.ID); err != nil {
				s.logger.Error(ctx, "clear session after reuse", "user_id", user.ID, "err", err)
			}
			s.logger.Warn(ctx, "superseded refresh token presented, session cleared", "user_id", user.ID)
		}
		return nil, common.ErrRefreshTokenReused
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Persist(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout clears the current session of userID. Repeating it is harmless.
func (s *UserService) Logout(ctx context.Context, userID string) (err error) {
	defer func() { s.metrics.Observe(metrics.OpLogout, err) }()

	if err := s.sessions.Clear(ctx, userID); err != nil {
		return s.internal(ctx, "logout", err)
	}
	s.logger.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// Authenticate resolves an access token to the stored user it names. It
// never looks at session state and never refreshes an expired token.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (_ *models.User, err error) {
	defer func() {
		if err != nil {
			s.metrics.Observe(metrics.OpAuthenticate, err)
		}
	}()

	if accessToken == "" {
		return nil, common.ErrMissingCredential
	}

	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		s.logger.Warn(ctx, "access token rejected", "reason", err)
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "access token for missing user", "user_id", claims.UserID)
			return nil, common.ErrInvalidToken
		}
		return nil, s.internal(ctx, "authenticate", err)
	}
	return user, nil
}
