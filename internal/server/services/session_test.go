package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dmitrijs2005/tubeauth/internal/common"
	"github.com/dmitrijs2005/tubeauth/internal/logging"
	"github.com/dmitrijs2005/tubeauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_ReturnsPairAndSanitizedUser(t *testing.T) {
	f := newFixture(t)
	ash := f.seed(t, "ash", "ash@example.com", "p@ss")

	res, err := f.svc.Login(context.Background(), LoginInput{UserName: "ash", Password: "p@ss"})
	require.NoError(t, err)
	require.NotNil(t, res.Tokens)
	assert.NotEmpty(t, res.Tokens.AccessToken)
	assert.NotEmpty(t, res.Tokens.RefreshToken)
	assert.Equal(t, ash.ID, res.User.ID)

	b, err := json.Marshal(res.User)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(b, &fields))
	assert.NotContains(t, fields, "password")
	assert.NotContains(t, fields, "passwordHash")
	assert.NotContains(t, fields, "refreshToken")

	cur, ok := f.current(t, ash.ID)
	require.True(t, ok)
	assert.Equal(t, res.Tokens.RefreshToken, cur)
}

func TestLogin_ByEmailIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ash", "ash@example.com", "p@ss")

	_, err := f.svc.Login(context.Background(), LoginInput{Email: " ASH@example.com ", Password: "p@ss"})
	require.NoError(t, err)
}

func TestLogin_UnknownUserAndWrongPasswordLookAlike(t *testing.T) {
	f := newFixture(t)
	ash := f.seed(t, "ash", "ash@example.com", "p@ss")

	_, errUnknown := f.svc.Login(context.Background(), LoginInput{UserName: "gary", Password: "p@ss"})
	_, errWrong := f.svc.Login(context.Background(), LoginInput{UserName: "ash", Password: "nope"})

	assert.Equal(t, common.ErrInvalidCredentials, errUnknown)
	assert.Equal(t, common.ErrInvalidCredentials, errWrong)
	assert.ErrorIs(t, errWrong, common.ErrorNotFound)

	_, ok := f.current(t, ash.ID)
	assert.False(t, ok)
}

func TestLogin_Validation(t *testing.T) {
	f := newFixture(t)

	for _, in := range []LoginInput{
		{Password: "p@ss"},
		{UserName: "  ", Password: "p@ss"},
		{UserName: "ash"},
	} {
		_, err := f.svc.Login(context.Background(), in)
		assert.ErrorIs(t, err, common.ErrorValidation, "%+v", in)
	}
	assert.Zero(t, f.store.calls.Load())
}

func TestLogin_PersistFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ash", "ash@example.com", "p@ss")
	f.store.persistErr = errors.New("db down")

	res, err := f.svc.Login(context.Background(), LoginInput{UserName: "ash", Password: "p@ss"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.NotContains(t, err.Error(), "db down")
}

func TestLogin_SecondLoginSupersedesFirst(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ash", "ash@example.com", "p@ss")
	ctx := context.Background()

	first, err := f.svc.Login(ctx, LoginInput{UserName: "ash", Password: "p@ss"})
	require.NoError(t, err)
	second, err := f.svc.Login(ctx, LoginInput{UserName: "ash", Password: "p@ss"})
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, first.Tokens.RefreshToken)
	assert.ErrorIs(t, err, common.ErrRefreshTokenReused)

	// reuse of the first token also ended the second session
	_, err = f.svc.Refresh(ctx, second.Tokens.RefreshToken)
	assert.ErrorIs(t, err, common.ErrRefreshTokenReused)
}

func TestRefresh_RotatesAndRejectsReplay(t *testing.T) {
	f := newFixture(t)
	ash := f.seed(t, "ash", "ash@example.com", "p@ss")
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginInput{UserName: "ash", Password: "p@ss"})
	require.NoError(t, err)
	r1 := login.Tokens.RefreshToken

	rotated, err := f.svc.Refresh(ctx, r1)
	require.NoError(t, err)
	assert.NotEqual(t, r1, rotated.RefreshToken)
	assert.NotEqual(t, login.Tokens.AccessToken, rotated.AccessToken)

	cur, ok := f.current(t, ash.ID)
	require.True(t, ok)
	assert.Equal(t, rotated.RefreshToken, cur)

	// r1 still verifies and has not expired, but it is no longer current
	_, err = f.tokens.VerifyRefreshToken(r1)
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, r1)
	assert.ErrorIs(t, err, common.ErrRefreshTokenReused)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, ok = f.current(t, ash.ID)
	assert.False(t, ok, "replay clears the session")
}

func TestRefresh_Rejections(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ash", "ash@example.com", "p@ss")
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginInput{UserName: "ash", Password: "p@ss"})
	require.NoError(t, err)

	ghost, err := f.tokens.IssueRefreshToken(&models.User{ID: "2d0f4a1c-6b9e-4a57-9a3e-1f8e5c7d9b20"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"missing", "", common.ErrMissingCredential},
		{"garbage", "garbage", common.ErrTokenMalformed},
		{"access token", login.Tokens.AccessToken, common.ErrTokenSignature},
		{"deleted user", ghost, common.ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Refresh(ctx, tt.token)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, common.ErrorUnauthorized)
		})
	}

	// none of the rejected attempts touched the live session
	_, err = f.svc.Refresh(ctx, login.Tokens.RefreshToken)
	assert.NoError(t, err)
}

func TestRefresh_Expired(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ash", "ash@example.com", "p@ss")
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginInput{UserName: "ash", Password: "p@ss"})
	require.NoError(t, err)

	f.clock.Advance(refreshTTL + 1)
	_, err = f.svc.Refresh(ctx, login.Tokens.RefreshToken)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestRefresh_AfterLogout(t *testing.T) {
	f := newFixture(t)
	ash := f.seed(t, "ash", "ash@example.com", "p@ss")
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginInput{UserName: "ash", Password: "p@ss"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(ctx, ash.ID))

	_, err = f.svc.Refresh(ctx, login.Tokens.RefreshToken)
	assert.ErrorIs(t, err, common.ErrRefreshTokenReused)
}

func TestRefresh_StoreFailureCollapsesToUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ash", "ash@example.com", "p@ss")
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginInput{UserName: "ash", Password: "p@ss"})
	require.NoError(t, err)

	f.store.currentErr = errors.New("redis down")
	_, err = f.svc.Refresh(ctx, login.Tokens.RefreshToken)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.NotErrorIs(t, err, common.ErrorInternal)
	assert.NotContains(t, err.Error(), "redis down")
}

// gateStore holds every Current caller until n of them have arrived, so
// their currency checks overlap.
type gateStore struct {
	*spyStore
	wg sync.WaitGroup
}

func (g *gateStore) Current(ctx context.Context, userID string) (string, bool, error) {
	tok, ok, err := g.spyStore.Current(ctx, userID)
	g.wg.Done()
	g.wg.Wait()
	return tok, ok, err
}

func TestRefresh_ConcurrentRotationLastWriterWins(t *testing.T) {
	f := newFixture(t)
	ash := f.seed(t, "ash", "ash@example.com", "p@ss")
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginInput{UserName: "ash", Password: "p@ss"})
	require.NoError(t, err)

	gate := &gateStore{spyStore: f.store}
	gate.wg.Add(2)
	racing := NewUserService(nil, f.svc.repomanager, gate, f.creds, f.tokens, nil, nil)

	var (
		wg    sync.WaitGroup
		pairs [2]*models.TokenPair
		errs  [2]error
	)
	for i := range pairs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pairs[i], errs[i] = racing.Refresh(ctx, login.Tokens.RefreshToken)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	cur, ok := f.current(t, ash.ID)
	require.True(t, ok)
	winner, loser := pairs[0], pairs[1]
	if cur != winner.RefreshToken {
		winner, loser = loser, winner
	}
	assert.Equal(t, winner.RefreshToken, cur)

	_, err = f.svc.Refresh(ctx, loser.RefreshToken)
	assert.ErrorIs(t, err, common.ErrRefreshTokenReused)
}

func TestLogout_Idempotent(t *testing.T) {
	f := newFixture(t)
	ash := f.seed(t, "ash", "ash@example.com", "p@ss")
	ctx := context.Background()

	_, err := f.svc.Login(ctx, LoginInput{UserName: "ash", Password: "p@ss"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.NoError(t, f.svc.Logout(ctx, ash.ID))
		_, ok := f.current(t, ash.ID)
		assert.False(t, ok)
	}
}

func TestLogout_MissingUser(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Logout(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAuthenticate_ReturnsStoredProfile(t *testing.T) {
	f := newFixture(t)
	ash := f.seed(t, "ash", "ash@example.com", "p@ss")
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginInput{UserName: "ash", Password: "p@ss"})
	require.NoError(t, err)

	name := "Ash of Pallet"
	_, err = f.users.UpdateAccount(ctx, ash.ID, &name, nil)
	require.NoError(t, err)

	calls := f.store.calls.Load()
	principal, err := f.svc.Authenticate(ctx, login.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, ash.ID, principal.ID)
	assert.Equal(t, "Ash of Pallet", principal.FullName)
	assert.Equal(t, calls, f.store.calls.Load(), "session store consulted")
}

func TestAuthenticate_ExpiredAccessToken(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ash", "ash@example.com", "p@ss")
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginInput{UserName: "ash", Password: "p@ss"})
	require.NoError(t, err)

	f.clock.Advance(accessTTL + 1)
	calls := f.store.calls.Load()

	_, err = f.svc.Authenticate(ctx, login.Tokens.AccessToken)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.Equal(t, calls, f.store.calls.Load(), "session store consulted")
}

func TestAuthenticate_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, common.ErrMissingCredential)

	_, err = f.svc.Authenticate(ctx, "x.y.z")
	assert.ErrorIs(t, err, common.ErrTokenMalformed)

	ghost, err := f.tokens.IssueAccessToken(&models.User{ID: "2d0f4a1c-6b9e-4a57-9a3e-1f8e5c7d9b20"})
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, ghost)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestAuthenticate_LogsRejectionReasonAtInfoLevel(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ash", "ash@example.com", "p@ss")
	ctx := context.Background()

	var buf bytes.Buffer
	f.svc.logger = logging.NewJSONLogger(&buf, slog.LevelInfo)

	login, err := f.svc.Login(ctx, LoginInput{UserName: "ash", Password: "p@ss"})
	require.NoError(t, err)
	f.clock.Advance(accessTTL + 1)

	_, err = f.svc.Authenticate(ctx, login.Tokens.AccessToken)
	require.ErrorIs(t, err, common.ErrTokenExpired)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), common.ErrTokenExpired.Error())

	buf.Reset()
	_, err = f.svc.Authenticate(ctx, "x.y.z")
	require.ErrorIs(t, err, common.ErrTokenMalformed)
	assert.Contains(t, buf.String(), common.ErrTokenMalformed.Error())
	assert.NotContains(t, buf.String(), "x.y.z")
}

func TestMetrics_CountOutcomes(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ash", "ash@example.com", "p@ss")
	ctx := context.Background()

	_, err := f.svc.Login(ctx, LoginInput{UserName: "ash", Password: "p@ss"})
	require.NoError(t, err)
	_, _ = f.svc.Login(ctx, LoginInput{UserName: "ash", Password: "bad"})

	rec := httptest.NewRecorder()
	f.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `tubeauth_auth_operations_total{operation="login",result="ok"} 1`)
	assert.Contains(t, string(body), `tubeauth_auth_operations_total{operation="login",result="not_found"} 1`)
}
