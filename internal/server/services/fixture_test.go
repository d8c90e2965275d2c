package services

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tubeauth/internal/server/auth"
	"github.com/dmitrijs2005/tubeauth/internal/server/metrics"
	"github.com/dmitrijs2005/tubeauth/internal/server/models"
	"github.com/dmitrijs2005/tubeauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tubeauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/tubeauth/internal/server/sessions"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTTL  = 15 * time.Minute
	refreshTTL = 240 * time.Hour
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// spyStore counts calls and can inject failures.
type spyStore struct {
	inner sessions.Store
	calls atomic.Int32

	currentErr error
	persistErr error
}

func (s *spyStore) Persist(ctx context.Context, userID, token string) error {
	s.calls.Add(1)
	if s.persistErr != nil {
		return s.persistErr
	}
	return s.inner.Persist(ctx, userID, token)
}

func (s *spyStore) Current(ctx context.Context, userID string) (string, bool, error) {
	s.calls.Add(1)
	if s.currentErr != nil {
		return "", false, s.currentErr
	}
	return s.inner.Current(ctx, userID)
}

func (s *spyStore) Clear(ctx context.Context, userID string) error {
	s.calls.Add(1)
	return s.inner.Clear(ctx, userID)
}

type fixture struct {
	svc     *UserService
	users   *users.MemoryRepository
	store   *spyStore
	creds   *auth.CredentialStore
	tokens  *auth.TokenIssuer
	clock   *clock
	mock    sqlmock.Sqlmock
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		users:   users.NewMemoryRepository(),
		clock:   &clock{now: time.Now()},
		mock:    mock,
		metrics: metrics.New(),
	}
	f.store = &spyStore{inner: sessions.NewUserRecordStore(f.users)}
	f.creds, err = auth.NewCredentialStore(bcrypt.MinCost)
	require.NoError(t, err)
	f.tokens = auth.NewTokenIssuer("access-secret", accessTTL, "refresh-secret", refreshTTL).WithClock(f.clock.Now)

	f.svc = newService(db, f)
	return f
}

func newService(db *sql.DB, f *fixture) *UserService {
	return NewUserService(db, repomanager.NewMemoryRepositoryManager(f.users), f.store, f.creds, f.tokens, nil, f.metrics)
}

// seed stores a user with the given password without going through Register.
func (f *fixture) seed(t *testing.T, userName, email, password string) *models.User {
	t.Helper()
	hash, err := f.creds.Hash(password)
	require.NoError(t, err)
	u, err := f.users.Create(context.Background(), &models.User{
		UserName:     userName,
		Email:        email,
		FullName:     "Ash Ketchum",
		PasswordHash: hash,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) current(t *testing.T, userID string) (string, bool) {
	t.Helper()
	tok, ok, err := f.store.inner.Current(context.Background(), userID)
	require.NoError(t, err)
	return tok, ok
}
