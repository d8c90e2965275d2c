package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tubeauth/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func stubGoose(t *testing.T, fn func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error) {
	t.Helper()
	orig := gooseUpContext
	gooseUpContext = fn
	t.Cleanup(func() { gooseUpContext = orig })
}

func TestUsers_ReturnsPostgresRepository(t *testing.T) {
	db := newDB(t)

	m := NewPostgresRepositoryManager()
	repo := m.Users(db)

	require.NotNil(t, repo)
	_, ok := repo.(*users.PostgresRepository)
	assert.True(t, ok)
}

func TestRunMigrations_Success(t *testing.T) {
	db := newDB(t)

	var gotDir string
	stubGoose(t, func(ctx context.Context, d *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		if d != db {
			return errors.New("unexpected db")
		}
		return nil
	})

	require.NoError(t, NewPostgresRepositoryManager().RunMigrations(context.Background(), db))
	assert.Equal(t, ".", gotDir)
}

func TestRunMigrations_Error(t *testing.T) {
	db := newDB(t)
	stubGoose(t, func(ctx context.Context, d *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	})

	err := NewPostgresRepositoryManager().RunMigrations(context.Background(), db)
	assert.EqualError(t, err, "boom")
}

func TestMemoryRepositoryManager_SharesRepository(t *testing.T) {
	m := NewMemoryRepositoryManager(nil)
	var _ RepositoryManager = m

	require.NoError(t, m.RunMigrations(context.Background(), nil))
	assert.Same(t, m.Users(nil), m.Users(nil))
}
