package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tubeauth/internal/dbx"
	"github.com/dmitrijs2005/tubeauth/internal/server/repositories/users"
)

// MemoryRepositoryManager hands out the same in-memory repositories
// regardless of the handle; transactions are not isolated.
type MemoryRepositoryManager struct {
	users *users.MemoryRepository
}

func NewMemoryRepositoryManager(u *users.MemoryRepository) *MemoryRepositoryManager {
	if u == nil {
		u = users.NewMemoryRepository()
	}
	return &MemoryRepositoryManager{users: u}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }
