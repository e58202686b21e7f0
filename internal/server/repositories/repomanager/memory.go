package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/useraccounts/internal/dbx"
	"github.com/dmitrijs2005/useraccounts/internal/server/repositories/users"
)

// InMemoryRepositoryManager serves one shared MemoryRepository regardless
// of the DBTX passed in. Transactions wrapping it are no-ops for its data.
type InMemoryRepositoryManager struct {
	users *users.MemoryRepository
}

// NewInMemoryRepositoryManager is used when no database DSN is configured.
func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{users: users.NewMemoryRepository()}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.users
}
