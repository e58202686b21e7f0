package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/useraccounts/internal/dbx"
	"github.com/dmitrijs2005/useraccounts/internal/server/models"
	"github.com/dmitrijs2005/useraccounts/internal/server/repositories/repomanager"
	usersrepo "github.com/dmitrijs2005/useraccounts/internal/server/repositories/users"
	"github.com/dmitrijs2005/useraccounts/internal/server/storage"
)

// memUsers wraps the in-memory repository with injectable failures.
type memUsers struct {
	*usersrepo.MemoryRepository

	createErr     error
	setRefreshErr error
}

func newMemUsers() *memUsers {
	return &memUsers{MemoryRepository: usersrepo.NewMemoryRepository()}
}

func (m *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.MemoryRepository.Create(ctx, u)
}

func (m *memUsers) SetRefreshToken(ctx context.Context, id string, token *string) error {
	if m.setRefreshErr != nil {
		return m.setRefreshErr
	}
	return m.MemoryRepository.SetRefreshToken(ctx, id, token)
}

// stored returns the raw record, refresh token included.
func (m *memUsers) stored(id string) *models.User {
	u, err := m.MemoryRepository.FindByID(context.Background(), id)
	if err != nil {
		return nil
	}
	return u
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	u *memUsers
}

func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository { return m.u }

type fakeUploader struct {
	mu      sync.Mutex
	err     error
	emptyOn string
	calls   []string
}

func (f *fakeUploader) Upload(ctx context.Context, localPath string) (*storage.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, localPath)
	if f.err != nil {
		return nil, f.err
	}
	if f.emptyOn != "" && f.emptyOn == localPath {
		return &storage.UploadResult{}, nil
	}
	return &storage.UploadResult{SecureURL: "https://cdn.test/" + localPath, Key: localPath}, nil
}
