package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/useraccounts/internal/common"
	"github.com/dmitrijs2005/useraccounts/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. It enforces the same
// case-insensitive uniqueness on username and email as the SQL schema.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: map[string]*models.User{}}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.RefreshToken != nil {
		t := *u.RefreshToken
		c.RefreshToken = &t
	}
	return &c
}

// Len returns the number of stored users.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// taken reports whether another user already owns username or email.
// Caller holds the lock.
func (r *MemoryRepository) taken(exceptID, username, email string) bool {
	for _, u := range r.byID {
		if u.ID == exceptID {
			continue
		}
		if (username != "" && strings.EqualFold(u.Username, username)) || (email != "" && strings.EqualFold(u.Email, email)) {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.taken("", user.Username, user.Email) {
		return nil, common.Conflict("user with this username or email already exists")
	}

	c := cloneUser(user)
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	r.byID[c.ID] = c

	return cloneUser(c), nil
}

func (r *MemoryRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if (username != "" && strings.EqualFold(u.Username, username)) || (email != "" && strings.EqualFold(u.Email, email)) {
			return cloneUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

// FindByIDForUpdate does not lock anything; callers that need mutual
// exclusion must use the SQL repository.
func (r *MemoryRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.FindByID(ctx, id)
}

func (r *MemoryRepository) mutate(id string, fn func(u *models.User) error) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}

func (r *MemoryRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {
	_, err := r.mutate(id, func(u *models.User) error {
		u.RefreshToken = nil
		if token != nil {
			t := *token
			u.RefreshToken = &t
		}
		return nil
	})
	return err
}

func (r *MemoryRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.mutate(id, func(u *models.User) error {
		u.PasswordHash = passwordHash
		return nil
	})
	return err
}

func (r *MemoryRepository) UpdateProfile(ctx context.Context, id, fullname, email string) (*models.User, error) {
	return r.mutate(id, func(u *models.User) error {
		if r.taken(id, "", email) {
			return common.Conflict("user with this username or email already exists")
		}
		u.Fullname, u.Email = fullname, email
		return nil
	})
}

func (r *MemoryRepository) UpdateAvatar(ctx context.Context, id, url string) (*models.User, error) {
	return r.mutate(id, func(u *models.User) error {
		u.AvatarURL = url
		return nil
	})
}

func (r *MemoryRepository) UpdateCoverImage(ctx context.Context, id, url string) (*models.User, error) {
	return r.mutate(id, func(u *models.User) error {
		u.CoverImageURL = url
		return nil
	})
}
