// Package users declares the credential store contract and its PostgreSQL
// implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/useraccounts/internal/server/models"
)

// Repository persists user records. Lookups that match nothing return
// common.ErrorNotFound; unique violations on username/email return
// common.ErrorConflict.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// FindByUsernameOrEmail matches either field; an empty argument never matches.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*models.User, error)

	// SetRefreshToken overwrites the stored refresh token; nil clears it.
	SetRefreshToken(ctx context.Context, id string, token *string) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	UpdateProfile(ctx context.Context, id string, fullname, email string) (*models.User, error)
	UpdateAvatar(ctx context.Context, id string, url string) (*models.User, error)
	UpdateCoverImage(ctx context.Context, id string, url string) (*models.User, error)
}
