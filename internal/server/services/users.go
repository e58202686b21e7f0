// Package services holds the account use cases: registration, the session
// lifecycle (login, refresh rotation, logout) and profile changes.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"strings"
	"sync"

	"github.com/dmitrijs2005/useraccounts/internal/common"
	"github.com/dmitrijs2005/useraccounts/internal/dbx"
	"github.com/dmitrijs2005/useraccounts/internal/logging"
	"github.com/dmitrijs2005/useraccounts/internal/server/auth"
	"github.com/dmitrijs2005/useraccounts/internal/server/models"
	"github.com/dmitrijs2005/useraccounts/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/useraccounts/internal/server/storage"
)

// TokenPair is an access token with its matching refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is a fresh session plus the sanitized user it belongs to.
type LoginResult struct {
	TokenPair
	User *models.PublicUser
}

// RegisterInput carries registration fields. AvatarPath and CoverImagePath
// point at already-staged local files; CoverImagePath may be empty.
type RegisterInput struct {
	Fullname       string
	Email          string
	Username       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// UserService implements account and session operations on top of the
// users repository, the token issuer and the media uploader.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenIssuer
	passwords   *auth.PasswordHasher
	uploader    storage.Uploader
	log         logging.Logger

	// txMu stands in for row locks when there is no database.
	txMu sync.Mutex
}

// NewUserService wires a UserService. A nil logger falls back to logging.Nop.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenIssuer,
	passwords *auth.PasswordHasher, uploader storage.Uploader, log logging.Logger) *UserService {
	if log == nil {
		log = logging.Nop{}
	}
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		passwords:   passwords,
		uploader:    uploader,
		log:         log.With("module", "users"),
	}
}

// Tokens exposes the issuer so the transport can size cookies from token TTLs.
func (s *UserService) Tokens() *auth.TokenIssuer { return s.tokens }

// Register validates input, uploads the avatar and optional cover image,
// then stores the user with a bcrypt hash of the password.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.PublicUser, error) {
	fullname := strings.TrimSpace(in.Fullname)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.ToLower(strings.TrimSpace(in.Username))

	if fullname == "" || email == "" || username == "" || strings.TrimSpace(in.Password) == "" {
		return nil, common.Validation("All fields are required")
	}
	if err := s.passwords.Validate(in.Password); err != nil {
		return nil, err
	}
	if in.AvatarPath == "" {
		return nil, common.Validation("Avatar file is required")
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.FindByUsernameOrEmail(ctx, username, email)
	switch {
	case err == nil:
		return nil, common.Conflict("User with email or username already exists")
	case !errors.Is(err, common.ErrorNotFound):
		return nil, s.internal(ctx, "error checking existing user", err)
	}

	avatarURL, err := s.upload(ctx, in.AvatarPath, "avatar")
	if err != nil {
		return nil, err
	}

	var coverURL string
	if in.CoverImagePath != "" {
		coverURL, err = s.upload(ctx, in.CoverImagePath, "cover image")
		if err != nil {
			return nil, err
		}
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, s.passOrInternal(ctx, "error hashing password", err)
	}

	user, err := repo.Create(ctx, &models.User{
		Username:      username,
		Email:         email,
		Fullname:      fullname,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		PasswordHash:  hash,
	})
	if err != nil {
		return nil, s.passOrInternal(ctx, "error creating user", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return user.Public(), nil
}

// Login accepts either username or email; at least one must be set.
func (s *UserService) Login(ctx context.Context, username, email, password string) (*LoginResult, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" && email == "" {
		return nil, common.Validation("username or email is required")
	}
	if password == "" {
		return nil, common.Validation("password is required")
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound("User does not exist")
		}
		return nil, s.internal(ctx, "error searching user", err)
	}

	if !s.passwords.Verify(password, user.PasswordHash) {
		return nil, common.Unauthorized("Invalid user credentials")
	}

	pair, err := s.generateTokenPair(user.ID)
	if err != nil {
		return nil, s.internal(ctx, "error generating tokens", err)
	}

	if err := repo.SetRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		return nil, s.internal(ctx, "error saving refresh token", err)
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{TokenPair: *pair, User: user.Public()}, nil
}

// Logout drops the stored refresh token so no outstanding one can be redeemed.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.repomanager.Users(s.db).SetRefreshToken(ctx, userID, nil); err != nil {
		return s.passOrInternal(ctx, "error clearing refresh token", err)
	}
	s.log.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// RefreshSession rotates the refresh token. The user row is locked for the
// duration of the check-and-replace so that a token can be redeemed once.
// Every failure is reported as unauthorized.
func (s *UserService) RefreshSession(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, common.Unauthorized("unauthorized request")
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, common.NewError(common.KindUnauthorized, "Invalid refresh token", err)
	}

	var pair *TokenPair

	err = s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.FindByIDForUpdate(ctx, claims.UserID)
		if err != nil {
			return err
		}

		if user.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(refreshToken)) != 1 {
			return common.Unauthorized("Refresh token is expired or used")
		}

		pair, err = s.generateTokenPair(user.ID)
		if err != nil {
			return err
		}

		return repo.SetRefreshToken(ctx, user.ID, &pair.RefreshToken)
	})
	if err != nil {
		s.log.Warn(ctx, "refresh rejected", "user_id", claims.UserID, "error", err)
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, err
		}
		return nil, common.NewError(common.KindUnauthorized, "Invalid refresh token", err)
	}

	return pair, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return common.Validation("old and new password are required")
	}
	if err := s.passwords.Validate(newPassword); err != nil {
		return err
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByID(ctx, userID)
	if err != nil {
		return s.passOrInternal(ctx, "error loading user", err)
	}

	if !s.passwords.Verify(oldPassword, user.PasswordHash) {
		return common.Unauthorized("Invalid old password")
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return s.passOrInternal(ctx, "error hashing password", err)
	}

	if err := repo.UpdatePassword(ctx, userID, hash); err != nil {
		return s.passOrInternal(ctx, "error saving password", err)
	}
	return nil
}

// CurrentUser returns the sanitized user with the given id.
func (s *UserService) CurrentUser(ctx context.Context, userID string) (*models.PublicUser, error) {
	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		return nil, s.passOrInternal(ctx, "error loading user", err)
	}
	return user.Public(), nil
}

// UpdateProfile sets fullname and email. The email is stored lowercased.
func (s *UserService) UpdateProfile(ctx context.Context, userID, fullname, email string) (*models.PublicUser, error) {
	fullname = strings.TrimSpace(fullname)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullname == "" || email == "" {
		return nil, common.Validation("All fields are required")
	}

	user, err := s.repomanager.Users(s.db).UpdateProfile(ctx, userID, fullname, email)
	if err != nil {
		return nil, s.passOrInternal(ctx, "error updating profile", err)
	}
	return user.Public(), nil
}

// UpdateAvatar uploads localPath and points the avatar at it.
func (s *UserService) UpdateAvatar(ctx context.Context, userID, localPath string) (*models.PublicUser, error) {
	if localPath == "" {
		return nil, common.Validation("Avatar file is missing")
	}

	url, err := s.upload(ctx, localPath, "avatar")
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).UpdateAvatar(ctx, userID, url)
	if err != nil {
		return nil, s.passOrInternal(ctx, "error updating avatar", err)
	}
	return user.Public(), nil
}

// UpdateCoverImage uploads localPath and points the cover image at it.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID, localPath string) (*models.PublicUser, error) {
	if localPath == "" {
		return nil, common.Validation("Cover image file is missing")
	}

	url, err := s.upload(ctx, localPath, "cover image")
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).UpdateCoverImage(ctx, userID, url)
	if err != nil {
		return nil, s.passOrInternal(ctx, "error updating cover image", err)
	}
	return user.Public(), nil
}

// Authenticate resolves the owner of an access token.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*models.PublicUser, error) {
	if accessToken == "" {
		return nil, common.Unauthorized("Unauthorized request")
	}

	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, common.NewError(common.KindUnauthorized, "Invalid access token", err)
	}

	user, err := s.repomanager.Users(s.db).FindByID(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.log.Error(ctx, "error loading user for token", "user_id", claims.UserID, "error", err)
		}
		return nil, common.NewError(common.KindUnauthorized, "Invalid access token", err)
	}

	return user.Public(), nil
}

// withTx runs fn in a database transaction, or under txMu when the service
// has no database.
func (s *UserService) withTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if s.db == nil {
		s.txMu.Lock()
		defer s.txMu.Unlock()
		return fn(ctx, nil)
	}
	return dbx.WithTx(ctx, s.db, nil, fn)
}

func (s *UserService) generateTokenPair(userID string) (*TokenPair, error) {
	accessToken, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.IssueRefreshToken(userID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// upload stores localPath and returns its URL. A result without a URL counts
// as a failed upload.
func (s *UserService) upload(ctx context.Context, localPath, what string) (string, error) {
	res, err := s.uploader.Upload(ctx, localPath)
	if err != nil {
		s.log.Error(ctx, "upload failed", "file", what, "error", err)
		return "", common.Upload("Error while uploading "+what, err)
	}
	if res == nil || res.SecureURL == "" {
		return "", common.Upload("Error while uploading "+what, nil)
	}
	return res.SecureURL, nil
}

func (s *UserService) internal(ctx context.Context, msg string, err error) error {
	s.log.Error(ctx, msg, "error", err)
	return common.Internal("Something went wrong", err)
}

// passOrInternal keeps classified errors and turns everything else into an
// internal one.
func (s *UserService) passOrInternal(ctx context.Context, msg string, err error) error {
	if common.KindOf(err) != common.KindInternal {
		return err
	}
	return s.internal(ctx, msg, err)
}
