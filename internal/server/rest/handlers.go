package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/useraccounts/internal/common"
	"github.com/dmitrijs2005/useraccounts/internal/server/models"
	"github.com/dmitrijs2005/useraccounts/internal/server/services"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" form:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" form:"newPassword" binding:"required"`
}

type updateAccountRequest struct {
	Fullname string `json:"fullname" form:"fullname" binding:"required"`
	Email    string `json:"email" form:"email" binding:"required,email"`
}

func (s *HTTPServer) setSessionCookies(c *gin.Context, pair services.TokenPair) {
	tokens := s.users.Tokens()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.AccessTokenCookieName, pair.AccessToken, maxAge(tokens.AccessTTL()), "/", "", s.opts.CookieSecure, true)
	c.SetCookie(common.RefreshTokenCookieName, pair.RefreshToken, maxAge(tokens.RefreshTTL()), "/", "", s.opts.CookieSecure, true)
}

func (s *HTTPServer) clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.AccessTokenCookieName, "", -1, "/", "", s.opts.CookieSecure, true)
	c.SetCookie(common.RefreshTokenCookieName, "", -1, "/", "", s.opts.CookieSecure, true)
}

func maxAge(d time.Duration) int {
	return int(d / time.Second)
}

func (s *HTTPServer) register(c *gin.Context) {
	avatar, cleanAvatar, err := s.stageFile(c, "avatar")
	defer cleanAvatar()
	if err != nil {
		s.fail(c, common.Validation("Invalid avatar file"))
		return
	}

	cover, cleanCover, err := s.stageFile(c, "coverImage")
	defer cleanCover()
	if err != nil {
		s.fail(c, common.Validation("Invalid cover image file"))
		return
	}

	user, err := s.users.Register(c.Request.Context(), services.RegisterInput{
		Fullname:       c.PostForm("fullname"),
		Email:          c.PostForm("email"),
		Username:       c.PostForm("username"),
		Password:       c.PostForm("password"),
		AvatarPath:     avatar,
		CoverImagePath: cover,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	respond(c, http.StatusCreated, user, "User registered Successfully")
}

func (s *HTTPServer) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		s.bindError(c, err)
		return
	}

	res, err := s.users.Login(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.setSessionCookies(c, res.TokenPair)
	respond(c, http.StatusOK, gin.H{
		"user":         res.User,
		"accessToken":  res.AccessToken,
		"refreshToken": res.RefreshToken,
	}, "User logged In Successfully")
}

func (s *HTTPServer) logout(c *gin.Context) {
	user, _ := CurrentUser(c)

	if err := s.users.Logout(c.Request.Context(), user.ID); err != nil {
		s.fail(c, err)
		return
	}

	s.clearSessionCookies(c)
	respond(c, http.StatusOK, gin.H{}, "User logged Out")
}

// refreshToken takes the token from the cookie, falling back to the body.
func (s *HTTPServer) refreshToken(c *gin.Context) {
	token, _ := c.Cookie(common.RefreshTokenCookieName)
	if token == "" {
		var req refreshRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBind(&req); err != nil {
				s.logger.Debug(c.Request.Context(), "refresh token body not bound", "error", err)
				req.RefreshToken = ""
			}
		}
		token = req.RefreshToken
	}

	pair, err := s.users.RefreshSession(c.Request.Context(), token)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.setSessionCookies(c, *pair)
	respond(c, http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "Access token refreshed")
}

func (s *HTTPServer) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		s.bindError(c, err)
		return
	}

	user, _ := CurrentUser(c)
	if err := s.users.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		s.fail(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{}, "Password changed successfully")
}

func (s *HTTPServer) currentUser(c *gin.Context) {
	user, _ := CurrentUser(c)
	respond(c, http.StatusOK, user, "User fetched successfully")
}

func (s *HTTPServer) updateAccount(c *gin.Context) {
	var req updateAccountRequest
	if err := c.ShouldBind(&req); err != nil {
		s.bindError(c, err)
		return
	}

	current, _ := CurrentUser(c)
	user, err := s.users.UpdateProfile(c.Request.Context(), current.ID, req.Fullname, req.Email)
	if err != nil {
		s.fail(c, err)
		return
	}

	respond(c, http.StatusOK, user, "Account details updated successfully")
}

func (s *HTTPServer) updateAvatar(c *gin.Context) {
	s.replaceImage(c, "avatar", s.users.UpdateAvatar, "Avatar image updated successfully")
}

func (s *HTTPServer) updateCoverImage(c *gin.Context) {
	s.replaceImage(c, "coverImage", s.users.UpdateCoverImage, "Cover image updated successfully")
}

type imageUpdater func(ctx context.Context, userID, localPath string) (*models.PublicUser, error)

func (s *HTTPServer) replaceImage(c *gin.Context, field string, update imageUpdater, message string) {
	path, cleanup, err := s.stageFile(c, field)
	defer cleanup()
	if err != nil {
		s.fail(c, common.Validation("Invalid "+field+" file"))
		return
	}

	current, _ := CurrentUser(c)
	user, err := update(c.Request.Context(), current.ID, path)
	if err != nil {
		s.fail(c, err)
		return
	}

	respond(c, http.StatusOK, user, message)
}
