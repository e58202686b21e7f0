// Package rest exposes the account service over HTTP using gin.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/useraccounts/internal/filex"
	"github.com/dmitrijs2005/useraccounts/internal/logging"
	"github.com/dmitrijs2005/useraccounts/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Options tunes the HTTP surface.
type Options struct {
	CORSOrigin    string
	CookieSecure  bool
	UploadTempDir string
	StaticDir     string

	// MaxBodyBytes caps non-multipart bodies; MaxUploadBytes caps multipart ones.
	MaxBodyBytes   int64
	MaxUploadBytes int64
}

// HTTPServer serves the account API.
type HTTPServer struct {
	address   string
	users     *services.UserService
	logger    logging.Logger
	opts      Options
	uploadDir string
	engine    *gin.Engine
}

// NewHTTPServer creates the upload staging directory and builds the router.
func NewHTTPServer(address string, l logging.Logger, us *services.UserService, opts Options) (*HTTPServer, error) {
	uploadDir, err := filex.EnsureDir(opts.UploadTempDir)
	if err != nil {
		return nil, err
	}

	s := &HTTPServer{
		address:   address,
		users:     us,
		logger:    l.With("module", "http_server"),
		opts:      opts,
		uploadDir: uploadDir,
	}
	s.engine = s.routes()
	return s, nil
}

func (s *HTTPServer) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if s.opts.CORSOrigin == "" || s.opts.CORSOrigin == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = []string{s.opts.CORSOrigin}
	}
	return cfg
}

func (s *HTTPServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), cors.New(s.corsConfig()), s.bodyLimit())

	if s.opts.StaticDir != "" {
		r.Static("/static", s.opts.StaticDir)
	}

	r.GET("/healthz", func(c *gin.Context) {
		respond(c, http.StatusOK, gin.H{"status": "ok"}, "OK")
	})

	users := r.Group("/api/v1/users")
	users.POST("/register", s.register)
	users.POST("/login", s.login)
	users.POST("/refresh-token", s.refreshToken)

	secured := users.Group("", s.authRequired())
	secured.POST("/logout", s.logout)
	secured.POST("/change-password", s.changePassword)
	secured.GET("/current-user", s.currentUser)
	secured.PATCH("/update-account", s.updateAccount)
	secured.PATCH("/avatar", s.updateAvatar)
	secured.PATCH("/cover-image", s.updateCoverImage)

	return r
}

// Handler returns the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
