// Package httpapi is the HTTP transport of the auth server: gin routes for
// the session and account operations, session cookies, the access-token
// middleware, metrics and health endpoints.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/tubeauth/internal/logging"
	"github.com/dmitrijs2005/tubeauth/internal/server/metrics"
	"github.com/dmitrijs2005/tubeauth/internal/server/models"
	"github.com/dmitrijs2005/tubeauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// UserService is what the handlers need from services.UserService.
type UserService interface {
	Authenticator
	Register(ctx context.Context, in services.RegisterInput) (*models.PublicUser, error)
	Login(ctx context.Context, in services.LoginInput) (*services.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	UpdateAccount(ctx context.Context, userID string, in services.UpdateAccountInput) (*models.PublicUser, error)
}

// CookieOptions control the session cookies. Both are always HttpOnly.
type CookieOptions struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Server struct {
	address string
	users   UserService
	cookies CookieOptions
	metrics *metrics.Metrics
	logger  logging.Logger
	engine  *gin.Engine
}

func NewServer(address string, users UserService, cookies CookieOptions, m *metrics.Metrics, l logging.Logger) *Server {
	s := &Server{
		address: address,
		users:   users,
		cookies: cookies,
		metrics: m,
		logger:  l.With("module", "http_server"),
	}
	s.engine = s.routes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api/v1/auth")
	api.POST("/register", s.register)
	api.POST("/login", s.login)
	api.POST("/refresh-token", s.refresh)

	secured := api.Group("", RequireAuth(s.users, s.logger))
	secured.POST("/logout", s.logout)
	secured.POST("/change-password", s.changePassword)
	secured.GET("/current-user", s.currentUser)
	secured.PATCH("/update-account", s.updateAccount)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
