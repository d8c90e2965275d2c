// Package server wires the auth server together: storage, session backend,
// credential and token primitives, the user service and its HTTP and gRPC
// transports. It also handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/tubeauth/internal/logging"
	"github.com/dmitrijs2005/tubeauth/internal/server/auth"
	"github.com/dmitrijs2005/tubeauth/internal/server/config"
	"github.com/dmitrijs2005/tubeauth/internal/server/httpapi"
	"github.com/dmitrijs2005/tubeauth/internal/server/metrics"
	"github.com/dmitrijs2005/tubeauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tubeauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/tubeauth/internal/server/services"
	"github.com/dmitrijs2005/tubeauth/internal/server/sessions"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/tubeauth/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	redis      *redis.Client
	httpServer *httpapi.Server
	grpcServer *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, rdb, err := newSessionStore(ctx, c, rm.Users(db))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	creds, err := auth.NewCredentialStore(c.PasswordHashCost)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	tokens := auth.NewTokenIssuer(c.AccessTokenSecret, c.AccessTokenTTL, c.RefreshTokenSecret, c.RefreshTokenTTL)
	m := metrics.New()

	us := services.NewUserService(db, rm, store, creds, tokens, logger, m)

	app := &App{
		config: c,
		logger: logger,
		db:     db,
		redis:  rdb,
		httpServer: httpapi.NewServer(c.HTTPAddr, us, httpapi.CookieOptions{
			Secure:     c.CookieSecure,
			AccessTTL:  c.AccessTokenTTL,
			RefreshTTL: c.RefreshTokenTTL,
		}, m, logger),
	}
	if c.GRPCAddr != "" {
		app.grpcServer = gs.NewGRPCServer(c.GRPCAddr, logger, us)
	}
	return app, nil
}

// newSessionStore picks the backend holding current refresh tokens. The
// returned client is nil unless the redis backend is selected.
func newSessionStore(ctx context.Context, c *config.Config, repo users.Repository) (sessions.Store, *redis.Client, error) {
	switch c.SessionBackend {
	case config.SessionBackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis init error: %w", err)
		}
		return sessions.NewRedisStore(rdb, repo, c.RefreshTokenTTL), rdb, nil
	case config.SessionBackendPostgres, "":
		return sessions.NewUserRecordStore(repo), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown session backend %q", config.ErrInvalidConfig, c.SessionBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a termination signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server failed", "err", err)
			cancelFunc()
		}
	}()

	if app.grpcServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.grpcServer.Run(ctx); err != nil {
				app.logger.Error(ctx, "grpc server failed", "err", err)
				cancelFunc()
			}
		}()
	}

	wg.Wait()
	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "closing redis", "err", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "closing db", "err", err)
	}
	app.logger.Info(ctx, "App stopped")
}
