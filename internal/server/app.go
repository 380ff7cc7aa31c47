// Package server initializes and runs the user service: it opens the
// database, applies migrations, wires the services and serves them over HTTP
// and gRPC until the process is signalled to stop.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/usersvc/internal/cryptox"
	"github.com/dmitrijs2005/usersvc/internal/dbx"
	"github.com/dmitrijs2005/usersvc/internal/logging"
	"github.com/dmitrijs2005/usersvc/internal/server/config"
	"github.com/dmitrijs2005/usersvc/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/usersvc/internal/server/rest"
	"github.com/dmitrijs2005/usersvc/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/usersvc/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	logCloser  io.Closer
	db         *sql.DB
	httpServer *rest.HTTPServer
	grpcServer *gs.GRPCServer
}

// NewApp builds the application from c. The database must be reachable;
// pending migrations are applied before NewApp returns.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, closer, err := logging.New(os.Stdout, logging.Options{
		Backend: c.LogBackend,
		Format:  c.LogFormat,
		Level:   c.LogLevel,
		File:    c.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}
	logger = logger.With("app", c.AppName, "version", c.AppVersion, "env", c.Environment)

	db, err := dbx.Open(ctx, dbx.DriverPostgres, c.DatabaseDSN, dbx.PoolOptions{
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	})
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		_ = closer.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app := newApp(c, logger, db, rm)
	app.logCloser = closer
	return app, nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) *App {
	us := services.NewUserService(db, rm, cryptox.NewBcryptHasher(c.BcryptCost), c)
	ps := services.NewProbeService(db, rm)

	router := rest.NewRouter(rest.NewHandlers(us, ps, logger), c.APIPrefix, c.CORSAllowedOrigins)

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		httpServer: rest.NewHTTPServer(c.EndpointAddrHTTP, router, logger, c.ShutdownTimeout),
		grpcServer: gs.NewGRPCServer(c.EndpointAddrGRPC, logger, ps, c.HealthInterval),
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP and gRPC until ctx is cancelled, a signal arrives or one
// of the servers fails; the other server is then stopped as well.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.httpServer.Run(ctx)
	})
	g.Go(func() error {
		return app.grpcServer.Run(ctx)
	})

	err := g.Wait()
	if err != nil {
		app.logger.Error(context.Background(), "server error", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
	return err
}

// Close releases the database pool and the log file.
func (app *App) Close() error {
	var errs []error
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	if app.logCloser != nil {
		errs = append(errs, app.logCloser.Close())
	}
	return errors.Join(errs...)
}
