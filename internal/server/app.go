// Package server initializes and runs the shopkeeper credential server:
// secrets, account store, gRPC endpoint and the metrics listener.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/shopkeeper/internal/dbx"
	"github.com/dmitrijs2005/shopkeeper/internal/logging"
	"github.com/dmitrijs2005/shopkeeper/internal/server/config"
	"github.com/dmitrijs2005/shopkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/shopkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/shopkeeper/internal/server/secrets"
	"github.com/dmitrijs2005/shopkeeper/internal/server/services"

	gs "github.com/dmitrijs2005/shopkeeper/internal/server/grpc"
)

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Core is the credential service with the resources it owns.
type Core struct {
	DB          *sql.DB
	Credentials *services.CredentialService
	Metrics     *metrics.Auth
}

func (c *Core) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

// SecretSource picks the S3 bundle when configured, else the config values.
func SecretSource(c *config.Config) secrets.Source {
	if c.SecretsFromS3() {
		return secrets.S3Source{
			Bucket:       c.SecretsS3Bucket,
			Key:          c.SecretsS3Key,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		}
	}
	return secrets.StaticSource{
		Pepper:       c.EmailPepper,
		CipherSecret: c.EncryptionKey,
		SigningKey:   c.JWTSecretKey,
	}
}

// NewCore loads secrets, opens the database and applies migrations. Secret
// problems wrap common.ErrConfiguration and are checked before any I/O on
// the database.
func NewCore(ctx context.Context, c *config.Config, logger logging.Logger, rm repomanager.RepositoryManager) (*Core, error) {
	mat, err := secrets.Load(ctx, SecretSource(c))
	if err != nil {
		return nil, err
	}

	comps, err := services.BuildComponents(mat, c)
	if err != nil {
		return nil, err
	}

	db, err := sqlOpen("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	m := metrics.New()
	creds := services.NewCredentialService(db, dbx.NewSQLRunner(db), rm, comps, logger, m)

	return &Core{DB: db, Credentials: creds, Metrics: m}, nil
}

type App struct {
	config *config.Config
	logger logging.Logger
	core   *Core
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	core, err := NewCore(ctx, c, logger, repomanager.NewPostgresRepositoryManager())
	if err != nil {
		return nil, err
	}

	return &App{config: c, logger: logger, core: core}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.core.Credentials)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := metrics.NewServer(app.config.MetricsAddr, app.core.Metrics, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a signal arrives, then releases the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startMetricsServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	if err := app.core.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
