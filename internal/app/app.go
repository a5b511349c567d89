// Package app wires configuration, logging, storage, the analysis client and
// the HTTP router together, and runs the server until it is told to stop.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patric-chuzhbe/docsvc/internal/analyzer"
	"github.com/patric-chuzhbe/docsvc/internal/config"
	"github.com/patric-chuzhbe/docsvc/internal/db/memorystorage"
	"github.com/patric-chuzhbe/docsvc/internal/db/postgresdb"
	"github.com/patric-chuzhbe/docsvc/internal/db/storage"
	"github.com/patric-chuzhbe/docsvc/internal/logger"
	"github.com/patric-chuzhbe/docsvc/internal/models"
	"github.com/patric-chuzhbe/docsvc/internal/router"
)

const shutdownTimeout = 10 * time.Second

// App owns the long-lived resources of the service.
type App struct {
	cfg         *config.Config
	db          storage.Storage
	httpHandler http.Handler
}

// New loads the configuration, initializes the logger, opens storage and
// builds the router.
func New(optionsProto ...config.InitOption) (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New(optionsProto...)
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	app.httpHandler = router.New(
		app.db,
		analyzer.New(app.cfg.AIBaseURL, app.cfg.AIAPIKey, app.cfg.AIModel),
		app.cfg.BcryptCost,
	)

	return app, nil
}

// Run serves HTTP until SIGINT or SIGTERM, then shuts the server down and
// closes storage.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Closing storage and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return a.shutdown(shutdownCtx, server)

	case err := <-serverErrCh:
		if closeErr := a.db.Close(); closeErr != nil {
			logger.Log.Errorln("storage close error", closeErr)
		}
		return fmt.Errorf("server error: %w", err)
	}
}

// shutdown stops the server and closes storage even if the server did not
// stop cleanly.
func (a *App) shutdown(ctx context.Context, server *http.Server) error {
	var shutdownErr error
	if err := server.Shutdown(ctx); err != nil {
		shutdownErr = fmt.Errorf("server shutdown error: %w", err)
	}

	return errors.Join(shutdownErr, a.db.Close())
}

// Close flushes the logger.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseURL != "" {
		return models.StorageTypePostgresql
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage.Storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseURL,
			cfg.DBConnectionTimeout,
		)
	}

	logger.Log.Warnln("DATABASE_URL is empty, keeping data in memory")

	return memorystorage.New()
}
