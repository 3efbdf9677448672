package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/sundayezeilo/shortlinks/internal/config"
	"github.com/sundayezeilo/shortlinks/internal/db/pgdb"
	"github.com/sundayezeilo/shortlinks/internal/db/sqlitedb"
	"github.com/sundayezeilo/shortlinks/internal/server"
	"github.com/sundayezeilo/shortlinks/internal/shortener"
	"github.com/sundayezeilo/shortlinks/tokengen"
)

// App holds the application dependencies and configuration.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   *Store
	Server  *server.Server
	Handler *shortener.Handler
}

// Store is the opened link store with its lifecycle hooks.
type Store struct {
	Driver string
	Repo   shortener.Repository
	Ping   func(ctx context.Context) error
	Close  func()
}

// New initializes and returns a new App instance with all dependencies wired up.
func New(ctx context.Context) (*App, error) {
	LoadEnv(".env", "../.env")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := NewLogger(cfg.App.LogLevel).With(
		"service", cfg.Observability.ServiceName,
		"version", cfg.Observability.ServiceVersion,
	)

	logger.Info("starting application",
		"env", cfg.App.Environment,
		"store", cfg.Store.Driver,
	)

	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open link store: %w", err)
	}

	svc := shortener.NewService(store.Repo, &shortener.ServiceConfig{
		TokenGenerator:   tokengen.NewBase62(),
		MaxTokenAttempts: cfg.Links.MaxTokenAttempts,
	})
	handler := shortener.NewHandler(shortener.HandlerConfig{
		Service: svc,
		Logger:  logger,
		BaseURL: cfg.Server.BaseURL,
	})

	srv := server.New(cfg, logger, handler, store.Ping)

	logger.Info("application initialized",
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Server:  srv,
		Handler: handler,
	}, nil
}

// Start starts the application server.
func (a *App) Start(ctx context.Context) error {
	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown releases the link store.
func (a *App) Shutdown() {
	a.Logger.Info("shutting down application")

	if a.Store != nil && a.Store.Close != nil {
		a.Store.Close()
		a.Logger.Info("link store closed", "store", a.Store.Driver)
	}
}

// LoadEnv reads the first .env file found, only outside staging and production.
func LoadEnv(paths ...string) {
	env := os.Getenv("APP_ENV")
	if env != "" && env != "development" && env != "test" {
		return
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			return
		}
	}
}

// NewLogger creates a JSON logger on stdout at the given level.
func NewLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// OpenStore connects to the configured backend and makes sure the schema exists.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		return openSQLite(ctx, cfg.Store.SQLiteDSN, logger)
	case config.DriverPostgres:
		return openPostgres(ctx, cfg.Database, logger)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func openSQLite(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	logger.Info("opening sqlite store")

	q, err := sqlitedb.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}

	logger.Info("sqlite store ready")

	return &Store{
		Driver: config.DriverSQLite,
		Repo:   shortener.NewRepository(q, nil),
		Ping:   q.Ping,
		Close:  func() { _ = q.Close() },
	}, nil
}

func openPostgres(ctx context.Context, dbCfg config.DatabaseConfig, logger *slog.Logger) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(dbCfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	poolConfig.MaxConns = dbCfg.MaxConns
	poolConfig.MinConns = dbCfg.MinConns

	logger.Info("connecting to database",
		"host", dbCfg.Host,
		"port", dbCfg.Port,
		"database", dbCfg.Name,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := pgdb.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("database connection established")

	return &Store{
		Driver: config.DriverPostgres,
		Repo:   shortener.NewRepository(pgdb.New(pool), nil),
		Ping:   pool.Ping,
		Close:  pool.Close,
	}, nil
}
