package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rpggio/careplan/internal/app"
	"github.com/rpggio/careplan/internal/config"
	"github.com/rpggio/careplan/internal/mcp"
	"github.com/rpggio/careplan/internal/redisstore"
	"github.com/rpggio/careplan/internal/sqlstore"
	"github.com/rpggio/careplan/internal/telemetry"
	"github.com/rpggio/careplan/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Stdout carries JSON-RPC in stdio mode.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if logPath := os.Getenv("CAREPLAN_LOG_PATH"); logPath != "" {
		fileWriter, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer fileWriter.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := run(cfg, logger, os.Args[1:]); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    "careplan",
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		Interval:       cfg.Telemetry.Interval,
	})
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()
	metrics, err := telemetry.NewMetrics(nil)
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}

	db, err := openDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) > 0 {
		return runCommand(ctx, db, args)
	}

	appCfg := app.Config{
		DB:               db,
		Metrics:          metrics,
		AutosaveDebounce: cfg.Wizard.AutosaveDebounce,
		UndoDepth:        cfg.Wizard.UndoDepth,
		IdleTimeout:      cfg.Wizard.IdleTimeout,
		Logger:           logger,
	}
	if cfg.Redis.Addr != "" {
		client, err := redisstore.NewClient(ctx, redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		defer client.Close()

		appCfg.Publisher = redisstore.NewEventPublisher(client)
		if cfg.Drafts.Backend == "redis" {
			appCfg.Drafts = redisstore.NewDraftRepository(client)
		}
		logger.Info("redis connected", "addr", cfg.Redis.Addr, "drafts", cfg.Drafts.Backend)
	}

	a, err := app.New(appCfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.Shutdown(closeCtx)
		logger.Info("wizards closed")
	}()
	go a.Sessions.RunReaper(ctx, cfg.Wizard.ReapInterval)

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      a.MCPServices(),
		Resolver:      a.APIKeys,
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Transport.Mode,
		Version:       version,
		Logger:        logger,
	})

	if cfg.Transport.Mode == "stdio" {
		return runStdioMode(ctx, logger, mcpServer)
	}
	return runHTTPMode(ctx, logger, cfg, a, mcpServer)
}

func openDB(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sqlstore.DB, error) {
	dsn := cfg.DB.DSN
	if cfg.DB.Driver == sqlstore.DriverSQLite {
		if err := ensureDir(cfg.DB.Path); err != nil {
			return nil, fmt.Errorf("prepare database path: %w", err)
		}
		dsn = cfg.DB.Path
	}

	db, err := sqlstore.Open(ctx, sqlstore.Options{Driver: cfg.DB.Driver, DSN: dsn, Logger: logger})
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database ready", "driver", db.Driver())
	return db, nil
}

// runCommand handles administrative commands:
//
//	add-api-key <tenant> <key> [description]
func runCommand(ctx context.Context, db *sqlstore.DB, args []string) error {
	switch args[0] {
	case "add-api-key":
		if len(args) < 3 {
			return fmt.Errorf("usage: add-api-key <tenant> <key> [description]")
		}
		description := ""
		if len(args) > 3 {
			description = args[3]
		}
		if err := sqlstore.NewAPIKeyRepository(db).AddAPIKey(ctx, args[1], args[2], description); err != nil {
			return fmt.Errorf("add api key: %w", err)
		}
		fmt.Fprintf(os.Stderr, "api key added for tenant %s\n", args[1])
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or ctx is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, cfg config.Config, a *app.App, mcpServer *sdkmcp.Server) error {
	streamable := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			SessionTimeout: cfg.Wizard.IdleTimeout,
		},
	)

	auth := transport.StaticTenant(mcp.DefaultTenant)
	if cfg.Auth.Enabled {
		auth = transport.AuthMiddleware(a.APIKeys)
	}
	router := transport.NewServer(transport.Config{
		Handler:    mcp.NewHandler(a.MCPServices(), logger),
		Streamable: streamable,
		Auth:       auth,
		Logger:     logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "auth", cfg.Auth.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
