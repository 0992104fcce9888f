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

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/hourbank/internal/config"
	"github.com/rpggio/hourbank/internal/docstore"
	"github.com/rpggio/hourbank/internal/domain/ledger"
	"github.com/rpggio/hourbank/internal/mcp"
	"github.com/rpggio/hourbank/internal/metrics"
	"github.com/rpggio/hourbank/internal/mirror"
	"github.com/rpggio/hourbank/internal/postgres"
	"github.com/rpggio/hourbank/internal/redisstore"
	"github.com/rpggio/hourbank/internal/repository"
	"github.com/rpggio/hourbank/internal/sqlite"
	"github.com/rpggio/hourbank/internal/transport"
	"github.com/rpggio/hourbank/web"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		noBrowser  bool
	)

	cmd := &cobra.Command{
		Use:          "hourbank [port]",
		Short:        "Serve the hours to grams allocation ledger",
		Version:      Version,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if len(args) == 1 && !cfg.ApplyPortArgument(args[0]) {
				fmt.Fprintf(cmd.ErrOrStderr(), "ignoring invalid port %q, using %d\n", args[0], cfg.Server.Port)
			}
			if noBrowser {
				cfg.Browser.Open = false
			}
			return run(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "do not open the page in a browser")

	return cmd
}

func run(cfg config.Config) error {
	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	backend, closeBackend, err := openBackend(cfg.Store)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "path", cfg.Store.Path, "error", err)
		return err
	}
	defer closeBackend()

	recorder := metrics.NewRecorder()
	store := docstore.New(backend, logger, docstore.WithObserver(recorder))
	notifier := mirror.New(cfg.Mirror.URL, cfg.Mirror.Timeout, logger, recorder)
	ledgerSvc := ledger.NewService(store, notifier, recorder, logger)

	// Load once so a missing or damaged document is repaired before serving.
	if _, err := store.Load(context.Background()); err != nil {
		logger.Error("failed to load state", "error", err)
		return err
	}

	mcpServer := mcp.NewServer(mcp.Config{
		Ledger:  ledgerSvc,
		Version: Version,
		Logger:  logger,
	})

	if cfg.Transport.Mode == "stdio" {
		return runStdioMode(logger, mcpServer)
	}

	handler := transport.NewServer(ledgerSvc, transport.Config{
		Static:  web.FS,
		Metrics: recorder.Handler(),
		MCP:     mcp.NewHTTPHandler(mcpServer),
		Logger:  logger,
	})
	return runHTTPMode(logger, handler, cfg)
}

func openBackend(cfg config.StoreConfig) (repository.DocumentBackend, func(), error) {
	switch cfg.Driver {
	case "sqlite":
		if err := ensureDir(cfg.Path); err != nil {
			return nil, nil, fmt.Errorf("prepare database path: %w", err)
		}
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, nil, err
		}
		repo := sqlite.NewDocumentRepository(db, sqlite.DefaultDocumentName)
		return repo, func() { db.Close() }, nil
	case "redis":
		backend, err := redisstore.New(cfg.URL, redisstore.DefaultKey)
		if err != nil {
			return nil, nil, err
		}
		return backend, func() { backend.Close() }, nil
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err := postgres.Open(ctx, cfg.URL)
		if err != nil {
			return nil, nil, err
		}
		repo := postgres.NewDocumentRepository(db, postgres.DefaultDocumentName)
		return repo, func() { db.Close() }, nil
	default:
		backend, err := docstore.NewFileBackend(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return backend, func() {}, nil
	}
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run blocks until stdin closes or the context is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("stdio server error", "error", err)
		return err
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(logger *slog.Logger, handler http.Handler, cfg config.Config) error {
	addr := cfg.Addr()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "url", localURL(cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if cfg.Browser.Open {
		openBrowserLater(logger, localURL(cfg.Server.Port), cfg.Browser.Delay)
	}

	return waitForShutdown(logger, httpServer, serveErr)
}

func waitForShutdown(logger *slog.Logger, server *http.Server, serveErr <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err, ok := <-serveErr:
		if ok && err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		return nil
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
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
