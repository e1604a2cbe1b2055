package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/datapad/internal/browser"
	"github.com/rpggio/datapad/internal/config"
	"github.com/rpggio/datapad/internal/dataset"
	"github.com/rpggio/datapad/internal/domain/activity"
	"github.com/rpggio/datapad/internal/domain/navigator"
	"github.com/rpggio/datapad/internal/domain/session"
	"github.com/rpggio/datapad/internal/mcp"
	"github.com/rpggio/datapad/internal/sqlite"
	"github.com/rpggio/datapad/internal/transport"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	stdio := cfg.MCP.Enabled && cfg.MCP.Transport == "stdio"

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if stdio {
		logWriter = os.Stderr
	}
	if logPath := os.Getenv("DATAPAD_LOG_PATH"); logPath != "" {
		fileWriter, file, err := newLogFileWriter(logPath)
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

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	sessionRepo := sqlite.NewSessionRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	apiKeyRepo := sqlite.NewAPIKeyRepository(db)

	source := dataset.New(dataset.Config{
		BaseURL:       cfg.Upstream.BaseURL,
		Timeout:       cfg.Upstream.Timeout,
		RatePerSecond: cfg.Upstream.RatePerSecond,
		Burst:         cfg.Upstream.Burst,
		UserAgent:     "datapad/" + version,
		Logger:        logger,
	})
	navigatorSvc := navigator.NewService(source, navigator.Options{
		MaxID:            cfg.Catalog.MaxID,
		LegacyJumpResult: cfg.Navigator.LegacyJumpResult,
	}, logger)
	sessionSvc := session.NewService(sessionRepo, logger)
	activitySvc := activity.NewService(activityRepo, logger)
	browserSvc := browser.New(navigatorSvc, sessionSvc, activitySvc, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	for token, client := range cfg.MCP.Tokens {
		if err := apiKeyRepo.Put(ctx, token, client); err != nil {
			logger.Error("failed to store api key", "client", client, "error", err)
			os.Exit(1)
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runPruner(ctx, logger, sessionSvc, activitySvc, cfg.Session, cfg.Activity)
	}()
	defer wg.Wait()

	var mcpServer *sdkmcp.Server
	if cfg.MCP.Enabled {
		mcpServer = mcp.NewServer(mcp.Config{
			Browser:       browserSvc,
			History:       activitySvc,
			TransportMode: cfg.MCP.Transport,
			Version:       version,
			Logger:        logger,
		})
	}

	if stdio {
		runStdioMode(ctx, logger, mcpServer)
		cancel()
		return
	}

	routerCfg := transport.Config{
		Browser:       browserSvc,
		History:       activitySvc,
		Sessions:      sessionSvc,
		Logger:        logger,
		SessionCookie: cfg.Session.CookieName,
		SessionTTL:    cfg.Session.TTL,
	}
	if mcpServer != nil {
		routerCfg.MCP = sdkmcp.NewStreamableHTTPHandler(
			func(r *http.Request) *sdkmcp.Server { return mcpServer },
			&sdkmcp.StreamableHTTPOptions{
				Stateless:      false,
				SessionTimeout: 30 * time.Minute,
			},
		)
		if cfg.MCP.AuthEnabled {
			routerCfg.MCPAuth = transport.AuthMiddleware(apiKeyRepo)
		}
	}
	runHTTPMode(ctx, logger, transport.NewServer(routerCfg), cfg.Server.Host, cfg.Server.Port)
	cancel()
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Error("stdio server error", "error", err)
	}
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, handler http.Handler, host string, port int) {
	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(ctx, logger, httpServer)
}

// runPruner removes idle sessions and old history until ctx is done.
func runPruner(ctx context.Context, logger *slog.Logger, sessions *session.Service, history *activity.Service, sessCfg config.SessionConfig, actCfg config.ActivityConfig) {
	if sessCfg.PruneInterval <= 0 {
		return
	}
	ticker := time.NewTicker(sessCfg.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if sessCfg.TTL > 0 {
			if _, err := sessions.Prune(ctx, sessCfg.TTL); err != nil {
				logger.Warn("session prune failed", "error", err)
			}
		}
		if actCfg.Retention > 0 {
			if _, err := history.Prune(ctx, actCfg.Retention); err != nil {
				logger.Warn("activity prune failed", "error", err)
			}
		}
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(ctx context.Context, logger *slog.Logger, server *http.Server) {
	<-ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
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

const (
	maxLogSizeBytes  = 6 * 1024 * 1024
	keepLogSizeBytes = 5 * 1024 * 1024
)

type logFileWriter struct {
	path string
	file *os.File
	mu   sync.Mutex
}

func newLogFileWriter(path string) (*logFileWriter, *os.File, error) {
	if err := ensureLogDir(path); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	writer := &logFileWriter{path: path, file: file}
	if err := writer.truncateIfNeeded(); err != nil {
		return nil, nil, err
	}
	return writer, file, nil
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (w *logFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	if err := w.truncateIfNeeded(); err != nil {
		return n, err
	}
	return n, nil
}

func (w *logFileWriter) truncateIfNeeded() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= maxLogSizeBytes {
		return nil
	}
	if size <= keepLogSizeBytes {
		return nil
	}

	buf := make([]byte, keepLogSizeBytes)
	if _, err := w.file.Seek(size-keepLogSizeBytes, io.SeekStart); err != nil {
		return err
	}
	n, err := w.file.Read(buf)
	if err != nil && err != io.EOF {
		return err
	}
	buf = buf[:n]

	if err := w.file.Truncate(0); err != nil {
		return err
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.file.Write(buf); err != nil {
		return err
	}
	_, err = w.file.Seek(0, io.SeekEnd)
	return err
}
