package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hyperengineering/scriptdesk/internal/api"
	"github.com/hyperengineering/scriptdesk/internal/backup"
	"github.com/hyperengineering/scriptdesk/internal/config"
	"github.com/hyperengineering/scriptdesk/internal/document"
	"github.com/hyperengineering/scriptdesk/internal/store"
	"github.com/hyperengineering/scriptdesk/internal/templates"
	"github.com/hyperengineering/scriptdesk/internal/worker"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "scriptdesk",
	Short:         "ScriptDesk - sales script and performance goal service",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Args:  cobra.NoArgs,
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a YAML config file (overrides SCRIPTDESK_CONFIG_PATH)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(scriptsCmd)
	rootCmd.AddCommand(goalsCmd)
	rootCmd.AddCommand(backupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.SetDefault(newLogger(os.Stdout, cfg.Log))
	slog.Info("configuration loaded", "level", cfg.Log.Level, "format", cfg.Log.Format)

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("store close error", "error", err)
		}
	}()
	slog.Info("store initialized", "driver", cfg.Database.Driver, "path", cfg.Database.Path)

	router, err := newRouter(cfg, db)
	if err != nil {
		return err
	}
	slog.Info("router initialized", "auth_enabled", cfg.Auth.APIKey != "")

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	var workers []func(context.Context)
	if cfg.Backup.Interval > 0 {
		uploader, err := backup.NewUploader(cfg.Backup)
		if err != nil {
			ln.Close()
			return err
		}
		bw := worker.NewBackupWorker(backup.NewService(db, uploader),
			cfg.Backup.Dir, time.Duration(cfg.Backup.Interval), cfg.Backup.Keep)
		workers = append(workers, bw.Run)
	}

	if err := serve(ctx, srv, ln, time.Duration(cfg.Server.ShutdownTimeout), workers...); err != nil {
		return err
	}
	slog.Info("shutdown complete")
	return nil
}

// serve runs srv on ln and the background workers until ctx is cancelled or
// the server fails, then drains in-flight requests within shutdownTimeout.
// It returns once every worker has stopped.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration, workers ...func(context.Context)) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, run := range workers {
		g.Go(func() error {
			run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		slog.Info("server starting", "address", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func newRouter(cfg *config.Config, db store.Store) (http.Handler, error) {
	catalog, err := templates.Load()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	h := api.NewHandler(db, document.NewConverter(), catalog, Version, cfg.Upload.MaxBytes)
	return api.NewRouter(h, api.RouterConfig{
		APIKey:         cfg.Auth.APIKey,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		DeleteBurst:    cfg.RateLimit.DeleteBurst,
		DeleteInterval: time.Duration(cfg.RateLimit.DeleteInterval),
	}), nil
}

// loadConfig honours --config before falling back to the environment.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.Database.Path,
		store.WithDriver(cfg.Database.Driver),
		store.WithMaxOpenConns(cfg.Database.MaxOpenConns),
	)
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
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
