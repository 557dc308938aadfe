// Package worker contains long-running background tasks started by the server.
package worker

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hyperengineering/scriptdesk/internal/backup"
)

// BackupRunner takes one backup. Implemented by *backup.Service.
type BackupRunner interface {
	Run(ctx context.Context, outPath string) (*backup.Result, error)
}

// BackupWorker writes periodic database backups into dir and keeps only the
// newest keep local copies. A keep of zero disables pruning.
type BackupWorker struct {
	runner   BackupRunner
	dir      string
	interval time.Duration
	keep     int
	now      func() time.Time
}

// NewBackupWorker creates a worker with the given runner and schedule.
func NewBackupWorker(runner BackupRunner, dir string, interval time.Duration, keep int) *BackupWorker {
	return &BackupWorker{
		runner:   runner,
		dir:      dir,
		interval: interval,
		keep:     keep,
		now:      time.Now,
	}
}

// Run starts the worker loop. Takes a backup immediately on start,
// then on each interval. Respects context cancellation for graceful shutdown.
func (w *BackupWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "backup",
		"interval", w.interval.String(),
		"dir", w.dir,
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.backup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "backup",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.backup(ctx)
		}
	}
}

// backup takes one backup, prunes old copies, and logs any errors.
func (w *BackupWorker) backup(ctx context.Context) {
	res, err := w.runner.Run(ctx, backup.DefaultPath(w.dir, w.now()))
	if err != nil {
		// Check if it's a context cancellation (graceful shutdown)
		if ctx.Err() != nil {
			return
		}
		slog.Warn("backup failed",
			"component", "worker",
			"action", "backup_failed",
			"error", err,
		)
		return
	}

	slog.Info("backup written",
		"component", "worker",
		"action", "backup_complete",
		"path", res.Path,
		"size_bytes", res.SizeBytes,
		"key", res.Key,
	)

	if removed, err := w.prune(); err != nil {
		slog.Warn("backup prune failed",
			"component", "worker",
			"error", err,
		)
	} else if removed > 0 {
		slog.Info("old backups pruned",
			"component", "worker",
			"removed", removed,
		)
	}
}

// prune deletes all but the newest keep backups in dir. Backup file names
// embed a sortable timestamp, so lexical order is age order.
func (w *BackupWorker) prune() (int, error) {
	if w.keep <= 0 {
		return 0, nil
	}

	matches, err := filepath.Glob(filepath.Join(w.dir, "scriptdesk-*.db"))
	if err != nil {
		return 0, err
	}
	if len(matches) <= w.keep {
		return 0, nil
	}
	sort.Strings(matches)

	removed := 0
	for _, path := range matches[:len(matches)-w.keep] {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
