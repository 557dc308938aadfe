package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/scriptdesk/internal/backup"
)

var (
	backupOut  string
	backupJSON bool
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a consistent copy of the database",
	Long: "Write a consistent copy of the database to --out (or a timestamped file in\n" +
		"the working directory). When a backup bucket is configured the copy is also\n" +
		"uploaded to S3-compatible storage.",
	Args: cobra.NoArgs,
	RunE: runBackup,
}

func init() {
	backupCmd.Flags().StringVar(&backupOut, "out", "", "Destination file (must not exist)")
	backupCmd.Flags().BoolVar(&backupJSON, "json", false, "Output in JSON format")
}

func runBackup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	uploader, err := backup.NewUploader(cfg.Backup)
	if err != nil {
		return err
	}

	res, err := backup.NewService(db, uploader).Run(ctx, backupOut)
	if err != nil {
		return err
	}
	slog.Debug("backup complete", "path", res.Path, "size_bytes", res.SizeBytes, "key", res.Key)

	if backupJSON {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"path":       res.Path,
			"size_bytes": res.SizeBytes,
			"key":        res.Key,
			"taken_at":   res.TakenAt,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s wrote %s (%s)\n", okColor.Sprint("ok"), res.Path, formatSize(res.SizeBytes))
	if res.Key != "" {
		fmt.Fprintf(out, "uploaded to s3://%s/%s\n", cfg.Backup.Bucket, res.Key)
	} else {
		fmt.Fprintln(out, warnColor.Sprint("no backup bucket configured; kept local copy only"))
	}
	return nil
}
