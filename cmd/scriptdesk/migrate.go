package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/scriptdesk/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and report the schema version",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Opening the store applies any pending migrations.
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := store.SchemaVersion(db.DB())
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s at schema version %d\n",
		okColor.Sprint("ok"), cfg.Database.Path, version)
	return nil
}
