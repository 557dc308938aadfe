package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/scriptdesk/internal/types"
)

var (
	scriptsTeam     string
	scriptsMember   string
	scriptsCategory string
	scriptsJSON     bool
)

var scriptsCmd = &cobra.Command{
	Use:   "scripts",
	Short: "Inspect stored scripts without running the server",
}

var scriptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List an owner's scripts",
	Args:  cobra.NoArgs,
	RunE:  runScriptsList,
}

func init() {
	scriptsListCmd.Flags().StringVar(&scriptsTeam, "team", "", "Team ID")
	scriptsListCmd.Flags().StringVar(&scriptsMember, "member", "", "Member ID")
	scriptsListCmd.Flags().StringVar(&scriptsCategory, "category", "", "Only list scripts in this category")
	scriptsListCmd.Flags().BoolVar(&scriptsJSON, "json", false, "Output in JSON format")

	scriptsCmd.AddCommand(scriptsListCmd)
}

func runScriptsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	owner := types.NewOwner(scriptsTeam, scriptsMember, "")
	if !owner.Valid() {
		return fmt.Errorf("--team or --member is required")
	}
	category := types.ScriptCategory(scriptsCategory)
	if category != "" && !category.Valid() {
		return fmt.Errorf("unknown category %q", scriptsCategory)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	scripts, err := db.ListScripts(ctx, owner, category)
	if err != nil {
		return fmt.Errorf("list scripts: %w", err)
	}

	if scriptsJSON {
		if scripts == nil {
			scripts = []types.Script{}
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"scripts": scripts,
			"total":   len(scripts),
		})
	}

	if len(scripts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No scripts found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tCATEGORY\tNAME\tPRIMARY\tSELECTED\tLAST EDITED")
	for _, s := range scripts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID,
			s.Category,
			s.Name,
			yesNo(s.IsPrimary),
			yesNo(s.IsSelected),
			s.LastEdited.Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}
