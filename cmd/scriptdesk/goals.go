package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/scriptdesk/internal/store"
	"github.com/hyperengineering/scriptdesk/internal/types"
)

var (
	goalsTeam string
	goalsJSON bool
)

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Inspect performance goals without running the server",
}

var goalsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a team's performance goals",
	Args:  cobra.NoArgs,
	RunE:  runGoalsShow,
}

func init() {
	goalsShowCmd.Flags().StringVar(&goalsTeam, "team", "", "Team ID (required)")
	goalsShowCmd.Flags().BoolVar(&goalsJSON, "json", false, "Output in JSON format")
	goalsShowCmd.MarkFlagRequired("team")

	goalsCmd.AddCommand(goalsShowCmd)
}

func runGoalsShow(cmd *cobra.Command, args []string) error {
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

	stored := true
	goal, err := db.GetPerformanceGoal(ctx, goalsTeam)
	switch {
	case errors.Is(err, store.ErrNotFound):
		stored = false
		d := types.DefaultPerformanceGoal(goalsTeam)
		goal = &d
	case err != nil:
		return fmt.Errorf("get performance goals: %w", err)
	}

	if goalsJSON {
		return printJSON(cmd.OutOrStdout(), goal)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Team:                %s\n", goalsTeam)
	if !stored {
		fmt.Fprintf(out, "Source:              %s\n", warnColor.Sprint("defaults (no goals saved)"))
	} else {
		fmt.Fprintf(out, "Source:              %s\n", okColor.Sprint("stored"))
		fmt.Fprintf(out, "Overall goal:        %s\n", formatOptional(goal.OverallPerformanceGoal))
		fmt.Fprintf(out, "Calls average:       %s\n", formatOptional(goal.NumberOfCallsAverage))
	}
	fmt.Fprintf(out, "Call length:         %d min\n", goal.CallLength)
	fmt.Fprintf(out, "Call extend allowed: %t\n", goal.CallExtendAllowed)
	if goal.CreatedAt != nil {
		fmt.Fprintf(out, "Saved:               %s\n", goal.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}
