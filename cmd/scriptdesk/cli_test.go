package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hyperengineering/scriptdesk/internal/store"
	"github.com/hyperengineering/scriptdesk/internal/types"
)

// setupEnv points the CLI at a fresh database under a temp dir and returns
// its path.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "scriptdesk.db")

	t.Setenv("SCRIPTDESK_CONFIG_PATH", filepath.Join(dir, "missing.yaml"))
	t.Setenv("SCRIPTDESK_DB_PATH", dbPath)
	t.Setenv("SCRIPTDESK_DB_DRIVER", "")
	t.Setenv("SCRIPTDESK_BACKUP_BUCKET", "")
	t.Setenv("SCRIPTDESK_API_KEY", "")

	color.NoColor = true
	return dbPath
}

// resetFlags restores every flag to its default. Cobra parses into
// package-level variables, so stale values from previous tests would leak.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// executeCmd runs the root command with captured output.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()

	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.SetArgs(nil)
	return out.String(), err
}

// seed opens the database directly, applies fn, and closes it again so the
// CLI sees committed data.
func seed(t *testing.T, dbPath string, fn func(ctx context.Context, s *store.SQLiteStore)) {
	t.Helper()
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()
	fn(context.Background(), s)
}

func TestMigrate_ReportsSchemaVersion(t *testing.T) {
	dbPath := setupEnv(t)

	out, err := executeCmd(t, "migrate")
	if err != nil {
		t.Fatalf("migrate error = %v", err)
	}
	if !strings.Contains(out, dbPath) || !strings.Contains(out, "schema version 2") {
		t.Errorf("output = %q", out)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database not created: %v", err)
	}
}

func TestMigrate_ConfigFlag(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "from-file.db")
	cfgPath := filepath.Join(dir, "scriptdesk.yaml")
	os.WriteFile(cfgPath, []byte("database:\n  path: "+dbPath+"\n"), 0644)
	t.Setenv("SCRIPTDESK_DB_PATH", "")

	out, err := executeCmd(t, "migrate", "--config", cfgPath)
	if err != nil {
		t.Fatalf("migrate error = %v", err)
	}
	if !strings.Contains(out, dbPath) {
		t.Errorf("output = %q, want path from config file", out)
	}
}

func TestScriptsList(t *testing.T) {
	dbPath := setupEnv(t)
	seed(t, dbPath, func(ctx context.Context, s *store.SQLiteStore) {
		owner := types.NewOwner("team-1", "", "")
		for _, in := range []types.NewScript{
			{Owner: owner, Name: "Opener", Content: "Hi", Category: types.CategoryWholesaling},
			{Owner: owner, Name: "Lender pitch", Content: "Hello", Category: types.CategoryCreativeFinance},
			{Owner: types.NewOwner("team-2", "", ""), Name: "Other tenant", Content: "x", Category: types.CategoryWholesaling},
		} {
			if _, err := s.CreateScript(ctx, in); err != nil {
				t.Fatalf("CreateScript() error = %v", err)
			}
		}
	})

	out, err := executeCmd(t, "scripts", "list", "--team", "team-1")
	if err != nil {
		t.Fatalf("scripts list error = %v", err)
	}
	if !strings.Contains(out, "ID") || !strings.Contains(out, "Opener") || !strings.Contains(out, "Lender pitch") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, "Other tenant") {
		t.Error("output contains another tenant's script")
	}

	out, err = executeCmd(t, "scripts", "list", "--team", "team-1", "--category", "Creative Finance", "--json")
	if err != nil {
		t.Fatalf("scripts list --json error = %v", err)
	}
	var resp struct {
		Scripts []types.Script `json:"scripts"`
		Total   int            `json:"total"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON: %v (%s)", err, out)
	}
	if resp.Total != 1 || resp.Scripts[0].Name != "Lender pitch" || !resp.Scripts[0].IsPrimary {
		t.Errorf("json = %+v", resp)
	}
}

func TestScriptsList_Empty(t *testing.T) {
	setupEnv(t)

	out, err := executeCmd(t, "scripts", "list", "--member", "m-1")
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if !strings.Contains(out, "No scripts found.") {
		t.Errorf("output = %q", out)
	}

	out, _ = executeCmd(t, "scripts", "list", "--member", "m-1", "--json")
	if !strings.Contains(out, `"scripts": []`) {
		t.Errorf("json output = %q, want empty array", out)
	}
}

func TestScriptsList_Errors(t *testing.T) {
	setupEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no owner", []string{"scripts", "list"}, "--team or --member is required"},
		{"blank owner", []string{"scripts", "list", "--team", "  "}, "--team or --member is required"},
		{"bad category", []string{"scripts", "list", "--team", "t", "--category", "Retail"}, "unknown category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCmd(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestGoalsShow_Defaults(t *testing.T) {
	setupEnv(t)

	out, err := executeCmd(t, "goals", "show", "--team", "team-1")
	if err != nil {
		t.Fatalf("goals show error = %v", err)
	}
	if !strings.Contains(out, "defaults") || !strings.Contains(out, "10 min") || !strings.Contains(out, "true") {
		t.Errorf("output = %q", out)
	}
}

func TestGoalsShow_Stored(t *testing.T) {
	dbPath := setupEnv(t)
	seed(t, dbPath, func(ctx context.Context, s *store.SQLiteStore) {
		_, err := s.SetPerformanceGoal(ctx, types.NewPerformanceGoal{
			Owner:                  types.NewOwner("team-1", "", ""),
			OverallPerformanceGoal: 75,
			NumberOfCallsAverage:   40,
			CallLength:             12,
			CallExtendAllowed:      false,
		})
		if err != nil {
			t.Fatalf("SetPerformanceGoal() error = %v", err)
		}
	})

	out, err := executeCmd(t, "goals", "show", "--team", "team-1", "--json")
	if err != nil {
		t.Fatalf("goals show error = %v", err)
	}
	var goal types.PerformanceGoal
	if err := json.Unmarshal([]byte(out), &goal); err != nil {
		t.Fatalf("invalid JSON: %v (%s)", err, out)
	}
	if goal.CallLength != 12 || goal.CallExtendAllowed || goal.OverallPerformanceGoal == nil || *goal.OverallPerformanceGoal != 75 {
		t.Errorf("goal = %+v", goal)
	}
}

func TestGoalsShow_RequiresTeam(t *testing.T) {
	setupEnv(t)

	if _, err := executeCmd(t, "goals", "show"); err == nil {
		t.Error("expected error without --team")
	}
}

func TestBackup_WritesLocalCopy(t *testing.T) {
	dbPath := setupEnv(t)
	seed(t, dbPath, func(ctx context.Context, s *store.SQLiteStore) {
		s.CreateScript(ctx, types.NewScript{
			Owner: types.NewOwner("team-1", "", ""), Content: "Hi", Category: types.CategoryForeclosure,
		})
	})
	out := filepath.Join(t.TempDir(), "copy.db")

	stdout, err := executeCmd(t, "backup", "--out", out)
	if err != nil {
		t.Fatalf("backup error = %v", err)
	}
	if !strings.Contains(stdout, out) || !strings.Contains(stdout, "kept local copy only") {
		t.Errorf("output = %q", stdout)
	}

	restored, err := store.NewSQLiteStore(out)
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	defer restored.Close()
	scripts, err := restored.ListScripts(context.Background(), types.NewOwner("team-1", "", ""), "")
	if err != nil || len(scripts) != 1 {
		t.Errorf("restored scripts = %d, err = %v", len(scripts), err)
	}

	if _, err := executeCmd(t, "backup", "--out", out); !errors.Is(err, store.ErrBackupExists) {
		t.Errorf("second backup err = %v, want ErrBackupExists", err)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 << 20, "5.0 MB"},
		{3 << 30, "3.0 GB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.bytes); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
