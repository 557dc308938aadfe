package store

import (
	"context"

	"github.com/hyperengineering/scriptdesk/internal/types"
)

// ScriptStore defines the script operations. Every call is scoped by the
// caller's owner key; a row outside that scope behaves as if it did not exist.
type ScriptStore interface {
	ListScripts(ctx context.Context, owner types.Owner, category types.ScriptCategory) ([]types.Script, error)
	GetScript(ctx context.Context, id string, owner types.Owner) (*types.Script, error)
	CreateScript(ctx context.Context, script types.NewScript) (*types.Script, error)
	UpdateScript(ctx context.Context, id string, owner types.Owner, patch types.ScriptPatch) (*types.Script, error)
	DeleteScript(ctx context.Context, id string, owner types.Owner) error
}

// GoalStore defines the performance goal operations.
type GoalStore interface {
	GetPerformanceGoal(ctx context.Context, teamID string) (*types.PerformanceGoal, error)
	SetPerformanceGoal(ctx context.Context, goal types.NewPerformanceGoal) (*types.PerformanceGoal, error)
	GetCallLength(ctx context.Context, owner types.Owner) (int, error)
	GetCallExtendAllowed(ctx context.Context, teamID string) (bool, error)
}

// Store defines the interface contract for all scriptdesk storage operations.
type Store interface {
	ScriptStore
	GoalStore
	GetStats(ctx context.Context) (*types.StoreStats, error)
	Close() error
}
