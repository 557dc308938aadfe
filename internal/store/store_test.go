package store

import (
	"context"

	"github.com/hyperengineering/scriptdesk/internal/types"
)

// mockStore is a compile-time check that the Store interface can be implemented.
type mockStore struct{}

var _ Store = (*mockStore)(nil)
var _ Store = (*SQLiteStore)(nil)

func (m *mockStore) ListScripts(ctx context.Context, owner types.Owner, category types.ScriptCategory) ([]types.Script, error) {
	return nil, nil
}
func (m *mockStore) GetScript(ctx context.Context, id string, owner types.Owner) (*types.Script, error) {
	return nil, nil
}
func (m *mockStore) CreateScript(ctx context.Context, script types.NewScript) (*types.Script, error) {
	return nil, nil
}
func (m *mockStore) UpdateScript(ctx context.Context, id string, owner types.Owner, patch types.ScriptPatch) (*types.Script, error) {
	return nil, nil
}
func (m *mockStore) DeleteScript(ctx context.Context, id string, owner types.Owner) error {
	return nil
}
func (m *mockStore) GetPerformanceGoal(ctx context.Context, teamID string) (*types.PerformanceGoal, error) {
	return nil, nil
}
func (m *mockStore) SetPerformanceGoal(ctx context.Context, goal types.NewPerformanceGoal) (*types.PerformanceGoal, error) {
	return nil, nil
}
func (m *mockStore) GetCallLength(ctx context.Context, owner types.Owner) (int, error) {
	return 0, nil
}
func (m *mockStore) GetCallExtendAllowed(ctx context.Context, teamID string) (bool, error) {
	return false, nil
}
func (m *mockStore) GetStats(ctx context.Context) (*types.StoreStats, error) {
	return nil, nil
}
func (m *mockStore) Close() error {
	return nil
}
