package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperengineering/scriptdesk/internal/types"
	"github.com/oklog/ulid/v2"
)

const scriptColumns = `id, team_id, member_id, name, content, category, is_selected, is_primary, last_edited, created_at, updated_at`

// flagColumn is a boolean column with "at most one true per owner scope and
// category" semantics. Only the constants below are ever interpolated.
type flagColumn string

const (
	flagPrimary  flagColumn = "is_primary"
	flagSelected flagColumn = "is_selected"
)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ownerScope returns a WHERE fragment matching rows whose owner key equals o
// exactly. An absent identifier matches NULL, so {team} and {team, member}
// are distinct owners that never see each other's rows.
func ownerScope(o types.Owner) (string, []any, error) {
	if !o.Valid() {
		return "", nil, ErrInvalidOwner
	}
	return "team_id IS ? AND member_id IS ?",
		[]any{nullableString(o.TeamID), nullableString(o.MemberID)}, nil
}

// ListScripts returns the owner's scripts, newest update first. An empty
// category lists every category.
func (s *SQLiteStore) ListScripts(ctx context.Context, owner types.Owner, category types.ScriptCategory) ([]types.Script, error) {
	scope, args, err := ownerScope(owner)
	if err != nil {
		return nil, err
	}
	if category != "" && !category.Valid() {
		return nil, ErrInvalidCategory
	}

	query := `SELECT ` + scriptColumns + ` FROM scripts WHERE ` + scope
	if category != "" {
		query += ` AND category = ?`
		args = append(args, string(category))
	}
	query += ` ORDER BY updated_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scripts: %w", err)
	}
	defer rows.Close()

	scripts := make([]types.Script, 0)
	for rows.Next() {
		script, err := scanScript(rows)
		if err != nil {
			return nil, fmt.Errorf("scan script: %w", err)
		}
		scripts = append(scripts, *script)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scripts: %w", err)
	}
	return scripts, nil
}

// GetScript returns a single script within the owner's scope.
func (s *SQLiteStore) GetScript(ctx context.Context, id string, owner types.Owner) (*types.Script, error) {
	return getScript(ctx, s.db, id, owner)
}

// CreateScript inserts a script. The first script in an owner's category
// becomes primary; an explicit primary or selected request demotes siblings.
func (s *SQLiteStore) CreateScript(ctx context.Context, in types.NewScript) (*types.Script, error) {
	if !in.Owner.Valid() {
		return nil, ErrInvalidOwner
	}
	if !in.Category.Valid() {
		return nil, ErrInvalidCategory
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = types.DefaultScriptName
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	siblings, err := countInCategory(ctx, tx, in.Owner, in.Category)
	if err != nil {
		return nil, err
	}

	isPrimary := in.IsPrimary || siblings == 0
	if in.IsPrimary && siblings > 0 {
		if err := clearFlag(ctx, tx, flagPrimary, in.Owner, in.Category, ""); err != nil {
			return nil, err
		}
	}
	if in.IsSelected && siblings > 0 {
		if err := clearFlag(ctx, tx, flagSelected, in.Owner, in.Category, ""); err != nil {
			return nil, err
		}
	}

	now, ts := s.timestamp()
	script := types.Script{
		ID:         ulid.Make().String(),
		TeamID:     in.Owner.TeamID,
		MemberID:   in.Owner.MemberID,
		Name:       name,
		Content:    in.Content,
		Category:   in.Category,
		IsSelected: in.IsSelected,
		IsPrimary:  isPrimary,
		LastEdited: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scripts (`+scriptColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, script.ID, nullableString(script.TeamID), nullableString(script.MemberID),
		script.Name, script.Content, string(script.Category),
		boolInt(script.IsSelected), boolInt(script.IsPrimary), ts, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("insert script: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &script, nil
}

// UpdateScript applies a partial update inside one transaction. Setting a
// flag true clears it on every sibling before the target row is written, so
// no committed state ever has two flagged rows in a category.
func (s *SQLiteStore) UpdateScript(ctx context.Context, id string, owner types.Owner, patch types.ScriptPatch) (*types.Script, error) {
	if patch.Empty() {
		return nil, ErrEmptyPatch
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return nil, ErrInvalidCategory
	}
	scope, scopeArgs, err := ownerScope(owner)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getScript(ctx, tx, id, owner)
	if err != nil {
		return nil, err
	}

	target := current.Category
	if patch.Category != nil {
		target = *patch.Category
	}
	moved := target != current.Category

	isPrimary, err := resolveFlag(ctx, tx, flagPrimary, owner, id, current.IsPrimary, patch.IsPrimary, moved, target)
	if err != nil {
		return nil, err
	}
	isSelected, err := resolveFlag(ctx, tx, flagSelected, owner, id, current.IsSelected, patch.IsSelected, moved, target)
	if err != nil {
		return nil, err
	}

	_, ts := s.timestamp()
	set, args := patchAssignments(patch, current, isPrimary, isSelected)
	set = append(set, "last_edited = ?", "updated_at = ?")
	args = append(args, ts, ts, id)
	args = append(args, scopeArgs...)

	result, err := tx.ExecContext(ctx,
		`UPDATE scripts SET `+strings.Join(set, ", ")+` WHERE id = ? AND `+scope,
		args...)
	if err != nil {
		return nil, fmt.Errorf("update script: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return nil, ErrNotFound
	}

	// A primary that leaves its category hands the role to the most recently
	// edited script left behind.
	if current.IsPrimary && moved {
		if err := promoteLatest(ctx, tx, owner, current.Category); err != nil {
			return nil, err
		}
	}

	updated, err := getScript(ctx, tx, id, owner)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return updated, nil
}

// DeleteScript removes a script. Deleting the primary promotes the most
// recently edited remaining script in the same category.
func (s *SQLiteStore) DeleteScript(ctx context.Context, id string, owner types.Owner) error {
	scope, scopeArgs, err := ownerScope(owner)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getScript(ctx, tx, id, owner)
	if err != nil {
		return err
	}

	args := append([]any{id}, scopeArgs...)
	result, err := tx.ExecContext(ctx, `DELETE FROM scripts WHERE id = ? AND `+scope, args...)
	if err != nil {
		return fmt.Errorf("delete script: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return ErrNotFound
	}

	if current.IsPrimary {
		if err := promoteLatest(ctx, tx, owner, current.Category); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// patchAssignments builds the SET list from the fixed set of updatable
// columns. Column names never come from caller input.
func patchAssignments(p types.ScriptPatch, current *types.Script, isPrimary, isSelected bool) ([]string, []any) {
	var set []string
	var args []any
	if p.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Content != nil {
		set = append(set, "content = ?")
		args = append(args, *p.Content)
	}
	if p.Category != nil {
		set = append(set, "category = ?")
		args = append(args, string(*p.Category))
	}
	if p.IsSelected != nil || isSelected != current.IsSelected {
		set = append(set, "is_selected = ?")
		args = append(args, boolInt(isSelected))
	}
	if p.IsPrimary != nil || isPrimary != current.IsPrimary {
		set = append(set, "is_primary = ?")
		args = append(args, boolInt(isPrimary))
	}
	return set, args
}

// resolveFlag decides the final value of a flag for a row being patched,
// clearing siblings when the flag is being claimed. A flagged row moved into
// a category that already has a flagged row loses the flag unless the patch
// claims it explicitly.
func resolveFlag(ctx context.Context, q queryer, col flagColumn, owner types.Owner, id string, current bool, requested *bool, moved bool, category types.ScriptCategory) (bool, error) {
	if requested != nil && *requested {
		if err := clearFlag(ctx, q, col, owner, category, id); err != nil {
			return false, err
		}
		return true, nil
	}
	if requested != nil || !current {
		return false, nil
	}
	if !moved {
		return true, nil
	}
	taken, err := flagTaken(ctx, q, col, owner, category, id)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// clearFlag sets col to false on every script in the owner's category except
// exceptID.
func clearFlag(ctx context.Context, q queryer, col flagColumn, owner types.Owner, category types.ScriptCategory, exceptID string) error {
	scope, args, err := ownerScope(owner)
	if err != nil {
		return err
	}
	args = append(args, string(category), exceptID)
	_, err = q.ExecContext(ctx,
		`UPDATE scripts SET `+string(col)+` = 0 WHERE `+scope+` AND category = ? AND id != ? AND `+string(col)+` = 1`,
		args...)
	if err != nil {
		return fmt.Errorf("clear %s: %w", col, err)
	}
	return nil
}

// flagTaken reports whether another script in the category already has col set.
func flagTaken(ctx context.Context, q queryer, col flagColumn, owner types.Owner, category types.ScriptCategory, exceptID string) (bool, error) {
	scope, args, err := ownerScope(owner)
	if err != nil {
		return false, err
	}
	args = append(args, string(category), exceptID)
	var n int
	err = q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scripts WHERE `+scope+` AND category = ? AND id != ? AND `+string(col)+` = 1`,
		args...).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", col, err)
	}
	return n > 0, nil
}

// promoteLatest marks the most recently edited script in the category as
// primary. A category with no scripts is left without a primary.
func promoteLatest(ctx context.Context, q queryer, owner types.Owner, category types.ScriptCategory) error {
	scope, args, err := ownerScope(owner)
	if err != nil {
		return err
	}
	args = append(args, string(category))
	_, err = q.ExecContext(ctx, `
		UPDATE scripts SET is_primary = 1
		WHERE id = (
			SELECT id FROM scripts
			WHERE `+scope+` AND category = ?
			ORDER BY last_edited DESC, id DESC
			LIMIT 1
		)`, args...)
	if err != nil {
		return fmt.Errorf("promote primary: %w", err)
	}
	return nil
}

// countInCategory returns how many scripts the owner has in the category.
func countInCategory(ctx context.Context, q queryer, owner types.Owner, category types.ScriptCategory) (int, error) {
	scope, args, err := ownerScope(owner)
	if err != nil {
		return 0, err
	}
	args = append(args, string(category))
	var n int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scripts WHERE `+scope+` AND category = ?`, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count scripts: %w", err)
	}
	return n, nil
}

func getScript(ctx context.Context, q queryer, id string, owner types.Owner) (*types.Script, error) {
	scope, args, err := ownerScope(owner)
	if err != nil {
		return nil, err
	}
	args = append([]any{id}, args...)
	row := q.QueryRowContext(ctx,
		`SELECT `+scriptColumns+` FROM scripts WHERE id = ? AND `+scope, args...)
	script, err := scanScript(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get script: %w", err)
	}
	return script, nil
}

// scanScript scans a row selected with scriptColumns.
func scanScript(scanner interface{ Scan(...any) error }) (*types.Script, error) {
	var script types.Script
	var teamID, memberID sql.NullString
	var category string
	var isSelected, isPrimary int
	var lastEdited, createdAt, updatedAt string

	err := scanner.Scan(
		&script.ID,
		&teamID,
		&memberID,
		&script.Name,
		&script.Content,
		&category,
		&isSelected,
		&isPrimary,
		&lastEdited,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	script.TeamID = teamID.String
	script.MemberID = memberID.String
	script.Category = types.ScriptCategory(category)
	script.IsSelected = isSelected != 0
	script.IsPrimary = isPrimary != 0
	script.LastEdited = parseTime(lastEdited)
	script.CreatedAt = parseTime(createdAt)
	script.UpdatedAt = parseTime(updatedAt)
	return &script, nil
}
