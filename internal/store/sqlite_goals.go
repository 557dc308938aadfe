package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperengineering/scriptdesk/internal/types"
)

const goalColumns = `team_id, member_id, overall_performance_goal, number_of_calls_average, call_length, call_extend_allowed, created_at`

// GetPerformanceGoal returns the most recently saved goals for the team.
// Returns ErrNotFound when the team has never saved goals.
func (s *SQLiteStore) GetPerformanceGoal(ctx context.Context, teamID string) (*types.PerformanceGoal, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, ErrInvalidOwner
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+goalColumns+` FROM performance_goals
		WHERE team_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, teamID)
	goal, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get performance goal: %w", err)
	}
	return goal, nil
}

// SetPerformanceGoal replaces the owner's goals: existing rows are deleted
// and one new row is inserted in the same transaction. Rows are keyed by team
// when a team is given, otherwise by member.
func (s *SQLiteStore) SetPerformanceGoal(ctx context.Context, in types.NewPerformanceGoal) (*types.PerformanceGoal, error) {
	if !in.Owner.Valid() {
		return nil, ErrInvalidOwner
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if in.Owner.TeamID != "" {
		_, err = tx.ExecContext(ctx, `DELETE FROM performance_goals WHERE team_id = ?`, in.Owner.TeamID)
	} else {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM performance_goals WHERE member_id = ? AND team_id IS NULL`, in.Owner.MemberID)
	}
	if err != nil {
		return nil, fmt.Errorf("delete performance goals: %w", err)
	}

	now, ts := s.timestamp()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO performance_goals (`+goalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, nullableString(in.Owner.TeamID), nullableString(in.Owner.MemberID),
		in.OverallPerformanceGoal, in.NumberOfCallsAverage,
		in.CallLength, boolInt(in.CallExtendAllowed), ts)
	if err != nil {
		return nil, fmt.Errorf("insert performance goal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	overall := in.OverallPerformanceGoal
	calls := in.NumberOfCallsAverage
	return &types.PerformanceGoal{
		TeamID:                 in.Owner.TeamID,
		MemberID:               in.Owner.MemberID,
		OverallPerformanceGoal: &overall,
		NumberOfCallsAverage:   &calls,
		CallLength:             in.CallLength,
		CallExtendAllowed:      in.CallExtendAllowed,
		CreatedAt:              &now,
	}, nil
}

// GetCallLength returns the configured call length, looking up the team first
// and falling back to the member. Returns ErrNotFound when neither has a row.
func (s *SQLiteStore) GetCallLength(ctx context.Context, owner types.Owner) (int, error) {
	if !owner.Valid() {
		return 0, ErrInvalidOwner
	}

	if owner.TeamID != "" {
		n, err := s.latestCallLength(ctx, "team_id", owner.TeamID)
		if err == nil || !errors.Is(err, ErrNotFound) {
			return n, err
		}
	}
	if owner.MemberID != "" {
		return s.latestCallLength(ctx, "member_id", owner.MemberID)
	}
	return 0, ErrNotFound
}

// latestCallLength reads call_length keyed by column, which is one of the
// literal owner columns passed by GetCallLength.
func (s *SQLiteStore) latestCallLength(ctx context.Context, column, value string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT call_length FROM performance_goals WHERE `+column+` = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		value).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get call length: %w", err)
	}
	return n, nil
}

// GetCallExtendAllowed returns the team's call extension flag.
// Returns ErrNotFound when the team has no row.
func (s *SQLiteStore) GetCallExtendAllowed(ctx context.Context, teamID string) (bool, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return false, ErrInvalidOwner
	}

	var allowed int
	err := s.db.QueryRowContext(ctx, `
		SELECT call_extend_allowed FROM performance_goals
		WHERE team_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, teamID).Scan(&allowed)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("get call extend status: %w", err)
	}
	return allowed != 0, nil
}

func scanGoal(scanner interface{ Scan(...any) error }) (*types.PerformanceGoal, error) {
	var goal types.PerformanceGoal
	var teamID, memberID sql.NullString
	var overall, calls float64
	var allowed int
	var createdAt string

	if err := scanner.Scan(&teamID, &memberID, &overall, &calls, &goal.CallLength, &allowed, &createdAt); err != nil {
		return nil, err
	}

	goal.TeamID = teamID.String
	goal.MemberID = memberID.String
	goal.OverallPerformanceGoal = &overall
	goal.NumberOfCallsAverage = &calls
	goal.CallExtendAllowed = allowed != 0
	if t := parseTime(createdAt); !t.IsZero() {
		goal.CreatedAt = &t
	}
	return &goal, nil
}
