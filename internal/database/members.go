package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// EnsureMember upserts the user and returns their membership in the workspace.
func (s *sqlxStore) EnsureMember(ctx context.Context, workspaceID, userID, name string) (*Member, error) {
	if workspaceID == "" || userID == "" {
		return nil, fmt.Errorf("workspace_id and user_id are required")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	now := s.now()
	if name == "" {
		name = userID
	}
	_, err = tx.ExecContext(ctx, `
        INSERT INTO users (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at
        WHERE users.name <> excluded.name`,
		userID, name, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user %s: %w", userID, err)
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO members (workspace_id, user_id, role, created_at) VALUES (?, ?, 'member', ?)
        ON CONFLICT(workspace_id, user_id) DO NOTHING`,
		workspaceID, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert member %s/%s: %w", workspaceID, userID, err)
	}

	var member Member
	err = tx.GetContext(ctx, &member,
		`SELECT id, workspace_id, user_id, role, created_at FROM members WHERE workspace_id = ? AND user_id = ?`,
		workspaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load member %s/%s: %w", workspaceID, userID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	return &member, nil
}

// GetMember returns the membership of userID in workspaceID. Returns nil, nil if not found.
func (s *sqlxStore) GetMember(ctx context.Context, workspaceID, userID string) (*Member, error) {
	return getMember(ctx, s.db, workspaceID, userID)
}

func getMember(ctx context.Context, q sqlx.QueryerContext, workspaceID, userID string) (*Member, error) {
	var member Member
	err := sqlx.GetContext(ctx, q, &member,
		`SELECT id, workspace_id, user_id, role, created_at FROM members WHERE workspace_id = ? AND user_id = ?`,
		workspaceID, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to get member %s/%s: %w", workspaceID, userID, err)
	}
	return &member, nil
}

// GetUserByMemberID resolves the user behind a membership. Returns nil, nil if not found.
func (s *sqlxStore) GetUserByMemberID(ctx context.Context, memberID int64) (*User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, `
        SELECT u.id, u.name, u.created_at, u.updated_at
        FROM members m JOIN users u ON u.id = m.user_id
        WHERE m.id = ?`, memberID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No user found for member", "member_id", memberID)
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to get user for member %d: %w", memberID, err)
	}
	return &user, nil
}
