package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/edgard/threadwise/internal/apperr"
	"github.com/edgard/threadwise/internal/scope"
)

// SummaryUpsert carries a summary write. RequesterUserID must be a member of WorkspaceID.
type SummaryUpsert struct {
	WorkspaceID      string
	ScopeType        scope.Type
	ScopeID          string
	Summary          string
	MessageCount     int
	ParticipantCount int
	RequesterUserID  string
}

// SaveSummary writes the summary of a scope, replacing any previous one, and
// returns the artifact id. A requester without workspace membership gets
// apperr.ErrUnauthorized and nothing is written.
func (s *sqlxStore) SaveSummary(ctx context.Context, in SummaryUpsert) (int64, error) {
	if in.ScopeType == scope.TypeNone || in.ScopeID == "" || in.WorkspaceID == "" {
		return 0, fmt.Errorf("%w: summary requires workspace, scope type and scope id", apperr.ErrValidation)
	}
	if in.RequesterUserID == "" {
		return 0, fmt.Errorf("%w: no authenticated requester", apperr.ErrUnauthorized)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	member, err := getMember(ctx, tx, in.WorkspaceID, in.RequesterUserID)
	if err != nil {
		return 0, err
	}
	if member == nil {
		s.logger.WarnContext(ctx, "Summary write rejected for non-member",
			"workspace_id", in.WorkspaceID, "user_id", in.RequesterUserID)
		return 0, fmt.Errorf("%w: user %s is not a member of workspace %s",
			apperr.ErrUnauthorized, in.RequesterUserID, in.WorkspaceID)
	}

	now := s.now()

	var existingID int64
	err = tx.GetContext(ctx, &existingID,
		`SELECT id FROM summaries WHERE workspace_id = ? AND scope_type = ? AND scope_id = ?`,
		in.WorkspaceID, string(in.ScopeType), in.ScopeID)

	var id int64
	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx, `
            UPDATE summaries
            SET summary = ?, message_count = ?, participant_count = ?, generated_by = ?, generated_at = ?
            WHERE id = ?`,
			in.Summary, in.MessageCount, in.ParticipantCount, member.ID, now, existingID)
		if err != nil {
			return 0, fmt.Errorf("failed to update summary %d: %w", existingID, err)
		}
		id = existingID
		s.logger.DebugContext(ctx, "Updated existing summary", "summary_id", id)

	case errors.Is(err, sql.ErrNoRows):
		err = tx.GetContext(ctx, &id, `
            INSERT INTO summaries (workspace_id, scope_type, scope_id, summary,
                                   message_count, participant_count, generated_by, generated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(workspace_id, scope_type, scope_id) DO UPDATE SET
                summary = excluded.summary,
                message_count = excluded.message_count,
                participant_count = excluded.participant_count,
                generated_by = excluded.generated_by,
                generated_at = excluded.generated_at
            RETURNING id`,
			in.WorkspaceID, string(in.ScopeType), in.ScopeID, in.Summary,
			in.MessageCount, in.ParticipantCount, member.ID, now)
		if err != nil {
			return 0, fmt.Errorf("failed to insert summary: %w", err)
		}
		s.logger.DebugContext(ctx, "Inserted new summary", "summary_id", id)

	default:
		return 0, fmt.Errorf("failed to check existing summary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Summary saved",
		"summary_id", id,
		"workspace_id", in.WorkspaceID,
		"scope_type", string(in.ScopeType),
		"scope_id", in.ScopeID,
		"message_count", in.MessageCount)
	return id, nil
}

// GetSummary returns the stored summary of a scope. Returns nil, nil if not found.
func (s *sqlxStore) GetSummary(ctx context.Context, workspaceID string, scopeType scope.Type, scopeID string) (*Summary, error) {
	var summary Summary
	err := s.db.GetContext(ctx, &summary,
		`SELECT `+summaryColumns+` FROM summaries WHERE workspace_id = ? AND scope_type = ? AND scope_id = ?`,
		workspaceID, string(scopeType), scopeID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting summary", "workspace_id", workspaceID, "scope_type", string(scopeType), "scope_id", scopeID, "error", err)
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return &summary, nil
}
