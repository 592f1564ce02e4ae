package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"worksafe-notify/internal/domain"

	"go.uber.org/zap"
)

// ActionsRepository 合规待办仓库（只读，待办归案件管理子系统所有）
type ActionsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewActionsRepository 创建合规待办仓库
func NewActionsRepository(db *sql.DB, logger *zap.Logger) *ActionsRepository {
	return &ActionsRepository{
		db:     db,
		logger: logger,
	}
}

// ListOverdueActions 获取逾期未完成的待办（due_date 严格早于 before）
func (r *ActionsRepository) ListOverdueActions(ctx context.Context, tenantID string, before time.Time) ([]*domain.ComplianceAction, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT
			action_id,
			tenant_id,
			case_id,
			action_type,
			due_date,
			notes,
			completed,
			completed_at,
			created_at
		FROM compliance_actions
		WHERE tenant_id = $1
		  AND completed = FALSE
		  AND due_date < $2
		ORDER BY due_date
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue actions: %w", err)
	}
	defer rows.Close()

	var actions []*domain.ComplianceAction

	for rows.Next() {
		var a domain.ComplianceAction
		var notes sql.NullString
		var completedAt sql.NullTime

		err := rows.Scan(
			&a.ActionID,
			&a.TenantID,
			&a.CaseID,
			&a.ActionType,
			&a.DueDate,
			&notes,
			&a.Completed,
			&completedAt,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}

		if notes.Valid {
			a.Notes = &notes.String
		}
		if completedAt.Valid {
			a.CompletedAt = &completedAt.Time
		}

		actions = append(actions, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate actions: %w", err)
	}

	return actions, nil
}
