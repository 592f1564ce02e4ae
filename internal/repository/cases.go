package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"worksafe-notify/internal/domain"

	"go.uber.org/zap"
)

// CasesRepository 案件仓库（只读，案件归案件管理子系统所有）
type CasesRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCasesRepository 创建案件仓库
func NewCasesRepository(db *sql.DB, logger *zap.Logger) *CasesRepository {
	return &CasesRepository{
		db:     db,
		logger: logger,
	}
}

const caseColumns = `
		case_id,
		tenant_id,
		worker_name,
		work_status,
		employment_status,
		injury_date,
		last_followup_at,
		next_followup_at,
		compliance_indicator,
		created_at,
		updated_at`

// ListCases 获取租户全部在管案件（需验证 tenant_id）
func (r *CasesRepository) ListCases(ctx context.Context, tenantID string) ([]*domain.Case, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT` + caseColumns + `
		FROM cases
		WHERE tenant_id = $1
		  AND employment_status != 'terminated'
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	return scanCases(rows)
}

// ListFollowupDueCases 获取随访日期已过期的案件（next_followup_at < before）
func (r *CasesRepository) ListFollowupDueCases(ctx context.Context, tenantID string, before time.Time) ([]*domain.Case, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT` + caseColumns + `
		FROM cases
		WHERE tenant_id = $1
		  AND employment_status != 'terminated'
		  AND next_followup_at IS NOT NULL
		  AND next_followup_at < $2
		ORDER BY next_followup_at
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list followup due cases: %w", err)
	}
	defer rows.Close()

	return scanCases(rows)
}

// scanCases 扫描案件结果集（处理可空字段）
func scanCases(rows *sql.Rows) ([]*domain.Case, error) {
	var cases []*domain.Case

	for rows.Next() {
		var c domain.Case
		var injuryDate, lastFollowup, nextFollowup sql.NullTime
		var indicator sql.NullString

		err := rows.Scan(
			&c.CaseID,
			&c.TenantID,
			&c.WorkerName,
			&c.WorkStatus,
			&c.EmploymentStatus,
			&injuryDate,
			&lastFollowup,
			&nextFollowup,
			&indicator,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}

		if injuryDate.Valid {
			c.InjuryDate = &injuryDate.Time
		}
		if lastFollowup.Valid {
			c.LastFollowupAt = &lastFollowup.Time
		}
		if nextFollowup.Valid {
			c.NextFollowupAt = &nextFollowup.Time
		}
		if indicator.Valid {
			c.ComplianceIndicator = indicator.String
		}

		cases = append(cases, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cases: %w", err)
	}

	return cases, nil
}
