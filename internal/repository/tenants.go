package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// TenantsRepository 租户仓库（只读，仅用于收件人解析）
type TenantsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTenantsRepository 创建租户仓库
func NewTenantsRepository(db *sql.DB, logger *zap.Logger) *TenantsRepository {
	return &TenantsRepository{
		db:     db,
		logger: logger,
	}
}

// GetNotifyEmail 获取租户配置的通知邮箱（未配置返回空串，由上层兜底）
func (r *TenantsRepository) GetNotifyEmail(ctx context.Context, tenantID string) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT notify_email
		FROM tenants
		WHERE tenant_id = $1
	`

	var email sql.NullString
	err := r.db.QueryRowContext(ctx, query, tenantID).Scan(&email)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("tenant not found: tenant_id=%s", tenantID)
		}
		return "", fmt.Errorf("failed to get tenant notify email: %w", err)
	}

	if !email.Valid {
		return "", nil
	}
	return email.String, nil
}
