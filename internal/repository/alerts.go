package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"worksafe-notify/internal/domain"

	"go.uber.org/zap"
)

// AlertsRepository 通知记录仓库（alerts 表由通知引擎拥有）
type AlertsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAlertsRepository 创建通知记录仓库
func NewAlertsRepository(db *sql.DB, logger *zap.Logger) *AlertsRepository {
	return &AlertsRepository{
		db:     db,
		logger: logger,
	}
}

const alertColumns = `
		alert_id,
		tenant_id,
		kind,
		priority,
		case_id,
		recipient,
		subject,
		body,
		status,
		dedupe_key,
		message_id,
		error_text,
		metadata,
		created_at,
		sent_at`

// ============================================
// 创建与去重
// ============================================

// CreateAlert 创建通知记录（需验证 tenant_id）
// 去重键随记录一起落库；"检查-创建"序列的原子性依赖单实例调度假设。
func (r *AlertsRepository) CreateAlert(ctx context.Context, tenantID string, alert *domain.Alert) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if alert == nil {
		return fmt.Errorf("alert is required")
	}
	if alert.TenantID != tenantID {
		return fmt.Errorf("alert.tenant_id must match tenant_id parameter")
	}
	if alert.DedupeKey == "" {
		return fmt.Errorf("dedupe_key is required")
	}

	metadata := alert.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage("{}")
	}

	query := `
		INSERT INTO alerts (
			alert_id,
			tenant_id,
			kind,
			priority,
			case_id,
			recipient,
			subject,
			body,
			status,
			dedupe_key,
			metadata,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		alert.AlertID,
		alert.TenantID,
		alert.Kind,
		alert.Priority,
		alert.CaseID,
		alert.Recipient,
		alert.Subject,
		alert.Body,
		alert.Status,
		alert.DedupeKey,
		[]byte(metadata),
		alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

// DedupeKeyExists 检查去重键是否已存在（去重账本的持久层真源）
func (r *AlertsRepository) DedupeKeyExists(ctx context.Context, tenantID, dedupeKey string) (bool, error) {
	if tenantID == "" {
		return false, fmt.Errorf("tenant_id is required")
	}
	if dedupeKey == "" {
		return false, fmt.Errorf("dedupe_key is required")
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM alerts
			WHERE tenant_id = $1
			  AND dedupe_key = $2
		)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, tenantID, dedupeKey).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check dedupe key: %w", err)
	}

	return exists, nil
}

// ============================================
// 发送管线
// ============================================

// ListPendingAlerts 获取待发送通知（最早优先）
func (r *AlertsRepository) ListPendingAlerts(ctx context.Context, tenantID string, limit int) ([]*domain.Alert, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT` + alertColumns + `
		FROM alerts
		WHERE tenant_id = $1
		  AND status = 'pending'
		ORDER BY created_at
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// MarkAlertSent 标记发送成功（仅 pending → sent；sent/failed 不受影响）
func (r *AlertsRepository) MarkAlertSent(ctx context.Context, tenantID, alertID, messageID string) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if alertID == "" {
		return fmt.Errorf("alert_id is required")
	}

	query := `
		UPDATE alerts
		SET status = 'sent',
		    message_id = $3,
		    error_text = NULL,
		    sent_at = NOW()
		WHERE alert_id = $1
		  AND tenant_id = $2
		  AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, alertID, tenantID, messageID)
	if err != nil {
		return fmt.Errorf("failed to mark alert sent: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("alert not found or not pending: alert_id=%s, tenant_id=%s", alertID, tenantID)
	}

	return nil
}

// MarkAlertFailed 标记发送失败（仅 pending → failed，记录错误文本）
// failed 为终态，引擎不自动重试；恢复路径见 ResendAlert。
func (r *AlertsRepository) MarkAlertFailed(ctx context.Context, tenantID, alertID, errorText string) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if alertID == "" {
		return fmt.Errorf("alert_id is required")
	}

	query := `
		UPDATE alerts
		SET status = 'failed',
		    error_text = $3
		WHERE alert_id = $1
		  AND tenant_id = $2
		  AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, alertID, tenantID, errorText)
	if err != nil {
		return fmt.Errorf("failed to mark alert failed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("alert not found or not pending: alert_id=%s, tenant_id=%s", alertID, tenantID)
	}

	return nil
}

// ResendAlert 操作员显式重发（仅 failed → pending）
// 这是 failed 终态唯一的恢复路径；去重键保持不变，生成器不会重建该通知。
func (r *AlertsRepository) ResendAlert(ctx context.Context, tenantID, alertID string) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if alertID == "" {
		return fmt.Errorf("alert_id is required")
	}

	query := `
		UPDATE alerts
		SET status = 'pending',
		    error_text = NULL
		WHERE alert_id = $1
		  AND tenant_id = $2
		  AND status = 'failed'
	`

	result, err := r.db.ExecContext(ctx, query, alertID, tenantID)
	if err != nil {
		return fmt.Errorf("failed to resend alert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("alert not found or not failed: alert_id=%s, tenant_id=%s", alertID, tenantID)
	}

	return nil
}

// ============================================
// 查询与统计
// ============================================

// ListRecentAlerts 获取最近创建的通知（created_at >= since）
func (r *AlertsRepository) ListRecentAlerts(ctx context.Context, tenantID string, since time.Time) ([]*domain.Alert, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT` + alertColumns + `
		FROM alerts
		WHERE tenant_id = $1
		  AND created_at >= $2
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// ListAlertsByCase 获取单个案件的全部通知
func (r *AlertsRepository) ListAlertsByCase(ctx context.Context, tenantID, caseID string) ([]*domain.Alert, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}
	if caseID == "" {
		return nil, fmt.Errorf("case_id is required")
	}

	query := `
		SELECT` + alertColumns + `
		FROM alerts
		WHERE tenant_id = $1
		  AND case_id = $2
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts by case: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// CountAlertsByStatus 按状态统计通知数量
func (r *AlertsRepository) CountAlertsByStatus(ctx context.Context, tenantID string) (*domain.AlertStats, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT status, COUNT(*)
		FROM alerts
		WHERE tenant_id = $1
		GROUP BY status
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}
	defer rows.Close()

	stats := &domain.AlertStats{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan alert count: %w", err)
		}

		switch status {
		case domain.AlertStatusPending:
			stats.Pending = count
		case domain.AlertStatusSent:
			stats.Sent = count
		case domain.AlertStatusFailed:
			stats.Failed = count
		}
		stats.Total += count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alert counts: %w", err)
	}

	return stats, nil
}

// scanAlerts 扫描通知结果集（处理可空字段和 JSONB 字段）
func scanAlerts(rows *sql.Rows) ([]*domain.Alert, error) {
	var alerts []*domain.Alert

	for rows.Next() {
		var a domain.Alert
		var messageID, errorText sql.NullString
		var sentAt sql.NullTime
		var metadata []byte

		err := rows.Scan(
			&a.AlertID,
			&a.TenantID,
			&a.Kind,
			&a.Priority,
			&a.CaseID,
			&a.Recipient,
			&a.Subject,
			&a.Body,
			&a.Status,
			&a.DedupeKey,
			&messageID,
			&errorText,
			&metadata,
			&a.CreatedAt,
			&sentAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		if messageID.Valid {
			a.MessageID = &messageID.String
		}
		if errorText.Valid {
			a.ErrorText = &errorText.String
		}
		if sentAt.Valid {
			a.SentAt = &sentAt.Time
		}
		if len(metadata) > 0 {
			a.Metadata = metadata
		} else {
			a.Metadata = json.RawMessage("{}")
		}

		alerts = append(alerts, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, nil
}
