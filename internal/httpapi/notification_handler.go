package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"worksafe-notify/internal/domain"
	"worksafe-notify/internal/engine"
	"worksafe-notify/internal/notify"

	"go.uber.org/zap"
)

// AlertReader 通知查询接口（由 repository.AlertsRepository 实现）
type AlertReader interface {
	ListRecentAlerts(ctx context.Context, tenantID string, since time.Time) ([]*domain.Alert, error)
	ListAlertsByCase(ctx context.Context, tenantID, caseID string) ([]*domain.Alert, error)
	CountAlertsByStatus(ctx context.Context, tenantID string) (*domain.AlertStats, error)
	ResendAlert(ctx context.Context, tenantID, alertID string) error
}

// SchedulerControl 调度器控制接口（手动触发与后台调度共用同一实例）
type SchedulerControl interface {
	RunGenerate(ctx context.Context) (int, error)
	RunSend(ctx context.Context) (*engine.SendResult, error)
	TenantID() string
}

const (
	defaultRecentHours = 24
	maxRecentHours     = 720 // 30 天
	maxBodyBytes       = 64 * 1024
)

// NotificationHandler 通知引擎 HTTP 处理器
type NotificationHandler struct {
	alerts    AlertReader
	scheduler SchedulerControl
	sink      notify.Sink
	logger    *zap.Logger
}

// NewNotificationHandler 创建通知处理器
func NewNotificationHandler(alerts AlertReader, scheduler SchedulerControl, sink notify.Sink, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		alerts:    alerts,
		scheduler: scheduler,
		sink:      sink,
		logger:    logger,
	}
}

// requireTenant 解析并校验租户，失败时写出响应并返回空串
func (h *NotificationHandler) requireTenant(w http.ResponseWriter, r *http.Request) string {
	tenantID := tenantIDFromReq(r)
	if tenantID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("tenant_id is required"))
		return ""
	}
	return tenantID
}

// requireAdmin 管理操作权限检查，失败时写出响应
func (h *NotificationHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !isPrivileged(r) {
		writeJSON(w, http.StatusForbidden, Fail("admin role required"))
		return false
	}
	return true
}

// ============================================
// 查询
// ============================================

// GetRecent GET /notify/api/v1/notifications/recent?hours=N
func (h *NotificationHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	tenantID := h.requireTenant(w, r)
	if tenantID == "" {
		return
	}

	hours := parseInt(r.URL.Query().Get("hours"), defaultRecentHours)
	if hours < 1 {
		hours = defaultRecentHours
	}
	if hours > maxRecentHours {
		hours = maxRecentHours
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	alerts, err := h.alerts.ListRecentAlerts(r.Context(), tenantID, since)
	if err != nil {
		h.logger.Error("Failed to list recent alerts",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list recent alerts"))
		return
	}
	if alerts == nil {
		alerts = []*domain.Alert{}
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"hours": hours,
		"items": alerts,
		"total": len(alerts),
	}))
}

// GetStats GET /notify/api/v1/notifications/stats
func (h *NotificationHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	tenantID := h.requireTenant(w, r)
	if tenantID == "" {
		return
	}

	stats, err := h.alerts.CountAlertsByStatus(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("Failed to count alerts",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to count alerts"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(stats))
}

// GetByCase GET /notify/api/v1/notifications/case/{caseId}
func (h *NotificationHandler) GetByCase(w http.ResponseWriter, r *http.Request, caseID string) {
	tenantID := h.requireTenant(w, r)
	if tenantID == "" {
		return
	}

	alerts, err := h.alerts.ListAlertsByCase(r.Context(), tenantID, caseID)
	if err != nil {
		h.logger.Error("Failed to list alerts by case",
			zap.String("tenant_id", tenantID),
			zap.String("case_id", caseID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list alerts by case"))
		return
	}
	if alerts == nil {
		alerts = []*domain.Alert{}
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"case_id": caseID,
		"items":   alerts,
		"total":   len(alerts),
	}))
}

// ExportRecent GET /notify/api/v1/notifications/export?hours=N
// 导出最近通知为 Excel 文件（管理员）
func (h *NotificationHandler) ExportRecent(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	tenantID := h.requireTenant(w, r)
	if tenantID == "" {
		return
	}

	hours := parseInt(r.URL.Query().Get("hours"), defaultRecentHours)
	if hours < 1 {
		hours = defaultRecentHours
	}
	if hours > maxRecentHours {
		hours = maxRecentHours
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	alerts, err := h.alerts.ListRecentAlerts(r.Context(), tenantID, since)
	if err != nil {
		h.logger.Error("Failed to list alerts for export",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list alerts for export"))
		return
	}

	data, err := GenerateAlertsExport(alerts)
	if err != nil {
		h.logger.Error("Failed to generate alerts export",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to generate export"))
		return
	}

	filename := fmt.Sprintf("notifications_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ============================================
// 管理操作
// ============================================

// checkSchedulerTenant 手动触发必须针对调度器绑定的租户
func (h *NotificationHandler) checkSchedulerTenant(w http.ResponseWriter, tenantID string) bool {
	if tenantID != h.scheduler.TenantID() {
		writeJSON(w, http.StatusBadRequest, Fail("tenant is not served by this instance"))
		return false
	}
	return true
}

// TriggerGenerate POST /notify/api/v1/notifications/trigger
// 手动触发一轮生成扫描（管理员）
func (h *NotificationHandler) TriggerGenerate(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	tenantID := h.requireTenant(w, r)
	if tenantID == "" {
		return
	}
	if !h.checkSchedulerTenant(w, tenantID) {
		return
	}

	created, err := h.scheduler.RunGenerate(r.Context())
	if err != nil {
		h.logger.Error("Manual generation failed",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("generation failed"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"created": created,
	}))
}

// TriggerSend POST /notify/api/v1/notifications/send
// 手动触发一轮发送（管理员）
func (h *NotificationHandler) TriggerSend(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	tenantID := h.requireTenant(w, r)
	if tenantID == "" {
		return
	}
	if !h.checkSchedulerTenant(w, tenantID) {
		return
	}

	result, err := h.scheduler.RunSend(r.Context())
	if err != nil {
		h.logger.Error("Manual send failed",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("send failed"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(result))
}

type sendTestRequest struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// SendTest POST /notify/api/v1/notifications/test
// 直接投递测试消息验证渠道连通性，不落库、不去重（管理员）
func (h *NotificationHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req sendTestRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if req.Recipient == "" {
		// 未指定收件人时回落到调用者邮箱
		req.Recipient = r.Header.Get("X-User-Email")
	}
	if req.Recipient == "" {
		writeJSON(w, http.StatusBadRequest, Fail("recipient is required"))
		return
	}
	if req.Subject == "" {
		req.Subject = "[WorkSafe] Test notification"
	}
	if req.Body == "" {
		req.Body = "This is a test notification from the compliance notification engine."
	}

	result, err := h.sink.Deliver(r.Context(), notify.Message{
		To:      req.Recipient,
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Fail("delivery failed: "+err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(result))
}

// Resend POST /notify/api/v1/notifications/{alertId}/resend
// failed 通知的唯一恢复路径：重置为 pending，由下一轮发送批次接走（管理员）
func (h *NotificationHandler) Resend(w http.ResponseWriter, r *http.Request, alertID string) {
	if !h.requireAdmin(w, r) {
		return
	}
	tenantID := h.requireTenant(w, r)
	if tenantID == "" {
		return
	}

	if err := h.alerts.ResendAlert(r.Context(), tenantID, alertID); err != nil {
		h.logger.Warn("Resend rejected",
			zap.String("tenant_id", tenantID),
			zap.String("alert_id", alertID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusConflict, Fail(err.Error()))
		return
	}

	h.logger.Info("Alert queued for resend",
		zap.String("tenant_id", tenantID),
		zap.String("alert_id", alertID),
	)

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"alert_id": alertID,
		"status":   domain.AlertStatusPending,
	}))
}
