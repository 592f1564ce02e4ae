package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"worksafe-notify/internal/compliance"
	"worksafe-notify/internal/domain"
	"worksafe-notify/internal/escalation"
	"worksafe-notify/internal/notify"
	"worksafe-notify/internal/render"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ============================================
// 生成器消费的接口（由 repository / ledger 实现）
// ============================================

// CaseSource 案件来源
type CaseSource interface {
	ListCases(ctx context.Context, tenantID string) ([]*domain.Case, error)
	ListFollowupDueCases(ctx context.Context, tenantID string, before time.Time) ([]*domain.Case, error)
}

// ActionSource 合规待办来源
type ActionSource interface {
	ListOverdueActions(ctx context.Context, tenantID string, before time.Time) ([]*domain.ComplianceAction, error)
}

// AlertStore 通知记录存储
type AlertStore interface {
	CreateAlert(ctx context.Context, tenantID string, alert *domain.Alert) error
	ListPendingAlerts(ctx context.Context, tenantID string, limit int) ([]*domain.Alert, error)
	MarkAlertSent(ctx context.Context, tenantID, alertID, messageID string) error
	MarkAlertFailed(ctx context.Context, tenantID, alertID, errorText string) error
	CountAlertsByStatus(ctx context.Context, tenantID string) (*domain.AlertStats, error)
}

// DedupeLedger 去重账本
type DedupeLedger interface {
	Exists(ctx context.Context, tenantID, dedupeKey string) (bool, error)
	Record(ctx context.Context, tenantID, dedupeKey string)
}

// ============================================
// Generator
// ============================================

// Generator 通知生成器
// 扫描租户全部案件和逾期待办，按升级档位分类，经去重账本过滤后
// 生成 pending 通知记录。每个案件/待办在独立错误边界内评估：
// 单个主体失败只记日志并跳过，不中断整轮扫描。
//
// 已知行为：failed 通知的去重键仍然在账本中，条件不变时生成器不会
// 重建该通知；恢复路径是操作员显式 resend（见 AlertsRepository.ResendAlert）。
type Generator struct {
	cases    CaseSource
	actions  ActionSource
	alerts   AlertStore
	ledger   DedupeLedger
	oracle   compliance.Oracle
	resolver notify.RecipientResolver
	logger   *zap.Logger
}

// NewGenerator 创建通知生成器
func NewGenerator(
	cases CaseSource,
	actions ActionSource,
	alerts AlertStore,
	ledger DedupeLedger,
	oracle compliance.Oracle,
	resolver notify.RecipientResolver,
	logger *zap.Logger,
) *Generator {
	return &Generator{
		cases:    cases,
		actions:  actions,
		alerts:   alerts,
		ledger:   ledger,
		oracle:   oracle,
		resolver: resolver,
		logger:   logger,
	}
}

// Generate 为租户生成新通知，返回本轮创建数量
// 阶段开始前的存储/解析失败作为运行级错误返回；单主体失败只跳过该主体。
func (g *Generator) Generate(ctx context.Context, tenantID string) (int, error) {
	if tenantID == "" {
		return 0, fmt.Errorf("tenant_id is required")
	}

	recipient, err := g.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve recipient: %w", err)
	}

	now := time.Now()
	created := 0

	// 1. 证明规则族：逐案件咨询合规 Oracle
	n, err := g.generateCertificateAlerts(ctx, tenantID, recipient, now)
	if err != nil {
		return created, err
	}
	created += n

	// 2. 待办规则族：逾期未完成的合规待办
	n, err = g.generateActionAlerts(ctx, tenantID, recipient, now)
	if err != nil {
		return created, err
	}
	created += n

	// 3. 随访规则族：随访日期已过期的案件
	n, err = g.generateFollowupAlerts(ctx, tenantID, recipient, now)
	if err != nil {
		return created, err
	}
	created += n

	g.logger.Info("Alert generation completed",
		zap.String("tenant_id", tenantID),
		zap.Int("created", created),
	)

	return created, nil
}

// generateCertificateAlerts 证明到期/过期通知
func (g *Generator) generateCertificateAlerts(ctx context.Context, tenantID, recipient string, now time.Time) (int, error) {
	cases, err := g.cases.ListCases(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("failed to list cases: %w", err)
	}

	created := 0
	for _, c := range cases {
		n, err := g.evaluateCase(ctx, tenantID, recipient, c, now)
		if err != nil {
			// 单主体错误边界：跳过该案件，继续处理其余案件
			g.logger.Error("Failed to evaluate case",
				zap.String("tenant_id", tenantID),
				zap.String("case_id", c.CaseID),
				zap.Error(err),
			)
			continue
		}
		created += n
	}

	return created, nil
}

// evaluateCase 评估单个案件的证明状态
func (g *Generator) evaluateCase(ctx context.Context, tenantID, recipient string, c *domain.Case, now time.Time) (int, error) {
	eval, err := g.oracle.Evaluate(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("oracle evaluation failed: %w", err)
	}

	// compliant 无需通知；no_certificate 由待办流程覆盖，不发证明通知
	if eval.Status == compliance.StatusCompliant || eval.Status == compliance.StatusNoCertificate {
		return 0, nil
	}

	// 带符号天数：负数=已过期
	days := eval.DaysUntilExpiry
	if eval.Status == compliance.StatusCertificateExpired {
		days = -eval.DaysSinceExpiry
		if days >= 0 {
			// 当天刚过期也归入过期档位
			days = -1
		}
	}

	bucket, priority, alertable := escalation.ClassifyCertificate(days)
	if !alertable {
		return 0, nil
	}

	dedupeKey := escalation.CertificateKey(c.CaseID, bucket)
	exists, err := g.ledger.Exists(ctx, tenantID, dedupeKey)
	if err != nil {
		return 0, fmt.Errorf("ledger check failed: %w", err)
	}
	if exists {
		// 案件仍停留在上一轮的升级档位，不重复通知
		return 0, nil
	}

	cert := eval.ActiveCertificate
	if cert == nil {
		cert = eval.NewestCertificate
	}
	var expiryDate time.Time
	if cert != nil {
		expiryDate = cert.ValidTo
	}

	var kind, subject, body string
	if bucket < 0 {
		kind = domain.AlertKindCertificateExpired
		subject, body = render.CertificateExpired(render.CertificateExpiredInput{
			WorkerName:      c.WorkerName,
			CaseID:          c.CaseID,
			ExpiryDate:      expiryDate,
			DaysSinceExpiry: -days,
		})
	} else {
		kind = domain.AlertKindCertificateExpiring
		capacity := ""
		if cert != nil {
			capacity = cert.Capacity
		}
		subject, body = render.CertificateExpiring(render.CertificateExpiringInput{
			WorkerName:      c.WorkerName,
			CaseID:          c.CaseID,
			Capacity:        capacity,
			ExpiryDate:      expiryDate,
			DaysUntilExpiry: days,
		})
	}

	metadata, _ := json.Marshal(map[string]any{
		"bucket": bucket,
		"days":   days,
		"status": eval.Status,
	})

	if err := g.createAlert(ctx, tenantID, &domain.Alert{
		AlertID:   uuid.New().String(),
		TenantID:  tenantID,
		Kind:      kind,
		Priority:  priority,
		CaseID:    c.CaseID,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Status:    domain.AlertStatusPending,
		DedupeKey: dedupeKey,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}); err != nil {
		return 0, err
	}

	return 1, nil
}

// generateActionAlerts 待办逾期通知
func (g *Generator) generateActionAlerts(ctx context.Context, tenantID, recipient string, now time.Time) (int, error) {
	actions, err := g.actions.ListOverdueActions(ctx, tenantID, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue actions: %w", err)
	}

	created := 0
	for _, a := range actions {
		n, err := g.evaluateAction(ctx, tenantID, recipient, a, now)
		if err != nil {
			g.logger.Error("Failed to evaluate action",
				zap.String("tenant_id", tenantID),
				zap.String("action_id", a.ActionID),
				zap.Error(err),
			)
			continue
		}
		created += n
	}

	return created, nil
}

// evaluateAction 评估单个逾期待办
func (g *Generator) evaluateAction(ctx context.Context, tenantID, recipient string, a *domain.ComplianceAction, now time.Time) (int, error) {
	daysOverdue := int(now.Sub(a.DueDate).Hours() / 24)
	if daysOverdue < 1 {
		// 与时钟竞争：刚过期不足一天，留给下一轮
		return 0, nil
	}

	bucket, priority, alertable := escalation.ClassifyAction(daysOverdue)
	if !alertable {
		return 0, nil
	}

	dedupeKey := escalation.ActionKey(a.ActionID, bucket)
	exists, err := g.ledger.Exists(ctx, tenantID, dedupeKey)
	if err != nil {
		return 0, fmt.Errorf("ledger check failed: %w", err)
	}
	if exists {
		return 0, nil
	}

	notes := ""
	if a.Notes != nil {
		notes = *a.Notes
	}

	// 待办记录不含工人姓名，渲染函数按无姓名格式输出
	subject, body := render.ActionOverdue(render.ActionOverdueInput{
		ActionType:  a.ActionType,
		CaseID:      a.CaseID,
		DueDate:     a.DueDate,
		DaysOverdue: daysOverdue,
		Notes:       notes,
	})

	metadata, _ := json.Marshal(map[string]any{
		"bucket":       bucket,
		"days_overdue": daysOverdue,
		"action_id":    a.ActionID,
		"action_type":  a.ActionType,
	})

	if err := g.createAlert(ctx, tenantID, &domain.Alert{
		AlertID:   uuid.New().String(),
		TenantID:  tenantID,
		Kind:      domain.AlertKindActionOverdue,
		Priority:  priority,
		CaseID:    a.CaseID,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Status:    domain.AlertStatusPending,
		DedupeKey: dedupeKey,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}); err != nil {
		return 0, err
	}

	return 1, nil
}

// generateFollowupAlerts 随访逾期通知
func (g *Generator) generateFollowupAlerts(ctx context.Context, tenantID, recipient string, now time.Time) (int, error) {
	cases, err := g.cases.ListFollowupDueCases(ctx, tenantID, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list followup due cases: %w", err)
	}

	created := 0
	for _, c := range cases {
		n, err := g.evaluateFollowup(ctx, tenantID, recipient, c, now)
		if err != nil {
			g.logger.Error("Failed to evaluate followup",
				zap.String("tenant_id", tenantID),
				zap.String("case_id", c.CaseID),
				zap.Error(err),
			)
			continue
		}
		created += n
	}

	return created, nil
}

// evaluateFollowup 评估单个随访逾期案件
func (g *Generator) evaluateFollowup(ctx context.Context, tenantID, recipient string, c *domain.Case, now time.Time) (int, error) {
	if c.NextFollowupAt == nil {
		return 0, nil
	}

	daysOverdue := int(now.Sub(*c.NextFollowupAt).Hours() / 24)
	if daysOverdue < 1 {
		return 0, nil
	}

	bucket, priority, alertable := escalation.ClassifyAction(daysOverdue)
	if !alertable {
		return 0, nil
	}

	dedupeKey := escalation.FollowupKey(c.CaseID, bucket)
	exists, err := g.ledger.Exists(ctx, tenantID, dedupeKey)
	if err != nil {
		return 0, fmt.Errorf("ledger check failed: %w", err)
	}
	if exists {
		return 0, nil
	}

	subject, body := render.CaseNeedsAttention(render.CaseNeedsAttentionInput{
		WorkerName:     c.WorkerName,
		CaseID:         c.CaseID,
		NextFollowupAt: *c.NextFollowupAt,
		DaysOverdue:    daysOverdue,
	})

	metadata, _ := json.Marshal(map[string]any{
		"bucket":       bucket,
		"days_overdue": daysOverdue,
	})

	if err := g.createAlert(ctx, tenantID, &domain.Alert{
		AlertID:   uuid.New().String(),
		TenantID:  tenantID,
		Kind:      domain.AlertKindCaseNeedsAttention,
		Priority:  priority,
		CaseID:    c.CaseID,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Status:    domain.AlertStatusPending,
		DedupeKey: dedupeKey,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}); err != nil {
		return 0, err
	}

	return 1, nil
}

// GenerateWeeklyDigest 生成周摘要通知（每租户每 ISO 周最多一条）
// 返回是否创建了摘要。
func (g *Generator) GenerateWeeklyDigest(ctx context.Context, tenantID string) (bool, error) {
	if tenantID == "" {
		return false, fmt.Errorf("tenant_id is required")
	}

	now := time.Now()
	dedupeKey := escalation.DigestKey(tenantID, now)

	exists, err := g.ledger.Exists(ctx, tenantID, dedupeKey)
	if err != nil {
		return false, fmt.Errorf("ledger check failed: %w", err)
	}
	if exists {
		return false, nil
	}

	stats, err := g.alerts.CountAlertsByStatus(ctx, tenantID)
	if err != nil {
		return false, fmt.Errorf("failed to count alerts: %w", err)
	}

	recipient, err := g.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve recipient: %w", err)
	}

	year, week := now.ISOWeek()
	weekLabel := fmt.Sprintf("%d-%02d", year, week)

	subject, body := render.WeeklyDigest(render.DigestInput{
		WeekLabel: weekLabel,
		Pending:   stats.Pending,
		Sent:      stats.Sent,
		Failed:    stats.Failed,
		Total:     stats.Total,
	})

	metadata, _ := json.Marshal(map[string]any{
		"week":    weekLabel,
		"pending": stats.Pending,
		"sent":    stats.Sent,
		"failed":  stats.Failed,
	})

	if err := g.createAlert(ctx, tenantID, &domain.Alert{
		AlertID:   uuid.New().String(),
		TenantID:  tenantID,
		Kind:      domain.AlertKindDigest,
		Priority:  domain.AlertPriorityMedium,
		CaseID:    "",
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Status:    domain.AlertStatusPending,
		DedupeKey: dedupeKey,
		Metadata:  metadata,
		CreatedAt: now,
	}); err != nil {
		return false, err
	}

	return true, nil
}

// createAlert 写入通知记录并登记去重缓存
func (g *Generator) createAlert(ctx context.Context, tenantID string, alert *domain.Alert) error {
	if err := g.alerts.CreateAlert(ctx, tenantID, alert); err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	// 持久登记随通知记录落库；这里只登记缓存侧
	g.ledger.Record(ctx, tenantID, alert.DedupeKey)

	g.logger.Info("Alert created",
		zap.String("tenant_id", tenantID),
		zap.String("alert_id", alert.AlertID),
		zap.String("kind", alert.Kind),
		zap.String("priority", alert.Priority),
		zap.String("dedupe_key", alert.DedupeKey),
	)

	return nil
}
