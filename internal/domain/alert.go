package domain

import (
	"encoding/json"
	"time"
)

// 通知类型
const (
	AlertKindCertificateExpiring = "certificate_expiring"
	AlertKindCertificateExpired  = "certificate_expired"
	AlertKindActionOverdue       = "action_overdue"
	AlertKindCaseNeedsAttention  = "case_needs_attention"
	AlertKindDigest              = "digest"
)

// 通知优先级
const (
	AlertPriorityCritical = "critical"
	AlertPriorityHigh     = "high"
	AlertPriorityMedium   = "medium"
)

// 通知投递状态
// 状态机：pending → sent | failed
// sent 不会回退到 pending；failed 为终态，仅允许操作员显式 resend（failed → pending）。
const (
	AlertStatusPending = "pending"
	AlertStatusSent    = "sent"
	AlertStatusFailed  = "failed"
)

// Alert 合规通知记录（对应 alerts 表，引擎拥有）
// 一条记录代表"该条件在该升级档位上被通知过一次"。
// 引擎从不删除记录（保留/清理是外部运维职责）。
type Alert struct {
	AlertID   string          `json:"alert_id" db:"alert_id"`
	TenantID  string          `json:"tenant_id" db:"tenant_id"`
	Kind      string          `json:"kind" db:"kind"`
	Priority  string          `json:"priority" db:"priority"`
	CaseID    string          `json:"case_id" db:"case_id"`
	Recipient string          `json:"recipient" db:"recipient"`
	Subject   string          `json:"subject" db:"subject"`
	Body      string          `json:"body" db:"body"`
	Status    string          `json:"status" db:"status"`
	DedupeKey string          `json:"dedupe_key" db:"dedupe_key"`
	MessageID *string         `json:"message_id,omitempty" db:"message_id"`
	ErrorText *string         `json:"error_text,omitempty" db:"error_text"`
	Metadata  json.RawMessage `json:"metadata" db:"metadata"` // JSONB
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty" db:"sent_at"`
}

// AlertStats 通知投递统计
type AlertStats struct {
	Pending int `json:"pending"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
}
