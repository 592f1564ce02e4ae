package domain

import "time"

// ComplianceAction 合规待办事项（对应 compliance_actions 表）
// 由案件管理子系统创建（如"催收证明"），通知引擎只读未完成且逾期的记录。
type ComplianceAction struct {
	ActionID    string     `json:"action_id" db:"action_id"`
	TenantID    string     `json:"tenant_id" db:"tenant_id"`
	CaseID      string     `json:"case_id" db:"case_id"`
	ActionType  string     `json:"action_type" db:"action_type"` // chase_certificate, review_case, contact_worker
	DueDate     time.Time  `json:"due_date" db:"due_date"`
	Notes       *string    `json:"notes,omitempty" db:"notes"`
	Completed   bool       `json:"completed" db:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}
