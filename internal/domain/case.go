package domain

import "time"

// Case 工伤合规案件（对应 cases 表）
// 案件由案件管理子系统拥有，通知引擎只读。
type Case struct {
	CaseID              string     `json:"case_id" db:"case_id"`
	TenantID            string     `json:"tenant_id" db:"tenant_id"`
	WorkerName          string     `json:"worker_name" db:"worker_name"`
	WorkStatus          string     `json:"work_status" db:"work_status"`             // full_duties, modified_duties, off_work
	EmploymentStatus    string     `json:"employment_status" db:"employment_status"` // employed, terminated
	InjuryDate          *time.Time `json:"injury_date,omitempty" db:"injury_date"`
	LastFollowupAt      *time.Time `json:"last_followup_at,omitempty" db:"last_followup_at"`
	NextFollowupAt      *time.Time `json:"next_followup_at,omitempty" db:"next_followup_at"`
	ComplianceIndicator string     `json:"compliance_indicator" db:"compliance_indicator"` // 案件子系统缓存的合规指示（展示用，引擎不依赖）
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}
