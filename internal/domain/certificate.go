package domain

import "time"

// Certificate 工作能力证明（对应 certificates 表）
// 归属案件，通知引擎只通过合规 Oracle 读取，不做有效性判断。
type Certificate struct {
	CertificateID string    `json:"certificate_id" db:"certificate_id"`
	TenantID      string    `json:"tenant_id" db:"tenant_id"`
	CaseID        string    `json:"case_id" db:"case_id"`
	ValidFrom     time.Time `json:"valid_from" db:"valid_from"`
	ValidTo       time.Time `json:"valid_to" db:"valid_to"`
	Capacity      string    `json:"capacity" db:"capacity"` // full_duties, modified_duties, unfit
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
