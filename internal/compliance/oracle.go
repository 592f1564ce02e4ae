package compliance

import (
	"context"

	"worksafe-notify/internal/domain"
)

// 合规状态（由外部合规服务计算，引擎只消费）
const (
	StatusCompliant           = "compliant"
	StatusCertificateExpiring = "certificate_expiring"
	StatusCertificateExpired  = "certificate_expired"
	StatusNoCertificate       = "no_certificate"
)

// Evaluation 单个案件的合规评估结果
type Evaluation struct {
	Status            string              `json:"status"`
	DaysUntilExpiry   int                 `json:"days_until_expiry"`
	DaysSinceExpiry   int                 `json:"days_since_expiry"`
	ActiveCertificate *domain.Certificate `json:"active_certificate,omitempty"`
	NewestCertificate *domain.Certificate `json:"newest_certificate,omitempty"`
}

// Oracle 合规状态评估接口
// 证明有效性的判定算法在外部合规服务中，引擎不自行计算。
type Oracle interface {
	Evaluate(ctx context.Context, c *domain.Case) (*Evaluation, error)
}
