package escalation

import (
	"fmt"
	"time"

	"worksafe-notify/internal/domain"
)

// 升级档位分类器：纯函数，将带符号的天数映射为（档位，优先级）。
// 同一输入永远得到同一输出；越紧急优先级单调不降。
//
// 证明到期规则族（daysUntilExpiry，负数=已过期）：
//   已过期（任意负值）→ 档位 -1，critical
//   ≤1 天            → 档位  1，critical
//   ≤3 天            → 档位  3，high
//   ≤7 天            → 档位  7，medium
//   >7 天            → 不产生通知
//
// 待办逾期规则族（daysOverdue，必须 ≥1 才触发）：
//   ≥7 天 → 档位 7，critical
//   ≥3 天 → 档位 3，high
//   ≥1 天 → 档位 1，medium
//
// 档位是粗粒度区间（不是"恰好N天"），因此一张证明从 7→3→1→过期
// 最多产生四条通知，与期间执行了多少次生成周期无关。

// ClassifyCertificate 证明到期分类
// 返回：档位、优先级、是否可通知
func ClassifyCertificate(daysUntilExpiry int) (int, string, bool) {
	switch {
	case daysUntilExpiry < 0:
		return -1, domain.AlertPriorityCritical, true
	case daysUntilExpiry <= 1:
		return 1, domain.AlertPriorityCritical, true
	case daysUntilExpiry <= 3:
		return 3, domain.AlertPriorityHigh, true
	case daysUntilExpiry <= 7:
		return 7, domain.AlertPriorityMedium, true
	default:
		return 0, "", false
	}
}

// ClassifyAction 待办逾期分类
// 返回：档位、优先级、是否可通知
func ClassifyAction(daysOverdue int) (int, string, bool) {
	switch {
	case daysOverdue >= 7:
		return 7, domain.AlertPriorityCritical, true
	case daysOverdue >= 3:
		return 3, domain.AlertPriorityHigh, true
	case daysOverdue >= 1:
		return 1, domain.AlertPriorityMedium, true
	default:
		return 0, "", false
	}
}

// ============================================
// 去重键构建
// ============================================

// CertificateKey 证明规则族去重键，如 "cert:{caseId}:3"
func CertificateKey(caseID string, bucket int) string {
	return fmt.Sprintf("cert:%s:%d", caseID, bucket)
}

// ActionKey 待办规则族去重键，如 "action:{actionId}:7"
func ActionKey(actionID string, bucket int) string {
	return fmt.Sprintf("action:%s:%d", actionID, bucket)
}

// FollowupKey 随访规则族去重键，如 "case:{caseId}:3"
func FollowupKey(caseID string, bucket int) string {
	return fmt.Sprintf("case:%s:%d", caseID, bucket)
}

// DigestKey 周摘要去重键，按 ISO 周编号，如 "digest:{tenantId}:2026-35"
// 同一租户同一 ISO 周最多一条摘要。
func DigestKey(tenantID string, at time.Time) string {
	year, week := at.ISOWeek()
	return fmt.Sprintf("digest:%s:%d-%02d", tenantID, year, week)
}
