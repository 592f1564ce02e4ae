package render

import (
	"fmt"
	"strings"
	"time"
)

// 每种通知类型一个强类型渲染函数，输入结构化字段，输出 (subject, body)。
// 不做字符串占位符替换，未解析占位符不可能泄漏到用户可见文本。
// 渲染不会失败：缺失字段以空值渲染，由调用方保证输入完整。

const dateLayout = "2006-01-02"

// CertificateExpiringInput 证明即将到期通知输入
type CertificateExpiringInput struct {
	WorkerName      string
	CaseID          string
	Capacity        string
	ExpiryDate      time.Time
	DaysUntilExpiry int
}

// CertificateExpiring 渲染证明即将到期通知
func CertificateExpiring(in CertificateExpiringInput) (string, string) {
	subject := fmt.Sprintf("[WorkSafe] Certificate for %s expires in %d day(s)", in.WorkerName, in.DaysUntilExpiry)

	var b strings.Builder
	fmt.Fprintf(&b, "The work capacity certificate for %s (case %s) expires on %s.\n",
		in.WorkerName, in.CaseID, in.ExpiryDate.Format(dateLayout))
	if in.Capacity != "" {
		fmt.Fprintf(&b, "Current certified capacity: %s.\n", in.Capacity)
	}
	fmt.Fprintf(&b, "A renewed certificate is required within %d day(s) to stay compliant.\n", in.DaysUntilExpiry)

	return subject, b.String()
}

// CertificateExpiredInput 证明已过期通知输入
type CertificateExpiredInput struct {
	WorkerName      string
	CaseID          string
	ExpiryDate      time.Time
	DaysSinceExpiry int
}

// CertificateExpired 渲染证明已过期通知
func CertificateExpired(in CertificateExpiredInput) (string, string) {
	subject := fmt.Sprintf("[WorkSafe] Certificate for %s expired %d day(s) ago", in.WorkerName, in.DaysSinceExpiry)

	var b strings.Builder
	fmt.Fprintf(&b, "The work capacity certificate for %s (case %s) expired on %s.\n",
		in.WorkerName, in.CaseID, in.ExpiryDate.Format(dateLayout))
	fmt.Fprintf(&b, "The case has been non-compliant for %d day(s). Obtain a current certificate immediately.\n",
		in.DaysSinceExpiry)

	return subject, b.String()
}

// ActionOverdueInput 待办逾期通知输入
type ActionOverdueInput struct {
	ActionType  string
	WorkerName  string
	CaseID      string
	DueDate     time.Time
	DaysOverdue int
	Notes       string
}

// ActionOverdue 渲染待办逾期通知（WorkerName 可为空）
func ActionOverdue(in ActionOverdueInput) (string, string) {
	subject := fmt.Sprintf("[WorkSafe] Action %q on case %s overdue by %d day(s)", in.ActionType, in.CaseID, in.DaysOverdue)

	var b strings.Builder
	caseRef := in.CaseID
	if in.WorkerName != "" {
		caseRef = fmt.Sprintf("%s (%s)", in.CaseID, in.WorkerName)
	}
	fmt.Fprintf(&b, "The action %q on case %s was due on %s and is now %d day(s) overdue.\n",
		in.ActionType, caseRef, in.DueDate.Format(dateLayout), in.DaysOverdue)
	if in.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", in.Notes)
	}

	return subject, b.String()
}

// CaseNeedsAttentionInput 案件需要关注通知输入
type CaseNeedsAttentionInput struct {
	WorkerName     string
	CaseID         string
	NextFollowupAt time.Time
	DaysOverdue    int
}

// CaseNeedsAttention 渲染案件随访逾期通知
func CaseNeedsAttention(in CaseNeedsAttentionInput) (string, string) {
	subject := fmt.Sprintf("[WorkSafe] Case %s needs attention — follow-up overdue", in.CaseID)

	var b strings.Builder
	fmt.Fprintf(&b, "The scheduled follow-up for %s (case %s) was due on %s and is %d day(s) overdue.\n",
		in.WorkerName, in.CaseID, in.NextFollowupAt.Format(dateLayout), in.DaysOverdue)

	return subject, b.String()
}

// DigestInput 周摘要通知输入
type DigestInput struct {
	WeekLabel string // 如 "2026-35"
	Pending   int
	Sent      int
	Failed    int
	Total     int
}

// WeeklyDigest 渲染周摘要通知
func WeeklyDigest(in DigestInput) (string, string) {
	subject := fmt.Sprintf("[WorkSafe] Weekly compliance digest (%s)", in.WeekLabel)

	var b strings.Builder
	fmt.Fprintf(&b, "Compliance notification summary for week %s:\n", in.WeekLabel)
	fmt.Fprintf(&b, "  pending: %d\n", in.Pending)
	fmt.Fprintf(&b, "  sent:    %d\n", in.Sent)
	fmt.Fprintf(&b, "  failed:  %d\n", in.Failed)
	fmt.Fprintf(&b, "  total:   %d\n", in.Total)
	if in.Failed > 0 {
		b.WriteString("There are failed deliveries; review them and resend as needed.\n")
	}

	return subject, b.String()
}
