package engine

import (
	"context"
	"fmt"

	"worksafe-notify/internal/domain"
	"worksafe-notify/internal/notify"

	"go.uber.org/zap"
)

// SendResult 一轮发送的结果
type SendResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Sender 通知发送器
// 按批量取出 pending 通知（最早优先）逐条投递；每条投递独立，
// 单条失败标记 failed 后继续发送后续通知。failed 不自动重试。
type Sender struct {
	alerts AlertStore
	sink   notify.Sink
	logger *zap.Logger
}

// NewSender 创建通知发送器
func NewSender(alerts AlertStore, sink notify.Sink, logger *zap.Logger) *Sender {
	return &Sender{
		alerts: alerts,
		sink:   sink,
		logger: logger,
	}
}

// Send 发送租户的待发通知，最多 batchSize 条
// 批量获取失败作为运行级错误返回；单条投递失败只影响该条。
func (s *Sender) Send(ctx context.Context, tenantID string, batchSize int) (*SendResult, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	pending, err := s.alerts.ListPendingAlerts(ctx, tenantID, batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending alerts: %w", err)
	}

	result := &SendResult{}

	for _, alert := range pending {
		if s.deliverOne(ctx, tenantID, alert) {
			result.Sent++
		} else {
			result.Failed++
		}
	}

	if len(pending) > 0 {
		s.logger.Info("Alert send batch completed",
			zap.String("tenant_id", tenantID),
			zap.Int("sent", result.Sent),
			zap.Int("failed", result.Failed),
		)
	}

	return result, nil
}

// deliverOne 投递单条通知，返回是否成功
func (s *Sender) deliverOne(ctx context.Context, tenantID string, alert *domain.Alert) bool {
	res, err := s.sink.Deliver(ctx, notify.Message{
		To:      alert.Recipient,
		Subject: alert.Subject,
		Body:    alert.Body,
	})

	var errorText string
	switch {
	case err != nil:
		errorText = err.Error()
	case res == nil:
		errorText = "sink returned no result"
	case !res.Success:
		errorText = res.Error
		if errorText == "" {
			errorText = "delivery rejected"
		}
	}

	if errorText != "" {
		s.logger.Error("Alert delivery failed",
			zap.String("tenant_id", tenantID),
			zap.String("alert_id", alert.AlertID),
			zap.String("error_text", errorText),
		)
		if err := s.alerts.MarkAlertFailed(ctx, tenantID, alert.AlertID, errorText); err != nil {
			s.logger.Error("Failed to mark alert failed",
				zap.String("alert_id", alert.AlertID),
				zap.Error(err),
			)
		}
		return false
	}

	if err := s.alerts.MarkAlertSent(ctx, tenantID, alert.AlertID, res.MessageID); err != nil {
		// 投递已成功但状态更新失败：记日志，不回滚投递
		s.logger.Error("Failed to mark alert sent",
			zap.String("alert_id", alert.AlertID),
			zap.Error(err),
		)
	}

	s.logger.Debug("Alert delivered",
		zap.String("tenant_id", tenantID),
		zap.String("alert_id", alert.AlertID),
		zap.String("message_id", res.MessageID),
	)

	return true
}
