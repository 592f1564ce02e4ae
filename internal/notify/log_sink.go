package notify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogSink "未配置通道"兜底投递：始终成功，内容只写本地日志。
// 用于无外部投递依赖的环境（开发、测试、演示租户）。
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink 创建日志兜底通道
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Deliver 记录消息内容并报告成功
func (s *LogSink) Deliver(ctx context.Context, msg Message) (*DeliveryResult, error) {
	messageID := "log-" + uuid.New().String()

	s.logger.Info("Notification delivered to log sink",
		zap.String("message_id", messageID),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)

	return &DeliveryResult{
		Success:   true,
		MessageID: messageID,
	}, nil
}
