package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// webhookResponse 投递端响应
type webhookResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

// WebhookSink 通过 HTTP webhook 投递（实际的邮件/IM 网关在投递端）
type WebhookSink struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewWebhookSink 创建 webhook 投递通道
func NewWebhookSink(webhookURL string, timeout time.Duration, logger *zap.Logger) *WebhookSink {
	client := resty.New().
		SetBaseURL(webhookURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookSink{
		httpClient: client,
		logger:     logger,
	}
}

// Deliver 投递消息到 webhook
func (s *WebhookSink) Deliver(ctx context.Context, msg Message) (*DeliveryResult, error) {
	var result webhookResponse

	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBody(msg).
		SetResult(&result).
		Post("")
	if err != nil {
		return nil, fmt.Errorf("failed to call webhook: %w", err)
	}

	if resp.IsError() {
		return &DeliveryResult{
			Success: false,
			Error:   fmt.Sprintf("webhook returned status %d", resp.StatusCode()),
		}, nil
	}

	if !result.Success {
		return &DeliveryResult{
			Success: false,
			Error:   result.Error,
		}, nil
	}

	return &DeliveryResult{
		Success:   true,
		MessageID: result.MessageID,
	}, nil
}
