package notify

import "context"

// Message 待投递消息
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// DeliveryResult 投递结果
// Success=false 表示通道明确拒绝（Error 含原因）；传输层错误通过 error 返回。
type DeliveryResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Sink 投递通道接口（邮件、webhook 等，可插拔）
type Sink interface {
	Deliver(ctx context.Context, msg Message) (*DeliveryResult, error)
}
