package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler 调度器
// 按固定周期依次驱动生成和发送，不持有任何领域状态。
// 单实例协作式调度：同一租户的生成周期串行不重叠；多进程实例
// 跑同一调度属于部署假设之外，引擎不做防御。
// 任一阶段失败只记日志，不影响下一个调度周期。
//
// 调度器在进程启动时构造一次，由引用传入 HTTP 层（手动触发走同一实例）。
type Scheduler struct {
	generator     *Generator
	sender        *Sender
	tenantID      string
	pollInterval  time.Duration
	sendBatchSize int
	digestEnabled bool
	logger        *zap.Logger
}

// NewScheduler 创建调度器
func NewScheduler(
	generator *Generator,
	sender *Sender,
	tenantID string,
	pollInterval time.Duration,
	sendBatchSize int,
	digestEnabled bool,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		generator:     generator,
		sender:        sender,
		tenantID:      tenantID,
		pollInterval:  pollInterval,
		sendBatchSize: sendBatchSize,
		digestEnabled: digestEnabled,
		logger:        logger,
	}
}

// Start 启动调度循环（阻塞直到 ctx 取消）
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Notification scheduler started",
		zap.String("tenant_id", s.tenantID),
		zap.Duration("poll_interval", s.pollInterval),
		zap.Int("send_batch_size", s.sendBatchSize),
	)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	// 启动时立即执行一轮
	s.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Notification scheduler stopped")
			return nil
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle 执行一个完整调度周期：生成 → 摘要 → 发送
// 每个阶段的失败相互隔离，也不影响后续周期。
func (s *Scheduler) RunCycle(ctx context.Context) {
	if _, err := s.RunGenerate(ctx); err != nil {
		s.logger.Error("Generation cycle failed",
			zap.String("tenant_id", s.tenantID),
			zap.Error(err),
		)
	}

	if s.digestEnabled {
		if _, err := s.generator.GenerateWeeklyDigest(ctx, s.tenantID); err != nil {
			s.logger.Error("Digest generation failed",
				zap.String("tenant_id", s.tenantID),
				zap.Error(err),
			)
		}
	}

	if _, err := s.RunSend(ctx); err != nil {
		s.logger.Error("Send cycle failed",
			zap.String("tenant_id", s.tenantID),
			zap.Error(err),
		)
	}
}

// RunGenerate 手动触发一次生成（HTTP 控制面使用）
func (s *Scheduler) RunGenerate(ctx context.Context) (int, error) {
	return s.generator.Generate(ctx, s.tenantID)
}

// RunSend 手动触发一次发送（HTTP 控制面使用）
func (s *Scheduler) RunSend(ctx context.Context) (*SendResult, error) {
	return s.sender.Send(ctx, s.tenantID, s.sendBatchSize)
}

// TenantID 返回调度器绑定的租户
func (s *Scheduler) TenantID() string {
	return s.tenantID
}
