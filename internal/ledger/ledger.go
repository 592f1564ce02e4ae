package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// KeyChecker 去重键持久层真源（由 AlertsRepository 实现）
type KeyChecker interface {
	DedupeKeyExists(ctx context.Context, tenantID, dedupeKey string) (bool, error)
}

// Ledger 去重账本
// 持久层真源是 alerts 表的 dedupe_key 查询（键随通知记录一起落库）；
// Redis 只作正向缓存：命中即"已通知过"，未命中回落到 Postgres。
// Redis 故障降级为仅查 Postgres（记 warn，不影响正确性）。
//
// "查询-再插入"在并发生成或多实例部署下存在竞态窗口，可能产生重复通知；
// 单实例调度假设下接受该风险，不做临时加锁。
type Ledger struct {
	redisClient *redis.Client
	checker     KeyChecker
	keyPrefix   string
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewLedger 创建去重账本
func NewLedger(redisClient *redis.Client, checker KeyChecker, keyPrefix string, cacheTTL time.Duration, logger *zap.Logger) *Ledger {
	return &Ledger{
		redisClient: redisClient,
		checker:     checker,
		keyPrefix:   keyPrefix,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// cacheKey 构建缓存键，如 "notify:ledger:{tenantId}:cert:{caseId}:3"
func (l *Ledger) cacheKey(tenantID, dedupeKey string) string {
	return fmt.Sprintf("%s%s:%s", l.keyPrefix, tenantID, dedupeKey)
}

// Exists 检查该去重键是否已有通知记录
func (l *Ledger) Exists(ctx context.Context, tenantID, dedupeKey string) (bool, error) {
	if tenantID == "" {
		return false, fmt.Errorf("tenant_id is required")
	}
	if dedupeKey == "" {
		return false, fmt.Errorf("dedupe_key is required")
	}

	// 1. 先查 Redis 正向缓存
	if l.redisClient != nil {
		count, err := l.redisClient.Exists(ctx, l.cacheKey(tenantID, dedupeKey)).Result()
		if err != nil {
			l.logger.Warn("Ledger cache lookup failed, falling back to database",
				zap.String("dedupe_key", dedupeKey),
				zap.Error(err),
			)
		} else if count > 0 {
			return true, nil
		}
	}

	// 2. 回落到 Postgres（真源）
	exists, err := l.checker.DedupeKeyExists(ctx, tenantID, dedupeKey)
	if err != nil {
		return false, fmt.Errorf("failed to check ledger: %w", err)
	}

	// 3. 真源命中时回填缓存
	if exists {
		l.cache(ctx, tenantID, dedupeKey)
	}

	return exists, nil
}

// Record 登记去重键的正向缓存
// 持久登记由通知记录本身承担（dedupe_key 列），这里只是缓存侧的加速。
func (l *Ledger) Record(ctx context.Context, tenantID, dedupeKey string) {
	if tenantID == "" || dedupeKey == "" {
		return
	}
	l.cache(ctx, tenantID, dedupeKey)
}

// cache 写入正向缓存（尽力而为）
func (l *Ledger) cache(ctx context.Context, tenantID, dedupeKey string) {
	if l.redisClient == nil {
		return
	}
	if err := l.redisClient.Set(ctx, l.cacheKey(tenantID, dedupeKey), "1", l.cacheTTL).Err(); err != nil {
		l.logger.Warn("Failed to cache ledger key",
			zap.String("dedupe_key", dedupeKey),
			zap.Error(err),
		)
	}
}
