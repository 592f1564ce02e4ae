package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeKeyChecker 模拟 alerts 表的去重键真源
type fakeKeyChecker struct {
	keys  map[string]bool
	calls int
}

func (f *fakeKeyChecker) DedupeKeyExists(ctx context.Context, tenantID, dedupeKey string) (bool, error) {
	f.calls++
	return f.keys[tenantID+":"+dedupeKey], nil
}

func setupTestLedger(t *testing.T) (*miniredis.Miniredis, *fakeKeyChecker, *Ledger) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	checker := &fakeKeyChecker{keys: map[string]bool{}}
	l := NewLedger(redisClient, checker, "notify:ledger:", time.Hour, zap.NewNop())

	return mr, checker, l
}

func TestLedger_Exists_MissEverywhere(t *testing.T) {
	_, checker, l := setupTestLedger(t)

	exists, err := l.Exists(context.Background(), "tenant-1", "cert:case-x:3")

	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 1, checker.calls)
}

func TestLedger_Exists_DatabaseHitPopulatesCache(t *testing.T) {
	mr, checker, l := setupTestLedger(t)

	checker.keys["tenant-1:cert:case-x:3"] = true

	ctx := context.Background()

	exists, err := l.Exists(ctx, "tenant-1", "cert:case-x:3")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, checker.calls)

	// 回填后应命中缓存，不再查真源
	assert.True(t, mr.Exists("notify:ledger:tenant-1:cert:case-x:3"))

	exists, err = l.Exists(ctx, "tenant-1", "cert:case-x:3")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, checker.calls)
}

func TestLedger_RecordThenExists(t *testing.T) {
	_, checker, l := setupTestLedger(t)

	ctx := context.Background()
	l.Record(ctx, "tenant-1", "action:act-z:7")

	exists, err := l.Exists(ctx, "tenant-1", "action:act-z:7")

	require.NoError(t, err)
	assert.True(t, exists)
	// 缓存命中，真源不应被查询
	assert.Equal(t, 0, checker.calls)
}

func TestLedger_RedisDownFallsBackToDatabase(t *testing.T) {
	mr, checker, l := setupTestLedger(t)

	checker.keys["tenant-1:cert:case-y:-1"] = true
	mr.Close() // 模拟 Redis 故障

	exists, err := l.Exists(context.Background(), "tenant-1", "cert:case-y:-1")

	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, checker.calls)
}

func TestLedger_TenantIsolation(t *testing.T) {
	_, checker, l := setupTestLedger(t)

	checker.keys["tenant-1:cert:case-x:3"] = true

	exists, err := l.Exists(context.Background(), "tenant-2", "cert:case-x:3")

	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLedger_InvalidArgs(t *testing.T) {
	_, _, l := setupTestLedger(t)

	_, err := l.Exists(context.Background(), "", "cert:case-x:3")
	assert.Error(t, err)

	_, err = l.Exists(context.Background(), "tenant-1", "")
	assert.Error(t, err)
}
