package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"worksafe-notify/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestScheduler(f *generatorFixture, sink *fakeSink, digestEnabled bool) *Scheduler {
	sender := NewSender(f.store, sink, zap.NewNop())
	return NewScheduler(f.gen, sender, "tenant-1", time.Minute, 50, digestEnabled, zap.NewNop())
}

func TestScheduler_RunCycleGeneratesAndSends(t *testing.T) {
	f := newGeneratorFixture()
	f.cases.cases = []*domain.Case{testCase("case-x")}
	f.oracle.evals["case-x"] = expiringEval(3)
	sink := &fakeSink{}

	sched := newTestScheduler(f, sink, false)
	sched.RunCycle(context.Background())

	require.Len(t, f.store.alerts, 1)
	assert.Equal(t, domain.AlertStatusSent, f.store.alerts[0].Status)
	assert.Len(t, sink.delivered, 1)
}

func TestScheduler_GenerateFailureDoesNotBlockSend(t *testing.T) {
	f := newGeneratorFixture()
	// 生成阶段失败（案件列表不可用），但已有 pending 仍要发送
	f.cases.listErr = errors.New("db connection lost")
	f.store.alerts = []*domain.Alert{pendingAlert("a1", "subject-1")}
	sink := &fakeSink{}

	sched := newTestScheduler(f, sink, false)
	sched.RunCycle(context.Background())

	assert.Equal(t, domain.AlertStatusSent, f.store.alerts[0].Status)
}

func TestScheduler_DigestInCycle(t *testing.T) {
	f := newGeneratorFixture()
	sink := &fakeSink{}

	sched := newTestScheduler(f, sink, true)
	sched.RunCycle(context.Background())
	// 同周期内摘要也进入发送批次
	require.Len(t, f.store.alerts, 1)
	assert.Equal(t, domain.AlertKindDigest, f.store.alerts[0].Kind)
	assert.Equal(t, domain.AlertStatusSent, f.store.alerts[0].Status)

	// 下一周期同周不重复
	sched.RunCycle(context.Background())
	assert.Len(t, f.store.alerts, 1)
}

func TestScheduler_StartStopsOnContextCancel(t *testing.T) {
	f := newGeneratorFixture()
	sched := newTestScheduler(f, &fakeSink{}, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- sched.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after context cancel")
	}
}

func TestScheduler_ManualTriggers(t *testing.T) {
	f := newGeneratorFixture()
	f.cases.cases = []*domain.Case{testCase("case-x")}
	f.oracle.evals["case-x"] = expiredEval(3)
	sink := &fakeSink{}
	sched := newTestScheduler(f, sink, false)

	created, err := sched.RunGenerate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	result, err := sched.RunSend(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)

	assert.Equal(t, "tenant-1", sched.TenantID())
}
