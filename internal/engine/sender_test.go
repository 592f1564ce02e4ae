package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"worksafe-notify/internal/domain"
	"worksafe-notify/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSink 可编程投递假件：按 subject 控制单条结果
type fakeSink struct {
	rejectSubjects map[string]string // subject → error text
	deliverErr     error
	delivered      []notify.Message
}

func (f *fakeSink) Deliver(ctx context.Context, msg notify.Message) (*notify.DeliveryResult, error) {
	if f.deliverErr != nil {
		return nil, f.deliverErr
	}
	if errText, ok := f.rejectSubjects[msg.Subject]; ok {
		return &notify.DeliveryResult{Success: false, Error: errText}, nil
	}
	f.delivered = append(f.delivered, msg)
	return &notify.DeliveryResult{
		Success:   true,
		MessageID: fmt.Sprintf("msg-%d", len(f.delivered)),
	}, nil
}

func pendingAlert(alertID, subject string) *domain.Alert {
	return &domain.Alert{
		AlertID:   alertID,
		TenantID:  "tenant-1",
		Kind:      domain.AlertKindCertificateExpiring,
		Priority:  domain.AlertPriorityHigh,
		CaseID:    "case-x",
		Recipient: "safety@acme.test",
		Subject:   subject,
		Body:      "body",
		Status:    domain.AlertStatusPending,
		DedupeKey: "cert:case-x:" + alertID,
	}
}

func TestSender_SendBatch(t *testing.T) {
	store := &fakeAlertStore{alerts: []*domain.Alert{
		pendingAlert("a1", "subject-1"),
		pendingAlert("a2", "subject-2"),
	}}
	sink := &fakeSink{}
	sender := NewSender(store, sink, zap.NewNop())

	result, err := sender.Send(context.Background(), "tenant-1", 50)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 0, result.Failed)

	for _, a := range store.alerts {
		assert.Equal(t, domain.AlertStatusSent, a.Status)
		require.NotNil(t, a.MessageID)
		require.NotNil(t, a.SentAt)
	}
	assert.Len(t, sink.delivered, 2)
}

func TestSender_FailureDoesNotBlockBatch(t *testing.T) {
	store := &fakeAlertStore{alerts: []*domain.Alert{
		pendingAlert("a1", "subject-1"),
		pendingAlert("a2", "subject-bad"),
		pendingAlert("a3", "subject-3"),
	}}
	sink := &fakeSink{rejectSubjects: map[string]string{"subject-bad": "mailbox full"}}
	sender := NewSender(store, sink, zap.NewNop())

	result, err := sender.Send(context.Background(), "tenant-1", 50)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 1, result.Failed)

	assert.Equal(t, domain.AlertStatusSent, store.alerts[0].Status)
	assert.Equal(t, domain.AlertStatusFailed, store.alerts[1].Status)
	require.NotNil(t, store.alerts[1].ErrorText)
	assert.Equal(t, "mailbox full", *store.alerts[1].ErrorText)
	assert.Equal(t, domain.AlertStatusSent, store.alerts[2].Status)
}

func TestSender_SinkErrorMarksFailed(t *testing.T) {
	store := &fakeAlertStore{alerts: []*domain.Alert{pendingAlert("a1", "subject-1")}}
	sink := &fakeSink{deliverErr: errors.New("webhook unreachable")}
	sender := NewSender(store, sink, zap.NewNop())

	result, err := sender.Send(context.Background(), "tenant-1", 50)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 1, result.Failed)
	require.NotNil(t, store.alerts[0].ErrorText)
	assert.Contains(t, *store.alerts[0].ErrorText, "unreachable")
}

func TestSender_FailedIsTerminal(t *testing.T) {
	store := &fakeAlertStore{alerts: []*domain.Alert{pendingAlert("a1", "subject-bad")}}
	sink := &fakeSink{rejectSubjects: map[string]string{"subject-bad": "rejected"}}
	sender := NewSender(store, sink, zap.NewNop())

	_, err := sender.Send(context.Background(), "tenant-1", 50)
	require.NoError(t, err)
	assert.Equal(t, domain.AlertStatusFailed, store.alerts[0].Status)

	// failed 不在 pending 批次中，后续轮次不会自动重试
	result, err := sender.Send(context.Background(), "tenant-1", 50)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, domain.AlertStatusFailed, store.alerts[0].Status)
}

func TestSender_BatchSizeLimit(t *testing.T) {
	store := &fakeAlertStore{}
	for i := 0; i < 5; i++ {
		store.alerts = append(store.alerts, pendingAlert(fmt.Sprintf("a%d", i), fmt.Sprintf("subject-%d", i)))
	}
	sink := &fakeSink{}
	sender := NewSender(store, sink, zap.NewNop())

	result, err := sender.Send(context.Background(), "tenant-1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Sent)

	// 剩余两条留给下一轮
	result, err = sender.Send(context.Background(), "tenant-1", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)
}

func TestSender_EmptyTenantRejected(t *testing.T) {
	sender := NewSender(&fakeAlertStore{}, &fakeSink{}, zap.NewNop())
	_, err := sender.Send(context.Background(), "", 50)
	require.Error(t, err)
}
