package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLogSink_AlwaysSucceeds(t *testing.T) {
	sink := NewLogSink(zap.NewNop())

	result, err := sink.Deliver(context.Background(), Message{
		To:      "hr@acme.test",
		Subject: "test subject",
		Body:    "test body",
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.MessageID, "log-")
	assert.Empty(t, result.Error)
}

func TestWebhookSink_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg Message
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		assert.Equal(t, "hr@acme.test", msg.To)
		assert.Equal(t, "subject", msg.Subject)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success":    true,
			"message_id": "wh-42",
		})
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL, 5*time.Second, zap.NewNop())

	result, err := sink.Deliver(context.Background(), Message{
		To:      "hr@acme.test",
		Subject: "subject",
		Body:    "body",
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "wh-42", result.MessageID)
}

func TestWebhookSink_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "invalid recipient",
		})
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL, 5*time.Second, zap.NewNop())

	result, err := sink.Deliver(context.Background(), Message{To: "bad"})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "invalid recipient", result.Error)
}

func TestWebhookSink_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL, 5*time.Second, zap.NewNop())

	result, err := sink.Deliver(context.Background(), Message{To: "hr@acme.test"})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "502")
}

// fakeTenantEmails 模拟租户邮箱来源
type fakeTenantEmails struct {
	emails map[string]string
}

func (f *fakeTenantEmails) GetNotifyEmail(ctx context.Context, tenantID string) (string, error) {
	return f.emails[tenantID], nil
}

func TestTenantRecipientResolver(t *testing.T) {
	resolver := NewTenantRecipientResolver(
		&fakeTenantEmails{emails: map[string]string{"tenant-1": "safety@acme.test"}},
		"fallback@worksafe.test",
		zap.NewNop(),
	)

	ctx := context.Background()

	// 租户已配置
	got, err := resolver.Resolve(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, "safety@acme.test", got)

	// 未配置 → 兜底
	got, err = resolver.Resolve(ctx, "tenant-2")
	require.NoError(t, err)
	assert.Equal(t, "fallback@worksafe.test", got)
}
