package compliance

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

	"worksafe-notify/internal/domain"
)

func TestOracleClient_Evaluate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/compliance/evaluate", r.URL.Path)

		var req evaluateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tenant-1", req.TenantID)
		assert.Equal(t, "case-x", req.CaseID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"code":    2000,
			"message": "ok",
			"result": map[string]any{
				"status":            StatusCertificateExpiring,
				"days_until_expiry": 2,
				"days_since_expiry": 0,
			},
		})
	}))
	defer server.Close()

	client := NewOracleClient(server.URL, 5*time.Second, zap.NewNop())

	eval, err := client.Evaluate(context.Background(), &domain.Case{
		TenantID: "tenant-1",
		CaseID:   "case-x",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusCertificateExpiring, eval.Status)
	assert.Equal(t, 2, eval.DaysUntilExpiry)
}

func TestOracleClient_Evaluate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewOracleClient(server.URL, 5*time.Second, zap.NewNop())

	eval, err := client.Evaluate(context.Background(), &domain.Case{
		TenantID: "tenant-1",
		CaseID:   "case-x",
	})

	assert.Error(t, err)
	assert.Nil(t, eval)
	assert.Contains(t, err.Error(), "compliance service returned status 500")
}

func TestOracleClient_Evaluate_NilCase(t *testing.T) {
	client := NewOracleClient("http://localhost:0", time.Second, zap.NewNop())

	eval, err := client.Evaluate(context.Background(), nil)

	assert.Error(t, err)
	assert.Nil(t, eval)
}
