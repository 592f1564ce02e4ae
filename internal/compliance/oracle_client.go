package compliance

import (
	"context"
	"fmt"
	"time"

	"worksafe-notify/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// evaluateRequest 合规服务评估请求
type evaluateRequest struct {
	TenantID string `json:"tenant_id"`
	CaseID   string `json:"case_id"`
}

// evaluateResponse 合规服务评估响应
type evaluateResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Result  *Evaluation `json:"result"`
}

// OracleClient 合规服务 HTTP 客户端（实现 Oracle 接口）
type OracleClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewOracleClient 创建合规服务客户端
func NewOracleClient(baseURL string, timeout time.Duration, logger *zap.Logger) *OracleClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &OracleClient{
		httpClient: client,
		logger:     logger,
	}
}

// Evaluate 评估单个案件的合规状态
func (c *OracleClient) Evaluate(ctx context.Context, caseRecord *domain.Case) (*Evaluation, error) {
	if caseRecord == nil {
		return nil, fmt.Errorf("case is required")
	}

	var result evaluateResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(evaluateRequest{
			TenantID: caseRecord.TenantID,
			CaseID:   caseRecord.CaseID,
		}).
		SetResult(&result).
		Post("/compliance/evaluate")
	if err != nil {
		return nil, fmt.Errorf("failed to call compliance service: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("compliance service returned status %d: %s", resp.StatusCode(), resp.String())
	}

	if result.Result == nil {
		return nil, fmt.Errorf("compliance service returned empty result: %s", result.Message)
	}

	c.logger.Debug("Compliance evaluation",
		zap.String("case_id", caseRecord.CaseID),
		zap.String("status", result.Result.Status),
		zap.Int("days_until_expiry", result.Result.DaysUntilExpiry),
	)

	return result.Result, nil
}
