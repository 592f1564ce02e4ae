package notify

import (
	"context"

	"go.uber.org/zap"
)

// RecipientResolver 收件人解析接口
// 当前实现是"每租户一个通知地址"；真实的订阅者/管理员分发留给后续版本，
// 只需要替换这个实现。
type RecipientResolver interface {
	Resolve(ctx context.Context, tenantID string) (string, error)
}

// TenantEmailSource 租户通知邮箱来源（由 TenantsRepository 实现）
type TenantEmailSource interface {
	GetNotifyEmail(ctx context.Context, tenantID string) (string, error)
}

// TenantRecipientResolver 按租户配置解析收件人，未配置时回落到默认地址
type TenantRecipientResolver struct {
	tenants          TenantEmailSource
	defaultRecipient string
	logger           *zap.Logger
}

// NewTenantRecipientResolver 创建租户收件人解析器
func NewTenantRecipientResolver(tenants TenantEmailSource, defaultRecipient string, logger *zap.Logger) *TenantRecipientResolver {
	return &TenantRecipientResolver{
		tenants:          tenants,
		defaultRecipient: defaultRecipient,
		logger:           logger,
	}
}

// Resolve 解析租户的通知收件人
func (r *TenantRecipientResolver) Resolve(ctx context.Context, tenantID string) (string, error) {
	email, err := r.tenants.GetNotifyEmail(ctx, tenantID)
	if err != nil {
		return "", err
	}

	if email == "" {
		r.logger.Debug("Tenant has no notify email configured, using default recipient",
			zap.String("tenant_id", tenantID),
		)
		return r.defaultRecipient, nil
	}

	return email, nil
}
