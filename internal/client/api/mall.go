package api

import "context"

// Audit actions accepted by HandleMerchantAudit.
const (
	AuditApprove = "approve"
	AuditReject  = "reject"
)

func (c *Client) MallDashboard(ctx context.Context) (*Response, error) {
	return c.Get(ctx, "/api/mall/dashboard", nil)
}

func (c *Client) MallProfile(ctx context.Context) (*Response, error) {
	return c.Get(ctx, "/api/mall/profile", nil)
}

func (c *Client) UpdateMallProfile(ctx context.Context, data any) (*Response, error) {
	return c.Put(ctx, "/api/mall/profile", data)
}

// MallMerchants lists the merchants settled in the mall.
func (c *Client) MallMerchants(ctx context.Context, params Params) (*Response, error) {
	return c.Get(ctx, "/api/mall/merchants", params)
}

func (c *Client) MallMerchantDetail(ctx context.Context, merchantID string) (*Response, error) {
	return c.Get(ctx, pathf("/api/mall/merchants/%s", merchantID), nil)
}

// AuditMerchants lists merchant applications waiting for review.
func (c *Client) AuditMerchants(ctx context.Context, params Params) (*Response, error) {
	return c.Get(ctx, "/api/mall/merchants/audit", params)
}

// HandleMerchantAudit approves or rejects an application. action is
// AuditApprove or AuditReject and is sent as {"action": action}.
func (c *Client) HandleMerchantAudit(ctx context.Context, auditID, action string) (*Response, error) {
	return c.Post(ctx, pathf("/api/mall/merchants/audit/%s", auditID), map[string]string{"action": action})
}

func (c *Client) MallProducts(ctx context.Context, params Params) (*Response, error) {
	return c.Get(ctx, "/api/mall/products", params)
}

func (c *Client) MallOrders(ctx context.Context, params Params) (*Response, error) {
	return c.Get(ctx, "/api/mall/orders", params)
}

func (c *Client) MallOrderDetail(ctx context.Context, orderID string) (*Response, error) {
	return c.Get(ctx, pathf("/api/mall/orders/%s", orderID), nil)
}
