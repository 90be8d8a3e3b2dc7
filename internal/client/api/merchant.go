package api

import (
	"context"

	"go.uber.org/zap"
)

// UserMerchants lists the merchants the signed-in user manages.
func (c *Client) UserMerchants(ctx context.Context) (*Response, error) {
	return c.Get(ctx, "/api/user/merchants", nil)
}

// CreateMerchant creates a merchant owned by the signed-in user.
func (c *Client) CreateMerchant(ctx context.Context, data any) (*Response, error) {
	return c.Post(ctx, "/api/merchants", data)
}

func (c *Client) MerchantDashboard(ctx context.Context, merchantID string) (*Response, error) {
	return c.Get(ctx, pathf("/api/merchants/%s/dashboard", merchantID), nil)
}

func (c *Client) MerchantProfile(ctx context.Context, merchantID string) (*Response, error) {
	return c.Get(ctx, pathf("/api/merchants/%s/profile", merchantID), nil)
}

func (c *Client) UpdateMerchantProfile(ctx context.Context, merchantID string, data any) (*Response, error) {
	return c.Put(ctx, pathf("/api/merchants/%s/profile", merchantID), data)
}

func (c *Client) MerchantProducts(ctx context.Context, merchantID string, params Params) (*Response, error) {
	return c.Get(ctx, pathf("/api/merchants/%s/products", merchantID), params)
}

func (c *Client) CreateProduct(ctx context.Context, merchantID string, data any) (*Response, error) {
	return c.Post(ctx, pathf("/api/merchants/%s/products", merchantID), data)
}

func (c *Client) UpdateProduct(ctx context.Context, productID string, data any) (*Response, error) {
	return c.Put(ctx, pathf("/api/products/%s", productID), data)
}

func (c *Client) DeleteProduct(ctx context.Context, productID string) (*Response, error) {
	return c.Delete(ctx, pathf("/api/products/%s", productID))
}

func (c *Client) MerchantOrders(ctx context.Context, merchantID string, params Params) (*Response, error) {
	return c.Get(ctx, pathf("/api/merchants/%s/orders", merchantID), params)
}

// OrderDetail fetches an order as seen by the merchant handling it.
func (c *Client) OrderDetail(ctx context.Context, orderID string) (*Response, error) {
	return c.Get(ctx, pathf("/api/orders/%s", orderID), nil)
}

// UpdateOrderStatus moves an order along, e.g.
// {"status": "shipped", "trackingNumber": "SF123"}.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, data any) (*Response, error) {
	return c.Post(ctx, pathf("/api/orders/%s/status", orderID), data)
}

// MallAssociation reports whether the merchant belongs to a mall.
func (c *Client) MallAssociation(ctx context.Context, merchantID string) (*Response, error) {
	return c.Get(ctx, pathf("/api/merchants/%s/mall-association", merchantID), nil)
}

// ApplyToMall submits an application to join a mall, e.g.
// {"mallId": "mall001", "applicationReason": "..."}.
func (c *Client) ApplyToMall(ctx context.Context, merchantID string, data any) (*Response, error) {
	return c.Post(ctx, pathf("/api/merchants/%s/mall-applications", merchantID), data)
}

// MerchantPromotions has no backing endpoint yet. It always fails with
// ErrNotImplemented and never touches the network.
func (c *Client) MerchantPromotions(ctx context.Context, merchantID string, params Params) (*Response, error) {
	c.logger.Warn("API function is defined but not implemented",
		zap.String("function", "MerchantPromotions"),
		zap.String("merchant_id", merchantID),
	)
	return nil, unimplemented("MerchantPromotions")
}

// MerchantAnalytics has no backing endpoint yet. It always fails with
// ErrNotImplemented and never touches the network.
func (c *Client) MerchantAnalytics(ctx context.Context, merchantID string, params Params) (*Response, error) {
	c.logger.Warn("API function is defined but not implemented",
		zap.String("function", "MerchantAnalytics"),
		zap.String("merchant_id", merchantID),
	)
	return nil, unimplemented("MerchantAnalytics")
}
