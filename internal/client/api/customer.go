package api

import "context"

// HomePageData fetches the home feed: categories, banners, recommendations.
func (c *Client) HomePageData(ctx context.Context) (*Response, error) {
	return c.Get(ctx, "/api/home/data", nil)
}

// Products lists products. params may carry categoryId, keyword, sortBy,
// page and pageSize.
func (c *Client) Products(ctx context.Context, params Params) (*Response, error) {
	return c.Get(ctx, "/api/products", params)
}

// ProductDetail fetches one product.
func (c *Client) ProductDetail(ctx context.Context, productID string) (*Response, error) {
	return c.Get(ctx, pathf("/api/products/%s", productID), nil)
}

// PlaceOrder submits an order (items, address id, remarks).
func (c *Client) PlaceOrder(ctx context.Context, orderData any) (*Response, error) {
	return c.Post(ctx, "/api/orders/place", orderData)
}

// CustomerOrders lists the signed-in customer's orders.
func (c *Client) CustomerOrders(ctx context.Context, params Params) (*Response, error) {
	return c.Get(ctx, "/api/customer/orders", params)
}

// CustomerOrderDetail fetches one of the customer's orders.
func (c *Client) CustomerOrderDetail(ctx context.Context, orderID string) (*Response, error) {
	return c.Get(ctx, pathf("/api/customer/orders/%s", orderID), nil)
}

func (c *Client) CustomerProfile(ctx context.Context) (*Response, error) {
	return c.Get(ctx, "/api/customer/profile", nil)
}

func (c *Client) UpdateCustomerProfile(ctx context.Context, profileData any) (*Response, error) {
	return c.Put(ctx, "/api/customer/profile", profileData)
}

func (c *Client) CustomerAddresses(ctx context.Context) (*Response, error) {
	return c.Get(ctx, "/api/customer/addresses", nil)
}

func (c *Client) AddCustomerAddress(ctx context.Context, addressData any) (*Response, error) {
	return c.Post(ctx, "/api/customer/addresses", addressData)
}

func (c *Client) UpdateCustomerAddress(ctx context.Context, addressID string, addressData any) (*Response, error) {
	return c.Put(ctx, pathf("/api/customer/addresses/%s", addressID), addressData)
}

func (c *Client) DeleteCustomerAddress(ctx context.Context, addressID string) (*Response, error) {
	return c.Delete(ctx, pathf("/api/customer/addresses/%s", addressID))
}

// Search runs the global search, e.g. {"keyword": "dress", "type": "product"}.
func (c *Client) Search(ctx context.Context, params Params) (*Response, error) {
	return c.Get(ctx, "/api/search", params)
}
