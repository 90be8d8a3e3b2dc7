package api

import "context"

// Users lists users for administrators, e.g.
// {"page": 1, "pageSize": 10, "role": "merchant"}.
func (c *Client) Users(ctx context.Context, params Params) (*Response, error) {
	return c.Get(ctx, "/api/admin/users", params)
}
