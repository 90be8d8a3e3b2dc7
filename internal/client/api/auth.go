package api

import "context"

// Credentials identify a user at login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login calls GET /auth/login. The backend reads the credentials from the
// query string.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Response, error) {
	return c.Get(ctx, "/auth/login", Params{
		"username": creds.Username,
		"password": creds.Password,
	})
}

// Register calls POST /auth/register with the new user's data,
// e.g. {"username": ..., "password": ..., "email": ...}.
func (c *Client) Register(ctx context.Context, userData any) (*Response, error) {
	return c.Post(ctx, "/auth/register", userData)
}
