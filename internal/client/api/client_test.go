package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	body   string
	header http.Header
}

func newRecordingServer(t *testing.T, status int, body string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rec.method = r.Method
		rec.path = r.URL.EscapedPath()
		rec.query = r.URL.RawQuery
		rec.body = string(b)
		rec.header = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"empty", "", true},
		{"no scheme", "localhost:8080", true},
		{"bad url", "http://[::1", true},
		{"ok", "http://localhost:8080", false},
		{"trailing slash trimmed", "http://localhost:8080/", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.baseURL)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "http://localhost:8080", c.BaseURL())
		})
	}
}

func TestWithHTTPClient_LeavesCallerClientAlone(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}
	rt := http.DefaultTransport

	c, err := NewClient("http://localhost:8080",
		WithHTTPClient(shared),
		WithTimeout(3*time.Second),
		WithTransport(rt))
	require.NoError(t, err)

	assert.Equal(t, time.Minute, shared.Timeout)
	assert.Nil(t, shared.Transport)
	assert.Equal(t, 3*time.Second, c.httpClient.Timeout)
	assert.Equal(t, rt, c.httpClient.Transport)

	assert.NotPanics(t, func() {
		c, err = NewClient("http://localhost:8080", WithHTTPClient(nil), WithTimeout(time.Second))
	})
	require.NoError(t, err)
	assert.Equal(t, time.Second, c.httpClient.Timeout)
}

func TestClient_Endpoints(t *testing.T) {
	ctx := context.Background()
	page := Params{"page": 2, "pageSize": 10}

	tests := []struct {
		name   string
		call   func(c *Client) (*Response, error)
		method string
		path   string
		query  string
		body   string
	}{
		{"Login", func(c *Client) (*Response, error) {
			return c.Login(ctx, Credentials{Username: "amy", Password: "pw"})
		}, http.MethodGet, "/auth/login", "password=pw&username=amy", ""},
		{"Register", func(c *Client) (*Response, error) {
			return c.Register(ctx, map[string]string{"username": "amy"})
		}, http.MethodPost, "/auth/register", "", `{"username":"amy"}`},

		{"HomePageData", func(c *Client) (*Response, error) { return c.HomePageData(ctx) },
			http.MethodGet, "/api/home/data", "", ""},
		{"Products", func(c *Client) (*Response, error) {
			return c.Products(ctx, Params{"keyword": "apple", "page": 1, "categoryId": nil})
		}, http.MethodGet, "/api/products", "keyword=apple&page=1", ""},
		{"ProductDetail", func(c *Client) (*Response, error) { return c.ProductDetail(ctx, "p/1") },
			http.MethodGet, "/api/products/p%2F1", "", ""},
		{"PlaceOrder", func(c *Client) (*Response, error) {
			return c.PlaceOrder(ctx, map[string]string{"addressId": "a1"})
		}, http.MethodPost, "/api/orders/place", "", `{"addressId":"a1"}`},
		{"CustomerOrders", func(c *Client) (*Response, error) { return c.CustomerOrders(ctx, page) },
			http.MethodGet, "/api/customer/orders", "page=2&pageSize=10", ""},
		{"CustomerOrderDetail", func(c *Client) (*Response, error) { return c.CustomerOrderDetail(ctx, "o1") },
			http.MethodGet, "/api/customer/orders/o1", "", ""},
		{"CustomerProfile", func(c *Client) (*Response, error) { return c.CustomerProfile(ctx) },
			http.MethodGet, "/api/customer/profile", "", ""},
		{"UpdateCustomerProfile", func(c *Client) (*Response, error) {
			return c.UpdateCustomerProfile(ctx, map[string]string{"nickname": "A"})
		}, http.MethodPut, "/api/customer/profile", "", `{"nickname":"A"}`},
		{"CustomerAddresses", func(c *Client) (*Response, error) { return c.CustomerAddresses(ctx) },
			http.MethodGet, "/api/customer/addresses", "", ""},
		{"AddCustomerAddress", func(c *Client) (*Response, error) {
			return c.AddCustomerAddress(ctx, map[string]string{"city": "X"})
		}, http.MethodPost, "/api/customer/addresses", "", `{"city":"X"}`},
		{"UpdateCustomerAddress", func(c *Client) (*Response, error) {
			return c.UpdateCustomerAddress(ctx, "a1", map[string]string{"city": "Y"})
		}, http.MethodPut, "/api/customer/addresses/a1", "", `{"city":"Y"}`},
		{"DeleteCustomerAddress", func(c *Client) (*Response, error) { return c.DeleteCustomerAddress(ctx, "a1") },
			http.MethodDelete, "/api/customer/addresses/a1", "", ""},
		{"Search", func(c *Client) (*Response, error) {
			return c.Search(ctx, Params{"keyword": "dress", "type": "product"})
		}, http.MethodGet, "/api/search", "keyword=dress&type=product", ""},

		{"MallDashboard", func(c *Client) (*Response, error) { return c.MallDashboard(ctx) },
			http.MethodGet, "/api/mall/dashboard", "", ""},
		{"MallProfile", func(c *Client) (*Response, error) { return c.MallProfile(ctx) },
			http.MethodGet, "/api/mall/profile", "", ""},
		{"UpdateMallProfile", func(c *Client) (*Response, error) {
			return c.UpdateMallProfile(ctx, map[string]string{"name": "M"})
		}, http.MethodPut, "/api/mall/profile", "", `{"name":"M"}`},
		{"MallMerchants", func(c *Client) (*Response, error) { return c.MallMerchants(ctx, page) },
			http.MethodGet, "/api/mall/merchants", "page=2&pageSize=10", ""},
		{"MallMerchantDetail", func(c *Client) (*Response, error) { return c.MallMerchantDetail(ctx, "m1") },
			http.MethodGet, "/api/mall/merchants/m1", "", ""},
		{"AuditMerchants", func(c *Client) (*Response, error) { return c.AuditMerchants(ctx, page) },
			http.MethodGet, "/api/mall/merchants/audit", "page=2&pageSize=10", ""},
		{"HandleMerchantAudit", func(c *Client) (*Response, error) {
			return c.HandleMerchantAudit(ctx, "au1", AuditApprove)
		}, http.MethodPost, "/api/mall/merchants/audit/au1", "", `{"action":"approve"}`},
		{"MallProducts", func(c *Client) (*Response, error) { return c.MallProducts(ctx, page) },
			http.MethodGet, "/api/mall/products", "page=2&pageSize=10", ""},
		{"MallOrders", func(c *Client) (*Response, error) { return c.MallOrders(ctx, page) },
			http.MethodGet, "/api/mall/orders", "page=2&pageSize=10", ""},
		{"MallOrderDetail", func(c *Client) (*Response, error) { return c.MallOrderDetail(ctx, "o9") },
			http.MethodGet, "/api/mall/orders/o9", "", ""},

		{"UserMerchants", func(c *Client) (*Response, error) { return c.UserMerchants(ctx) },
			http.MethodGet, "/api/user/merchants", "", ""},
		{"CreateMerchant", func(c *Client) (*Response, error) {
			return c.CreateMerchant(ctx, map[string]string{"name": "Shop"})
		}, http.MethodPost, "/api/merchants", "", `{"name":"Shop"}`},
		{"MerchantDashboard", func(c *Client) (*Response, error) { return c.MerchantDashboard(ctx, "m1") },
			http.MethodGet, "/api/merchants/m1/dashboard", "", ""},
		{"MerchantProfile", func(c *Client) (*Response, error) { return c.MerchantProfile(ctx, "m1") },
			http.MethodGet, "/api/merchants/m1/profile", "", ""},
		{"UpdateMerchantProfile", func(c *Client) (*Response, error) {
			return c.UpdateMerchantProfile(ctx, "m1", map[string]string{"name": "S"})
		}, http.MethodPut, "/api/merchants/m1/profile", "", `{"name":"S"}`},
		{"MerchantProducts", func(c *Client) (*Response, error) { return c.MerchantProducts(ctx, "m1", page) },
			http.MethodGet, "/api/merchants/m1/products", "page=2&pageSize=10", ""},
		{"CreateProduct", func(c *Client) (*Response, error) {
			return c.CreateProduct(ctx, "m1", map[string]string{"name": "Tea"})
		}, http.MethodPost, "/api/merchants/m1/products", "", `{"name":"Tea"}`},
		{"UpdateProduct", func(c *Client) (*Response, error) {
			return c.UpdateProduct(ctx, "p1", map[string]int{"stock": 3})
		}, http.MethodPut, "/api/products/p1", "", `{"stock":3}`},
		{"DeleteProduct", func(c *Client) (*Response, error) { return c.DeleteProduct(ctx, "p1") },
			http.MethodDelete, "/api/products/p1", "", ""},
		{"MerchantOrders", func(c *Client) (*Response, error) { return c.MerchantOrders(ctx, "m1", page) },
			http.MethodGet, "/api/merchants/m1/orders", "page=2&pageSize=10", ""},
		{"OrderDetail", func(c *Client) (*Response, error) { return c.OrderDetail(ctx, "o1") },
			http.MethodGet, "/api/orders/o1", "", ""},
		{"UpdateOrderStatus", func(c *Client) (*Response, error) {
			return c.UpdateOrderStatus(ctx, "o1", map[string]string{"status": "shipped"})
		}, http.MethodPost, "/api/orders/o1/status", "", `{"status":"shipped"}`},
		{"MallAssociation", func(c *Client) (*Response, error) { return c.MallAssociation(ctx, "m1") },
			http.MethodGet, "/api/merchants/m1/mall-association", "", ""},
		{"ApplyToMall", func(c *Client) (*Response, error) {
			return c.ApplyToMall(ctx, "m1", map[string]string{"mallId": "mall001"})
		}, http.MethodPost, "/api/merchants/m1/mall-applications", "", `{"mallId":"mall001"}`},

		{"Users", func(c *Client) (*Response, error) {
			return c.Users(ctx, Params{"role": "merchant"})
		}, http.MethodGet, "/api/admin/users", "role=merchant", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, rec := newRecordingServer(t, http.StatusOK, `{"code":0,"data":{}}`)
			c, err := NewClient(srv.URL)
			require.NoError(t, err)

			resp, err := tt.call(c)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			assert.Equal(t, tt.method, rec.method)
			assert.Equal(t, tt.path, rec.path)
			assert.Equal(t, tt.query, rec.query)
			if tt.body == "" {
				assert.Empty(t, rec.body)
				assert.Empty(t, rec.header.Get("Content-Type"))
			} else {
				assert.JSONEq(t, tt.body, rec.body)
				assert.Equal(t, "application/json", rec.header.Get("Content-Type"))
			}
		})
	}
}

func TestClient_Headers(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK, `{}`)

	t.Run("bearer token and request id", func(t *testing.T) {
		c, err := NewClient(srv.URL, WithTokenSource(staticToken("tok-1")), WithHeader("X-Client", "gophmall"))
		require.NoError(t, err)
		_, err = c.HomePageData(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "Bearer tok-1", rec.header.Get("Authorization"))
		assert.Equal(t, "gophmall", rec.header.Get("X-Client"))
		assert.Equal(t, "application/json", rec.header.Get("Accept"))
		assert.Len(t, rec.header.Get(RequestIDHeader), 36)
	})

	t.Run("empty token sends no authorization", func(t *testing.T) {
		c, err := NewClient(srv.URL)
		require.NoError(t, err)
		c.SetTokenSource(staticToken(""))
		_, err = c.HomePageData(context.Background())
		require.NoError(t, err)
		assert.Empty(t, rec.header.Get("Authorization"))
	})
}

func TestClient_NonSuccessStatusIsNotAnError(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusNotFound, `{"code":404,"message":"no such product"}`)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	resp, err := c.ProductDetail(context.Background(), "nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, resp.OK())
	assert.Equal(t, "no such product", resp.JSON().Get("message").String())
}

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestClient_TransportError(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c, err := NewClient("http://example.com",
		WithTransport(roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("network down")
		})),
		WithLogger(zap.New(core)),
	)
	require.NoError(t, err)

	_, err = c.HomePageData(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTransport))
	assert.Contains(t, err.Error(), "network down")
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
}

func TestClient_UnmarshalableBody(t *testing.T) {
	c, err := NewClient("http://example.com")
	require.NoError(t, err)
	_, err = c.PlaceOrder(context.Background(), make(chan int))
	assert.True(t, IsKind(err, KindTransport))
}

func TestClient_RateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithRateLimit(1, 1))
	require.NoError(t, err)

	_, err = c.HomePageData(context.Background())
	require.NoError(t, err)

	// the bucket is empty now, so a tight deadline cannot be met
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.HomePageData(ctx)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTransport))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_StubbedEndpoints(t *testing.T) {
	c, err := NewClient("http://example.com",
		WithTransport(roundTripperFunc(func(*http.Request) (*http.Response, error) {
			t.Fatal("stubbed endpoint must not reach the network")
			return nil, nil
		})),
	)
	require.NoError(t, err)

	for name, call := range map[string]func() (*Response, error){
		"MerchantPromotions": func() (*Response, error) { return c.MerchantPromotions(context.Background(), "m1", nil) },
		"MerchantAnalytics":  func() (*Response, error) { return c.MerchantAnalytics(context.Background(), "m1", nil) },
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := call()
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, ErrNotImplemented)
			assert.True(t, IsKind(err, KindUnimplemented))
		})
	}
}

func TestParams_Encode(t *testing.T) {
	assert.Equal(t, "", Params(nil).Encode())
	assert.Equal(t, "a=1&b=x+y&c=true", Params{"c": true, "b": "x y", "a": 1}.Encode())
}
