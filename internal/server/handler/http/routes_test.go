package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/atinyakov/GophMall/internal/middleware"
	"github.com/atinyakov/GophMall/internal/models"
	"github.com/atinyakov/GophMall/internal/repository"
	"github.com/atinyakov/GophMall/internal/service"
)

func newTestRouter(t *testing.T) (http.Handler, *service.Service) {
	t.Helper()
	auth := service.NewAuthService(repository.NewMemoryUserRepository(), "test-secret", time.Hour)
	require.NoError(t, auth.Seed(context.Background(), service.DefaultSeedUsers))
	shop := service.NewShopService(repository.DefaultCatalog(), repository.NewMemoryOrderRepository())

	logger := zap.NewNop()
	return NewRouter(
		&AuthHandler{AuthService: auth, Logger: logger},
		&ShopHandler{ShopService: shop, Logger: logger},
		auth,
		middleware.NewMetrics(prometheus.NewRegistry()),
		logger,
	), auth
}

func do(t *testing.T, h http.Handler, method, target, token string, body any) (int, gjson.Result) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code, gjson.ParseBytes(rec.Body.Bytes())
}

func login(t *testing.T, h http.Handler, username, password string) string {
	t.Helper()
	code, body := do(t, h, http.MethodGet, "/auth/login?username="+username+"&password="+password, "", nil)
	require.Equal(t, http.StatusOK, code, body.Raw)
	return body.Get("data.token").String()
}

func TestRouter_Login(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		name        string
		query       string
		wantStatus  int
		wantCode    int64
		wantMessage string
	}{
		{name: "success", query: "username=customer&password=customer123", wantStatus: http.StatusOK},
		{name: "wrong password", query: "username=customer&password=nope", wantStatus: http.StatusUnauthorized, wantCode: 401, wantMessage: service.ErrInvalidCredentials.Error()},
		{name: "unknown user", query: "username=ghost&password=x", wantStatus: http.StatusUnauthorized, wantCode: 401},
		{name: "missing fields", query: "username=customer", wantStatus: http.StatusBadRequest, wantCode: 400, wantMessage: "username and password are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, h, http.MethodGet, "/auth/login?"+tt.query, "", nil)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, body.Get("code").Int())
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, body.Get("message").String())
			}
			if tt.wantStatus == http.StatusOK {
				assert.NotEmpty(t, body.Get("data.token").String())
				assert.Equal(t, "u-customer", body.Get("data.user.id").String())
				assert.Equal(t, "customer", body.Get("data.user.role").String())
				assert.False(t, body.Get("data.user.PasswordHash").Exists())
			} else {
				assert.Equal(t, gjson.Null, body.Get("data").Type)
			}
		})
	}
}

func TestRouter_Register(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{name: "new customer", body: RegisterRequest{Username: "dana", Password: "pw"}, wantStatus: http.StatusOK},
		{name: "taken", body: RegisterRequest{Username: "customer", Password: "pw"}, wantStatus: http.StatusConflict},
		{name: "admin refused", body: RegisterRequest{Username: "eve", Password: "pw", Role: models.RoleAdmin}, wantStatus: http.StatusBadRequest},
		{name: "missing password", body: RegisterRequest{Username: "fay"}, wantStatus: http.StatusBadRequest},
		{name: "not json", body: "just a string", wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, h, http.MethodPost, "/auth/register", "", tt.body)
			assert.Equal(t, tt.wantStatus, status, body.Raw)
			if status == http.StatusOK {
				assert.Equal(t, int64(0), body.Get("code").Int())
				assert.NotEmpty(t, body.Get("data.token").String())
				assert.Equal(t, models.RoleCustomer, body.Get("data.user.role").String())
			}
		})
	}
}

func TestRouter_ContentType(t *testing.T) {
	h, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(`username=a`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRouter_Catalog(t *testing.T) {
	h, _ := newTestRouter(t)

	status, body := do(t, h, http.MethodGet, "/api/home/data", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, body.Get("data.categories").IsArray())

	status, body = do(t, h, http.MethodGet, "/api/products?categoryId=tea&page=1&pageSize=1", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(2), body.Get("data.total").Int())
	assert.Len(t, body.Get("data.list").Array(), 1)
	assert.Equal(t, "p1001", body.Get("data.list.0.productId").String())

	status, body = do(t, h, http.MethodGet, "/api/products/p1002", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "18", body.Get("data.price").String())
	assert.Equal(t, int64(5), body.Get("data.stock").Int())

	status, body = do(t, h, http.MethodGet, "/api/products/zzz", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, int64(404), body.Get("code").Int())
}

func TestRouter_ProtectedRoutesNeedToken(t *testing.T) {
	h, _ := newTestRouter(t)
	for _, target := range []string{"/api/user/merchants", "/api/customer/orders", "/api/customer/profile"} {
		status, body := do(t, h, http.MethodGet, target, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, target)
		assert.Equal(t, int64(401), body.Get("code").Int())

		status, _ = do(t, h, http.MethodGet, target, "forged", nil)
		assert.Equal(t, http.StatusUnauthorized, status, target)
	}
}

func TestRouter_UserMerchants(t *testing.T) {
	h, _ := newTestRouter(t)

	status, body := do(t, h, http.MethodGet, "/api/user/merchants", login(t, h, "merchant", "merchant123"), nil)
	require.Equal(t, http.StatusOK, status)
	list := body.Get("data").Array()
	require.Len(t, list, 2)
	assert.Equal(t, "m1", list[0].Get("id").String())

	status, body = do(t, h, http.MethodGet, "/api/user/merchants", login(t, h, "customer", "customer123"), nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, body.Get("data").IsArray())
	assert.Empty(t, body.Get("data").Array())
}

func TestRouter_Orders(t *testing.T) {
	h, _ := newTestRouter(t)
	token := login(t, h, "customer", "customer123")

	status, body := do(t, h, http.MethodPost, "/api/orders/place", token, service.PlaceOrderRequest{
		AddressID: "home",
		Items:     []service.OrderItem{{ProductID: "p2001", Quantity: 1}},
	})
	require.Equal(t, http.StatusOK, status, body.Raw)
	id := body.Get("data.id").String()
	assert.Equal(t, "39.99", body.Get("data.total").String())
	assert.Equal(t, "pending", body.Get("data.status").String())

	status, body = do(t, h, http.MethodPost, "/api/orders/place", token, service.PlaceOrderRequest{AddressID: "home"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "order has no items", body.Get("message").String())

	status, body = do(t, h, http.MethodGet, "/api/customer/orders?status=pending", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body.Get("data").Array(), 1)

	status, body = do(t, h, http.MethodGet, "/api/customer/orders?status=shipped", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body.Get("data").Array())

	status, body = do(t, h, http.MethodGet, "/api/customer/orders/"+id, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "home", body.Get("data.addressId").String())

	other := login(t, h, "merchant", "merchant123")
	status, _ = do(t, h, http.MethodGet, "/api/customer/orders/"+id, other, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRouter_Profile(t *testing.T) {
	h, _ := newTestRouter(t)
	token := login(t, h, "customer", "customer123")

	status, body := do(t, h, http.MethodPut, "/api/customer/profile", token, map[string]string{"nickname": "Cat"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Cat", body.Get("data.nickname").String())

	status, body = do(t, h, http.MethodGet, "/api/customer/profile", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Cat", body.Get("data.nickname").String())

	status, _ = do(t, h, http.MethodPut, "/api/customer/profile", token, map[string]string{"nickname": ""})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRouter_Metrics(t *testing.T) {
	h, _ := newTestRouter(t)
	do(t, h, http.MethodGet, "/api/home/data", "", nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/api/home/data"`)
}

type failingAuth struct{ AuthService }

func (failingAuth) Profile(context.Context, string) (*models.User, error) {
	return nil, errors.New("connection reset")
}

func TestAuthHandler_InternalError(t *testing.T) {
	h := &AuthHandler{AuthService: failingAuth{}, Logger: zap.NewNop()}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/customer/profile", nil)
	req = req.WithContext(middleware.WithClaims(req.Context(), &service.Claims{UserID: "u"}))
	h.Profile(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := gjson.ParseBytes(rec.Body.Bytes())
	assert.Equal(t, "internal error", body.Get("message").String())
	assert.NotContains(t, rec.Body.String(), "connection reset")
}
