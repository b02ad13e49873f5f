package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/vendorverse/api/middleware"
	"github.com/angelmondragon/vendorverse/internal/cart"
	"github.com/angelmondragon/vendorverse/internal/catalog"
	"github.com/angelmondragon/vendorverse/internal/session"
	"github.com/angelmondragon/vendorverse/internal/slot"
	"github.com/angelmondragon/vendorverse/internal/storefront"
	pkgAuth "github.com/angelmondragon/vendorverse/pkg/auth"
	"github.com/angelmondragon/vendorverse/pkg/config"
	pkgerrors "github.com/angelmondragon/vendorverse/pkg/errors"
	"github.com/angelmondragon/vendorverse/pkg/logger"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type harness struct {
	t       *testing.T
	router  chi.Router
	catalog *catalog.Catalog
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	mgr, err := storefront.NewManager(storefront.ManagerParams{
		Slot:     slot.NewMemory(),
		Registry: session.NewMemoryRegistry(session.DefaultUsers()...),
		Catalog:  cat,
	})
	require.NoError(t, err)

	logg := logger.Nop()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if id := req.Header.Get("X-Test-Client"); id != "" {
				req = req.WithContext(middleware.WithClientID(req.Context(), id))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Post("/auth/login", AuthLogin(mgr, logg))
	r.Post("/auth/register", AuthRegister(mgr, logg))
	r.Post("/auth/logout", AuthLogout(mgr, logg))
	r.Get("/auth/me", AuthMe(mgr, logg))
	r.Get("/cart", CartFetch(mgr, logg))
	r.Delete("/cart", CartClear(mgr, logg))
	r.Post("/cart/items", CartAddItem(mgr, logg))
	r.Patch("/cart/items/{productID}", CartUpdateItem(mgr, logg))
	r.Delete("/cart/items/{productID}", CartRemoveItem(mgr, logg))
	r.Get("/products", ProductsList(cat, logg))
	r.Get("/products/featured", ProductsFeatured(cat, 4, logg))
	r.Get("/products/{productID}", ProductGet(cat, logg))
	r.Get("/categories", CategoriesList(cat, logg))
	return &harness{t: t, router: r, catalog: cat}
}

func (h *harness) do(method, target, clientID string, body any) (*httptest.ResponseRecorder, envelope) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if clientID != "" {
		req.Header.Set("X-Test-Client", clientID)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func (h *harness) login(clientID, email string) {
	h.t.Helper()
	w, _ := h.do(http.MethodPost, "/auth/login", clientID, map[string]string{"email": email, "password": "password"})
	require.Equal(h.t, http.StatusOK, w.Code)
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestClientIssue(t *testing.T) {
	cfg := config.ClientTokenConfig{Secret: "test-secret", Issuer: "vendorverse", ExpirationMinutes: 60}
	w := httptest.NewRecorder()
	ClientIssue(cfg, logger.Nop()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/client", nil))

	require.Equal(t, http.StatusCreated, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	resp := decodeData[ClientTokenResponse](t, env)

	assert.NotEmpty(t, resp.ClientID)
	assert.Equal(t, resp.Token, w.Header().Get(middleware.ClientTokenHeader))
	require.NotNil(t, resp.ExpiresAt)

	claims, err := pkgAuth.ParseClientToken(cfg, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.ClientID, claims.ClientID())
}

func TestAuthLoginAndMe(t *testing.T) {
	h := newHarness(t)

	_, env := h.do(http.MethodGet, "/auth/me", "c1", nil)
	me := decodeData[SessionResponse](t, env)
	assert.False(t, me.Authenticated)
	assert.Nil(t, me.User)

	w, env := h.do(http.MethodPost, "/auth/login", "c1", map[string]string{"email": "customer@example.com", "password": "password"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decodeData[SessionResponse](t, env)
	require.True(t, login.Authenticated)
	assert.Equal(t, "3", login.User.ID)
	assert.Equal(t, "customer", login.User.Role)

	_, env = h.do(http.MethodGet, "/auth/me", "c1", nil)
	me = decodeData[SessionResponse](t, env)
	require.True(t, me.Authenticated)
	assert.Equal(t, "Jane Doe", me.User.Name)

	_, env = h.do(http.MethodGet, "/auth/me", "c2", nil)
	assert.False(t, decodeData[SessionResponse](t, env).Authenticated)
}

func TestAuthLoginRejections(t *testing.T) {
	h := newHarness(t)

	w, env := h.do(http.MethodPost, "/auth/login", "c1", map[string]string{"email": "customer@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, string(pkgerrors.CodeInvalidCredentials), env.Error.Code)

	w, env = h.do(http.MethodPost, "/auth/login", "c1", map[string]string{"password": "password"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), env.Error.Code)

	w, env = h.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "customer@example.com", "password": "password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, string(pkgerrors.CodeUnauthorized), env.Error.Code)
}

func TestAuthRegister(t *testing.T) {
	h := newHarness(t)
	base := map[string]string{
		"email":            "shop@example.com",
		"password":         "secret",
		"confirm_password": "secret",
		"name":             "Shop Owner",
		"role":             "merchant",
		"store_name":       "Gadget Barn",
	}
	with := func(key, value string) map[string]string {
		out := make(map[string]string, len(base))
		for k, v := range base {
			out[k] = v
		}
		if value == "" {
			delete(out, key)
		} else {
			out[key] = value
		}
		return out
	}

	cases := []struct {
		name  string
		body  map[string]string
		field string
	}{
		{name: "password mismatch", body: with("confirm_password", "other"), field: "confirm_password"},
		{name: "admin role", body: with("role", "admin"), field: "role"},
		{name: "merchant without store", body: with("store_name", ""), field: "store_name"},
		{name: "bad email", body: with("email", "not-an-email"), field: "email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, env := h.do(http.MethodPost, "/auth/register", "c1", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, string(pkgerrors.CodeValidation), env.Error.Code)
			assert.Contains(t, env.Error.Details, tc.field)
		})
	}

	w, env := h.do(http.MethodPost, "/auth/register", "c1", base)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeData[SessionResponse](t, env)
	require.True(t, created.Authenticated)
	assert.Equal(t, "merchant", created.User.Role)
	require.NotNil(t, created.User.IsApproved)
	assert.False(t, *created.User.IsApproved)
	require.NotNil(t, created.User.StoreName)
	assert.Equal(t, "Gadget Barn", *created.User.StoreName)

	w, env = h.do(http.MethodPost, "/auth/register", "c2", base)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(pkgerrors.CodeDuplicateEmail), env.Error.Code)

	w, _ = h.do(http.MethodPost, "/auth/login", "c3", map[string]string{"email": "shop@example.com", "password": "password"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthLogoutKeepsCart(t *testing.T) {
	h := newHarness(t)
	h.login("c1", "customer@example.com")

	w, _ := h.do(http.MethodPost, "/cart/items", "c1", map[string]any{"product_id": "3"})
	require.Equal(t, http.StatusOK, w.Code)

	w, env := h.do(http.MethodPost, "/auth/logout", "c1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeData[SessionResponse](t, env).Authenticated)

	_, env = h.do(http.MethodGet, "/cart", "c1", nil)
	assert.Equal(t, 1, decodeData[CartResponse](t, env).ItemCount)
}

func TestCartFlow(t *testing.T) {
	h := newHarness(t)

	w, env := h.do(http.MethodPost, "/cart/items", "c1", map[string]any{"product_id": "3"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "sign in to add items to cart", env.Error.Message)

	h.login("c1", "customer@example.com")

	w, env = h.do(http.MethodPost, "/cart/items", "c1", map[string]any{"product_id": "3", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)
	w, env = h.do(http.MethodPost, "/cart/items", "c1", map[string]any{"product_id": "3"})
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeData[CartResponse](t, env)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.ItemCount)
	assert.Equal(t, "89.97", got.Subtotal)
	assert.Equal(t, "29.99", got.Items[0].UnitPrice)
	assert.Equal(t, "89.97", got.Items[0].LineTotal)

	w, env = h.do(http.MethodPost, "/cart/items", "c1", map[string]any{"product_id": "1", "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)
	got = decodeData[CartResponse](t, env)
	assert.Equal(t, 4, got.ItemCount)
	assert.Equal(t, "289.96", got.Subtotal)
	assert.Equal(t, "Tech Haven", got.Items[1].MerchantName)

	w, env = h.do(http.MethodPatch, "/cart/items/3", "c1", map[string]any{"quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "229.98", decodeData[CartResponse](t, env).Subtotal)

	w, env = h.do(http.MethodPatch, "/cart/items/3", "c1", map[string]any{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	got = decodeData[CartResponse](t, env)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "1", got.Items[0].ProductID)

	w, env = h.do(http.MethodDelete, "/cart/items/1", "c1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeData[CartResponse](t, env).Items)

	h.do(http.MethodPost, "/cart/items", "c1", map[string]any{"product_id": "5"})
	w, env = h.do(http.MethodDelete, "/cart", "c1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got = decodeData[CartResponse](t, env)
	assert.Empty(t, got.Items)
	assert.Equal(t, "0.00", got.Subtotal)
}

func TestCartAddRejections(t *testing.T) {
	h := newHarness(t)
	h.login("c1", "customer@example.com")

	cases := []struct {
		name   string
		body   map[string]any
		status int
		code   pkgerrors.Code
	}{
		{name: "zero quantity", body: map[string]any{"product_id": "3", "quantity": 0}, status: http.StatusBadRequest, code: pkgerrors.CodeInvalidQuantity},
		{name: "negative quantity", body: map[string]any{"product_id": "3", "quantity": -2}, status: http.StatusBadRequest, code: pkgerrors.CodeInvalidQuantity},
		{name: "unknown product", body: map[string]any{"product_id": "404"}, status: http.StatusNotFound, code: pkgerrors.CodeNotFound},
		{name: "out of stock", body: map[string]any{"product_id": "4"}, status: http.StatusConflict, code: pkgerrors.CodeConflict},
		{name: "missing product", body: map[string]any{"quantity": 1}, status: http.StatusBadRequest, code: pkgerrors.CodeValidation},
		{name: "above line cap", body: map[string]any{"product_id": "3", "quantity": 1000}, status: http.StatusBadRequest, code: pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, env := h.do(http.MethodPost, "/cart/items", "c1", tc.body)
			assert.Equal(t, tc.status, w.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, string(tc.code), env.Error.Code)
		})
	}

	_, env := h.do(http.MethodGet, "/cart", "c1", nil)
	assert.Empty(t, decodeData[CartResponse](t, env).Items)
}

func TestCartMergeCannotExceedCap(t *testing.T) {
	h := newHarness(t)
	h.login("c1", "customer@example.com")

	w, _ := h.do(http.MethodPost, "/cart/items", "c1", map[string]any{"product_id": "3", "quantity": cart.MaxQuantity})
	require.Equal(t, http.StatusOK, w.Code)

	w, env := h.do(http.MethodPost, "/cart/items", "c1", map[string]any{"product_id": "3", "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(pkgerrors.CodeInvalidQuantity), env.Error.Code)

	w, env = h.do(http.MethodPatch, "/cart/items/3", "c1", map[string]any{"quantity": cart.MaxQuantity + 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), env.Error.Code)

	_, env = h.do(http.MethodGet, "/cart", "c1", nil)
	assert.Equal(t, cart.MaxQuantity, decodeData[CartResponse](t, env).ItemCount)
}

func TestCartAdminForbidden(t *testing.T) {
	h := newHarness(t)
	h.login("c1", "admin@vendorverse.com")

	w, env := h.do(http.MethodPost, "/cart/items", "c1", map[string]any{"product_id": "3"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "admins cannot add items to cart", env.Error.Message)
}

func TestCartUpdateRequiresQuantity(t *testing.T) {
	h := newHarness(t)
	w, env := h.do(http.MethodPatch, "/cart/items/3", "c1", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), env.Error.Code)
}

func TestProductsList(t *testing.T) {
	h := newHarness(t)

	w, env := h.do(http.MethodGet, "/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decodeData[ProductListResponse](t, env)
	assert.Len(t, all.Products, len(h.catalog.Products()))
	assert.Empty(t, all.NextCursor)

	_, env = h.do(http.MethodGet, "/products?category=Electronics", "", nil)
	electronics := decodeData[ProductListResponse](t, env).Products
	ids := make([]string, 0, len(electronics))
	for _, p := range electronics {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"1", "2", "8"}, ids)

	_, env = h.do(http.MethodGet, "/products?merchant=tech%20haven&max_price=100", "", nil)
	cheap := decodeData[ProductListResponse](t, env).Products
	require.Len(t, cheap, 1)
	assert.Equal(t, "8", cheap[0].ID)
	assert.Equal(t, "9.99", cheap[0].Price)

	w, env = h.do(http.MethodGet, "/products?min_price=50&max_price=10", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), env.Error.Code)

	w, _ = h.do(http.MethodGet, "/products?rating=9", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductsListPages(t *testing.T) {
	h := newHarness(t)

	_, env := h.do(http.MethodGet, "/products?limit=5", "", nil)
	first := decodeData[ProductListResponse](t, env)
	require.Len(t, first.Products, 5)
	require.NotEmpty(t, first.NextCursor)

	_, env = h.do(http.MethodGet, "/products?limit=5&cursor="+first.NextCursor, "", nil)
	second := decodeData[ProductListResponse](t, env)
	require.Len(t, second.Products, 3)
	assert.Empty(t, second.NextCursor)
	assert.Equal(t, "6", second.Products[0].ID)

	w, env := h.do(http.MethodGet, "/products?category=Books&cursor="+first.NextCursor, "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), env.Error.Code)
}

func TestProductsFeaturedAndGet(t *testing.T) {
	h := newHarness(t)

	_, env := h.do(http.MethodGet, "/products/featured", "", nil)
	assert.Len(t, decodeData[[]ProductResponse](t, env), 4)

	_, env = h.do(http.MethodGet, "/products/featured?limit=2", "", nil)
	assert.Len(t, decodeData[[]ProductResponse](t, env), 2)

	w, env := h.do(http.MethodGet, "/products/2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	product := decodeData[ProductResponse](t, env)
	assert.True(t, product.InStock)
	assert.True(t, product.LowStock)

	_, env = h.do(http.MethodGet, "/products/4", "", nil)
	product = decodeData[ProductResponse](t, env)
	assert.False(t, product.InStock)
	assert.False(t, product.LowStock)

	w, _ = h.do(http.MethodGet, "/products/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, env = h.do(http.MethodGet, "/categories", "", nil)
	assert.Len(t, decodeData[[]catalog.Category](t, env), 6)
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	w := httptest.NewRecorder()
	HealthReady(cfg, logger.Nop(), map[string]Pinger{"slot": ok}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", w.Header().Get(envHeader))

	w = httptest.NewRecorder()
	HealthReady(cfg, logger.Nop(), map[string]Pinger{"slot": ok, "redis": down}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
