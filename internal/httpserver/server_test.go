package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/tokens"
	"github.com/Skotchmaster/storefront/internal/transport"
)

var testSecret = []byte("test-jwt-secret")

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	Repo   *repo.GormRepo
	Tokens *tokens.Issuer
}

type fakeSearcher struct {
	err error
}

func (f fakeSearcher) Search(_ context.Context, q string, _, _ int) (int64, []models.Product, error) {
	if f.err != nil {
		return 0, nil, f.err
	}
	return 1, []models.Product{{ID: "p1", Name: q}}, nil
}

func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to connect to in-memory db")

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb), "failed to migrate tables")
	return gdb
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	r := repo.New(InitTestDB(t))
	issuer := tokens.NewIssuer(testSecret, tokens.DefaultTTL)

	deps := &Deps{
		AuthHandler: &AuthHTTP{Svc: &service.AuthService{
			Users:  r,
			Tokens: issuer,
			Events: events.Noop{},
		}},
		ProductHandler: &ProductHTTP{Svc: &service.ProductService{
			Repo:    r,
			Events:  events.Noop{},
			Indexer: search.Noop{},
		}},
		SearchHandler: &SearchHTTP{Svc: &service.SearchService{Searcher: fakeSearcher{}}},
		Gate:          authmw.NewGate(issuer, r),
	}

	e := New(deps, logging.NewWithWriter(io.Discard, "error"), nil)
	return &testEnv{T: t, E: e, Repo: r, Tokens: issuer}
}

func (env *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	env.T.Helper()

	var rdr io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rdr = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(env.T, err)
			rdr = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) register(name, email, password string) transport.AuthResponse {
	env.T.Helper()

	rec := env.do(http.MethodPost, "/api/users/register", map[string]string{
		"name": name, "email": email, "password": password,
	}, "")
	require.Equal(env.T, http.StatusCreated, rec.Code, rec.Body.String())

	var resp transport.AuthResponse
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (env *testEnv) createWidget(token string) *models.Product {
	env.T.Helper()

	rec := env.do(http.MethodPost, "/api/users/products", map[string]any{
		"name": "Widget", "price": 10, "image": "i.png", "description": "d", "countInStock": 5,
	}, token)
	require.Equal(env.T, http.StatusCreated, rec.Code, rec.Body.String())

	var resp transport.ProductResponse
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(env.T, resp.Product)
	return resp.Product
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var m transport.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m.Message
}

func assertNoCache(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()

	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get(echo.HeaderCacheControl))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	assert.Equal(t, "0", rec.Header().Get("Expires"))
}

func TestScenario_RegisterLoginCreateDelete(t *testing.T) {
	env := newTestEnv(t)

	alice := env.register("Alice", "a@x.com", "pw1")
	assert.Equal(t, "Alice", alice.Name)
	assert.Equal(t, "a@x.com", alice.Email)
	assert.Equal(t, "User registered successfully", alice.Message)
	assert.NotEmpty(t, alice.Token)

	rec := env.do(http.MethodPost, "/api/users/login", map[string]string{"email": "a@x.com", "password": "pw1"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var login transport.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.Equal(t, alice.ID, login.ID)
	id, err := env.Tokens.Verify(login.Token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, id)

	widget := env.createWidget(login.Token)
	assert.Equal(t, alice.ID, widget.UserID)
	assert.Equal(t, "Widget", widget.Name)
	assert.Equal(t, 10.0, widget.Price)
	assert.Equal(t, 5, widget.CountInStock)

	rec = env.do(http.MethodGet, "/api/users/products/"+widget.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var public models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &public))
	assert.Equal(t, widget.ID, public.ID)
	assert.Equal(t, alice.ID, public.UserID)

	bob := env.register("Bob", "b@x.com", "pw2")
	rec = env.do(http.MethodDelete, "/api/users/products/"+widget.ID, nil, bob.Token)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "User not authorized to delete this product", messageOf(t, rec))

	_, err = env.Repo.GetProduct(context.Background(), widget.ID)
	require.NoError(t, err, "product survives a foreign delete")

	rec = env.do(http.MethodDelete, "/api/users/products/"+widget.ID, nil, login.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Product deleted successfully", messageOf(t, rec))
	assertNoCache(t, rec)

	rec = env.do(http.MethodDelete, "/api/users/products/"+widget.ID, nil, login.Token)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found", messageOf(t, rec))
}

func TestRegister_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.register("Alice", "a@x.com", "pw1")

	tests := []struct {
		name    string
		body    any
		wantMsg string
	}{
		{name: "duplicate email", body: map[string]string{"name": "A2", "email": "a@x.com", "password": "x"}, wantMsg: "Already existing user"},
		{name: "invalid email", body: map[string]string{"name": "A", "email": "nope", "password": "x"}, wantMsg: "Please add a valid email"},
		{name: "missing name", body: map[string]string{"email": "c@x.com", "password": "x"}, wantMsg: "name is required"},
		{name: "missing password", body: map[string]string{"name": "C", "email": "c@x.com"}, wantMsg: "password is required"},
		{name: "malformed json", body: `{"name":`, wantMsg: "invalid body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/users/register", tt.body, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantMsg, messageOf(t, rec))
		})
	}
}

func TestRegister_DoesNotLeakHash(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("Alice", "a@x.com", "pw1")

	rec := env.do(http.MethodGet, "/api/users/profile", nil, alice.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assertNoCache(t, rec)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, alice.ID, raw["id"])
	assert.Equal(t, "a@x.com", raw["email"])
	assert.NotContains(t, raw, "password")
	assert.NotContains(t, rec.Body.String(), "$2a$")
}

func TestLogin_InvalidIdentifiers(t *testing.T) {
	env := newTestEnv(t)
	env.register("Alice", "a@x.com", "pw1")

	for _, body := range []map[string]string{
		{"email": "a@x.com", "password": "wrong"},
		{"email": "nobody@x.com", "password": "pw1"},
		{},
	} {
		rec := env.do(http.MethodPost, "/api/users/login", body, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid identifiers", messageOf(t, rec))
	}
}

func TestGate_Responses(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("Alice", "a@x.com", "pw1")

	expired, err := tokens.NewIssuer(testSecret, tokens.DefaultTTL).
		WithClock(func() time.Time { return time.Now().Add(-31 * 24 * time.Hour) }).
		Issue(alice.ID)
	require.NoError(t, err)

	orphan, err := env.Tokens.Issue("00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)

	foreign, err := tokens.NewIssuer([]byte("other"), time.Hour).Issue(alice.ID)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantMsg string
	}{
		{name: "no token", token: "", wantMsg: "No token, access denied"},
		{name: "garbage", token: "garbage", wantMsg: "Token is invalid"},
		{name: "expired", token: expired, wantMsg: "Token is invalid"},
		{name: "other secret", token: foreign, wantMsg: "Token is invalid"},
		{name: "deleted user", token: orphan, wantMsg: "User not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, route := range []struct{ method, path string }{
				{http.MethodGet, "/api/users/profile"},
				{http.MethodGet, "/api/users/products"},
				{http.MethodPost, "/api/users/products"},
			} {
				rec := env.do(route.method, route.path, nil, tt.token)
				require.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
				assert.Equal(t, tt.wantMsg, messageOf(t, rec))
				assertNoCache(t, rec)
			}
		})
	}
}

func TestProducts_ListMine(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("Alice", "a@x.com", "pw1")
	bob := env.register("Bob", "b@x.com", "pw2")

	rec := env.do(http.MethodGet, "/api/users/products", nil, alice.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	env.createWidget(alice.Token)
	env.createWidget(alice.Token)
	env.createWidget(bob.Token)

	rec = env.do(http.MethodGet, "/api/users/products", nil, alice.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assertNoCache(t, rec)

	var mine []models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	require.Len(t, mine, 2)
	for _, p := range mine {
		assert.Equal(t, alice.ID, p.UserID)
	}
}

func TestProducts_GetUnknownIsNull(t *testing.T) {
	env := newTestEnv(t)

	for _, id := range []string{"00000000-0000-0000-0000-000000000000", "not-a-uuid"} {
		rec := env.do(http.MethodGet, "/api/users/products/"+id, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "null", string(bytes.TrimSpace(rec.Body.Bytes())))
		assertNoCache(t, rec)
	}
}

func TestProducts_Create_Validation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("Alice", "a@x.com", "pw1")

	rec := env.do(http.MethodPost, "/api/users/products", map[string]any{"name": "x", "image": "i"}, alice.Token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "description is required", messageOf(t, rec))

	rec = env.do(http.MethodPost, "/api/users/products", map[string]any{"name": "x", "image": "i", "description": "d", "price": "ten"}, alice.Token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProducts_Patch(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("Alice", "a@x.com", "pw1")
	bob := env.register("Bob", "b@x.com", "pw2")
	widget := env.createWidget(alice.Token)
	path := "/api/users/products/" + widget.ID

	rec := env.do(http.MethodPatch, path, map[string]any{"price": 50}, alice.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertNoCache(t, rec)

	var resp transport.ProductResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Product updated successfully", resp.Message)
	assert.Equal(t, 50.0, resp.Product.Price)
	assert.Equal(t, "Widget", resp.Product.Name)
	assert.Equal(t, "i.png", resp.Product.Image)
	assert.Equal(t, "d", resp.Product.Description)
	assert.Equal(t, 5, resp.Product.CountInStock)

	rec = env.do(http.MethodPatch, path, map[string]any{"countInStock": 0, "name": ""}, alice.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	stored, err := env.Repo.GetProduct(context.Background(), widget.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.CountInStock)
	assert.Equal(t, "Widget", stored.Name)
	assert.Equal(t, 50.0, stored.Price)

	rec = env.do(http.MethodPatch, path, map[string]any{"price": 1}, bob.Token)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "User not authorized to update this product", messageOf(t, rec))

	rec = env.do(http.MethodPatch, path, map[string]any{"price": -1}, alice.Token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "price must not be negative", messageOf(t, rec))

	rec = env.do(http.MethodPatch, "/api/users/products/00000000-0000-0000-0000-000000000000", map[string]any{"price": 1}, alice.Token)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found", messageOf(t, rec))

	stored, err = env.Repo.GetProduct(context.Background(), widget.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, stored.Price, "rejected patches leave the product unchanged")
	assert.Equal(t, alice.ID, stored.UserID)
}

func TestCatalog_Paginates(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("Alice", "a@x.com", "pw1")
	for i := 0; i < 3; i++ {
		env.createWidget(alice.Token)
	}

	rec := env.do(http.MethodGet, "/api/users/catalog?page=2&size=2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp transport.CatalogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, transport.PageMeta{Page: 2, Size: 2, Total: 3, TotalPages: 2, HasPrev: true, HasNext: false}, resp.Meta)
}

func TestCatalog_HugePageDoesNotWrap(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("Alice", "a@x.com", "pw1")
	env.createWidget(alice.Token)

	rec := env.do(http.MethodGet, "/api/users/catalog?page=92233720368547760&size=100", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp transport.CatalogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
	assert.EqualValues(t, 1, resp.Meta.Total)
	assert.False(t, resp.Meta.HasNext)
	assert.True(t, resp.Meta.HasPrev)
	assert.Equal(t, math.MaxInt/100, resp.Meta.Page)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/users/search?q=widget", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp transport.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp.Total)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "widget", resp.Products[0].Name)

	rec = env.do(http.MethodGet, "/api/users/search", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "q is required", messageOf(t, rec))
}

func TestSearch_BackendFailure(t *testing.T) {
	h := &SearchHTTP{Svc: &service.SearchService{Searcher: fakeSearcher{err: errors.New("es down")}}}
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.GET("/search", h.SearchProducts)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=x", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "es down")
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/users/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", messageOf(t, rec))

	rec = env.do(http.MethodGet, "/api/users/products/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "trailing slash resolves to the protected list route")
}

func TestReady_Failure(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	Register(e, &Deps{
		AuthHandler:    &AuthHTTP{},
		ProductHandler: &ProductHTTP{},
		Gate:           &authmw.Gate{},
		Ready:          func(context.Context) error { return errors.New("db down") },
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestErrorHandler_PlainError(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.GET("/boom", func(c echo.Context) error { return errors.New("secret detail") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Server error"}`, rec.Body.String())
}
