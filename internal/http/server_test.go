package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"boutique/internal/auth"
	"boutique/internal/core"
	"boutique/internal/export"
	"boutique/internal/log"
	"boutique/internal/middleware/ratelimit"
	"boutique/internal/middleware/trace"
	"boutique/internal/services"
	"boutique/internal/storage"
	"boutique/internal/storage/memory"
	"boutique/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	ownerEmail = "owner@navyata.com"
	staffEmail = "staff@navyata.com"
)

type testEnv struct {
	srv   *Server
	store *store.Store
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func newAuthService(t *testing.T) *auth.Service {
	t.Helper()
	hash := func(pw string) string {
		h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
		require.NoError(t, err)
		return string(h)
	}
	accounts, err := auth.NewAccounts(ownerEmail, []auth.Account{
		{Email: ownerEmail, PasswordHash: hash("owner-pw")},
		{Email: staffEmail, PasswordHash: hash("staff-pw")},
	})
	require.NoError(t, err)
	return auth.NewService(accounts, "test-secret-test-secret-test-sec", time.Hour, nil)
}

func newTestEnv(t *testing.T, repo storage.Repository, opts Options) *testEnv {
	t.Helper()
	if repo == nil {
		repo = memory.New()
	}
	logger := quietLogger()
	cache := store.New(logger)
	require.NoError(t, cache.Load(context.Background(), repo))
	records := services.NewRecordService(repo, cache, nil, logger)
	srv := NewServer(opts, records, cache, newAuthService(t), logger)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, store: cache}
}

func (e *testEnv) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) login(t *testing.T, role, email, password string) *http.Cookie {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/auth/login",
		`{"role":"`+role+`","email":"`+email+`","password":"`+password+`"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, nil, Options{})

	rr := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(trace.RequestIDHeader))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	rr = env.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ready", decodeBody[map[string]any](t, rr)["status"])
}

func TestLoginRedirectsByRole(t *testing.T) {
	env := newTestEnv(t, nil, Options{})

	tests := []struct {
		role, email, password string
		wantCode              int
		wantRedirect          string
	}{
		{"owner", ownerEmail, "owner-pw", http.StatusOK, "/"},
		{"staff", staffEmail, "staff-pw", http.StatusOK, "/tailoring"},
		{"staff", "", "staff-pw", http.StatusOK, "/tailoring"},
		{"owner", ownerEmail, "wrong", http.StatusUnauthorized, ""},
		{"owner", staffEmail, "staff-pw", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.email+"/"+tt.password, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/auth/login",
				`{"role":"`+tt.role+`","email":"`+tt.email+`","password":"`+tt.password+`"}`, nil)
			require.Equal(t, tt.wantCode, rr.Code, rr.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}
			body := decodeBody[loginView](t, rr)
			assert.Equal(t, tt.wantRedirect, body.Redirect)
			assert.Equal(t, auth.Role(tt.role), body.User.Role)
		})
	}
}

func TestRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	for _, path := range []string{"/", "/sales", "/expenses", "/tailoring", "/designs", "/analysis", "/auth/me"} {
		rr := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
}

func TestStaffOnlyReachesTailoring(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	staff := env.login(t, "staff", staffEmail, "staff-pw")
	owner := env.login(t, "owner", ownerEmail, "owner-pw")

	for _, path := range []string{"/", "/sales", "/expenses", "/designs", "/analysis", "/analysis/export.xlsx"} {
		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, path, "", staff).Code, path)
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, "", owner).Code, path)
	}
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/tailoring", "", staff).Code)
}

func TestCreateAndListSale(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	owner := env.login(t, "owner", ownerEmail, "owner-pw")

	rr := env.do(t, http.MethodPost, "/sales",
		`{"items":"Silk saree","price":"1200","date":"2024-03-05","paymentMode":"UPI"}`, owner)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decodeBody[saleView](t, rr)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "1200.00", created.Price)
	assert.Equal(t, "Done", created.Status)

	list := decodeBody[listView[saleView]](t, env.do(t, http.MethodGet, "/sales", "", owner))
	require.Len(t, list.Items, 1)
	assert.Equal(t, created, list.Items[0])
}

func TestCreateValidationErrors(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	owner := env.login(t, "owner", ownerEmail, "owner-pw")

	tests := []struct {
		name, path, body string
		field, message   string
	}{
		{"short items", "/sales", `{"items":"A","price":"10","date":"2024-03-05","paymentMode":"Cash"}`, "items", "must be at least 2 characters"},
		{"bad payment mode", "/expenses", `{"description":"Rent","amount":"100","date":"2024-03-05","paymentMode":"Cheque"}`, "paymentMode", "invalid payment mode"},
		{"short phone", "/tailoring", `{"date":"2024-03-01","billNo":"B-1","customer":"Asha","phone":"98765","type":"Blouse","totalCost":"800","deliveryDate":"2024-03-20","paymentMode":"Cash"}`, "phone", "must be at least 10 characters"},
		{"advance over total", "/tailoring", `{"date":"2024-03-01","billNo":"B-1","customer":"Asha","phone":"9876543210","type":"Blouse","totalCost":"800","advance":"900","deliveryDate":"2024-03-20","paymentMode":"Cash"}`, "advance", core.ErrPaymentExceedsCost.Error()},
		{"end before start", "/designs", `{"name":"Lehenga","materialCost":"100","laborCost":"50","sellingPrice":"400","startDate":"2024-03-10","endDate":"2024-03-01","status":"Designing"}`, "endDate", core.ErrEndBeforeStart.Error()},
		{"missing date", "/sales", `{"items":"Kurta","price":"10","paymentMode":"Cash"}`, "date", "is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, tt.path, tt.body, owner)
			require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
			body := decodeBody[errorBody](t, rr)
			assert.Equal(t, "validation failed", body.Error)
			assert.Equal(t, tt.message, body.Fields[tt.field])
		})
	}
	assert.Empty(t, env.store.Sales())
	assert.Empty(t, env.store.Orders())
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	owner := env.login(t, "owner", ownerEmail, "owner-pw")

	rr := env.do(t, http.MethodPost, "/expenses", `{"description":`, owner)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// refusingRepo fails every write.
type refusingRepo struct {
	storage.Repository
}

func (refusingRepo) CreateSale(context.Context, core.Sale) (string, error) {
	return "", errors.New("disk full")
}

func TestPersistenceFailureHidesCause(t *testing.T) {
	env := newTestEnv(t, refusingRepo{memory.New()}, Options{})
	owner := env.login(t, "owner", ownerEmail, "owner-pw")

	rr := env.do(t, http.MethodPost, "/sales",
		`{"items":"Kurta","price":"450","date":"2024-03-05","paymentMode":"Cash"}`, owner)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeBody[errorBody](t, rr)
	assert.Equal(t, "failed to add sale", body.Error)
	assert.NotContains(t, rr.Body.String(), "disk full")
	assert.Empty(t, env.store.Sales())
}

func TestReadsWaitForLoad(t *testing.T) {
	logger := quietLogger()
	cache := store.New(logger)
	// never loaded
	srv := NewServer(Options{}, services.NewRecordService(memory.New(), cache, nil, logger),
		cache, newAuthService(t), logger)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	env := &testEnv{srv: srv, store: cache}
	owner := env.login(t, "owner", ownerEmail, "owner-pw")

	for _, path := range []string{"/", "/sales", "/tailoring", "/analysis"} {
		rr := env.do(t, http.MethodGet, path, "", owner)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code, path)
		assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	}
	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodGet, "/readyz", "", nil).Code)
}

// clashingRepo reports every order update as overtaken by another writer.
type clashingRepo struct {
	storage.Repository
}

func (clashingRepo) UpdateOrder(context.Context, string, core.OrderUpdate) error {
	return storage.ErrConflict
}

func TestUpdateOrderConflict(t *testing.T) {
	env := newTestEnv(t, clashingRepo{memory.New()}, Options{})
	staff := env.login(t, "staff", staffEmail, "staff-pw")

	rr := env.do(t, http.MethodPost, "/tailoring",
		`{"date":"2024-03-01","billNo":"B-3","customer":"Meera","phone":"9876543210","type":"Kurta","totalCost":500,"deliveryDate":"2024-03-25","paymentMode":"UPI"}`, staff)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	order := decodeBody[orderView](t, rr)

	rr = env.do(t, http.MethodPatch, "/tailoring/"+order.ID, `{"paymentReceived":"100"}`, staff)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "tailoring order changed, reload and try again", decodeBody[errorBody](t, rr).Error)
}

func TestUpdateOrderPayment(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	staff := env.login(t, "staff", staffEmail, "staff-pw")

	rr := env.do(t, http.MethodPost, "/tailoring",
		`{"date":"2024-03-01","billNo":"B-9","customer":"Meera","phone":"9876543210","type":"Lehenga","totalCost":1000,"advance":400,"deliveryDate":"2024-03-25","paymentMode":"Cash"}`, staff)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	order := decodeBody[orderView](t, rr)
	assert.Equal(t, "600.00", order.Balance)
	assert.Equal(t, "To Do", order.Status)

	rr = env.do(t, http.MethodPatch, "/tailoring/"+order.ID, `{"paymentReceived":"700"}`, staff)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, core.ErrPaymentExceedsCost.Error(), decodeBody[errorBody](t, rr).Fields["paymentReceived"])

	rr = env.do(t, http.MethodPatch, "/tailoring/"+order.ID, `{"paymentReceived":"600","status":"Completed"}`, staff)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decodeBody[orderView](t, rr)
	assert.Equal(t, "1000.00", updated.Advance)
	assert.Equal(t, "0.00", updated.Balance)
	assert.Equal(t, "Completed", updated.Status)

	open := decodeBody[listView[orderView]](t, env.do(t, http.MethodGet, "/tailoring?open=true", "", staff))
	assert.Empty(t, open.Items)

	rr = env.do(t, http.MethodPatch, "/tailoring/"+order.ID, `{"status":"Shipped"}`, staff)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = env.do(t, http.MethodPatch, "/tailoring/missing", `{"paymentReceived":"1"}`, staff)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDashboardAndAnalysis(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	env.srv.now = func() time.Time { return core.NewDate(2024, 3, 20).Time }
	owner := env.login(t, "owner", ownerEmail, "owner-pw")

	for _, req := range []struct{ path, body string }{
		{"/sales", `{"items":"Saree","price":"1500","date":"2024-03-02","paymentMode":"Card"}`},
		{"/expenses", `{"description":"Fabric","amount":"500","date":"2024-03-03","paymentMode":"Cash"}`},
		{"/expenses", `{"description":"Rent","amount":"2000","date":"2024-02-01","paymentMode":"UPI"}`},
		{"/tailoring", `{"date":"2024-03-04","billNo":"B-1","customer":"Asha","phone":"9876543210","type":"Blouse","totalCost":"800","advance":"300","deliveryDate":"2024-03-30","paymentMode":"Cash"}`},
	} {
		rr := env.do(t, http.MethodPost, req.path, req.body, owner)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr := env.do(t, http.MethodGet, "/", "", owner)
	require.Equal(t, http.StatusOK, rr.Code)
	dash := decodeBody[dashboardView](t, rr)
	assert.Equal(t, dashboardView{
		Revenue:      "1800.00",
		Expenses:     "2500.00",
		NetProfit:    "-700.00",
		ProfitMargin: "-38.89",
		Outstanding:  "500.00",
		OpenOrders:   1,
		Month: monthView{
			Period:   "2024-03",
			Label:    "March 2024",
			Income:   "1800.00",
			Expenses: "500.00",
			Balance:  "1300.00",
		},
	}, dash)

	rr = env.do(t, http.MethodGet, "/analysis", "", owner)
	require.Equal(t, http.StatusOK, rr.Code)
	analysis := decodeBody[struct {
		Months []monthView `json:"months"`
	}](t, rr)
	require.Len(t, analysis.Months, 2)
	assert.Equal(t, "2024-03", analysis.Months[0].Period)
	assert.Equal(t, monthView{Period: "2024-02", Label: "February 2024", Income: "0.00", Expenses: "2000.00", Balance: "-2000.00"}, analysis.Months[1])

	rr = env.do(t, http.MethodGet, "/?month=March", "", owner)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExportWorkbook(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	owner := env.login(t, "owner", ownerEmail, "owner-pw")
	rr := env.do(t, http.MethodPost, "/sales", `{"items":"Saree","price":"1500","date":"2024-03-02","paymentMode":"Card"}`, owner)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = env.do(t, http.MethodGet, "/analysis/export.xlsx?month=2024-03", "", owner)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, export.ContentType, rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="summary-2024-03.xlsx"`, rr.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "PK"), "xlsx is a zip archive")
}

func TestLogoutRevokesSession(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	owner := env.login(t, "owner", ownerEmail, "owner-pw")

	rr := env.do(t, http.MethodGet, "/auth/me", "", owner)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), ownerEmail)

	rr = env.do(t, http.MethodPost, "/auth/logout", "", owner)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/auth/me", "", owner).Code)
}

func TestLoginIsRateLimited(t *testing.T) {
	env := newTestEnv(t, nil, Options{LoginRateLimit: ratelimit.Config{Requests: 2, Window: time.Minute}})
	body := `{"role":"owner","email":"` + ownerEmail + `","password":"wrong"}`

	for range 2 {
		assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/auth/login", body, nil).Code)
	}
	rr := env.do(t, http.MethodPost, "/auth/login", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	env.do(t, http.MethodGet, "/healthz", "", nil)

	rr := env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "http_requests_total 1")
	assert.Contains(t, body, `ledger_records{collection="tailoringOrders"} 0`)
	assert.Contains(t, body, "suspicious_requests_total 0")
}
