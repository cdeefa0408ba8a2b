package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduserv/ledger/internal/app/repositories/memory"
	"github.com/eduserv/ledger/internal/bootstrap"
	"github.com/eduserv/ledger/internal/config"
)

type api struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

type reply struct {
	Code int
	Body map[string]interface{}
	Raw  string
}

func (r reply) data() map[string]interface{} {
	d, _ := r.Body["data"].(map[string]interface{})
	return d
}

func (r reply) list() []interface{} {
	d, _ := r.Body["data"].([]interface{})
	return d
}

func (r reply) errorField(name string) interface{} {
	e, _ := r.Body["error"].(map[string]interface{})
	return e[name]
}

func newAPI(t *testing.T) (*api, *bootstrap.Dependencies) {
	t.Helper()
	t.Setenv("DB_DRIVER", config.DriverMemory)
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("JWT_SECRET", "controller-test")
	t.Setenv("LOG_LEVEL", "error")
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	deps := bootstrap.BuildDependencies(cfg, memory.NewStore().Repositories(), bootstrap.NewLogger(cfg))
	gin.SetMode(gin.TestMode)
	return &api{t: t, router: bootstrap.SetupRouter(cfg, deps)}, deps
}

func (a *api) as(deps *bootstrap.Dependencies, operator, role string) *api {
	token, _, err := deps.JWTService.GenerateToken(operator, role)
	require.NoError(a.t, err)
	return &api{t: a.t, router: a.router, token: token}
}

func (a *api) do(method, path string, body interface{}) reply {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	r := reply{Code: w.Code, Raw: w.Body.String()}
	_ = json.Unmarshal(w.Body.Bytes(), &r.Body)
	return r
}

func TestAuthGate(t *testing.T) {
	anon, deps := newAPI(t)

	t.Run("no token", func(t *testing.T) {
		r := anon.do(http.MethodGet, "/api/v1/programs", nil)
		assert.Equal(t, http.StatusUnauthorized, r.Code)
		assert.Equal(t, "AUTH_008", r.errorField("code"))
	})

	t.Run("garbage token", func(t *testing.T) {
		bad := &api{t: t, router: anon.router, token: "not.a.jwt"}
		r := bad.do(http.MethodGet, "/api/v1/programs", nil)
		assert.Equal(t, http.StatusUnauthorized, r.Code)
		assert.Equal(t, "AUTH_005", r.errorField("code"))
	})

	t.Run("viewer reads but cannot write", func(t *testing.T) {
		viewer := anon.as(deps, "auditor", "viewer")
		assert.Equal(t, http.StatusOK, viewer.do(http.MethodGet, "/api/v1/programs", nil).Code)

		r := viewer.do(http.MethodPost, "/api/v1/programs", map[string]interface{}{"program_name": "X", "tuition_fee": 10})
		assert.Equal(t, http.StatusForbidden, r.Code)
		assert.Equal(t, "FORBIDDEN", r.errorField("code"))
	})

	t.Run("ops endpoints are open", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/health", nil).Code)
		r := anon.do(http.MethodGet, "/metrics", nil)
		assert.Equal(t, http.StatusOK, r.Code)
		assert.Contains(t, r.Raw, "ledger_http_requests_total")
	})
}

func TestLedgerEndpoints(t *testing.T) {
	anon, deps := newAPI(t)
	bursar := anon.as(deps, "bursar-1", "bursar")

	// catalogs
	r := bursar.do(http.MethodPost, "/api/v1/programs", map[string]interface{}{
		"program_name": "Diploma in Logistics", "tuition_fee": "3000000",
	})
	require.Equal(t, http.StatusCreated, r.Code, r.Raw)
	programID := r.data()["id"]
	assert.Equal(t, "Diploma in Logistics", r.data()["program_name"])
	assert.EqualValues(t, 3000000, r.data()["tuition_fee"])

	r = bursar.do(http.MethodPost, "/api/v1/fees", map[string]interface{}{"fee_name": "Examination", "fee_amount": 125.5})
	require.Equal(t, http.StatusCreated, r.Code, r.Raw)
	feeID := r.data()["fee_id"]

	// enrollment accepts program_id as a string
	r = bursar.do(http.MethodPost, "/api/v1/students", map[string]interface{}{
		"firstname": "Amina", "lastname": "Okello", "contacts": "0700 000 001",
		"program_id": "1",
	})
	require.Equal(t, http.StatusCreated, r.Code, r.Raw)
	student := r.data()
	assert.Equal(t, programID, student["program_id"])
	assert.EqualValues(t, 3000000, student["balance"])
	assert.Equal(t, "not completed", student["status"])
	assert.Equal(t, "Diploma in Logistics", student["program_name"])

	t.Run("tuition payment lowers the headline balance", func(t *testing.T) {
		r := bursar.do(http.MethodPost, "/api/v1/students/1/payments", map[string]interface{}{
			"amount_paid": 1200000, "payment_date": "2024-01-10", "payment_method": "cash",
		})
		require.Equal(t, http.StatusCreated, r.Code, r.Raw)
		assert.Equal(t, "bursar-1", r.data()["recorded_by"])
		assert.Equal(t, "Tuition", r.data()["fee_name"])
		assert.Equal(t, "2024-01-10", r.data()["payment_date"])

		r = bursar.do(http.MethodGet, "/api/v1/students/1/balance", nil)
		require.Equal(t, http.StatusOK, r.Code)
		assert.EqualValues(t, 1800000, r.data()["balance"])
	})

	t.Run("fee payment uses payment_amount", func(t *testing.T) {
		r := bursar.do(http.MethodPost, "/api/v1/students/1/payments", map[string]interface{}{
			"fee_id": feeID, "payment_amount": "125.50", "payment_date": "2024-01-11", "payment_method": "Credit Card",
		})
		require.Equal(t, http.StatusCreated, r.Code, r.Raw)
		assert.Equal(t, "Examination", r.data()["fee_name"])
		assert.Equal(t, "card", r.data()["payment_method"])

		r = bursar.do(http.MethodGet, "/api/v1/students/1/payments", nil)
		require.Equal(t, http.StatusOK, r.Code)
		groups, _ := r.data()["groups"].([]interface{})
		assert.Len(t, groups, 2)
		assert.EqualValues(t, 1200125.5, r.data()["total_paid"])
	})

	t.Run("payment errors", func(t *testing.T) {
		r := bursar.do(http.MethodPost, "/api/v1/students/1/payments", map[string]interface{}{
			"amount_paid": 10, "payment_date": "2024-01-10",
		})
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.Equal(t, "payment_method", r.errorField("field"))

		r = bursar.do(http.MethodPost, "/api/v1/students/1/payments", map[string]interface{}{
			"amount_paid": 0, "payment_date": "2024-01-10", "payment_method": "cash",
		})
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.Equal(t, "amount_paid", r.errorField("field"))

		r = bursar.do(http.MethodPost, "/api/v1/students/1/payments", map[string]interface{}{
			"fee_id": 77, "payment_amount": 10, "payment_date": "2024-01-10", "payment_method": "cash",
		})
		assert.Equal(t, http.StatusNotFound, r.Code)

		r = bursar.do(http.MethodPost, "/api/v1/students/42/payments", map[string]interface{}{
			"amount_paid": 10, "payment_date": "2024-01-10", "payment_method": "cash",
		})
		assert.Equal(t, http.StatusNotFound, r.Code)

		r = bursar.do(http.MethodPost, "/api/v1/students/1/payments", `{"amount_paid":`)
		assert.Equal(t, http.StatusBadRequest, r.Code)

		r = bursar.do(http.MethodGet, "/api/v1/students/abc/balance", nil)
		assert.Equal(t, http.StatusBadRequest, r.Code)
	})

	t.Run("status and loan move the student between buckets", func(t *testing.T) {
		r := bursar.do(http.MethodPut, "/api/v1/students/1/status", map[string]interface{}{"status": "travelled"})
		require.Equal(t, http.StatusOK, r.Code, r.Raw)

		r = bursar.do(http.MethodGet, "/api/v1/students?bucket=travelled", nil)
		require.Equal(t, http.StatusOK, r.Code)
		assert.Len(t, r.list(), 1)
		r = bursar.do(http.MethodGet, "/api/v1/students?bucket=not_completed", nil)
		assert.Empty(t, r.list())

		r = bursar.do(http.MethodPut, "/api/v1/students/1/loan", map[string]interface{}{"isonloan": true})
		require.Equal(t, http.StatusOK, r.Code, r.Raw)
		assert.Equal(t, true, r.data()["isonloan"])

		r = bursar.do(http.MethodPut, "/api/v1/students/1/loan", map[string]interface{}{})
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.Equal(t, "isonloan", r.errorField("field"))

		r = bursar.do(http.MethodPut, "/api/v1/students/1/status", map[string]interface{}{"status": "expelled"})
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.Equal(t, "status", r.errorField("field"))

		r = bursar.do(http.MethodGet, "/api/v1/students?bucket=alumni", nil)
		assert.Equal(t, http.StatusBadRequest, r.Code)

		r = bursar.do(http.MethodGet, "/api/v1/students/summary", nil)
		require.Equal(t, http.StatusOK, r.Code)
		assert.EqualValues(t, 1, r.data()["travelled"])
		assert.EqualValues(t, 1, r.data()["on_loan"])
	})

	t.Run("search and single reads", func(t *testing.T) {
		r := bursar.do(http.MethodGet, "/api/v1/students?q=OKELLO", nil)
		assert.Len(t, r.list(), 1)
		r = bursar.do(http.MethodGet, "/api/v1/students?q=nobody", nil)
		assert.Empty(t, r.list())

		assert.Equal(t, http.StatusOK, bursar.do(http.MethodGet, "/api/v1/students/1", nil).Code)
		assert.Equal(t, http.StatusNotFound, bursar.do(http.MethodGet, "/api/v1/students/9", nil).Code)
		assert.Equal(t, http.StatusOK, bursar.do(http.MethodGet, "/api/v1/programs/1", nil).Code)
		assert.Equal(t, http.StatusNotFound, bursar.do(http.MethodGet, "/api/v1/fees/9", nil).Code)
		assert.Len(t, bursar.do(http.MethodGet, "/api/v1/fees", nil).list(), 1)
	})

	t.Run("statement", func(t *testing.T) {
		r := bursar.do(http.MethodGet, "/api/v1/students/1/statement", nil)
		require.Equal(t, http.StatusOK, r.Code)
		s, _ := r.data()["student"].(map[string]interface{})
		assert.Equal(t, "Amina", s["firstname"])
		assert.Len(t, r.data()["sections"], 2)
	})

	t.Run("expenses", func(t *testing.T) {
		for _, e := range []map[string]interface{}{
			{"person_name": "Caretaker", "amount": 40000, "expense_date": "2024-01-05", "description": "Cleaning"},
			{"person_name": "Printer", "amount": "15000.25", "expense_date": "2024-01-20"},
			{"person_name": "Landlord", "amount": 900000, "expense_date": "2024-02-01"},
		} {
			r := bursar.do(http.MethodPost, "/api/v1/expenses", e)
			require.Equal(t, http.StatusCreated, r.Code, r.Raw)
		}

		r := bursar.do(http.MethodGet, "/api/v1/expenses?start_date=2024-01-01&end_date=2024-01-31", nil)
		require.Equal(t, http.StatusOK, r.Code)
		assert.Len(t, r.data()["expenses"], 2)
		assert.EqualValues(t, 55000.25, r.data()["total"])
		assert.True(t, strings.HasPrefix(r.data()["title"].(string), "Expense Report from 2024-01-01"))

		r = bursar.do(http.MethodGet, "/api/v1/expenses?start_date=2024-02-01&end_date=2024-01-01", nil)
		assert.Equal(t, http.StatusBadRequest, r.Code)
	})
}
