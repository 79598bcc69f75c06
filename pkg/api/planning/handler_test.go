package planning

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noro_planning/pkg/core/assumption"
	"noro_planning/pkg/core/projection"
	"noro_planning/pkg/core/store"
	"noro_planning/pkg/core/validate"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	b, err := store.NewFileBackend(t.TempDir())
	require.NoError(t, err)

	logger := zerolog.New(zerolog.NewTestWriter(t))
	srv := httptest.NewServer(NewRouter(logger, NewHandler(store.NewAssumptionStore(b))))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url string, body []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestProjectionEndpoints(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		status int
		check  func(t *testing.T, body []byte)
	}{
		{
			name:   "months",
			path:   "/api/planning/primary/months/2026",
			status: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				months := decode[[]projection.MonthlyData](t, body)
				require.Len(t, months, 12)
				assert.Equal(t, 1, months[0].Month)
				assert.Equal(t, 2026, months[11].Year)
			},
		},
		{
			name:   "pl",
			path:   "/api/planning/primary/pl/2027",
			status: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				pl := decode[[]projection.PLData](t, body)
				require.Len(t, pl, 12)
				assert.Equal(t, 75000.0, pl[0].Payroll)
			},
		},
		{
			name:   "cash",
			path:   "/api/planning/secondary/cash/2026",
			status: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				cash := decode[[]projection.CashData](t, body)
				require.Len(t, cash, 12)
				assert.Equal(t, 1500000.0, cash[0].BeginningCash)
			},
		},
		{
			name:   "annual",
			path:   "/api/planning/secondary/annual",
			status: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				summaries := decode[[]projection.AnnualSummary](t, body)
				require.Len(t, summaries, 3)
				assert.Equal(t, 2028, summaries[2].Year)
			},
		},
		{
			name:   "checks",
			path:   "/api/planning/primary/checks",
			status: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				report := decode[validate.LinkageReport](t, body)
				assert.True(t, report.AllPassed)
				assert.Positive(t, report.Checked)
			},
		},
		{name: "year out of range", path: "/api/planning/primary/pl/2031", status: http.StatusNotFound},
		{name: "year before horizon", path: "/api/planning/primary/months/2025", status: http.StatusNotFound},
		{name: "unknown unit", path: "/api/planning/tertiary/months/2026", status: http.StatusNotFound},
		{name: "bad year", path: "/api/planning/primary/cash/next", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodGet, srv.URL+tt.path, nil)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
			if resp.StatusCode != http.StatusOK {
				assert.Contains(t, string(body), `"error"`)
			}
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}

func TestAssumptionsLifecycle(t *testing.T) {
	srv := newTestServer(t)
	url := srv.URL + "/api/planning/assumptions"

	resp, body := do(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, assumption.Defaults(), decode[*assumption.Assumptions](t, body))

	// Partial bare object: everything else comes from the defaults.
	resp, body = do(t, http.MethodPut, url, []byte(`{"primary": {"base_payroll_monthly": 80000}}`))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	saved := decode[SaveResponse](t, body)
	assert.NotEmpty(t, saved.Revision)
	assert.Equal(t, 80000.0, saved.Assumptions.Primary.BasePayrollMonthly)
	assert.Equal(t, assumption.Defaults().Secondary, saved.Assumptions.Secondary)

	_, body = do(t, http.MethodGet, srv.URL+"/api/planning/primary/pl/2026", nil)
	pl := decode[[]projection.PLData](t, body)
	assert.Equal(t, 100000.0, pl[0].Payroll)

	resp, body = do(t, http.MethodPost, url+"/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, assumption.Defaults(), decode[*assumption.Assumptions](t, body))
}

func TestPutAssumptions_RejectsInvalid(t *testing.T) {
	srv := newTestServer(t)
	url := srv.URL + "/api/planning/assumptions"

	resp, body := do(t, http.MethodPut, url, []byte(`{"tiers": {"enterprise": {"portals_per_customer": 0}}}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "portals")

	resp, _ = do(t, http.MethodPut, url, []byte(`   `))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, body = do(t, http.MethodGet, url, nil)
	assert.Equal(t, assumption.Defaults(), decode[*assumption.Assumptions](t, body))
}

func TestPutAssumptions_RejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t)
	url := srv.URL + "/api/planning/assumptions"

	bodies := map[string][]byte{
		"truncated":      []byte(`{"install_lag_months": 4, "monthly_churn_rate_pct": 3`),
		"trailing comma": []byte(`{"install_lag_months": 4,}`),
		"oversized":      append(append([]byte(`{"currency": "`), bytes.Repeat([]byte("x"), maxBodyBytes)...), []byte(`"}`)...),
	}
	for name, b := range bodies {
		t.Run(name, func(t *testing.T) {
			resp, _ := do(t, http.MethodPut, url, b)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	_, body := do(t, http.MethodGet, url, nil)
	assert.Equal(t, assumption.Defaults(), decode[*assumption.Assumptions](t, body))
}

func TestExportCSV(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/planning/primary/export/pl.csv?year=2027", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 13)
	assert.True(t, strings.HasPrefix(lines[1], "2027,1,"))

	resp, body = do(t, http.MethodGet, srv.URL+"/api/planning/secondary/export/annual.csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, strings.Split(strings.TrimSpace(string(body)), "\n"), 4)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/planning/primary/export/balance.csv", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/planning/primary/export/cash.csv?year=soon", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReport(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/planning/primary/report.html", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "NORO plan: primary unit", doc.Find("h1").Text())
	assert.Equal(t, 4, doc.Find("table").Length())
}

func TestWithCORS(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	b, err := store.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	router := NewRouter(logger, NewHandler(store.NewAssumptionStore(b)))

	req := httptest.NewRequest(http.MethodGet, "/api/planning/primary/annual", nil)
	req.Header.Set("Origin", "http://localhost:5173")

	rec := httptest.NewRecorder()
	WithCORS(router, []string{"http://localhost:5173"}).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	WithCORS(router, nil).ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
