package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aryan0dhankhar/staffdir/internal/security/audit"
	"github.com/aryan0dhankhar/staffdir/internal/security/ratelimit"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusCreated)
})

func TestRateLimitWritesOnlyLimitsMutations(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := ratelimit.NewLimiter(1, time.Minute)
	defer limiter.Stop()
	h := RateLimitWrites(limiter, audit.NewLogger(log), log)(ok)

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/employees", strings.NewReader("{}"))
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusCreated, post())
	assert.Equal(t, http.StatusTooManyRequests, post())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/employees", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
}

func TestAuditMutationsLogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	h := RequestID(log)(AuditMutations(audit.NewLogger(log))(ok))

	req := httptest.NewRequest(http.MethodDelete, "/api/employees/abc", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := buf.String()
	assert.Contains(t, out, `"action":"delete"`)
	assert.Contains(t, out, `"resource_id":"abc"`)
	assert.Contains(t, out, `"status":"201"`)
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
}

func TestValidateJSONContentType(t *testing.T) {
	h := ValidateJSONContentType("/api/employees", slog.New(slog.NewTextHandler(io.Discard, nil)))(ok)

	req := httptest.NewRequest(http.MethodPost, "/api/employees", strings.NewReader("NOME=Ana"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)

	req = httptest.NewRequest(http.MethodPut, "/api/employees/42", strings.NewReader("NOME=Ana"))
	req.Header.Set("Content-Type", "text/plain")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/employees", strings.NewReader(`{"NOME":"Ana"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestValidateJSONContentTypeIgnoresOtherPaths(t *testing.T) {
	h := ValidateJSONContentType("/api/employees", slog.New(slog.NewTextHandler(io.Discard, nil)))(ok)

	for _, path := range []string{"/api/employeesx", "/upload"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("a=b"))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code, path)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"http://localhost:5173"})(ok)

	req := httptest.NewRequest(http.MethodOptions, "/api/employees", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(req))
}
