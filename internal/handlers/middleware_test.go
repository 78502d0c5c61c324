package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/assessment-engine/internal/config"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

func TestRateLimiterPerKey(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(config.RateLimitConfig{RPS: 1, Burst: 2})
	rl.now = func() time.Time { return now }

	got := []bool{rl.Allow("a"), rl.Allow("a"), rl.Allow("a"), rl.Allow("b")}
	want := []bool{true, true, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Allow sequence = %v, want %v", got, want)
		}
	}

	now = now.Add(2 * limiterIdleTTL)
	rl.Allow("c")
	if len(rl.limiters) != 1 {
		t.Errorf("idle limiters not evicted: %d left", len(rl.limiters))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{RPS: 0.001, Burst: 1})
	router := newTestRouter(t, newFakeServices(), limiter)

	first := do(router, testRequest{method: http.MethodGet, path: "/api/v1/assessment/assigned", user: "u1", role: models.RoleStudent})
	expectStatus(t, first, http.StatusOK)

	second := do(router, testRequest{method: http.MethodGet, path: "/api/v1/assessment/assigned", user: "u1", role: models.RoleStudent})
	expectStatus(t, second, http.StatusTooManyRequests)

	other := do(router, testRequest{method: http.MethodGet, path: "/api/v1/assessment/assigned", user: "u2", role: models.RoleStudent})
	expectStatus(t, other, http.StatusOK)
}

func TestRequestID(t *testing.T) {
	router := newTestRouter(t, newFakeServices(), nil)

	w := do(router, testRequest{method: http.MethodGet, path: "/health"})
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated request id")
	}

	w = do(router, testRequest{method: http.MethodGet, path: "/health", header: map[string]string{"X-Request-ID": "abc"}})
	if got := w.Header().Get("X-Request-ID"); got != "abc" {
		t.Errorf("X-Request-ID = %q, want abc", got)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestCORSPreflight(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware([]string{"https://exam.example.com"}))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://exam.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://exam.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign origin status = %d", w.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "healthy", want: http.StatusOK},
		{name: "store down", err: errors.New("ping failed"), want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := newFakeServices()
			sm.healthErr = tt.err
			router := newTestRouter(t, sm, nil)

			w := do(router, testRequest{method: http.MethodGet, path: "/health"})

			expectStatus(t, w, tt.want)
		})
	}
}

func TestRequireRoleMiddleware(t *testing.T) {
	tests := []struct {
		name string
		role *models.UserRole
		want int
	}{
		{name: "teacher", role: ptr(models.RoleTeacher), want: http.StatusOK},
		{name: "admin always passes", role: ptr(models.RoleAdmin), want: http.StatusOK},
		{name: "student", role: ptr(models.RoleStudent), want: http.StatusForbidden},
		{name: "no role", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/admin", func(c *gin.Context) {
				if tt.role != nil {
					c.Set("user_role", *tt.role)
				}
				c.Next()
			}, RequireRoleMiddleware(models.RoleTeacher), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}
