package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"novachat-backend/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"health", "/health", "/health"},
		{"metrics", "/metrics", "/metrics"},
		{"signup", "/v1/auth/signup", "/v1/auth/signup"},
		{"login", "/v1/auth/login", "/v1/auth/login"},
		{"google login", "/v1/auth/google/login", "/v1/auth/google/login"},
		{"google callback", "/v1/auth/google/callback", "/v1/auth/google/callback"},
		{"chat", "/v1/chat", "/v1/chat"},
		{"chat trailing slash", "/v1/chat/", "/v1/chat"},
		{"root", "/", "other"},
		{"unknown top-level", "/favicon.ico", "other"},
		{"unknown auth subpath", "/v1/auth/whatever", "other"},
		{"scanner path", "/scan/42", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizePath(tt.path))
		})
	}
}

// A flood of requests to distinct unmatched paths must collapse into a single
// label series, not mint one series per path.
func TestMetrics_UnmatchedPathsShareOneSeries(t *testing.T) {
	router, _ := newTestRouter(t)

	before := testutil.CollectAndCount(metrics.HTTPRequestsTotal, "novachat_http_requests_total")

	for i := 0; i < 500; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/scan/%d", i), nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	after := testutil.CollectAndCount(metrics.HTTPRequestsTotal, "novachat_http_requests_total")
	assert.LessOrEqual(t, after-before, 1, "unmatched paths must map to one path label")
}
