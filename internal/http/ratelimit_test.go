package httpserver

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Clark-Hu/store-ratings/internal/config"
	"github.com/Clark-Hu/store-ratings/internal/logging"
)

// throttledLogins sends n empty login requests from the same connection address,
// each with a different X-Forwarded-For, and counts the 429 responses.
func throttledLogins(s *Server, n int) int {
	throttled := 0
	for i := 0; i < n; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i+1))
		req.RemoteAddr = "192.0.2.10:40000"
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			throttled++
		}
	}
	return throttled
}

func TestAuthRateLimitIgnoresForwardedHeaders(t *testing.T) {
	cfg := config.Config{
		ClientURL:          "http://localhost:5173",
		AuthRateLimitRPS:   0.001,
		AuthRateLimitBurst: 1,
	}
	s := New(cfg, nil, nil, nil, logging.Discard())

	assert.Equal(t, 19, throttledLogins(s, 20))
}

func TestAuthRateLimitTrustsForwardedHeadersWhenEnabled(t *testing.T) {
	cfg := config.Config{
		ClientURL:          "http://localhost:5173",
		AuthRateLimitRPS:   0.001,
		AuthRateLimitBurst: 1,
		TrustProxyHeaders:  true,
	}
	s := New(cfg, nil, nil, nil, logging.Discard())

	assert.Equal(t, 0, throttledLogins(s, 20))
}
