package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zalar2202/logashop/pkg/config"
	"github.com/zalar2202/logashop/pkg/logger"
	"github.com/zalar2202/logashop/pkg/metrics"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "secret", Issuer: "logashop-test", ExpirationMinutes: 5}

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	registry := prometheus.NewRegistry()
	metrics.NewCheckoutMetrics(registry)

	return NewRouter(cfg, logg, nil, nil, nil, nil, nil, nil, registry)
}

func TestRouterHealthEndpoints(t *testing.T) {
	t.Parallel()

	router := testRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, w.Code)
		}
		if env := w.Header().Get("X-Logashop-Env"); env != "test" {
			t.Fatalf("%s env header = %q", path, env)
		}
	}
}

func TestRouterExposesMetrics(t *testing.T) {
	t.Parallel()

	router := testRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "checkout_orders_created") {
		t.Fatalf("expected checkout metrics in scrape output")
	}
}

func TestRouterGuardsAuthenticatedRoutes(t *testing.T) {
	t.Parallel()

	router := testRouter(t)

	for _, target := range []string{"/api/v1/orders", "/api/v1/notifications"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s status = %d", target, w.Code)
		}
	}
}

func TestRouterRejectsInvalidBearerOnCheckout(t *testing.T) {
	t.Parallel()

	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}
