package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestConfigureRouter_HealthRoute(t *testing.T) {
	rc := testContext(t)
	router := chi.NewRouter()
	ConfigureRouter(router, rc)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 from /health, got %d", rec.Code)
	}
}

func TestConfigureRouter_WellKnownRoute(t *testing.T) {
	rc := testContext(t)
	router := chi.NewRouter()
	ConfigureRouter(router, rc)

	req := httptest.NewRequest(http.MethodGet, "/.well-known/payment-options", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 from well-known discovery, got %d", rec.Code)
	}
}

func TestConfigureRouter_SearchRequiresAuth(t *testing.T) {
	rc := testContext(t)
	router := chi.NewRouter()
	ConfigureRouter(router, rc)

	req := httptest.NewRequest(http.MethodPost, "/docs/search", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 from unauthenticated search, got %d", rec.Code)
	}
}

func TestConfigureRouter_NilRouterIsNoop(t *testing.T) {
	// Should not panic.
	ConfigureRouter(nil, testContext(t))
}
