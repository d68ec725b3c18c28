package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

type stubProber struct {
	pingFn func(ctx context.Context) error
}

func (s *stubProber) Ping(ctx context.Context) error {
	if s.pingFn != nil {
		return s.pingFn(ctx)
	}
	return nil
}

func TestRouterUnknownRoute(t *testing.T) {
	router := NewRouter()

	rec := doRequest(t, router, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if payload := decodeBody(t, rec); payload["error"] != "route_not_found" {
		t.Fatalf("expected route_not_found, got %v", payload["error"])
	}
}

func TestRouterUnconfiguredGroup(t *testing.T) {
	router := NewRouter()

	rec := doRequest(t, router, http.MethodGet, "/api/v1/catalog/products", "")
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 for unconfigured group, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	router := NewRouter()

	rec := doRequest(t, router, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if payload := decodeBody(t, rec); payload["status"] != "ok" {
		t.Fatalf("expected status ok, got %v", payload["status"])
	}
}

func TestReadyzProbesUpstream(t *testing.T) {
	healthy := NewRouter(WithHealthHandlers(NewHealthHandlers(&stubProber{})))
	rec := doRequest(t, healthy, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	degraded := NewRouter(WithHealthHandlers(NewHealthHandlers(&stubProber{
		pingFn: func(context.Context) error { return errors.New("upstream down") },
	})))
	rec = doRequest(t, degraded, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if payload := decodeBody(t, rec); payload["status"] != "degraded" {
		t.Fatalf("expected degraded, got %v", payload["status"])
	}
}
