package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/qrlink/qrlink-go/internal/domain"
	"github.com/qrlink/qrlink-go/internal/handler"
	"github.com/qrlink/qrlink-go/internal/infra/cache"
	"github.com/qrlink/qrlink-go/internal/infra/observability"
	"github.com/qrlink/qrlink-go/internal/infra/resilience"
	"github.com/qrlink/qrlink-go/internal/service"

	"go.uber.org/zap"
)

type stubMappingStore struct {
	records map[string]domain.MappingRecord
}

func (s *stubMappingStore) GetMapping(_ context.Context, qrID string) (*domain.MappingRecord, error) {
	rec, ok := s.records[qrID]
	if !ok {
		return nil, nil
	}
	r := rec
	return &r, nil
}

func (s *stubMappingStore) ReplaceMapping(_ context.Context, rec *domain.MappingRecord) error {
	s.records[rec.QRID] = *rec
	return nil
}

func (s *stubMappingStore) DeleteMapping(_ context.Context, qrID string) error {
	delete(s.records, qrID)
	return nil
}

func newTestRouter(records map[string]domain.MappingRecord) http.Handler {
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	mappingCache := cache.New[*domain.MappingRecord](time.Minute)
	mappings := &stubMappingStore{records: records}

	resolver := service.NewResolver(mappings, mappingCache, resilience.NewBulkhead(4), metrics, logger)
	authSvc := service.NewAuthService(nil, "test-secret", 15*time.Minute, 24*time.Hour, logger)
	optSvc := service.NewProfileOptionService(nil, mappings, mappingCache, metrics, logger)

	return handler.NewRouter(optSvc, resolver, authSvc, handler.Config{
		PublicBaseURL: "https://qr.example.com",
		RedirectDelay: 2 * time.Second,
	}, metrics, logger)
}

func TestOperationalEndpoints(t *testing.T) {
	router := newTestRouter(map[string]domain.MappingRecord{})

	for _, path := range []string{"/healthz", "/readyz", "/ping", "/metrics", "/v1/metrics/resolver"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, rr.Code, http.StatusOK)
		}
	}
}

func TestResolveEndpoint_ActiveMapping(t *testing.T) {
	router := newTestRouter(map[string]domain.MappingRecord{
		"abc-123": {
			QRID:  "abc-123",
			Kind:  domain.KindWhatsApp,
			Label: "Chat",
			Value: "+1 (234) 567-8900",
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/resolve/abc-123", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp domain.ResolveResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Kind != domain.KindWhatsApp {
		t.Errorf("kind = %q, want %q", resp.Kind, domain.KindWhatsApp)
	}
	if resp.Destination != "https://wa.me/12345678900" {
		t.Errorf("destination = %q, want wa.me link", resp.Destination)
	}
	if resp.DelaySeconds != 2 {
		t.Errorf("delay = %d, want 2", resp.DelaySeconds)
	}
}

func TestResolveEndpoint_LegacyPrefixedIdentifier(t *testing.T) {
	router := newTestRouter(map[string]domain.MappingRecord{
		"abc-123": {QRID: "abc-123", Kind: domain.KindWebsite, Value: "https://example.com"},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/resolve/qr_abc-123", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d for a prefixed identifier", rr.Code, http.StatusOK)
	}
}

func TestResolveEndpoint_NoActiveOption(t *testing.T) {
	router := newTestRouter(map[string]domain.MappingRecord{})

	req := httptest.NewRequest(http.MethodGet, "/v1/resolve/never-seen", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	if !strings.Contains(rr.Body.String(), "qr code not active") {
		t.Errorf("body = %q, want the not-active message", rr.Body.String())
	}
}

func TestRedirectEndpoint_IssuesFound(t *testing.T) {
	router := newTestRouter(map[string]domain.MappingRecord{
		"abc-123": {QRID: "abc-123", Kind: domain.KindEmail, Value: "me@example.com"},
	})

	req := httptest.NewRequest(http.MethodGet, "/r/abc-123", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusFound)
	}
	if loc := rr.Header().Get("Location"); loc != "mailto:me@example.com" {
		t.Errorf("Location = %q, want mailto link", loc)
	}
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	router := newTestRouter(map[string]domain.MappingRecord{})

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1/options"},
		{http.MethodPost, "/v1/options"},
		{http.MethodGet, "/v1/me"},
		{http.MethodGet, "/v1/me/qr"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status = %d, want %d", tc.method, tc.path, rr.Code, http.StatusUnauthorized)
		}
	}
}

func TestProtectedRoutes_RejectGarbageToken(t *testing.T) {
	router := newTestRouter(map[string]domain.MappingRecord{})

	req := httptest.NewRequest(http.MethodGet, "/v1/options", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}
