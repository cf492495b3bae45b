package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/qrlink/qrlink-go/internal/domain"
	"github.com/qrlink/qrlink-go/internal/infra/cache"
	"github.com/qrlink/qrlink-go/internal/infra/observability"
	"github.com/qrlink/qrlink-go/internal/infra/resilience"
	"github.com/qrlink/qrlink-go/internal/service"

	"go.uber.org/zap"
)

func newResolver(mappings *fakeMappingStore, c *cache.InMemory[*domain.MappingRecord]) *service.Resolver {
	if c == nil {
		c = cache.New[*domain.MappingRecord](time.Minute)
	}
	return service.NewResolver(
		mappings,
		c,
		resilience.NewBulkhead(4),
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func TestResolve_ReturnsActiveMapping(t *testing.T) {
	mappings := newFakeMappingStore()
	mappings.records["abc-123"] = domain.MappingRecord{
		QRID:    "abc-123",
		OwnerID: "owner-1",
		Kind:    domain.KindWebsite,
		Label:   "Portfolio",
		Value:   "https://example.com",
	}
	r := newResolver(mappings, nil)

	rec, err := r.Resolve(context.Background(), "abc-123")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if rec.Kind != domain.KindWebsite || rec.Value != "https://example.com" {
		t.Errorf("resolved record = %+v, want website/https://example.com", rec)
	}
}

func TestResolve_StripsLegacyPrefix(t *testing.T) {
	mappings := newFakeMappingStore()
	mappings.records["abc-123"] = domain.MappingRecord{
		QRID: "abc-123",
		Kind: domain.KindPhone,
	}
	r := newResolver(mappings, nil)

	rec, err := r.Resolve(context.Background(), "qr_abc-123")
	if err != nil {
		t.Fatalf("Resolve of prefixed id returned error: %v", err)
	}
	if rec.QRID != "abc-123" {
		t.Errorf("resolved QRID = %q, want %q", rec.QRID, "abc-123")
	}
}

func TestResolve_MissIsNotFound(t *testing.T) {
	r := newResolver(newFakeMappingStore(), nil)

	_, err := r.Resolve(context.Background(), "never-seen")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResolve_EmptyIdentifier(t *testing.T) {
	mappings := newFakeMappingStore()
	r := newResolver(mappings, nil)

	for _, raw := range []string{"", "   ", "qr_"} {
		_, err := r.Resolve(context.Background(), raw)
		var nf *domain.ErrNotFound
		if !errors.As(err, &nf) {
			t.Errorf("Resolve(%q): expected ErrNotFound, got %v", raw, err)
		}
	}
	if mappings.getCalls != 0 {
		t.Errorf("expected no storage lookups for empty identifiers, got %d", mappings.getCalls)
	}
}

func TestResolve_SecondHitServedFromCache(t *testing.T) {
	mappings := newFakeMappingStore()
	mappings.records["abc-123"] = domain.MappingRecord{QRID: "abc-123", Kind: domain.KindEmail, Value: "me@example.com"}
	r := newResolver(mappings, nil)
	ctx := context.Background()

	if _, err := r.Resolve(ctx, "abc-123"); err != nil {
		t.Fatalf("first Resolve returned error: %v", err)
	}
	if _, err := r.Resolve(ctx, "abc-123"); err != nil {
		t.Fatalf("second Resolve returned error: %v", err)
	}

	if mappings.getCalls != 1 {
		t.Errorf("storage lookups = %d, want 1 (second resolve should hit the cache)", mappings.getCalls)
	}
}

func TestResolve_CacheInvalidatedByMutation(t *testing.T) {
	mappings := newFakeMappingStore()
	mappingCache := cache.New[*domain.MappingRecord](time.Minute)
	r := newResolver(mappings, mappingCache)
	owner := testOwner()
	svc := service.NewProfileOptionService(&fakeOptionStore{}, mappings, mappingCache, observability.NewMetrics(), zap.NewNop())
	ctx := context.Background()

	if _, err := svc.Add(ctx, owner, domain.KindWebsite, "Portfolio", "https://example.com"); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if _, err := r.Resolve(ctx, owner.QRID); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	second, err := svc.Add(ctx, owner, domain.KindEmail, "Work mail", "me@example.com")
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if _, err := svc.SetActive(ctx, owner, second.ID); err != nil {
		t.Fatalf("SetActive returned error: %v", err)
	}

	rec, err := r.Resolve(ctx, owner.QRID)
	if err != nil {
		t.Fatalf("Resolve after switch returned error: %v", err)
	}
	if rec.Kind != domain.KindEmail {
		t.Errorf("resolved kind after switch = %q, want %q (stale cache?)", rec.Kind, domain.KindEmail)
	}
}

func TestResolve_StorageErrorPropagates(t *testing.T) {
	mappings := newFakeMappingStore()
	mappings.getErr = errors.New("connection refused")
	r := newResolver(mappings, nil)

	_, err := r.Resolve(context.Background(), "abc-123")
	if err == nil {
		t.Fatal("expected error when the storage lookup fails")
	}
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		t.Error("storage failure must not be reported as NotFound")
	}
}
