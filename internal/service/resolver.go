package service

import (
	"context"
	"fmt"
	"time"

	"github.com/qrlink/qrlink-go/internal/domain"
	"github.com/qrlink/qrlink-go/internal/infra/observability"
	"github.com/qrlink/qrlink-go/internal/infra/resilience"
	"github.com/qrlink/qrlink-go/internal/port"
	"github.com/qrlink/qrlink-go/internal/qrid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var resolverTracer = otel.Tracer("service/resolver")

// Resolver is the redirect-time critical path: it maps a scanned QR
// identifier to the owner's active option via one authoritative point
// lookup on the mapping table. There are no fallback strategies — the
// write path guarantees a single source of truth.
type Resolver struct {
	mappings port.MappingStore
	cache    port.Cache[*domain.MappingRecord]
	bulkhead *resilience.Bulkhead
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewResolver creates the resolver with all dependencies injected.
func NewResolver(
	mappings port.MappingStore,
	cache port.Cache[*domain.MappingRecord],
	bulkhead *resilience.Bulkhead,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		mappings: mappings,
		cache:    cache,
		bulkhead: bulkhead,
		metrics:  metrics,
		logger:   logger,
	}
}

// Resolve canonicalizes the identifier and returns the active mapping
// record. ErrNotFound is the normal terminal state for codes with no
// active option — it is counted, not logged as a failure.
func (r *Resolver) Resolve(ctx context.Context, rawQRID string) (*domain.MappingRecord, error) {
	ctx, span := resolverTracer.Start(ctx, "Resolver.Resolve")
	defer span.End()

	start := time.Now()
	defer func() { r.metrics.RecordRequestDuration("resolve", time.Since(start)) }()

	key := qrid.Canonicalize(rawQRID)
	span.SetAttributes(attribute.String("qr.id", key))

	if key == "" {
		r.metrics.IncrResolve("miss")
		return nil, &domain.ErrNotFound{Resource: "qr mapping", ID: rawQRID}
	}

	if rec, ok := r.cache.Get(key); ok {
		r.metrics.IncrCacheHit("mapping")
		r.metrics.IncrResolve("hit")
		return rec, nil
	}
	r.metrics.IncrCacheMiss("mapping")

	// Bound concurrent storage lookups; unrelated scans share nothing else.
	if err := r.bulkhead.Acquire(ctx); err != nil {
		r.metrics.IncrResolve("error")
		return nil, &domain.ErrTimeout{Operation: "resolve"}
	}
	defer r.bulkhead.Release()

	rec, err := r.mappings.GetMapping(ctx, key)
	if err != nil {
		r.metrics.IncrResolve("error")
		r.metrics.IncrExternalError("supabase/mappings")
		return nil, fmt.Errorf("mapping lookup: %w", err)
	}
	if rec == nil {
		r.metrics.IncrResolve("miss")
		r.logger.Debug("resolve miss", zap.String("qr_id", key))
		return nil, &domain.ErrNotFound{Resource: "qr mapping", ID: key}
	}

	r.cache.Set(key, rec)
	r.metrics.IncrResolve("hit")
	r.logger.Debug("resolve hit",
		zap.String("qr_id", key),
		zap.String("kind", string(rec.Kind)),
	)
	return rec, nil
}
