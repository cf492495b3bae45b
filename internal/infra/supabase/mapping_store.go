package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/qrlink/qrlink-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// MappingStore implementation — qr_mappings table via PostgREST
// ============================================================
//
// One row per QR identifier, keyed by the canonical form. The row is the
// single authoritative resolution record: the resolver never scans option
// lists or consults secondary locations.

// mappingRow maps the qr_mappings table columns.
type mappingRow struct {
	QRID    string `json:"qr_id"`
	OwnerID string `json:"owner_id"`
	Kind    string `json:"kind"`
	Label   string `json:"label"`
	Value   string `json:"value"`
}

// GetMapping performs the redirect-time point lookup. Returns nil, nil
// when no record exists for the identifier.
func (c *Client) GetMapping(ctx context.Context, qrID string) (*domain.MappingRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetMapping")
	defer span.End()
	span.SetAttributes(attribute.String("qr.id", qrID))

	path := fmt.Sprintf("qr_mappings?qr_id=eq.%s&limit=1", url.QueryEscape(qrID))
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/mappings", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, nil
	}

	var rows []mappingRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/mappings", Err: fmt.Errorf("decode qr_mappings: %w", err)}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	r := rows[0]
	return &domain.MappingRecord{
		QRID:    r.QRID,
		OwnerID: r.OwnerID,
		Kind:    domain.OptionKind(r.Kind),
		Label:   r.Label,
		Value:   r.Value,
	}, nil
}

// ReplaceMapping removes any existing record for rec.QRID and inserts the
// new snapshot. The two operations are sequential, not transactional: a
// concurrent resolve between them may see NotFound, which is the
// documented consistency model. A stale duplicate is never left behind.
func (c *Client) ReplaceMapping(ctx context.Context, rec *domain.MappingRecord) error {
	ctx, span := tracer.Start(ctx, "Supabase.ReplaceMapping")
	defer span.End()
	span.SetAttributes(attribute.String("qr.id", rec.QRID))

	if err := c.doDelete(ctx, fmt.Sprintf("qr_mappings?qr_id=eq.%s", url.QueryEscape(rec.QRID))); err != nil {
		return &domain.ErrExternalService{Service: "supabase/mappings", Err: err}
	}

	row := map[string]any{
		"qr_id":    rec.QRID,
		"owner_id": rec.OwnerID,
		"kind":     string(rec.Kind),
		"label":    rec.Label,
		"value":    rec.Value,
	}
	if _, err := c.doPost(ctx, "qr_mappings", row); err != nil {
		return &domain.ErrExternalService{Service: "supabase/mappings", Err: err}
	}
	return nil
}

// DeleteMapping removes the record with no replacement; the resolver
// subsequently reports NotFound for the identifier.
func (c *Client) DeleteMapping(ctx context.Context, qrID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteMapping")
	defer span.End()
	span.SetAttributes(attribute.String("qr.id", qrID))

	if err := c.doDelete(ctx, fmt.Sprintf("qr_mappings?qr_id=eq.%s", url.QueryEscape(qrID))); err != nil {
		return &domain.ErrExternalService{Service: "supabase/mappings", Err: err}
	}
	return nil
}
