package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/qrlink/qrlink-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// OptionStore implementation — profile_options table via PostgREST
// ============================================================

// optionRow maps the profile_options table columns to our domain.
type optionRow struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Kind      string `json:"kind"`
	Label     string `json:"label"`
	Value     string `json:"value"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

func (r optionRow) toDomain() domain.ProfileOption {
	createdAt, _ := time.Parse(time.RFC3339, r.CreatedAt)
	return domain.ProfileOption{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Kind:      domain.OptionKind(r.Kind),
		Label:     r.Label,
		Value:     r.Value,
		IsActive:  r.IsActive,
		CreatedAt: createdAt,
	}
}

// ListOptions returns the owner's options in creation order.
func (c *Client) ListOptions(ctx context.Context, ownerID string) ([]domain.ProfileOption, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListOptions")
	defer span.End()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	path := fmt.Sprintf("profile_options?owner_id=eq.%s&order=created_at.asc", url.QueryEscape(ownerID))
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/options", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.ProfileOption{}, nil
	}

	var rows []optionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/options", Err: fmt.Errorf("decode profile_options: %w", err)}
	}

	options := make([]domain.ProfileOption, 0, len(rows))
	for _, r := range rows {
		options = append(options, r.toDomain())
	}
	return options, nil
}

// GetOption returns nil, nil when the option does not exist for this owner.
func (c *Client) GetOption(ctx context.Context, ownerID, optionID string) (*domain.ProfileOption, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetOption")
	defer span.End()
	span.SetAttributes(attribute.String("option.id", optionID))

	path := fmt.Sprintf("profile_options?id=eq.%s&owner_id=eq.%s&limit=1",
		url.QueryEscape(optionID), url.QueryEscape(ownerID))
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/options", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, nil
	}

	var rows []optionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/options", Err: fmt.Errorf("decode profile_options: %w", err)}
	}
	if len(rows) == 0 {
		return nil, nil
	}
	opt := rows[0].toDomain()
	return &opt, nil
}

// InsertOption persists a new option row.
func (c *Client) InsertOption(ctx context.Context, opt *domain.ProfileOption) error {
	ctx, span := tracer.Start(ctx, "Supabase.InsertOption")
	defer span.End()

	row := map[string]any{
		"id":         opt.ID,
		"owner_id":   opt.OwnerID,
		"kind":       string(opt.Kind),
		"label":      opt.Label,
		"value":      opt.Value,
		"is_active":  opt.IsActive,
		"created_at": opt.CreatedAt.Format(time.RFC3339),
	}
	if _, err := c.doPost(ctx, "profile_options", row); err != nil {
		return &domain.ErrExternalService{Service: "supabase/options", Err: err}
	}
	return nil
}

// DeleteOption removes an option row scoped by owner.
func (c *Client) DeleteOption(ctx context.Context, ownerID, optionID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteOption")
	defer span.End()

	path := fmt.Sprintf("profile_options?id=eq.%s&owner_id=eq.%s",
		url.QueryEscape(optionID), url.QueryEscape(ownerID))
	if err := c.doDelete(ctx, path); err != nil {
		return &domain.ErrExternalService{Service: "supabase/options", Err: err}
	}
	return nil
}

// SetActiveFlags deactivates every option of the owner and activates the
// target. PostgREST applies each PATCH atomically over the matched rows;
// serialization of concurrent writes for one owner is the backend's job.
func (c *Client) SetActiveFlags(ctx context.Context, ownerID, optionID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.SetActiveFlags")
	defer span.End()
	span.SetAttributes(attribute.String("option.id", optionID))

	if err := c.ClearActiveFlags(ctx, ownerID); err != nil {
		return err
	}

	activate := fmt.Sprintf("profile_options?id=eq.%s&owner_id=eq.%s",
		url.QueryEscape(optionID), url.QueryEscape(ownerID))
	if err := c.doPatch(ctx, activate, map[string]any{"is_active": true}); err != nil {
		return &domain.ErrExternalService{Service: "supabase/options", Err: err}
	}
	return nil
}

// ClearActiveFlags deactivates every option of the owner.
func (c *Client) ClearActiveFlags(ctx context.Context, ownerID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.ClearActiveFlags")
	defer span.End()

	deactivate := fmt.Sprintf("profile_options?owner_id=eq.%s&is_active=eq.true", url.QueryEscape(ownerID))
	if err := c.doPatch(ctx, deactivate, map[string]any{"is_active": false}); err != nil {
		return &domain.ErrExternalService{Service: "supabase/options", Err: err}
	}
	return nil
}
