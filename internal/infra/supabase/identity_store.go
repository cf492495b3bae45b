package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/qrlink/qrlink-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// IdentityStore implementation — users + refresh_tokens via PostgREST
// ============================================================

// userRow maps the users table columns.
type userRow struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	QRID         string `json:"qr_id"`
	PasswordHash string `json:"password_hash"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{ID: r.ID, Email: r.Email, QRID: r.QRID}
}

func (c *Client) getUser(ctx context.Context, filter string) (*userRow, error) {
	body, err := c.doGet(ctx, "users?"+filter+"&limit=1")
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/users", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, nil
	}

	var rows []userRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/users", Err: fmt.Errorf("decode users: %w", err)}
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// GetUserByEmail returns nil, nil when no account exists; not found is
// not an error for auth lookups.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByEmail")
	defer span.End()

	row, err := c.getUser(ctx, "email=eq."+url.QueryEscape(email))
	if err != nil || row == nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (c *Client) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByID")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	row, err := c.getUser(ctx, "id=eq."+url.QueryEscape(userID))
	if err != nil || row == nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// CreateUser inserts the account row. The QR identifier is bound to the
// account here, once, and never reassigned.
func (c *Client) CreateUser(ctx context.Context, user *domain.User, passwordHash string) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateUser")
	defer span.End()

	row := map[string]any{
		"id":            user.ID,
		"email":         user.Email,
		"qr_id":         user.QRID,
		"password_hash": passwordHash,
		"created_at":    time.Now().Format(time.RFC3339),
	}
	if _, err := c.doPost(ctx, "users", row); err != nil {
		return &domain.ErrExternalService{Service: "supabase/users", Err: err}
	}
	return nil
}

func (c *Client) GetPasswordHash(ctx context.Context, userID string) (string, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetPasswordHash")
	defer span.End()

	row, err := c.getUser(ctx, "id=eq."+url.QueryEscape(userID))
	if err != nil {
		return "", err
	}
	if row == nil {
		return "", &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	return row.PasswordHash, nil
}

// --- Refresh tokens ---

// tokenRow maps the refresh_tokens table columns.
type tokenRow struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	TokenHash string `json:"token_hash"`
	ExpiresAt string `json:"expires_at"`
	Revoked   bool   `json:"revoked"`
}

func (c *Client) StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	ctx, span := tracer.Start(ctx, "Supabase.StoreRefreshToken")
	defer span.End()

	row := map[string]any{
		"id":         uuid.New().String(),
		"user_id":    userID,
		"token_hash": tokenHash,
		"expires_at": expiresAt.Format(time.RFC3339),
		"revoked":    false,
	}
	if _, err := c.doPost(ctx, "refresh_tokens", row); err != nil {
		return &domain.ErrExternalService{Service: "supabase/tokens", Err: err}
	}
	return nil
}

func (c *Client) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetRefreshToken")
	defer span.End()

	path := fmt.Sprintf("refresh_tokens?token_hash=eq.%s&revoked=eq.false&limit=1", url.QueryEscape(tokenHash))
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/tokens", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, nil
	}

	var rows []tokenRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/tokens", Err: fmt.Errorf("decode refresh_tokens: %w", err)}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	r := rows[0]
	expiresAt, _ := time.Parse(time.RFC3339, r.ExpiresAt)
	return &domain.RefreshToken{
		ID:        r.ID,
		UserID:    r.UserID,
		TokenHash: r.TokenHash,
		ExpiresAt: expiresAt,
		Revoked:   r.Revoked,
	}, nil
}

func (c *Client) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeRefreshToken")
	defer span.End()

	path := fmt.Sprintf("refresh_tokens?token_hash=eq.%s", url.QueryEscape(tokenHash))
	if err := c.doPatch(ctx, path, map[string]any{"revoked": true}); err != nil {
		return &domain.ErrExternalService{Service: "supabase/tokens", Err: err}
	}
	return nil
}

func (c *Client) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeAllRefreshTokens")
	defer span.End()

	path := fmt.Sprintf("refresh_tokens?user_id=eq.%s&revoked=eq.false", url.QueryEscape(userID))
	if err := c.doPatch(ctx, path, map[string]any{"revoked": true}); err != nil {
		return &domain.ErrExternalService{Service: "supabase/tokens", Err: err}
	}
	return nil
}
