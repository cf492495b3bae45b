// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/qrlink/qrlink-go/internal/domain"
)

// OptionStore persists profile options, scoped by owner.
// Implemented by the Supabase adapter (or any other persistence layer).
type OptionStore interface {
	// ListOptions returns the owner's options in creation order.
	ListOptions(ctx context.Context, ownerID string) ([]domain.ProfileOption, error)
	// GetOption returns nil, nil when the option does not exist or belongs
	// to a different owner.
	GetOption(ctx context.Context, ownerID, optionID string) (*domain.ProfileOption, error)
	InsertOption(ctx context.Context, opt *domain.ProfileOption) error
	DeleteOption(ctx context.Context, ownerID, optionID string) error
	// SetActiveFlags deactivates every option of the owner, then activates
	// the target. Serialization of writes for one owner is delegated to
	// the storage backend.
	SetActiveFlags(ctx context.Context, ownerID, optionID string) error
	// ClearActiveFlags deactivates every option of the owner.
	ClearActiveFlags(ctx context.Context, ownerID string) error
}

// MappingStore persists the denormalized resolution records, keyed by
// canonical QR identifier. This is the single source of truth for the
// redirect-time lookup: there are no secondary locations to fall back to.
type MappingStore interface {
	// GetMapping returns nil, nil when no record exists for the identifier.
	GetMapping(ctx context.Context, qrID string) (*domain.MappingRecord, error)
	// ReplaceMapping removes any record for rec.QRID and inserts rec.
	// A concurrent read between the two operations may observe no record.
	ReplaceMapping(ctx context.Context, rec *domain.MappingRecord) error
	DeleteMapping(ctx context.Context, qrID string) error
}

// IdentityStore persists user accounts and refresh tokens.
type IdentityStore interface {
	// GetUserByEmail returns nil, nil when no account exists.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User, passwordHash string) error
	GetPasswordHash(ctx context.Context, userID string) (string, error)

	StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
