package shortener

import (
	"context"

	"github.com/google/uuid"
)

// UpdateLink replaces token and target of the link owned by OwnerID.
type UpdateLink struct {
	OwnerID   uuid.UUID
	Token     string
	NewToken  string
	TargetURL string
}

// Repository defines the persistence operations for Link entities.
// Each method is a single statement against the store, so token uniqueness
// and click counting are enforced by the storage engine, never by callers.
type Repository interface {
	Create(ctx context.Context, link Link) (Link, error)
	GetByToken(ctx context.Context, token string) (Link, error)
	ResolveAndTrack(ctx context.Context, token string) (Link, error)
	Update(ctx context.Context, upd UpdateLink) (Link, error)
	Delete(ctx context.Context, ownerID uuid.UUID, token string) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]Link, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
	Clicks(ctx context.Context, token string) (int64, error)
}
