// Package db holds the row and parameter types shared by the storage backends.
// Backends return driver errors untouched; callers classify them.
package db

import (
	"time"

	"github.com/google/uuid"
)

// TokenUniqueConstraint names the unique constraint on links.token in every backend.
const TokenUniqueConstraint = "links_token_unique"

type Link struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	Token          string
	TargetUrl      string
	ClickCount     int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastAccessedAt *time.Time
}

type CreateLinkParams struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Token     string
	TargetUrl string
}

type UpdateLinkParams struct {
	OwnerID   uuid.UUID
	Token     string
	NewToken  string
	TargetUrl string
}

type DeleteLinkParams struct {
	OwnerID uuid.UUID
	Token   string
}

// ListLinksByOwnerParams selects an owner's links, newest first.
// A Limit of zero or less returns every link.
type ListLinksByOwnerParams struct {
	OwnerID uuid.UUID
	Limit   int32
}
