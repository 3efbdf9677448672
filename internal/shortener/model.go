package shortener

import (
	"time"

	"github.com/google/uuid"
)

// Link maps a token to the URL it redirects to.
// Token is stored bare; the public short URL is composed from configuration.
type Link struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	Token          string
	TargetURL      string
	ClickCount     int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastAccessedAt *time.Time
}

// Summary is the overview shown to an owner: how many links they have and
// the most recently created ones.
type Summary struct {
	Total  int64
	Recent []Link
}
