// Package idgen generates primary keys for link rows.
//
// Link listings order by creation time and then by id, so ids handed out by one
// generator must strictly increase. UUID v7 puts a millisecond timestamp in the
// leading bytes, and the generator rejects any value that does not sort after
// the previous one.
package idgen

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrNotIncreasing is returned when no attempt produced an id after the last one.
var ErrNotIncreasing = errors.New("id does not sort after the previous id")

// Generator hands out link ids. Implementations must be safe for concurrent use.
type Generator interface {
	Generate() (uuid.UUID, error)
}

// V7Option configures the generator returned by NewV7.
type V7Option func(*v7Gen)

// WithRetries sets how many extra attempts follow a failed one. Defaults to 1.
// Negative values are ignored.
func WithRetries(n int) V7Option {
	return func(g *v7Gen) {
		if n >= 0 {
			g.retries = n
		}
	}
}

type v7Gen struct {
	retries int
	source  func() (uuid.UUID, error)

	mu   sync.Mutex
	last uuid.UUID
}

// NewV7 returns a generator of strictly increasing UUID v7 values.
func NewV7(opts ...V7Option) Generator {
	g := &v7Gen{retries: 1, source: uuid.NewV7}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *v7Gen) Generate() (uuid.UUID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var err error
	for range g.retries + 1 {
		var id uuid.UUID
		id, err = g.source()
		if err != nil {
			continue
		}
		if bytes.Compare(id[:], g.last[:]) <= 0 {
			err = ErrNotIncreasing
			continue
		}
		g.last = id
		return id, nil
	}
	return uuid.Nil, fmt.Errorf("link id: gave up after %d attempts: %w", g.retries+1, err)
}
