// Package tokengen proposes tokens for new or edited links.
// Generators have no view of stored tokens: collisions are detected by the
// store and retried by its caller.
package tokengen

import (
	"crypto/rand"
	"fmt"
	"io"
)

const (
	// Alphabet is the set random tokens are drawn from.
	Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// TokenLength is the length of every random token.
	TokenLength = 6

	// Bytes at or above this value are discarded so that b % 62 is uniform.
	rejectAbove = 256 - 256%len(Alphabet)
)

// Generator proposes a token. A non-empty alias is returned unchanged.
// Implementations must be safe for concurrent use.
type Generator interface {
	Generate(customAlias string) (string, error)
}

// Option configures a base62 generator.
type Option func(*base62Generator)

// WithReader replaces crypto/rand as the entropy source.
func WithReader(r io.Reader) Option {
	return func(g *base62Generator) {
		if r != nil {
			g.rand = r
		}
	}
}

type base62Generator struct {
	rand io.Reader
}

// NewBase62 returns a Generator producing 6 character base62 tokens.
func NewBase62(opts ...Option) Generator {
	g := &base62Generator{rand: rand.Reader}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *base62Generator) Generate(customAlias string) (string, error) {
	if customAlias != "" {
		return customAlias, nil
	}
	return g.random()
}

func (g *base62Generator) random() (string, error) {
	out := make([]byte, 0, TokenLength)
	buf := make([]byte, TokenLength*2)

	for len(out) < TokenLength {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", fmt.Errorf("read entropy: %w", err)
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == TokenLength {
				break
			}
		}
	}

	return string(out), nil
}

// IsRandomToken reports whether s has the shape of a generated token.
func IsRandomToken(s string) bool {
	if len(s) != TokenLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isAlphanumeric(s[i]) {
			return false
		}
	}
	return true
}

func isAlphanumeric(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	default:
		return false
	}
}
