package httpx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const ownerIDContextKey contextKey = "owner_id"

// ErrNoOwner is returned when a request reaches an owner-scoped handler
// without an authenticated owner.
var ErrNoOwner = errors.New("missing authenticated owner")

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	Secret []byte
	Issuer string // optional: when set, the iss claim must match
	Logger *slog.Logger
}

// Authenticate verifies an HS256 bearer token and stores its subject, which
// must be a UUID, as the owner id of the request.
func Authenticate(cfg AuthConfig) Middleware {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ownerID, err := ownerFromRequest(parser, cfg.Secret, r)
			if err != nil {
				logger.WarnContext(r.Context(), "authentication failed",
					"request_id", GetRequestID(r.Context()),
					"path", r.URL.Path,
					"error", err.Error(),
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="shortlinks"`)
				WriteError(w, http.StatusUnauthorized, "unauthorized", "valid bearer token required", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwnerID(r.Context(), ownerID)))
		})
	}
}

func ownerFromRequest(parser *jwt.Parser, secret []byte, r *http.Request) (uuid.UUID, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return uuid.Nil, errors.New("missing bearer token")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	ownerID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("subject is not an owner id: %w", err)
	}
	if ownerID == uuid.Nil {
		return uuid.Nil, errors.New("subject is the nil uuid")
	}
	return ownerID, nil
}

// OwnerID extracts the authenticated owner id from context.
func OwnerID(ctx context.Context) (uuid.UUID, error) {
	if id, ok := ctx.Value(ownerIDContextKey).(uuid.UUID); ok && id != uuid.Nil {
		return id, nil
	}
	return uuid.Nil, ErrNoOwner
}

// WithOwnerID adds an owner id to the context.
func WithOwnerID(ctx context.Context, ownerID uuid.UUID) context.Context {
	return context.WithValue(ctx, ownerIDContextKey, ownerID)
}

// IssueToken signs a bearer token for ownerID. Account handling lives outside
// this service, so this exists for operators and tests.
func IssueToken(secret []byte, issuer string, ownerID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   ownerID.String(),
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
