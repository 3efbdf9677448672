package shortener

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shortlinks/internal/errx"
	"github.com/sundayezeilo/shortlinks/tokengen"
)

const (
	DefaultMaxTokenAttempts = 5
	MaxTokenAttempts        = 20
	MaxListLimit            = 1000
	SummaryRecentLinks      = 5
)

// ErrTokensExhausted is returned when every random token tried was already taken.
var ErrTokensExhausted = errors.New("could not allocate token")

// CreateLinkRequest represents the parameters for creating a new link.
type CreateLinkRequest struct {
	OwnerID     uuid.UUID
	TargetURL   string
	CustomAlias string // Optional: if empty, a random token is generated
}

// EditLinkRequest replaces target and token of an owned link.
// An empty CustomAlias re-rolls a random token.
type EditLinkRequest struct {
	OwnerID     uuid.UUID
	Token       string
	TargetURL   string
	CustomAlias string
}

// ListOptions bounds a listing. Zero Limit lists everything.
type ListOptions struct {
	Limit int
}

// Service defines the link operations offered to the request layer.
// The caller is expected to have authenticated OwnerID already.
type Service interface {
	Create(ctx context.Context, req CreateLinkRequest) (Link, error)
	Edit(ctx context.Context, req EditLinkRequest) (Link, error)
	Resolve(ctx context.Context, token string) (string, error)
	Get(ctx context.Context, token string) (Link, error)
	Clicks(ctx context.Context, token string) (int64, error)
	List(ctx context.Context, ownerID uuid.UUID, opts ListOptions) ([]Link, error)
	Count(ctx context.Context, ownerID uuid.UUID) (int64, error)
	Summary(ctx context.Context, ownerID uuid.UUID) (Summary, error)
	Delete(ctx context.Context, ownerID uuid.UUID, token string) error
}

type service struct {
	repo        Repository
	tokens      tokengen.Generator
	maxAttempts int
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	TokenGenerator   tokengen.Generator
	MaxTokenAttempts int // random tokens tried before giving up (default: 5)
}

// NewService creates a new service instance.
func NewService(repo Repository, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	tokens := config.TokenGenerator
	if tokens == nil {
		tokens = tokengen.NewBase62()
	}

	attempts := config.MaxTokenAttempts
	if attempts <= 0 || attempts > MaxTokenAttempts {
		attempts = DefaultMaxTokenAttempts
	}

	return &service{
		repo:        repo,
		tokens:      tokens,
		maxAttempts: attempts,
	}
}

// Create stores a new link. A custom alias is tried once; a random token is
// re-drawn on collision up to the attempt ceiling.
func (s *service) Create(ctx context.Context, req CreateLinkRequest) (Link, error) {
	const op = "shortener.service.Create"

	if err := validateOwner(req.OwnerID); err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}
	if err := validateTargetURL(req.TargetURL); err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}

	link, err := s.withToken(req.CustomAlias, func(token string) (Link, error) {
		return s.repo.Create(ctx, Link{
			OwnerID:   req.OwnerID,
			Token:     token,
			TargetURL: req.TargetURL,
		})
	})
	if err != nil {
		return Link{}, errx.Wrap(op, err)
	}
	return link, nil
}

// Edit points an owned link at a new target under a new token. The old token
// is released only when the update commits.
func (s *service) Edit(ctx context.Context, req EditLinkRequest) (Link, error) {
	const op = "shortener.service.Edit"

	if err := validateOwner(req.OwnerID); err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}
	if err := validateToken(req.Token); err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}
	if err := validateTargetURL(req.TargetURL); err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}

	link, err := s.withToken(req.CustomAlias, func(token string) (Link, error) {
		return s.repo.Update(ctx, UpdateLink{
			OwnerID:   req.OwnerID,
			Token:     req.Token,
			NewToken:  token,
			TargetURL: req.TargetURL,
		})
	})
	if err != nil {
		return Link{}, errx.Wrap(op, err)
	}
	return link, nil
}

// withToken runs write with a token from the generator. Only random tokens
// are retried, and only when write reports a duplicate.
func (s *service) withToken(alias string, write func(token string) (Link, error)) (Link, error) {
	const op = "shortener.service.allocateToken"

	if alias != "" {
		token, err := s.tokens.Generate(alias)
		if err != nil {
			return Link{}, errx.E(op, errx.Internal, err)
		}
		return write(token)
	}

	for range s.maxAttempts {
		token, err := s.tokens.Generate("")
		if err != nil {
			return Link{}, errx.E(op, errx.Unavailable, err)
		}

		link, err := write(token)
		if err == nil {
			return link, nil
		}
		if !errx.Is(err, errx.DuplicateToken) {
			return Link{}, err
		}
	}

	return Link{}, errx.E(op, errx.Unavailable, ErrTokensExhausted)
}

// Resolve returns the target of token and counts the visit.
func (s *service) Resolve(ctx context.Context, token string) (string, error) {
	const op = "shortener.service.Resolve"

	if err := validateToken(token); err != nil {
		return "", errx.E(op, errx.Invalid, err)
	}

	link, err := s.repo.ResolveAndTrack(ctx, token)
	if err != nil {
		return "", errx.Wrap(op, err)
	}
	return link.TargetURL, nil
}

func (s *service) Get(ctx context.Context, token string) (Link, error) {
	const op = "shortener.service.Get"

	if err := validateToken(token); err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}

	link, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return Link{}, errx.Wrap(op, err)
	}
	return link, nil
}

func (s *service) Clicks(ctx context.Context, token string) (int64, error) {
	const op = "shortener.service.Clicks"

	if err := validateToken(token); err != nil {
		return 0, errx.E(op, errx.Invalid, err)
	}

	n, err := s.repo.Clicks(ctx, token)
	if err != nil {
		return 0, errx.Wrap(op, err)
	}
	return n, nil
}

func (s *service) List(ctx context.Context, ownerID uuid.UUID, opts ListOptions) ([]Link, error) {
	const op = "shortener.service.List"

	if err := validateOwner(ownerID); err != nil {
		return nil, errx.E(op, errx.Invalid, err)
	}
	if opts.Limit < 0 {
		return nil, errx.E(op, errx.Invalid, errors.New("limit cannot be negative"))
	}

	links, err := s.repo.ListByOwner(ctx, ownerID, opts.Limit)
	if err != nil {
		return nil, errx.Wrap(op, err)
	}
	return links, nil
}

func (s *service) Count(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	const op = "shortener.service.Count"

	if err := validateOwner(ownerID); err != nil {
		return 0, errx.E(op, errx.Invalid, err)
	}

	n, err := s.repo.CountByOwner(ctx, ownerID)
	if err != nil {
		return 0, errx.Wrap(op, err)
	}
	return n, nil
}

// Summary reads the count and the recent links separately, so under concurrent
// writes Total and len(Recent) may reflect slightly different moments.
func (s *service) Summary(ctx context.Context, ownerID uuid.UUID) (Summary, error) {
	const op = "shortener.service.Summary"

	total, err := s.Count(ctx, ownerID)
	if err != nil {
		return Summary{}, errx.Wrap(op, err)
	}

	recent, err := s.List(ctx, ownerID, ListOptions{Limit: SummaryRecentLinks})
	if err != nil {
		return Summary{}, errx.Wrap(op, err)
	}

	return Summary{Total: total, Recent: recent}, nil
}

func (s *service) Delete(ctx context.Context, ownerID uuid.UUID, token string) error {
	const op = "shortener.service.Delete"

	if err := validateOwner(ownerID); err != nil {
		return errx.E(op, errx.Invalid, err)
	}
	if err := validateToken(token); err != nil {
		return errx.E(op, errx.Invalid, err)
	}

	if err := s.repo.Delete(ctx, ownerID, token); err != nil {
		return errx.Wrap(op, err)
	}
	return nil
}

func validateOwner(id uuid.UUID) error {
	if id == uuid.Nil {
		return errors.New("owner id is required")
	}
	return nil
}

func validateTargetURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("target url cannot be empty")
	}
	return nil
}

func validateToken(token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}
	return nil
}
