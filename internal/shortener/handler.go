package shortener

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shortlinks/internal/errx"
	"github.com/sundayezeilo/shortlinks/internal/httpx"
)

// LinkRequest is the JSON body accepted by create and edit.
type LinkRequest struct {
	URL   string `json:"url"`
	Alias string `json:"alias,omitempty"`
}

// LinkResponse is the JSON form of a link.
type LinkResponse struct {
	ID             string     `json:"id"`
	Token          string     `json:"token"`
	ShortURL       string     `json:"short_url"`
	TargetURL      string     `json:"target_url"`
	ClickCount     int64      `json:"click_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
}

type listResponse struct {
	Links []LinkResponse `json:"links"`
	Count int            `json:"count"`
}

type summaryResponse struct {
	Total  int64          `json:"total"`
	Recent []LinkResponse `json:"recent"`
}

type clicksResponse struct {
	Token  string `json:"token"`
	Clicks int64  `json:"clicks"`
}

// Handler provides HTTP handlers for the link service.
type Handler struct {
	service Service
	logger  *slog.Logger
	baseURL string
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service Service
	Logger  *slog.Logger
	BaseURL string // public prefix of short URLs, e.g. "https://sho.rt"
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service: cfg.Service,
		logger:  logger,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// ShortURL composes the public URL for token.
func (h *Handler) ShortURL(token string) string {
	return h.baseURL + "/" + url.PathEscape(token)
}

func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With(
		"request_id", httpx.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

// owner returns the authenticated owner, answering 401 when there is none.
func (h *Handler) owner(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	ownerID, err := httpx.OwnerID(r.Context())
	if err != nil {
		logger.WarnContext(r.Context(), "owner missing from context")
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return uuid.Nil, false
	}
	return ownerID, true
}

// CreateLink handles POST /api/links.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	ownerID, ok := h.owner(w, r, logger)
	if !ok {
		return
	}

	req, err := httpx.DecodeJSON[LinkRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	link, err := h.service.Create(ctx, CreateLinkRequest{
		OwnerID:     ownerID,
		TargetURL:   req.URL,
		CustomAlias: req.Alias,
	})
	if err != nil {
		h.fail(ctx, w, logger, err, "create link")
		return
	}

	logger.InfoContext(ctx, "link created",
		"link_id", link.ID.String(),
		"token", link.Token,
		"custom_alias", req.Alias != "",
	)

	w.Header().Set("Location", "/api/links/"+url.PathEscape(link.Token))
	httpx.WriteJSON(w, http.StatusCreated, h.toResponse(link))
}

// GetLink handles GET /api/links/{token}. Links of other owners read as missing.
func (h *Handler) GetLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	ownerID, ok := h.owner(w, r, logger)
	if !ok {
		return
	}

	token := r.PathValue("token")
	link, err := h.service.Get(ctx, token)
	if err == nil && link.OwnerID != ownerID {
		err = errx.E("shortener.handler.GetLink", errx.NotFound, errors.New("link not found"))
	}
	if err != nil {
		h.fail(ctx, w, logger, err, "get link")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, h.toResponse(link))
}

// EditLink handles PUT /api/links/{token}.
func (h *Handler) EditLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	ownerID, ok := h.owner(w, r, logger)
	if !ok {
		return
	}

	req, err := httpx.DecodeJSON[LinkRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	token := r.PathValue("token")
	link, err := h.service.Edit(ctx, EditLinkRequest{
		OwnerID:     ownerID,
		Token:       token,
		TargetURL:   req.URL,
		CustomAlias: req.Alias,
	})
	if err != nil {
		h.fail(ctx, w, logger, err, "edit link")
		return
	}

	logger.InfoContext(ctx, "link edited",
		"link_id", link.ID.String(),
		"old_token", token,
		"token", link.Token,
	)

	httpx.WriteJSON(w, http.StatusOK, h.toResponse(link))
}

// DeleteLink handles DELETE /api/links/{token}.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	ownerID, ok := h.owner(w, r, logger)
	if !ok {
		return
	}

	token := r.PathValue("token")
	if err := h.service.Delete(ctx, ownerID, token); err != nil {
		h.fail(ctx, w, logger, err, "delete link")
		return
	}

	logger.InfoContext(ctx, "link deleted", "token", token)
	httpx.WriteNoContent(w)
}

// ListLinks handles GET /api/links?limit=N.
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	ownerID, ok := h.owner(w, r, logger)
	if !ok {
		return
	}

	var opts ListOptions
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_input", "limit must be a non-negative integer", nil)
			return
		}
		opts.Limit = limit
	}

	links, err := h.service.List(ctx, ownerID, opts)
	if err != nil {
		h.fail(ctx, w, logger, err, "list links")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, listResponse{
		Links: h.toResponses(links),
		Count: len(links),
	})
}

// Summary handles GET /api/links/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	ownerID, ok := h.owner(w, r, logger)
	if !ok {
		return
	}

	sum, err := h.service.Summary(ctx, ownerID)
	if err != nil {
		h.fail(ctx, w, logger, err, "summarize links")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, summaryResponse{
		Total:  sum.Total,
		Recent: h.toResponses(sum.Recent),
	})
}

// Clicks handles GET /api/links/{token}/clicks.
func (h *Handler) Clicks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	token := r.PathValue("token")
	n, err := h.service.Clicks(ctx, token)
	if err != nil {
		h.fail(ctx, w, logger, err, "read clicks")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, clicksResponse{Token: token, Clicks: n})
}

// ResolveLink handles GET /{token}: it counts the visit and redirects.
func (h *Handler) ResolveLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	token := r.PathValue("token")
	target, err := h.service.Resolve(ctx, token)
	if err != nil {
		h.fail(ctx, w, logger, err, "resolve link")
		return
	}

	logger.InfoContext(ctx, "token resolved",
		"token", token,
		"referer", r.Referer(),
	)

	httpx.WriteRedirect(w, r, target)
}

// fail logs err at a level that matches its kind and writes the error body.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error, action string) {
	kind := errx.KindOf(err)
	attrs := []any{
		"error", err.Error(),
		"error_kind", kind.String(),
		"operation", errx.OpOf(err),
	}

	var message string
	switch kind {
	case errx.NotFound:
		logger.WarnContext(ctx, action+": not found", attrs...)
		message = "short link doesn't exist"
	case errx.DuplicateToken:
		logger.WarnContext(ctx, action+": token taken", attrs...)
		message = "this token is already taken"
	case errx.Invalid:
		logger.WarnContext(ctx, action+": invalid input", attrs...)
	case errx.Unavailable:
		logger.ErrorContext(ctx, action+": unavailable", attrs...)
		message = "Unable to " + action + " at this time. Please try again."
	default:
		logger.ErrorContext(ctx, action+": unexpected error", attrs...)
		message = "Unable to " + action + " at this time."
	}

	httpx.WriteKindError(w, err, message)
}

func (h *Handler) toResponse(l Link) LinkResponse {
	return LinkResponse{
		ID:             l.ID.String(),
		Token:          l.Token,
		ShortURL:       h.ShortURL(l.Token),
		TargetURL:      l.TargetURL,
		ClickCount:     l.ClickCount,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
		LastAccessedAt: l.LastAccessedAt,
	}
}

func (h *Handler) toResponses(links []Link) []LinkResponse {
	out := make([]LinkResponse, 0, len(links))
	for _, l := range links {
		out = append(out, h.toResponse(l))
	}
	return out
}
