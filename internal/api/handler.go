package api

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/dustebin/core/binder"
	"github.com/dmitrymomot/dustebin/core/handler"
	"github.com/dmitrymomot/dustebin/core/logger"
	"github.com/dmitrymomot/dustebin/core/response"
	"github.com/dmitrymomot/dustebin/core/router"
	"github.com/dmitrymomot/dustebin/internal/paste"
	"github.com/dmitrymomot/dustebin/pkg/qrcode"
)

// DefaultMetadataTimeout bounds how long a metadata stream waits for the
// AI result before reporting a timeout.
const DefaultMetadataTimeout = 30 * time.Second

// PasteService is the paste domain as used by the HTTP layer.
type PasteService interface {
	Create(ctx context.Context, in paste.CreateInput) (*paste.Created, error)
	Get(ctx context.Context, id, password string) (*paste.View, error)
	Raw(ctx context.Context, id, password string, confirmBurn bool) (*paste.Raw, error)
	Burn(ctx context.Context, id string) error
	Image(ctx context.Context, id, password string) (*paste.Image, error)
	Download(ctx context.Context, id, password, format string) (*paste.Image, error)
	Formats(ctx context.Context, id, password string) ([]paste.Format, error)
	CleanupExpired(ctx context.Context) (int64, error)
	WatchMetadata(ctx context.Context, id string) (paste.Metadata, <-chan paste.Metadata, func(), error)
}

var noStoreHeaders = map[string]string{
	"Cache-Control": "no-store, max-age=0, must-revalidate",
	"Pragma":        "no-cache",
	"Expires":       "0",
}

// Handler serves the paste API.
type Handler struct {
	pastes          PasteService
	cfg             Config
	log             *slog.Logger
	metadataTimeout time.Duration
	clock           func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithMetadataTimeout sets how long metadata streams wait for a result.
func WithMetadataTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.metadataTimeout = d
		}
	}
}

// WithClock overrides the time source used for response timestamps.
func WithClock(clock func() time.Time) Option {
	return func(h *Handler) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewHandler creates a Handler over pastes.
func NewHandler(pastes PasteService, cfg Config, opts ...Option) *Handler {
	h := &Handler{
		pastes:          pastes,
		cfg:             cfg,
		log:             logger.Discard(),
		metadataTimeout: DefaultMetadataTimeout,
		clock:           time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.cfg.QRSize <= 0 {
		h.cfg.QRSize = qrcode.DefaultSize
	}
	return h
}

type pasteParams struct {
	ID       string `path:"id"`
	Password string `query:"password"`
	Confirm  bool   `query:"confirm"`
	Format   string `query:"format"`
}

// params binds the paste id and query options. X-Password wins over the
// password query parameter.
func params(r *http.Request) (pasteParams, error) {
	var p pasteParams
	if err := binder.All(r, &p, binder.Path(chi.URLParam), binder.Query()); err != nil {
		return p, err
	}
	if pw := r.Header.Get("X-Password"); pw != "" {
		p.Password = pw
	}
	return p, nil
}

// fail renders err, logging it when it is not an expected domain error.
func (h *Handler) fail(ctx *router.Context, err error, msg string) handler.Response {
	if herr, ok := httpError(err); ok {
		return response.Error(herr)
	}
	if !errors.Is(err, context.Canceled) {
		h.log.ErrorContext(ctx, msg, logger.Error(err))
	}
	return response.Error(err)
}

func (h *Handler) create(ctx *router.Context) handler.Response {
	var in paste.CreateInput
	if err := binder.JSON(h.cfg.MaxBodySize)(ctx.Request(), &in); err != nil {
		return h.fail(ctx, err, "Failed to bind request")
	}

	created, err := h.pastes.Create(ctx, in)
	if err != nil {
		return h.fail(ctx, err, "Failed to create paste")
	}

	h.log.InfoContext(ctx, "paste created",
		logger.PasteID(created.ID),
		slog.String("language", created.Language),
		slog.Bool("has_password", created.HasPassword),
	)
	return response.JSONWithStatus(created, http.StatusCreated)
}

func (h *Handler) get(ctx *router.Context) handler.Response {
	p, err := params(ctx.Request())
	if err != nil {
		return h.fail(ctx, err, "Failed to bind request")
	}

	view, err := h.pastes.Get(ctx, p.ID, p.Password)
	if err != nil {
		return h.fail(ctx, err, "Failed to get paste")
	}
	return response.WithHeaders(response.JSON(view), noStoreHeaders)
}

func (h *Handler) raw(ctx *router.Context) handler.Response {
	p, err := params(ctx.Request())
	if err != nil {
		return response.StringWithStatus("Invalid request", http.StatusBadRequest)
	}

	raw, err := h.pastes.Raw(ctx, p.ID, p.Password, p.Confirm)
	if err != nil {
		return h.rawError(ctx, err)
	}

	if raw.RedirectToDownload {
		return response.Redirect("/api/pastes/" + url.PathEscape(raw.ID) + "/download")
	}

	headers := map[string]string{
		"Content-Disposition":  mime.FormatMediaType("inline", map[string]string{"filename": raw.Filename}),
		"X-Burn-After-Reading": strconv.FormatBool(raw.BurnAfterRead),
	}
	for k, v := range noStoreHeaders {
		headers[k] = v
	}
	return response.WithHeaders(response.String(raw.Content), headers)
}

// rawError answers in plain text so the endpoint stays usable from curl.
func (h *Handler) rawError(ctx *router.Context, err error) handler.Response {
	herr, ok := httpError(err)
	if !ok {
		h.log.ErrorContext(ctx, "Failed to read raw paste", logger.Error(err))
		herr = response.ErrInternalServerError
	}

	switch {
	case errors.Is(err, paste.ErrIncorrectPassword):
		herr.Message = "Invalid password"
	case errors.Is(err, paste.ErrBurnConfirmationRequired):
		return response.WithHeaders(
			response.StringWithStatus(herr.Message, herr.Status),
			map[string]string{"X-Burn-After-Reading": "true"},
		)
	}
	return response.StringWithStatus(herr.Message, herr.Status)
}

func (h *Handler) burn(ctx *router.Context) handler.Response {
	p, err := params(ctx.Request())
	if err != nil {
		return h.fail(ctx, err, "Failed to bind request")
	}

	if err := h.pastes.Burn(ctx, p.ID); err != nil {
		return h.fail(ctx, err, "Failed to burn paste")
	}
	return response.JSON(map[string]any{
		"success": true,
		"message": "Paste has been burned",
	})
}

func (h *Handler) image(ctx *router.Context) handler.Response {
	p, err := params(ctx.Request())
	if err != nil {
		return h.fail(ctx, err, "Failed to bind request")
	}

	img, err := h.pastes.Image(ctx, p.ID, p.Password)
	if err != nil {
		return h.fail(ctx, err, "Failed to get image")
	}
	return response.WithImmutableCache(response.Bytes(img.Data, img.MimeType))
}

func (h *Handler) download(ctx *router.Context) handler.Response {
	p, err := params(ctx.Request())
	if err != nil {
		return h.fail(ctx, err, "Failed to bind request")
	}

	img, err := h.pastes.Download(ctx, p.ID, p.Password, p.Format)
	if err != nil {
		return h.fail(ctx, err, "Failed to download paste")
	}
	return response.WithCache(
		response.Attachment(response.Bytes(img.Data, img.MimeType), img.Filename),
		365*24*time.Hour,
	)
}

func (h *Handler) formats(ctx *router.Context) handler.Response {
	p, err := params(ctx.Request())
	if err != nil {
		return h.fail(ctx, err, "Failed to bind request")
	}

	formats, err := h.pastes.Formats(ctx, p.ID, p.Password)
	if err != nil {
		return h.fail(ctx, err, "Failed to get image formats")
	}
	return response.JSON(map[string]any{"formats": formats})
}

// metadataEvent is one SSE payload of the metadata stream. Status extends
// paste.AIStatus with "timeout" and "error".
type metadataEvent struct {
	Status      string `json:"status"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Message     string `json:"message,omitempty"`
}

func eventFrom(md paste.Metadata) metadataEvent {
	return metadataEvent{Status: string(md.Status), Title: md.Title, Description: md.Description}
}

// metadata streams the AI status of a paste: the current state first and,
// while pending, the final result or a timeout. The stream then ends.
func (h *Handler) metadata(ctx *router.Context) handler.Response {
	id := ctx.Param("id")
	events := make(chan any, 2)

	md, updates, stop, err := h.pastes.WatchMetadata(ctx, id)
	if err != nil {
		msg := "Paste not found"
		if !errors.Is(err, paste.ErrNotFound) {
			h.log.ErrorContext(ctx, "Failed to load paste metadata", logger.PasteID(id), logger.Error(err))
			msg = "Failed to load metadata"
		}
		events <- metadataEvent{Status: "error", Message: msg}
		close(events)
		return response.SSE(events, response.WithoutKeepAlive())
	}

	events <- eventFrom(md)
	if updates == nil {
		close(events)
		return response.SSE(events, response.WithoutKeepAlive())
	}

	go func() {
		defer close(events)
		defer stop()

		timer := time.NewTimer(h.metadataTimeout)
		defer timer.Stop()

		select {
		case md, ok := <-updates:
			if ok {
				events <- eventFrom(md)
			}
		case <-timer.C:
			events <- metadataEvent{Status: "timeout"}
		case <-ctx.Done():
		}
	}()

	return response.SSE(events, response.WithSSEErrorHandler(func(c context.Context, err error) {
		h.log.DebugContext(c, "metadata stream closed", logger.PasteID(id), logger.Error(err))
	}))
}

func (h *Handler) qr(ctx *router.Context) handler.Response {
	id := ctx.Param("id")
	target := strings.TrimRight(h.cfg.PublicURL, "/") + "/" + url.PathEscape(id)

	png, err := qrcode.Generate(target, h.cfg.QRSize)
	if err != nil {
		return h.fail(ctx, err, "Failed to generate QR code")
	}
	return response.WithImmutableCache(response.Bytes(png, "image/png"))
}

func (h *Handler) languages(ctx *router.Context) handler.Response {
	return response.JSON(map[string]any{"languages": paste.Languages()})
}

func (h *Handler) cleanup(ctx *router.Context) handler.Response {
	deleted, err := h.pastes.CleanupExpired(ctx)
	if err != nil {
		return h.fail(ctx, err, "Failed to clean up expired pastes")
	}

	h.log.InfoContext(ctx, "expired pastes removed", logger.Component("admin"), logger.Count("deleted", int(deleted)))
	return response.JSON(map[string]any{
		"success":   true,
		"deleted":   deleted,
		"timestamp": h.clock().UTC().Format(time.RFC3339),
	})
}
