package paste

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/dustebin/core/logger"
	"github.com/dmitrymomot/dustebin/integration/storage/s3"
	"github.com/dmitrymomot/dustebin/pkg/async"
	"github.com/dmitrymomot/dustebin/pkg/broadcast"
	"github.com/dmitrymomot/dustebin/pkg/summarizer"
)

const maxIDAttempts = 5

// ImageStore holds uploaded image bytes. *s3.Storage implements it.
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (*s3.Object, error)
	Get(ctx context.Context, key string) ([]byte, *s3.Object, error)
	Delete(ctx context.Context, key string) error
}

// ViewCounter decides whether a view is counted. *viewcache.Cache implements it.
type ViewCounter interface {
	ShouldCount(id string) bool
}

type countAll struct{}

func (countAll) ShouldCount(string) bool { return true }

// Service implements paste operations.
type Service struct {
	repo       Repository
	images     ImageStore
	views      ViewCounter
	summarizer summarizer.Summarizer
	runner     *async.Runner
	hub        *broadcast.Hub[Metadata]
	clock      func() time.Time
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithImageStore enables image pastes.
func WithImageStore(store ImageStore) Option {
	return func(s *Service) {
		s.images = store
	}
}

// WithViewCounter sets the view debounce policy. By default every view counts.
func WithViewCounter(v ViewCounter) Option {
	return func(s *Service) {
		if v != nil {
			s.views = v
		}
	}
}

// WithSummarizer enables asynchronous title and description generation.
func WithSummarizer(sum summarizer.Summarizer) Option {
	return func(s *Service) {
		s.summarizer = sum
	}
}

// WithRunner sets the runner for background work.
func WithRunner(r *async.Runner) Option {
	return func(s *Service) {
		if r != nil {
			s.runner = r
		}
	}
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a paste service on repo.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		views:  countAll{},
		hub:    broadcast.NewHub[Metadata](1),
		clock:  time.Now,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = async.NewRunner(async.WithLogger(s.logger))
	}
	return s
}

// Shutdown waits for background work and closes metadata subscriptions.
func (s *Service) Shutdown(ctx context.Context) error {
	err := s.runner.Shutdown(ctx)
	s.hub.Close()
	return err
}

func (s *Service) validate(in *CreateInput) error {
	if in.Language == "" {
		in.Language = DefaultLanguage
	}
	if in.Expiration == "" {
		in.Expiration = ExpireNever
	}
	if in.PasteType == "" {
		in.PasteType = TypeText
	}

	verr := newValidationError()
	if len(in.Content) > MaxContentSize {
		verr.add("content", fmt.Sprintf("Content must be less than %d bytes", MaxContentSize))
	}
	if _, ok := LookupLanguage(in.Language); !ok {
		verr.add("language", "Invalid language")
	}
	if !ValidExpiration(in.Expiration) {
		verr.add("expiration", "Invalid expiration")
	}
	if len(in.Password) > 72 {
		verr.add("password", "Password must be at most 72 bytes")
	}

	switch in.PasteType {
	case TypeText:
		if in.Content == "" {
			verr.add("content", "Content is required for text pastes, image is required for image pastes")
		}
		if in.Image != "" {
			verr.add("content", "Cannot have both content and image in the same paste")
		}
	case TypeImage:
		if in.Image == "" {
			verr.add("content", "Content is required for text pastes, image is required for image pastes")
		}
		if strings.TrimSpace(in.Content) != "" {
			verr.add("content", "Cannot have both content and image in the same paste")
		}
	default:
		verr.add("pasteType", "Invalid paste type")
	}

	return verr.orNil()
}

// Create validates in, stores the paste and schedules metadata generation.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Created, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	now := s.clock()
	p := &Paste{
		Language:      in.Language,
		AIStatus:      AIStatusPending,
		CreatedAt:     now,
		ExpiresAt:     ExpiresAt(in.Expiration, now),
		BurnAfterRead: in.Expiration == ExpireBurn,
	}

	if in.Password != "" {
		hash, err := HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		p.PasswordHash = hash
	}

	ext := Extension(in.Language)
	if in.PasteType == TypeImage {
		if err := s.attachImage(ctx, p, in); err != nil {
			return nil, err
		}
		ext = formatExtension(p.OriginalFormat)
	} else {
		in.Content = FormatContent(in.Content, in.Language)
		stored, compressed, err := EncodeContent(in.Content)
		if err != nil {
			return nil, err
		}
		p.Content, p.IsCompressed = stored, compressed
	}

	if p.HasImage || s.summarizer == nil {
		md := s.staticMetadata(p, in.Language)
		p.Title, p.Description, p.AIStatus = md.Title, md.Description, md.Status
	}

	if err := s.insert(ctx, p, ext); err != nil {
		if p.ImageKey != "" {
			s.deleteImage(ctx, p.ImageKey)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "paste created",
		logger.PasteID(p.ID),
		slog.String("language", p.Language),
		slog.Bool("image", p.HasImage),
		slog.Bool("compressed", p.IsCompressed),
		slog.Bool("burn_after_read", p.BurnAfterRead),
	)

	if p.AIStatus == AIStatusPending {
		id, content, lang := p.ID, in.Content, in.Language
		s.runner.Go("paste.metadata", func(ctx context.Context) error {
			return s.generateMetadata(ctx, id, content, lang)
		})
	}

	return &Created{
		ID:          p.ID,
		Language:    p.Language,
		CreatedAt:   p.CreatedAt,
		ExpiresAt:   p.ExpiresAt,
		HasPassword: p.HasPassword(),
	}, nil
}

func (s *Service) insert(ctx context.Context, p *Paste, ext string) error {
	for range maxIDAttempts {
		id, err := randomID()
		if err != nil {
			return err
		}
		p.ID = id + "." + ext

		err = s.repo.Create(ctx, p)
		if !errors.Is(err, ErrDuplicateID) {
			return err
		}
	}
	return ErrDuplicateID
}

func (s *Service) attachImage(ctx context.Context, p *Paste, in CreateInput) error {
	if s.images == nil {
		return ErrImagesDisabled
	}

	up, err := DecodeUpload(in.Image)
	if err != nil {
		verr := newValidationError()
		verr.add("image", err.Error())
		return verr
	}

	key := "images/" + uuid.NewString() + "." + up.Extension()
	obj, err := s.images.Put(ctx, key, up.Data, up.MimeType)
	if err != nil {
		return fmt.Errorf("upload image: %w", err)
	}

	format := strings.ToLower(strings.TrimSpace(in.OriginalFormat))
	if format == "" {
		format = up.Format
	}

	p.HasImage = true
	p.ImageKey = obj.Key
	p.ImageURL = obj.URL
	p.ImageMimeType = up.MimeType
	p.OriginalFormat = format
	p.ImageWidth = up.Width
	p.ImageHeight = up.Height
	p.ImageSize = int64(len(up.Data))
	return nil
}

func (s *Service) staticMetadata(p *Paste, lang string) Metadata {
	if p.HasImage {
		return Metadata{
			Status:      AIStatusCompleted,
			Title:       strings.ToUpper(formatExtension(p.OriginalFormat)) + " Image",
			Description: fmt.Sprintf("%dx%d image", p.ImageWidth, p.ImageHeight),
		}
	}
	fb := summarizer.FallbackSummary(lang)
	return Metadata{Status: AIStatusCompleted, Title: fb.Title, Description: fb.Description}
}

// generateMetadata runs outside the request. The result is persisted first
// and then published to metadata subscribers.
func (s *Service) generateMetadata(ctx context.Context, id, content, lang string) error {
	md := Metadata{Status: AIStatusCompleted}

	sum, err := s.summarizer.Summarize(ctx, content, lang)
	if err != nil {
		s.logger.WarnContext(ctx, "metadata generation failed", logger.PasteID(id), logger.Error(err))
		md = Metadata{Status: AIStatusFailed}
	} else {
		md.Title, md.Description = sum.Title, sum.Description
	}

	if uerr := s.repo.UpdateMetadata(ctx, id, md); uerr != nil {
		if errors.Is(uerr, ErrNotFound) {
			return nil
		}
		md = Metadata{Status: AIStatusFailed}
		s.hub.Publish(id, md)
		return fmt.Errorf("store metadata for %s: %w", id, uerr)
	}

	s.hub.Publish(id, md)
	return err
}

// load returns a live paste. Expired pastes are deleted on access.
func (s *Service) load(ctx context.Context, id string) (*Paste, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Expired(s.clock()) {
		s.remove(ctx, p)
		return nil, ErrExpired
	}
	return p, nil
}

// access runs fn on a live paste inside a repository transaction. An
// expired paste is removed once the transaction has ended.
func (s *Service) access(ctx context.Context, id string, fn func(ctx context.Context, p *Paste) error) (*Paste, error) {
	var expired, live *Paste
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if p.Expired(s.clock()) {
			expired = p
			return ErrExpired
		}
		if err := fn(ctx, p); err != nil {
			return err
		}
		live = p
		return nil
	})
	if expired != nil {
		s.remove(ctx, expired)
	}
	if err != nil {
		return nil, err
	}
	return live, nil
}

func (s *Service) remove(ctx context.Context, p *Paste) {
	if err := s.repo.Delete(ctx, p.ID); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.WarnContext(ctx, "failed to delete paste", logger.PasteID(p.ID), logger.Error(err))
		return
	}
	if p.ImageKey != "" {
		s.deleteImage(ctx, p.ImageKey)
	}
}

func (s *Service) deleteImage(ctx context.Context, key string) {
	if s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to delete image", logger.Key("key", key), logger.Error(err))
	}
}

// authorize checks password against p. A missing password yields
// ErrPasswordRequired.
func authorize(p *Paste, password string) error {
	if !p.HasPassword() {
		return nil
	}
	if password == "" {
		return ErrPasswordRequired
	}
	ok, err := ComparePassword(p.PasswordHash, password)
	if err != nil {
		return fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return ErrIncorrectPassword
	}
	return nil
}

func (s *Service) countView(ctx context.Context, p *Paste) {
	if !s.views.ShouldCount(p.ID) {
		return
	}
	views, err := s.repo.IncrementViews(ctx, p.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to count view", logger.PasteID(p.ID), logger.Error(err))
		return
	}
	p.Views = views
}

func header(p *Paste) *View {
	return &View{
		ID:            p.ID,
		Language:      p.Language,
		CreatedAt:     p.CreatedAt,
		ExpiresAt:     p.ExpiresAt,
		HasPassword:   p.HasPassword(),
		BurnAfterRead: p.BurnAfterRead,
	}
}

// Get returns the paste for display. Password protected pastes requested
// without a password yield a View with RequiresPassword set and no content.
// The view is counted in the same transaction that reads the paste.
func (s *Service) Get(ctx context.Context, id, password string) (*View, error) {
	var (
		content string
		locked  bool
	)
	p, err := s.access(ctx, id, func(ctx context.Context, p *Paste) error {
		if err := authorize(p, password); err != nil {
			if errors.Is(err, ErrPasswordRequired) {
				locked = true
				return nil
			}
			return err
		}

		var err error
		if content, err = DecodeContent(p.Content, p.IsCompressed); err != nil {
			return err
		}
		s.countView(ctx, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	v := header(p)
	if locked {
		v.RequiresPassword = true
		return v, nil
	}
	v.Content = content
	v.Title = p.Title
	v.Description = p.Description
	v.AIStatus = p.AIStatus
	v.Views = p.Views
	if p.HasImage {
		v.HasImage = true
		v.ImageURL = p.ImageURL
		v.ImageMimeType = p.ImageMimeType
		v.OriginalFormat = p.OriginalFormat
		v.ImageWidth = p.ImageWidth
		v.ImageHeight = p.ImageHeight
		v.ImageSize = p.ImageSize
	}
	return v, nil
}

// Raw returns the plain-text body. Burn-after-reading pastes require
// confirmBurn and are deleted in the transaction that reads them, so only
// one reader gets the content.
func (s *Service) Raw(ctx context.Context, id, password string, confirmBurn bool) (*Raw, error) {
	var raw *Raw
	p, err := s.access(ctx, id, func(ctx context.Context, p *Paste) error {
		if err := authorize(p, password); err != nil {
			return err
		}
		if p.BurnAfterRead && !confirmBurn {
			return ErrBurnConfirmationRequired
		}

		raw = &Raw{ID: p.ID, BurnAfterRead: p.BurnAfterRead}
		if p.HasImage {
			raw.RedirectToDownload = true
		} else {
			var err error
			if raw.Content, err = DecodeContent(p.Content, p.IsCompressed); err != nil {
				return err
			}
			raw.Filename = BaseID(p.ID) + "." + Extension(p.Language)
		}

		s.countView(ctx, p)
		if p.BurnAfterRead {
			return s.repo.Delete(ctx, p.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if p.BurnAfterRead {
		if p.ImageKey != "" {
			s.deleteImage(ctx, p.ImageKey)
		}
		s.logger.InfoContext(ctx, "paste burned after reading", logger.PasteID(p.ID))
	}
	return raw, nil
}

// Burn deletes a burn-after-reading paste.
func (s *Service) Burn(ctx context.Context, id string) error {
	var imageKey string
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if !p.BurnAfterRead {
			return ErrNotBurnable
		}
		imageKey = p.ImageKey
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	if imageKey != "" {
		s.deleteImage(ctx, imageKey)
	}
	s.logger.InfoContext(ctx, "paste burned", logger.PasteID(id))
	return nil
}

func (s *Service) loadImage(ctx context.Context, id, password string) (*Paste, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, password); err != nil {
		return nil, err
	}
	if !p.HasImage || p.ImageKey == "" {
		return nil, ErrNotImage
	}
	if s.images == nil {
		return nil, ErrImagesDisabled
	}
	return p, nil
}

// Image is a binary image with its MIME type.
type Image struct {
	Data      []byte
	MimeType  string
	Filename  string
	Extension string
}

// Image returns the stored image bytes of an image paste.
func (s *Service) Image(ctx context.Context, id, password string) (*Image, error) {
	p, err := s.loadImage(ctx, id, password)
	if err != nil {
		return nil, err
	}
	data, _, err := s.images.Get(ctx, p.ImageKey)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}

	mime := p.ImageMimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	ext := formatExtension(p.OriginalFormat)
	return &Image{Data: data, MimeType: mime, Extension: ext, Filename: BaseID(p.ID) + "." + ext}, nil
}

// Download returns the image in the requested format. Unknown formats
// produce JPEG; "original" returns the stored bytes unchanged.
func (s *Service) Download(ctx context.Context, id, password, format string) (*Image, error) {
	img, err := s.Image(ctx, id, password)
	if err != nil {
		return nil, err
	}

	format = NormalizeFormat(format)
	if format != FormatOriginal {
		data, mime, err := Transcode(img.Data, format)
		if err != nil {
			return nil, err
		}
		img.Data, img.MimeType, img.Extension = data, mime, format
	}
	img.Filename = "dustebin-" + BaseID(id) + "." + img.Extension
	return img, nil
}

// Formats lists the download formats with estimated sizes.
func (s *Service) Formats(ctx context.Context, id, password string) ([]Format, error) {
	p, err := s.loadImage(ctx, id, password)
	if err != nil {
		return nil, err
	}
	return EstimateFormats(p), nil
}

// CleanupExpired deletes every expired paste and its image.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	keys, deleted, err := s.repo.DeleteExpired(ctx, s.clock())
	if err != nil {
		return 0, err
	}
	for _, k := range keys {
		s.deleteImage(ctx, k)
	}
	return deleted, nil
}

// Metadata returns the current AI status of a paste.
func (s *Service) Metadata(ctx context.Context, id string) (Metadata, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{Status: p.AIStatus, Title: p.Title, Description: p.Description}, nil
}

// WatchMetadata returns the current metadata and, while it is pending, a
// channel delivering the final result. The channel is nil when the status is
// already final. Call stop to release the subscription.
func (s *Service) WatchMetadata(ctx context.Context, id string) (Metadata, <-chan Metadata, func(), error) {
	// Subscribe first so a result published between the read and the
	// subscription is not lost.
	updates, stop := s.hub.Subscribe(ctx, id)

	md, err := s.Metadata(ctx, id)
	if err != nil {
		stop()
		return Metadata{}, nil, func() {}, err
	}
	if md.Status != AIStatusPending {
		stop()
		return md, nil, func() {}, nil
	}
	return md, updates, stop, nil
}
