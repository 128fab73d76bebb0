package paste

import (
	"context"
	"time"
)

// Repository persists pastes. Implementations must be safe for concurrent use.
type Repository interface {
	// InTx runs fn so that repository calls made with the ctx passed to fn
	// are atomic. A ctx already inside InTx joins the running call.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	// Create inserts p. It returns ErrDuplicateID when the id is taken.
	Create(ctx context.Context, p *Paste) error
	// Get returns ErrNotFound when no paste has id.
	Get(ctx context.Context, id string) (*Paste, error)
	// IncrementViews adds one view and returns the new total.
	IncrementViews(ctx context.Context, id string) (int64, error)
	// UpdateMetadata stores AI-generated fields.
	UpdateMetadata(ctx context.Context, id string, m Metadata) error
	// Delete returns ErrNotFound when no paste has id.
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes pastes that expired before now and returns the
	// image keys of the removed rows together with the number removed.
	DeleteExpired(ctx context.Context, now time.Time) (imageKeys []string, deleted int64, err error)
}
