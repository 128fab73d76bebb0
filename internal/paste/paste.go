package paste

import "time"

// AIStatus tracks asynchronous title/description generation.
type AIStatus string

const (
	AIStatusPending   AIStatus = "pending"
	AIStatusCompleted AIStatus = "completed"
	AIStatusFailed    AIStatus = "failed"
)

// Type distinguishes text from image pastes.
type Type string

const (
	TypeText  Type = "text"
	TypeImage Type = "image"
)

// Size limits.
const (
	MaxContentSize       = 1 << 20
	MaxImageSize         = 50 << 20
	CompressionThreshold = 1 << 10
)

// Paste is the stored representation. Content holds the stored bytes, which
// are zstd frames when IsCompressed is set.
type Paste struct {
	ID            string
	Content       []byte
	IsCompressed  bool
	Language      string
	Title         string
	Description   string
	AIStatus      AIStatus
	CreatedAt     time.Time
	ExpiresAt     *time.Time
	PasswordHash  string
	Views         int64
	BurnAfterRead bool

	HasImage       bool
	ImageKey       string
	ImageURL       string
	ImageMimeType  string
	OriginalFormat string
	ImageWidth     int
	ImageHeight    int
	ImageSize      int64
}

// HasPassword reports whether the paste is password protected.
func (p *Paste) HasPassword() bool {
	return p.PasswordHash != ""
}

// Expired reports whether the paste expired at now.
func (p *Paste) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && p.ExpiresAt.Before(now)
}

// CreateInput is the payload of a paste creation request.
type CreateInput struct {
	Content        string `json:"content"`
	Language       string `json:"language"`
	Expiration     string `json:"expiration"`
	Password       string `json:"password"`
	Image          string `json:"image"`
	OriginalFormat string `json:"originalFormat"`
	PasteType      Type   `json:"pasteType"`
}

// Created is returned after a successful Create.
type Created struct {
	ID          string     `json:"id"`
	Language    string     `json:"language"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	HasPassword bool       `json:"hasPassword"`
}

// View is a paste as presented to readers. When RequiresPassword is set only
// the header fields are populated.
type View struct {
	ID               string     `json:"id"`
	Content          string     `json:"content,omitempty"`
	Language         string     `json:"language"`
	Title            string     `json:"title,omitempty"`
	Description      string     `json:"description,omitempty"`
	AIStatus         AIStatus   `json:"aiStatus,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	ExpiresAt        *time.Time `json:"expiresAt"`
	HasPassword      bool       `json:"hasPassword"`
	RequiresPassword bool       `json:"requiresPassword,omitempty"`
	Views            int64      `json:"views,omitempty"`
	BurnAfterRead    bool       `json:"burnAfterRead"`

	HasImage       bool   `json:"hasImage,omitempty"`
	ImageURL       string `json:"imageUrl,omitempty"`
	ImageMimeType  string `json:"imageMimeType,omitempty"`
	OriginalFormat string `json:"originalFormat,omitempty"`
	ImageWidth     int    `json:"imageWidth,omitempty"`
	ImageHeight    int    `json:"imageHeight,omitempty"`
	ImageSize      int64  `json:"imageSize,omitempty"`
}

// Raw is the plain-text rendition of a paste.
type Raw struct {
	ID            string
	Content       string
	Filename      string
	BurnAfterRead bool
	// RedirectToDownload is set for image pastes, which have no text body.
	RedirectToDownload bool
}

// Metadata is the AI-generated part of a paste.
type Metadata struct {
	Status      AIStatus `json:"status"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
}
