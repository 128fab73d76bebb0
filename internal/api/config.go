package api

// Config holds HTTP API settings.
type Config struct {
	// PublicURL is the externally visible base URL, used for QR codes.
	PublicURL   string `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	AdminAPIKey string `env:"ADMIN_API_KEY"`
	// MaxBodySize bounds paste creation bodies. Images arrive base64 encoded,
	// so it sits above paste.MaxImageSize.
	MaxBodySize int64 `env:"API_MAX_BODY_SIZE" envDefault:"73400320"`
	QRSize      int   `env:"API_QR_SIZE" envDefault:"256"`

	// CORSOrigins lists origins allowed to call the API from a browser.
	// Empty allows any origin.
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	CORSMaxAge  int      `env:"CORS_MAX_AGE" envDefault:"600"`
	HSTS        string   `env:"SECURITY_HSTS"`
}
