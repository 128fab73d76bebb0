package paste

import "time"

// Config holds paste service settings.
type Config struct {
	CleanupInterval        time.Duration `env:"PASTE_CLEANUP_INTERVAL" envDefault:"1h"`
	CleanupShutdownTimeout time.Duration `env:"PASTE_CLEANUP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MetadataTimeout        time.Duration `env:"PASTE_METADATA_TIMEOUT" envDefault:"30s"`
	SummaryTimeout         time.Duration `env:"PASTE_SUMMARY_TIMEOUT" envDefault:"45s"`
}
