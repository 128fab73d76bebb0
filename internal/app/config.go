package app

import (
	"github.com/dmitrymomot/dustebin/core/server"
	"github.com/dmitrymomot/dustebin/integration/database/pg"
	"github.com/dmitrymomot/dustebin/integration/database/redis"
	"github.com/dmitrymomot/dustebin/integration/storage/s3"
	"github.com/dmitrymomot/dustebin/internal/api"
	"github.com/dmitrymomot/dustebin/internal/paste"
	"github.com/dmitrymomot/dustebin/pkg/ratelimiter"
	"github.com/dmitrymomot/dustebin/pkg/summarizer"
	"github.com/dmitrymomot/dustebin/pkg/viewcache"
)

// Config aggregates the settings of every component.
type Config struct {
	Server    server.Config
	DB        pg.Config
	Redis     redis.Config
	Storage   s3.Config
	AI        summarizer.Config
	RateLimit ratelimiter.Config
	Views     viewcache.Config
	Paste     paste.Config
	API       api.Config

	AppName  string `env:"APP_NAME" envDefault:"dustebin"`
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}
