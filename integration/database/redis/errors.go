package redis

import "errors"

var (
	ErrEmptyURL          = errors.New("redis: REDIS_URL is empty")
	ErrParseURL          = errors.New("redis: invalid connection url")
	ErrNotReady          = errors.New("redis: not ready after retries")
	ErrHealthcheckFailed = errors.New("redis: healthcheck failed")
)
