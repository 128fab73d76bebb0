// Package api exposes the paste service over HTTP.
//
// Every route under /api passes the per-IP request limiter; paste creation
// additionally passes the per-IP creation limiter. Errors are rendered as
// JSON through response.JSONErrorHandler, except for the raw endpoint which
// answers in plain text.
package api
