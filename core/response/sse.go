package response

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrymomot/dustebin/core/handler"
)

// DefaultSSEKeepAlive is the default keep-alive interval for SSE connections.
const DefaultSSEKeepAlive = 30 * time.Second

type sseConfig struct {
	eventName   string
	reconnect   int
	keepAlive   time.Duration
	noKeepAlive bool
	onError     func(context.Context, error)
}

// EventOption configures Server-Sent Events behavior.
type EventOption func(*sseConfig)

// WithEventName sets the event name for SSE events.
func WithEventName(name string) EventOption {
	return func(s *sseConfig) {
		s.eventName = name
	}
}

// WithReconnectTime sets the client reconnection time in milliseconds.
func WithReconnectTime(milliseconds int) EventOption {
	return func(s *sseConfig) {
		s.reconnect = milliseconds
	}
}

// WithKeepAlive sets the keep-alive interval.
func WithKeepAlive(interval time.Duration) EventOption {
	return func(s *sseConfig) {
		s.keepAlive = interval
	}
}

// WithoutKeepAlive disables keep-alive comments.
func WithoutKeepAlive() EventOption {
	return func(s *sseConfig) {
		s.noKeepAlive = true
	}
}

// WithSSEErrorHandler sets a callback for streaming errors.
func WithSSEErrorHandler(fn func(context.Context, error)) EventOption {
	return func(s *sseConfig) {
		s.onError = fn
	}
}

// SSE streams values received from events until the channel is closed or the
// client goes away. Strings and byte slices are sent as is, anything else as JSON.
func SSE(events <-chan any, opts ...EventOption) handler.Response {
	cfg := &sseConfig{keepAlive: DefaultSSEKeepAlive}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, req *http.Request) error {
		flusher, ok := w.(http.Flusher)
		if !ok {
			return ErrInternalServerError.WithMessage("streaming unsupported")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		report := func(err error) {
			if cfg.onError != nil {
				cfg.onError(req.Context(), err)
			}
		}

		if cfg.reconnect > 0 {
			if _, err := fmt.Fprintf(w, "retry: %d\n\n", cfg.reconnect); err != nil {
				report(fmt.Errorf("write retry: %w", err))
				return nil
			}
		}
		if _, err := io.WriteString(w, ": connected\n\n"); err != nil {
			report(fmt.Errorf("write connection message: %w", err))
			return nil
		}
		flusher.Flush()

		var (
			ticker    *time.Ticker
			keepAlive <-chan time.Time
		)
		if !cfg.noKeepAlive && cfg.keepAlive > 0 {
			ticker = time.NewTicker(cfg.keepAlive)
			keepAlive = ticker.C
			defer ticker.Stop()
		}

		for {
			select {
			case <-req.Context().Done():
				return nil

			case <-keepAlive:
				if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil {
					report(fmt.Errorf("send keepalive: %w", err))
					return nil
				}
				flusher.Flush()

			case data, ok := <-events:
				if !ok {
					return nil
				}
				if ticker != nil {
					ticker.Reset(cfg.keepAlive)
				}
				if err := writeSSEEvent(w, cfg.eventName, data); err != nil {
					report(fmt.Errorf("write event: %w", err))
					continue
				}
				flusher.Flush()
			}
		}
	}
}

func writeSSEEvent(w io.Writer, eventName string, data any) error {
	if eventName != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", eventName); err != nil {
			return err
		}
	}

	var payload string
	switch v := data.(type) {
	case string:
		payload = v
	case []byte:
		payload = string(v)
	default:
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		payload = string(b)
	}

	_, err := fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
