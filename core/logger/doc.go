// Package logger provides structured logging built on log/slog.
//
// It offers environment presets, context-aware attribute extraction and a set
// of attribute helpers so that every component logs with the same keys.
//
// # Basic Usage
//
//	log := logger.New(logger.WithDevelopment("dustebin"))
//
//	log.Info("server starting",
//		logger.Component("server"),
//		logger.Event("startup"),
//	)
//
// Presets:
//
//	logger.WithDevelopment("dustebin") // text, debug level
//	logger.WithStaging("dustebin")     // JSON, info level
//	logger.WithProduction("dustebin")  // JSON, info level
//
// # Context-Aware Logging
//
// Extractors run on every *Context call and append attributes found in the context:
//
//	log := logger.New(
//		logger.WithProduction("dustebin"),
//		logger.WithContextExtractors(middleware.RequestIDExtractor),
//	)
//	log.InfoContext(r.Context(), "paste created", logger.PasteID(id))
//	// {"msg":"paste created","paste_id":"k3J9xq2A.go","request_id":"..."}
//
// # Attribute Helpers
//
//	log.Error("failed to store paste",
//		logger.Error(err),
//		logger.Component("paste"),
//		logger.PasteID(id),
//	)
//
//	log.Info("request",
//		logger.Method(r.Method),
//		logger.Path(r.URL.Path),
//		logger.StatusCode(status),
//		logger.ClientIP(ip),
//		logger.Elapsed(start),
//	)
//
// Error and identifier helpers return an empty attribute for nil or empty
// input, which slog drops.
package logger
