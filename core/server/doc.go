// Package server wraps http.Server with graceful shutdown, env-driven
// configuration and an errgroup-friendly Run method.
//
// # Usage
//
//	var cfg server.Config
//	config.MustLoad(&cfg)
//
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, router))
//	return g.Wait()
//
// Run returns nil once ctx is canceled and handlers have drained. Request
// contexts are canceled as soon as shutdown begins, which ends open event
// streams. Addr reports the bound address while running, so ":0" works in
// tests.
//
// # Configuration
//
//	SERVER_ADDR                 listen address (":8080")
//	SERVER_READ_HEADER_TIMEOUT  5s
//	SERVER_READ_TIMEOUT         30s, large enough for image uploads
//	SERVER_WRITE_TIMEOUT        45s, longer than the metadata stream
//	SERVER_IDLE_TIMEOUT         60s
//	SERVER_SHUTDOWN_TIMEOUT     15s
//	SERVER_MAX_HEADER_BYTES     64 KiB
//	SERVER_TLS_CERT_FILE / SERVER_TLS_KEY_FILE  optional TLS
package server
