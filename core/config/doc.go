// Package config loads environment configuration into tagged structs.
//
// A .env file in the working directory is read once, then every struct type
// is parsed with caarlos0/env on first use and cached, so components can
// call Load for their own Config without re-reading the environment:
//
//	var cfg app.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// Nested structs are parsed recursively, which is how the application
// aggregates server, pg, redis, s3, rate limit and paste settings in one
// type. Reset clears the cache in tests that set variables with t.Setenv.
package config
