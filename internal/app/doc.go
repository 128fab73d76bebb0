// Package app assembles dustebin from configuration: Postgres storage with
// embedded migrations, optional Redis summary cache, optional S3 image
// storage, the AI summarizer chain, the per-IP rate limiters and the HTTP API.
//
//	a, err := app.NewApp(ctx)
//	if err != nil {
//		return err
//	}
//	return a.Run(ctx)
package app
