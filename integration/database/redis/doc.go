// Package redis connects the optional Redis cache used for AI summaries.
//
// Redis is optional: when REDIS_URL is empty Config.Enabled reports false
// and the application runs without the summary cache.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Both redis:// and rediss:// URLs are accepted.
package redis
