// Package redis provides helpers for connecting to a Redis server.
//
// It wraps the go-redis client with a retrying Connect, env-driven
// configuration and a health-check helper. The dispatch engine uses it
// for the Redis-backed dead letter store; applications embedding the
// engine can reuse the same client for their own needs.
//
// # Usage
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    // terminate, the queue cannot dead-letter without it
//	}
//	defer client.Close()
//
//	dlq, err := retry.NewRedisDeadLetter(client, "notify")
//
// Register the health check with your readiness probe:
//
//	check := redis.Healthcheck(client)
//	if err := check(ctx); err != nil {
//	    // report not ready
//	}
package redis
