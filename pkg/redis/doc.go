// Package redis connects to Redis with go-redis and exposes a readiness check.
//
// The engine keeps per-job pause flags in Redis, so the client is shared by
// every replica:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	pauses := execlog.NewRedisPauseStore(client)
//
// Connect retries the initial ping RetryAttempts times, RetryInterval apart,
// within ConnectTimeout.
package redis
