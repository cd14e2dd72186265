// internal/app/limiter.go
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"
)

// Limiter caps lookup submissions per client within a fixed window.
// Student number, name, birth date and phone digits are all guessable, so
// unbounded attempts would turn the form into an enumeration oracle.
type Limiter struct {
	enabled     bool
	redis       *redis.Client
	keyTemplate string
	maxAttempts int64
	window      time.Duration
}

func NewLimiter(config *Config) (*Limiter, error) {
	if !config.RateLimit.Enabled {
		return &Limiter{enabled: false}, nil
	}

	opt, err := redis.ParseURL(config.RateLimit.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Limiter{
		enabled:     true,
		redis:       client,
		keyTemplate: config.RateLimit.KeyTemplate,
		maxAttempts: config.RateLimit.MaxAttempts,
		window:      time.Duration(config.RateLimit.WindowSeconds) * time.Second,
	}, nil
}

func (l *Limiter) Close() error {
	if l.redis != nil {
		return l.redis.Close()
	}
	return nil
}

func (l *Limiter) key(client string) string {
	return strings.NewReplacer("{client}", client).Replace(l.keyTemplate)
}

// Allow records one attempt for client and reports whether it is still
// within the limit.
func (l *Limiter) Allow(ctx context.Context, client string) (bool, error) {
	if !l.enabled {
		return true, nil
	}

	key := l.key(client)

	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}

	// -1 means the key has no expiry, either fresh or left behind by a
	// failed Expire; re-arm it so the window always ends
	if ttl.Val() < 0 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("redis error: %w", err)
		}
	}

	count := incr.Val()
	if count > l.maxAttempts {
		logger.Debug.Printf("Lookup attempts exceeded for key %s: %d/%d", key, count, l.maxAttempts)
		return false, nil
	}
	return true, nil
}
