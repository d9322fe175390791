package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/soportec/triage-service/internal/config"
)

// Redis wraps the go-redis client. Besides connectivity it provides
// the scheduler lock and the hourly assignment counters.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// AcquireLock takes a named lock with SET NX. The boolean is false when
// another holder owns the lock; the TTL bounds a crashed holder.
func (r *Redis) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if r == nil || r.Client == nil {
		return false, errors.New("redis client not configured")
	}
	return r.Client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

// ReleaseLock drops a named lock.
func (r *Redis) ReleaseLock(ctx context.Context, key string) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Del(ctx, key).Err()
}

// BucketCount is one hourly counter reading.
type BucketCount struct {
	Hour  time.Time
	Count int64
}

// IncrementHourBucket counts one event in the current hour's bucket.
// Buckets expire after the retention window plus slack.
func (r *Redis) IncrementHourBucket(ctx context.Context, prefix string, at time.Time, retention time.Duration) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	key := bucketKey(prefix, at)
	pipe := r.Client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, retention+time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

// HourBuckets reads the last n hourly buckets ending at now, oldest first.
func (r *Redis) HourBuckets(ctx context.Context, prefix string, hours int, now time.Time) ([]BucketCount, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("redis client not configured")
	}
	if hours <= 0 {
		hours = 24
	}
	buckets := make([]BucketCount, 0, hours)
	for i := hours - 1; i >= 0; i-- {
		hour := now.Add(-time.Duration(i) * time.Hour).UTC().Truncate(time.Hour)
		count, err := r.Client.Get(ctx, bucketKey(prefix, hour)).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		buckets = append(buckets, BucketCount{Hour: hour, Count: count})
	}
	return buckets, nil
}

func bucketKey(prefix string, at time.Time) string {
	return fmt.Sprintf("%s:%s", prefix, at.UTC().Format("2006010215"))
}
