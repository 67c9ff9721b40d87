package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key layout for the presence caches the worker maintains. Day
// tallies expire on their own once the day is long closed.
const (
	lastSeenKey    = "timeclock:lastseen"
	checkInsPrefix = "timeclock:checkins:"
	tallyTTL       = 48 * time.Hour
)

// Redis wraps the shared client plus the employee presence caches.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts; a check-in must not
// hang on a slow cache.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		ClientName:   "timeclock",
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// Close releases the client's connections.
func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

// RecordActivity updates the last-seen hash for the employee and, for
// check-ins, bumps the day's tally. Both writes ride one pipeline.
func (r *Redis) RecordActivity(ctx context.Context, employeeID string, day time.Time, checkIn bool) error {
	pipe := r.Client.Pipeline()
	pipe.HSet(ctx, lastSeenKey, employeeID, time.Now().Unix())
	if checkIn {
		key := checkInsKey(day)
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, tallyTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// CheckInTally returns the number of check-ins recorded for day, zero
// when the tally has expired or never existed.
func (r *Redis) CheckInTally(ctx context.Context, day time.Time) (int64, error) {
	n, err := r.Client.Get(ctx, checkInsKey(day)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

func checkInsKey(day time.Time) string {
	return checkInsPrefix + day.Format("2006-01-02")
}
