// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/duo/internal/models"
	"github.com/redis/go-redis/v9"
)

// Connect opens a Redis client and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// ActionQueue is a Redis list of JSON action records. Hosts push with Record,
// the historian pops with Pop.
type ActionQueue struct {
	Client *redis.Client
	Name   string
}

// Record serializes the record to JSON and pushes it onto the queue.
func (q *ActionQueue) Record(ctx context.Context, rec models.ActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	if err := q.Client.RPush(ctx, q.Name, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.Name, err)
	}
	return nil
}

// Pop blocks up to timeout for the next record. It returns false when the
// timeout passes with the queue empty.
func (q *ActionQueue) Pop(ctx context.Context, timeout time.Duration) (models.ActionRecord, bool, error) {
	var rec models.ActionRecord
	res, err := q.Client.BLPop(ctx, timeout, q.Name).Result()
	if errors.Is(err, redis.Nil) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, fmt.Errorf("BLPop %s: %w", q.Name, err)
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return rec, false, nil
	}
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		return rec, false, fmt.Errorf("invalid action record: %w", err)
	}
	return rec, true, nil
}
