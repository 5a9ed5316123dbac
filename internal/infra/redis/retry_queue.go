package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vietddude/rankcheck/internal/core/domain"
)

// entryTTL bounds how long a crashed run leaves its queue behind.
const entryTTL = 24 * time.Hour

// RetryQueueRepo implements storage.RetryQueueRepository using Redis.
//
// Queue order lives in a sorted set scored by an increasing sequence; the
// member is the entry key, which makes enqueue idempotent.
type RetryQueueRepo struct {
	rdb   *redis.Client
	runID string
}

// NewRetryQueueRepo creates a retry queue scoped to one run.
func NewRetryQueueRepo(client *Client, runID string) *RetryQueueRepo {
	return &RetryQueueRepo{
		rdb:   client.rdb,
		runID: runID,
	}
}

// Key helpers
func (r *RetryQueueRepo) queueKey() string {
	return fmt.Sprintf("retry_queue:%s", r.runID)
}

func (r *RetryQueueRepo) seqKey() string {
	return fmt.Sprintf("retry_seq:%s", r.runID)
}

func (r *RetryQueueRepo) exhaustedKey() string {
	return fmt.Sprintf("retry_exhausted:%s", r.runID)
}

func (r *RetryQueueRepo) entryKey(key string) string {
	return fmt.Sprintf("retry_entry:%s:%s", r.runID, key)
}

// Enqueue adds an entry unless one with the same key is already queued.
func (r *RetryQueueRepo) Enqueue(
	ctx context.Context,
	entry domain.CheckEntry,
	lastError string,
) (bool, error) {
	return r.push(ctx, &domain.RetryEntry{
		ID:        uuid.NewString(),
		Entry:     entry,
		Status:    domain.RetryStatusPending,
		LastError: lastError,
		QueuedAt:  time.Now(),
	})
}

// Requeue puts a drained entry back for the next round.
func (r *RetryQueueRepo) Requeue(ctx context.Context, re *domain.RetryEntry, lastError string) error {
	cp := *re
	cp.Round++
	cp.Status = domain.RetryStatusPending
	cp.LastError = lastError
	_, err := r.push(ctx, &cp)
	return err
}

func (r *RetryQueueRepo) push(ctx context.Context, re *domain.RetryEntry) (bool, error) {
	data, err := json.Marshal(re)
	if err != nil {
		return false, fmt.Errorf("failed to marshal retry entry: %w", err)
	}

	seq, err := r.rdb.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return false, fmt.Errorf("incr failed: %w", err)
	}

	key := re.Entry.Key()
	added, err := r.rdb.ZAddNX(ctx, r.queueKey(), redis.Z{
		Score:  float64(seq),
		Member: key,
	}).Result()
	if err != nil {
		return false, fmt.Errorf("failed to add to queue: %w", err)
	}
	if added == 0 {
		return false, nil
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, r.entryKey(key), data, entryTTL)
	pipe.Expire(ctx, r.queueKey(), entryTTL)
	pipe.Expire(ctx, r.seqKey(), entryTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to store retry entry: %w", err)
	}
	return true, nil
}

// Drain removes and returns every queued entry, oldest first.
func (r *RetryQueueRepo) Drain(ctx context.Context) ([]*domain.RetryEntry, error) {
	keys, err := r.rdb.ZRange(ctx, r.queueKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange failed: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	entries := make([]*domain.RetryEntry, 0, len(keys))
	dataKeys := make([]string, 0, len(keys))
	members := make([]any, 0, len(keys))
	for _, key := range keys {
		dataKeys = append(dataKeys, r.entryKey(key))
		members = append(members, key)

		data, err := r.rdb.Get(ctx, r.entryKey(key)).Bytes()
		if err == redis.Nil {
			// Data expired but key still queued
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get retry entry: %w", err)
		}

		var re domain.RetryEntry
		if err := json.Unmarshal(data, &re); err != nil {
			return nil, fmt.Errorf("failed to unmarshal retry entry: %w", err)
		}
		entries = append(entries, &re)
	}

	pipe := r.rdb.TxPipeline()
	pipe.ZRem(ctx, r.queueKey(), members...)
	pipe.Del(ctx, dataKeys...)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear drained entries: %w", err)
	}

	return entries, nil
}

// MarkExhausted appends the entry to the run's exhausted list.
func (r *RetryQueueRepo) MarkExhausted(ctx context.Context, re *domain.RetryEntry) error {
	cp := *re
	cp.Status = domain.RetryStatusExhausted
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal retry entry: %w", err)
	}

	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, r.exhaustedKey(), data)
	pipe.Expire(ctx, r.exhaustedKey(), entryTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to mark exhausted: %w", err)
	}
	return nil
}

// Len returns the count of queued entries.
func (r *RetryQueueRepo) Len(ctx context.Context) (int, error) {
	count, err := r.rdb.ZCard(ctx, r.queueKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return int(count), nil
}

// Exhausted returns the entries that ran out of rounds.
func (r *RetryQueueRepo) Exhausted(ctx context.Context) ([]*domain.RetryEntry, error) {
	raw, err := r.rdb.LRange(ctx, r.exhaustedKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange failed: %w", err)
	}

	out := make([]*domain.RetryEntry, 0, len(raw))
	for _, item := range raw {
		var re domain.RetryEntry
		if err := json.Unmarshal([]byte(item), &re); err != nil {
			continue
		}
		out = append(out, &re)
	}
	return out, nil
}

// Clear removes all keys of the run.
func (r *RetryQueueRepo) Clear(ctx context.Context) error {
	keys, err := r.rdb.ZRange(ctx, r.queueKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("zrange failed: %w", err)
	}
	del := []string{r.queueKey(), r.seqKey(), r.exhaustedKey()}
	for _, key := range keys {
		del = append(del, r.entryKey(key))
	}
	return r.rdb.Del(ctx, del...).Err()
}
