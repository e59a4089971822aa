// Package orphan records remote cover assets whose cleanup failed, so a
// reconciliation job can remove them later.
package orphan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bookapi/internal/config"
)

// Reasons an asset ended up orphaned.
const (
	ReasonCreateRollback = "create_rollback"
	ReasonUpdateRollback = "update_rollback"
	ReasonSuperseded     = "superseded"
	ReasonDeleted        = "deleted"
)

// Entry describes one asset that is no longer referenced by any record.
type Entry struct {
	Handle string    `json:"handle"`
	BookID string    `json:"bookId,omitempty"`
	Reason string    `json:"reason"`
	Err    string    `json:"error,omitempty"`
	At     time.Time `json:"at"`
}

// Journal persists orphaned asset entries.
type Journal interface {
	Record(ctx context.Context, e Entry) error
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

// RedisJournal appends entries as JSON to a Redis list.
type RedisJournal struct {
	client *redis.Client
	key    string
}

var _ Journal = (*RedisJournal)(nil)

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func NewRedisJournal(client *redis.Client, key string) *RedisJournal {
	return &RedisJournal{client: client, key: key}
}

func (j *RedisJournal) Record(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := j.client.RPush(ctx, j.key, b).Err(); err != nil {
		return fmt.Errorf("journal orphaned asset %s: %w", e.Handle, err)
	}
	return nil
}

// Pending returns every journaled entry, oldest first.
func (j *RedisJournal) Pending(ctx context.Context) ([]Entry, error) {
	raw, err := j.client.LRange(ctx, j.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read orphan journal: %w", err)
	}
	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, fmt.Errorf("decode orphan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
