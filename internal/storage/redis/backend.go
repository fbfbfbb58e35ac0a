package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sandevgo/recall/internal/core"
)

// Backend implements core.Backend over Redis: field maps as hashes, scored
// indexes as sorted sets, membership sets as sets, scalars as strings. Every
// method is a single Redis command, so each structure update is atomic
// server-side (HINCRBY for counters, never read-then-write).
type Backend struct {
	rdb *redis.Client
}

// New connects to the Redis URL (redis://[:password@]host:port/db). The
// timeout bounds every command round-trip; the store itself never blocks
// beyond it.
func New(ctx context.Context, url string, timeout time.Duration) (*Backend, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	opts.DialTimeout = timeout
	opts.ReadTimeout = timeout
	opts.WriteTimeout = timeout

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &Backend{rdb: rdb}, nil
}

func (b *Backend) PutFields(ctx context.Context, key string, fields map[string]string) error {
	return b.rdb.HSet(ctx, key, fields).Err()
}

func (b *Backend) GetFields(ctx context.Context, key string) (map[string]string, error) {
	return b.rdb.HGetAll(ctx, key).Result()
}

func (b *Backend) IncrFieldBy(ctx context.Context, key, field string, delta int64) error {
	return b.rdb.HIncrBy(ctx, key, field, delta).Err()
}

func (b *Backend) DeleteFields(ctx context.Context, key string) error {
	return b.rdb.Del(ctx, key).Err()
}

func (b *Backend) IndexPut(ctx context.Context, index, id string, score float64) error {
	return b.rdb.ZAdd(ctx, index, redis.Z{Score: score, Member: id}).Err()
}

func (b *Backend) IndexScore(ctx context.Context, index, id string) (float64, bool, error) {
	score, err := b.rdb.ZScore(ctx, index, id).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return score, true, nil
}

func (b *Backend) IndexRangeAsc(ctx context.Context, index string, offset, count int64) ([]core.ScoredID, error) {
	zs, err := b.rdb.ZRangeWithScores(ctx, index, offset, rangeStop(offset, count)).Result()
	if err != nil {
		return nil, err
	}
	return toScoredIDs(zs), nil
}

func (b *Backend) IndexRangeDesc(ctx context.Context, index string, offset, count int64) ([]core.ScoredID, error) {
	zs, err := b.rdb.ZRevRangeWithScores(ctx, index, offset, rangeStop(offset, count)).Result()
	if err != nil {
		return nil, err
	}
	return toScoredIDs(zs), nil
}

func (b *Backend) IndexRemove(ctx context.Context, index, id string) error {
	return b.rdb.ZRem(ctx, index, id).Err()
}

func (b *Backend) IndexCard(ctx context.Context, index string) (int64, error) {
	return b.rdb.ZCard(ctx, index).Result()
}

func (b *Backend) IndexTrim(ctx context.Context, index string, keep int64) error {
	return b.rdb.ZRemRangeByRank(ctx, index, 0, -(keep + 1)).Err()
}

func (b *Backend) SetAdd(ctx context.Context, set, id string) error {
	return b.rdb.SAdd(ctx, set, id).Err()
}

func (b *Backend) SetRemove(ctx context.Context, set, id string) error {
	return b.rdb.SRem(ctx, set, id).Err()
}

func (b *Backend) SetMembers(ctx context.Context, set string) ([]string, error) {
	return b.rdb.SMembers(ctx, set).Result()
}

func (b *Backend) SetCard(ctx context.Context, set string) (int64, error) {
	return b.rdb.SCard(ctx, set).Result()
}

func (b *Backend) GetValue(ctx context.Context, key string) (string, bool, error) {
	value, err := b.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (b *Backend) PutValue(ctx context.Context, key, value string) error {
	return b.rdb.Set(ctx, key, value, 0).Err()
}

func (b *Backend) Close() error {
	return b.rdb.Close()
}

// rangeStop converts an offset+count pair to a Redis inclusive stop rank;
// count < 0 reads to the end.
func rangeStop(offset, count int64) int64 {
	if count < 0 {
		return -1
	}
	return offset + count - 1
}

func toScoredIDs(zs []redis.Z) []core.ScoredID {
	entries := make([]core.ScoredID, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, core.ScoredID{ID: member, Score: z.Score})
	}
	return entries
}
