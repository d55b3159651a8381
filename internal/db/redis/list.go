package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/tenantrag/internal/db"
)

// PushCapped appends value and trims the list to its newest maxLen entries.
// A non-positive maxLen leaves the list untrimmed.
func (s *Store) PushCapped(ctx context.Context, key string, value []byte, maxLen int64) error {
	push := s.b().Rpush().Key(key).Element(rueidis.BinaryString(value)).Build()
	if maxLen <= 0 {
		if err := s.do(ctx, push).Error(); err != nil {
			return &db.Error{Op: db.OpRPush, Err: err}
		}
		return nil
	}

	trim := s.b().Ltrim().Key(key).Start(-maxLen).Stop(-1).Build()
	results := s.client.DoMulti(ctx, push, trim)
	if err := results[0].Error(); err != nil {
		return &db.Error{Op: db.OpRPush, Err: err}
	}
	if err := results[1].Error(); err != nil {
		return &db.Error{Op: db.OpLTrim, Err: err}
	}
	return nil
}

// Range returns list entries between start and stop inclusive.
func (s *Store) Range(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	cmd := s.b().Lrange().Key(key).Start(start).Stop(stop).Build()
	items, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpLRange, Err: err}
	}
	out := make([][]byte, len(items))
	for i, it := range items {
		out[i] = []byte(it)
	}
	return out, nil
}
