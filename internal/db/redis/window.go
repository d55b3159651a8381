package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/tenantrag/internal/db"
)

// WindowAdd trims, adds, counts and expires in a single DoMulti round trip.
func (s *Store) WindowAdd(
	ctx context.Context, key, member string, score, cutoff int64, ttl time.Duration,
) (int64, error) {
	ops := [...]string{db.OpZRemRangeByScore, db.OpZAdd, db.OpZCard, db.OpPExpire}
	results := s.client.DoMulti(ctx,
		s.b().Zremrangebyscore().Key(key).Min("-inf").Max(strconv.FormatInt(cutoff, 10)).Build(),
		s.b().Zadd().Key(key).ScoreMember().ScoreMember(float64(score), member).Build(),
		s.b().Zcard().Key(key).Build(),
		s.b().Pexpire().Key(key).Milliseconds(ttl.Milliseconds()).Build(),
	)
	if len(results) != len(ops) {
		return 0, &db.Error{Op: db.OpZAdd, Err: fmt.Errorf("key %s: got %d replies", key, len(results))}
	}
	for i, res := range results {
		if err := res.Error(); err != nil {
			return 0, &db.Error{Op: ops[i], Err: fmt.Errorf("key %s: %w", key, err)}
		}
	}

	n, err := results[2].AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpZCard, Err: err}
	}
	return n, nil
}

// WindowRemove deletes a single member from the window.
func (s *Store) WindowRemove(ctx context.Context, key, member string) error {
	cmd := s.b().Zrem().Key(key).Member(member).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZRem, Err: err}
	}
	return nil
}

// WindowCount counts members scored strictly above cutoff.
func (s *Store) WindowCount(ctx context.Context, key string, cutoff int64) (int64, error) {
	cmd := s.b().Zcount().Key(key).Min("(" + strconv.FormatInt(cutoff, 10)).Max("+inf").Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpZCount, Err: err}
	}
	return n, nil
}
