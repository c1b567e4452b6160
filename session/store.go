package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const deleteRecordScript = `
local existed = redis.call("EXISTS", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
if existed == 1 then
  redis.call("DEL", KEYS[1])
end
return existed
`

var deleteRecordLua = redis.NewScript(deleteRecordScript)

// extendIndexScript raises the index TTL to ARGV[1] ms and never lowers it.
// A freshly created set has no TTL (PTTL -1) and always gets one.
const extendIndexScript = `
local ttl = redis.call("PTTL", KEYS[1])
if ttl >= tonumber(ARGV[1]) then
  return 0
end
redis.call("PEXPIRE", KEYS[1], ARGV[1])
return 1
`

// RedisStore is a Redis-backed refresh-token store. Each record lives under its
// own key with a TTL matching the token, and a per-user set indexes the
// token ids so logout can revoke them in bulk. The index expires with the
// longest-lived record it has seen.
//
// RedisStore is safe for concurrent use.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a [RedisStore] on client. prefix sets the key
// namespace and defaults to "rt".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "rt"
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *RedisStore) key(tokenID string) string {
	return s.prefix + ":" + tokenID
}

func (s *RedisStore) userKey(userID string) string {
	return s.prefix + "u:" + userID
}

// Create persists rec and indexes it under its owner.
//
//	Performance: 1 MULTI/EXEC (SET + SADD + index TTL script).
func (s *RedisStore) Create(ctx context.Context, rec *Record) error {
	now := s.now()
	if err := rec.Check(now); err != nil {
		return err
	}
	data, err := Encode(rec)
	if err != nil {
		return errors.Join(ErrInvalidRecord, err)
	}

	ttl := time.Unix(rec.ExpiresAt, 0).Sub(now)
	if ttl < time.Second {
		ttl = time.Second
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(rec.TokenID), data, ttl)
		pipe.SAdd(ctx, s.userKey(rec.UserID), rec.TokenID)
		pipe.Eval(ctx, extendIndexScript, []string{s.userKey(rec.UserID)}, ttl.Milliseconds())
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// Lookup returns the live record for tokenID or [ErrNotFound].
//
//	Performance: 1 Redis GET.
func (s *RedisStore) Lookup(ctx context.Context, tokenID string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(tokenID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	rec, err := Decode(data)
	if err != nil {
		return nil, errors.Join(ErrCorrupt, err)
	}
	if rec.Expired(s.now()) {
		return nil, ErrNotFound
	}

	return rec, nil
}

// DeleteByTokenID removes a single record. Deleting a missing record is not
// an error.
func (s *RedisStore) DeleteByTokenID(ctx context.Context, tokenID string) error {
	data, err := s.redis.Get(ctx, s.key(tokenID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	rec, err := Decode(data)
	if err != nil {
		// Without an owner the index entry cannot be found; drop the blob only.
		if delErr := s.redis.Del(ctx, s.key(tokenID)).Err(); delErr != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, delErr)
		}
		return nil
	}

	if err := deleteRecordLua.Run(ctx, s.redis, []string{s.key(tokenID), s.userKey(rec.UserID)}, tokenID).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// DeleteAllByOwner removes every record owned by userID and returns how many
// live records were deleted.
//
// ATOMICITY NOTE: the index is read with SMEMBERS and then swept in one
// MULTI/EXEC. A record created between the two steps survives this call; it
// stays indexed and is removed by the next sweep or by its own TTL.
func (s *RedisStore) DeleteAllByOwner(ctx context.Context, userID string) (int, error) {
	userKey := s.userKey(userID)

	tokenIDs, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(tokenIDs) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		keys = append(keys, s.key(tokenID))
	}

	var deleted *redis.IntCmd
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, keys...)
		pipe.SRem(ctx, userKey, toAny(tokenIDs)...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return int(deleted.Val()), nil
}

// ActiveTokenIDs returns the token ids indexed for userID whose records still exist.
func (s *RedisStore) ActiveTokenIDs(ctx context.Context, userID string) ([]string, error) {
	tokenIDs, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(tokenIDs) == 0 {
		return []string{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.IntCmd, len(tokenIDs))
	for i, tokenID := range tokenIDs {
		cmds[i] = pipe.Exists(ctx, s.key(tokenID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	out := make([]string, 0, len(tokenIDs))
	for i, cmd := range cmds {
		if cmd.Val() == 1 {
			out = append(out, tokenIDs[i])
		}
	}
	return out, nil
}

// Ping checks that Redis answers.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func toAny(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
