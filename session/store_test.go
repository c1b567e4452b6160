package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T) (*RedisStore, *miniredis.Miniredis, *redis.Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, "rt")
	return store, mr, rdb, func() {
		rdb.Close()
		mr.Close()
	}
}

func testRecord(tokenID, userID string) *Record {
	now := time.Now()
	return &Record{
		TokenID:   tokenID,
		Token:     "header.payload." + tokenID,
		UserID:    userID,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(7 * 24 * time.Hour).Unix(),
	}
}

func TestCreateLookupRoundTrip(t *testing.T) {
	store, mr, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()
	rec := testRecord("tok-1", "u-1")

	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Lookup(ctx, "tok-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if *got != *rec {
		t.Fatalf("lookup mismatch: got %+v want %+v", got, rec)
	}

	ttl := mr.TTL(store.key("tok-1"))
	if ttl <= 6*24*time.Hour || ttl > 7*24*time.Hour {
		t.Fatalf("unexpected record ttl %v", ttl)
	}
}

func TestCreateRejectsInvalidRecords(t *testing.T) {
	store, _, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Create(ctx, nil); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord for nil, got %v", err)
	}
	missing := testRecord("", "u-1")
	if err := store.Create(ctx, missing); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord for empty token id, got %v", err)
	}
	expired := testRecord("tok-x", "u-1")
	expired.ExpiresAt = time.Now().Add(-time.Second).Unix()
	if err := store.Create(ctx, expired); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord for expired record, got %v", err)
	}
}

func TestLookupMissingIsNotFound(t *testing.T) {
	store, _, _, done := newRedisStoreTest(t)
	defer done()

	if _, err := store.Lookup(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLookupCorruptBlob(t *testing.T) {
	store, _, rdb, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := rdb.Set(ctx, store.key("bad"), []byte{9, 9, 9}, time.Minute).Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.Lookup(ctx, "bad"); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestDeleteAllByOwnerRemovesEveryRecord(t *testing.T) {
	store, _, rdb, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	for _, id := range []string{"tok-a", "tok-b", "tok-c"} {
		if err := store.Create(ctx, testRecord(id, "u-1")); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if err := store.Create(ctx, testRecord("tok-other", "u-2")); err != nil {
		t.Fatalf("create other: %v", err)
	}

	n, err := store.DeleteAllByOwner(ctx, "u-1")
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 deleted, got %d", n)
	}

	for _, id := range []string{"tok-a", "tok-b", "tok-c"} {
		if _, err := store.Lookup(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected %s revoked, got %v", id, err)
		}
	}
	if _, err := store.Lookup(ctx, "tok-other"); err != nil {
		t.Fatalf("other user's record must survive: %v", err)
	}

	members, err := rdb.SMembers(ctx, store.userKey("u-1")).Result()
	if err != nil {
		t.Fatalf("smembers: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("expected empty user index, got %v", members)
	}

	n, err = store.DeleteAllByOwner(ctx, "u-1")
	if err != nil || n != 0 {
		t.Fatalf("second delete all: n=%d err=%v", n, err)
	}
}

func TestDeleteByTokenIDIdempotent(t *testing.T) {
	store, _, rdb, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Create(ctx, testRecord("tok-1", "u-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, testRecord("tok-2", "u-1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.DeleteByTokenID(ctx, "tok-1"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := store.DeleteByTokenID(ctx, "tok-1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	members, err := rdb.SMembers(ctx, store.userKey("u-1")).Result()
	if err != nil {
		t.Fatalf("smembers: %v", err)
	}
	if len(members) != 1 || members[0] != "tok-2" {
		t.Fatalf("expected only tok-2 indexed, got %v", members)
	}
}

func TestActiveTokenIDsSkipsExpiredKeys(t *testing.T) {
	store, mr, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Create(ctx, testRecord("tok-1", "u-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	short := testRecord("tok-2", "u-1")
	short.ExpiresAt = time.Now().Add(2 * time.Second).Unix()
	if err := store.Create(ctx, short); err != nil {
		t.Fatalf("create short: %v", err)
	}

	mr.FastForward(time.Minute)

	ids, err := store.ActiveTokenIDs(ctx, "u-1")
	if err != nil {
		t.Fatalf("active ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != "tok-1" {
		t.Fatalf("expected only tok-1 active, got %v", ids)
	}
}

func TestConcurrentCreateAndBulkDelete(t *testing.T) {
	store, _, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.Create(ctx, testRecord(fmt.Sprintf("tok-%d", i), "u-1"))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent create: %v", err)
		}
	}

	ids, err := store.ActiveTokenIDs(ctx, "u-1")
	if err != nil {
		t.Fatalf("active ids: %v", err)
	}
	if len(ids) != n {
		t.Fatalf("expected %d records, got %d", n, len(ids))
	}

	var deleted int
	var mu sync.Mutex
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := store.DeleteAllByOwner(ctx, "u-1")
			if err != nil {
				t.Errorf("delete all: %v", err)
				return
			}
			mu.Lock()
			deleted += c
			mu.Unlock()
		}()
	}
	wg.Wait()

	if deleted != n {
		t.Fatalf("expected %d deletions across sweeps, got %d", n, deleted)
	}
}

func TestStoreUnavailableWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	store := NewRedisStore(rdb, "")
	mr.Close()
	ctx := context.Background()

	if err := store.Create(ctx, testRecord("tok-1", "u-1")); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("create: expected ErrUnavailable, got %v", err)
	}
	if _, err := store.Lookup(ctx, "tok-1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("lookup: expected ErrUnavailable, got %v", err)
	}
	if _, err := store.DeleteAllByOwner(ctx, "u-1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("delete all: expected ErrUnavailable, got %v", err)
	}
	if err := store.Ping(ctx); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("ping: expected ErrUnavailable, got %v", err)
	}
}

func TestCreateExtendsIndexTTLOnly(t *testing.T) {
	store, mr, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	short := testRecord("tok-1", "u-1")
	short.ExpiresAt = time.Now().Add(time.Hour).Unix()
	if err := store.Create(ctx, short); err != nil {
		t.Fatalf("create short: %v", err)
	}
	if ttl := mr.TTL(store.userKey("u-1")); ttl <= 59*time.Minute || ttl > time.Hour {
		t.Fatalf("unexpected index ttl after first create %v", ttl)
	}

	if err := store.Create(ctx, testRecord("tok-2", "u-1")); err != nil {
		t.Fatalf("create long: %v", err)
	}
	if ttl := mr.TTL(store.userKey("u-1")); ttl <= 6*24*time.Hour {
		t.Fatalf("index ttl not extended: %v", ttl)
	}

	shorter := testRecord("tok-3", "u-1")
	shorter.ExpiresAt = time.Now().Add(time.Minute).Unix()
	if err := store.Create(ctx, shorter); err != nil {
		t.Fatalf("create shorter: %v", err)
	}
	if ttl := mr.TTL(store.userKey("u-1")); ttl <= 6*24*time.Hour {
		t.Fatalf("index ttl lowered by a shorter record: %v", ttl)
	}

	mr.FastForward(8 * 24 * time.Hour)
	if mr.Exists(store.userKey("u-1")) {
		t.Fatal("index outlived every record")
	}
}
