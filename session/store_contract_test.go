package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, "es", ttl)
	return store, mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	pair, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load on empty store: %v", err)
	}
	if !pair.Empty() {
		t.Fatalf("expected empty pair, got %+v", pair)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear on empty store: %v", err)
	}

	first := Pair{AccessToken: "a1", RefreshToken: "r1"}
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != first {
		t.Fatalf("load = %+v, want %+v", got, first)
	}

	second := Pair{AccessToken: "a2", RefreshToken: "r2"}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("load after overwrite: %v", err)
	}
	if got != second {
		t.Fatalf("load after overwrite = %+v, want %+v", got, second)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("load after clear: %v", err)
	}
	if !got.Empty() {
		t.Fatalf("expected empty pair after clear, got %+v", got)
	}
}

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestFileStoreContract(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"))
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	runStoreContract(t, store)
}

func TestRedisStoreContract(t *testing.T) {
	store, _, done := newRedisStoreTest(t, 0)
	defer done()
	runStoreContract(t, store)
}

func TestMemoryStoreHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewMemoryStore().Save(ctx, Pair{AccessToken: "a", RefreshToken: "r"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFileStorePermissionsAndKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := store.Save(context.Background(), Pair{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("unexpected file mode %o", perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, key := range []string{KeyAccessToken, KeyRefreshToken} {
		if !strings.Contains(string(data), key) {
			t.Fatalf("expected key %q in %s", key, data)
		}
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if _, err := store.Load(context.Background()); err == nil {
		t.Fatal("expected corrupt file to fail")
	}
}

func TestNewFileStoreRequiresPath(t *testing.T) {
	if _, err := NewFileStore(""); err == nil {
		t.Fatal("expected empty path to fail")
	}
}

func TestRedisStoreTTLAndPrefix(t *testing.T) {
	store, mr, done := newRedisStoreTest(t, time.Minute)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, Pair{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("es:" + KeyAccessToken) {
		t.Fatal("expected prefixed access token key")
	}
	if ttl := mr.TTL("es:" + KeyRefreshToken); ttl != time.Minute {
		t.Fatalf("unexpected ttl %s", ttl)
	}

	mr.FastForward(2 * time.Minute)
	pair, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !pair.Empty() {
		t.Fatalf("expected expired pair to be absent, got %+v", pair)
	}
}

func TestRedisStorePartialPair(t *testing.T) {
	store, mr, done := newRedisStoreTest(t, 0)
	defer done()

	if err := mr.Set("es:"+KeyAccessToken, "only-access"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	pair, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if pair.Complete() || pair.AccessToken != "only-access" {
		t.Fatalf("unexpected partial pair %+v", pair)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	store := NewRedisStore(rdb, "", 0)
	mr.Close()

	ctx := context.Background()
	if err := store.Save(ctx, Pair{AccessToken: "a", RefreshToken: "r"}); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable on save, got %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable on load, got %v", err)
	}
	if _, err := store.Ping(ctx); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable on ping, got %v", err)
	}

	var nilClient RedisStore
	if err := nilClient.Clear(ctx); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable for nil client, got %v", err)
	}
}

func TestPairPredicates(t *testing.T) {
	if (Pair{AccessToken: "a"}).Complete() {
		t.Fatal("half pair must not be complete")
	}
	if (Pair{RefreshToken: "r"}).Empty() {
		t.Fatal("half pair must not be empty")
	}
}
