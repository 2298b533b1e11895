package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"testing"
	"time"

	"github.com/matzehuels/graphreveal/pkg/observability"
)

func init() {
	retryDelay = time.Millisecond
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want a miss", data, hit, err)
	}
	if err := c.AddMember(ctx, "idx", "a"); err != nil {
		t.Error(err)
	}
	if m, _ := c.Members(ctx, "idx"); len(m) != 0 {
		t.Errorf("Members = %v, want none", m)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

// testIndexedCache runs the behaviour shared by every storing backend.
func testIndexedCache(t *testing.T, c IndexedCache) {
	ctx := context.Background()

	t.Run("set get delete", func(t *testing.T) {
		if err := c.Set(ctx, "session:1", []byte(`{"a":1}`), 0); err != nil {
			t.Fatal(err)
		}
		data, hit, err := c.Get(ctx, "session:1")
		if err != nil || !hit || string(data) != `{"a":1}` {
			t.Fatalf("Get = %q, %v, %v", data, hit, err)
		}
		if err := c.Delete(ctx, "session:1"); err != nil {
			t.Fatal(err)
		}
		if _, hit, _ := c.Get(ctx, "session:1"); hit {
			t.Error("deleted key should miss")
		}
		if err := c.Delete(ctx, "session:1"); err != nil {
			t.Errorf("deleting a missing key: %v", err)
		}
	})

	t.Run("miss", func(t *testing.T) {
		_, hit, err := c.Get(ctx, "session:none")
		if err != nil || hit {
			t.Errorf("Get = %v, %v; want a clean miss", hit, err)
		}
	})

	t.Run("index", func(t *testing.T) {
		for _, m := range []string{"a", "b", "a", "c"} {
			if err := c.AddMember(ctx, "index:s", m); err != nil {
				t.Fatal(err)
			}
		}
		if err := c.RemoveMember(ctx, "index:s", "b"); err != nil {
			t.Fatal(err)
		}
		members, err := c.Members(ctx, "index:s")
		if err != nil {
			t.Fatal(err)
		}
		sort.Strings(members)
		if !slices.Equal(members, []string{"a", "c"}) {
			t.Errorf("Members = %v, want [a c]", members)
		}
		if m, _ := c.Members(ctx, "index:empty"); len(m) != 0 {
			t.Errorf("unknown index = %v", m)
		}
	})
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	testIndexedCache(t, c)
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "render:x", []byte("svg"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "render:y", []byte("svg"), time.Hour); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)

	n, err := c.Prune(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Prune removed %d entries, want 1", n)
	}
	if _, hit, _ := c.Get(ctx, "render:y"); !hit {
		t.Error("live entry should survive Prune")
	}
}

func TestFileCacheCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("dataset:x")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "dataset:x"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Set(ctx, "a:1", []byte("x"), 0)
	_ = c.AddMember(ctx, "index:s", "1")

	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "a:1"); hit {
		t.Error("Clear should remove entries")
	}
	if m, _ := c.Members(ctx, "index:s"); len(m) != 0 {
		t.Error("Clear should remove indexes")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.SessionKey("abc"); got != "session:abc" {
		t.Errorf("SessionKey = %s", got)
	}
	if got := k.DatasetKey("f00"); got != "dataset:f00" {
		t.Errorf("DatasetKey = %s", got)
	}

	r1 := k.RenderKey("f00", RenderKeyOpts{StateHash: "s", Format: "svg"})
	r2 := k.RenderKey("f00", RenderKeyOpts{StateHash: "s", Format: "dot"})
	r3 := k.RenderKey("f00", RenderKeyOpts{StateHash: "s", Format: "svg", Preview: "A:children"})
	if r1 == r2 || r1 == r3 {
		t.Error("different render options should produce different keys")
	}
	if KeyType(r1) != "render" {
		t.Errorf("KeyType(%s) = %s", r1, KeyType(r1))
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "team:")

	tests := []struct {
		got, want string
	}{
		{scoped.SessionKey("1"), "team:session:1"},
		{scoped.SessionIndex(), "team:index:sessions"},
		{scoped.DatasetKey("f"), "team:dataset:f"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %s, want %s", tt.got, tt.want)
		}
	}
	if KeyType(scoped.SessionKey("1")) != "session" {
		t.Errorf("KeyType should skip the scope")
	}
}

func TestKeyType(t *testing.T) {
	tests := map[string]string{
		"session:1":          "session",
		"a:b:dataset:f":      "dataset",
		"nocolon":            "other",
		"render:deadbeef":    "render",
		"index:sessions":     "index",
		"scope:index:things": "index",
	}
	for key, want := range tests {
		if got := KeyType(key); got != want {
			t.Errorf("KeyType(%q) = %q, want %q", key, got, want)
		}
	}
}

type recordingCacheHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets []string
}

func (h *recordingCacheHooks) OnCacheHit(_ context.Context, k string)  { h.hits = append(h.hits, k) }
func (h *recordingCacheHooks) OnCacheMiss(_ context.Context, k string) { h.misses = append(h.misses, k) }
func (h *recordingCacheHooks) OnCacheSet(_ context.Context, k string, _ int) {
	h.sets = append(h.sets, k)
}

func TestInstrument(t *testing.T) {
	h := &recordingCacheHooks{}
	observability.SetCacheHooks(h)
	defer observability.Reset()

	ctx := context.Background()
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := Instrument(fc)
	if Instrument(c) != c {
		t.Error("Instrument should not wrap twice")
	}

	_, _, _ = c.Get(ctx, "session:1")
	_ = c.Set(ctx, "session:1", []byte("x"), 0)
	_, _, _ = c.Get(ctx, "session:1")

	if !slices.Equal(h.misses, []string{"session"}) || !slices.Equal(h.hits, []string{"session"}) ||
		!slices.Equal(h.sets, []string{"session"}) {
		t.Errorf("hits=%v misses=%v sets=%v", h.hits, h.misses, h.sets)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrUnavailable)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrUnavailable) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	plain := errors.New("plain")

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"success first try", 0, nil, 1, nil},
		{"non-retryable stops", 5, plain, 1, plain},
		{"retry then succeed", 1, Retryable(ErrUnavailable), 2, nil},
		{"give up after attempts", 5, Retryable(ErrUnavailable), 3, ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil && IsRetryable(err) {
				t.Error("final error should be unwrapped from RetryableError")
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
