package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/graphreveal/pkg/cache"
)

func TestCacheDir(t *testing.T) {
	t.Run("xdg", func(t *testing.T) {
		xdg := t.TempDir()
		t.Setenv("XDG_CACHE_HOME", xdg)
		dir, err := cacheDir()
		if err != nil {
			t.Fatalf("cacheDir() error: %v", err)
		}
		if want := filepath.Join(xdg, "graphreveal"); dir != want {
			t.Errorf("cacheDir() = %q, want %q", dir, want)
		}
	})

	t.Run("home", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("XDG_CACHE_HOME", "")
		t.Setenv("HOME", home)
		dir, err := cacheDir()
		if err != nil {
			t.Fatalf("cacheDir() error: %v", err)
		}
		if want := filepath.Join(home, ".cache", "graphreveal"); dir != want {
			t.Errorf("cacheDir() = %q, want %q", dir, want)
		}
	})
}

func TestOpenFileCache(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	if _, ok, err := openFileCache(); err != nil || ok {
		t.Fatalf("openFileCache() on missing dir = %v, %v; want not ok", ok, err)
	}

	fc, err := cache.NewFileCache(filepath.Join(xdg, "graphreveal"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := fc.Set(ctx, "dataset:abc", []byte("{}"), 0); err != nil {
		t.Fatal(err)
	}
	if err := fc.Set(ctx, "render:old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)

	got, ok, err := openFileCache()
	if err != nil || !ok {
		t.Fatalf("openFileCache() = %v, %v", ok, err)
	}
	n, err := got.Prune(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Prune removed %d, want 1", n)
	}
	if _, hit, _ := got.Get(ctx, "dataset:abc"); !hit {
		t.Error("live entry should survive prune")
	}
}
