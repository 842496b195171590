package cache

import (
	"bytes"
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

var errPermanent = errors.New("permanent")

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "graph:abc"); hit {
		t.Fatal("empty cache reported a hit")
	}
	if err := c.Set(ctx, "graph:abc", []byte(`{"nodes":[]}`), time.Hour); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "graph:abc")
	if err != nil || !hit || string(data) != `{"nodes":[]}` {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "graph:abc"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "graph:abc"); hit {
		t.Error("deleted entry still present")
	}
	if err := c.Delete(ctx, "graph:abc"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)

	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry reported as hit")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl expired")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if _, hit, _ := c.Get(ctx, k); hit {
			t.Errorf("%s survived Clear", k)
		}
	}
}

func TestFileCacheLayout(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)

	png := []byte{0x89, 'P', 'N', 'G', 0, 0xff}
	if err := c.Set(ctx, "artifact:abc", png, 0); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "plain", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}
	for _, kind := range []string{"artifact", "misc"} {
		if _, err := os.Stat(filepath.Join(dir, kind)); err != nil {
			t.Errorf("kind dir %s: %v", kind, err)
		}
	}
	got, hit, _ := c.Get(ctx, "artifact:abc")
	if !hit || !bytes.Equal(got, png) {
		t.Errorf("binary round trip = %v, %v", got, hit)
	}

	// A truncated entry is dropped instead of returned.
	path := c.path("artifact:abc")
	if err := os.WriteFile(path, []byte{1, 2}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "artifact:abc"); hit || err != nil {
		t.Errorf("truncated entry = %v, %v", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("truncated entry not removed")
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

	tests := []struct {
		name string
		a, b string
	}{
		{"Overlay", k.GraphKey("ds", GraphKeyOpts{}), k.GraphKey("ds", GraphKeyOpts{OverlayHash: "ov"})},
		{"Focus", k.GraphKey("ds", GraphKeyOpts{Focus: "P1"}), k.GraphKey("ds", GraphKeyOpts{Focus: "P2"})},
		{"Dataset", k.GraphKey("ds1", GraphKeyOpts{}), k.GraphKey("ds2", GraphKeyOpts{})},
		{"Format", k.ArtifactKey("g", ArtifactKeyOpts{Format: "svg"}), k.ArtifactKey("g", ArtifactKeyOpts{Format: "png"})},
		{"Curve", k.ArtifactKey("g", ArtifactKeyOpts{Format: "json", CurveAmount: 50}), k.ArtifactKey("g", ArtifactKeyOpts{Format: "json", CurveAmount: 80})},
		{"SelfLoops", k.ArtifactKey("g", ArtifactKeyOpts{ShowSelfLoops: true}), k.ArtifactKey("g", ArtifactKeyOpts{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.a == tt.b {
				t.Errorf("keys collide: %s", tt.a)
			}
		})
	}

	if !strings.HasPrefix(k.GraphKey("ds", GraphKeyOpts{}), "graph:") {
		t.Error("graph keys should carry the graph prefix")
	}
	if k.ArtifactKey("g", ArtifactKeyOpts{Format: "svg"}) != k.ArtifactKey("g", ArtifactKeyOpts{Format: "svg"}) {
		t.Error("ArtifactKey should be deterministic")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "staging:")

	opts := GraphKeyOpts{Focus: "P1"}
	if got, want := scoped.GraphKey("ds", opts), "staging:"+inner.GraphKey("ds", opts); got != want {
		t.Errorf("GraphKey = %s, want %s", got, want)
	}
	aopts := ArtifactKeyOpts{Format: "dot"}
	if got, want := scoped.ArtifactKey("g", aopts), "staging:"+inner.ArtifactKey("g", aopts); got != want {
		t.Errorf("ArtifactKey = %s, want %s", got, want)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	if got, want := scoped.GraphKey("ds", GraphKeyOpts{}), "prefix:"+(DefaultKeyer{}).GraphKey("ds", GraphKeyOpts{}); got != want {
		t.Errorf("nil inner key = %s, want %s", got, want)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrNetwork)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("wrapped error should unwrap to ErrNetwork")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(errPermanent) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func fastRetries(t *testing.T) {
	t.Helper()
	prev := retryBaseDelay
	retryBaseDelay = time.Millisecond
	t.Cleanup(func() { retryBaseDelay = prev })
}

func TestRetryWithBackoff(t *testing.T) {
	fastRetries(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"FirstTry", 0, nil, 1, nil},
		{"NonRetryable", 1, errPermanent, 1, errPermanent},
		{"RecoversAfterRetry", 1, Retryable(ErrNetwork), 2, nil},
		{"GivesUp", 5, Retryable(ErrNetwork), 3, ErrNetwork},
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
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), DefaultRedisPrefix)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	if _, hit, err := c.Get(ctx, "artifact:1"); hit || err != nil {
		t.Fatalf("miss = %v, %v", hit, err)
	}
	if err := c.Set(ctx, "artifact:1", []byte("<svg/>"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists(DefaultRedisPrefix + "artifact:1") {
		t.Error("key not stored under prefix")
	}
	data, hit, err := c.Get(ctx, "artifact:1")
	if err != nil || !hit || string(data) != "<svg/>" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "artifact:1"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "artifact:1"); hit {
		t.Error("deleted key still present")
	}
}

func TestRedisCacheTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry outlived its ttl")
	}
}

func TestRedisCacheClear(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	if err := mr.Set("other:key", "keep"); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if mr.Exists(DefaultRedisPrefix + k) {
			t.Errorf("%s survived Clear", k)
		}
	}
	if !mr.Exists("other:key") {
		t.Error("Clear removed a key outside its prefix")
	}
}

func TestRedisCacheUnavailable(t *testing.T) {
	fastRetries(t)
	ctx := context.Background()
	c, mr := newRedisCache(t)
	mr.Close()

	_, _, err := c.Get(ctx, "k")
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("error = %v, want ErrNetwork", err)
	}
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisCache(context.Background(), addr); !errors.Is(err, ErrNetwork) {
		t.Errorf("error = %v, want ErrNetwork", err)
	}
}
