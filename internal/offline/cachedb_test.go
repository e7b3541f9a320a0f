package offline

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
)

func setupCacheDB(t *testing.T) *CacheDB {
	t.Helper()
	cache, err := OpenCacheDB(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenCacheDB failed: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestCachePutGet(t *testing.T) {
	cache := setupCacheDB(t)
	ctx := context.Background()

	resp := &Response{
		Status:  http.StatusOK,
		Headers: map[string]string{"Content-Type": "text/html"},
		Body:    []byte("<html>shell</html>"),
	}
	if err := cache.Put(ctx, "test-cache", "/index.html", resp); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := cache.Get(ctx, "test-cache", "/index.html")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != http.StatusOK || string(got.Body) != "<html>shell</html>" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if got.Headers["Content-Type"] != "text/html" {
		t.Errorf("headers lost: %v", got.Headers)
	}
	if !got.FromCache {
		t.Error("cached response not flagged FromCache")
	}
	if got.FetchedAt.IsZero() {
		t.Error("FetchedAt not stamped")
	}

	if _, err := cache.Get(ctx, "test-cache", "/absent"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
	if _, err := cache.Get(ctx, "other-cache", "/index.html"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("caches not isolated: %v", err)
	}
}

func TestCachePutReplaces(t *testing.T) {
	cache := setupCacheDB(t)
	ctx := context.Background()

	for _, body := range []string{"v1", "v2"} {
		if err := cache.Put(ctx, "c", "/page", &Response{Status: 200, Body: []byte(body)}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	got, err := cache.Get(ctx, "c", "/page")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Body) != "v2" {
		t.Errorf("body = %q, want replaced value", got.Body)
	}
}

func TestCacheMatchOrder(t *testing.T) {
	cache := setupCacheDB(t)
	ctx := context.Background()

	if err := cache.Put(ctx, "second", "/page", &Response{Status: 200, Body: []byte("second")}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := cache.Put(ctx, "first", "/page", &Response{Status: 200, Body: []byte("first")}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := cache.Match(ctx, "/page", "first", "second")
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if string(got.Body) != "first" {
		t.Errorf("Match returned %q, want first cache to win", got.Body)
	}

	if _, err := cache.Match(ctx, "/absent", "first", "second"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
}

func TestCacheNamesAndDelete(t *testing.T) {
	cache := setupCacheDB(t)
	ctx := context.Background()

	for _, name := range []string{"alpha", "beta"} {
		if err := cache.Put(ctx, name, "/x", &Response{Status: 200}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	names, err := cache.CacheNames(ctx)
	if err != nil {
		t.Fatalf("CacheNames failed: %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("names = %v", names)
	}

	n, err := cache.DeleteCache(ctx, "alpha")
	if err != nil {
		t.Fatalf("DeleteCache failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d entries, want 1", n)
	}
	names, _ = cache.CacheNames(ctx)
	if len(names) != 1 || names[0] != "beta" {
		t.Errorf("names after delete = %v", names)
	}
}

func TestSyncQueue(t *testing.T) {
	cache := setupCacheDB(t)
	ctx := context.Background()

	reqs := []Request{
		{Method: "POST", URL: "/api/workouts", Body: []byte(`{"name":"a"}`)},
		{Method: "PUT", URL: "/api/workouts/1", Headers: map[string]string{"X-Token": "t"}},
		{Method: "DELETE", URL: "/api/workouts/2"},
	}
	for _, r := range reqs {
		if _, err := cache.Enqueue(ctx, r); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	n, err := cache.QueueLen(ctx)
	if err != nil {
		t.Fatalf("QueueLen failed: %v", err)
	}
	if n != 3 {
		t.Errorf("QueueLen = %d, want 3", n)
	}

	queue, err := cache.Queue(ctx)
	if err != nil {
		t.Fatalf("Queue failed: %v", err)
	}
	if len(queue) != 3 {
		t.Fatalf("queue has %d entries", len(queue))
	}
	for i, entry := range queue {
		if entry.Method != reqs[i].Method || entry.URL != reqs[i].URL {
			t.Errorf("entry %d out of order: %s %s", i, entry.Method, entry.URL)
		}
		if entry.UUID == "" {
			t.Errorf("entry %d has no uuid", i)
		}
		if entry.EnqueuedAt.IsZero() {
			t.Errorf("entry %d has no enqueue time", i)
		}
	}
	if queue[1].Headers["X-Token"] != "t" {
		t.Errorf("headers not persisted: %v", queue[1].Headers)
	}

	if err := cache.MarkAttempt(ctx, queue[0].ID); err != nil {
		t.Fatalf("MarkAttempt failed: %v", err)
	}
	queue, _ = cache.Queue(ctx)
	if queue[0].Attempts != 1 {
		t.Errorf("attempts = %d, want 1", queue[0].Attempts)
	}

	if err := cache.Dequeue(ctx, queue[0].ID); err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	n, _ = cache.QueueLen(ctx)
	if n != 2 {
		t.Errorf("QueueLen after dequeue = %d, want 2", n)
	}
}
