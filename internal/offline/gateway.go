package offline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/liftlog/liftlog/internal/constants"
	"github.com/liftlog/liftlog/internal/events"
	"github.com/liftlog/liftlog/internal/logger"
)

// Capability abstracts host scheduling features (background sync,
// periodic sync). Hosts without them fall back to NoCapability and the
// caller triggers Replay manually.
type Capability interface {
	BackgroundSyncSupported() bool
	RegisterSync(tag string) error
}

// NoCapability is the fallback when the host offers no background
// scheduling. RegisterSync succeeds silently; replay then only runs on
// manual triggers.
type NoCapability struct{}

func (NoCapability) BackgroundSyncSupported() bool { return false }
func (NoCapability) RegisterSync(string) error     { return nil }

// SyncTag names the deferred replay registration.
const SyncTag = "liftlog-sync-queue"

// Broadcaster delivers sync outcomes to out-of-process listeners; the
// notify package implements it. Nil disables external broadcast.
type Broadcaster interface {
	Broadcast(kind string, payload any) error
}

// Options configures a Gateway.
type Options struct {
	// Origin is the app's own origin; hosts elsewhere are cross-origin.
	Origin string

	// ShellFiles is the fixed app shell list pre-cached during Install.
	// It should include the offline fallback page.
	ShellFiles []string

	Fetcher     Fetcher
	Bus         *events.Bus
	Broadcaster Broadcaster
	Capability  Capability
}

// Gateway routes requests through the per-class caching strategies and
// owns the mutation sync queue.
type Gateway struct {
	cache      *CacheDB
	fetcher    Fetcher
	bus        *events.Bus
	broadcast  Broadcaster
	capability Capability
	classify   *classifier
	shellFiles []string

	mu        sync.Mutex
	installed bool
	activated bool
	waiting   bool
}

func NewGateway(cache *CacheDB, opts Options) *Gateway {
	capability := opts.Capability
	if capability == nil {
		capability = NoCapability{}
	}
	return &Gateway{
		cache:      cache,
		fetcher:    opts.Fetcher,
		bus:        opts.Bus,
		broadcast:  opts.Broadcaster,
		capability: capability,
		classify:   newClassifier(opts.Origin, opts.ShellFiles),
		shellFiles: opts.ShellFiles,
	}
}

// Install pre-caches the entire app shell. Any shell file that cannot
// be fetched and cached fails the install; a partially cached shell
// never activates.
func (g *Gateway) Install(ctx context.Context) error {
	for _, file := range g.shellFiles {
		resp, err := g.fetcher.Do(ctx, Request{Method: http.MethodGet, URL: file})
		if err != nil {
			return fmt.Errorf("install: fetch %s: %w", file, err)
		}
		if !resp.OK() {
			return fmt.Errorf("install: fetch %s: status %d", file, resp.Status)
		}
		if err := g.cache.Put(ctx, constants.StaticCacheName, file, resp); err != nil {
			return fmt.Errorf("install: cache %s: %w", file, err)
		}
	}

	g.mu.Lock()
	g.installed = true
	g.mu.Unlock()
	logger.Info("offline shell installed", "files", len(g.shellFiles))
	return nil
}

// Activate retires cache generations whose name does not match the
// current version tags.
func (g *Gateway) Activate(ctx context.Context) error {
	g.mu.Lock()
	installed := g.installed
	g.mu.Unlock()
	if !installed {
		return errors.New("activate before install completed")
	}

	current := map[string]bool{
		constants.StaticCacheName:  true,
		constants.DynamicCacheName: true,
		constants.ImageCacheName:   true,
	}
	names, err := g.cache.CacheNames(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if current[name] {
			continue
		}
		n, err := g.cache.DeleteCache(ctx, name)
		if err != nil {
			return err
		}
		logger.Info("retired stale cache generation", "cache", name, "entries", n)
	}

	g.mu.Lock()
	g.activated = true
	g.waiting = false
	g.mu.Unlock()
	return nil
}

// Handle routes one request through the strategy for its class. Errors
// only surface when every fallback in the chain is exhausted.
func (g *Gateway) Handle(ctx context.Context, req Request) (*Response, error) {
	switch g.classify.classify(req) {
	case ClassMutation:
		return g.handleMutation(ctx, req)
	case ClassShell:
		return g.cacheFirst(ctx, req, constants.StaticCacheName, true)
	case ClassImage:
		return g.imageCacheFirst(ctx, req)
	case ClassAsset:
		return g.staleWhileRevalidate(ctx, req)
	case ClassCrossOrigin:
		return g.networkFirst(ctx, req)
	default:
		return g.cacheFirst(ctx, req, constants.DynamicCacheName, false)
	}
}

// cacheFirst serves the cache, fetching and filling on a miss. For the
// root document a total failure degrades to the offline fallback page.
func (g *Gateway) cacheFirst(ctx context.Context, req Request, cacheName string, shell bool) (*Response, error) {
	if resp, err := g.cache.Match(ctx, req.URL, constants.StaticCacheName, cacheName); err == nil {
		return resp, nil
	}

	resp, err := g.fetcher.Do(ctx, req)
	if err == nil && resp.OK() {
		if cacheErr := g.cache.Put(ctx, cacheName, req.URL, resp); cacheErr != nil {
			logger.Warn("failed to cache response", "url", req.URL, "error", cacheErr)
		}
		return resp, nil
	}

	if shell || isRootDocument(req.URL) {
		if fallback, fbErr := g.cache.Get(ctx, constants.StaticCacheName, constants.OfflineFallback); fbErr == nil {
			return fallback, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.URL, err)
	}
	return resp, nil
}

// imageCacheFirst is cache-first with a silent empty response instead
// of an error: a missing image must never break a page.
func (g *Gateway) imageCacheFirst(ctx context.Context, req Request) (*Response, error) {
	if resp, err := g.cache.Get(ctx, constants.ImageCacheName, req.URL); err == nil {
		return resp, nil
	}

	resp, err := g.fetcher.Do(ctx, req)
	if err == nil && resp.OK() {
		if cacheErr := g.cache.Put(ctx, constants.ImageCacheName, req.URL, resp); cacheErr != nil {
			logger.Warn("failed to cache image", "url", req.URL, "error", cacheErr)
		}
		return resp, nil
	}
	return &Response{Status: http.StatusNoContent}, nil
}

// staleWhileRevalidate serves the cached copy immediately when present
// and refreshes the cache in the background for the next request.
func (g *Gateway) staleWhileRevalidate(ctx context.Context, req Request) (*Response, error) {
	cached, cacheErr := g.cache.Get(ctx, constants.DynamicCacheName, req.URL)

	refresh := func(ctx context.Context) {
		resp, err := g.fetcher.Do(ctx, req)
		if err != nil || !resp.OK() {
			return
		}
		if err := g.cache.Put(ctx, constants.DynamicCacheName, req.URL, resp); err != nil {
			logger.Warn("revalidate cache write failed", "url", req.URL, "error", err)
		}
	}

	if cacheErr == nil {
		go refresh(context.WithoutCancel(ctx))
		return cached, nil
	}

	resp, err := g.fetcher.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.URL, err)
	}
	if resp.OK() {
		if err := g.cache.Put(ctx, constants.DynamicCacheName, req.URL, resp); err != nil {
			logger.Warn("failed to cache response", "url", req.URL, "error", err)
		}
	}
	return resp, nil
}

// networkFirst tries the network, falls back to any cached copy, and
// finally to the offline page.
func (g *Gateway) networkFirst(ctx context.Context, req Request) (*Response, error) {
	resp, err := g.fetcher.Do(ctx, req)
	if err == nil && resp.OK() {
		if cacheErr := g.cache.Put(ctx, constants.DynamicCacheName, req.URL, resp); cacheErr != nil {
			logger.Warn("failed to cache response", "url", req.URL, "error", cacheErr)
		}
		return resp, nil
	}

	if cached, cacheErr := g.cache.Match(ctx, req.URL,
		constants.DynamicCacheName, constants.StaticCacheName); cacheErr == nil {
		return cached, nil
	}
	if fallback, fbErr := g.cache.Get(ctx, constants.StaticCacheName, constants.OfflineFallback); fbErr == nil {
		return fallback, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.URL, err)
	}
	return resp, nil
}

// handleMutation attempts the request immediately; on failure the full
// request is durably queued and a deferred replay registered.
func (g *Gateway) handleMutation(ctx context.Context, req Request) (*Response, error) {
	resp, err := g.fetcher.Do(ctx, req)
	if err == nil && resp.Status < 500 {
		return resp, nil
	}

	entry, queueErr := g.cache.Enqueue(ctx, req)
	if queueErr != nil {
		if err != nil {
			return nil, fmt.Errorf("mutation failed and could not be queued: %v: %w", queueErr, err)
		}
		return resp, queueErr
	}

	if regErr := g.capability.RegisterSync(SyncTag); regErr != nil {
		logger.Warn("background sync registration failed", "error", regErr)
	}
	logger.Info("mutation queued for replay",
		"method", req.Method, "url", req.URL, "uuid", entry.UUID)

	// 202: the mutation is accepted locally and will reach the server
	// on replay.
	return &Response{Status: http.StatusAccepted, Headers: map[string]string{
		"X-Liftlog-Queued": entry.UUID,
	}}, nil
}

// ReplayResult summarizes one replay pass.
type ReplayResult struct {
	Replayed  int `json:"replayed"`
	Remaining int `json:"remaining"`
}

// Replay drains the sync queue sequentially in enqueue order. A failed
// entry stays queued (attempt counter bumped) and stops consuming the
// rest so ordering across dependent mutations holds. Successes are
// broadcast on the bus and, when configured, the external channel.
func (g *Gateway) Replay(ctx context.Context) (*ReplayResult, error) {
	queue, err := g.cache.Queue(ctx)
	if err != nil {
		return nil, err
	}

	result := &ReplayResult{Remaining: len(queue)}
	for _, entry := range queue {
		resp, err := g.fetcher.Do(ctx, Request{
			Method:  entry.Method,
			URL:     entry.URL,
			Headers: entry.Headers,
			Body:    entry.Body,
		})
		if err != nil || resp.Status >= 500 {
			if markErr := g.cache.MarkAttempt(ctx, entry.ID); markErr != nil {
				logger.Warn("failed to mark replay attempt", "id", entry.ID, "error", markErr)
			}
			g.publish(events.SyncFailed, entry)
			logger.Warn("replay failed, entry retained",
				"uuid", entry.UUID, "attempts", entry.Attempts+1, "error", err)
			break
		}

		if err := g.cache.Dequeue(ctx, entry.ID); err != nil {
			return result, err
		}
		result.Replayed++
		result.Remaining--
		g.publish(events.SyncSuccess, entry)
	}
	return result, nil
}

func (g *Gateway) publish(topic events.Topic, entry *QueuedRequest) {
	if g.bus != nil {
		g.bus.Publish(topic, entry)
	}
	if g.broadcast != nil {
		if err := g.broadcast.Broadcast(string(topic), entry); err != nil {
			logger.Warn("broadcast failed", "topic", topic, "error", err)
		}
	}
}

// Message is one command received on the gateway's control channel.
type Message struct {
	Type string   `json:"type"`
	URLs []string `json:"urls,omitempty"`
}

// Control channel message types.
const (
	MsgSkipWaiting = "SKIP_WAITING"
	MsgCacheURLs   = "CACHE_URLS"
	MsgClearCache  = "CLEAR_CACHE"
	MsgCheckUpdate = "CHECK_UPDATE"
)

// HandleMessage executes one control command.
func (g *Gateway) HandleMessage(ctx context.Context, msg Message) error {
	switch msg.Type {
	case MsgSkipWaiting:
		g.mu.Lock()
		g.waiting = false
		g.mu.Unlock()
		return g.Activate(ctx)

	case MsgCacheURLs:
		for _, u := range msg.URLs {
			resp, err := g.fetcher.Do(ctx, Request{Method: http.MethodGet, URL: u})
			if err != nil || !resp.OK() {
				logger.Warn("cache_urls: fetch failed", "url", u, "error", err)
				continue
			}
			if err := g.cache.Put(ctx, constants.DynamicCacheName, u, resp); err != nil {
				return err
			}
		}
		return nil

	case MsgClearCache:
		names, err := g.cache.CacheNames(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			if _, err := g.cache.DeleteCache(ctx, name); err != nil {
				return err
			}
		}
		return nil

	case MsgCheckUpdate:
		return g.checkUpdate(ctx)

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// checkUpdate refetches the root document and compares it to the
// cached shell copy; a difference marks a new version waiting.
func (g *Gateway) checkUpdate(ctx context.Context) error {
	root := "/"
	for _, f := range g.shellFiles {
		if isRootDocument(f) {
			root = f
			break
		}
	}

	fresh, err := g.fetcher.Do(ctx, Request{Method: http.MethodGet, URL: root})
	if err != nil || !fresh.OK() {
		return nil // offline, nothing to report
	}
	cached, err := g.cache.Get(ctx, constants.StaticCacheName, root)
	if err != nil {
		return nil
	}
	if string(fresh.Body) == string(cached.Body) {
		return nil
	}

	g.mu.Lock()
	g.waiting = true
	g.mu.Unlock()
	if g.bus != nil {
		g.bus.Publish(events.UpdateAvailable, root)
	}
	if g.broadcast != nil {
		if err := g.broadcast.Broadcast(string(events.UpdateAvailable), root); err != nil {
			logger.Warn("broadcast failed", "topic", events.UpdateAvailable, "error", err)
		}
	}
	return nil
}

// UpdateWaiting reports whether a new version is staged behind
// SKIP_WAITING.
func (g *Gateway) UpdateWaiting() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waiting
}
