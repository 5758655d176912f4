package offline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/bmc/internal/metrics"
	"github.com/abhisek/bmc/internal/store"
)

// Options configures a Worker.
type Options struct {
	Manifest Manifest
	// BaseURL is the origin the manifest's relative paths resolve against.
	BaseURL string
	Storage Storage
	// Client fetches assets during install. It must not route through the
	// worker itself.
	Client *http.Client
	// Network answers requests the cache cannot. Defaults to
	// http.DefaultTransport.
	Network http.RoundTripper
	Logger  *zap.Logger
}

// Status is a snapshot for reporting.
type Status struct {
	Phase  Phase
	Name   string
	Caches []store.CacheInfo
}

// Worker is the offline cache layer. It is an http.RoundTripper so it can
// sit under any http.Client.
type Worker struct {
	manifest Manifest
	base     *url.URL
	storage  Storage
	client   *http.Client
	network  http.RoundTripper
	logger   *zap.Logger

	mu    sync.Mutex
	phase Phase
}

// NewWorker creates a Worker in the uninstalled phase.
func NewWorker(opts Options) (*Worker, error) {
	if opts.Storage == nil {
		return nil, fmt.Errorf("offline worker: storage is required")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse asset base url: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("asset base url %q must be absolute", opts.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	m := opts.Manifest
	if m.Name == "" {
		m.Name = DefaultCacheName
	}
	if m.Assets == nil {
		m.Assets = DefaultManifest().Assets
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	network := opts.Network
	if network == nil {
		network = http.DefaultTransport
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Worker{
		manifest: m,
		base:     base,
		storage:  opts.Storage,
		client:   client,
		network:  network,
		logger:   logger.Named("offline"),
	}, nil
}

// Phase returns the current phase.
func (w *Worker) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// Manifest returns the worker's manifest.
func (w *Worker) Manifest() Manifest { return w.manifest }

// Resolve returns the absolute URL of a manifest path.
func (w *Worker) Resolve(asset string) (string, error) {
	ref, err := url.Parse(asset)
	if err != nil {
		return "", fmt.Errorf("parse asset %q: %w", asset, err)
	}
	return cacheKey(w.base.ResolveReference(ref)), nil
}

// Register brings the worker to serving. An existing cache with the
// manifest's name is reused without touching the network; otherwise the
// assets are installed first. Activation follows install immediately.
func (w *Worker) Register(ctx context.Context) error {
	names, err := w.storage.Names(ctx)
	if err != nil {
		return fmt.Errorf("list caches: %w", err)
	}
	installed := false
	for _, n := range names {
		if n == w.manifest.Name {
			installed = true
			break
		}
	}

	if installed {
		w.mu.Lock()
		if w.phase == PhaseUninstalled {
			w.phase = PhaseActive
		}
		w.mu.Unlock()
	} else if err := w.Install(ctx); err != nil {
		return err
	}
	return w.Activate(ctx)
}

// Install fetches every manifest asset and stores them as one unit. Any
// failed asset fails the install with a *CacheInstallFailure and leaves the
// phase uninstalled.
func (w *Worker) Install(ctx context.Context) error {
	w.mu.Lock()
	if w.phase == PhaseInstalling {
		w.mu.Unlock()
		return ErrInstallInProgress
	}
	w.phase = PhaseInstalling
	w.mu.Unlock()

	entries, err := w.fetchAll(ctx)
	if err == nil {
		err = w.storage.PutAll(ctx, w.manifest.Name, entries)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.phase = PhaseUninstalled
		metrics.ObserveCacheInstall("failed")
		w.logger.Warn("cache install failed", zap.String("cache", w.manifest.Name), zap.Error(err))
		return err
	}
	w.phase = PhaseActive
	metrics.ObserveCacheInstall("ok")
	w.logger.Info("cache installed", zap.String("cache", w.manifest.Name), zap.Int("assets", len(entries)))
	return nil
}

func (w *Worker) fetchAll(ctx context.Context) ([]store.CacheEntry, error) {
	entries := make([]store.CacheEntry, len(w.manifest.Assets))
	g, gctx := errgroup.WithContext(ctx)
	for i, asset := range w.manifest.Assets {
		g.Go(func() error {
			e, err := w.fetch(gctx, asset)
			if err != nil {
				return &CacheInstallFailure{Asset: asset, Err: err}
			}
			entries[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (w *Worker) fetch(ctx context.Context, asset string) (store.CacheEntry, error) {
	key, err := w.Resolve(asset)
	if err != nil {
		return store.CacheEntry{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
	if err != nil {
		return store.CacheEntry{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return store.CacheEntry{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return store.CacheEntry{}, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return store.CacheEntry{}, fmt.Errorf("read body: %w", err)
	}
	return store.CacheEntry{
		URL:      key,
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: time.Now(),
	}, nil
}

// Activate deletes every cache not named by the manifest and starts
// serving. It returns ErrNotInstalled unless the phase is active or
// already serving.
func (w *Worker) Activate(ctx context.Context) error {
	w.mu.Lock()
	phase := w.phase
	w.mu.Unlock()
	if phase != PhaseActive && phase != PhaseServing {
		return ErrNotInstalled
	}

	names, err := w.storage.Names(ctx)
	if err != nil {
		return fmt.Errorf("list caches: %w", err)
	}
	for _, n := range names {
		if n == w.manifest.Name {
			continue
		}
		if err := w.storage.Delete(ctx, n); err != nil {
			return fmt.Errorf("delete stale cache: %w", err)
		}
		w.logger.Info("deleted stale cache", zap.String("cache", n))
	}

	w.mu.Lock()
	w.phase = PhaseServing
	w.mu.Unlock()
	return nil
}

// Purge deletes every cache and returns the worker to uninstalled.
func (w *Worker) Purge(ctx context.Context) error {
	names, err := w.storage.Names(ctx)
	if err != nil {
		return fmt.Errorf("list caches: %w", err)
	}
	for _, n := range names {
		if err := w.storage.Delete(ctx, n); err != nil {
			return fmt.Errorf("purge cache: %w", err)
		}
	}
	w.mu.Lock()
	w.phase = PhaseUninstalled
	w.mu.Unlock()
	return nil
}

// Status reports the phase and the stored caches.
func (w *Worker) Status(ctx context.Context) (Status, error) {
	caches, err := w.storage.Info(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("cache info: %w", err)
	}
	return Status{Phase: w.Phase(), Name: w.manifest.Name, Caches: caches}, nil
}

// RoundTrip answers GET and HEAD requests from the cache while serving and
// hands everything else to the network. Network responses are never stored.
func (w *Worker) RoundTrip(req *http.Request) (*http.Response, error) {
	if w.Phase() != PhaseServing || (req.Method != http.MethodGet && req.Method != http.MethodHead) {
		metrics.ObserveOfflineRequest(metrics.ResultBypass)
		return w.network.RoundTrip(req)
	}

	entry, ok, err := w.storage.Match(req.Context(), w.manifest.Name, cacheKey(req.URL))
	if err != nil {
		w.logger.Warn("cache lookup failed", zap.String("url", req.URL.String()), zap.Error(err))
	}
	if ok {
		metrics.ObserveOfflineRequest(metrics.ResultHit)
		return cachedResponse(req, entry), nil
	}

	resp, err := w.network.RoundTrip(req)
	if err != nil {
		metrics.ObserveOfflineRequest(metrics.ResultNetError)
		return nil, err
	}
	metrics.ObserveOfflineRequest(metrics.ResultMiss)
	return resp, nil
}

// Client returns an http.Client that routes through the worker.
func (w *Worker) Client() *http.Client {
	return &http.Client{Transport: w}
}

func cachedResponse(req *http.Request, e *store.CacheEntry) *http.Response {
	resp := &http.Response{
		Status:        fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status)),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        e.Header.Clone(),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
	if resp.Header == nil {
		resp.Header = http.Header{}
	}
	if req.Method == http.MethodHead {
		resp.Body = http.NoBody
	} else {
		resp.Body = io.NopCloser(bytes.NewReader(e.Body))
	}
	return resp
}

// cacheKey is the absolute URL without its fragment.
func cacheKey(u *url.URL) string {
	cp := *u
	cp.Fragment = ""
	cp.RawFragment = ""
	return cp.String()
}
