package offline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/bmc/internal/store"
)

type origin struct {
	srv   *httptest.Server
	hits  atomic.Int32
	fail  map[string]int
	stale atomic.Bool
}

func newOrigin(t *testing.T) *origin {
	t.Helper()
	o := &origin{fail: map[string]int{}}
	o.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		o.hits.Add(1)
		if code, ok := o.fail[r.URL.Path]; ok {
			w.WriteHeader(code)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		if o.stale.Load() {
			_, _ = io.WriteString(w, "network:"+r.URL.Path)
			return
		}
		_, _ = io.WriteString(w, "asset:"+r.URL.Path)
	}))
	t.Cleanup(o.srv.Close)
	return o
}

func newTestWorker(t *testing.T, o *origin, storage Storage) *Worker {
	t.Helper()
	w, err := NewWorker(Options{
		Manifest: Manifest{Name: "test-v1", Assets: []string{"./", "./index.html", "./data/units.json"}},
		BaseURL:  o.srv.URL + "/course",
		Storage:  storage,
	})
	require.NoError(t, err)
	return w
}

func get(t *testing.T, c *http.Client, url string) (int, string) {
	t.Helper()
	resp, err := c.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestNewWorker_Validation(t *testing.T) {
	_, err := NewWorker(Options{BaseURL: "http://x/"})
	assert.Error(t, err, "storage is required")

	_, err = NewWorker(Options{BaseURL: "relative/path", Storage: NewMemoryStorage()})
	assert.Error(t, err)

	w, err := NewWorker(Options{BaseURL: "http://x", Storage: NewMemoryStorage()})
	require.NoError(t, err)
	assert.Equal(t, DefaultCacheName, w.Manifest().Name)
	assert.Len(t, w.Manifest().Assets, 10)
	assert.Equal(t, PhaseUninstalled, w.Phase())
}

func TestWorker_Resolve(t *testing.T) {
	w, err := NewWorker(Options{BaseURL: "https://example.com/course", Storage: NewMemoryStorage()})
	require.NoError(t, err)

	got, err := w.Resolve("./")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/course/", got)

	got, err = w.Resolve("./assets/css/styles.css")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/course/assets/css/styles.css", got)
}

func TestWorker_InstallActivateServe(t *testing.T) {
	o := newOrigin(t)
	storage := NewMemoryStorage()
	w := newTestWorker(t, o, storage)
	ctx := context.Background()

	require.NoError(t, w.Install(ctx))
	assert.Equal(t, PhaseActive, w.Phase())
	require.NoError(t, w.Activate(ctx))
	assert.Equal(t, PhaseServing, w.Phase())

	// The origin now changes; cached assets must still be served verbatim.
	o.stale.Store(true)
	client := w.Client()

	code, body := get(t, client, o.srv.URL+"/course/index.html")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "asset:/course/index.html", body)

	code, body = get(t, client, o.srv.URL+"/course/index.html#unit=u1")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "asset:/course/index.html", body, "fragment must not affect matching")

	// Uncached requests go to the network and are not stored.
	code, body = get(t, client, o.srv.URL+"/course/other.txt")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "network:/course/other.txt", body)
	_, found, err := storage.Match(ctx, "test-v1", o.srv.URL+"/course/other.txt")
	require.NoError(t, err)
	assert.False(t, found, "network responses must not be cached")
}

func TestWorker_ServesOfflineAfterInstall(t *testing.T) {
	o := newOrigin(t)
	w := newTestWorker(t, o, NewMemoryStorage())
	ctx := context.Background()
	require.NoError(t, w.Register(ctx))

	url := o.srv.URL + "/course/data/units.json"
	o.srv.Close()

	code, body := get(t, w.Client(), url)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "asset:/course/data/units.json", body)
}

func TestWorker_HeadHasNoBody(t *testing.T) {
	o := newOrigin(t)
	w := newTestWorker(t, o, NewMemoryStorage())
	require.NoError(t, w.Register(context.Background()))

	resp, err := w.Client().Head(o.srv.URL + "/course/index.html")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body)
}

func TestWorker_InstallAllOrNothing(t *testing.T) {
	o := newOrigin(t)
	o.fail["/course/data/units.json"] = http.StatusNotFound
	storage := NewMemoryStorage()
	w := newTestWorker(t, o, storage)
	ctx := context.Background()

	err := w.Install(ctx)
	require.Error(t, err)

	var failure *CacheInstallFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "./data/units.json", failure.Asset)
	assert.Equal(t, PhaseUninstalled, w.Phase())

	names, err := storage.Names(ctx)
	require.NoError(t, err)
	assert.Empty(t, names, "failed install must not store anything")

	assert.ErrorIs(t, w.Activate(ctx), ErrNotInstalled)

	// Requests still work online.
	code, body := get(t, w.Client(), o.srv.URL+"/course/index.html")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "asset:/course/index.html", body)
}

func TestWorker_ActivateDeletesStaleCaches(t *testing.T) {
	o := newOrigin(t)
	storage := NewMemoryStorage()
	ctx := context.Background()
	require.NoError(t, storage.PutAll(ctx, "test-v0", []store.CacheEntry{{URL: "http://old/", Status: 200}}))
	require.NoError(t, storage.PutAll(ctx, "other", []store.CacheEntry{{URL: "http://other/", Status: 200}}))

	w := newTestWorker(t, o, storage)
	require.NoError(t, w.Register(ctx))

	names, err := storage.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"test-v1"}, names)
}

func TestWorker_RegisterReusesExistingCache(t *testing.T) {
	o := newOrigin(t)
	storage := NewMemoryStorage()
	ctx := context.Background()

	first := newTestWorker(t, o, storage)
	require.NoError(t, first.Register(ctx))
	hits := o.hits.Load()

	second := newTestWorker(t, o, storage)
	require.NoError(t, second.Register(ctx))
	assert.Equal(t, PhaseServing, second.Phase())
	assert.Equal(t, hits, o.hits.Load(), "existing cache should not be refetched")
}

func TestWorker_BypassBeforeServing(t *testing.T) {
	o := newOrigin(t)
	w := newTestWorker(t, o, NewMemoryStorage())
	require.NoError(t, w.Install(context.Background()))
	o.stale.Store(true)

	_, body := get(t, w.Client(), o.srv.URL+"/course/index.html")
	assert.Equal(t, "network:/course/index.html", body, "active but not serving must use the network")
}

func TestWorker_NonGetBypassesCache(t *testing.T) {
	o := newOrigin(t)
	w := newTestWorker(t, o, NewMemoryStorage())
	require.NoError(t, w.Register(context.Background()))
	o.stale.Store(true)

	resp, err := w.Client().Post(o.srv.URL+"/course/index.html", "text/plain", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "network:/course/index.html", string(body))
}

func TestWorker_PurgeAndStatus(t *testing.T) {
	o := newOrigin(t)
	w := newTestWorker(t, o, NewMemoryStorage())
	ctx := context.Background()
	require.NoError(t, w.Register(ctx))

	st, err := w.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, PhaseServing, st.Phase)
	require.Len(t, st.Caches, 1)
	assert.Equal(t, 3, st.Caches[0].Entries)
	assert.Positive(t, st.Caches[0].TotalBytes)

	require.NoError(t, w.Purge(ctx))
	st, err = w.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, PhaseUninstalled, st.Phase)
	assert.Empty(t, st.Caches)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "uninstalled", PhaseUninstalled.String())
	assert.Equal(t, "installing", PhaseInstalling.String())
	assert.Equal(t, "active", PhaseActive.String())
	assert.Equal(t, "serving", PhaseServing.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
