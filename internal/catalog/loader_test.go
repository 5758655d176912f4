package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromHTTP(t *testing.T) {
	var gotCacheControl string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCacheControl = r.Header.Get("Cache-Control")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"units":[{"id":"u1","title":"One","audio":"a.mp3"},{"id":"u2","title":"Two","pdf":"b.pdf"}]}`))
	}))
	defer srv.Close()

	cat, err := NewLoader(srv.URL+"/data/units.json", srv.Client(), nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())
	assert.Equal(t, []string{"u1", "u2"}, cat.IDs())
	assert.Equal(t, "no-cache", gotCacheControl)
}

func TestLoadMissingUnitsFieldIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cat, err := NewLoader(srv.URL, srv.Client(), nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, cat.Len())
}

func TestParseTreatsNullAsAbsent(t *testing.T) {
	cat, err := Parse([]byte(`{"units":[{"id":"u1","title":"One","audio":null,"pdf":null,"path":null}]}`))
	require.NoError(t, err)
	u, ok := cat.Find("u1")
	require.True(t, ok)
	assert.False(t, u.HasAudio())
	assert.False(t, u.HasDocument())
	assert.Empty(t, u.Path)

	cat, err = Parse([]byte(`{"units":null}`))
	require.NoError(t, err)
	assert.Equal(t, 0, cat.Len())
}

func TestLoadNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewLoader(srv.URL, srv.Client(), nil).Load(context.Background())
	var loadErr *CatalogLoadError
	require.True(t, errors.As(err, &loadErr), "expected CatalogLoadError, got %v", err)
	assert.Equal(t, http.StatusNotFound, loadErr.StatusCode)
	assert.Contains(t, loadErr.Error(), "HTTP 404")
}

func TestLoadTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewLoader(url, nil, nil).Load(context.Background())
	var loadErr *CatalogLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, 0, loadErr.StatusCode)
	assert.Error(t, loadErr.Unwrap())
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"units": [`},
		{"units not array", `{"units": {"id": "u1"}}`},
		{"missing title", `{"units": [{"id": "u1"}]}`},
		{"empty id", `{"units": [{"id": "", "title": "x"}]}`},
		{"numeric id", `{"units": [{"id": 7, "title": "x"}]}`},
		{"numeric audio", `{"units": [{"id": "u1", "title": "x", "audio": 3}]}`},
		{"duplicate id", `{"units": [{"id": "u1", "title": "a"}, {"id": "u1", "title": "b"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewLoader(srv.URL, srv.Client(), nil).Load(context.Background())
			var loadErr *CatalogLoadError
			assert.ErrorAs(t, err, &loadErr)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"units":[{"id":"u1","title":"One","path":"Module 1"}]}`), 0o600))

	for _, source := range []string{path, "file://" + path} {
		cat, err := NewLoader(source, nil, nil).Load(context.Background())
		require.NoError(t, err, source)
		u, ok := cat.Find("u1")
		require.True(t, ok)
		assert.Equal(t, "Module 1", u.Path)
	}
}
