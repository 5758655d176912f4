package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// document is the wire shape of the catalog resource.
type document struct {
	Units []Unit `json:"units"`
}

// Loader fetches the catalog resource once per startup.
type Loader struct {
	source string
	client *http.Client
	logger *zap.Logger
}

// NewLoader creates a Loader for source, which is an http(s) URL, a file://
// URL or a plain filesystem path. The client must not route through the
// offline cache; a nil client gets a plain one.
func NewLoader(source string, client *http.Client, logger *zap.Logger) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{source: source, client: client, logger: logger}
}

// Source returns the configured catalog location.
func (l *Loader) Source() string { return l.source }

// Load fetches and decodes the catalog. Any failure is a *CatalogLoadError.
// There is no retry.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	data, status, err := l.read(ctx)
	if err != nil {
		return nil, &CatalogLoadError{URL: l.source, StatusCode: status, Err: err}
	}

	cat, err := Parse(data)
	if err != nil {
		return nil, &CatalogLoadError{URL: l.source, Err: err}
	}

	l.logger.Info("catalog loaded", zap.String("source", l.source), zap.Int("units", cat.Len()))
	return cat, nil
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validateDocument(parsed); err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(doc.Units)
}

func (l *Loader) read(ctx context.Context) ([]byte, int, error) {
	u, err := url.Parse(l.source)
	if err != nil || u.Scheme == "" || u.Scheme == "file" {
		path := l.source
		if err == nil && u.Scheme == "file" {
			path = u.Path
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, 0, fmt.Errorf("read catalog file: %w", err)
		}
		return data, 0, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %s", strings.TrimSpace(resp.Status))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	return data, 0, nil
}
