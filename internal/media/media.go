// Package media checks and downloads a unit's audio and document
// resources. Failures are reported as *LoadFailure and never stop the rest
// of the application.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Kind names the resource a failure belongs to.
type Kind string

const (
	KindAudio    Kind = "audio"
	KindDocument Kind = "document"
)

// ErrNoResource is returned for a unit without the requested resource.
var ErrNoResource = errors.New("unit has no such resource")

// LoadFailure reports that a media resource could not be loaded.
type LoadFailure struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *LoadFailure) Error() string {
	return fmt.Sprintf("load %s %s: %v", e.Kind, e.URL, e.Err)
}

func (e *LoadFailure) Unwrap() error { return e.Err }

// Label is the short status text shown next to the affected control.
func (e *LoadFailure) Label() string {
	return string(e.Kind) + " unavailable"
}

// Client probes and downloads media.
type Client struct {
	http   *http.Client
	logger *zap.Logger
}

// New returns a Client. Pass the offline worker's client to serve cached
// media when the network is down.
func New(hc *http.Client, logger *zap.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: hc, logger: logger.Named("media")}
}

// Probe checks that rawURL answers successfully. Servers that reject HEAD
// are retried with GET.
func (c *Client) Probe(ctx context.Context, kind Kind, rawURL string) error {
	if rawURL == "" {
		return &LoadFailure{Kind: kind, Err: ErrNoResource}
	}
	status, err := c.status(ctx, http.MethodHead, rawURL)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, err = c.status(ctx, http.MethodGet, rawURL)
	}
	if err != nil {
		return &LoadFailure{Kind: kind, URL: rawURL, Err: err}
	}
	if status < 200 || status > 299 {
		return &LoadFailure{Kind: kind, URL: rawURL, Err: fmt.Errorf("HTTP %d", status)}
	}
	return nil
}

func (c *Client) status(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode, nil
}

// Download saves rawURL into dir and returns the written path. The file is
// written under a temporary name and renamed once complete.
func (c *Client) Download(ctx context.Context, kind Kind, rawURL, dir string) (string, error) {
	if rawURL == "" {
		return "", &LoadFailure{Kind: kind, Err: ErrNoResource}
	}
	fail := func(err error) (string, error) {
		return "", &LoadFailure{Kind: kind, URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fail(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fail(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(fmt.Errorf("create download dir: %w", err))
	}
	dest := filepath.Join(dir, FileName(rawURL, kind))
	tmp, err := os.CreateTemp(dir, ".bmc-download-*")
	if err != nil {
		return fail(fmt.Errorf("create temp file: %w", err))
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fail(fmt.Errorf("write %s: %w", dest, err))
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fail(fmt.Errorf("rename into place: %w", err))
	}

	c.logger.Info("media downloaded", zap.String("kind", string(kind)), zap.String("path", dest), zap.Int64("bytes", n))
	return dest, nil
}

// FileName derives a local file name from the last path segment of rawURL.
func FileName(rawURL string, kind Kind) string {
	name := ""
	if u, err := url.Parse(rawURL); err == nil {
		name = path.Base(u.Path)
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" {
		switch kind {
		case KindAudio:
			return "audio.mp3"
		default:
			return "document.pdf"
		}
	}
	return name
}
