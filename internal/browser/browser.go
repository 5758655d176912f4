// Package browser opens URLs with the platform's default handler.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// ErrUnsupportedURL is returned for URLs that are not http(s) or file.
var ErrUnsupportedURL = errors.New("only http, https and file URLs can be opened")

// Starter launches a command without waiting for it to exit.
type Starter interface {
	Start(ctx context.Context, name string, args []string) error
}

// Option configures an Opener.
type Option func(*Opener)

// WithStarter injects a custom starter (primarily for tests).
func WithStarter(s Starter) Option {
	return func(o *Opener) {
		if s != nil {
			o.starter = s
		}
	}
}

// WithGOOS overrides the detected operating system.
func WithGOOS(goos string) Option {
	return func(o *Opener) {
		o.goos = goos
	}
}

// Opener hands URLs to the desktop. The launched process is detached: it
// shares nothing with this one and outlives it.
type Opener struct {
	goos    string
	starter Starter
}

// New returns an Opener for the current platform.
func New(opts ...Option) *Opener {
	o := &Opener{goos: runtime.GOOS, starter: execStarter{}}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open launches rawURL.
func (o *Opener) Open(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "file":
	default:
		return ErrUnsupportedURL
	}

	name, args := o.command(u.String())
	if err := o.starter.Start(ctx, name, args); err != nil {
		return fmt.Errorf("launch %s: %w", name, err)
	}
	return nil
}

func (o *Opener) command(target string) (string, []string) {
	switch o.goos {
	case "darwin":
		return "open", []string{target}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}
	default:
		return "xdg-open", []string{target}
	}
}

type execStarter struct{}

func (execStarter) Start(_ context.Context, name string, args []string) error {
	// Not CommandContext: the handler must survive this process.
	cmd := exec.Command(name, args...) //nolint:gosec
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
