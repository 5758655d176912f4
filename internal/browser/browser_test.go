package browser

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type recordingStarter struct {
	name string
	args []string
	err  error
}

func (r *recordingStarter) Start(_ context.Context, name string, args []string) error {
	r.name, r.args = name, args
	return r.err
}

func TestOpen_Commands(t *testing.T) {
	tests := []struct {
		goos     string
		wantName string
		wantArgs []string
	}{
		{"linux", "xdg-open", []string{"https://forms.gle/x"}},
		{"freebsd", "xdg-open", []string{"https://forms.gle/x"}},
		{"darwin", "open", []string{"https://forms.gle/x"}},
		{"windows", "rundll32", []string{"url.dll,FileProtocolHandler", "https://forms.gle/x"}},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			rs := &recordingStarter{}
			o := New(WithGOOS(tt.goos), WithStarter(rs))
			if err := o.Open(context.Background(), "https://forms.gle/x"); err != nil {
				t.Fatalf("Open: %v", err)
			}
			if rs.name != tt.wantName || !reflect.DeepEqual(rs.args, tt.wantArgs) {
				t.Errorf("started %s %v, want %s %v", rs.name, rs.args, tt.wantName, tt.wantArgs)
			}
		})
	}
}

func TestOpen_RejectsOtherSchemes(t *testing.T) {
	rs := &recordingStarter{}
	o := New(WithStarter(rs))
	for _, u := range []string{"javascript:alert(1)", "mailto:a@b", "relative/path"} {
		if err := o.Open(context.Background(), u); !errors.Is(err, ErrUnsupportedURL) {
			t.Errorf("Open(%q) = %v, want ErrUnsupportedURL", u, err)
		}
	}
	if rs.name != "" {
		t.Errorf("starter was called with %q", rs.name)
	}
}

func TestOpen_StarterError(t *testing.T) {
	o := New(WithGOOS("linux"), WithStarter(&recordingStarter{err: errors.New("not found")}))
	if err := o.Open(context.Background(), "https://example.com"); err == nil {
		t.Fatal("expected error")
	}
}
