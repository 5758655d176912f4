package location

import "testing"

func TestFormat(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"u1", "#unit=u1"},
		{"unit 2", "#unit=unit%202"},
		{"a/b&c", "#unit=a%2Fb%26c"},
		{"", "#unit="},
	}
	for _, tt := range tests {
		if got := Format(tt.id); got != tt.want {
			t.Errorf("Format(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		link   string
		want   string
		wantOK bool
	}{
		{"#unit=u2", "u2", true},
		{"unit=u2", "u2", true},
		{"https://example.com/#unit=u2", "u2", true},
		{"#unit=unit%202", "unit 2", true},
		{"#unit=unit+2", "unit 2", true},
		{"#other=1&unit=u3", "u3", true},
		{"#unit=", "", false},
		{"#", "", false},
		{"", "", false},
		{"#foo=bar", "", false},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.link)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Parse(%q) = %q, %v; want %q, %v", tt.link, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, id := range []string{"u1", "unit 1", "ü-ñ", "a=b&c=d", "100%"} {
		got, ok := Parse(Format(id))
		if !ok || got != id {
			t.Errorf("round trip %q: got %q, %v", id, got, ok)
		}
	}
}

func TestHistory(t *testing.T) {
	h := NewHistory()
	if _, ok := h.Current(); ok {
		t.Fatal("empty history has a current entry")
	}
	if _, ok := h.Back(); ok {
		t.Fatal("Back on empty history succeeded")
	}

	h.Push("#unit=u1")
	h.Push("#unit=u2")
	h.Push("#unit=u2")
	h.Push("#unit=u3")
	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", h.Len())
	}

	if got, _ := h.Back(); got != "#unit=u2" {
		t.Errorf("Back() = %q, want #unit=u2", got)
	}
	if got, _ := h.Back(); got != "#unit=u1" {
		t.Errorf("Back() = %q, want #unit=u1", got)
	}
	if _, ok := h.Back(); ok {
		t.Error("Back past the start succeeded")
	}
	if got, _ := h.Forward(); got != "#unit=u2" {
		t.Errorf("Forward() = %q, want #unit=u2", got)
	}

	h.Push("#unit=u4")
	if _, ok := h.Forward(); ok {
		t.Error("forward entries survived a push")
	}
	if got, _ := h.Current(); got != "#unit=u4" {
		t.Errorf("Current() = %q, want #unit=u4", got)
	}
	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
}
