package location

// History is a browser-style navigation stack of fragments. Pushing after
// going back discards the forward entries.
type History struct {
	entries []string
	pos     int
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{pos: -1}
}

// Push records link as the current entry. Pushing the current entry again
// is a no-op so repeated selections of one unit do not pile up.
func (h *History) Push(link string) {
	if cur, ok := h.Current(); ok && cur == link {
		return
	}
	h.entries = append(h.entries[:h.pos+1], link)
	h.pos = len(h.entries) - 1
}

// Current returns the entry the history points at.
func (h *History) Current() (string, bool) {
	if h.pos < 0 || h.pos >= len(h.entries) {
		return "", false
	}
	return h.entries[h.pos], true
}

// Back moves one entry back and returns it.
func (h *History) Back() (string, bool) {
	if h.pos <= 0 {
		return "", false
	}
	h.pos--
	return h.entries[h.pos], true
}

// Forward moves one entry forward and returns it.
func (h *History) Forward() (string, bool) {
	if h.pos+1 >= len(h.entries) {
		return "", false
	}
	h.pos++
	return h.entries[h.pos], true
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	return len(h.entries)
}
