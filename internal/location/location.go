// Package location encodes the active unit as a shareable link fragment
// ("#unit=<id>") and keeps a back/forward history of visited fragments.
package location

import (
	"net/url"
	"strings"
)

// Key is the fragment parameter that carries the unit id.
const Key = "unit"

// Format returns the fragment that selects id. Ids are percent-encoded with
// spaces written as %20.
func Format(id string) string {
	return "#" + Key + "=" + escape(id)
}

// Parse extracts the unit id from a link. The link may be a bare fragment
// ("#unit=u1" or "unit=u1") or a full URL carrying one. It reports false
// when no non-empty unit parameter is present.
func Parse(link string) (string, bool) {
	link = strings.TrimSpace(link)
	if i := strings.IndexByte(link, '#'); i >= 0 {
		link = link[i+1:]
	}
	if link == "" {
		return "", false
	}

	values, err := url.ParseQuery(link)
	if err != nil {
		// ParseQuery keeps the pairs it could decode; only give up when
		// the unit key itself is unusable.
		if _, ok := values[Key]; !ok {
			return "", false
		}
	}
	id := values.Get(Key)
	if id == "" {
		return "", false
	}
	return id, true
}

func escape(id string) string {
	return strings.ReplaceAll(url.QueryEscape(id), "+", "%20")
}
