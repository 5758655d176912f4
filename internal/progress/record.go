package progress

// Record maps a unit id to its completion flag.
type Record map[string]bool

// Clone returns an independent copy. Cloning nil yields an empty record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Equal reports whether both records hold the same keys and flags.
func (r Record) Equal(other Record) bool {
	if len(r) != len(other) {
		return false
	}
	for k, v := range r {
		ov, ok := other[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// WithKeys returns a copy of r where every id in ids has an entry. Missing
// ids are set to false; existing entries, including ids not in ids, are kept.
func (r Record) WithKeys(ids []string) Record {
	out := r.Clone()
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			out[id] = false
		}
	}
	return out
}

// WithCompleted returns a copy of r with id marked complete.
func (r Record) WithCompleted(id string) Record {
	out := r.Clone()
	out[id] = true
	return out
}
