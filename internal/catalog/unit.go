// Package catalog loads and queries the ordered list of course units.
package catalog

// Unit is one learning module. Audio and PDF are optional URLs.
type Unit struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Path  string `json:"path,omitempty"`
	Audio string `json:"audio,omitempty"`
	PDF   string `json:"pdf,omitempty"`
}

// HasAudio reports whether the unit links a playable resource.
func (u Unit) HasAudio() bool { return u.Audio != "" }

// HasDocument reports whether the unit links a document.
func (u Unit) HasDocument() bool { return u.PDF != "" }

// Catalog is an ordered, read-only set of units with unique ids.
type Catalog struct {
	units []Unit
	index map[string]int
}

// New builds a Catalog from units. It returns a *DuplicateUnitError when two units
// share an id and ErrEmptyID when a unit has no id.
func New(units []Unit) (*Catalog, error) {
	c := &Catalog{
		units: make([]Unit, len(units)),
		index: make(map[string]int, len(units)),
	}
	copy(c.units, units)
	for i, u := range c.units {
		if u.ID == "" {
			return nil, ErrEmptyID
		}
		if _, dup := c.index[u.ID]; dup {
			return nil, &DuplicateUnitError{ID: u.ID}
		}
		c.index[u.ID] = i
	}
	return c, nil
}

// MustNew is New for static catalogs; it panics on invalid input.
func MustNew(units []Unit) *Catalog {
	c, err := New(units)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of units. A nil catalog is empty.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.units)
}

// Units returns a copy of the units in catalog order.
func (c *Catalog) Units() []Unit {
	if c == nil {
		return nil
	}
	out := make([]Unit, len(c.units))
	copy(out, c.units)
	return out
}

// IDs returns the unit ids in catalog order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, len(c.units))
	for i, u := range c.units {
		ids[i] = u.ID
	}
	return ids
}

// Find returns the unit with the given id.
func (c *Catalog) Find(id string) (Unit, bool) {
	if c == nil {
		return Unit{}, false
	}
	i, ok := c.index[id]
	if !ok {
		return Unit{}, false
	}
	return c.units[i], true
}

// Has reports whether id names a unit in the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.Find(id)
	return ok
}

// First returns the first unit, if any.
func (c *Catalog) First() (Unit, bool) {
	if c.Len() == 0 {
		return Unit{}, false
	}
	return c.units[0], true
}
