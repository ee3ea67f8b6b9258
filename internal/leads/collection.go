package leads

import (
	"sort"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

// Collection is an id-indexed list of leads kept newest first. It is not
// safe for concurrent use; View guards it.
type Collection struct {
	items map[string]models.Lead
	order []string
}

// NewCollection creates a collection holding leads, sorted newest first.
func NewCollection(leads []models.Lead) *Collection {
	c := &Collection{items: make(map[string]models.Lead, len(leads))}
	c.Reset(leads)
	return c
}

// Reset replaces the contents.
func (c *Collection) Reset(leads []models.Lead) {
	c.items = make(map[string]models.Lead, len(leads))
	c.order = c.order[:0]
	for _, l := range leads {
		if _, dup := c.items[l.ID]; dup {
			continue
		}
		c.items[l.ID] = l.Clone()
		c.order = append(c.order, l.ID)
	}
	sort.SliceStable(c.order, func(i, j int) bool {
		return c.items[c.order[i]].CreatedAt.After(c.items[c.order[j]].CreatedAt)
	})
}

// Get returns a copy of the lead with the given id.
func (c *Collection) Get(id string) (models.Lead, bool) {
	l, ok := c.items[id]
	if !ok {
		return models.Lead{}, false
	}
	return l.Clone(), true
}

// Has reports whether the id is held.
func (c *Collection) Has(id string) bool {
	_, ok := c.items[id]
	return ok
}

// Prepend adds a lead at the head. Leads already held are left untouched.
func (c *Collection) Prepend(l models.Lead) bool {
	if c.Has(l.ID) {
		return false
	}
	c.items[l.ID] = l.Clone()
	c.order = append([]string{l.ID}, c.order...)
	return true
}

// Merge stores l unless the held copy has a newer version. Unknown leads are
// inserted at their creation-time position. It reports whether l was stored.
func (c *Collection) Merge(l models.Lead) bool {
	if held, ok := c.items[l.ID]; ok {
		if held.Version > l.Version {
			return false
		}
		c.items[l.ID] = l.Clone()
		return true
	}
	c.insertSorted(l)
	return true
}

// Set stores l regardless of version.
func (c *Collection) Set(l models.Lead) {
	if !c.Has(l.ID) {
		c.insertSorted(l)
		return
	}
	c.items[l.ID] = l.Clone()
}

// Remove deletes the lead with the given id and reports whether it was held.
func (c *Collection) Remove(id string) bool {
	if !c.Has(id) {
		return false
	}
	delete(c.items, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns copies of every lead in order.
func (c *Collection) List() []models.Lead {
	out := make([]models.Lead, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id].Clone())
	}
	return out
}

// Len returns the number of leads held.
func (c *Collection) Len() int {
	return len(c.order)
}

func (c *Collection) insertSorted(l models.Lead) {
	c.items[l.ID] = l.Clone()
	i := sort.Search(len(c.order), func(i int) bool {
		return !c.items[c.order[i]].CreatedAt.After(l.CreatedAt)
	})
	c.order = append(c.order, "")
	copy(c.order[i+1:], c.order[i:])
	c.order[i] = l.ID
}
