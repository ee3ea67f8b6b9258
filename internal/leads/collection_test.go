package leads

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

func leadAt(id string, minutes int) models.Lead {
	l := newLead(id, "Mérida", models.StatusNew)
	l.CreatedAt = baseTime.Add(time.Duration(minutes) * time.Minute)
	return l
}

func ids(leads []models.Lead) []string {
	out := make([]string, 0, len(leads))
	for _, l := range leads {
		out = append(out, l.ID)
	}
	return out
}

func TestCollection_OrdersNewestFirst(t *testing.T) {
	c := NewCollection([]models.Lead{leadAt("a", 1), leadAt("c", 3), leadAt("b", 2), leadAt("a", 9)})

	assert.Equal(t, []string{"c", "b", "a"}, ids(c.List()), "duplicates are ignored")
	assert.Equal(t, 3, c.Len())
}

func TestCollection_PrependIsIdempotent(t *testing.T) {
	c := NewCollection([]models.Lead{leadAt("a", 1)})

	assert.True(t, c.Prepend(leadAt("b", 0)))
	assert.False(t, c.Prepend(leadAt("b", 0)))
	assert.Equal(t, []string{"b", "a"}, ids(c.List()))
}

func TestCollection_MergeKeepsNewerVersion(t *testing.T) {
	c := NewCollection([]models.Lead{leadAt("a", 1)})

	newer := leadAt("a", 1)
	newer.Version = 3
	newer.Notes = "v3"
	assert.True(t, c.Merge(newer))

	stale := leadAt("a", 1)
	stale.Version = 2
	stale.Notes = "v2"
	assert.False(t, c.Merge(stale))

	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "v3", got.Notes)
}

func TestCollection_MergeInsertsUnknownInPosition(t *testing.T) {
	c := NewCollection([]models.Lead{leadAt("a", 1), leadAt("c", 3)})

	assert.True(t, c.Merge(leadAt("b", 2)))
	assert.Equal(t, []string{"c", "b", "a"}, ids(c.List()))
}

func TestCollection_SetIgnoresVersion(t *testing.T) {
	c := NewCollection(nil)
	v2 := leadAt("a", 1)
	v2.Version = 2
	c.Set(v2)

	v1 := leadAt("a", 1)
	c.Set(v1)

	got, _ := c.Get("a")
	assert.Equal(t, int64(1), got.Version)
}

func TestCollection_Remove(t *testing.T) {
	c := NewCollection([]models.Lead{leadAt("a", 1), leadAt("b", 2)})

	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.Equal(t, []string{"b"}, ids(c.List()))
}

func TestCollection_ReturnsCopies(t *testing.T) {
	l := leadAt("a", 1)
	l.AssignedTo = strPtr("u-1")
	c := NewCollection([]models.Lead{l})

	got, _ := c.Get("a")
	*got.AssignedTo = "u-2"

	again, _ := c.Get("a")
	assert.Equal(t, "u-1", *again.AssignedTo)
}
