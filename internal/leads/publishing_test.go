package leads

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/feed"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

// memoryStore is a minimal Store for exercising decorators.
type memoryStore struct {
	leads   map[string]models.Lead
	failing bool
}

func newMemoryStore(leads ...models.Lead) *memoryStore {
	s := &memoryStore{leads: make(map[string]models.Lead)}
	for _, l := range leads {
		s.leads[l.ID] = l
	}
	return s
}

func (s *memoryStore) Find(ctx context.Context, f Filter) ([]models.Lead, error) {
	var out []models.Lead
	for _, l := range s.leads {
		if f.Matches(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *memoryStore) Get(ctx context.Context, id string) (*models.Lead, error) {
	l, ok := s.leads[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (s *memoryStore) Insert(ctx context.Context, l *models.Lead) error {
	if s.failing {
		return errors.New("insert failed")
	}
	l.Version = 1
	s.leads[l.ID] = *l
	return nil
}

func (s *memoryStore) Update(ctx context.Context, l *models.Lead) error {
	prev, ok := s.leads[l.ID]
	if !ok {
		return ErrNotFound
	}
	l.Version = prev.Version + 1
	s.leads[l.ID] = *l
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) (bool, error) {
	_, ok := s.leads[id]
	delete(s.leads, id)
	return ok, nil
}

func (s *memoryStore) DeleteAll(ctx context.Context) (int64, error) {
	n := int64(len(s.leads))
	s.leads = make(map[string]models.Lead)
	return n, nil
}

type recordingPublisher struct {
	events []feed.Event
}

func (p *recordingPublisher) Publish(ev feed.Event) {
	p.events = append(p.events, ev)
}

func TestPublishingStore(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	store := NewPublishingStore(newMemoryStore(), pub)

	l := newLead("l-1", "Mérida", models.StatusNew)
	require.NoError(t, store.Insert(ctx, &l))

	l.AssignedTo = strPtr("u-seller")
	require.NoError(t, store.Update(ctx, &l))

	deleted, err := store.Delete(ctx, "l-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, "l-1")
	require.NoError(t, err)
	assert.False(t, deleted)

	require.Len(t, pub.events, 3)
	assert.Equal(t, feed.Event{Op: feed.OpInsert, ID: "l-1", City: "Mérida", Version: 1}, pub.events[0])
	assert.Equal(t, feed.OpUpdate, pub.events[1].Op)
	assert.Equal(t, int64(2), pub.events[1].Version)
	assert.Equal(t, "u-seller", *pub.events[1].AssignedTo)
	assert.Equal(t, feed.OpDelete, pub.events[2].Op)
	assert.Equal(t, "Mérida", pub.events[2].City)
}

func TestPublishingStore_DeleteAll(t *testing.T) {
	pub := &recordingPublisher{}
	store := NewPublishingStore(newMemoryStore(leadAt("a", 1), leadAt("b", 2)), pub)

	n, err := store.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Len(t, pub.events, 2)
}

func TestPublishingStore_FailureDoesNotPublish(t *testing.T) {
	pub := &recordingPublisher{}
	mem := newMemoryStore()
	mem.failing = true
	store := NewPublishingStore(mem, pub)

	l := newLead("l-1", "Mérida", models.StatusNew)
	assert.Error(t, store.Insert(context.Background(), &l))

	missing := newLead("l-2", "Mérida", models.StatusNew)
	assert.ErrorIs(t, store.Update(context.Background(), &missing), ErrNotFound)
	assert.Empty(t, pub.events)
}

func TestFilterMatches(t *testing.T) {
	l := newLead("l-1", "Mérida", models.StatusContacted)

	assert.False(t, Filter{}.Matches(l), "zero scope is not global")
	assert.True(t, Filter{Scope: Scope{Global: true}}.Matches(l))
	assert.True(t, Filter{Scope: Scope{City: "merida"}}.Matches(l))
	assert.False(t, Filter{Scope: Scope{Global: true}, Status: models.StatusNew}.Matches(l))
	assert.True(t, Filter{Scope: Scope{Global: true}, Search: "lópez"}.Matches(l))
	assert.True(t, Filter{Scope: Scope{Global: true}, Search: "mer-2024"}.Matches(l), "search is case-insensitive")
	assert.False(t, Filter{Scope: Scope{Global: true}, Search: "cancún"}.Matches(l))
}
