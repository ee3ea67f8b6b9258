package leads

import (
	"context"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/feed"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

// PublishingStore wraps a Store that has no native change stream and
// publishes an event after every successful mutation.
type PublishingStore struct {
	Store
	publisher feed.Publisher
}

// NewPublishingStore wraps store so that mutations reach publisher.
func NewPublishingStore(store Store, publisher feed.Publisher) *PublishingStore {
	return &PublishingStore{Store: store, publisher: publisher}
}

func (s *PublishingStore) Insert(ctx context.Context, l *models.Lead) error {
	if err := s.Store.Insert(ctx, l); err != nil {
		return err
	}
	s.publisher.Publish(EventFor(feed.OpInsert, *l))
	return nil
}

func (s *PublishingStore) Update(ctx context.Context, l *models.Lead) error {
	if err := s.Store.Update(ctx, l); err != nil {
		return err
	}
	s.publisher.Publish(EventFor(feed.OpUpdate, *l))
	return nil
}

func (s *PublishingStore) Delete(ctx context.Context, id string) (bool, error) {
	existing, err := s.Store.Get(ctx, id)
	if err != nil {
		return false, err
	}

	deleted, err := s.Store.Delete(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}

	ev := feed.Event{Op: feed.OpDelete, ID: id}
	if existing != nil {
		ev = EventFor(feed.OpDelete, *existing)
	}
	s.publisher.Publish(ev)
	return true, nil
}

func (s *PublishingStore) DeleteAll(ctx context.Context) (int64, error) {
	existing, err := s.Store.Find(ctx, Filter{Scope: Scope{Global: true}})
	if err != nil {
		return 0, err
	}

	n, err := s.Store.DeleteAll(ctx)
	if err != nil {
		return n, err
	}
	for _, l := range existing {
		s.publisher.Publish(EventFor(feed.OpDelete, l))
	}
	return n, nil
}

// EventFor builds the change event describing l.
func EventFor(op feed.Op, l models.Lead) feed.Event {
	return feed.Event{
		Op:         op,
		ID:         l.ID,
		City:       l.City,
		AssignedTo: l.AssignedTo,
		Version:    l.Version,
	}
}
