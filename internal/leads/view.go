package leads

import (
	"context"
	"errors"
	"sync"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/feed"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/logger"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

// Remote is the authoritative side of lead mutations. Errors carry the
// server's message; ErrNotFound means the id no longer exists or is out of
// the session's scope.
type Remote interface {
	Get(ctx context.Context, s Session, id string) (*models.Lead, error)
	List(ctx context.Context, s Session, f Filter) ([]models.Lead, error)
	UpdateStatus(ctx context.Context, s Session, id string, to models.LeadStatus) (*models.Lead, error)
	Assign(ctx context.Context, s Session, id string, staffID *string) (*models.Lead, error)
	UpdateDetails(ctx context.Context, s Session, id string, p Patch) (*models.Lead, error)
}

// Change is a modification of a view's contents, streamed to watchers.
// Lead is nil for removals.
type Change struct {
	Lead *models.Lead `json:"lead,omitempty"`
	Op   feed.Op      `json:"op"`
	ID   string       `json:"id"`
}

const watcherBuffer = 32

// View is one staff session's live list of leads. Mutations are applied
// locally first, committed through Remote, and rolled back to the captured
// pre-image when the commit fails. Run applies change events from other
// actors.
type View struct {
	remote   Remote
	log      *logger.Logger
	items    *Collection
	watchers map[int]chan Change
	session  Session
	filter   Filter
	mu       sync.Mutex
	next     int
	closed   bool
}

// NewView creates an empty view for the session.
func NewView(s Session, remote Remote, log *logger.Logger) *View {
	return &View{
		remote:   remote,
		log:      log.WithSession(s.UserID, string(s.Role)),
		items:    NewCollection(nil),
		watchers: make(map[int]chan Change),
		session:  s,
		filter:   Filter{Scope: ScopeOf(s)},
	}
}

// Session returns the session the view was opened for.
func (v *View) Session() Session {
	return v.session
}

// Load replaces the view's contents with the session's scoped listing.
func (v *View) Load(ctx context.Context) error {
	list, err := v.remote.List(ctx, v.session, v.filter)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.items.Reset(list)
	v.mu.Unlock()

	v.log.Debug("View loaded", map[string]interface{}{"count": len(list)})
	return nil
}

// List returns the leads held, newest first.
func (v *View) List() []models.Lead {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.items.List()
}

// Get returns the held copy of a lead.
func (v *View) Get(id string) (models.Lead, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.items.Get(id)
}

// UpdateStatus moves a lead along the pipeline.
func (v *View) UpdateStatus(ctx context.Context, id string, to models.LeadStatus) (*models.Lead, error) {
	return v.mutate(ctx, id, "update status",
		func(l models.Lead) (models.Lead, error) { return Transition(v.session, l, to) },
		func(ctx context.Context) (*models.Lead, error) { return v.remote.UpdateStatus(ctx, v.session, id, to) },
	)
}

// Assign sets or clears a lead's assignee.
func (v *View) Assign(ctx context.Context, id string, staffID *string) (*models.Lead, error) {
	return v.mutate(ctx, id, "assign lead",
		func(l models.Lead) (models.Lead, error) { return Assign(v.session, l, staffID) },
		func(ctx context.Context) (*models.Lead, error) { return v.remote.Assign(ctx, v.session, id, staffID) },
	)
}

// UpdateDetails applies a patch to a lead's details. The optimistic copy keeps
// the previous totals until the committed record arrives with recomputed
// ones.
func (v *View) UpdateDetails(ctx context.Context, id string, p Patch) (*models.Lead, error) {
	return v.mutate(ctx, id, "update lead",
		func(l models.Lead) (models.Lead, error) { return UpdateDetails(v.session, l, p) },
		func(ctx context.Context) (*models.Lead, error) { return v.remote.UpdateDetails(ctx, v.session, id, p) },
	)
}

func (v *View) mutate(
	ctx context.Context,
	id, op string,
	apply func(models.Lead) (models.Lead, error),
	commit func(ctx context.Context) (*models.Lead, error),
) (*models.Lead, error) {
	v.mu.Lock()
	pre, held := v.items.Get(id)
	if held {
		next, err := apply(pre)
		if err != nil {
			v.mu.Unlock()
			return nil, err
		}
		v.items.Set(next)
		v.notify(feed.OpUpdate, id, &next)
	}
	v.mu.Unlock()

	saved, err := commit(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()

	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			if v.items.Remove(id) {
				v.notify(feed.OpDelete, id, nil)
			}
		case held:
			v.rollback(pre)
		}
		v.log.Warn("Lead mutation failed", map[string]interface{}{
			"op":      op,
			"lead_id": id,
			"error":   err.Error(),
		})
		return nil, asRemote(op, err)
	}

	v.apply(*saved)
	return saved, nil
}

// rollback restores pre unless a newer committed version has already been
// merged while the commit was in flight.
func (v *View) rollback(pre models.Lead) {
	cur, ok := v.items.Get(pre.ID)
	if ok && cur.Version > pre.Version {
		return
	}
	v.items.Set(pre)
	v.notify(feed.OpUpdate, pre.ID, &pre)
}

// apply merges a committed lead, removing it when it has left the scope.
func (v *View) apply(l models.Lead) {
	if !Visible(v.session, l) {
		if v.items.Remove(l.ID) {
			v.notify(feed.OpDelete, l.ID, nil)
		}
		return
	}
	if v.items.Merge(l) {
		v.notify(feed.OpUpdate, l.ID, &l)
	}
}

// Reconcile applies one change event from the feed.
func (v *View) Reconcile(ctx context.Context, ev feed.Event) error {
	if ev.Op == feed.OpDelete {
		v.mu.Lock()
		if v.items.Remove(ev.ID) {
			v.notify(feed.OpDelete, ev.ID, nil)
		}
		v.mu.Unlock()
		return nil
	}

	inScope := v.filter.Scope.Contains(ev.City, ev.AssignedTo)
	if !inScope {
		if ev.Op == feed.OpUpdate {
			v.mu.Lock()
			if v.items.Remove(ev.ID) {
				v.notify(feed.OpDelete, ev.ID, nil)
			}
			v.mu.Unlock()
		}
		return nil
	}

	if ev.Op == feed.OpInsert {
		v.mu.Lock()
		held := v.items.Has(ev.ID)
		v.mu.Unlock()
		if held {
			return nil
		}
	}

	l, err := v.remote.Get(ctx, v.session, ev.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			v.mu.Lock()
			if v.items.Remove(ev.ID) {
				v.notify(feed.OpDelete, ev.ID, nil)
			}
			v.mu.Unlock()
			return nil
		}
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if ev.Op == feed.OpInsert {
		if v.items.Prepend(*l) {
			v.notify(feed.OpInsert, l.ID, l)
		}
		return nil
	}
	v.apply(*l)
	return nil
}

// Run reconciles events until ctx is done or events is closed.
func (v *View) Run(ctx context.Context, events <-chan feed.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := v.Reconcile(ctx, ev); err != nil {
				v.log.Error("Failed to reconcile lead event", err, map[string]interface{}{
					"op":      string(ev.Op),
					"lead_id": ev.ID,
				})
			}
		}
	}
}

// Watch returns a channel of changes and a function that stops watching.
// Slow watchers miss changes rather than blocking the view.
func (v *View) Watch() (<-chan Change, func()) {
	ch := make(chan Change, watcherBuffer)

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := v.next
	v.next++
	v.watchers[id] = ch
	v.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.mu.Lock()
			if c, ok := v.watchers[id]; ok {
				delete(v.watchers, id)
				close(c)
			}
			v.mu.Unlock()
		})
	}
}

// Close ends every watch. The view must not be used afterwards.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.closed = true
	for id, ch := range v.watchers {
		delete(v.watchers, id)
		close(ch)
	}
}

// notify must be called with mu held.
func (v *View) notify(op feed.Op, id string, l *models.Lead) {
	var lead *models.Lead
	if l != nil {
		c := l.Clone()
		lead = &c
	}
	change := Change{Op: op, ID: id, Lead: lead}
	for _, ch := range v.watchers {
		select {
		case ch <- change:
		default:
		}
	}
}

// asRemote leaves domain errors as they are and wraps anything else as a
// remote failure.
func asRemote(op string, err error) error {
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrRemote) ||
		errors.Is(err, ErrConflict) {
		return err
	}
	return &RemoteError{Op: op, Err: err}
}
