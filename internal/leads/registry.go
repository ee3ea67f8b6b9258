package leads

import (
	"context"
	"sync"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/feed"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/logger"
)

// Subscriber hands out feed subscriptions.
type Subscriber interface {
	Subscribe(buffer int) (<-chan feed.Event, func())
}

const viewEventBuffer = 64

type openView struct {
	view        *View
	cancel      context.CancelFunc
	unsubscribe func()
	done        chan struct{}
}

// Registry owns the live view of every signed-in staff member, keyed by user
// id. Each view has its own feed subscription and reducer goroutine.
type Registry struct {
	remote Remote
	feed   Subscriber
	log    *logger.Logger
	views  map[string]*openView
	base   context.Context
	stop   context.CancelFunc
	onOpen func(open int)
	mu     sync.Mutex
}

// NewRegistry creates an empty Registry.
func NewRegistry(remote Remote, sub Subscriber, log *logger.Logger) *Registry {
	base, stop := context.WithCancel(context.Background())
	return &Registry{
		remote: remote,
		feed:   sub,
		log:    log,
		views:  make(map[string]*openView),
		base:   base,
		stop:   stop,
	}
}

// OnChange registers a callback receiving the number of open views whenever
// it changes.
func (r *Registry) OnChange(fn func(open int)) {
	r.mu.Lock()
	r.onOpen = fn
	r.mu.Unlock()
}

// Open returns the session's view, creating and loading it on first use. A
// session whose role or city changed gets a fresh view.
func (r *Registry) Open(ctx context.Context, s Session) (*View, error) {
	if !s.IsStaff() {
		return nil, ErrForbidden
	}

	r.mu.Lock()
	if ov, ok := r.views[s.UserID]; ok {
		if ov.view.Session() == s {
			r.mu.Unlock()
			return ov.view, nil
		}
		delete(r.views, s.UserID)
		r.mu.Unlock()
		r.shutdown(ov)
	} else {
		r.mu.Unlock()
	}

	view := NewView(s, r.remote, r.log)
	events, unsubscribe := r.feed.Subscribe(viewEventBuffer)
	if err := view.Load(ctx); err != nil {
		unsubscribe()
		return nil, err
	}

	runCtx, cancel := context.WithCancel(r.base)
	ov := &openView{view: view, cancel: cancel, unsubscribe: unsubscribe, done: make(chan struct{})}

	r.mu.Lock()
	stale, raced := r.views[s.UserID]
	if raced && stale.view.Session() == s {
		r.mu.Unlock()
		cancel()
		unsubscribe()
		return stale.view, nil
	}
	r.views[s.UserID] = ov
	n := len(r.views)
	onOpen := r.onOpen
	r.mu.Unlock()

	if raced {
		r.shutdown(stale)
	}

	go func() {
		defer close(ov.done)
		view.Run(runCtx, events)
	}()

	r.log.Info("Lead view opened", map[string]interface{}{
		"user_id": s.UserID,
		"role":    string(s.Role),
		"count":   len(view.List()),
	})
	if onOpen != nil {
		onOpen(n)
	}
	return view, nil
}

// Get returns the open view for a user.
func (r *Registry) Get(userID string) (*View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ov, ok := r.views[userID]
	if !ok {
		return nil, false
	}
	return ov.view, true
}

// Len returns the number of open views.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Close ends a user's view and reports whether one was open.
func (r *Registry) Close(userID string) bool {
	r.mu.Lock()
	ov, ok := r.views[userID]
	if ok {
		delete(r.views, userID)
	}
	n := len(r.views)
	onOpen := r.onOpen
	r.mu.Unlock()

	if !ok {
		return false
	}
	r.shutdown(ov)
	r.log.Info("Lead view closed", map[string]interface{}{"user_id": userID})
	if onOpen != nil {
		onOpen(n)
	}
	return true
}

// CloseAll ends every view. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	views := r.views
	r.views = make(map[string]*openView)
	onOpen := r.onOpen
	r.mu.Unlock()

	r.stop()
	for _, ov := range views {
		r.shutdown(ov)
	}
	if onOpen != nil {
		onOpen(0)
	}
}

func (r *Registry) shutdown(ov *openView) {
	ov.cancel()
	ov.unsubscribe()
	<-ov.done
	ov.view.Close()
}
