package leads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/feed"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

func TestRegistry_OpenReusesView(t *testing.T) {
	remote := new(MockRemote)
	remote.On("List", mock.Anything, seller, mock.Anything).Return([]models.Lead{leadAt("a", 1)}, nil).Once()

	hub := feed.NewHub(nil)
	reg := NewRegistry(remote, hub, nil)
	defer reg.CloseAll()

	first, err := reg.Open(context.Background(), seller)
	require.NoError(t, err)
	second, err := reg.Open(context.Background(), seller)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, 1, hub.Len())
	remote.AssertExpectations(t)
}

func TestRegistry_SessionChangeReopens(t *testing.T) {
	moved := seller
	moved.City = "Cancún"

	remote := new(MockRemote)
	remote.On("List", mock.Anything, seller, mock.Anything).Return([]models.Lead{}, nil).Once()
	remote.On("List", mock.Anything, moved, mock.Anything).Return([]models.Lead{}, nil).Once()

	hub := feed.NewHub(nil)
	reg := NewRegistry(remote, hub, nil)
	defer reg.CloseAll()

	first, err := reg.Open(context.Background(), seller)
	require.NoError(t, err)
	second, err := reg.Open(context.Background(), moved)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, 1, hub.Len(), "previous subscription released")
}

func TestRegistry_RejectsAnonymous(t *testing.T) {
	reg := NewRegistry(new(MockRemote), feed.NewHub(nil), nil)

	_, err := reg.Open(context.Background(), Anonymous())
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestRegistry_LoadFailureReleasesSubscription(t *testing.T) {
	remote := new(MockRemote)
	remote.On("List", mock.Anything, admin, mock.Anything).Return(nil, errors.New("db down"))

	hub := feed.NewHub(nil)
	reg := NewRegistry(remote, hub, nil)

	_, err := reg.Open(context.Background(), admin)
	assert.Error(t, err)
	assert.Equal(t, 0, hub.Len())
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_ViewsFollowTheFeed(t *testing.T) {
	fresh := newLead("l-1", "Mérida", models.StatusNew)

	remote := new(MockRemote)
	remote.On("List", mock.Anything, admin, mock.Anything).Return([]models.Lead{}, nil)
	remote.On("Get", mock.Anything, admin, "l-1").Return(&fresh, nil)

	hub := feed.NewHub(nil)
	reg := NewRegistry(remote, hub, nil)
	defer reg.CloseAll()

	var open []int
	reg.OnChange(func(n int) { open = append(open, n) })

	view, err := reg.Open(context.Background(), admin)
	require.NoError(t, err)

	hub.Publish(feed.Event{Op: feed.OpInsert, ID: "l-1", City: "Mérida", Version: 1})

	assert.Eventually(t, func() bool {
		_, ok := view.Get("l-1")
		return ok
	}, time.Second, 10*time.Millisecond)

	assert.True(t, reg.Close(admin.UserID))
	assert.False(t, reg.Close(admin.UserID))
	assert.Equal(t, 0, hub.Len())
	assert.Equal(t, []int{1, 0}, open)
}
