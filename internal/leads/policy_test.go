package leads

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" Admin ")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, r)

	_, ok = ParseRole("superuser")
	assert.False(t, ok)
}

func TestSessionCapabilities(t *testing.T) {
	assert.False(t, Anonymous().IsStaff())
	assert.False(t, Session{Role: RoleAdmin}.IsStaff(), "a role without a user id is not a session")

	assert.True(t, admin.IsGlobal())
	assert.True(t, admin.IsPrivileged())
	assert.True(t, manager.IsGlobal())
	assert.False(t, manager.IsPrivileged())
	assert.False(t, seller.IsGlobal())
	assert.False(t, seller.IsPrivileged())
}

func TestVisible(t *testing.T) {
	merida := newLead("l-1", "MERIDA", models.StatusNew)
	cancun := newLead("l-2", "Cancún", models.StatusNew)
	assigned := newLead("l-3", "Cancún", models.StatusNew)
	assigned.AssignedTo = strPtr(seller.UserID)

	tests := []struct {
		name    string
		session Session
		lead    models.Lead
		want    bool
	}{
		{name: "anonymous sees nothing", session: Anonymous(), lead: merida, want: false},
		{name: "admin sees every city", session: admin, lead: cancun, want: true},
		{name: "manager sees every city", session: manager, lead: cancun, want: true},
		{name: "seller sees own city regardless of accents", session: seller, lead: merida, want: true},
		{name: "seller does not see other city", session: seller, lead: cancun, want: false},
		{name: "seller sees leads assigned to them", session: seller, lead: assigned, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Visible(tt.session, tt.lead))
		})
	}
}

func TestCanEditLead(t *testing.T) {
	open := newLead("l-1", "Mérida", models.StatusContacted)
	closed := newLead("l-2", "Mérida", models.StatusClosed)

	assert.NoError(t, CanEditLead(seller, open))
	assert.NoError(t, CanEditLead(admin, closed), "admins may edit closed leads")

	err := CanEditLead(seller, closed)
	assert.True(t, errors.Is(err, ErrForbidden))

	err = CanEditLead(manager, closed)
	assert.True(t, errors.Is(err, ErrForbidden))

	err = CanEditLead(seller, newLead("l-3", "Cancún", models.StatusNew))
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		from    models.LeadStatus
		to      models.LeadStatus
		wantErr error
	}{
		{name: "forward one step", session: seller, from: models.StatusNew, to: models.StatusContacted},
		{name: "skip stages", session: seller, from: models.StatusNew, to: models.StatusClosed},
		{name: "same status is a no-op", session: seller, from: models.StatusContacted, to: models.StatusContacted},
		{name: "seller cannot move backwards", session: seller, from: models.StatusTechnicalVisit, to: models.StatusContacted, wantErr: ErrForbidden},
		{name: "manager cannot move backwards", session: manager, from: models.StatusContacted, to: models.StatusNew, wantErr: ErrForbidden},
		{name: "admin can move backwards", session: admin, from: models.StatusTechnicalVisit, to: models.StatusNew},
		{name: "closed is terminal for seller", session: seller, from: models.StatusClosed, to: models.StatusClosed, wantErr: ErrForbidden},
		{name: "admin can reopen closed", session: admin, from: models.StatusClosed, to: models.StatusContacted},
		{name: "unknown status", session: admin, from: models.StatusNew, to: "won", wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanTransition(tt.session, newLead("l-1", "Mérida", tt.from), tt.to)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestCanAssignDeletePurge(t *testing.T) {
	l := newLead("l-1", "Mérida", models.StatusNew)

	assert.NoError(t, CanAssign(manager, l))
	assert.True(t, errors.Is(CanAssign(seller, l), ErrForbidden))
	assert.True(t, errors.Is(CanAssign(manager, newLead("l-2", "Mérida", models.StatusClosed)), ErrForbidden))

	assert.NoError(t, CanDelete(admin, l))
	assert.True(t, errors.Is(CanDelete(seller, l), ErrForbidden))

	assert.NoError(t, CanPurge(admin))
	assert.True(t, errors.Is(CanPurge(manager), ErrForbidden))

	assert.NoError(t, CanCreateManual(seller))
	assert.True(t, errors.Is(CanCreateManual(Anonymous()), ErrForbidden))
}
