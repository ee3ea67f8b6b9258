package leads

import (
	"fmt"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

// CanEditLead reports whether the session may mutate the lead at all.
// Closed leads are terminal for everyone except privileged roles.
func CanEditLead(s Session, l models.Lead) error {
	if !Visible(s, l) {
		return fmt.Errorf("%w: lead %s is outside your scope", ErrForbidden, l.ID)
	}
	if l.Status == models.StatusClosed && !s.IsPrivileged() {
		return fmt.Errorf("%w: lead %s is closed", ErrForbidden, l.ID)
	}
	return nil
}

// CanTransition reports whether the session may move the lead to status to.
// Non-privileged roles may only move forward, though they may skip stages.
func CanTransition(s Session, l models.Lead, to models.LeadStatus) error {
	if !to.Valid() {
		return NewValidationError("status", "Must be one of: draft new contacted technical_visit closed")
	}
	if err := CanEditLead(s, l); err != nil {
		return err
	}
	if to == l.Status || s.IsPrivileged() {
		return nil
	}
	if to.Rank() < l.Status.Rank() {
		return fmt.Errorf("%w: cannot move lead from %s back to %s", ErrForbidden, l.Status, to)
	}
	return nil
}

// CanAssign reports whether the session may change the lead's assignee.
func CanAssign(s Session, l models.Lead) error {
	if !s.IsGlobal() {
		return fmt.Errorf("%w: role %q cannot assign leads", ErrForbidden, s.Role)
	}
	return CanEditLead(s, l)
}

// CanDelete reports whether the session may delete a single lead.
func CanDelete(s Session, l models.Lead) error {
	if !s.IsGlobal() {
		return fmt.Errorf("%w: role %q cannot delete leads", ErrForbidden, s.Role)
	}
	return CanEditLead(s, l)
}

// CanPurge reports whether the session may delete every lead.
func CanPurge(s Session) error {
	if !s.IsPrivileged() {
		return fmt.Errorf("%w: only admins can purge leads", ErrForbidden)
	}
	return nil
}

// CanCreateManual reports whether the session may enter leads by hand.
func CanCreateManual(s Session) error {
	if !s.IsStaff() {
		return fmt.Errorf("%w: manual leads require a staff session", ErrForbidden)
	}
	return nil
}
