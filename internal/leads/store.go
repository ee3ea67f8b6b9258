package leads

import (
	"context"
	"strings"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

// Filter narrows a lead listing. A zero Scope matches nothing; use
// Scope{Global: true} to list every lead.
type Filter struct {
	Status models.LeadStatus
	Search string
	Scope  Scope
	Limit  int
}

// Matches reports whether the lead passes the filter. Stores that cannot
// express the search natively apply it after loading.
func (f Filter) Matches(l models.Lead) bool {
	if !f.Scope.Global && !f.Scope.Contains(l.City, l.AssignedTo) {
		return false
	}
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		hay := strings.ToLower(l.Name + " " + l.Phone + " " + l.Folio + " " + l.Address)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

// Store persists leads. Get returns nil, nil for unknown ids. Insert sets
// version 1; Update writes the full record only when the stored version
// equals l.Version, then increments it. Update returns ErrNotFound when the
// lead no longer exists and ErrConflict when another write landed first. Find returns leads
// newest first.
type Store interface {
	Find(ctx context.Context, f Filter) ([]models.Lead, error)
	Get(ctx context.Context, id string) (*models.Lead, error)
	Insert(ctx context.Context, l *models.Lead) error
	Update(ctx context.Context, l *models.Lead) error
	Delete(ctx context.Context, id string) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
}
