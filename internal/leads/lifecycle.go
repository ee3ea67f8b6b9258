package leads

import (
	"strings"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/geo"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

// Transition returns a copy of l moved to status to. Leaving draft requires
// the contact details a submitted lead must carry.
func Transition(s Session, l models.Lead, to models.LeadStatus) (models.Lead, error) {
	if err := CanTransition(s, l, to); err != nil {
		return models.Lead{}, err
	}
	if l.Status == models.StatusDraft && to != models.StatusDraft {
		if err := ValidateContact(l); err != nil {
			return models.Lead{}, err
		}
	}

	out := l.Clone()
	out.Status = to
	return out, nil
}

// Assign returns a copy of l assigned to staffID, or unassigned when staffID
// is nil or blank.
func Assign(s Session, l models.Lead, staffID *string) (models.Lead, error) {
	if err := CanAssign(s, l); err != nil {
		return models.Lead{}, err
	}

	out := l.Clone()
	out.AssignedTo = nil
	if staffID != nil && strings.TrimSpace(*staffID) != "" {
		id := strings.TrimSpace(*staffID)
		out.AssignedTo = &id
	}
	return out, nil
}

// Patch is a partial update of a lead's details. Nil fields are left as they
// are. Totals are never patched directly; they are recomputed from the
// patched area, product, city and override.
type Patch struct {
	Email                *string             `json:"email"`
	ManualUnitPrice      *float64            `json:"manualUnitPrice"`
	Name                 *string             `json:"name"`
	Phone                *string             `json:"phone"`
	Address              *string             `json:"address"`
	City                 *string             `json:"city"`
	State                *string             `json:"state"`
	PostalCode           *string             `json:"postalCode"`
	MapReference         *string             `json:"mapReference"`
	ProductID            *string             `json:"productId"`
	PricingMode          *models.PricingMode `json:"pricingMode"`
	Source               *string             `json:"source"`
	Notes                *string             `json:"notes"`
	Area                 *float64            `json:"area"`
	LogisticsCost        *float64            `json:"logisticsCost"`
	InvoiceRequired      *bool               `json:"invoiceRequired"`
	Vertices             []geo.LatLng        `json:"vertices"`
	ClearManualUnitPrice bool                `json:"clearManualUnitPrice"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Email == nil && p.ManualUnitPrice == nil && p.Name == nil && p.Phone == nil &&
		p.Address == nil && p.City == nil && p.State == nil && p.PostalCode == nil &&
		p.MapReference == nil && p.ProductID == nil && p.PricingMode == nil && p.Source == nil &&
		p.Notes == nil && p.Area == nil && p.LogisticsCost == nil && p.InvoiceRequired == nil &&
		p.Vertices == nil && !p.ClearManualUnitPrice
}

// Commercial reports whether the patch touches an input of the totals.
func (p Patch) Commercial() bool {
	return p.Area != nil || p.ProductID != nil || p.City != nil || p.ManualUnitPrice != nil ||
		p.ClearManualUnitPrice || p.Vertices != nil
}

// Apply returns a copy of l with the patch applied. A new outline replaces
// the stored polygon and its area.
func (p Patch) Apply(l models.Lead) models.Lead {
	out := l.Clone()

	setString(&out.Name, p.Name)
	setString(&out.Phone, p.Phone)
	setString(&out.Address, p.Address)
	setString(&out.City, p.City)
	setString(&out.State, p.State)
	setString(&out.PostalCode, p.PostalCode)
	setString(&out.MapReference, p.MapReference)
	setString(&out.ProductID, p.ProductID)
	setString(&out.Source, p.Source)
	setString(&out.Notes, p.Notes)

	if p.Email != nil {
		out.Email = nil
		if e := strings.TrimSpace(*p.Email); e != "" {
			out.Email = &e
		}
	}
	if p.PricingMode != nil {
		out.PricingMode = *p.PricingMode
	}
	if p.Area != nil {
		out.Area = *p.Area
	}
	if p.LogisticsCost != nil {
		out.LogisticsCost = *p.LogisticsCost
	}
	if p.InvoiceRequired != nil {
		out.InvoiceRequired = *p.InvoiceRequired
	}
	if p.ClearManualUnitPrice {
		out.ManualUnitPrice = nil
	} else if p.ManualUnitPrice != nil {
		v := *p.ManualUnitPrice
		out.ManualUnitPrice = &v
	}
	if p.Vertices != nil {
		out.Polygon = models.NewPolygon(p.Vertices)
		out.Area = geo.Area(p.Vertices)
	}
	return out
}

// Validate checks the patched lead. Drafts only need well-formed values;
// submitted leads must keep their contact details.
func (p Patch) Validate(patched models.Lead) error {
	if err := geo.ValidateRing(p.Vertices); err != nil {
		return NewValidationError("vertices", err.Error())
	}
	if patched.Status == models.StatusDraft {
		return check(draftRules{
			Email:           patched.Email,
			ManualUnitPrice: patched.ManualUnitPrice,
			Phone:           patched.Phone,
			PricingMode:     patched.PricingMode,
			Area:            patched.Area,
			LogisticsCost:   patched.LogisticsCost,
		})
	}
	return ValidateContact(patched)
}

// UpdateDetails returns a copy of l with the patch applied after checking the
// session may edit it.
func UpdateDetails(s Session, l models.Lead, p Patch) (models.Lead, error) {
	if err := CanEditLead(s, l); err != nil {
		return models.Lead{}, err
	}
	if p.IsEmpty() {
		return models.Lead{}, NewValidationError("patch", "At least one field is required")
	}

	out := p.Apply(l)
	if err := p.Validate(out); err != nil {
		return models.Lead{}, err
	}
	return out, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
