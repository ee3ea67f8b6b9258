package models

import "time"

// LeadStatus is a stage of the sales pipeline.
type LeadStatus string

const (
	StatusDraft          LeadStatus = "draft"
	StatusNew            LeadStatus = "new"
	StatusContacted      LeadStatus = "contacted"
	StatusTechnicalVisit LeadStatus = "technical_visit"
	StatusClosed         LeadStatus = "closed"
)

var statusRank = map[LeadStatus]int{
	StatusDraft:          0,
	StatusNew:            1,
	StatusContacted:      2,
	StatusTechnicalVisit: 3,
	StatusClosed:         4,
}

// Valid reports whether s is a known status.
func (s LeadStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Rank orders statuses along the pipeline. Unknown statuses rank -1.
func (s LeadStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// PricingMode selects which total the customer intends to pay.
type PricingMode string

const (
	PricingCash     PricingMode = "cash"
	PricingFinanced PricingMode = "financed"
)

// Valid reports whether m is a known pricing mode.
func (m PricingMode) Valid() bool {
	return m == PricingCash || m == PricingFinanced
}

// Lead is a quote request tracked through the pipeline.
// Nullable fields use pointers to distinguish unset values from zero values.
// Version increases by one on every persisted change.
type Lead struct {
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
	Email           *string     `json:"email,omitempty"`
	ManualUnitPrice *float64    `json:"manualUnitPrice,omitempty"`
	AssignedTo      *string     `json:"assignedTo,omitempty"`
	CreatedBy       *string     `json:"createdBy,omitempty"`
	Polygon         Polygon     `json:"polygon"`
	ID              string      `json:"id"`
	Folio           string      `json:"folio"`
	Name            string      `json:"name"`
	Phone           string      `json:"phone"`
	Address         string      `json:"address"`
	City            string      `json:"city"`
	State           string      `json:"state"`
	PostalCode      string      `json:"postalCode"`
	MapReference    string      `json:"mapReference"`
	ProductID       string      `json:"productId"`
	PricingMode     PricingMode `json:"pricingMode"`
	Status          LeadStatus  `json:"status"`
	Source          string      `json:"source"`
	Notes           string      `json:"notes"`
	Area            float64     `json:"area"`
	LogisticsCost   float64     `json:"logisticsCost"`
	CashTotal       float64     `json:"cashTotal"`
	FinancedTotal   float64     `json:"financedTotal"`
	Version         int64       `json:"version"`
	InvoiceRequired bool        `json:"invoiceRequired"`
	IsOutOfZone     bool        `json:"isOutOfZone"`
	Manual          bool        `json:"manual"`
}

// Clone returns a deep copy so callers can mutate it without aliasing the
// pointer fields or polygon of the original.
func (l Lead) Clone() Lead {
	out := l
	out.Email = cloneString(l.Email)
	out.AssignedTo = cloneString(l.AssignedTo)
	out.CreatedBy = cloneString(l.CreatedBy)
	if l.ManualUnitPrice != nil {
		v := *l.ManualUnitPrice
		out.ManualUnitPrice = &v
	}
	if l.Polygon.Coordinates != nil {
		rings := make([][][2]float64, len(l.Polygon.Coordinates))
		for i, r := range l.Polygon.Coordinates {
			rings[i] = append([][2]float64(nil), r...)
		}
		out.Polygon = Polygon{Coordinates: rings}
	}
	return out
}

// BaseTotal returns the subtotal matching the lead's pricing mode.
func (l Lead) BaseTotal() float64 {
	if l.PricingMode == PricingFinanced {
		return l.FinancedTotal
	}
	return l.CashTotal
}

// IsAssignedTo reports whether the lead is assigned to the given user.
func (l Lead) IsAssignedTo(userID string) bool {
	return l.AssignedTo != nil && userID != "" && *l.AssignedTo == userID
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
