// Package pricing turns a roof area and a catalog selection into cash and
// financed totals, with the minimum job floor and an upsell suggestion.
package pricing

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/cities"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

// MinPrice is the smallest job the business will quote, applied after
// rounding.
const MinPrice = 5900

// InvoiceTaxRate multiplies the payable amount when an invoice is required.
var InvoiceTaxRate = decimal.RequireFromString("1.16")

var (
	ErrInvalidArea     = errors.New("area must be greater than zero")
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidOverride = errors.New("manual unit price must be greater than zero")
)

// Overrides carries staff-entered unit prices that replace catalog prices.
type Overrides struct {
	ManualUnitPrice         *float64
	ManualFinancedUnitPrice *float64
}

// Request is the input of a quote.
type Request struct {
	Overrides Overrides
	ProductID string // catalog id, stable across cities
	City      string
	Area      float64
}

// Upsell is the next tier up, priced at catalog rates.
type Upsell struct {
	Product       models.Product `json:"product"`
	CashTotal     float64        `json:"cashTotal"`
	FinancedTotal float64        `json:"financedTotal"`
}

// Quote is the priced result for the selected product.
type Quote struct {
	Upsell        *Upsell        `json:"upsell,omitempty"`
	Product       models.Product `json:"product"`
	CashTotal     float64        `json:"cashTotal"`
	FinancedTotal float64        `json:"financedTotal"`
	IsOutOfZone   bool           `json:"isOutOfZone"`
}

// Engine prices requests against a fixed catalog snapshot. It holds no
// mutable state; Quote is a pure function of the catalog and the request.
type Engine struct {
	baseCity string
	catalog  []models.Product
}

// NewEngine creates an Engine over the given price rows. baseCity supplies
// fallback prices for cities without their own rows.
func NewEngine(catalog []models.Product, baseCity string) *Engine {
	rows := make([]models.Product, 0, len(catalog))
	for _, p := range catalog {
		if p.Active {
			rows = append(rows, p)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Order != rows[j].Order {
			return rows[i].Order < rows[j].Order
		}
		return rows[i].ID < rows[j].ID
	})

	return &Engine{baseCity: baseCity, catalog: rows}
}

// BaseCity returns the fallback pricing city.
func (e *Engine) BaseCity() string {
	return e.baseCity
}

// Quote prices the request. The product row is resolved for the request city;
// when the city has no row for the product the base city's row is used and
// the quote is flagged out of zone.
func (e *Engine) Quote(req Request) (*Quote, error) {
	if req.Area <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidArea, req.Area)
	}
	if invalidOverride(req.Overrides.ManualUnitPrice) || invalidOverride(req.Overrides.ManualFinancedUnitPrice) {
		return nil, ErrInvalidOverride
	}

	rows, product, outOfZone, ok := e.resolve(req.ProductID, req.City)
	if !ok {
		return nil, fmt.Errorf("%w: %q for city %q", ErrProductNotFound, req.ProductID, req.City)
	}

	cashUnit := product.CashPrice
	if req.Overrides.ManualUnitPrice != nil {
		cashUnit = *req.Overrides.ManualUnitPrice
	}
	financedUnit := product.FinancedPrice
	if req.Overrides.ManualFinancedUnitPrice != nil {
		financedUnit = *req.Overrides.ManualFinancedUnitPrice
	}

	q := &Quote{
		Product:       product,
		CashTotal:     Total(req.Area, cashUnit),
		FinancedTotal: Total(req.Area, financedUnit),
		IsOutOfZone:   outOfZone,
	}

	if next, ok := nextTier(rows, product); ok {
		q.Upsell = &Upsell{
			Product:       next,
			CashTotal:     Total(req.Area, next.CashPrice),
			FinancedTotal: Total(req.Area, next.FinancedPrice),
		}
	}

	return q, nil
}

// CatalogFor lists the active rows offered in a city in display order. Cities
// without rows get the base city's rows and outOfZone is true.
func (e *Engine) CatalogFor(city string) (rows []models.Product, outOfZone bool) {
	rows = e.rowsFor(city)
	if len(rows) > 0 {
		return rows, false
	}
	return e.rowsFor(e.baseCity), !cities.Equal(city, e.baseCity)
}

func (e *Engine) resolve(productID, city string) ([]models.Product, models.Product, bool, bool) {
	rows := e.rowsFor(city)
	if p, ok := find(rows, productID); ok {
		return rows, p, false, true
	}

	if cities.Equal(city, e.baseCity) {
		return nil, models.Product{}, false, false
	}

	base := e.rowsFor(e.baseCity)
	if p, ok := find(base, productID); ok {
		return base, p, true, true
	}
	return nil, models.Product{}, false, false
}

func (e *Engine) rowsFor(city string) []models.Product {
	var out []models.Product
	for _, p := range e.catalog {
		if cities.Equal(p.City, city) {
			out = append(out, p)
		}
	}
	return out
}

func find(rows []models.Product, catalogID string) (models.Product, bool) {
	for _, p := range rows {
		if p.CatalogID == catalogID {
			return p, true
		}
	}
	return models.Product{}, false
}

// nextTier returns the first compatible row after the selected one in display
// order. rows must already be sorted.
func nextTier(rows []models.Product, selected models.Product) (models.Product, bool) {
	for _, p := range rows {
		if p.CatalogID == selected.CatalogID {
			continue
		}
		if p.Order > selected.Order && p.Category.Compatible(selected.Category) {
			return p, true
		}
	}
	return models.Product{}, false
}

func invalidOverride(v *float64) bool {
	return v != nil && *v <= 0
}

// Total computes max(round(area × unit), MinPrice). Rounding is half away
// from zero to whole currency units.
func Total(area, unit float64) float64 {
	amount := decimal.NewFromFloat(area).Mul(decimal.NewFromFloat(unit)).Round(0)
	floor := decimal.NewFromInt(MinPrice)
	if amount.LessThan(floor) {
		amount = floor
	}
	return amount.InexactFloat64()
}

// FinalTotal composes the payable amount from a stored subtotal:
// (base + logistics) × 1.16 when invoiced. The result is rounded half away
// from zero to cents.
func FinalTotal(base, logistics float64, invoiceRequired bool) float64 {
	amount := decimal.NewFromFloat(base).Add(decimal.NewFromFloat(logistics))
	if invoiceRequired {
		amount = amount.Mul(InvoiceTaxRate)
	}
	return amount.Round(2).InexactFloat64()
}
