package models

import "time"

// Category is the roof construction a product is rated for.
type Category string

const (
	CategoryConcrete Category = "concrete"
	CategorySheet    Category = "sheet"
	CategoryBoth     Category = "both"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryConcrete, CategorySheet, CategoryBoth:
		return true
	}
	return false
}

// Compatible reports whether two products can be offered against the same
// roof. "both" is compatible with every category.
func (c Category) Compatible(other Category) bool {
	return c == other || c == CategoryBoth || other == CategoryBoth
}

// Product is a regional price row for an insulation system.
// CatalogID is stable across cities; ID identifies the city-specific row.
type Product struct {
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	ID            string    `json:"id"`
	CatalogID     string    `json:"catalogId"`
	City          string    `json:"city"`
	Title         string    `json:"title"`
	Category      Category  `json:"category"`
	CashPrice     float64   `json:"cashPricePerM2"`
	FinancedPrice float64   `json:"financedPricePerM2"`
	Order         int       `json:"order"`
	Active        bool      `json:"active"`
}

// Location is a serviceable city with optional branch details.
type Location struct {
	Address   *string   `json:"address,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Facebook  *string   `json:"facebook,omitempty"`
	Instagram *string   `json:"instagram,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
	City      string    `json:"city"`
	State     string    `json:"state"`
}
