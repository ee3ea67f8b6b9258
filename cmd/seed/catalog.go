package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/cities"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

type catalogFile struct {
	Locations []locationEntry `yaml:"locations"`
	Products  []productEntry  `yaml:"products"`
}

type locationEntry struct {
	Address   *string `yaml:"address"`
	Phone     *string `yaml:"phone"`
	Facebook  *string `yaml:"facebook"`
	Instagram *string `yaml:"instagram"`
	City      string  `yaml:"city"`
	State     string  `yaml:"state"`
}

type productEntry struct {
	Active        *bool   `yaml:"active"`
	CatalogID     string  `yaml:"catalog_id"`
	City          string  `yaml:"city"`
	Title         string  `yaml:"title"`
	Category      string  `yaml:"category"`
	CashPrice     float64 `yaml:"cash_price"`
	FinancedPrice float64 `yaml:"financed_price"`
	Order         int     `yaml:"order"`
}

// catalog is a validated seed file.
type catalog struct {
	Locations []models.Location
	Products  []models.Product
}

func loadCatalog(path string) (*catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) (*catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data), yaml.DisallowUnknownField())
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("invalid catalog yaml: %w", err)
	}

	out := &catalog{}
	seenCity := make(map[string]bool)
	for i, e := range f.Locations {
		city := strings.TrimSpace(e.City)
		if city == "" || strings.TrimSpace(e.State) == "" {
			return nil, fmt.Errorf("location %d: city and state are required", i)
		}
		key := cities.Normalize(city)
		if seenCity[key] {
			return nil, fmt.Errorf("location %d: duplicate city %q", i, city)
		}
		seenCity[key] = true
		out.Locations = append(out.Locations, models.Location{
			Address:   e.Address,
			Phone:     e.Phone,
			Facebook:  e.Facebook,
			Instagram: e.Instagram,
			City:      city,
			State:     strings.TrimSpace(e.State),
		})
	}

	seenRow := make(map[string]bool)
	for i, e := range f.Products {
		p := models.Product{
			CatalogID:     strings.TrimSpace(e.CatalogID),
			City:          strings.TrimSpace(e.City),
			Title:         strings.TrimSpace(e.Title),
			Category:      models.Category(e.Category),
			CashPrice:     e.CashPrice,
			FinancedPrice: e.FinancedPrice,
			Order:         e.Order,
			Active:        e.Active == nil || *e.Active,
		}
		switch {
		case p.CatalogID == "" || p.City == "" || p.Title == "":
			return nil, fmt.Errorf("product %d: catalog_id, city and title are required", i)
		case !p.Category.Valid():
			return nil, fmt.Errorf("product %d: unknown category %q", i, e.Category)
		case p.CashPrice <= 0 || p.FinancedPrice <= 0:
			return nil, fmt.Errorf("product %d: prices must be greater than zero", i)
		}
		if p.Active {
			key := p.CatalogID + "|" + cities.Normalize(p.City)
			if seenRow[key] {
				return nil, fmt.Errorf("product %d: more than one active row for %s in %s", i, p.CatalogID, p.City)
			}
			seenRow[key] = true
		}
		out.Products = append(out.Products, p)
	}
	return out, nil
}
