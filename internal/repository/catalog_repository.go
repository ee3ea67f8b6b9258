package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/cities"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/database"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

// ProductRepository defines data access for regional price rows.
type ProductRepository interface {
	// ListActive returns active rows ordered by city and display order.
	ListActive(ctx context.Context) ([]models.Product, error)

	// Upsert inserts a row or replaces the active row for the same catalog
	// product and city.
	Upsert(ctx context.Context, p *models.Product) error
}

// LocationRepository defines data access for serviceable cities.
type LocationRepository interface {
	// List returns every location ordered by city.
	List(ctx context.Context) ([]models.Location, error)

	// Upsert inserts a location or updates the one with the same city.
	Upsert(ctx context.Context, loc *models.Location) error
}

type productRepository struct {
	db *database.Database
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *database.Database) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) ListActive(ctx context.Context) ([]models.Product, error) {
	query := `
		SELECT id, catalog_id, city, title, category, cash_price,
			financed_price, display_order, active, created_at, updated_at
		FROM products
		WHERE active
		ORDER BY city_key, display_order, title
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	results := []models.Product{}
	for rows.Next() {
		var (
			p        models.Product
			category string
		)
		if err := rows.Scan(
			&p.ID,
			&p.CatalogID,
			&p.City,
			&p.Title,
			&category,
			&p.CashPrice,
			&p.FinancedPrice,
			&p.Order,
			&p.Active,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		p.Category = models.Category(category)
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return results, nil
}

func (r *productRepository) Upsert(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	query := `
		INSERT INTO products (
			id, catalog_id, city, city_key, title, category, cash_price,
			financed_price, display_order, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (catalog_id, city_key) WHERE active DO UPDATE SET
			city = EXCLUDED.city,
			title = EXCLUDED.title,
			category = EXCLUDED.category,
			cash_price = EXCLUDED.cash_price,
			financed_price = EXCLUDED.financed_price,
			display_order = EXCLUDED.display_order,
			updated_at = now()
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		p.ID, p.CatalogID, p.City, cities.Normalize(p.City), p.Title,
		string(p.Category), p.CashPrice, p.FinancedPrice, p.Order, p.Active,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert product %s for %s: %w", p.CatalogID, p.City, err)
	}
	return nil
}

type locationRepository struct {
	db *database.Database
}

// NewLocationRepository creates a new instance of LocationRepository.
func NewLocationRepository(db *database.Database) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) List(ctx context.Context) ([]models.Location, error) {
	query := `
		SELECT id, city, state, address, phone, facebook, instagram, created_at
		FROM locations
		ORDER BY city_key
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	results := []models.Location{}
	for rows.Next() {
		var loc models.Location
		if err := rows.Scan(
			&loc.ID,
			&loc.City,
			&loc.State,
			&loc.Address,
			&loc.Phone,
			&loc.Facebook,
			&loc.Instagram,
			&loc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan location row: %w", err)
		}
		results = append(results, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating location rows: %w", err)
	}
	return results, nil
}

func (r *locationRepository) Upsert(ctx context.Context, loc *models.Location) error {
	if loc.ID == "" {
		loc.ID = uuid.NewString()
	}

	query := `
		INSERT INTO locations (id, city, city_key, state, address, phone, facebook, instagram)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (city_key) DO UPDATE SET
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			address = EXCLUDED.address,
			phone = EXCLUDED.phone,
			facebook = EXCLUDED.facebook,
			instagram = EXCLUDED.instagram
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		loc.ID, loc.City, cities.Normalize(loc.City), loc.State, loc.Address,
		loc.Phone, loc.Facebook, loc.Instagram,
	).Scan(&loc.ID, &loc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert location %s: %w", loc.City, err)
	}
	return nil
}
