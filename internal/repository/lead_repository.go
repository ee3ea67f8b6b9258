package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/cities"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/database"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/leads"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

const leadColumns = `
	id, folio, name, phone, email, address, city, state, postal_code,
	map_reference, polygon, product_id, pricing_mode, manual_unit_price, area,
	logistics_cost, invoice_required, cash_total, financed_total,
	is_out_of_zone, status, assigned_to, created_by, manual, source, notes,
	version, created_at, updated_at`

// LeadRepository is the Postgres lead store. Every write fires the
// lead_changes notification through a table trigger, so it is not wrapped
// in a publishing decorator.
type LeadRepository struct {
	db *database.Database
}

var _ leads.Store = (*LeadRepository)(nil)

// NewLeadRepository creates a new Postgres lead store.
func NewLeadRepository(db *database.Database) *LeadRepository {
	return &LeadRepository{db: db}
}

// Find lists leads matching f, newest first.
// A scope with no city and no user matches nothing, so no query is issued.
func (r *LeadRepository) Find(ctx context.Context, f leads.Filter) ([]models.Lead, error) {
	if !f.Scope.Global && f.Scope.City == "" && f.Scope.UserID == "" {
		return []models.Lead{}, nil
	}

	query := `
		SELECT` + leadColumns + `
		FROM leads
		WHERE ($1::boolean
			OR ($2 <> '' AND city_key = $2)
			OR ($3 <> '' AND assigned_to = $3))
		  AND ($4 = '' OR status = $4)
		  AND ($5 = '' OR position($5 in lower(name || ' ' || phone || ' ' || folio || ' ' || address)) > 0)
		ORDER BY created_at DESC
		LIMIT $6
	`

	var limit *int
	if f.Limit > 0 {
		limit = &f.Limit
	}

	rows, err := r.db.Pool.Query(ctx, query,
		f.Scope.Global,
		cities.Normalize(f.Scope.City),
		f.Scope.UserID,
		string(f.Status),
		normalizeSearch(f.Search),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	results := []models.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lead rows: %w", err)
	}
	return results, nil
}

// Get returns nil, nil when the lead does not exist.
func (r *LeadRepository) Get(ctx context.Context, id string) (*models.Lead, error) {
	query := `SELECT` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return lead, nil
}

// Insert stores a new lead at version 1.
func (r *LeadRepository) Insert(ctx context.Context, l *models.Lead) error {
	query := `
		INSERT INTO leads (
			id, folio, name, phone, email, address, city, city_key, state,
			postal_code, map_reference, polygon, product_id, pricing_mode,
			manual_unit_price, area, logistics_cost, invoice_required,
			cash_total, financed_total, is_out_of_zone, status, assigned_to,
			created_by, manual, source, notes, version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27,
			1, $28, $28
		)
		RETURNING version, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		l.ID, l.Folio, l.Name, l.Phone, l.Email, l.Address, l.City,
		cities.Normalize(l.City), l.State, l.PostalCode, l.MapReference,
		l.Polygon, l.ProductID, string(l.PricingMode), l.ManualUnitPrice,
		l.Area, l.LogisticsCost, l.InvoiceRequired, l.CashTotal,
		l.FinancedTotal, l.IsOutOfZone, string(l.Status), l.AssignedTo,
		l.CreatedBy, l.Manual, l.Source, l.Notes, l.CreatedAt,
	).Scan(&l.Version, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert lead %s: %w", l.ID, err)
	}
	return nil
}

// Update writes every mutable column when the stored version still equals
// l.Version, then bumps the version and refreshes updated_at. A missing row
// yields leads.ErrNotFound and a moved version yields leads.ErrConflict.
func (r *LeadRepository) Update(ctx context.Context, l *models.Lead) error {
	query := `
		UPDATE leads SET
			name = $2, phone = $3, email = $4, address = $5, city = $6,
			city_key = $7, state = $8, postal_code = $9, map_reference = $10,
			polygon = $11, product_id = $12, pricing_mode = $13,
			manual_unit_price = $14, area = $15, logistics_cost = $16,
			invoice_required = $17, cash_total = $18, financed_total = $19,
			is_out_of_zone = $20, status = $21, assigned_to = $22,
			source = $23, notes = $24,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $25
		RETURNING version, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		l.ID, l.Name, l.Phone, l.Email, l.Address, l.City,
		cities.Normalize(l.City), l.State, l.PostalCode, l.MapReference,
		l.Polygon, l.ProductID, string(l.PricingMode), l.ManualUnitPrice,
		l.Area, l.LogisticsCost, l.InvoiceRequired, l.CashTotal,
		l.FinancedTotal, l.IsOutOfZone, string(l.Status), l.AssignedTo,
		l.Source, l.Notes, l.Version,
	).Scan(&l.Version, &l.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to update lead %s: %w", l.ID, err)
	}

	var current int64
	err = r.db.Pool.QueryRow(ctx, `SELECT version FROM leads WHERE id = $1`, l.ID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return leads.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check lead %s: %w", l.ID, err)
	}
	return fmt.Errorf("lead %s is at version %d, not %d: %w", l.ID, current, l.Version, leads.ErrConflict)
}

// Delete reports whether a row was removed.
func (r *LeadRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete lead %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteAll removes every lead in one statement. The FOR EACH ROW notify
// trigger still emits a DELETE event per removed lead.
func (r *LeadRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM leads`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete leads: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanLead(row pgx.Row) (*models.Lead, error) {
	var (
		l                   models.Lead
		pricingMode, status string
	)
	err := row.Scan(
		&l.ID,
		&l.Folio,
		&l.Name,
		&l.Phone,
		&l.Email,
		&l.Address,
		&l.City,
		&l.State,
		&l.PostalCode,
		&l.MapReference,
		&l.Polygon,
		&l.ProductID,
		&pricingMode,
		&l.ManualUnitPrice,
		&l.Area,
		&l.LogisticsCost,
		&l.InvoiceRequired,
		&l.CashTotal,
		&l.FinancedTotal,
		&l.IsOutOfZone,
		&status,
		&l.AssignedTo,
		&l.CreatedBy,
		&l.Manual,
		&l.Source,
		&l.Notes,
		&l.Version,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan lead row: %w", err)
	}
	l.PricingMode = models.PricingMode(pricingMode)
	l.Status = models.LeadStatus(status)
	return &l, nil
}

func normalizeSearch(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
