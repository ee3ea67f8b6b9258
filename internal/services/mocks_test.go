package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/geo"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/geocoding"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/leads"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

// MockProductRepository is a mock implementation of ProductRepository for testing
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) ListActive(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) Upsert(ctx context.Context, p *models.Product) error {
	return m.Called(ctx, p).Error(0)
}

// MockLocationRepository is a mock implementation of LocationRepository for testing
type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) List(ctx context.Context) ([]models.Location, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Location), args.Error(1)
}

func (m *MockLocationRepository) Upsert(ctx context.Context, loc *models.Location) error {
	return m.Called(ctx, loc).Error(0)
}

// MockStore is a mock implementation of leads.Store for testing
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Find(ctx context.Context, f leads.Filter) ([]models.Lead, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Lead), args.Error(1)
}

func (m *MockStore) Get(ctx context.Context, id string) (*models.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lead), args.Error(1)
}

func (m *MockStore) Insert(ctx context.Context, l *models.Lead) error {
	return m.Called(ctx, l).Error(0)
}

func (m *MockStore) Update(ctx context.Context, l *models.Lead) error {
	return m.Called(ctx, l).Error(0)
}

func (m *MockStore) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockProvider is a mock geocoding provider for testing
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SearchByText(ctx context.Context, text string) ([]geocoding.Candidate, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]geocoding.Candidate), args.Error(1)
}

func (m *MockProvider) ReverseGeocode(ctx context.Context, point geo.LatLng) ([]geocoding.Candidate, error) {
	args := m.Called(ctx, point)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]geocoding.Candidate), args.Error(1)
}

var testCatalog = []models.Product{
	{ID: "mer-basic", CatalogID: "basic", City: "Mérida", Title: "Basic", Category: models.CategoryBoth, CashPrice: 79, FinancedPrice: 89, Order: 1, Active: true},
	{ID: "mer-premium", CatalogID: "premium", City: "Mérida", Title: "Premium", Category: models.CategoryBoth, CashPrice: 99, FinancedPrice: 109, Order: 2, Active: true},
	{ID: "can-basic", CatalogID: "basic", City: "Cancún", Title: "Basic", Category: models.CategoryBoth, CashPrice: 85, FinancedPrice: 95, Order: 1, Active: true},
}

var testLocations = []models.Location{
	{ID: "loc-mer", City: "Mérida", State: "Yucatán"},
	{ID: "loc-can", City: "Cancún", State: "Quintana Roo"},
}

var (
	adminSession   = leads.Session{UserID: "u-admin", Role: leads.RoleAdmin}
	managerSession = leads.Session{UserID: "u-manager", Role: leads.RoleManager}
	sellerSession  = leads.Session{UserID: "u-seller", Role: leads.RoleSeller, City: "Mérida"}
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func meridaCandidate() geocoding.Candidate {
	return geocoding.Candidate{
		FormattedAddress: "Calle 60 500, Centro, 97000 Mérida, Yuc., México",
		Location:         geo.LatLng{Lat: 20.9674, Lng: -89.6237},
		Components: []geocoding.Component{
			{LongName: "Mérida", ShortName: "Mérida", Types: []string{"locality", "political"}},
			{LongName: "Yucatán", ShortName: "Yuc.", Types: []string{"administrative_area_level_1", "political"}},
			{LongName: "97000", ShortName: "97000", Types: []string{"postal_code"}},
		},
	}
}
