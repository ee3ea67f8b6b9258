package leads

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

var (
	admin   = Session{UserID: "u-admin", Role: RoleAdmin}
	manager = Session{UserID: "u-manager", Role: RoleManager}
	seller  = Session{UserID: "u-seller", Role: RoleSeller, City: "Mérida"}
)

var baseTime = time.Date(2024, 3, 15, 14, 30, 5, 0, time.UTC)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func newLead(id, city string, status models.LeadStatus) models.Lead {
	return models.Lead{
		ID:            id,
		Folio:         NewFolio(city, baseTime),
		Name:          "Ana López",
		Phone:         "9991234567",
		Address:       "Calle 60 #123",
		City:          city,
		State:         "Yucatán",
		ProductID:     "basic",
		PricingMode:   models.PricingCash,
		Status:        status,
		Area:          100,
		CashTotal:     7900,
		FinancedTotal: 8900,
		Version:       1,
		CreatedAt:     baseTime,
		UpdatedAt:     baseTime,
	}
}

// MockRemote is a mock implementation of Remote.
type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) Get(ctx context.Context, s Session, id string) (*models.Lead, error) {
	args := m.Called(ctx, s, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lead), args.Error(1)
}

func (m *MockRemote) List(ctx context.Context, s Session, f Filter) ([]models.Lead, error) {
	args := m.Called(ctx, s, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Lead), args.Error(1)
}

func (m *MockRemote) UpdateStatus(ctx context.Context, s Session, id string, to models.LeadStatus) (*models.Lead, error) {
	args := m.Called(ctx, s, id, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lead), args.Error(1)
}

func (m *MockRemote) Assign(ctx context.Context, s Session, id string, staffID *string) (*models.Lead, error) {
	args := m.Called(ctx, s, id, staffID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lead), args.Error(1)
}

func (m *MockRemote) UpdateDetails(ctx context.Context, s Session, id string, p Patch) (*models.Lead, error) {
	args := m.Called(ctx, s, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lead), args.Error(1)
}
