package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/errors"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/feed"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/geo"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/leads"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/middleware"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockLeadService is a mock implementation of services.LeadService for testing
type MockLeadService struct {
	mock.Mock
}

func leadResult(args mock.Arguments) (*models.Lead, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lead), args.Error(1)
}

func (m *MockLeadService) Create(ctx context.Context, s leads.Session, ch leads.Channel, sub leads.Submission) (*models.Lead, error) {
	return leadResult(m.Called(ctx, s, ch, sub))
}

func (m *MockLeadService) Get(ctx context.Context, s leads.Session, id string) (*models.Lead, error) {
	return leadResult(m.Called(ctx, s, id))
}

func (m *MockLeadService) List(ctx context.Context, s leads.Session, f leads.Filter) ([]models.Lead, error) {
	args := m.Called(ctx, s, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Lead), args.Error(1)
}

func (m *MockLeadService) UpdateStatus(ctx context.Context, s leads.Session, id string, to models.LeadStatus) (*models.Lead, error) {
	return leadResult(m.Called(ctx, s, id, to))
}

func (m *MockLeadService) Assign(ctx context.Context, s leads.Session, id string, staffID *string) (*models.Lead, error) {
	return leadResult(m.Called(ctx, s, id, staffID))
}

func (m *MockLeadService) UpdateDetails(ctx context.Context, s leads.Session, id string, p leads.Patch) (*models.Lead, error) {
	return leadResult(m.Called(ctx, s, id, p))
}

func (m *MockLeadService) Delete(ctx context.Context, s leads.Session, id string) error {
	return m.Called(ctx, s, id).Error(0)
}

// MockQuoteService is a mock implementation of services.QuoteService for testing
type MockQuoteService struct {
	mock.Mock
}

func (m *MockQuoteService) Quote(ctx context.Context, in services.QuoteInput) (*services.QuoteResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.QuoteResult), args.Error(1)
}

func (m *MockQuoteService) Catalog(ctx context.Context, city string) (*services.Catalog, error) {
	args := m.Called(ctx, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Catalog), args.Error(1)
}

func (m *MockQuoteService) Locations(ctx context.Context) ([]models.Location, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Location), args.Error(1)
}

func (m *MockQuoteService) Reload(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockAreaService is a mock implementation of services.AreaService for testing
type MockAreaService struct {
	mock.Mock
}

func (m *MockAreaService) DrawArea(ctx context.Context, vertices []geo.LatLng) (*services.AreaResult, error) {
	args := m.Called(ctx, vertices)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AreaResult), args.Error(1)
}

func (m *MockAreaService) Search(ctx context.Context, text string) (*services.SearchResult, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SearchResult), args.Error(1)
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
	return leadResult(m.Called(ctx, id))
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

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error {
	return p.err
}

var (
	adminSession  = leads.Session{UserID: "u-admin", Role: leads.RoleAdmin}
	sellerSession = leads.Session{UserID: "u-seller", Role: leads.RoleSeller, City: "Mérida"}
)

// testAPI is the full route table backed by mocks.
type testAPI struct {
	router   *gin.Engine
	leads    *MockLeadService
	quotes   *MockQuoteService
	area     *MockAreaService
	store    *MockStore
	registry *leads.Registry
	handler  *LeadHandler
}

func newTestAPI(t *testing.T, passphraseHash string) *testAPI {
	t.Helper()

	api := &testAPI{
		leads:  new(MockLeadService),
		quotes: new(MockQuoteService),
		area:   new(MockAreaService),
		store:  new(MockStore),
	}
	api.registry = leads.NewRegistry(api.leads, feed.NewHub(nil), nil)
	t.Cleanup(api.registry.CloseAll)

	purger := services.NewPurger(api.store, passphraseHash, 0, nil)
	api.handler = NewLeadHandler(api.leads, api.registry, purger)

	api.router = gin.New()
	api.router.Use(middleware.RequestID())
	RegisterRoutes(api.router, Routes{
		Health:  NewHealthHandler("test", map[string]Pinger{"database": stubPinger{}}),
		Area:    NewAreaHandler(api.area),
		Catalog: NewCatalogHandler(api.quotes),
		Leads:   api.handler,
	})
	return api
}

func (api *testAPI) do(method, path string, body interface{}, s *leads.Session) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s != nil {
		req.Header.Set(middleware.UserIDHeader, s.UserID)
		req.Header.Set(middleware.UserRoleHeader, string(s.Role))
		req.Header.Set(middleware.UserCityHeader, s.City)
	}

	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apierrors.ErrorDetail {
	t.Helper()
	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func urlQuery(s string) string { return url.QueryEscape(s) }
