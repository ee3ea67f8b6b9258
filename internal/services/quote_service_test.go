package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/logger"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/metrics"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/pricing"
)

func newTestQuoteService(products *MockProductRepository, locations *MockLocationRepository) *quoteService {
	return NewQuoteService(products, locations, "Mérida", metrics.New(), logger.New("test", "")).(*quoteService)
}

func TestQuote_Success(t *testing.T) {
	products := new(MockProductRepository)
	products.On("ListActive", mock.Anything).Return(testCatalog, nil).Once()
	service := newTestQuoteService(products, new(MockLocationRepository))

	res, err := service.Quote(context.Background(), QuoteInput{
		ProductID:       "basic",
		City:            "merida",
		Area:            100,
		LogisticsCost:   100,
		InvoiceRequired: true,
	})

	require.NoError(t, err)
	assert.Equal(t, 7900.0, res.CashTotal)
	assert.Equal(t, 8900.0, res.FinancedTotal)
	assert.Equal(t, 9280.0, res.CashFinalTotal)
	assert.Equal(t, 10440.0, res.FinancedFinalTotal)
	assert.False(t, res.IsOutOfZone)
	require.NotNil(t, res.Upsell)
	assert.Equal(t, "premium", res.Upsell.Product.CatalogID)

	// A second quote uses the cached catalog.
	_, err = service.Quote(context.Background(), QuoteInput{ProductID: "basic", City: "Cancún", Area: 50})
	require.NoError(t, err)
	products.AssertExpectations(t)
}

func TestQuote_Rejections(t *testing.T) {
	products := new(MockProductRepository)
	products.On("ListActive", mock.Anything).Return(testCatalog, nil)
	service := newTestQuoteService(products, new(MockLocationRepository))
	ctx := context.Background()

	_, err := service.Quote(ctx, QuoteInput{ProductID: "basic", City: "Mérida", Area: 0})
	assert.ErrorIs(t, err, pricing.ErrInvalidArea)

	_, err = service.Quote(ctx, QuoteInput{ProductID: "gold", City: "Mérida", Area: 10})
	assert.ErrorIs(t, err, pricing.ErrProductNotFound)
}

func TestQuote_CatalogUnavailable(t *testing.T) {
	products := new(MockProductRepository)
	products.On("ListActive", mock.Anything).Return(nil, errors.New("connection refused"))
	service := newTestQuoteService(products, new(MockLocationRepository))

	_, err := service.Quote(context.Background(), QuoteInput{ProductID: "basic", City: "Mérida", Area: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCatalogRefresh(t *testing.T) {
	products := new(MockProductRepository)
	products.On("ListActive", mock.Anything).Return(testCatalog, nil).Once()
	products.On("ListActive", mock.Anything).Return(nil, errors.New("timeout")).Once()
	service := newTestQuoteService(products, new(MockLocationRepository))

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	first, err := service.Catalog(context.Background(), "Mérida")
	require.NoError(t, err)
	assert.Len(t, first.Products, 2)

	// After the TTL a failed reload keeps serving the previous catalog.
	now = now.Add(DefaultCatalogTTL + time.Second)
	second, err := service.Catalog(context.Background(), "Mérida")
	require.NoError(t, err)
	assert.Len(t, second.Products, 2)
	products.AssertExpectations(t)
}

func TestCatalog_OutOfZone(t *testing.T) {
	products := new(MockProductRepository)
	products.On("ListActive", mock.Anything).Return(testCatalog, nil)
	service := newTestQuoteService(products, new(MockLocationRepository))

	cat, err := service.Catalog(context.Background(), "Valladolid")
	require.NoError(t, err)
	assert.True(t, cat.OutOfZone)
	assert.Equal(t, "Mérida", cat.BaseCity)
	assert.Len(t, cat.Products, 2)

	cat, err = service.Catalog(context.Background(), "CANCUN")
	require.NoError(t, err)
	assert.False(t, cat.OutOfZone)
	assert.Len(t, cat.Products, 1)
}

func TestReload(t *testing.T) {
	products := new(MockProductRepository)
	products.On("ListActive", mock.Anything).Return(testCatalog, nil).Twice()
	service := newTestQuoteService(products, new(MockLocationRepository))

	_, err := service.Catalog(context.Background(), "Mérida")
	require.NoError(t, err)
	require.NoError(t, service.Reload(context.Background()))
	products.AssertExpectations(t)
}

func TestLocations(t *testing.T) {
	locations := new(MockLocationRepository)
	locations.On("List", mock.Anything).Return(testLocations, nil).Once()
	locations.On("List", mock.Anything).Return(nil, errors.New("down")).Once()
	service := newTestQuoteService(new(MockProductRepository), locations)

	locs, err := service.Locations(context.Background())
	require.NoError(t, err)
	assert.Len(t, locs, 2)

	_, err = service.Locations(context.Background())
	assert.Error(t, err)
}
