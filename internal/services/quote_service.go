package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/logger"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/metrics"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/pricing"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/repository"
)

// DefaultCatalogTTL is how long a loaded catalog is reused before the next
// request reloads it from the repository.
const DefaultCatalogTTL = 5 * time.Minute

// QuoteInput is a quote request with the payable-amount options.
type QuoteInput struct {
	Overrides       pricing.Overrides
	ProductID       string
	City            string
	Area            float64
	LogisticsCost   float64
	InvoiceRequired bool
}

// QuoteResult is a priced quote plus the payable amount for each mode.
type QuoteResult struct {
	*pricing.Quote
	CashFinalTotal     float64 `json:"cashFinalTotal"`
	FinancedFinalTotal float64 `json:"financedFinalTotal"`
}

// Catalog is the product picker content for a city.
type Catalog struct {
	Products  []models.Product `json:"products"`
	City      string           `json:"city"`
	BaseCity  string           `json:"baseCity"`
	OutOfZone bool             `json:"isOutOfZone"`
}

// QuoteService defines the interface for pricing and catalog operations.
type QuoteService interface {
	// Quote prices a request against the current catalog. Returns
	// pricing.ErrInvalidArea, pricing.ErrInvalidOverride or
	// pricing.ErrProductNotFound for unpriceable requests.
	Quote(ctx context.Context, in QuoteInput) (*QuoteResult, error)

	// Catalog lists the products offered in a city.
	Catalog(ctx context.Context, city string) (*Catalog, error)

	// Locations lists serviceable cities.
	Locations(ctx context.Context) ([]models.Location, error)

	// Reload drops the cached catalog and loads it again.
	Reload(ctx context.Context) error
}

type quoteService struct {
	products  repository.ProductRepository
	locations repository.LocationRepository
	metrics   *metrics.Metrics
	log       *logger.Logger
	now       func() time.Time
	baseCity  string
	ttl       time.Duration

	mu       sync.Mutex
	engine   *pricing.Engine
	loadedAt time.Time
}

// NewQuoteService creates a new instance of QuoteService.
func NewQuoteService(
	products repository.ProductRepository,
	locations repository.LocationRepository,
	baseCity string,
	m *metrics.Metrics,
	log *logger.Logger,
) QuoteService {
	return &quoteService{
		products:  products,
		locations: locations,
		metrics:   m,
		log:       log,
		now:       time.Now,
		baseCity:  baseCity,
		ttl:       DefaultCatalogTTL,
	}
}

func (s *quoteService) Quote(ctx context.Context, in QuoteInput) (*QuoteResult, error) {
	engine, err := s.currentEngine(ctx)
	if err != nil {
		return nil, err
	}

	q, err := engine.Quote(pricing.Request{
		Overrides: in.Overrides,
		ProductID: in.ProductID,
		City:      in.City,
		Area:      in.Area,
	})
	if err != nil {
		s.metrics.QuoteFailed()
		s.log.Debug("Quote rejected", map[string]interface{}{
			"product": in.ProductID,
			"city":    in.City,
			"area":    in.Area,
			"reason":  err.Error(),
		})
		return nil, err
	}
	s.metrics.QuoteServed(q.IsOutOfZone)

	return &QuoteResult{
		Quote:              q,
		CashFinalTotal:     pricing.FinalTotal(q.CashTotal, in.LogisticsCost, in.InvoiceRequired),
		FinancedFinalTotal: pricing.FinalTotal(q.FinancedTotal, in.LogisticsCost, in.InvoiceRequired),
	}, nil
}

func (s *quoteService) Catalog(ctx context.Context, city string) (*Catalog, error) {
	engine, err := s.currentEngine(ctx)
	if err != nil {
		return nil, err
	}

	rows, outOfZone := engine.CatalogFor(city)
	return &Catalog{
		Products:  rows,
		City:      city,
		BaseCity:  engine.BaseCity(),
		OutOfZone: outOfZone,
	}, nil
}

func (s *quoteService) Locations(ctx context.Context) ([]models.Location, error) {
	locs, err := s.locations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locs, nil
}

func (s *quoteService) Reload(ctx context.Context) error {
	s.mu.Lock()
	s.engine = nil
	s.mu.Unlock()

	_, err := s.currentEngine(ctx)
	return err
}

// currentEngine returns the cached engine, loading the catalog when the
// cache is empty or older than the TTL.
func (s *quoteService) currentEngine(ctx context.Context) (*pricing.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine != nil && s.now().Sub(s.loadedAt) < s.ttl {
		return s.engine, nil
	}

	rows, err := s.products.ListActive(ctx)
	if err != nil {
		if s.engine != nil {
			s.log.Error("Failed to refresh catalog, serving cached prices", err, nil)
			return s.engine, nil
		}
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	s.engine = pricing.NewEngine(rows, s.baseCity)
	s.loadedAt = s.now()
	s.log.Info("Catalog loaded", map[string]interface{}{
		"products":  len(rows),
		"base_city": s.baseCity,
	})
	return s.engine, nil
}
