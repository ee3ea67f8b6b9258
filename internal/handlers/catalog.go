package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/errors"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/middleware"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/pricing"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/services"
)

// CatalogHandler handles locations, products and quotes.
type CatalogHandler struct {
	quotes services.QuoteService
}

// NewCatalogHandler creates a new CatalogHandler instance.
func NewCatalogHandler(quotes services.QuoteService) *CatalogHandler {
	return &CatalogHandler{quotes: quotes}
}

// LocationsResponse lists serviceable cities.
type LocationsResponse struct {
	Locations []models.Location `json:"locations"`
	Count     int               `json:"count"`
}

// Locations handles GET /api/v1/locations.
func (h *CatalogHandler) Locations(c *gin.Context) {
	locs, err := h.quotes.Locations(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list locations", err)
		return
	}
	c.JSON(http.StatusOK, LocationsResponse{Locations: locs, Count: len(locs)})
}

// ProductsRequest represents the query parameters for the product picker.
type ProductsRequest struct {
	City string `form:"city" binding:"required,max=120"`
}

// Products handles GET /api/v1/products.
func (h *CatalogHandler) Products(c *gin.Context) {
	var req ProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindQueryError(c, err)
		return
	}

	cat, err := h.quotes.Catalog(c.Request.Context(), req.City)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to load catalog", err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// QuoteRequest is the body of a quote calculation.
type QuoteRequest struct {
	ManualUnitPrice *float64           `json:"manualUnitPrice" binding:"omitempty,gt=0"`
	ProductID       string             `json:"productId" binding:"required"`
	City            string             `json:"city" binding:"required,max=120"`
	PricingMode     models.PricingMode `json:"pricingMode" binding:"omitempty,oneof=cash financed"`
	Area            float64            `json:"area" binding:"required,gt=0"`
	LogisticsCost   float64            `json:"logisticsCost" binding:"gte=0"`
	InvoiceRequired bool               `json:"invoiceRequired"`
}

// Quote handles POST /api/v1/quotes.
// Manual unit prices are a staff tool and apply to the requested pricing
// mode only.
func (h *CatalogHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.ManualUnitPrice != nil && !middleware.GetSession(c).IsStaff() {
		apierrors.Forbidden(c, "Only staff may set a manual price")
		return
	}

	var overrides pricing.Overrides
	if req.ManualUnitPrice != nil {
		if req.PricingMode == models.PricingFinanced {
			overrides.ManualFinancedUnitPrice = req.ManualUnitPrice
		} else {
			overrides.ManualUnitPrice = req.ManualUnitPrice
		}
	}

	res, err := h.quotes.Quote(c.Request.Context(), services.QuoteInput{
		Overrides:       overrides,
		ProductID:       req.ProductID,
		City:            req.City,
		Area:            req.Area,
		LogisticsCost:   req.LogisticsCost,
		InvoiceRequired: req.InvoiceRequired,
	})
	if err != nil {
		respondError(c, err, "Failed to calculate quote")
		return
	}
	c.JSON(http.StatusOK, res)
}
