package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/geo"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/middleware"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/services"
)

// AreaHandler handles roof drawing and address search.
type AreaHandler struct {
	service services.AreaService
}

// NewAreaHandler creates a new AreaHandler instance.
func NewAreaHandler(service services.AreaService) *AreaHandler {
	return &AreaHandler{service: service}
}

// DrawAreaRequest is the outline drawn on the map.
type DrawAreaRequest struct {
	Vertices []geo.LatLng `json:"vertices" binding:"required,max=500,dive"`
}

// Draw handles POST /api/v1/area.
// It measures the outline and resolves the address at its centre.
func (h *AreaHandler) Draw(c *gin.Context) {
	var req DrawAreaRequest
	if !bindJSON(c, &req) {
		return
	}

	middleware.GetLogger(c).Debug("Processing area request", map[string]interface{}{
		"vertices": len(req.Vertices),
	})

	res, err := h.service.DrawArea(c.Request.Context(), req.Vertices)
	if err != nil {
		respondError(c, err, "Failed to measure area")
		return
	}
	c.JSON(http.StatusOK, res)
}

// SearchRequest represents the query parameters for address search.
type SearchRequest struct {
	Query string `form:"q" binding:"required,max=200"`
}

// Search handles GET /api/v1/locations/search.
func (h *AreaHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindQueryError(c, err)
		return
	}

	res, err := h.service.Search(c.Request.Context(), req.Query)
	if err != nil {
		respondError(c, err, "Failed to search address")
		return
	}
	c.JSON(http.StatusOK, res)
}
