package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/middleware"
)

// Routes holds the handlers mounted by RegisterRoutes. SubmitLimit guards
// the anonymous lead endpoints and may be nil.
type Routes struct {
	Health      *HealthHandler
	Area        *AreaHandler
	Catalog     *CatalogHandler
	Leads       *LeadHandler
	SubmitLimit gin.HandlerFunc
}

// RegisterRoutes mounts the API on router. Identity headers are read on
// every /api/v1 request; staff routes reject anonymous callers.
func RegisterRoutes(router *gin.Engine, r Routes) {
	router.GET("/health", r.Health.Health)
	router.GET("/health/ready", r.Health.Ready)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Session())
	v1.GET("/info", r.Health.Info)

	v1.POST("/area", r.Area.Draw)
	v1.GET("/locations", r.Catalog.Locations)
	v1.GET("/locations/search", r.Area.Search)
	v1.GET("/products", r.Catalog.Products)
	v1.POST("/quotes", r.Catalog.Quote)

	public := v1.Group("")
	if r.SubmitLimit != nil {
		public.Use(r.SubmitLimit)
	}
	public.POST("/leads", r.Leads.Submit)
	public.POST("/leads/drafts", r.Leads.SaveDraft)

	staff := v1.Group("")
	staff.Use(middleware.RequireStaff())
	{
		staff.GET("/leads", r.Leads.List)
		staff.DELETE("/leads", r.Leads.Purge)
		staff.GET("/leads/stream", r.Leads.Stream)
		staff.GET("/leads/export", r.Leads.Export)
		staff.POST("/leads/manual", r.Leads.CreateManual)
		staff.POST("/leads/purge/confirm", r.Leads.ConfirmPurge)
		staff.GET("/leads/:id", r.Leads.Get)
		staff.PATCH("/leads/:id", r.Leads.UpdateDetails)
		staff.PATCH("/leads/:id/status", r.Leads.UpdateStatus)
		staff.PATCH("/leads/:id/assignee", r.Leads.Assign)
		staff.DELETE("/leads/:id", r.Leads.Delete)
		staff.DELETE("/session", r.Leads.EndSession)
	}
}
