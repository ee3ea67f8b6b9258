package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apierrors "github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/errors"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/export"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/leads"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/middleware"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/services"
)

// DefaultStreamHeartbeat is how often an idle lead stream sends a heartbeat.
const DefaultStreamHeartbeat = 25 * time.Second

// LeadHandler handles lead submission and the staff pipeline.
type LeadHandler struct {
	service   services.LeadService
	registry  *leads.Registry
	purger    *services.Purger
	heartbeat time.Duration
	now       func() time.Time
}

// NewLeadHandler creates a new LeadHandler instance. Staff reads and
// mutations go through the session's live view in registry.
func NewLeadHandler(service services.LeadService, registry *leads.Registry, purger *services.Purger) *LeadHandler {
	return &LeadHandler{
		service:   service,
		registry:  registry,
		purger:    purger,
		heartbeat: DefaultStreamHeartbeat,
		now:       time.Now,
	}
}

// LeadsResponse is a lead listing.
type LeadsResponse struct {
	Leads []models.Lead `json:"leads"`
	Count int           `json:"count"`
}

// ListLeadsRequest represents the query parameters for lead listings.
type ListLeadsRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=draft new contacted technical_visit closed"`
	Query  string `form:"q" binding:"max=200"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=5000"`
}

// UpdateStatusRequest is the body of a pipeline move.
type UpdateStatusRequest struct {
	Status models.LeadStatus `json:"status" binding:"required,oneof=draft new contacted technical_visit closed"`
}

// AssignRequest is the body of an assignment. A null assignee unassigns.
type AssignRequest struct {
	AssignedTo *string `json:"assignedTo" binding:"omitempty,max=120"`
}

// PurgeConfirmRequest is the body of the first purge step.
type PurgeConfirmRequest struct {
	Passphrase string `json:"passphrase" binding:"required"`
}

// PurgeRequest represents the query parameters of the second purge step.
type PurgeRequest struct {
	Token string `form:"confirm" binding:"required"`
}

// PurgeResponse reports how many leads a purge removed.
type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}

// Submit handles POST /api/v1/leads from the public quoting form.
func (h *LeadHandler) Submit(c *gin.Context) {
	h.create(c, leads.ChannelPublic)
}

// SaveDraft handles POST /api/v1/leads/drafts.
func (h *LeadHandler) SaveDraft(c *gin.Context) {
	h.create(c, leads.ChannelDraft)
}

// CreateManual handles POST /api/v1/leads/manual for staff data entry.
func (h *LeadHandler) CreateManual(c *gin.Context) {
	h.create(c, leads.ChannelManual)
}

func (h *LeadHandler) create(c *gin.Context, ch leads.Channel) {
	var sub leads.Submission
	if !bindJSON(c, &sub) {
		return
	}

	lead, err := h.service.Create(c.Request.Context(), middleware.GetSession(c), ch, sub)
	if err != nil {
		respondError(c, err, "Failed to create lead")
		return
	}

	middleware.GetLogger(c).Info("Lead created", map[string]interface{}{
		"lead_id": lead.ID,
		"folio":   lead.Folio,
		"channel": string(ch),
		"status":  string(lead.Status),
	})
	c.JSON(http.StatusCreated, lead)
}

// List handles GET /api/v1/leads.
// The listing comes from the session's live view, newest first.
func (h *LeadHandler) List(c *gin.Context) {
	list, ok := h.filtered(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, LeadsResponse{Leads: list, Count: len(list)})
}

// Export handles GET /api/v1/leads/export.
// Accepts the same filters as List and returns an XLSX workbook.
func (h *LeadHandler) Export(c *gin.Context) {
	list, ok := h.filtered(c)
	if !ok {
		return
	}

	data, err := export.LeadsXLSX(list)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to export leads", err)
		return
	}

	filename := fmt.Sprintf("leads-%s.xlsx", h.now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, export.ContentType, data)
}

func (h *LeadHandler) filtered(c *gin.Context) ([]models.Lead, bool) {
	var req ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindQueryError(c, err)
		return nil, false
	}

	view, ok := h.view(c)
	if !ok {
		return nil, false
	}

	f := leads.Filter{
		Status: models.LeadStatus(req.Status),
		Search: req.Query,
		Scope:  leads.Scope{Global: true},
	}
	all := view.List()
	out := make([]models.Lead, 0, len(all))
	for _, l := range all {
		if !f.Matches(l) {
			continue
		}
		out = append(out, l)
		if req.Limit > 0 && len(out) == req.Limit {
			break
		}
	}
	return out, true
}

// Get handles GET /api/v1/leads/:id.
func (h *LeadHandler) Get(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if l, found := view.Get(id); found {
		c.JSON(http.StatusOK, l)
		return
	}

	lead, err := h.service.Get(c.Request.Context(), view.Session(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve lead")
		return
	}
	c.JSON(http.StatusOK, lead)
}

// UpdateDetails handles PATCH /api/v1/leads/:id.
func (h *LeadHandler) UpdateDetails(c *gin.Context) {
	var p leads.Patch
	if !bindJSON(c, &p) {
		return
	}
	view, ok := h.view(c)
	if !ok {
		return
	}

	lead, err := view.UpdateDetails(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		respondError(c, err, "Failed to update lead")
		return
	}
	c.JSON(http.StatusOK, lead)
}

// UpdateStatus handles PATCH /api/v1/leads/:id/status.
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	view, ok := h.view(c)
	if !ok {
		return
	}

	lead, err := view.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err, "Failed to update lead status")
		return
	}
	c.JSON(http.StatusOK, lead)
}

// Assign handles PATCH /api/v1/leads/:id/assignee.
func (h *LeadHandler) Assign(c *gin.Context) {
	var req AssignRequest
	if !bindJSON(c, &req) {
		return
	}
	view, ok := h.view(c)
	if !ok {
		return
	}

	lead, err := view.Assign(c.Request.Context(), c.Param("id"), req.AssignedTo)
	if err != nil {
		respondError(c, err, "Failed to assign lead")
		return
	}
	c.JSON(http.StatusOK, lead)
}

// Delete handles DELETE /api/v1/leads/:id.
// Open views drop the lead when its change event arrives.
func (h *LeadHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.GetSession(c), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete lead")
		return
	}
	c.Status(http.StatusNoContent)
}

// ConfirmPurge handles POST /api/v1/leads/purge/confirm.
// A correct passphrase yields the token DELETE /api/v1/leads expects.
func (h *LeadHandler) ConfirmPurge(c *gin.Context) {
	var req PurgeConfirmRequest
	if !bindJSON(c, &req) {
		return
	}

	conf, err := h.purger.Confirm(middleware.GetSession(c), req.Passphrase)
	if err != nil {
		respondError(c, err, "Failed to confirm purge")
		return
	}
	c.JSON(http.StatusOK, conf)
}

// Purge handles DELETE /api/v1/leads?confirm=<token>.
func (h *LeadHandler) Purge(c *gin.Context) {
	var req PurgeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindQueryError(c, err)
		return
	}

	n, err := h.purger.Purge(c.Request.Context(), middleware.GetSession(c), req.Token)
	if err != nil {
		respondError(c, err, "Failed to purge leads")
		return
	}
	c.JSON(http.StatusOK, PurgeResponse{Deleted: n})
}

// EndSession handles DELETE /api/v1/session.
// It closes the caller's live view and any streams on it.
func (h *LeadHandler) EndSession(c *gin.Context) {
	s := middleware.GetSession(c)
	if h.registry.Close(s.UserID) {
		middleware.GetLogger(c).Info("Lead view closed", map[string]interface{}{
			"user_id": s.UserID,
		})
	}
	c.Status(http.StatusNoContent)
}

func (h *LeadHandler) view(c *gin.Context) (*leads.View, bool) {
	view, err := h.registry.Open(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		respondError(c, err, "Failed to load leads")
		return nil, false
	}
	return view, true
}
