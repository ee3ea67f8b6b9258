package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/geo"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/leads"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/logger"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/metrics"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/pricing"
)

// DefaultPublicSource is recorded on leads from the public form.
const DefaultPublicSource = "web"

// LeadService defines the interface for authoritative lead operations.
// It implements leads.Remote, so live views commit through it.
type LeadService interface {
	leads.Remote

	// Create validates and prices a submission and stores it as a new lead.
	// The draft channel stores partial quotes with status draft.
	Create(ctx context.Context, s leads.Session, ch leads.Channel, sub leads.Submission) (*models.Lead, error)

	// Delete removes a lead. Only global roles may delete.
	Delete(ctx context.Context, s leads.Session, id string) error
}

type leadService struct {
	store   leads.Store
	quotes  QuoteService
	metrics *metrics.Metrics
	log     *logger.Logger
	now     func() time.Time
}

// NewLeadService creates a new instance of LeadService.
func NewLeadService(store leads.Store, quotes QuoteService, m *metrics.Metrics, log *logger.Logger) LeadService {
	return &leadService{
		store:   store,
		quotes:  quotes,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

func (s *leadService) Create(ctx context.Context, sess leads.Session, ch leads.Channel, sub leads.Submission) (*models.Lead, error) {
	if ch == leads.ChannelManual {
		if err := leads.CanCreateManual(sess); err != nil {
			return nil, err
		}
	}
	if sub.ManualUnitPrice != nil && !sess.IsStaff() {
		return nil, fmt.Errorf("%w: only staff may set a manual price", leads.ErrForbidden)
	}

	var polygon models.Polygon
	if sub.Vertices != nil {
		if err := geo.ValidateRing(sub.Vertices); err != nil {
			return nil, leads.NewValidationError("vertices", err.Error())
		}
		polygon = models.NewPolygon(sub.Vertices)
		sub.Area = geo.Area(sub.Vertices)
	}

	if err := leads.ValidateSubmission(ch, sub); err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	lead := &models.Lead{
		CreatedAt:       now,
		UpdatedAt:       now,
		Email:           trimmedOrNil(sub.Email),
		ManualUnitPrice: sub.ManualUnitPrice,
		Polygon:         polygon,
		ID:              uuid.NewString(),
		Folio:           leads.NewFolio(sub.City, now),
		Name:            strings.TrimSpace(sub.Name),
		Phone:           strings.TrimSpace(sub.Phone),
		Address:         strings.TrimSpace(sub.Address),
		City:            strings.TrimSpace(sub.City),
		State:           strings.TrimSpace(sub.State),
		PostalCode:      strings.TrimSpace(sub.PostalCode),
		MapReference:    strings.TrimSpace(sub.MapReference),
		ProductID:       strings.TrimSpace(sub.ProductID),
		PricingMode:     sub.PricingMode,
		Status:          models.StatusNew,
		Source:          strings.TrimSpace(sub.Source),
		Notes:           strings.TrimSpace(sub.Notes),
		Area:            sub.Area,
		LogisticsCost:   sub.LogisticsCost,
		InvoiceRequired: sub.InvoiceRequired,
		Manual:          ch == leads.ChannelManual,
	}
	if lead.PricingMode == "" {
		lead.PricingMode = models.PricingCash
	}
	if ch == leads.ChannelDraft {
		lead.Status = models.StatusDraft
	}
	if ch == leads.ChannelPublic && lead.Source == "" {
		lead.Source = DefaultPublicSource
	}
	if sess.IsStaff() {
		createdBy := sess.UserID
		lead.CreatedBy = &createdBy
		// Sellers keep manual leads outside their city visible to themselves.
		if lead.Manual && !sess.IsGlobal() {
			assignee := sess.UserID
			lead.AssignedTo = &assignee
		}
	}

	if err := s.price(ctx, lead); err != nil {
		return nil, err
	}

	if err := s.store.Insert(ctx, lead); err != nil {
		return nil, storeError("create lead", err)
	}

	s.metrics.LeadCreated(string(ch))
	s.log.Info("Lead created", map[string]interface{}{
		"lead_id":     lead.ID,
		"folio":       lead.Folio,
		"channel":     string(ch),
		"city":        lead.City,
		"out_of_zone": lead.IsOutOfZone,
		"phone":       lead.Phone,
	})
	return lead, nil
}

func (s *leadService) Get(ctx context.Context, sess leads.Session, id string) (*models.Lead, error) {
	if !sess.IsStaff() {
		return nil, leads.ErrForbidden
	}
	return s.load(ctx, sess, id)
}

func (s *leadService) List(ctx context.Context, sess leads.Session, f leads.Filter) ([]models.Lead, error) {
	if !sess.IsStaff() {
		return nil, leads.ErrForbidden
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, leads.NewValidationError("status", "Must be one of: draft new contacted technical_visit closed")
	}

	// Callers cannot widen their own scope.
	f.Scope = leads.ScopeOf(sess)

	found, err := s.store.Find(ctx, f)
	if err != nil {
		return nil, storeError("list leads", err)
	}
	return found, nil
}

func (s *leadService) UpdateStatus(ctx context.Context, sess leads.Session, id string, to models.LeadStatus) (*models.Lead, error) {
	current, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	next, err := leads.Transition(sess, *current, to)
	if err != nil {
		return nil, err
	}
	if next.Status == current.Status {
		return current, nil
	}
	// Drafts carry zero totals; price them as they enter the pipeline.
	if current.Status == models.StatusDraft {
		if err := s.price(ctx, &next); err != nil {
			return nil, err
		}
	}

	if err := s.store.Update(ctx, &next); err != nil {
		return nil, storeError("update status", err)
	}

	s.metrics.LeadTransitioned(string(current.Status), string(next.Status))
	s.log.Info("Lead status changed", map[string]interface{}{
		"lead_id": id,
		"from":    string(current.Status),
		"to":      string(next.Status),
		"user_id": sess.UserID,
	})
	return &next, nil
}

func (s *leadService) Assign(ctx context.Context, sess leads.Session, id string, staffID *string) (*models.Lead, error) {
	current, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	next, err := leads.Assign(sess, *current, staffID)
	if err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, &next); err != nil {
		return nil, storeError("assign lead", err)
	}

	s.log.Info("Lead assigned", map[string]interface{}{
		"lead_id":     id,
		"assigned_to": next.AssignedTo,
		"user_id":     sess.UserID,
	})
	return &next, nil
}

func (s *leadService) UpdateDetails(ctx context.Context, sess leads.Session, id string, p leads.Patch) (*models.Lead, error) {
	current, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	next, err := leads.UpdateDetails(sess, *current, p)
	if err != nil {
		return nil, err
	}

	if p.Commercial() || p.PricingMode != nil {
		if err := s.price(ctx, &next); err != nil {
			return nil, err
		}
	}

	if err := s.store.Update(ctx, &next); err != nil {
		return nil, storeError("update lead", err)
	}

	s.log.Info("Lead details updated", map[string]interface{}{
		"lead_id":    id,
		"commercial": p.Commercial(),
		"user_id":    sess.UserID,
	})
	return &next, nil
}

func (s *leadService) Delete(ctx context.Context, sess leads.Session, id string) error {
	current, err := s.load(ctx, sess, id)
	if err != nil {
		return err
	}
	if err := leads.CanDelete(sess, *current); err != nil {
		return err
	}

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return storeError("delete lead", err)
	}
	if !deleted {
		return leads.ErrNotFound
	}

	s.log.Info("Lead deleted", map[string]interface{}{
		"lead_id": id,
		"user_id": sess.UserID,
	})
	return nil
}

// load fetches a lead the session may see. Leads outside the session's
// scope are reported as not found.
func (s *leadService) load(ctx context.Context, sess leads.Session, id string) (*models.Lead, error) {
	l, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storeError("get lead", err)
	}
	if l == nil || !leads.Visible(sess, *l) {
		return nil, leads.ErrNotFound
	}
	return l, nil
}

// price recomputes the stored totals. Drafts without a product or area
// carry zero totals until they are completed.
func (s *leadService) price(ctx context.Context, l *models.Lead) error {
	if l.Status == models.StatusDraft && (l.ProductID == "" || l.Area <= 0) {
		l.CashTotal, l.FinancedTotal, l.IsOutOfZone = 0, 0, false
		return nil
	}

	q, err := s.quotes.Quote(ctx, QuoteInput{
		Overrides: overridesFor(*l),
		ProductID: l.ProductID,
		City:      l.City,
		Area:      l.Area,
	})
	if err != nil {
		return pricingError(err)
	}

	l.CashTotal = q.CashTotal
	l.FinancedTotal = q.FinancedTotal
	l.IsOutOfZone = q.IsOutOfZone
	return nil
}

// overridesFor applies the lead's manual unit price to the total of its
// pricing mode only.
func overridesFor(l models.Lead) pricing.Overrides {
	if l.ManualUnitPrice == nil {
		return pricing.Overrides{}
	}
	if l.PricingMode == models.PricingFinanced {
		return pricing.Overrides{ManualFinancedUnitPrice: l.ManualUnitPrice}
	}
	return pricing.Overrides{ManualUnitPrice: l.ManualUnitPrice}
}

// pricingError turns pricing rejections into field errors so callers treat
// them as bad input rather than remote failures.
func pricingError(err error) error {
	switch {
	case errors.Is(err, pricing.ErrInvalidArea):
		return leads.NewValidationError("area", "Must be greater than 0")
	case errors.Is(err, pricing.ErrProductNotFound):
		return leads.NewValidationError("productId", "Product is not offered in this city")
	case errors.Is(err, pricing.ErrInvalidOverride):
		return leads.NewValidationError("manualUnitPrice", "Must be greater than 0")
	}
	return &leads.RemoteError{Op: "price lead", Err: err}
}

func storeError(op string, err error) error {
	if errors.Is(err, leads.ErrNotFound) || errors.Is(err, leads.ErrConflict) {
		return err
	}
	return &leads.RemoteError{Op: op, Err: err}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
