package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Cheertaboi/bundle-deal-service/internal/models"
	"github.com/Cheertaboi/bundle-deal-service/internal/notify"
)

// Repos required by service (use interfaces to allow swapping stores)
type DealRepo interface {
	Create(ctx context.Context, d *models.Deal) error
	Update(ctx context.Context, id string, u models.DealUpdate) (*models.Deal, error)
	ToggleActive(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, activeOnly bool) ([]models.Deal, error)
	GetByID(ctx context.Context, id string) (*models.Deal, error)
	GetByCode(ctx context.Context, code string) (*models.Deal, error)
}

type UsageRepo interface {
	IncrementUsage(ctx context.Context, dealID string) error
}

type ProductRepo interface {
	GetByID(ctx context.Context, id string) (*models.CatalogItem, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]models.CatalogItem, error)
	SetTier(ctx context.Context, id string, tier models.Tier) error
	ListByTier(ctx context.Context, tier models.Tier, limit int) ([]models.CatalogItem, error)
}

// DealCache is satisfied by cache.DealCache and cache.RedisDealCache.
type DealCache interface {
	Get(ctx context.Context, key string) (*models.Deal, bool, error)
	Set(ctx context.Context, key string, d *models.Deal) error
	Delete(ctx context.Context, keys ...string) error
}

type DealOptions struct {
	Cache    DealCache
	Notifier notify.Notifier
	Logger   *slog.Logger
	// TrustCartTiers skips the catalog lookup in ValidateCart and counts the
	// tiers the caller sent.
	TrustCartTiers bool
}

type DealService struct {
	deals          DealRepo
	usage          UsageRepo
	products       ProductRepo
	cache          DealCache
	notifier       notify.Notifier
	logger         *slog.Logger
	trustCartTiers bool
}

func NewDealService(deals DealRepo, usage UsageRepo, products ProductRepo, opts DealOptions) *DealService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.LogNotifier{Logger: logger}
	}
	return &DealService{
		deals:          deals,
		usage:          usage,
		products:       products,
		cache:          opts.Cache,
		notifier:       notifier,
		logger:         logger,
		trustCartTiers: opts.TrustCartTiers,
	}
}

func codeKey(code string) string { return "code:" + models.NormalizeCode(code) }
func idKey(id string) string     { return "id:" + id }

func validateDeal(d *models.Deal) error {
	if strings.TrimSpace(d.Code) == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidDeal)
	}
	if d.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidDeal)
	}
	if err := d.Requirements.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDeal, err)
	}
	return nil
}

func validateUpdate(u models.DealUpdate) error {
	if u.Code != nil && strings.TrimSpace(*u.Code) == "" {
		return fmt.Errorf("%w: code must not be empty", ErrInvalidDeal)
	}
	if u.Price != nil && u.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidDeal)
	}
	if err := u.Requirements.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDeal, err)
	}
	return nil
}

// CreateDeal stores a new deal and returns its id. CreatedBy is taken from d.
func (s *DealService) CreateDeal(ctx context.Context, d *models.Deal) (string, error) {
	if err := validateDeal(d); err != nil {
		return "", err
	}
	if err := s.deals.Create(ctx, d); err != nil {
		return "", fmt.Errorf("create deal: %w", err)
	}
	s.logger.Info("deal created", "deal_id", d.ID, "code", d.Code, "created_by", d.CreatedBy)
	s.emit(ctx, notify.DealCreated, d, d.CreatedBy)
	return d.ID, nil
}

func (s *DealService) UpdateDeal(ctx context.Context, id string, u models.DealUpdate) (*models.Deal, error) {
	if err := validateUpdate(u); err != nil {
		return nil, err
	}
	before, err := s.deals.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load deal: %w", err)
	}

	updated, err := s.deals.Update(ctx, id, u)
	if err != nil {
		return nil, fmt.Errorf("update deal: %w", err)
	}

	keys := []string{idKey(id), codeKey(updated.Code)}
	if before != nil {
		keys = append(keys, codeKey(before.Code))
	}
	s.invalidate(ctx, keys...)
	s.emit(ctx, notify.DealUpdated, updated, "")
	return updated, nil
}

// ToggleDealActive flips the active flag and returns the new value.
func (s *DealService) ToggleDealActive(ctx context.Context, id string) (bool, error) {
	active, err := s.deals.ToggleActive(ctx, id)
	if err != nil {
		return false, fmt.Errorf("toggle deal: %w", err)
	}

	d, err := s.deals.GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("reload toggled deal", "deal_id", id, "error", err)
	}
	keys := []string{idKey(id)}
	if d != nil {
		keys = append(keys, codeKey(d.Code))
	}
	s.invalidate(ctx, keys...)

	event := notify.DealDeactivated
	if active {
		event = notify.DealActivated
	}
	if d == nil {
		d = &models.Deal{ID: id, IsActive: active}
	}
	s.emit(ctx, event, d, "")
	return active, nil
}

// DeleteDeal removes the deal. Deleting a missing deal succeeds.
func (s *DealService) DeleteDeal(ctx context.Context, id string) error {
	d, err := s.deals.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load deal: %w", err)
	}
	if err := s.deals.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	if d == nil {
		s.invalidate(ctx, idKey(id))
		return nil
	}
	s.invalidate(ctx, idKey(id), codeKey(d.Code))
	s.emit(ctx, notify.DealDeleted, d, "")
	return nil
}

func (s *DealService) ListDeals(ctx context.Context, activeOnly bool) ([]models.Deal, error) {
	deals, err := s.deals.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	if deals == nil {
		deals = []models.Deal{}
	}
	return deals, nil
}

// GetDeal returns nil, nil when the deal does not exist.
func (s *DealService) GetDeal(ctx context.Context, id string) (*models.Deal, error) {
	return s.cached(ctx, idKey(id), func() (*models.Deal, error) {
		return s.deals.GetByID(ctx, id)
	})
}

// GetDealByCode finds the active deal with the code, ignoring case.
func (s *DealService) GetDealByCode(ctx context.Context, code string) (*models.Deal, error) {
	return s.cached(ctx, codeKey(code), func() (*models.Deal, error) {
		return s.deals.GetByCode(ctx, code)
	})
}

// IncrementUsage records one redemption. It does not check the active flag.
func (s *DealService) IncrementUsage(ctx context.Context, id string) error {
	if err := s.usage.IncrementUsage(ctx, id); err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}

	keys := []string{idKey(id)}
	d, err := s.deals.GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("reload redeemed deal", "deal_id", id, "error", err)
	} else if d != nil {
		keys = append(keys, codeKey(d.Code))
	}
	s.invalidate(ctx, keys...)
	return nil
}

// ValidateCart checks the cart against the deal's tier requirements. The
// returned error is reserved for store failures.
func (s *DealService) ValidateCart(ctx context.Context, dealID string, items []models.CartItem) (models.ValidationResult, error) {
	// short request-scoped deadline to avoid long-running ops
	ctx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()

	res := models.ValidationResult{IsValid: true, Errors: []string{}}

	deal, err := s.GetDeal(ctx, dealID)
	if err != nil {
		return models.ValidationResult{}, err
	}
	if deal == nil {
		res.Add(models.ValidationIssue{Kind: models.IssueDealNotFound, Message: "Deal not found"})
		return res, nil
	}
	if !deal.IsActive {
		res.Add(models.ValidationIssue{Kind: models.IssueDealInactive, Message: "This deal is no longer active"})
		return res, nil
	}

	tiers, err := s.resolveTiers(ctx, items, &res)
	if err != nil {
		return models.ValidationResult{}, err
	}
	if !res.IsValid {
		return res, nil
	}

	counts := make(map[models.Tier]int, len(models.AllTiers))
	for _, t := range tiers {
		counts[t]++
	}

	missing := make(map[models.Tier]int, len(models.AllTiers))
	short := false
	for _, t := range models.AllTiers {
		need := deal.Requirements.Count(t)
		missing[t] = 0
		if counts[t] < need {
			missing[t] = need - counts[t]
			short = true
			res.Add(models.ValidationIssue{
				Kind:    models.IssueTierMissing,
				Tier:    t,
				Count:   missing[t],
				Message: fmt.Sprintf("Need %d more %s card(s)", missing[t], t.Title()),
			})
		}
	}
	for _, t := range models.AllTiers {
		allowed := deal.Requirements.Count(t)
		if counts[t] > allowed {
			res.Add(models.ValidationIssue{
				Kind:    models.IssueTierExcess,
				Tier:    t,
				Count:   counts[t] - allowed,
				Message: fmt.Sprintf("Too many %s cards (max %d)", t.Title(), allowed),
			})
		}
	}
	if short {
		res.MissingSlots = missing
	}
	return res, nil
}

// resolveTiers returns one tier per cart item, recording an issue on res for
// every item that cannot be counted.
func (s *DealService) resolveTiers(ctx context.Context, items []models.CartItem, res *models.ValidationResult) ([]models.Tier, error) {
	tiers := make([]models.Tier, 0, len(items))

	if s.trustCartTiers {
		for _, it := range items {
			t, err := models.ParseTier(string(it.Tier))
			if err != nil {
				res.Add(invalidTier(it.ProductID, string(it.Tier)))
				continue
			}
			tiers = append(tiers, t)
		}
		return tiers, nil
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	catalog, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve cart tiers: %w", err)
	}

	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if seen[it.ProductID] {
			res.Add(models.ValidationIssue{
				Kind:      models.IssueDuplicateItem,
				ProductID: it.ProductID,
				Message:   fmt.Sprintf("Card %s is listed more than once", it.ProductID),
			})
			continue
		}
		seen[it.ProductID] = true

		p, ok := catalog[it.ProductID]
		if !ok || p.Tier == nil {
			res.Add(models.ValidationIssue{
				Kind:      models.IssueUnknownItem,
				ProductID: it.ProductID,
				Message:   fmt.Sprintf("Card %s is not eligible for bundle deals", it.ProductID),
			})
			continue
		}
		if !p.Tier.Valid() {
			res.Add(invalidTier(it.ProductID, string(*p.Tier)))
			continue
		}
		tiers = append(tiers, *p.Tier)
	}
	return tiers, nil
}

func invalidTier(productID, raw string) models.ValidationIssue {
	return models.ValidationIssue{
		Kind:      models.IssueInvalidTier,
		ProductID: productID,
		Message:   fmt.Sprintf("Invalid tier %q for card %s", raw, productID),
	}
}

// cached is a read-through lookup. Cache failures fall back to the store.
func (s *DealService) cached(ctx context.Context, key string, load func() (*models.Deal, error)) (*models.Deal, error) {
	if s.cache != nil {
		d, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("deal cache get failed", "key", key, "error", err)
		} else if ok {
			return d, nil
		}
	}

	d, err := load()
	if err != nil {
		return nil, fmt.Errorf("load deal: %w", err)
	}
	if d == nil {
		return nil, nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, d); err != nil {
			s.logger.Warn("deal cache set failed", "key", key, "error", err)
		}
	}
	return d, nil
}

func (s *DealService) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("deal cache invalidate failed", "keys", keys, "error", err)
	}
}

// emit never fails the caller; delivery errors are logged.
func (s *DealService) emit(ctx context.Context, eventType string, d *models.Deal, actor string) {
	e := notify.Event{
		Type:      eventType,
		DealID:    d.ID,
		Code:      d.Code,
		Actor:     actor,
		Data:      map[string]any{"isActive": d.IsActive},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notifier.Notify(ctx, e); err != nil {
		s.logger.Error("deal notification failed", "type", eventType, "deal_id", d.ID, "error", err)
	}
}
