package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"strings"

	"github.com/StorePlanHQ/StorePlan/app/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service reconciles billing observations from any producer (dashboard pull,
// webhook push, user command) into the shop's canonical local subscription
// state. It is the only component that writes subscription rows.
type Service struct {
	repo     Repository
	notifier Notifier
}

// NewService creates a billing service from injected collaborators.
func NewService(repo Repository, notifier Notifier) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{repo: repo, notifier: notifier}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, notifier Notifier) *Service {
	return NewService(NewRepository(db), notifier)
}

// normalizeStatus lower-cases and trims a reported status and folds the
// vendor's "declined" into expired. Unrecognized values pass through verbatim.
func normalizeStatus(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	if s == "declined" {
		return models.SubscriptionStatusExpired
	}
	return s
}

func isKnownStatus(status string) bool {
	switch status {
	case models.SubscriptionStatusPending,
		models.SubscriptionStatusActive,
		models.SubscriptionStatusCancelled,
		models.SubscriptionStatusExpired:
		return true
	default:
		return false
	}
}

// overwritableFor encodes the observation priority rule
// (active > cancelled/expired > pending) as the set of current statuses a
// write may replace. nil means any.
func overwritableFor(status string) []string {
	switch status {
	case models.SubscriptionStatusActive:
		return nil
	case models.SubscriptionStatusCancelled:
		return []string{
			models.SubscriptionStatusPending,
			models.SubscriptionStatusActive,
			models.SubscriptionStatusExpired,
		}
	case models.SubscriptionStatusExpired:
		return []string{
			models.SubscriptionStatusPending,
			models.SubscriptionStatusActive,
			models.SubscriptionStatusCancelled,
		}
	case models.SubscriptionStatusPending:
		// Pending can never overwrite an existing row; insert only.
		return []string{}
	default:
		// Unrecognized statuses are stored verbatim (log-and-store fallback).
		return nil
	}
}

// UpsertShop registers a shop or refreshes its access token.
func (s *Service) UpsertShop(ctx context.Context, domain, accessToken string) (*models.Shop, error) {
	_ = ctx
	d := strings.ToLower(strings.TrimSpace(domain))
	if d == "" {
		return nil, errors.New("shop domain is required")
	}
	return s.repo.UpsertShop(d, accessToken)
}

// CurrentSubscription returns the shop's live row, or nil when the shop has
// never produced a billing observation.
func (s *Service) CurrentSubscription(ctx context.Context, shopDomain string) (*models.Subscription, error) {
	_ = ctx
	shop, err := s.repo.FindShopByDomain(strings.ToLower(strings.TrimSpace(shopDomain)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}
	sub, err := s.repo.FindSubscriptionByShop(shop.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

// Reconcile applies one billing observation and returns the resulting
// canonical row. At most one upsert against the live row happens per call;
// notification dispatch runs only after the write succeeded and its failure
// is swallowed.
func (s *Service) Reconcile(ctx context.Context, shopDomain string, obs Observation) (*models.Subscription, error) {
	_ = ctx
	domain := strings.ToLower(strings.TrimSpace(shopDomain))
	if domain == "" {
		return nil, ErrShopNotFound
	}

	shop, err := s.repo.FindShopByDomain(domain)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if obs.Source != SourceConfirm {
			return nil, ErrShopNotFound
		}
		// A confirmation can arrive before the merchant re-authenticates;
		// register the shop with a placeholder credential that the next
		// successful OAuth callback overwrites.
		shop, err = s.repo.UpsertShop(domain, "pending:"+uuid.NewString())
		if err != nil {
			return nil, err
		}
	}

	var current *models.Subscription
	current, err = s.repo.FindSubscriptionByShop(shop.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		current = nil
	}

	status := normalizeStatus(obs.Status)
	if status == "" {
		if current == nil {
			return nil, ErrInvalidObservation
		}
		return current, nil
	}
	if !isKnownStatus(status) {
		log.Printf("billing: unrecognized subscription status %q for shop %s, storing verbatim", status, domain)
	}

	// No-op transitions: there is nothing to cancel or expire without a row,
	// a pending observation never regresses an existing row, and repeated
	// cancelled/expired observations are idempotent.
	if current == nil &&
		(status == models.SubscriptionStatusCancelled || status == models.SubscriptionStatusExpired) {
		return nil, nil
	}
	if current != nil && status == models.SubscriptionStatusPending {
		return current, nil
	}
	if current != nil && current.Status == status &&
		(status == models.SubscriptionStatusCancelled || status == models.SubscriptionStatusExpired) {
		return current, nil
	}

	sub := &models.Subscription{
		ShopID:               shop.ID,
		Plan:                 s.resolvePlan(obs, current),
		Status:               status,
		SourceSubscriptionID: s.resolveSourceID(obs, current),
	}
	sub.Price = s.resolvePrice(obs, current, sub.Plan)

	applied, err := s.repo.ApplySubscription(sub, overwritableFor(status))
	if err != nil {
		return nil, err
	}
	if !applied {
		// A concurrent observation with higher priority won the race; the
		// stored row is the canonical answer.
		return s.repo.FindSubscriptionByShop(shop.ID)
	}

	previousStatus := ""
	if current != nil {
		previousStatus = current.Status
	}
	s.appendEvent(shop.ID, obs, sub, previousStatus)
	s.notify(domain, sub, previousStatus)

	return sub, nil
}

// PromotePendingSubscription moves a shop's pending row to active. The
// dashboard calls this before querying the billing platform: a pending row
// only exists once a verified push reported the charge, and the merchant
// coming back to the dashboard completes that handshake.
func (s *Service) PromotePendingSubscription(ctx context.Context, shopDomain string) (*models.Subscription, error) {
	_ = ctx
	shop, err := s.repo.FindShopByDomain(strings.ToLower(strings.TrimSpace(shopDomain)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}
	current, err := s.repo.FindSubscriptionByShop(shop.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if current.Status != models.SubscriptionStatusPending {
		return current, nil
	}

	sub := &models.Subscription{
		ShopID:               shop.ID,
		Plan:                 current.Plan,
		Price:                current.Price,
		Status:               models.SubscriptionStatusActive,
		SourceSubscriptionID: current.SourceSubscriptionID,
	}
	applied, err := s.repo.ApplySubscription(sub, []string{models.SubscriptionStatusPending})
	if err != nil {
		return nil, err
	}
	if !applied {
		return s.repo.FindSubscriptionByShop(shop.ID)
	}

	s.appendEvent(shop.ID, Observation{Source: SourcePull, Status: sub.Status}, sub, current.Status)
	s.notify(shop.Domain, sub, current.Status)
	return sub, nil
}

func (s *Service) resolvePlan(obs Observation, current *models.Subscription) string {
	if plan := strings.ToLower(strings.TrimSpace(obs.Plan)); plan != "" {
		return plan
	}
	if current != nil {
		return current.Plan
	}
	return ""
}

func (s *Service) resolvePrice(obs Observation, current *models.Subscription, plan string) float64 {
	if obs.Price != nil && *obs.Price >= 0 {
		return *obs.Price
	}
	if price, ok := PriceOf(plan); ok {
		return price
	}
	if current != nil {
		return current.Price
	}
	return 0
}

func (s *Service) resolveSourceID(obs Observation, current *models.Subscription) string {
	if id := strings.TrimSpace(obs.SourceSubscriptionID); id != "" {
		return id
	}
	if current != nil {
		return current.SourceSubscriptionID
	}
	return ""
}

// appendEvent records the applied observation in the audit table. The live
// row stays canonical even if the audit insert fails.
func (s *Service) appendEvent(shopID uint, obs Observation, sub *models.Subscription, previousStatus string) {
	event := &models.SubscriptionEvent{
		ShopID:               shopID,
		Source:               obs.Source,
		Plan:                 sub.Plan,
		Price:                sub.Price,
		Status:               sub.Status,
		PreviousStatus:       previousStatus,
		SourceSubscriptionID: sub.SourceSubscriptionID,
	}
	if err := s.repo.AppendEvent(event); err != nil {
		log.Printf("billing: failed to append subscription event for shop %d: %v", shopID, err)
	}
}

// notify dispatches the transactional email matching a status transition.
// Failures are logged and swallowed; a failed email must never make the
// reconciliation look failed to its caller.
func (s *Service) notify(shopDomain string, sub *models.Subscription, previousStatus string) {
	var event string
	switch sub.Status {
	case models.SubscriptionStatusActive:
		if previousStatus == models.SubscriptionStatusActive {
			return // renewal, fields refreshed silently
		}
		event = EventWelcome
	case models.SubscriptionStatusCancelled:
		event = EventCancellation
	case models.SubscriptionStatusExpired:
		event = EventExpiration
	default:
		return
	}

	if err := s.notifier.Notify(shopDomain, event, sub.Plan, sub.Price); err != nil {
		log.Printf("billing: failed to send %s notification to %s: %v", event, shopDomain, err)
	}
}

// RecordWebhookEvent persists webhook payloads idempotently. Deliveries
// without a vendor event ID fall back to a payload hash so redeliveries of
// the same body still deduplicate.
func (s *Service) RecordWebhookEvent(ctx context.Context, topic, eventID, shopDomain, payloadJSON string, signatureValid bool) (bool, *models.BillingWebhookEvent, error) {
	_ = ctx
	if strings.TrimSpace(topic) == "" {
		return false, nil, errors.New("webhook topic is required")
	}
	id := strings.TrimSpace(eventID)
	if id == "" {
		sum := sha256.Sum256([]byte(payloadJSON))
		id = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		Topic:           topic,
		ProviderEventID: id,
		ShopDomain:      strings.ToLower(strings.TrimSpace(shopDomain)),
		PayloadJSON:     payloadJSON,
		SignatureValid:  signatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks a delivery as handled and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook event id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}
