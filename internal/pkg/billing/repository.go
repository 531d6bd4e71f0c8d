package billing

import (
	"time"

	"github.com/StorePlanHQ/StorePlan/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the reconciliation engine.
type Repository interface {
	FindShopByDomain(domain string) (*models.Shop, error)
	UpsertShop(domain, accessToken string) (*models.Shop, error)
	FindSubscriptionByShop(shopID uint) (*models.Subscription, error)

	// ApplySubscription writes the shop's live row. overwritable lists the
	// current statuses the write may replace: nil replaces any status, an
	// empty slice only inserts when no row exists. The guard runs inside the
	// UPDATE statement so concurrent reconciliations for the same shop
	// serialize at the storage layer.
	ApplySubscription(sub *models.Subscription, overwritable []string) (bool, error)

	AppendEvent(event *models.SubscriptionEvent) error

	CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindShopByDomain(domain string) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.Where("domain = ?", domain).First(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *gormRepository) UpsertShop(domain, accessToken string) (*models.Shop, error) {
	shop := &models.Shop{
		Domain:      domain,
		AccessToken: accessToken,
	}
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "domain"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"access_token",
			"updated_at",
		}),
	}).Create(shop).Error; err != nil {
		return nil, err
	}

	// Ensure ID is populated after upsert.
	if err := r.db.Where("domain = ?", domain).First(shop).Error; err != nil {
		return nil, err
	}
	return shop, nil
}

func (r *gormRepository) FindSubscriptionByShop(shopID uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Where("shop_id = ?", shopID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) ApplySubscription(sub *models.Subscription, overwritable []string) (bool, error) {
	applied, err := r.guardedUpdate(sub, overwritable)
	if err != nil {
		return false, err
	}
	if !applied {
		created, err := r.insertIfAbsent(sub)
		if err != nil {
			return false, err
		}
		applied = created
		if !created && (overwritable == nil || len(overwritable) > 0) {
			// A concurrent reconciliation inserted the row between the two
			// statements; re-run the guarded update against it once.
			applied, err = r.guardedUpdate(sub, overwritable)
			if err != nil {
				return false, err
			}
		}
	}
	if !applied {
		return false, nil
	}
	return true, r.db.Where("shop_id = ?", sub.ShopID).First(sub).Error
}

func (r *gormRepository) guardedUpdate(sub *models.Subscription, overwritable []string) (bool, error) {
	if overwritable != nil && len(overwritable) == 0 {
		return false, nil
	}

	updates := map[string]interface{}{
		"plan":                   sub.Plan,
		"price":                  sub.Price,
		"status":                 sub.Status,
		"source_subscription_id": sub.SourceSubscriptionID,
		"updated_at":             time.Now(),
	}

	tx := r.db.Model(&models.Subscription{}).Where("shop_id = ?", sub.ShopID)
	if overwritable != nil {
		tx = tx.Where("status IN ?", overwritable)
	}
	tx = tx.Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) insertIfAbsent(sub *models.Subscription) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "shop_id"},
		},
		DoNothing: true,
	}).Create(sub)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) AppendEvent(event *models.SubscriptionEvent) error {
	return r.db.Create(event).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "topic"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := r.db.Where("topic = ? AND provider_event_id = ?", event.Topic, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
