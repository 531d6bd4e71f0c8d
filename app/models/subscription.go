package models

import "time"

// Subscription statuses as reported by the billing platform. Anything outside
// this set is persisted verbatim but never wins a priority comparison.
const (
	SubscriptionStatusPending   = "pending"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

// Subscription is the local projection of a shop's billing state. The unique
// index on shop_id keeps exactly one live row per shop; prior states live in
// the subscription_events audit table.
type Subscription struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	ShopID               uint      `gorm:"not null;uniqueIndex:ux_subscriptions_shop" json:"shop_id"`
	Plan                 string    `gorm:"type:varchar(50);not null;index" json:"plan"`
	Price                float64   `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	Status               string    `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	SourceSubscriptionID string    `gorm:"type:varchar(191);default:''" json:"source_subscription_id"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsLive reports whether the row grants access right now.
func (s *Subscription) IsLive() bool {
	return s != nil && s.Status == SubscriptionStatusActive
}
