package models

import "time"

// SubscriptionEvent is the append-only audit trail of applied billing
// observations. The live row in subscriptions is authoritative; this table
// answers "how did we get here".
type SubscriptionEvent struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	ShopID               uint      `gorm:"not null;index" json:"shop_id"`
	Source               string    `gorm:"type:varchar(20);not null;index" json:"source"`
	Plan                 string    `gorm:"type:varchar(50);not null" json:"plan"`
	Price                float64   `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	Status               string    `gorm:"type:varchar(32);not null" json:"status"`
	PreviousStatus       string    `gorm:"type:varchar(32);not null;default:''" json:"previous_status"`
	SourceSubscriptionID string    `gorm:"type:varchar(191);default:''" json:"source_subscription_id"`
	CreatedAt            time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
