package models

import "time"

// Webhook topics this app subscribes to.
const (
	WebhookTopicSubscriptionsUpdate = "app_subscriptions/update"
	WebhookTopicBillingConfirm      = "billing/confirm"
)

// BillingWebhookEvent stores vendor webhook deliveries with deduplication
// metadata for idempotent processing. The platform redelivers on non-2xx
// responses, so repeats of the same delivery must be answered without a
// second reconciliation.
type BillingWebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Topic           string     `gorm:"type:varchar(100);not null;index:ux_billing_webhook_events_topic_event,unique,priority:1;index" json:"topic"`
	ProviderEventID string     `gorm:"type:varchar(191);not null;default:'';index:ux_billing_webhook_events_topic_event,unique,priority:2" json:"provider_event_id"`
	ShopDomain      string     `gorm:"type:varchar(191);not null;default:'';index" json:"shop_domain"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	SignatureValid  bool       `gorm:"default:false;index" json:"signature_valid"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
