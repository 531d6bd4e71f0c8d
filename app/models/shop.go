package models

import "time"

// Shop is one record per merchant installation, keyed by the storefront
// domain. The access token is overwritten on every successful authentication
// and never historized.
type Shop struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Domain      string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_shops_domain" json:"domain"`
	AccessToken string    `gorm:"type:text;not null" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Subscription *Subscription `gorm:"foreignKey:ShopID" json:"subscription,omitempty"`
}
