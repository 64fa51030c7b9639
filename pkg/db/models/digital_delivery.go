package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zalar2202/logashop/pkg/types"
)

// DigitalDelivery grants download access to a purchased digital item.
// Exactly one of UserID or GuestEmail identifies the owner.
type DigitalDelivery struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	OrderItemID   uuid.UUID         `gorm:"column:order_item_id;type:uuid;not null"`
	ProductID     uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	UserID        *uuid.UUID        `gorm:"column:user_id;type:uuid;index"`
	GuestEmail    *string           `gorm:"column:guest_email;index"`
	DownloadToken string            `gorm:"column:download_token;not null;uniqueIndex"`
	MaxDownloads  int               `gorm:"column:max_downloads;not null;default:0"`
	DownloadCount int               `gorm:"column:download_count;not null;default:0"`
	ExpiresAt     *time.Time        `gorm:"column:expires_at"`
	File          types.DigitalFile `gorm:"column:file;type:jsonb;serializer:json;not null"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// Usable reports whether the grant still permits a download at the
// given time. A MaxDownloads of zero means unlimited.
func (d *DigitalDelivery) Usable(now time.Time) bool {
	if d == nil {
		return false
	}
	if d.ExpiresAt != nil && now.After(*d.ExpiresAt) {
		return false
	}
	if d.MaxDownloads > 0 && d.DownloadCount >= d.MaxDownloads {
		return false
	}
	return true
}
