package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zalar2202/logashop/pkg/enums"
)

// Notification stores in-app notification payloads for buyers and staff.
type Notification struct {
	ID             uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         *uuid.UUID             `gorm:"type:uuid;index"`
	RecipientEmail *string                `gorm:"column:recipient_email"`
	Type           enums.NotificationType `gorm:"type:notification_type;not null"`
	Title          string                 `gorm:"type:text;not null"`
	Message        string                 `gorm:"type:text;not null"`
	Payload        map[string]any         `gorm:"column:payload;type:jsonb;serializer:json"`
	ReadAt         *time.Time             `gorm:"type:timestamptz"`
	CreatedAt      time.Time              `gorm:"type:timestamptz;default:now()"`
}
