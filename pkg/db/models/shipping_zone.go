package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ShippingZone groups the countries and states a set of shipping
// methods serves. An empty Countries array marks a global catch-all.
type ShippingZone struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string           `gorm:"column:name;not null"`
	Countries pq.StringArray   `gorm:"column:countries;type:text[];not null;default:ARRAY[]::text[]"`
	States    pq.StringArray   `gorm:"column:states;type:text[];not null;default:ARRAY[]::text[]"`
	IsDefault bool             `gorm:"column:is_default;not null;default:false"`
	IsActive  bool             `gorm:"column:is_active;not null;default:true"`
	SortOrder int              `gorm:"column:sort_order;not null;default:0"`
	Methods   []ShippingMethod `gorm:"foreignKey:ZoneID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// MatchesCountry reports whether the zone explicitly lists the country.
func (z *ShippingZone) MatchesCountry(country string) bool {
	for _, c := range z.Countries {
		if c == country {
			return true
		}
	}
	return false
}

// MatchesState reports whether the zone explicitly lists the state.
func (z *ShippingZone) MatchesState(state string) bool {
	for _, s := range z.States {
		if s == state {
			return true
		}
	}
	return false
}

// IsGlobal reports whether the zone serves every country.
func (z *ShippingZone) IsGlobal() bool {
	return len(z.Countries) == 0
}
