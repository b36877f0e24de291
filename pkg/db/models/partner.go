package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/reclaimtech/buyback-backend/pkg/types"
)

// Partner is a field partner who claims and fulfills pickup orders.
type Partner struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string               `gorm:"column:name;not null"`
	Phone          string               `gorm:"column:phone;not null"`
	Location       types.GeographyPoint `gorm:"column:location;type:geography(Point,4326)"`
	ServiceRadiusM int                  `gorm:"column:service_radius_m;not null;default:10000"`
	Active         bool                 `gorm:"column:active;not null;default:true"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
