package vehicle

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Vehicle struct {
	ID          string    `gorm:"primaryKey;size:36"`
	OwnerID     string    `gorm:"column:owner_id;size:36;index;not null"`
	OwnerName   string    `gorm:"column:owner_name;not null"`
	OwnerNIM    string    `gorm:"column:owner_nim;not null"`
	Plate       string    `gorm:"column:plate;size:32;index;not null"`
	VehicleType string    `gorm:"column:vehicle_type;size:16;not null"`
	PhotoURL    string    `gorm:"column:photo_url;not null"`
	QRURL       string    `gorm:"column:qr_url;not null"`
	OwnerRole   string    `gorm:"column:owner_role;size:16;not null"`
	Status      string    `gorm:"column:status;size:16;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}

func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
