package postgres

import (
	"context"

	vehicleDatamodel "github.com/campusid/parking-portal/internal/core/datamodel/vehicle"
	"github.com/campusid/parking-portal/internal/vehicle"
	"gorm.io/gorm"
)

type VehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) vehicle.RepositoryAPI {
	return &VehicleRepository{db: db}
}

func (r *VehicleRepository) Create(ctx context.Context, v *vehicleDatamodel.Vehicle) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *VehicleRepository) ListByOwner(ctx context.Context, ownerID string) ([]*vehicleDatamodel.Vehicle, error) {
	var vehicles []*vehicleDatamodel.Vehicle
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&vehicles).Error
	return vehicles, err
}

func (r *VehicleRepository) ListAll(ctx context.Context) ([]*vehicleDatamodel.Vehicle, error) {
	var vehicles []*vehicleDatamodel.Vehicle
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&vehicles).Error
	return vehicles, err
}

func (r *VehicleRepository) CountByTypeAndStatus(ctx context.Context) ([]vehicle.CountRow, error) {
	var rows []vehicle.CountRow
	err := r.db.WithContext(ctx).
		Model(&vehicleDatamodel.Vehicle{}).
		Select("vehicle_type, status, COUNT(*) AS total").
		Group("vehicle_type, status").
		Scan(&rows).Error
	return rows, err
}
