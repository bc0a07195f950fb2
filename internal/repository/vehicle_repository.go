package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleet-service/internal/model"
)

type VehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

func (r *VehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) error {
	return dbFrom(ctx, r.db).WithContext(ctx).Create(vehicle).Error
}

func (r *VehicleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	err := dbFrom(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&vehicle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vehicle, nil
}

func (r *VehicleRepository) GetByPlate(ctx context.Context, plate string) (*model.Vehicle, error) {
	if plate == "" {
		return nil, nil
	}
	var vehicle model.Vehicle
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("plate_number = ?", plate).
		First(&vehicle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vehicle, nil
}

// UpdateStatus writes the status column only. Availability and pairing
// columns have their own writers; a full-row save here could clobber a
// concurrent claim.
func (r *VehicleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ResourceStatus) error {
	return dbFrom(ctx, r.db).WithContext(ctx).Model(&model.Vehicle{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *VehicleRepository) SetAssignedDriver(ctx context.Context, id uuid.UUID, driverID *uuid.UUID) error {
	return dbFrom(ctx, r.db).WithContext(ctx).Model(&model.Vehicle{}).
		Where("id = ?", id).
		Update("assigned_driver_id", driverID).Error
}

// SetAvailability updates the cached availability flag together with the
// weak reference to the current assignment. Called only from the assignment
// service, inside the same transaction as the ledger write.
func (r *VehicleRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool, currentAssignmentID *uuid.UUID) error {
	return dbFrom(ctx, r.db).WithContext(ctx).Model(&model.Vehicle{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_available":          available,
			"current_assignment_id": currentAssignmentID,
		}).Error
}

type VehicleListFilter struct {
	Status      *model.ResourceStatus
	VehicleType *model.VehicleType
	AgencyID    *uuid.UUID
	Available   *bool
	MinCapacity *int
	Search      *string
	Page        int
	PageSize    int
}

// List returns the matching vehicles and the total match count. PageSize 0
// disables pagination.
func (r *VehicleRepository) List(ctx context.Context, filter VehicleListFilter) ([]model.Vehicle, int64, error) {
	query := dbFrom(ctx, r.db).WithContext(ctx).Model(&model.Vehicle{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.VehicleType != nil {
		query = query.Where("vehicle_type = ?", *filter.VehicleType)
	}
	if filter.AgencyID != nil {
		query = query.Where("agency_id = ?", *filter.AgencyID)
	}
	if filter.Available != nil {
		query = query.Where("is_available = ?", *filter.Available)
	}
	if filter.MinCapacity != nil {
		query = query.Where("capacity >= ?", *filter.MinCapacity)
	}
	if filter.Search != nil {
		pattern := "%" + *filter.Search + "%"
		query = query.Where("plate_number ILIKE ? OR brand ILIKE ? OR model ILIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var vehicles []model.Vehicle
	if err := query.Order("created_at ASC").Find(&vehicles).Error; err != nil {
		return nil, 0, err
	}

	return vehicles, total, nil
}
