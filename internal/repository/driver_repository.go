package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleet-service/internal/model"
)

type DriverRepository struct {
	db *gorm.DB
}

func NewDriverRepository(db *gorm.DB) *DriverRepository {
	return &DriverRepository{db: db}
}

func (r *DriverRepository) Create(ctx context.Context, driver *model.Driver) error {
	return dbFrom(ctx, r.db).WithContext(ctx).Create(driver).Error
}

func (r *DriverRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Driver, error) {
	var driver model.Driver
	err := dbFrom(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&driver).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &driver, nil
}

func (r *DriverRepository) GetByLicense(ctx context.Context, license string) (*model.Driver, error) {
	if license == "" {
		return nil, nil
	}
	var driver model.Driver
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("license_number = ?", license).
		First(&driver).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &driver, nil
}

// UpdateStatus writes the status column only, same contract as
// VehicleRepository.UpdateStatus.
func (r *DriverRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ResourceStatus) error {
	return dbFrom(ctx, r.db).WithContext(ctx).Model(&model.Driver{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *DriverRepository) SetAssignedVehicle(ctx context.Context, id uuid.UUID, vehicleID *uuid.UUID) error {
	return dbFrom(ctx, r.db).WithContext(ctx).Model(&model.Driver{}).
		Where("id = ?", id).
		Update("assigned_vehicle_id", vehicleID).Error
}

// SetAvailability has the same contract as VehicleRepository.SetAvailability.
func (r *DriverRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool, currentAssignmentID *uuid.UUID) error {
	return dbFrom(ctx, r.db).WithContext(ctx).Model(&model.Driver{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_available":          available,
			"current_assignment_id": currentAssignmentID,
		}).Error
}

type DriverListFilter struct {
	Status            *model.ResourceStatus
	LicenseCategories []model.LicenseCategory
	AgencyID          *uuid.UUID
	Available         *bool
	VehicleAssigned   *bool
	Search            *string
	Page              int
	PageSize          int
}

func (r *DriverRepository) List(ctx context.Context, filter DriverListFilter) ([]model.Driver, int64, error) {
	query := dbFrom(ctx, r.db).WithContext(ctx).Model(&model.Driver{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if len(filter.LicenseCategories) > 0 {
		query = query.Where("license_category IN ?", filter.LicenseCategories)
	}
	if filter.AgencyID != nil {
		query = query.Where("agency_id = ?", *filter.AgencyID)
	}
	if filter.Available != nil {
		query = query.Where("is_available = ?", *filter.Available)
	}
	if filter.VehicleAssigned != nil {
		if *filter.VehicleAssigned {
			query = query.Where("assigned_vehicle_id IS NOT NULL")
		} else {
			query = query.Where("assigned_vehicle_id IS NULL")
		}
	}
	if filter.Search != nil {
		pattern := "%" + *filter.Search + "%"
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ? OR license_number ILIKE ?", pattern, pattern, pattern)
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

	var drivers []model.Driver
	if err := query.Order("created_at ASC").Find(&drivers).Error; err != nil {
		return nil, 0, err
	}

	return drivers, total, nil
}
