package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VehicleType string

const (
	VehicleTypeBus     VehicleType = "BUS"
	VehicleTypeMinibus VehicleType = "MINIBUS"
	VehicleTypeCar     VehicleType = "CAR"
	VehicleTypeSUV     VehicleType = "SUV"
)

func (t VehicleType) Valid() bool {
	switch t {
	case VehicleTypeBus, VehicleTypeMinibus, VehicleTypeCar, VehicleTypeSUV:
		return true
	default:
		return false
	}
}

type Vehicle struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	AgencyID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"agency_id"`
	PlateNumber string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"plate_number"`
	Brand       string         `gorm:"type:varchar(64)" json:"brand"`
	Model       string         `gorm:"type:varchar(64)" json:"model"`
	VehicleType VehicleType    `gorm:"type:vehicle_type;not null" json:"vehicle_type"`
	Capacity    int            `gorm:"not null" json:"capacity"`
	Status      ResourceStatus `gorm:"type:resource_status;not null;default:ACTIVE" json:"status"`
	// IsAvailable is a cache derived from the assignments ledger; it is
	// written only together with ledger changes, never by external callers.
	IsAvailable         bool       `gorm:"not null;default:true" json:"is_available"`
	CurrentAssignmentID *uuid.UUID `gorm:"type:uuid" json:"current_assignment_id"`
	AssignedDriverID    *uuid.UUID `gorm:"type:uuid" json:"assigned_driver_id"`
	InsuranceExpiry     *time.Time `gorm:"type:date" json:"insurance_expiry"`
	InspectionExpiry    *time.Time `gorm:"type:date" json:"inspection_expiry"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}

func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
