package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LicenseCategory string

const (
	LicenseCategoryB  LicenseCategory = "B"
	LicenseCategoryC  LicenseCategory = "C"
	LicenseCategoryD  LicenseCategory = "D"
	LicenseCategoryD1 LicenseCategory = "D1"
)

func (c LicenseCategory) Valid() bool {
	switch c {
	case LicenseCategoryB, LicenseCategoryC, LicenseCategoryD, LicenseCategoryD1:
		return true
	default:
		return false
	}
}

// CanOperate reports whether the category licenses a driver for the given
// vehicle type. D covers everything, D1 covers everything but full-size
// buses, B/C cover cars and SUVs only.
func (c LicenseCategory) CanOperate(t VehicleType) bool {
	switch t {
	case VehicleTypeBus:
		return c == LicenseCategoryD
	case VehicleTypeMinibus:
		return c == LicenseCategoryD || c == LicenseCategoryD1
	default:
		return c.Valid()
	}
}

type Driver struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	AgencyID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"agency_id"`
	FirstName       string          `gorm:"type:varchar(64);not null" json:"first_name"`
	LastName        string          `gorm:"type:varchar(64);not null" json:"last_name"`
	Phone           string          `gorm:"type:varchar(32)" json:"phone"`
	LicenseNumber   string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"license_number"`
	LicenseCategory LicenseCategory `gorm:"type:license_category;not null" json:"license_category"`
	LicenseExpiry   *time.Time      `gorm:"type:date" json:"license_expiry"`
	Status          ResourceStatus  `gorm:"type:resource_status;not null;default:ACTIVE" json:"status"`
	// IsAvailable mirrors the assignments ledger, same contract as on Vehicle.
	IsAvailable         bool       `gorm:"not null;default:true" json:"is_available"`
	CurrentAssignmentID *uuid.UUID `gorm:"type:uuid" json:"current_assignment_id"`
	AssignedVehicleID   *uuid.UUID `gorm:"type:uuid" json:"assigned_vehicle_id"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Driver) TableName() string {
	return "drivers"
}

func (d *Driver) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (d *Driver) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}
