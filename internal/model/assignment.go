package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssignmentStatus string

const (
	AssignmentStatusActive    AssignmentStatus = "ACTIVE"
	AssignmentStatusCompleted AssignmentStatus = "COMPLETED"
)

// Assignment is a ledger record claiming a resource for a tour on a calendar
// day. Records are never deleted; the only transition is ACTIVE -> COMPLETED.
type Assignment struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ResourceID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"resource_id"`
	ResourceType ResourceType     `gorm:"type:resource_type;not null" json:"resource_type"`
	TourID       string           `gorm:"type:varchar(64);not null" json:"tour_id"`
	TourCode     string           `gorm:"type:varchar(64)" json:"tour_code"`
	Date         time.Time        `gorm:"type:date;not null;index" json:"date"`
	Status       AssignmentStatus `gorm:"type:assignment_status;not null;default:ACTIVE" json:"status"`
	Passengers   *int             `json:"passengers"`
	// Companion references: the driver sent along with a claimed vehicle,
	// or the vehicle a claimed driver is expected to operate.
	DriverID    *uuid.UUID `gorm:"type:uuid" json:"driver_id"`
	VehicleID   *uuid.UUID `gorm:"type:uuid" json:"vehicle_id"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Assignment) TableName() string {
	return "assignments"
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
