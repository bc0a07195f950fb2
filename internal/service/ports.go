package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fleet-service/internal/model"
	"fleet-service/internal/repository"
)

// Repository ports consumed by the services. The gorm implementations live in
// internal/repository; tests substitute in-memory fakes. Lookups return
// (nil, nil) when the record does not exist — only infrastructure failures
// produce an error.

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *model.Vehicle) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	GetByPlate(ctx context.Context, plate string) (*model.Vehicle, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ResourceStatus) error
	SetAssignedDriver(ctx context.Context, id uuid.UUID, driverID *uuid.UUID) error
	SetAvailability(ctx context.Context, id uuid.UUID, available bool, currentAssignmentID *uuid.UUID) error
	List(ctx context.Context, filter repository.VehicleListFilter) ([]model.Vehicle, int64, error)
}

type DriverRepository interface {
	Create(ctx context.Context, driver *model.Driver) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Driver, error)
	GetByLicense(ctx context.Context, license string) (*model.Driver, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ResourceStatus) error
	SetAssignedVehicle(ctx context.Context, id uuid.UUID, vehicleID *uuid.UUID) error
	SetAvailability(ctx context.Context, id uuid.UUID, available bool, currentAssignmentID *uuid.UUID) error
	List(ctx context.Context, filter repository.DriverListFilter) ([]model.Driver, int64, error)
}

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *model.Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error)
	Complete(ctx context.Context, id uuid.UUID, completedAt time.Time) error
	FindActiveOnDate(ctx context.Context, resourceID uuid.UUID, date time.Time) ([]model.Assignment, error)
	FindActiveForResource(ctx context.Context, resourceID uuid.UUID) (*model.Assignment, error)
	ActiveResourceIDsOnDate(ctx context.Context, resourceType model.ResourceType, date time.Time) (map[uuid.UUID]struct{}, error)
	ListByResource(ctx context.Context, resourceID uuid.UUID) ([]model.Assignment, error)
}

// TxRunner executes fn atomically with respect to the backing store.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
