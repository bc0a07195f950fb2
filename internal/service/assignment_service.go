package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fleet-service/internal/model"
	"fleet-service/internal/repository"
)

// AssignmentService owns the assignment ledger lifecycle and acts as the
// conflict guard: every claim is checked against the ledger and applied
// together with the cached availability flag as one atomic unit.
//
// Claims and releases on the same resource are serialized with a per-resource
// mutex, closing the check-then-act window between the overlap query and the
// ledger write. The partial unique index on (resource_id, date) for ACTIVE
// rows backstops the same invariant at the database level.
type AssignmentService struct {
	vehicleRepo    VehicleRepository
	driverRepo     DriverRepository
	assignmentRepo AssignmentRepository
	tx             TxRunner
	log            zerolog.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewAssignmentService(
	vehicleRepo VehicleRepository,
	driverRepo DriverRepository,
	assignmentRepo AssignmentRepository,
	tx TxRunner,
	log zerolog.Logger,
) *AssignmentService {
	return &AssignmentService{
		vehicleRepo:    vehicleRepo,
		driverRepo:     driverRepo,
		assignmentRepo: assignmentRepo,
		tx:             tx,
		log:            log,
		locks:          make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *AssignmentService) lockFor(resourceID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[resourceID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[resourceID] = lock
	}
	return lock
}

type ClaimVehicleInput struct {
	VehicleID  string
	TourID     string
	TourCode   string
	Date       string
	DriverID   string
	Passengers *int
}

func (s *AssignmentService) ClaimVehicle(ctx context.Context, principal model.Principal, input ClaimVehicleInput) (*model.Assignment, error) {
	if !principal.CanManageFleet() {
		return nil, ErrPermissionDenied
	}

	vehicleID, err := uuid.Parse(input.VehicleID)
	if err != nil {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(input.TourID) == "" {
		return nil, ErrInvalidInput
	}
	date, err := parseDay(input.Date)
	if err != nil {
		return nil, err
	}

	var companionDriverID *uuid.UUID
	if input.DriverID != "" {
		id, err := uuid.Parse(input.DriverID)
		if err != nil {
			return nil, ErrInvalidInput
		}
		companionDriverID = &id
	}

	lock := s.lockFor(vehicleID)
	lock.Lock()
	defer lock.Unlock()

	var assignment *model.Assignment
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
		if err != nil {
			return err
		}
		if vehicle == nil {
			return ErrNotFound
		}
		if !principal.IsAdmin() && vehicle.AgencyID != principal.AgencyID {
			return ErrPermissionDenied
		}
		if vehicle.Status != model.ResourceStatusActive {
			return ErrResourceInactive
		}
		if input.Passengers != nil && *input.Passengers > vehicle.Capacity {
			return fmt.Errorf("%w: %d passengers exceed vehicle capacity %d", ErrCapacityExceeded, *input.Passengers, vehicle.Capacity)
		}
		if companionDriverID != nil {
			driver, err := s.driverRepo.GetByID(ctx, *companionDriverID)
			if err != nil {
				return err
			}
			if driver == nil {
				return ErrNotFound
			}
		}

		conflicts, err := s.assignmentRepo.FindActiveOnDate(ctx, vehicleID, date)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return fmt.Errorf("%w: assignment %s already claims vehicle on %s",
				ErrDoubleBooking, conflicts[0].ID, date.Format("2006-01-02"))
		}

		assignment = &model.Assignment{
			ResourceID:   vehicleID,
			ResourceType: model.ResourceTypeVehicle,
			TourID:       strings.TrimSpace(input.TourID),
			TourCode:     strings.TrimSpace(input.TourCode),
			Date:         date,
			Status:       model.AssignmentStatusActive,
			Passengers:   input.Passengers,
			DriverID:     companionDriverID,
		}
		if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
			// The partial unique index catches races the in-process lock
			// cannot, such as a second service instance on the same database.
			if errors.Is(err, repository.ErrDuplicateActiveAssignment) {
				return fmt.Errorf("%w: vehicle already claimed on %s", ErrDoubleBooking, date.Format("2006-01-02"))
			}
			return err
		}
		return s.vehicleRepo.SetAvailability(ctx, vehicleID, false, &assignment.ID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("assignment_id", assignment.ID.String()).
		Str("vehicle_id", vehicleID.String()).
		Str("tour_id", assignment.TourID).
		Str("date", date.Format("2006-01-02")).
		Msg("vehicle claimed")

	return assignment, nil
}

type ClaimDriverInput struct {
	DriverID  string
	TourID    string
	TourCode  string
	Date      string
	VehicleID string
}

func (s *AssignmentService) ClaimDriver(ctx context.Context, principal model.Principal, input ClaimDriverInput) (*model.Assignment, error) {
	if !principal.CanManageFleet() {
		return nil, ErrPermissionDenied
	}

	driverID, err := uuid.Parse(input.DriverID)
	if err != nil {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(input.TourID) == "" {
		return nil, ErrInvalidInput
	}
	date, err := parseDay(input.Date)
	if err != nil {
		return nil, err
	}

	var companionVehicleID *uuid.UUID
	if input.VehicleID != "" {
		id, err := uuid.Parse(input.VehicleID)
		if err != nil {
			return nil, ErrInvalidInput
		}
		companionVehicleID = &id
	}

	lock := s.lockFor(driverID)
	lock.Lock()
	defer lock.Unlock()

	var assignment *model.Assignment
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		driver, err := s.driverRepo.GetByID(ctx, driverID)
		if err != nil {
			return err
		}
		if driver == nil {
			return ErrNotFound
		}
		if !principal.IsAdmin() && driver.AgencyID != principal.AgencyID {
			return ErrPermissionDenied
		}
		if driver.Status != model.ResourceStatusActive {
			return ErrResourceInactive
		}
		if companionVehicleID != nil {
			vehicle, err := s.vehicleRepo.GetByID(ctx, *companionVehicleID)
			if err != nil {
				return err
			}
			if vehicle == nil {
				return ErrNotFound
			}
		}

		conflicts, err := s.assignmentRepo.FindActiveOnDate(ctx, driverID, date)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return fmt.Errorf("%w: assignment %s already claims driver on %s",
				ErrDoubleBooking, conflicts[0].ID, date.Format("2006-01-02"))
		}

		assignment = &model.Assignment{
			ResourceID:   driverID,
			ResourceType: model.ResourceTypeDriver,
			TourID:       strings.TrimSpace(input.TourID),
			TourCode:     strings.TrimSpace(input.TourCode),
			Date:         date,
			Status:       model.AssignmentStatusActive,
			VehicleID:    companionVehicleID,
		}
		if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
			if errors.Is(err, repository.ErrDuplicateActiveAssignment) {
				return fmt.Errorf("%w: driver already claimed on %s", ErrDoubleBooking, date.Format("2006-01-02"))
			}
			return err
		}
		return s.driverRepo.SetAvailability(ctx, driverID, false, &assignment.ID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("assignment_id", assignment.ID.String()).
		Str("driver_id", driverID.String()).
		Str("tour_id", assignment.TourID).
		Str("date", date.Format("2006-01-02")).
		Msg("driver claimed")

	return assignment, nil
}

// Release completes an assignment and re-opens the resource's cached
// availability, but only when no other ACTIVE assignment still claims the
// resource (future-dated claims keep it unavailable).
func (s *AssignmentService) Release(ctx context.Context, principal model.Principal, id string) (*model.Assignment, error) {
	if !principal.CanManageFleet() {
		return nil, ErrPermissionDenied
	}

	assignmentID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidInput
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, ErrNotFound
	}
	if err := s.checkResourceAccess(ctx, principal, assignment.ResourceType, assignment.ResourceID); err != nil {
		return nil, err
	}

	return s.release(ctx, assignment.ID, assignment.ResourceID, assignment.ResourceType)
}

// ReleaseByResource completes the resource's current (most recent) ACTIVE
// assignment.
func (s *AssignmentService) ReleaseByResource(ctx context.Context, principal model.Principal, resourceType model.ResourceType, id string) (*model.Assignment, error) {
	if !principal.CanManageFleet() {
		return nil, ErrPermissionDenied
	}

	resourceID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidInput
	}
	if err := s.checkResourceAccess(ctx, principal, resourceType, resourceID); err != nil {
		return nil, err
	}

	active, err := s.assignmentRepo.FindActiveForResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if active == nil || active.ResourceType != resourceType {
		return nil, ErrNotFound
	}

	return s.release(ctx, active.ID, resourceID, resourceType)
}

func (s *AssignmentService) release(ctx context.Context, assignmentID, resourceID uuid.UUID, resourceType model.ResourceType) (*model.Assignment, error) {
	lock := s.lockFor(resourceID)
	lock.Lock()
	defer lock.Unlock()

	var released *model.Assignment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		// Re-read under the lock: the assignment may have been completed
		// between the caller's lookup and here.
		assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
		if err != nil {
			return err
		}
		if assignment == nil {
			return ErrNotFound
		}
		if assignment.Status != model.AssignmentStatusActive {
			return ErrInvalidState
		}

		now := time.Now().UTC()
		if err := s.assignmentRepo.Complete(ctx, assignmentID, now); err != nil {
			return err
		}
		assignment.Status = model.AssignmentStatusCompleted
		assignment.CompletedAt = &now

		remaining, err := s.assignmentRepo.FindActiveForResource(ctx, resourceID)
		if err != nil {
			return err
		}
		available := remaining == nil
		var currentRef *uuid.UUID
		if remaining != nil {
			currentRef = &remaining.ID
		}

		switch resourceType {
		case model.ResourceTypeVehicle:
			err = s.vehicleRepo.SetAvailability(ctx, resourceID, available, currentRef)
		case model.ResourceTypeDriver:
			err = s.driverRepo.SetAvailability(ctx, resourceID, available, currentRef)
		default:
			err = ErrInvalidInput
		}
		if err != nil {
			return err
		}

		released = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("assignment_id", assignmentID.String()).
		Str("resource_id", resourceID.String()).
		Msg("assignment released")

	return released, nil
}

func (s *AssignmentService) Get(ctx context.Context, principal model.Principal, id string) (*model.Assignment, error) {
	assignmentID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidInput
	}
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, ErrNotFound
	}
	if err := s.checkResourceAccess(ctx, principal, assignment.ResourceType, assignment.ResourceID); err != nil {
		return nil, err
	}
	return assignment, nil
}

// History returns a resource's assignments, most recent first.
func (s *AssignmentService) History(ctx context.Context, principal model.Principal, resourceType model.ResourceType, id string) ([]model.Assignment, error) {
	resourceID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidInput
	}
	if err := s.checkResourceAccess(ctx, principal, resourceType, resourceID); err != nil {
		return nil, err
	}
	return s.assignmentRepo.ListByResource(ctx, resourceID)
}

// checkResourceAccess verifies the resource exists and that the caller's
// agency owns it. Admins see every agency.
func (s *AssignmentService) checkResourceAccess(ctx context.Context, principal model.Principal, resourceType model.ResourceType, resourceID uuid.UUID) error {
	var agencyID uuid.UUID
	switch resourceType {
	case model.ResourceTypeVehicle:
		vehicle, err := s.vehicleRepo.GetByID(ctx, resourceID)
		if err != nil {
			return err
		}
		if vehicle == nil {
			return ErrNotFound
		}
		agencyID = vehicle.AgencyID
	case model.ResourceTypeDriver:
		driver, err := s.driverRepo.GetByID(ctx, resourceID)
		if err != nil {
			return err
		}
		if driver == nil {
			return ErrNotFound
		}
		agencyID = driver.AgencyID
	default:
		return ErrInvalidInput
	}

	if !principal.IsAdmin() && agencyID != principal.AgencyID {
		return ErrPermissionDenied
	}
	return nil
}
