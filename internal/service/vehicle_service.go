package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"fleet-service/internal/model"
	"fleet-service/internal/repository"
	"fleet-service/internal/utils"
)

// VehicleService is the registry side for vehicles: registration, lookups,
// status transitions and the 1:1 vehicle-driver pairing. Date-based claims
// live in AssignmentService.
type VehicleService struct {
	vehicleRepo VehicleRepository
	driverRepo  DriverRepository
	tx          TxRunner
}

func NewVehicleService(vehicleRepo VehicleRepository, driverRepo DriverRepository, tx TxRunner) *VehicleService {
	return &VehicleService{
		vehicleRepo: vehicleRepo,
		driverRepo:  driverRepo,
		tx:          tx,
	}
}

type RegisterVehicleInput struct {
	AgencyID         string
	PlateNumber      string
	Brand            string
	Model            string
	VehicleType      string
	Capacity         int
	InsuranceExpiry  string
	InspectionExpiry string
}

func (s *VehicleService) Register(ctx context.Context, principal model.Principal, input RegisterVehicleInput) (*model.Vehicle, error) {
	if !principal.CanManageFleet() {
		return nil, ErrPermissionDenied
	}

	plate := utils.NormalizePlate(input.PlateNumber)
	if plate == "" {
		return nil, ErrInvalidInput
	}

	vehicleType := model.VehicleType(strings.ToUpper(strings.TrimSpace(input.VehicleType)))
	if !vehicleType.Valid() {
		return nil, ErrInvalidInput
	}
	if input.Capacity <= 0 {
		return nil, ErrInvalidInput
	}

	agencyID := principal.AgencyID
	if input.AgencyID != "" {
		parsed, err := uuid.Parse(input.AgencyID)
		if err != nil {
			return nil, ErrInvalidInput
		}
		if parsed != principal.AgencyID && !principal.IsAdmin() {
			return nil, ErrPermissionDenied
		}
		agencyID = parsed
	}

	insuranceExpiry, err := parseOptionalDay(input.InsuranceExpiry)
	if err != nil {
		return nil, err
	}
	inspectionExpiry, err := parseOptionalDay(input.InspectionExpiry)
	if err != nil {
		return nil, err
	}

	existing, err := s.vehicleRepo.GetByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateKey
	}

	vehicle := &model.Vehicle{
		AgencyID:         agencyID,
		PlateNumber:      plate,
		Brand:            strings.TrimSpace(input.Brand),
		Model:            strings.TrimSpace(input.Model),
		VehicleType:      vehicleType,
		Capacity:         input.Capacity,
		Status:           model.ResourceStatusActive,
		IsAvailable:      true,
		InsuranceExpiry:  insuranceExpiry,
		InspectionExpiry: inspectionExpiry,
	}

	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		return nil, err
	}

	return vehicle, nil
}

func (s *VehicleService) Get(ctx context.Context, principal model.Principal, id string) (*model.Vehicle, error) {
	vehicleID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidInput
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, ErrNotFound
	}
	if !principal.IsAdmin() && vehicle.AgencyID != principal.AgencyID {
		return nil, ErrPermissionDenied
	}

	return vehicle, nil
}

type ListVehiclesInput struct {
	Status      string
	VehicleType string
	AgencyID    string
	Available   *bool
	Search      string
	Page        int
	PageSize    int
}

func (s *VehicleService) List(ctx context.Context, principal model.Principal, input ListVehiclesInput) ([]model.Vehicle, int64, error) {
	filter := repository.VehicleListFilter{
		Available: input.Available,
		Page:      input.Page,
		PageSize:  input.PageSize,
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}

	if input.Status != "" {
		status := model.ResourceStatus(strings.ToUpper(input.Status))
		if !status.Valid() {
			return nil, 0, ErrInvalidInput
		}
		filter.Status = &status
	}
	if input.VehicleType != "" {
		vehicleType := model.VehicleType(strings.ToUpper(input.VehicleType))
		if !vehicleType.Valid() {
			return nil, 0, ErrInvalidInput
		}
		filter.VehicleType = &vehicleType
	}
	if search := strings.TrimSpace(input.Search); search != "" {
		filter.Search = &search
	}

	// Non-admin callers only see their own agency's fleet.
	if principal.IsAdmin() {
		if input.AgencyID != "" {
			agencyID, err := uuid.Parse(input.AgencyID)
			if err != nil {
				return nil, 0, ErrInvalidInput
			}
			filter.AgencyID = &agencyID
		}
	} else {
		agencyID := principal.AgencyID
		filter.AgencyID = &agencyID
	}

	return s.vehicleRepo.List(ctx, filter)
}

func (s *VehicleService) UpdateStatus(ctx context.Context, principal model.Principal, id string, status string) (*model.Vehicle, error) {
	if !principal.CanManageFleet() {
		return nil, ErrPermissionDenied
	}

	newStatus := model.ResourceStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !newStatus.Valid() {
		return nil, ErrInvalidInput
	}

	vehicle, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	// Status column only: a concurrent claim may flip the availability
	// columns between our read and this write.
	if err := s.vehicleRepo.UpdateStatus(ctx, vehicle.ID, newStatus); err != nil {
		return nil, err
	}
	vehicle.Status = newStatus

	return vehicle, nil
}

// AssignDriver establishes the 1:1 vehicle-driver pairing. It is independent
// of date-based tour assignments: a paired driver is the vehicle's default
// operator, not a claim on either resource.
func (s *VehicleService) AssignDriver(ctx context.Context, principal model.Principal, vehicleID, driverID string) error {
	if !principal.CanManageFleet() {
		return ErrPermissionDenied
	}

	vID, err := uuid.Parse(vehicleID)
	if err != nil {
		return ErrInvalidInput
	}
	dID, err := uuid.Parse(driverID)
	if err != nil {
		return ErrInvalidInput
	}

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		vehicle, err := s.vehicleRepo.GetByID(ctx, vID)
		if err != nil {
			return err
		}
		if vehicle == nil {
			return ErrNotFound
		}
		driver, err := s.driverRepo.GetByID(ctx, dID)
		if err != nil {
			return err
		}
		if driver == nil {
			return ErrNotFound
		}

		if vehicle.AssignedDriverID != nil || driver.AssignedVehicleID != nil {
			return ErrConflict
		}
		if !driver.LicenseCategory.CanOperate(vehicle.VehicleType) {
			return ErrConflict
		}

		if err := s.vehicleRepo.SetAssignedDriver(ctx, vehicle.ID, &driver.ID); err != nil {
			return err
		}
		return s.driverRepo.SetAssignedVehicle(ctx, driver.ID, &vehicle.ID)
	})
}

func (s *VehicleService) UnassignDriver(ctx context.Context, principal model.Principal, vehicleID string) error {
	if !principal.CanManageFleet() {
		return ErrPermissionDenied
	}

	vID, err := uuid.Parse(vehicleID)
	if err != nil {
		return ErrInvalidInput
	}

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		vehicle, err := s.vehicleRepo.GetByID(ctx, vID)
		if err != nil {
			return err
		}
		if vehicle == nil {
			return ErrNotFound
		}
		if vehicle.AssignedDriverID == nil {
			return ErrInvalidState
		}

		driver, err := s.driverRepo.GetByID(ctx, *vehicle.AssignedDriverID)
		if err != nil {
			return err
		}

		if err := s.vehicleRepo.SetAssignedDriver(ctx, vehicle.ID, nil); err != nil {
			return err
		}
		if driver != nil {
			return s.driverRepo.SetAssignedVehicle(ctx, driver.ID, nil)
		}
		return nil
	})
}

func parseOptionalDay(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	day, err := parseDay(raw)
	if err != nil {
		return nil, err
	}
	return &day, nil
}
