package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"fleet-service/internal/model"
	"fleet-service/internal/repository"
	"fleet-service/internal/utils"
)

type DriverService struct {
	driverRepo DriverRepository
}

func NewDriverService(driverRepo DriverRepository) *DriverService {
	return &DriverService{driverRepo: driverRepo}
}

type RegisterDriverInput struct {
	AgencyID        string
	FirstName       string
	LastName        string
	Phone           string
	LicenseNumber   string
	LicenseCategory string
	LicenseExpiry   string
}

func (s *DriverService) Register(ctx context.Context, principal model.Principal, input RegisterDriverInput) (*model.Driver, error) {
	if !principal.CanManageFleet() {
		return nil, ErrPermissionDenied
	}

	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if firstName == "" || lastName == "" {
		return nil, ErrInvalidInput
	}

	license := utils.NormalizeLicense(input.LicenseNumber)
	if license == "" {
		return nil, ErrInvalidInput
	}

	category := model.LicenseCategory(strings.ToUpper(strings.TrimSpace(input.LicenseCategory)))
	if !category.Valid() {
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

	licenseExpiry, err := parseOptionalDay(input.LicenseExpiry)
	if err != nil {
		return nil, err
	}

	existing, err := s.driverRepo.GetByLicense(ctx, license)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateKey
	}

	driver := &model.Driver{
		AgencyID:        agencyID,
		FirstName:       firstName,
		LastName:        lastName,
		Phone:           strings.TrimSpace(input.Phone),
		LicenseNumber:   license,
		LicenseCategory: category,
		LicenseExpiry:   licenseExpiry,
		Status:          model.ResourceStatusActive,
		IsAvailable:     true,
	}

	if err := s.driverRepo.Create(ctx, driver); err != nil {
		return nil, err
	}

	return driver, nil
}

func (s *DriverService) Get(ctx context.Context, principal model.Principal, id string) (*model.Driver, error) {
	driverID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidInput
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if driver == nil {
		return nil, ErrNotFound
	}
	if !principal.IsAdmin() && driver.AgencyID != principal.AgencyID {
		return nil, ErrPermissionDenied
	}

	return driver, nil
}

type ListDriversInput struct {
	Status          string
	LicenseType     string
	AgencyID        string
	Available       *bool
	VehicleAssigned *bool
	Search          string
	Page            int
	PageSize        int
}

func (s *DriverService) List(ctx context.Context, principal model.Principal, input ListDriversInput) ([]model.Driver, int64, error) {
	filter := repository.DriverListFilter{
		Available:       input.Available,
		VehicleAssigned: input.VehicleAssigned,
		Page:            input.Page,
		PageSize:        input.PageSize,
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
	if input.LicenseType != "" {
		category := model.LicenseCategory(strings.ToUpper(input.LicenseType))
		if !category.Valid() {
			return nil, 0, ErrInvalidInput
		}
		filter.LicenseCategories = []model.LicenseCategory{category}
	}
	if search := strings.TrimSpace(input.Search); search != "" {
		filter.Search = &search
	}

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

	return s.driverRepo.List(ctx, filter)
}

func (s *DriverService) UpdateStatus(ctx context.Context, principal model.Principal, id string, status string) (*model.Driver, error) {
	if !principal.CanManageFleet() {
		return nil, ErrPermissionDenied
	}

	newStatus := model.ResourceStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !newStatus.Valid() {
		return nil, ErrInvalidInput
	}

	driver, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	// Status column only, same reasoning as VehicleService.UpdateStatus.
	if err := s.driverRepo.UpdateStatus(ctx, driver.ID, newStatus); err != nil {
		return nil, err
	}
	driver.Status = newStatus

	return driver, nil
}
