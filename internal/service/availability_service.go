package service

import (
	"context"
	"fmt"
	"strings"

	"fleet-service/internal/model"
	"fleet-service/internal/repository"
)

// AvailabilityService answers "which resources are free" queries. It is
// read-only: with a date it scans the ledger for conflicting claims, without
// one it falls back to the cached availability flag (the general listing
// query, where no specific day is being checked).
type AvailabilityService struct {
	vehicleRepo    VehicleRepository
	driverRepo     DriverRepository
	assignmentRepo AssignmentRepository
}

func NewAvailabilityService(vehicleRepo VehicleRepository, driverRepo DriverRepository, assignmentRepo AssignmentRepository) *AvailabilityService {
	return &AvailabilityService{
		vehicleRepo:    vehicleRepo,
		driverRepo:     driverRepo,
		assignmentRepo: assignmentRepo,
	}
}

// AvailableVehicle is a vehicle plus its computed display name. The name is
// derived on every query, never persisted.
type AvailableVehicle struct {
	model.Vehicle
	DisplayName string `json:"display_name"`
}

type AvailableDriver struct {
	model.Driver
	DisplayName string `json:"display_name"`
}

type AvailableVehiclesInput struct {
	Date        string
	MinCapacity *int
	VehicleType string
}

func (s *AvailabilityService) AvailableVehicles(ctx context.Context, input AvailableVehiclesInput) ([]AvailableVehicle, error) {
	active := model.ResourceStatusActive
	filter := repository.VehicleListFilter{
		Status:      &active,
		MinCapacity: input.MinCapacity,
	}
	if input.VehicleType != "" {
		vehicleType := model.VehicleType(strings.ToUpper(input.VehicleType))
		if !vehicleType.Valid() {
			return nil, ErrInvalidInput
		}
		filter.VehicleType = &vehicleType
	}

	dateScoped := strings.TrimSpace(input.Date) != ""
	if !dateScoped {
		available := true
		filter.Available = &available
	}

	vehicles, _, err := s.vehicleRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if dateScoped {
		date, err := parseDay(input.Date)
		if err != nil {
			return nil, err
		}
		claimed, err := s.assignmentRepo.ActiveResourceIDsOnDate(ctx, model.ResourceTypeVehicle, date)
		if err != nil {
			return nil, err
		}
		filtered := vehicles[:0]
		for _, v := range vehicles {
			if _, ok := claimed[v.ID]; !ok {
				filtered = append(filtered, v)
			}
		}
		vehicles = filtered
	}

	result := make([]AvailableVehicle, 0, len(vehicles))
	for _, v := range vehicles {
		result = append(result, AvailableVehicle{
			Vehicle:     v,
			DisplayName: vehicleDisplayName(&v),
		})
	}
	return result, nil
}

type AvailableDriversInput struct {
	Date        string
	VehicleType string
}

func (s *AvailabilityService) AvailableDrivers(ctx context.Context, input AvailableDriversInput) ([]AvailableDriver, error) {
	active := model.ResourceStatusActive
	filter := repository.DriverListFilter{
		Status: &active,
	}

	if input.VehicleType != "" {
		vehicleType := model.VehicleType(strings.ToUpper(input.VehicleType))
		if !vehicleType.Valid() {
			return nil, ErrInvalidInput
		}
		filter.LicenseCategories = categoriesFor(vehicleType)
	}

	dateScoped := strings.TrimSpace(input.Date) != ""
	if !dateScoped {
		available := true
		filter.Available = &available
	}

	drivers, _, err := s.driverRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if dateScoped {
		date, err := parseDay(input.Date)
		if err != nil {
			return nil, err
		}
		claimed, err := s.assignmentRepo.ActiveResourceIDsOnDate(ctx, model.ResourceTypeDriver, date)
		if err != nil {
			return nil, err
		}
		filtered := drivers[:0]
		for _, d := range drivers {
			if _, ok := claimed[d.ID]; !ok {
				filtered = append(filtered, d)
			}
		}
		drivers = filtered
	}

	result := make([]AvailableDriver, 0, len(drivers))
	for _, d := range drivers {
		result = append(result, AvailableDriver{
			Driver:      d,
			DisplayName: driverDisplayName(&d),
		})
	}
	return result, nil
}

func categoriesFor(t model.VehicleType) []model.LicenseCategory {
	all := []model.LicenseCategory{
		model.LicenseCategoryB,
		model.LicenseCategoryC,
		model.LicenseCategoryD,
		model.LicenseCategoryD1,
	}
	var out []model.LicenseCategory
	for _, c := range all {
		if c.CanOperate(t) {
			out = append(out, c)
		}
	}
	return out
}

func vehicleDisplayName(v *model.Vehicle) string {
	name := strings.TrimSpace(v.Brand + " " + v.Model)
	if name == "" {
		return v.PlateNumber
	}
	return fmt.Sprintf("%s (%s)", name, v.PlateNumber)
}

func driverDisplayName(d *model.Driver) string {
	return fmt.Sprintf("%s [%s]", d.FullName(), d.LicenseCategory)
}
