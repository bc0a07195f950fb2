package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"fleet-service/internal/model"
	"fleet-service/internal/service"
)

var testAgencyID = uuid.MustParse("7b8c5f8e-1111-4a4a-9b9b-000000000001")

type fixture struct {
	store        *fakeStore
	vehicleRepo  *fakeVehicleRepo
	driverRepo   *fakeDriverRepo
	ledger       *fakeAssignmentRepo
	vehicles     *service.VehicleService
	drivers      *service.DriverService
	assignments  *service.AssignmentService
	availability *service.AvailabilityService
}

func newFixture() *fixture {
	store := newFakeStore()
	vehicleRepo := &fakeVehicleRepo{s: store}
	driverRepo := &fakeDriverRepo{s: store}
	ledger := &fakeAssignmentRepo{s: store}
	tx := &fakeTx{}

	return &fixture{
		store:        store,
		vehicleRepo:  vehicleRepo,
		driverRepo:   driverRepo,
		ledger:       ledger,
		vehicles:     service.NewVehicleService(vehicleRepo, driverRepo, tx),
		drivers:      service.NewDriverService(driverRepo),
		assignments:  service.NewAssignmentService(vehicleRepo, driverRepo, ledger, tx, zerolog.Nop()),
		availability: service.NewAvailabilityService(vehicleRepo, driverRepo, ledger),
	}
}

func dispatcher() model.Principal {
	return model.Principal{
		UserID:   uuid.New(),
		AgencyID: testAgencyID,
		Role:     model.RoleDispatcher,
	}
}

func viewer() model.Principal {
	return model.Principal{
		UserID:   uuid.New(),
		AgencyID: testAgencyID,
		Role:     model.RoleViewer,
	}
}

// outsider is a dispatcher from a different agency.
func outsider() model.Principal {
	return model.Principal{
		UserID:   uuid.New(),
		AgencyID: uuid.New(),
		Role:     model.RoleDispatcher,
	}
}

func admin() model.Principal {
	return model.Principal{
		UserID:   uuid.New(),
		AgencyID: uuid.New(),
		Role:     model.RoleAdmin,
	}
}

func (fx *fixture) addVehicle(t *testing.T, plate string, vehicleType model.VehicleType, capacity int) *model.Vehicle {
	t.Helper()
	vehicle := &model.Vehicle{
		AgencyID:    testAgencyID,
		PlateNumber: plate,
		Brand:       "Mercedes",
		Model:       "Sprinter",
		VehicleType: vehicleType,
		Capacity:    capacity,
		Status:      model.ResourceStatusActive,
		IsAvailable: true,
	}
	require.NoError(t, fx.vehicleRepo.Create(context.Background(), vehicle))
	return vehicle
}

func (fx *fixture) addDriver(t *testing.T, license string, category model.LicenseCategory) *model.Driver {
	t.Helper()
	driver := &model.Driver{
		AgencyID:        testAgencyID,
		FirstName:       "Ion",
		LastName:        "Popescu",
		LicenseNumber:   license,
		LicenseCategory: category,
		Status:          model.ResourceStatusActive,
		IsAvailable:     true,
	}
	require.NoError(t, fx.driverRepo.Create(context.Background(), driver))
	return driver
}

func (fx *fixture) vehicleState(t *testing.T, id uuid.UUID) model.Vehicle {
	t.Helper()
	fx.store.mu.Lock()
	defer fx.store.mu.Unlock()
	vehicle, ok := fx.store.vehicles[id]
	require.True(t, ok, "vehicle %s not in store", id)
	return vehicle
}

func (fx *fixture) driverState(t *testing.T, id uuid.UUID) model.Driver {
	t.Helper()
	fx.store.mu.Lock()
	defer fx.store.mu.Unlock()
	driver, ok := fx.store.drivers[id]
	require.True(t, ok, "driver %s not in store", id)
	return driver
}

func (fx *fixture) assignmentCount(status model.AssignmentStatus) int {
	fx.store.mu.Lock()
	defer fx.store.mu.Unlock()
	count := 0
	for _, a := range fx.store.assignments {
		if a.Status == status {
			count++
		}
	}
	return count
}
