package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fleet-service/internal/model"
	"fleet-service/internal/repository"
	"fleet-service/internal/service"
)

// In-memory fakes implementing the service ports. All state lives in a single
// fakeStore guarded by one mutex, which keeps the flag/ledger agreement
// observable from tests and makes the concurrency tests meaningful.

type fakeStore struct {
	mu          sync.Mutex
	vehicles    map[uuid.UUID]model.Vehicle
	drivers     map[uuid.UUID]model.Driver
	assignments map[uuid.UUID]model.Assignment
	clock       time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		vehicles:    make(map[uuid.UUID]model.Vehicle),
		drivers:     make(map[uuid.UUID]model.Driver),
		assignments: make(map[uuid.UUID]model.Assignment),
		clock:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so created_at ordering is
// deterministic. Callers must hold s.mu.
func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// onGetByID, when set, runs once before the next lookup and then clears
// itself. Tests use it to interleave a competing operation between a
// service's read and its subsequent write.
type fakeVehicleRepo struct {
	s         *fakeStore
	onGetByID func()
}

type fakeDriverRepo struct {
	s         *fakeStore
	onGetByID func()
}

// createErr, when set, fails the next Create once. Simulates the database
// rejecting an insert that the in-process checks did not see coming, such as
// the unique index firing for a claim made by another service instance.
type fakeAssignmentRepo struct {
	s         *fakeStore
	createErr error
}

type fakeTx struct{}

var (
	_ service.VehicleRepository    = (*fakeVehicleRepo)(nil)
	_ service.DriverRepository     = (*fakeDriverRepo)(nil)
	_ service.AssignmentRepository = (*fakeAssignmentRepo)(nil)
	_ service.TxRunner             = (*fakeTx)(nil)
)

func (f *fakeTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Vehicle repo

func (f *fakeVehicleRepo) Create(_ context.Context, vehicle *model.Vehicle) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}
	vehicle.CreatedAt = f.s.tick()
	f.s.vehicles[vehicle.ID] = *vehicle
	return nil
}

func (f *fakeVehicleRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Vehicle, error) {
	if fn := f.onGetByID; fn != nil {
		f.onGetByID = nil
		fn()
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	vehicle, ok := f.s.vehicles[id]
	if !ok {
		return nil, nil
	}
	return &vehicle, nil
}

func (f *fakeVehicleRepo) GetByPlate(_ context.Context, plate string) (*model.Vehicle, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, vehicle := range f.s.vehicles {
		if vehicle.PlateNumber == plate {
			v := vehicle
			return &v, nil
		}
	}
	return nil, nil
}

func (f *fakeVehicleRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.ResourceStatus) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	vehicle := f.s.vehicles[id]
	vehicle.Status = status
	f.s.vehicles[id] = vehicle
	return nil
}

func (f *fakeVehicleRepo) SetAssignedDriver(_ context.Context, id uuid.UUID, driverID *uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	vehicle := f.s.vehicles[id]
	vehicle.AssignedDriverID = driverID
	f.s.vehicles[id] = vehicle
	return nil
}

func (f *fakeVehicleRepo) SetAvailability(_ context.Context, id uuid.UUID, available bool, currentAssignmentID *uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	vehicle := f.s.vehicles[id]
	vehicle.IsAvailable = available
	vehicle.CurrentAssignmentID = currentAssignmentID
	f.s.vehicles[id] = vehicle
	return nil
}

func (f *fakeVehicleRepo) List(_ context.Context, filter repository.VehicleListFilter) ([]model.Vehicle, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var matched []model.Vehicle
	for _, vehicle := range f.s.vehicles {
		if filter.Status != nil && vehicle.Status != *filter.Status {
			continue
		}
		if filter.VehicleType != nil && vehicle.VehicleType != *filter.VehicleType {
			continue
		}
		if filter.AgencyID != nil && vehicle.AgencyID != *filter.AgencyID {
			continue
		}
		if filter.Available != nil && vehicle.IsAvailable != *filter.Available {
			continue
		}
		if filter.MinCapacity != nil && vehicle.Capacity < *filter.MinCapacity {
			continue
		}
		if filter.Search != nil {
			needle := strings.ToLower(*filter.Search)
			haystack := strings.ToLower(vehicle.PlateNumber + " " + vehicle.Brand + " " + vehicle.Model)
			if !strings.Contains(haystack, needle) {
				continue
			}
		}
		matched = append(matched, vehicle)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })
	total := int64(len(matched))
	return paginate(matched, filter.Page, filter.PageSize), total, nil
}

// Driver repo

func (f *fakeDriverRepo) Create(_ context.Context, driver *model.Driver) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if driver.ID == uuid.Nil {
		driver.ID = uuid.New()
	}
	driver.CreatedAt = f.s.tick()
	f.s.drivers[driver.ID] = *driver
	return nil
}

func (f *fakeDriverRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Driver, error) {
	if fn := f.onGetByID; fn != nil {
		f.onGetByID = nil
		fn()
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	driver, ok := f.s.drivers[id]
	if !ok {
		return nil, nil
	}
	return &driver, nil
}

func (f *fakeDriverRepo) GetByLicense(_ context.Context, license string) (*model.Driver, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, driver := range f.s.drivers {
		if driver.LicenseNumber == license {
			d := driver
			return &d, nil
		}
	}
	return nil, nil
}

func (f *fakeDriverRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.ResourceStatus) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	driver := f.s.drivers[id]
	driver.Status = status
	f.s.drivers[id] = driver
	return nil
}

func (f *fakeDriverRepo) SetAssignedVehicle(_ context.Context, id uuid.UUID, vehicleID *uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	driver := f.s.drivers[id]
	driver.AssignedVehicleID = vehicleID
	f.s.drivers[id] = driver
	return nil
}

func (f *fakeDriverRepo) SetAvailability(_ context.Context, id uuid.UUID, available bool, currentAssignmentID *uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	driver := f.s.drivers[id]
	driver.IsAvailable = available
	driver.CurrentAssignmentID = currentAssignmentID
	f.s.drivers[id] = driver
	return nil
}

func (f *fakeDriverRepo) List(_ context.Context, filter repository.DriverListFilter) ([]model.Driver, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var matched []model.Driver
	for _, driver := range f.s.drivers {
		if filter.Status != nil && driver.Status != *filter.Status {
			continue
		}
		if len(filter.LicenseCategories) > 0 && !containsCategory(filter.LicenseCategories, driver.LicenseCategory) {
			continue
		}
		if filter.AgencyID != nil && driver.AgencyID != *filter.AgencyID {
			continue
		}
		if filter.Available != nil && driver.IsAvailable != *filter.Available {
			continue
		}
		if filter.VehicleAssigned != nil {
			assigned := driver.AssignedVehicleID != nil
			if assigned != *filter.VehicleAssigned {
				continue
			}
		}
		if filter.Search != nil {
			needle := strings.ToLower(*filter.Search)
			haystack := strings.ToLower(driver.FirstName + " " + driver.LastName + " " + driver.LicenseNumber)
			if !strings.Contains(haystack, needle) {
				continue
			}
		}
		matched = append(matched, driver)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })
	total := int64(len(matched))
	return paginate(matched, filter.Page, filter.PageSize), total, nil
}

// Assignment repo

func (f *fakeAssignmentRepo) Create(_ context.Context, assignment *model.Assignment) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.createErr; err != nil {
		f.createErr = nil
		return err
	}
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	assignment.CreatedAt = f.s.tick()
	f.s.assignments[assignment.ID] = *assignment
	return nil
}

func (f *fakeAssignmentRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Assignment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	assignment, ok := f.s.assignments[id]
	if !ok {
		return nil, nil
	}
	return &assignment, nil
}

func (f *fakeAssignmentRepo) Complete(_ context.Context, id uuid.UUID, completedAt time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	assignment := f.s.assignments[id]
	assignment.Status = model.AssignmentStatusCompleted
	assignment.CompletedAt = &completedAt
	f.s.assignments[id] = assignment
	return nil
}

func (f *fakeAssignmentRepo) FindActiveOnDate(_ context.Context, resourceID uuid.UUID, date time.Time) ([]model.Assignment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []model.Assignment
	for _, assignment := range f.s.assignments {
		if assignment.ResourceID == resourceID &&
			assignment.Status == model.AssignmentStatusActive &&
			assignment.Date.Equal(date) {
			out = append(out, assignment)
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) FindActiveForResource(_ context.Context, resourceID uuid.UUID) (*model.Assignment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var latest *model.Assignment
	for _, assignment := range f.s.assignments {
		if assignment.ResourceID != resourceID || assignment.Status != model.AssignmentStatusActive {
			continue
		}
		a := assignment
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			latest = &a
		}
	}
	return latest, nil
}

func (f *fakeAssignmentRepo) ActiveResourceIDsOnDate(_ context.Context, resourceType model.ResourceType, date time.Time) (map[uuid.UUID]struct{}, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	claimed := make(map[uuid.UUID]struct{})
	for _, assignment := range f.s.assignments {
		if assignment.ResourceType == resourceType &&
			assignment.Status == model.AssignmentStatusActive &&
			assignment.Date.Equal(date) {
			claimed[assignment.ResourceID] = struct{}{}
		}
	}
	return claimed, nil
}

func (f *fakeAssignmentRepo) ListByResource(_ context.Context, resourceID uuid.UUID) ([]model.Assignment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []model.Assignment
	for _, assignment := range f.s.assignments {
		if assignment.ResourceID == resourceID {
			out = append(out, assignment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func containsCategory(categories []model.LicenseCategory, category model.LicenseCategory) bool {
	for _, c := range categories {
		if c == category {
			return true
		}
	}
	return false
}
