package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleet-service/internal/model"
)

// ErrDuplicateActiveAssignment is returned when the partial unique index on
// (resource_id, date) rejects an insert: another ACTIVE assignment already
// claims the resource on that day. With several service instances sharing one
// database this is the only guard that still holds.
var ErrDuplicateActiveAssignment = errors.New("active assignment already exists for resource and date")

// AssignmentRepository is the persistence side of the assignment ledger.
// Records are only ever inserted or transitioned to COMPLETED.
type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, assignment *model.Assignment) error {
	err := dbFrom(ctx, r.db).WithContext(ctx).Create(assignment).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateActiveAssignment
	}
	return err
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	var assignment model.Assignment
	err := dbFrom(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

// Complete transitions an assignment to COMPLETED. The status guard lives in
// the service layer; this is a plain column update.
func (r *AssignmentRepository) Complete(ctx context.Context, id uuid.UUID, completedAt time.Time) error {
	return dbFrom(ctx, r.db).WithContext(ctx).Model(&model.Assignment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       model.AssignmentStatusCompleted,
			"completed_at": completedAt,
		}).Error
}

// FindActiveOnDate is the overlap query the conflict guard depends on: all
// ACTIVE assignments claiming the resource on the given calendar day.
func (r *AssignmentRepository) FindActiveOnDate(ctx context.Context, resourceID uuid.UUID, date time.Time) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("resource_id = ? AND status = ? AND date = ?", resourceID, model.AssignmentStatusActive, date).
		Find(&assignments).Error
	return assignments, err
}

// FindActiveForResource returns the most recently created ACTIVE assignment
// for the resource, or nil when none exists.
func (r *AssignmentRepository) FindActiveForResource(ctx context.Context, resourceID uuid.UUID) (*model.Assignment, error) {
	var assignment model.Assignment
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("resource_id = ? AND status = ?", resourceID, model.AssignmentStatusActive).
		Order("created_at DESC").
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

// ActiveResourceIDsOnDate returns the ids of all resources of the given type
// that have an ACTIVE assignment on the day. One query instead of a ledger
// scan per resource when resolving availability.
func (r *AssignmentRepository) ActiveResourceIDsOnDate(ctx context.Context, resourceType model.ResourceType, date time.Time) (map[uuid.UUID]struct{}, error) {
	var ids []uuid.UUID
	err := dbFrom(ctx, r.db).WithContext(ctx).Model(&model.Assignment{}).
		Where("resource_type = ? AND status = ? AND date = ?", resourceType, model.AssignmentStatusActive, date).
		Pluck("resource_id", &ids).Error
	if err != nil {
		return nil, err
	}
	claimed := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		claimed[id] = struct{}{}
	}
	return claimed, nil
}

// ListByResource returns the resource's full assignment history,
// most recent first.
func (r *AssignmentRepository) ListByResource(ctx context.Context, resourceID uuid.UUID) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Order("created_at DESC").
		Find(&assignments).Error
	return assignments, err
}
