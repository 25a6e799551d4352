package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/taskflowhq/taskflow-api/internal/database"
)

var ErrNotFound = errors.New("task not found")

// Repository handles task persistence. Every read and write is scoped by
// owner_id, so a task is never visible outside its owner regardless of id.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new task
func (r *Repository) Create(ctx context.Context, t *Task) (*Task, error) {
	dbTask := &database.Task{
		OwnerID:     t.OwnerID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
	}

	_, err := r.db.NewInsert().
		Model(dbTask).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return mapDBTaskToModel(dbTask), nil
}

// ListByOwner returns the owner's tasks, newest first, optionally
// restricted to an exact status match.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID, status Status) ([]*Task, error) {
	var dbTasks []*database.Task

	q := r.db.NewSelect().
		Model(&dbTasks).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC")

	if status != "" {
		q = q.Where("status = ?", string(status))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]*Task, 0, len(dbTasks))
	for _, dbTask := range dbTasks {
		tasks = append(tasks, mapDBTaskToModel(dbTask))
	}

	return tasks, nil
}

// GetByID retrieves a single owned task
func (r *Repository) GetByID(ctx context.Context, ownerID, taskID uuid.UUID) (*Task, error) {
	dbTask := new(database.Task)
	err := r.db.NewSelect().
		Model(dbTask).
		Where("id = ?", taskID).
		Where("owner_id = ?", ownerID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return mapDBTaskToModel(dbTask), nil
}

// Update replaces all mutable fields of an owned task in one statement
func (r *Repository) Update(ctx context.Context, t *Task) (*Task, error) {
	dbTask := new(database.Task)
	result, err := r.db.NewUpdate().
		Model(dbTask).
		Set("title = ?", t.Title).
		Set("description = ?", t.Description).
		Set("due_date = ?", t.DueDate).
		Set("priority = ?", string(t.Priority)).
		Set("status = ?", string(t.Status)).
		Set("updated_at = NOW()").
		Where("id = ?", t.ID).
		Where("owner_id = ?", t.OwnerID).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return mapDBTaskToModel(dbTask), nil
}

// Delete removes an owned task
func (r *Repository) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.Task)(nil)).
		Where("id = ?", taskID).
		Where("owner_id = ?", ownerID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBTaskToModel converts database model to domain model
func mapDBTaskToModel(dbt *database.Task) *Task {
	return &Task{
		ID:          dbt.ID,
		OwnerID:     dbt.OwnerID,
		Title:       dbt.Title,
		Description: dbt.Description,
		DueDate:     dbt.DueDate,
		Priority:    Priority(dbt.Priority),
		Status:      Status(dbt.Status),
		CreatedAt:   dbt.CreatedAt,
		UpdatedAt:   dbt.UpdatedAt,
	}
}
